// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
)

// blockAt returns a logger that parks the first goroutine logging msg until
// release is closed. reached is closed once it is parked.
func blockAt(msg string) (log *zap.Logger, reached, release chan struct{}) {
	reached = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once

	core, _ := observer.New(zapcore.DebugLevel)
	log = zap.New(core, zap.Hooks(func(e zapcore.Entry) error {
		if e.Message == msg {
			once.Do(func() {
				close(reached)
				<-release
			})
		}
		return nil
	}))
	return
}

// Stop arriving while a poll cycle is publishing a status must still leave
// Disabled as the last status anyone sees.
func TestStopDuringPollCycle(t *testing.T) {
	tables := []struct {
		name    string
		at      string
		prepare func(t *testing.T, s *fakeSession, rec *recorder)
		change  func(s *fakeSession)
	}{
		{"fix acquired", "fix acquired",
			func(t *testing.T, s *fakeSession, rec *recorder) {},
			func(s *fakeSession) {
				s.setFix(rawAt(48.1, 11.5))
				s.fixUpdated.Set()
			}},
		{"fix lost", "fix lost",
			func(t *testing.T, s *fakeSession, rec *recorder) {
				s.push(t, rawAt(48.1, 11.5))
				require.Equal(t, Ready, rec.status(t))
			},
			func(s *fakeSession) {
				s.setFix(fix.RawFix{Version: fix.Version1})
				s.fixUpdated.Set()
			}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			log, reached, release := blockAt(table.at)
			s := newFakeSession(fix.Version1)
			m := NewMetrics(prometheus.NewRegistry())
			w := New(&fakeProvider{session: s}, log, m)
			rec := record(w)
			start(t, w, s)
			table.prepare(t, s, rec)

			table.change(s)
			select {
			case <-reached:
			case <-time.After(waitTimeout):
				close(release)
				t.Fatalf("poll cycle never logged %q", table.at)
			}

			stopped := make(chan struct{})
			go func() {
				w.Stop()
				close(stopped)
			}()
			// give Stop time to queue up behind the cycle
			time.Sleep(20 * time.Millisecond)
			close(release)

			select {
			case <-stopped:
			case <-time.After(waitTimeout):
				t.Fatal("Stop did not return")
			}

			var last Status = -1
			for len(rec.statuses) > 0 {
				last = <-rec.statuses
			}
			require.NotEqual(t, Status(-1), last, "no status events")
			assert.Equal(t, Disabled, last)
			assert.Equal(t, Disabled, w.Status())
			assert.Equal(t, 0.0, testutil.ToFloat64(m.status))
			assert.True(t, w.Position().Location.IsUnknown())
		})
	}
}
