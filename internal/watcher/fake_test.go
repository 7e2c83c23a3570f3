// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package watcher

import (
	"errors"
	"sync"
	"testing"
	"time"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/provider"
)

const waitTimeout = 2 * time.Second

type fakeProvider struct {
	mu      sync.Mutex
	session *fakeSession
	openErr error
	opens   int
	opts    provider.OpenOptions
}

func (p *fakeProvider) Open(opts provider.OpenOptions) (provider.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.opens++
	p.opts = opts
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.session, nil
}

func (p *fakeProvider) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

type fakeSession struct {
	mu       sync.Mutex
	version  fix.ProtocolVersion
	raw      fix.RawFix
	fixErr   error
	state    provider.DeviceState
	interval time.Duration
	closed   bool

	fixUpdated   *provider.Signal
	stateChanged *provider.Signal

	// served receives every fix handed out
	served chan fix.RawFix
}

func newFakeSession(version fix.ProtocolVersion) *fakeSession {
	return &fakeSession{
		version:      version,
		state:        provider.DeviceState{Service: provider.PowerOn, Device: provider.PowerOn},
		fixUpdated:   provider.NewSignal(),
		stateChanged: provider.NewSignal(),
		served:       make(chan fix.RawFix, 64),
	}
}

func (s *fakeSession) Version() fix.ProtocolVersion { return s.version }

func (s *fakeSession) DeviceState() (provider.DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return provider.DeviceState{}, provider.CheckResponse("QueryDeviceState", provider.CodeInvalidHandle)
	}
	return s.state, nil
}

func (s *fakeSession) Fix(maxAge time.Duration) (fix.RawFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fix.RawFix{}, provider.CheckResponse("QueryFix", provider.CodeInvalidHandle)
	}
	if s.fixErr != nil {
		err := s.fixErr
		s.fixErr = nil
		s.serve(fix.RawFix{})
		return fix.RawFix{}, err
	}
	s.serve(s.raw)
	return s.raw, nil
}

func (s *fakeSession) serve(raw fix.RawFix) {
	select {
	case s.served <- raw:
	default:
	}
}

// drain forgets about fixes read so far.
func (s *fakeSession) drain() {
	for {
		select {
		case <-s.served:
		default:
			return
		}
	}
}

func (s *fakeSession) SetReportInterval(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = interval
	return nil
}

func (s *fakeSession) FixUpdated() <-chan struct{}   { return s.fixUpdated.C() }
func (s *fakeSession) StateChanged() <-chan struct{} { return s.stateChanged.C() }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("closed twice")
	}
	s.closed = true
	return nil
}

func (s *fakeSession) setFix(raw fix.RawFix) {
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
}

// push hands raw to the watcher and waits until it has been read.
func (s *fakeSession) push(t *testing.T, raw fix.RawFix) {
	t.Helper()
	s.setFix(raw)
	s.fixUpdated.Set()
	s.waitServed(t)
}

func (s *fakeSession) pushError(t *testing.T, err error) {
	t.Helper()
	s.mu.Lock()
	s.fixErr = err
	s.mu.Unlock()
	s.fixUpdated.Set()
	s.waitServed(t)
}

func (s *fakeSession) setState(state provider.DeviceState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.stateChanged.Set()
}

func (s *fakeSession) waitServed(t *testing.T) {
	t.Helper()
	select {
	case <-s.served:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for the watcher to read a fix")
	}
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeSession) reportInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// recorder collects everything a watcher raises.
type recorder struct {
	positions  chan location.Position[location.Coordinate]
	statuses   chan Status
	properties chan string
}

func record(w *Watcher) *recorder {
	r := &recorder{
		positions:  make(chan location.Position[location.Coordinate], 64),
		statuses:   make(chan Status, 64),
		properties: make(chan string, 64),
	}
	w.OnPositionChanged(func(p location.Position[location.Coordinate]) { r.positions <- p })
	w.OnStatusChanged(func(s Status) { r.statuses <- s })
	w.OnPropertyChanged(func(name string) { r.properties <- name })
	return r
}

func (r *recorder) position(t *testing.T) location.Position[location.Coordinate] {
	t.Helper()
	select {
	case p := <-r.positions:
		return p
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a position event")
	}
	return location.Position[location.Coordinate]{}
}

func (r *recorder) status(t *testing.T) Status {
	t.Helper()
	select {
	case s := <-r.statuses:
		return s
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a status event")
	}
	return -1
}

func (r *recorder) noPositions(t *testing.T) {
	t.Helper()
	select {
	case p := <-r.positions:
		t.Fatalf("unexpected position event: %v", p.Location)
	default:
	}
}

func (r *recorder) noStatuses(t *testing.T) {
	t.Helper()
	select {
	case s := <-r.statuses:
		t.Fatalf("unexpected status event: %v", s)
	default:
	}
}

func rawAt(lat, lon float64) fix.RawFix {
	return fix.RawFix{
		Version:        fix.Version1,
		Valid:          fix.UTCTime | fix.Latitude | fix.Longitude | fix.HorizontalDOP,
		Time:           fix.UTCFields{Year: 2021, Month: 6, Day: 14, Hour: 12},
		Latitude:       lat,
		Longitude:      lon,
		HorizontalDOP:  1.2,
		SatelliteCount: 8,
	}
}
