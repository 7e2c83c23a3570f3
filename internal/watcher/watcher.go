// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

// Package watcher turns a stream of raw provider fixes into position and
// status notifications.
package watcher

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/provider"
)

const (
	// maxFixAge is the oldest fix a query accepts from the provider.
	maxFixAge = 2000 * time.Millisecond

	// tryStartPoll is how often TryStart re-reads the provider while it
	// waits for a fix.
	tryStartPoll = 100 * time.Millisecond
)

var errStopped = errors.New("watcher: session closed")

// run is one Start..Stop cycle.
type run struct {
	session provider.Session
	stop    chan struct{}

	// closed is guarded by Watcher.teardown
	closed bool
}

type Watcher struct {
	provider provider.Provider
	log      *zap.Logger
	metrics  *Metrics

	// lifecycle serializes Start, TryStart and Stop.
	lifecycle sync.Mutex

	// emit is held while the poller or Stop changes the status or the
	// position and publishes the change. Taken after lifecycle, before mu.
	emit sync.Mutex

	// teardown is held while the session is queried and while it is
	// closed, the two never overlap.
	teardown sync.Mutex

	mu        sync.Mutex
	run       *run
	status    Status
	position  location.Position[location.Coordinate]
	threshold float64
	interval  time.Duration

	positionListeners listeners[location.Position[location.Coordinate]]
	statusListeners   listeners[Status]
	propertyListeners listeners[string]

	workers atomic.Int32
}

// New returns a stopped watcher reading from p. log and metrics may be nil.
func New(p provider.Provider, log *zap.Logger, metrics *Metrics) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}

	w := &Watcher{
		provider: p,
		log:      log,
		metrics:  metrics,
		status:   Disabled,
		position: location.UnknownPosition(),
	}
	metrics.setStatus(Disabled)
	return w
}

func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Position returns the last accepted position, or an unknown one.
func (w *Watcher) Position() location.Position[location.Coordinate] {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position
}

func (w *Watcher) MovementThreshold() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.threshold
}

// SetMovementThreshold sets the distance in meters a new fix must be away
// from the previous one to be reported. Zero reports every fix.
func (w *Watcher) SetMovementThreshold(meters float64) error {
	if meters < 0 || math.IsNaN(meters) {
		return &ArgumentRangeError{Name: "MovementThreshold", Value: meters}
	}

	w.mu.Lock()
	changed := w.threshold != meters
	w.threshold = meters
	w.mu.Unlock()

	if changed {
		w.raiseProperty("MovementThreshold")
	}
	return nil
}

func (w *Watcher) ReportInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// SetReportInterval requests the minimum time between fixes. Providers that
// speak Version1 do not support it and the value is only stored.
func (w *Watcher) SetReportInterval(interval time.Duration) error {
	if interval < 0 {
		return &ArgumentRangeError{Name: "ReportInterval", Value: interval}
	}

	w.mu.Lock()
	changed := w.interval != interval
	w.interval = interval
	r := w.run
	w.mu.Unlock()

	if !changed {
		return nil
	}

	if r != nil {
		err := w.withSession(r, func(s provider.Session) error {
			return forwardInterval(s, interval)
		})
		if err != nil && !errors.Is(err, errStopped) {
			w.log.Warn("could not forward report interval", zap.Duration("interval", interval), zap.Error(err))
		}
	}

	w.raiseProperty("ReportInterval")
	return nil
}

func forwardInterval(s provider.Session, interval time.Duration) error {
	if s.Version() < fix.Version2 {
		return nil
	}
	return s.SetReportInterval(interval)
}

// Start opens a provider session and starts polling it. It does nothing if
// the watcher is already started. If the provider can not be opened the
// status is Disabled and no poller runs.
func (w *Watcher) Start() {
	w.StartPrompt(false)
}

func (w *Watcher) StartPrompt(suppressPrompt bool) {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.active() {
		return
	}

	if r := w.open(suppressPrompt); r != nil {
		w.launch(r)
	}
}

// TryStart starts the watcher and waits up to timeout for a usable fix,
// without raising events while it waits. The poller keeps running when the
// timeout passes. It returns whether the status is Ready.
func (w *Watcher) TryStart(suppressPrompt bool, timeout time.Duration) bool {
	w.lifecycle.Lock()
	if w.active() {
		w.lifecycle.Unlock()
		return w.Status() == Ready
	}
	r := w.open(suppressPrompt)
	w.lifecycle.Unlock()

	if r == nil {
		return false
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(tryStartPoll)
	defer tick.Stop()

wait:
	for w.Status() != Ready {
		select {
		case <-r.stop:
			return false
		case <-deadline.C:
			break wait
		case <-tick.C:
			w.refresh(r, false)
		}
	}

	ready := w.Status() == Ready

	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	if w.current(r) {
		w.launch(r)
	}
	return ready
}

// Stop stops polling, resets the position and closes the session. It does
// nothing if the watcher is not started.
func (w *Watcher) Stop() {
	w.lifecycle.Lock()
	w.emit.Lock()
	w.mu.Lock()
	r := w.run
	if r == nil {
		w.mu.Unlock()
		w.emit.Unlock()
		w.lifecycle.Unlock()
		return
	}
	w.run = nil
	close(r.stop)
	w.status = Disabled
	w.position = location.UnknownPosition()
	w.mu.Unlock()
	w.lifecycle.Unlock()

	// a poll cycle waiting on emit finds its run gone and publishes nothing
	w.metrics.setStatus(Disabled)
	w.raiseStatus(Disabled)
	w.emit.Unlock()

	w.teardown.Lock()
	r.closed = true
	err := r.session.Close()
	w.teardown.Unlock()

	if err != nil {
		w.log.Warn("closing provider session failed", zap.Error(err))
	}
	w.log.Info("watcher stopped")
}

func (w *Watcher) active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.run != nil
}

func (w *Watcher) current(r *run) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.run == r
}

// open must be called with lifecycle held. It returns nil if the provider
// could not be opened.
func (w *Watcher) open(suppressPrompt bool) *run {
	session, err := w.provider.Open(provider.OpenOptions{SuppressPrompt: suppressPrompt})
	if err != nil {
		w.log.Info("location provider unavailable", zap.Error(err))
		w.emit.Lock()
		w.mu.Lock()
		w.status = Disabled
		w.mu.Unlock()
		w.metrics.setStatus(Disabled)
		w.emit.Unlock()
		return nil
	}

	r := &run{
		session: session,
		stop:    make(chan struct{}),
	}

	w.emit.Lock()
	w.mu.Lock()
	w.run = r
	w.status = Initializing
	interval := w.interval
	w.mu.Unlock()
	w.metrics.setStatus(Initializing)
	w.emit.Unlock()

	w.log.Info("provider session opened", zap.Int("protocol_version", int(session.Version())))

	if interval > 0 {
		if err := w.withSession(r, func(s provider.Session) error {
			return forwardInterval(s, interval)
		}); err != nil {
			w.log.Warn("could not forward report interval", zap.Duration("interval", interval), zap.Error(err))
		}
	}

	w.refresh(r, false)
	return r
}

// refresh reads device state and position, logging failures.
func (w *Watcher) refresh(r *run, raise bool) {
	if err := w.refreshDeviceState(r, raise); err != nil {
		w.metrics.pollError()
		w.log.Warn("reading device state failed", zap.Error(err))
	}
	if err := w.refreshPosition(r, raise); err != nil {
		w.metrics.pollError()
		w.log.Warn("reading position failed", zap.Error(err))
	}
}

// launch must be called with lifecycle held.
func (w *Watcher) launch(r *run) {
	w.workers.Add(1)
	go w.poll(r)
}

// withSession runs fn on the session of r unless r has been torn down.
func (w *Watcher) withSession(r *run, fn func(provider.Session) error) error {
	w.teardown.Lock()
	defer w.teardown.Unlock()

	if r.closed {
		return errStopped
	}
	return fn(r.session)
}
