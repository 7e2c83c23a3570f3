// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package watcher

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/provider"
)

// poll waits for the provider to signal and handles each signal until r is
// stopped.
func (w *Watcher) poll(r *run) {
	defer w.workers.Add(-1)

	w.log.Debug("poller started")
	for {
		select {
		case <-r.stop:
			w.log.Debug("poller stopped")
			return
		case <-r.session.FixUpdated():
			w.cycle("position", func() error { return w.refreshPosition(r, true) })
		case <-r.session.StateChanged():
			w.cycle("device state", func() error { return w.refreshDeviceState(r, true) })
		}
	}
}

// cycle runs one handler. Nothing a single cycle does may end the poller.
func (w *Watcher) cycle(name string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			w.metrics.pollError()
			w.log.Error("poll cycle panicked", zap.String("cycle", name), zap.Any("panic", p))
		}
	}()

	if err := fn(); err != nil {
		w.metrics.pollError()
		w.log.Warn("poll cycle failed", zap.String("cycle", name), zap.Error(err))
	}
}

func (w *Watcher) refreshPosition(r *run, raise bool) error {
	var raw fix.RawFix
	err := w.withSession(r, func(s provider.Session) (err error) {
		raw, err = s.Fix(maxFixAge)
		return
	})
	if errors.Is(err, errStopped) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("watcher.refreshPosition: %w", err)
	}

	coord, ts, ok := fix.Validate(raw)
	w.metrics.fix(ok)

	w.emit.Lock()
	defer w.emit.Unlock()

	w.mu.Lock()
	if w.run != r {
		w.mu.Unlock()
		return nil
	}

	if !ok {
		lost := w.status == Ready
		if lost {
			w.status = NoData
		}
		w.mu.Unlock()

		if lost {
			w.log.Info("fix lost")
			w.metrics.setStatus(NoData)
			if raise {
				w.raiseStatus(NoData)
			}
		}
		return nil
	}

	prev := w.position.Location
	w.position = location.Position[location.Coordinate]{Location: coord, Timestamp: ts}
	pos := w.position
	becameReady := w.status != Ready
	w.status = Ready
	report := raise && moved(prev, coord, w.threshold)
	w.mu.Unlock()

	if becameReady {
		w.log.Info("fix acquired", zap.Stringer("location", coord))
		w.metrics.setStatus(Ready)
		if raise {
			w.raiseStatus(Ready)
		}
	}
	if report {
		w.raisePosition(pos)
	}
	return nil
}

// moved reports whether next is far enough from prev to be reported.
func moved(prev, next location.Coordinate, threshold float64) bool {
	if threshold == 0 || prev.IsUnknown() {
		return true
	}
	return location.Distance(prev, next) > threshold
}

func (w *Watcher) refreshDeviceState(r *run, raise bool) error {
	var state provider.DeviceState
	err := w.withSession(r, func(s provider.Session) (err error) {
		state, err = s.DeviceState()
		return
	})
	if errors.Is(err, errStopped) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("watcher.refreshDeviceState: %w", err)
	}

	w.emit.Lock()
	defer w.emit.Unlock()

	w.mu.Lock()
	if w.run != r {
		w.mu.Unlock()
		return nil
	}
	next := statusFor(state, w.status)
	changed := next != w.status
	w.status = next
	w.mu.Unlock()

	if changed {
		w.log.Info("device state changed",
			zap.Stringer("service", state.Service),
			zap.Stringer("device", state.Device),
			zap.Stringer("status", next))
		w.metrics.setStatus(next)
		if raise {
			w.raiseStatus(next)
		}
	}
	return nil
}

// statusFor maps a device state onto the watcher status. A working device
// leaves Ready and NoData alone, those follow the fixes.
func statusFor(state provider.DeviceState, current Status) Status {
	if down(state.Service) || down(state.Device) {
		return Disabled
	}
	if current == Disabled {
		return Initializing
	}
	return current
}

func down(p provider.PowerState) bool {
	return p == provider.PowerOff || p == provider.PowerUnavailable
}
