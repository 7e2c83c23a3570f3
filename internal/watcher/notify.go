// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package watcher

import (
	"sync"

	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
)

type listener[T any] struct {
	id int
	fn func(T)
}

// listeners is an ordered set of callbacks.
type listeners[T any] struct {
	mu     sync.Mutex
	nextID int
	list   []listener[T]
}

func (l *listeners[T]) add(fn func(T)) (remove func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.list = append(l.list, listener[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			kept := l.list[:0:0]
			for _, e := range l.list {
				if e.id != id {
					kept = append(kept, e)
				}
			}
			l.list = kept
		})
	}
}

func (l *listeners[T]) snapshot() []func(T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fns := make([]func(T), len(l.list))
	for i, e := range l.list {
		fns[i] = e.fn
	}
	return fns
}

// OnPositionChanged registers fn to be called with every reported position.
// Callbacks run on the watcher's poll goroutine and must not block for long.
// Position and status callbacks must not call Start, TryStart or Stop.
func (w *Watcher) OnPositionChanged(fn func(location.Position[location.Coordinate])) (unsubscribe func()) {
	return w.positionListeners.add(fn)
}

func (w *Watcher) OnStatusChanged(fn func(Status)) (unsubscribe func()) {
	return w.statusListeners.add(fn)
}

// OnPropertyChanged registers fn to be called with the name of a setting
// whose value changed.
func (w *Watcher) OnPropertyChanged(fn func(name string)) (unsubscribe func()) {
	return w.propertyListeners.add(fn)
}

func (w *Watcher) raiseStatus(s Status) {
	dispatch(w, "status", &w.statusListeners, s)
}

func (w *Watcher) raisePosition(p location.Position[location.Coordinate]) {
	dispatch(w, "position", &w.positionListeners, p)
}

func (w *Watcher) raiseProperty(name string) {
	dispatch(w, "property", &w.propertyListeners, name)
}

// dispatch calls every listener in l with v. A panicking listener is logged
// and skipped.
func dispatch[T any](w *Watcher, event string, l *listeners[T], v T) {
	w.metrics.event(event)
	for _, fn := range l.snapshot() {
		w.call(event, func() { fn(v) })
	}
}

func (w *Watcher) call(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.listenerPanic()
			w.log.Warn("listener panicked", zap.String("event", event), zap.Any("panic", r))
		}
	}()
	fn()
}
