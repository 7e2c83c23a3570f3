// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

// Package event wraps watcher notifications into a JSON envelope that the
// socket, websocket and MQTT outputs share.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/watcher"
)

type Type string

const (
	TypePosition Type = "position"
	TypeStatus   Type = "status"
	TypeProperty Type = "property"
)

type Event struct {
	Type     Type                                     `json:"type"`
	Time     time.Time                                `json:"time"`
	Position *location.Position[location.Coordinate] `json:"position,omitempty"`
	Status   *watcher.Status                          `json:"status,omitempty"`
	Property string                                   `json:"property,omitempty"`
}

func (e Event) Bytes() (b []byte, err error) {
	b, err = json.Marshal(e)
	if err != nil {
		err = fmt.Errorf("event/Event.Bytes: %w", err)
	}
	return
}

// Source is anything that reports watcher notifications.
type Source interface {
	OnPositionChanged(fn func(location.Position[location.Coordinate])) (unsubscribe func())
	OnStatusChanged(fn func(watcher.Status)) (unsubscribe func())
	OnPropertyChanged(fn func(name string)) (unsubscribe func())
}

// Forward calls fn with an Event for every notification of src until
// unsubscribe is called.
func Forward(src Source, fn func(Event)) (unsubscribe func()) {
	offs := []func(){
		src.OnPositionChanged(func(p location.Position[location.Coordinate]) {
			fn(Event{Type: TypePosition, Time: now(), Position: &p})
		}),
		src.OnStatusChanged(func(s watcher.Status) {
			fn(Event{Type: TypeStatus, Time: now(), Status: &s})
		}),
		src.OnPropertyChanged(func(name string) {
			fn(Event{Type: TypeProperty, Time: now(), Property: name})
		}),
	}

	return func() {
		for _, off := range offs {
			off()
		}
	}
}

var now = func() time.Time {
	return time.Now().UTC()
}
