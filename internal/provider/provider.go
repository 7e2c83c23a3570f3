// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

// Package provider defines the boundary between the watcher and whatever
// produces raw fixes.
package provider

import (
	"time"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
)

type PowerState int

const (
	PowerUnknown PowerState = iota
	PowerOn
	PowerOff
	PowerUnavailable
)

func (p PowerState) String() string {
	switch p {
	case PowerOn:
		return "on"
	case PowerOff:
		return "off"
	case PowerUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// DeviceState describes the location service and the receiver behind it.
type DeviceState struct {
	Service          PowerState
	Device           PowerState
	LastDataReceived time.Time
	FriendlyName     string
}

type OpenOptions struct {
	// SuppressPrompt asks the provider not to ask the user for permission.
	SuppressPrompt bool
}

// Provider opens sessions with a location source.
type Provider interface {
	Open(opts OpenOptions) (Session, error)
}

// Session is an open connection to a location source. FixUpdated and
// StateChanged fire when a new fix or a new device state is available.
type Session interface {
	Version() fix.ProtocolVersion
	DeviceState() (DeviceState, error)
	Fix(maxAge time.Duration) (fix.RawFix, error)
	SetReportInterval(interval time.Duration) error
	FixUpdated() <-chan struct{}
	StateChanged() <-chan struct{}
	Close() error
}

// Signal is an auto-reset event: any number of Set calls between two
// receives wake the receiver once.
type Signal struct {
	ch chan struct{}
}

func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

func (s *Signal) Set() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *Signal) C() <-chan struct{} {
	return s.ch
}
