// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
	"gitlab.com/postmarketOS/gnss_watch/internal/provider"
)

// Provider opens sessions on NMEA receivers. Every session gets its own
// receiver from newReceiver.
type Provider struct {
	name        string
	version     fix.ProtocolVersion
	newReceiver func() Receiver
	log         *zap.Logger
	now         func() time.Time
}

func NewProvider(name string, version fix.ProtocolVersion, newReceiver func() Receiver, log *zap.Logger) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		name:        name,
		version:     version,
		newReceiver: newReceiver,
		log:         log,
		now:         time.Now,
	}
}

func (p *Provider) Open(opts provider.OpenOptions) (provider.Session, error) {
	rx := p.newReceiver()
	if err := rx.Open(); err != nil {
		return nil, fmt.Errorf("gnss/Provider.Open: %w", err)
	}

	s := &session{
		p:            p,
		rx:           rx,
		asm:          NewAssembler(p.version),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		fixUpdated:   provider.NewSignal(),
		stateChanged: provider.NewSignal(),
		state: provider.DeviceState{
			Service:      provider.PowerOn,
			Device:       provider.PowerUnknown,
			FriendlyName: p.name,
		},
	}

	lines := make(chan []byte, 16)
	errs := make(chan error, 1)
	go rx.Start(lines, s.stop, errs)
	go s.read(lines, errs)

	p.log.Debug("session opened", zap.String("receiver", p.name), zap.Bool("suppressPrompt", opts.SuppressPrompt))
	return s, nil
}

type session struct {
	p            *Provider
	rx           Receiver
	asm          *Assembler
	stop         chan struct{}
	done         chan struct{}
	fixUpdated   *provider.Signal
	stateChanged *provider.Signal

	mu         sync.Mutex
	closed     bool
	last       fix.RawFix
	lastAt     time.Time
	signaledAt time.Time
	interval   time.Duration
	state      provider.DeviceState
}

func (s *session) read(lines <-chan []byte, errs <-chan error) {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		case line := <-lines:
			s.handle(string(line))
		case err := <-errs:
			s.p.log.Warn("receiver failed", zap.String("receiver", s.p.name), zap.Error(err))
			s.setDevice(provider.PowerUnavailable)
			return
		}
	}
}

func (s *session) handle(line string) {
	now := s.p.now()
	s.mu.Lock()
	s.state.LastDataReceived = now
	s.mu.Unlock()
	s.setDevice(provider.PowerOn)

	done, err := s.asm.Feed(line)
	if err != nil {
		s.p.log.Debug("skipping sentence", zap.String("line", line), zap.Error(err))
		return
	}
	if !done {
		return
	}

	s.mu.Lock()
	s.last = s.asm.Fix()
	s.lastAt = now
	// Version1 receivers report at their own pace
	signal := s.p.version < fix.Version2 || s.interval == 0 || now.Sub(s.signaledAt) >= s.interval
	if signal {
		s.signaledAt = now
	}
	s.mu.Unlock()

	if signal {
		s.fixUpdated.Set()
	}
}

func (s *session) setDevice(state provider.PowerState) {
	s.mu.Lock()
	changed := s.state.Device != state
	s.state.Device = state
	s.mu.Unlock()

	if changed {
		s.stateChanged.Set()
	}
}

func (s *session) Version() fix.ProtocolVersion {
	return s.p.version
}

func (s *session) DeviceState() (provider.DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return provider.DeviceState{}, provider.CheckResponse("DeviceState", provider.CodeInvalidHandle)
	}
	return s.state, nil
}

func (s *session) Fix(maxAge time.Duration) (fix.RawFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fix.RawFix{}, provider.CheckResponse("Fix", provider.CodeInvalidHandle)
	}
	if s.lastAt.IsZero() {
		return fix.RawFix{Version: s.p.version}, nil
	}

	raw := s.last
	if s.p.now().Sub(s.lastAt) > maxAge {
		raw.Valid = 0
	}
	return raw, nil
}

func (s *session) SetReportInterval(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return provider.CheckResponse("SetReportInterval", provider.CodeInvalidHandle)
	}
	if s.p.version < fix.Version2 || interval < 0 {
		return provider.CheckResponse("SetReportInterval", provider.CodeInvalidParameter)
	}
	s.interval = interval
	return nil
}

func (s *session) FixUpdated() <-chan struct{} {
	return s.fixUpdated.C()
}

func (s *session) StateChanged() <-chan struct{} {
	return s.stateChanged.C()
}

func (s *session) Close() (err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return provider.CheckResponse("Close", provider.CodeInvalidHandle)
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	if err = s.rx.Close(); err != nil {
		err = fmt.Errorf("gnss/session.Close: %w", err)
	}
	s.p.log.Debug("session closed", zap.String("receiver", s.p.name))
	return
}
