// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

// Package publish mirrors watcher events to an MQTT broker.
package publish

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/event"
)

var ErrTimeout = errors.New("timed out waiting for broker")

type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Prefix   string
	QoS      byte
	Timeout  time.Duration
}

type Publisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
	log     *zap.Logger
}

// Dial connects to the broker in opts.
func Dial(opts Options, log *zap.Logger) (p *Publisher, err error) {
	o := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if opts.Username != "" {
		o.SetUsername(opts.Username)
		o.SetPassword(opts.Password)
	}

	p = New(nil, opts.Prefix, opts.QoS, opts.Timeout, log)
	lost := p.log
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		lost.Warn("mqtt connection lost", zap.Error(err))
	})
	// the client copies the options, so they must be complete here
	p.client = mqtt.NewClient(o)

	if err = p.wait(p.client.Connect()); err != nil {
		err = fmt.Errorf("publish.Dial(%s): %w", opts.Broker, err)
		// stop the retries
		p.client.Disconnect(0)
		p = nil
		return
	}
	p.log.Info("mqtt connected", zap.String("broker", opts.Broker))

	return
}

func New(client mqtt.Client, prefix string, qos byte, timeout time.Duration, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{
		client:  client,
		prefix:  prefix,
		qos:     qos,
		timeout: timeout,
		log:     log,
	}
}

// Topic returns where events of type t are published.
func (p *Publisher) Topic(t event.Type) string {
	return p.prefix + "/" + string(t)
}

// Publish sends e. Position and status events are retained so that new
// subscribers see the current state.
func (p *Publisher) Publish(e event.Event) (err error) {
	payload, err := e.Bytes()
	if err != nil {
		err = fmt.Errorf("publish/Publisher.Publish: %w", err)
		return
	}

	retained := e.Type != event.TypeProperty
	if err = p.wait(p.client.Publish(p.Topic(e.Type), p.qos, retained, payload)); err != nil {
		err = fmt.Errorf("publish/Publisher.Publish(%s): %w", e.Type, err)
	}
	return
}

// Handle is Publish for use as an event.Forward callback. Errors are logged.
func (p *Publisher) Handle(e event.Event) {
	if err := p.Publish(e); err != nil {
		p.log.Warn("publishing event failed", zap.Error(err))
	}
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func (p *Publisher) wait(t mqtt.Token) error {
	if !t.WaitTimeout(p.timeout) {
		return ErrTimeout
	}
	return t.Error()
}
