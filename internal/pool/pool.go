// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package pool

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Messages queued per client before further broadcasts to it are dropped.
const clientBacklog = 32

type Client struct {
	ID   uuid.UUID
	Addr string
	Send chan []byte
}

func NewClient(addr string) *Client {
	return &Client{
		ID:   uuid.New(),
		Addr: addr,
		Send: make(chan []byte, clientBacklog),
	}
}

// Pool fans broadcast messages out to every registered client. The Send
// channel of a client is closed when it is unregistered or the pool stops.
type Pool struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	activity   chan struct{}
	clients    map[*Client]bool
	count      atomic.Int32
	log        *zap.Logger
}

func New(log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
		activity:   make(chan struct{}, 1),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run serves the pool until ctx is done.
func (p *Pool) Run(ctx context.Context) error {
	defer func() {
		for c := range p.clients {
			close(c.Send)
		}
		p.clients = nil
		p.count.Store(0)
		close(p.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-p.register:
			p.clients[c] = true
			if p.count.Add(1) == 1 {
				p.notify()
			}
			p.log.Debug("client registered", zap.Stringer("id", c.ID), zap.String("addr", c.Addr))
		case c := <-p.unregister:
			if !p.clients[c] {
				continue
			}
			delete(p.clients, c)
			close(c.Send)
			if p.count.Add(-1) == 0 {
				p.notify()
			}
			p.log.Debug("client unregistered", zap.Stringer("id", c.ID), zap.String("addr", c.Addr))
		case msg := <-p.broadcast:
			for c := range p.clients {
				select {
				case c.Send <- msg:
				default:
					p.log.Warn("client too slow, dropping message", zap.Stringer("id", c.ID))
				}
			}
		}
	}
}

func (p *Pool) notify() {
	select {
	case p.activity <- struct{}{}:
	default:
	}
}

// Activity fires when the first client registers or the last one leaves.
// Use Len to find out which.
func (p *Pool) Activity() <-chan struct{} {
	return p.activity
}

func (p *Pool) Len() int {
	return int(p.count.Load())
}

// Register adds c to the pool. It reports false if the pool has stopped.
func (p *Pool) Register(c *Client) bool {
	select {
	case p.register <- c:
		return true
	case <-p.done:
		return false
	}
}

// Unregister removes c. Removing a client twice is harmless.
func (p *Pool) Unregister(c *Client) {
	select {
	case p.unregister <- c:
	case <-p.done:
	}
}

// Broadcast queues msg for every client. msg must not be modified
// afterwards.
func (p *Pool) Broadcast(msg []byte) {
	select {
	case p.broadcast <- msg:
	case <-p.done:
	}
}
