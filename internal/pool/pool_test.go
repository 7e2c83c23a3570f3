// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runPool(t *testing.T) (*Pool, context.CancelFunc) {
	t.Helper()
	p := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p, cancel
}

func waitActivity(t *testing.T, p *Pool) {
	t.Helper()
	select {
	case <-p.Activity():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for activity")
	}
}

func TestBroadcast(t *testing.T) {
	p, _ := runPool(t)

	a, b := NewClient("a"), NewClient("b")
	assert.NotEqual(t, a.ID, b.ID)
	require.True(t, p.Register(a))
	require.True(t, p.Register(b))

	p.Broadcast([]byte("hello"))
	assert.Equal(t, "hello", string(<-a.Send))
	assert.Equal(t, "hello", string(<-b.Send))

	p.Unregister(a)
	_, open := <-a.Send
	assert.False(t, open)

	p.Broadcast([]byte("again"))
	assert.Equal(t, "again", string(<-b.Send))
}

func TestActivity(t *testing.T) {
	p, _ := runPool(t)

	a, b := NewClient("a"), NewClient("b")
	p.Register(a)
	waitActivity(t, p)
	assert.Equal(t, 1, p.Len())

	p.Register(b)
	p.Unregister(a)
	p.Unregister(a)
	select {
	case <-p.Activity():
		t.Fatal("activity while clients remain")
	case <-time.After(50 * time.Millisecond):
	}

	p.Unregister(b)
	waitActivity(t, p)
	assert.Equal(t, 0, p.Len())
}

func TestSlowClient(t *testing.T) {
	p, _ := runPool(t)

	c := NewClient("slow")
	p.Register(c)
	for i := 0; i < clientBacklog+10; i++ {
		p.Broadcast([]byte{byte(i)})
	}

	// the pool kept going, the overflow was dropped
	assert.Len(t, c.Send, clientBacklog)
	assert.Equal(t, byte(0), (<-c.Send)[0])
}

func TestStopped(t *testing.T) {
	p, cancel := runPool(t)

	c := NewClient("c")
	p.Register(c)
	cancel()

	require.Eventually(t, func() bool { return !p.Register(NewClient("late")) }, time.Second, 10*time.Millisecond)
	// does not block once the pool is gone
	p.Broadcast([]byte("x"))
	p.Unregister(c)

	for range c.Send {
	}
}
