// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"context"

	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/pool"
)

// Switch is something that can be turned on and off, like a watcher.
type Switch interface {
	Start()
	Stop()
}

// OnDemand starts sw when the first client joins connPool and stops it when
// the last one leaves. It returns when ctx is done, leaving sw as it is.
func OnDemand(ctx context.Context, connPool *pool.Pool, sw Switch, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	running := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-connPool.Activity():
		}

		wanted := connPool.Len() > 0
		if wanted == running {
			continue
		}
		if wanted {
			log.Info("client connected, starting GNSS")
			sw.Start()
		} else {
			log.Info("no clients connected, stopping GNSS")
			sw.Stop()
		}
		running = wanted
	}
}
