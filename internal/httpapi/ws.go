// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/pool"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	// the API is meant for local clients
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events streams every message broadcast on connPool to a websocket client,
// one text message per event.
func Events(connPool *pool.Pool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// the upgrader already answered the request
			log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		client := pool.NewClient(c.ClientIP())
		if !connPool.Register(client) {
			conn.Close()
			return
		}
		log.Info("websocket client connected", zap.Stringer("id", client.ID))

		go readPump(conn, connPool, client)
		writePump(conn, connPool, client)
		log.Info("websocket client disconnected", zap.Stringer("id", client.ID))
	}
}

func writePump(conn *websocket.Conn, connPool *pool.Pool, client *pool.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		connPool.Unregister(client)
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and unregisters the client once the
// connection goes away.
func readPump(conn *websocket.Conn, connPool *pool.Pool, client *pool.Client) {
	defer connPool.Unregister(client)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
