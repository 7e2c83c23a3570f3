// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"strconv"

	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/pool"
)

type Server struct {
	socket    string
	sockGroup string
	connPool  *pool.Pool
	log       *zap.Logger
}

// Create a new Server. Messages broadcast on connPool are written to every
// connected client, one per line.
func New(socket string, sockGroup string, connPool *pool.Pool, log *zap.Logger) (s *Server) {
	if log == nil {
		log = zap.NewNop()
	}
	s = &Server{
		socket:    socket,
		sockGroup: sockGroup,
		connPool:  connPool,
		log:       log,
	}

	return
}

// Start listens on the socket and serves clients until ctx is done.
func (s *Server) Start(ctx context.Context) (err error) {
	if err := os.RemoveAll(s.socket); err != nil {
		return fmt.Errorf("server/Server.Start: %w", err)
	}

	sock, err := net.Listen("unix", s.socket)
	if err != nil {
		return fmt.Errorf("server/Server.Start: %w", err)
	}
	defer sock.Close()

	if err := os.Chmod(s.socket, 0660); err != nil {
		return fmt.Errorf("server/Server.Start: %w", err)
	}

	if s.sockGroup != "" {
		if err := s.chgrp(); err != nil {
			return fmt.Errorf("server/Server.Start: %w", err)
		}
	}

	go func() {
		<-ctx.Done()
		sock.Close()
	}()

	s.log.Info("accepting connections", zap.String("socket", s.socket))
	err = s.connectionHandler(sock)
	if ctx.Err() != nil {
		err = nil
	}
	return
}

func (s *Server) chgrp() error {
	group, err := user.LookupGroup(s.sockGroup)
	if err != nil {
		return err
	}

	gid, err := strconv.ParseInt(group.Gid, 10, 32)
	if err != nil {
		return err
	}

	return os.Chown(s.socket, -1, int(gid))
}

func (s *Server) connectionHandler(sock net.Listener) error {
	for {
		conn, err := sock.Accept()
		if err != nil {
			return fmt.Errorf("server/Server.connectionHandler: %w", err)
		}

		client := pool.NewClient(conn.RemoteAddr().String())
		if !s.connPool.Register(client) {
			conn.Close()
			return nil
		}

		go s.clientConnection(client, conn)
		go s.clientReader(client, conn)

		s.log.Info("client connected", zap.Stringer("id", client.ID))
	}
}

// Routine run for each client connection
func (s *Server) clientConnection(c *pool.Client, conn net.Conn) {
	defer func() {
		s.connPool.Unregister(c)
		conn.Close()
	}()

	for msg := range c.Send {
		// msg is shared with the other clients, append to a copy
		if _, err := conn.Write(append(msg[:len(msg):len(msg)], '\n')); err != nil {
			break
		}
	}

	s.log.Info("client disconnected", zap.Stringer("id", c.ID))
}

// clientReader notices a client hanging up without waiting for the next
// write to fail. Anything the client sends is discarded.
func (s *Server) clientReader(c *pool.Client, conn net.Conn) {
	_, err := io.Copy(io.Discard, conn)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Debug("client read failed", zap.Stringer("id", c.ID), zap.Error(err))
	}
	s.connPool.Unregister(c)
}
