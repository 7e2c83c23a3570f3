// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.com/postmarketOS/gnss_watch/internal/config"
	"gitlab.com/postmarketOS/gnss_watch/internal/event"
	"gitlab.com/postmarketOS/gnss_watch/internal/fix"
	"gitlab.com/postmarketOS/gnss_watch/internal/gnss"
	"gitlab.com/postmarketOS/gnss_watch/internal/httpapi"
	"gitlab.com/postmarketOS/gnss_watch/internal/location"
	"gitlab.com/postmarketOS/gnss_watch/internal/observability"
	"gitlab.com/postmarketOS/gnss_watch/internal/pool"
	"gitlab.com/postmarketOS/gnss_watch/internal/publish"
	"gitlab.com/postmarketOS/gnss_watch/internal/server"
	"gitlab.com/postmarketOS/gnss_watch/internal/track"
	"gitlab.com/postmarketOS/gnss_watch/internal/watcher"
)

// How often old track entries are removed.
const pruneInterval = time.Hour

func usage() {
	flag.CommandLine.Usage()
}

func main() {
	var confFile string
	flag.StringVar(&confFile, "c", "/etc/gnss_watch.conf", "Configuration file to use.")
	var help bool
	flag.BoolVar(&help, "h", false, "Print help and quit.")

	flag.Usage = func() {
		fmt.Println("usage: gnss_watch COMMAND [OPTION...]")
		fmt.Println("Commands:")
		fmt.Printf("  %-12s\t%s\n", "[none]", "The default behavior if no command is specified is to run in \"server\" mode.")
		fmt.Printf("  %-12s\t%s\n", "once", "Wait for a position, print it and quit.")
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Printf("Every setting can be overridden with a %s_* environment variable.\n", config.EnvPrefix)
	}

	flag.Parse()

	if help {
		usage()
		return
	}

	conf, err := config.Load(confFile)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := observability.NewLogger(conf.LogLevel, conf.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	w := watcher.New(newProvider(conf, logger), logger, watcher.NewMetrics(reg))
	if err := w.SetMovementThreshold(conf.MovementThreshold); err != nil {
		logger.Fatal("invalid movement threshold", zap.Error(err))
	}
	if err := w.SetReportInterval(conf.ReportInterval()); err != nil {
		logger.Fatal("invalid report interval", zap.Error(err))
	}

	switch cmd := flag.Arg(0); cmd {
	case "once":
		if err := once(w, conf.StartTimeout()); err != nil {
			logger.Fatal("no position", zap.Error(err))
		}
		return
	default:
		if flag.Arg(0) != "" {
			fmt.Printf("Unknown command: %q\n", flag.Arg(0))
			usage()
			return
		}
		// run mode
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, w, reg, logger); err != nil {
		logger.Fatal("gnss_watch failed", zap.Error(err))
	}
}

func newProvider(conf *config.Config, logger *zap.Logger) *gnss.Provider {
	var newReceiver func() gnss.Receiver
	name := conf.DevicePath

	switch conf.Driver {
	case "gnss":
		newReceiver = func() gnss.Receiver { return gnss.NewGnssDevice(conf.DevicePath) }
	case "serial":
		newReceiver = func() gnss.Receiver { return gnss.NewSerialDevice(conf.DevicePath, conf.BaudRate) }
	case "sim":
		name = "simulator"
		newReceiver = func() gnss.Receiver {
			return &gnss.Sim{
				Latitude:   conf.SimLatitude,
				Longitude:  conf.SimLongitude,
				SpeedKnots: conf.SimSpeedKnots,
				Course:     conf.SimCourse,
			}
		}
	}

	return gnss.NewProvider(name, fix.ProtocolVersion(conf.ProtocolVersion), newReceiver, logger)
}

func once(w *watcher.Watcher, timeout time.Duration) error {
	defer w.Stop()

	if !w.TryStart(false, timeout) {
		return fmt.Errorf("no fix within %s, status %s", timeout, w.Status())
	}

	out, err := json.Marshal(w.Position())
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func run(ctx context.Context, conf *config.Config, w *watcher.Watcher, reg *prometheus.Registry, logger *zap.Logger) error {
	// stopped last, after every output is done with it
	defer w.Stop()

	var tracks httpapi.TrackStore
	if conf.TrackPath != "" {
		tr, err := track.Open(conf.TrackPath)
		if err != nil {
			return err
		}
		defer tr.Close()
		tracks = tr

		defer w.OnPositionChanged(func(p location.Position[location.Coordinate]) {
			if err := tr.Record(p); err != nil {
				logger.Warn("recording position failed", zap.Error(err))
			}
		})()
	}

	if conf.MQTTBroker != "" {
		pub, err := publish.Dial(publish.Options{
			Broker:   conf.MQTTBroker,
			ClientID: conf.MQTTClientID,
			Username: conf.MQTTUsername,
			Password: conf.MQTTPassword,
			Prefix:   conf.MQTTPrefix,
			QoS:      1,
		}, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		defer event.Forward(w, pub.Handle)()
	}

	g, ctx := errgroup.WithContext(ctx)

	// connection broadcast pool, shared by the socket and websocket clients
	connPool := pool.New(logger)
	g.Go(func() error { return connPool.Run(ctx) })

	defer event.Forward(w, func(e event.Event) {
		msg, err := e.Bytes()
		if err != nil {
			logger.Warn("dropping event", zap.Error(err))
			return
		}
		connPool.Broadcast(msg)
	})()

	srv := server.New(conf.Socket, conf.OwnerGroup, connPool, logger)
	g.Go(func() error { return srv.Start(ctx) })

	if tr, ok := tracks.(*track.Track); ok {
		g.Go(func() error {
			prune(ctx, tr, conf.TrackRetention(), logger)
			return nil
		})
	}

	if conf.HTTPListen != "" {
		if conf.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		httpSrv := &http.Server{
			Addr: conf.HTTPListen,
			Handler: httpapi.NewRouter(httpapi.RouterConfig{
				Watcher:  w,
				Track:    tracks,
				Pool:     connPool,
				Gatherer: reg,
				Logger:   logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving http", zap.String("addr", conf.HTTPListen))
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	if conf.OnDemand {
		g.Go(func() error {
			server.OnDemand(ctx, connPool, w, logger)
			return nil
		})
	} else {
		w.Start()
	}

	return g.Wait()
}

func prune(ctx context.Context, tr *track.Track, keep time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		n, err := tr.Prune(time.Now().Add(-keep))
		if err != nil {
			logger.Warn("pruning track failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("pruned track", zap.Int("positions", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
