package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgoulah/greenmeter/internal/archive"
	"github.com/jgoulah/greenmeter/internal/cache"
	"github.com/jgoulah/greenmeter/internal/dashboard"
	"github.com/jgoulah/greenmeter/internal/ingest"
	"github.com/jgoulah/greenmeter/internal/metrics"
	"github.com/jgoulah/greenmeter/internal/publisher"
	"github.com/jgoulah/greenmeter/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP service",
	Long: `Starts the HTTP API that accepts sensor readings and serves the live dashboard.
Accepted readings are archived asynchronously to the SQLite database and, when
configured, mirrored to MQTT and Redis.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8081)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, logCloser, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logCloser.Close()

	addr := cfg.GetAddr()
	if serveAddr != "" {
		addr = serveAddr
	}

	dash := dashboard.New(dashboard.Options{
		MaxPoints:       cfg.Dashboard.MaxPoints,
		HistoryPoints:   cfg.Dashboard.HistoryPoints,
		RatePerKWh:      cfg.Dashboard.RatePerKWh,
		Recommendations: cfg.GetRecommendations(),
	})
	m := metrics.New()

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	sinks := []archive.NamedSink{{Name: "sqlite", Sink: db}}

	var pub *publisher.Publisher
	if cfg.MQTT.Enabled {
		pub, err = publisher.New(cfg)
		if err != nil {
			return fmt.Errorf("creating publisher: %w", err)
		}
		defer pub.Close()
		sinks = append(sinks, archive.NamedSink{Name: "mqtt", Sink: pub})
		log.Info("mirroring readings to MQTT", "broker", cfg.MQTT.Broker, "topic", pub.ReadingsTopic())
	}

	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisClient(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Limit:    cfg.GetRedisRecentLimit(),
		})
		if err != nil {
			return fmt.Errorf("creating redis cache: %w", err)
		}
		defer rc.Close()
		sinks = append(sinks, archive.NamedSink{Name: "redis", Sink: rc})
		log.Info("mirroring readings to Redis", "addr", cfg.Redis.Addr, "key", cache.RecentReadingsKey)
	}

	var recorder *archive.Recorder
	var archiver ingest.Archiver
	if !cfg.Archive.Disabled {
		recorder = archive.NewRecorder(cfg.GetArchiveBufferSize(), log.With("component", "archive"), sinks...)
		recorder.OnDrop(m.ArchiveDropped.Inc)
		archiver = recorder
	} else {
		log.Warn("archive disabled, readings will only be kept in memory")
	}

	gateway := ingest.NewGateway(dash, archiver, m, log)

	if pub != nil && cfg.MQTT.Subscribe {
		err := pub.SubscribeReadings(func(payload []byte) {
			if _, err := gateway.SubmitJSON("mqtt", bytes.NewReader(payload)); err != nil {
				log.Warn("rejected MQTT reading", "topic", pub.IngestTopic(), "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("subscribing to MQTT readings: %w", err)
		}
		log.Info("accepting readings over MQTT", "topic", pub.IngestTopic())
	}

	srv := server.New(dash, gateway, db, m, log, cfg.GetAllowedOrigins())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runServices(ctx, recorder, func(ctx context.Context) error {
		return srv.Run(ctx, addr)
	})
	if err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// runServices runs serve and the archive recorder until ctx is cancelled.
// The recorder is stopped only after serve returns, so jobs queued by
// requests still in flight during shutdown are drained.
func runServices(ctx context.Context, recorder *archive.Recorder, serve func(context.Context) error) error {
	recCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()

	g, gctx := errgroup.WithContext(ctx)
	if recorder != nil {
		g.Go(func() error { return recorder.Run(recCtx) })
	}
	g.Go(func() error {
		defer stopRecorder()
		return serve(gctx)
	})
	return g.Wait()
}
