package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/stress-dost/internal/api"
	"github.com/danielpatrickdp/stress-dost/internal/codec"
	"github.com/danielpatrickdp/stress-dost/internal/config"
	"github.com/danielpatrickdp/stress-dost/internal/content"
	"github.com/danielpatrickdp/stress-dost/internal/dataset"
	"github.com/danielpatrickdp/stress-dost/internal/gate"
	"github.com/danielpatrickdp/stress-dost/internal/logging"
	"github.com/danielpatrickdp/stress-dost/internal/metrics"
	"github.com/danielpatrickdp/stress-dost/internal/orchestrator"
	"github.com/danielpatrickdp/stress-dost/internal/profiler"
	"github.com/danielpatrickdp/stress-dost/internal/session"
	"github.com/danielpatrickdp/stress-dost/internal/state"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Dev)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

// #region wiring

type components struct {
	orch    *orchestrator.Orchestrator
	hub     *api.Hub
	router  *gin.Engine
	store   *state.Store
	session *session.Store
	closers []func() error
}

func (c *components) close(logger *zap.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
}

// build loads the static inputs and wires every component. The returned
// components are non-nil whenever something needs closing. Optional
// integrations (generator, redis, content API) are skipped with a warning
// when they cannot be reached.
func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	bank, err := profiler.LoadBank(cfg.Data.QuizPath)
	if err != nil {
		return nil, fmt.Errorf("load quiz bank: %w", err)
	}
	if len(bank.Skipped) > 0 {
		logger.Warn("quiz entries skipped", zap.Strings("entries", bank.Skipped))
	}
	rng := rand.New(rand.NewPCG(cfg.Session.Seed, uint64(time.Now().UnixNano())))
	assessor := profiler.NewAssessor(bank, profiler.AssessorConfig{QuestionLimit: cfg.Data.QuestionLimit}, rng)

	popups, err := dataset.Load(cfg.Data.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("static data loaded",
		zap.Int("quiz_questions", assessor.Len()),
		zap.Int("popups", popups.Len()),
	)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	c.store, err = state.NewStore(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.closers = append(c.closers, c.store.Close)

	sinks := []logging.Sink{logging.NewSQLiteSink(c.store.DB())}
	sinkNames := []string{"sqlite"}
	if cfg.Storage.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, sink disabled", zap.String("addr", cfg.Storage.RedisAddr), zap.Error(err))
			client.Close()
		} else {
			sinks = append(sinks, logging.NewRedisSink(client, cfg.Storage.RedisKey, cfg.Storage.RedisMaxRows))
			sinkNames = append(sinkNames, "redis")
			c.closers = append(c.closers, client.Close)
		}
	}

	var generator codec.Generator
	if cfg.Generator.Enabled && cfg.Generator.Addr != "" {
		cc := codec.DefaultClientConfig()
		cc.Addr = cfg.Generator.Addr
		cc.Timeout = cfg.Generator.Timeout
		cc.Model = cfg.Generator.Model
		client, err := codec.NewClient(cc, gate.NewGate(gate.DefaultGateConfig()), logger)
		if err != nil {
			logger.Warn("generator unavailable, dataset only", zap.String("addr", cc.Addr), zap.Error(err))
		} else {
			generator = client
			c.closers = append(c.closers, client.Close)
		}
	}

	var (
		fetcher *content.Fetcher
		ids     []string
	)
	if cfg.Data.QuestionIDs != "" {
		ids, err = content.LoadIDs(cfg.Data.QuestionIDs)
		if err != nil {
			logger.Warn("question ids unavailable, content questions disabled", zap.Error(err))
		} else {
			fc := content.DefaultFetcherConfig()
			fc.URL = cfg.Content.URL
			fc.Timeout = cfg.Content.Timeout
			fc.CacheTTL = cfg.Content.CacheTTL
			fc.Concurrency = cfg.Content.Concurrency
			fetcher, err = content.NewFetcher(fc, nil, logger)
			if err != nil {
				return c, err
			}
		}
	}

	opts := session.DefaultOptions()
	opts.Calibration = cfg.MeterCalibration()
	opts.Seed = cfg.Session.Seed
	c.session, err = session.NewStore(cfg.Session.MaxSessions, opts, logger)
	if err != nil {
		return c, err
	}

	c.hub = api.NewHub(logger)

	oc := orchestrator.DefaultConfig()
	oc.MeterThreshold = cfg.Session.MeterThreshold
	oc.GenerateRetries = cfg.Generator.Retries
	oc.Enabled = cfg.Generator.Enabled
	c.orch, err = orchestrator.New(oc, orchestrator.Deps{
		Sessions:    c.session,
		Assessor:    assessor,
		Dataset:     popups,
		Generator:   generator,
		Vectors:     c.store,
		Sink:        logging.NewMultiSink(logger, sinks...),
		Fetcher:     fetcher,
		QuestionIDs: ids,
		Metrics:     metrics.Default(),
		Notifier:    c.hub,
		Logger:      logger,
	})
	if err != nil {
		return c, err
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(c.orch, c.hub, api.HandlerConfig{Sinks: sinkNames, EnableCORS: cfg.Server.EnableCORS}, logger)
	c.router = api.NewRouter(handler, prometheus.DefaultGatherer)
	return c, nil
}

// #endregion wiring

// #region serve

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	c, err := build(ctx, cfg, logger)
	if c != nil {
		defer c.close(logger)
	}
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      c.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		c.session.RunJanitor(gctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("version", api.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// #endregion serve
