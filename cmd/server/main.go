package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"jesa/internal/audit"
	"jesa/internal/platform/config"
	"jesa/internal/platform/httpserver"
	"jesa/internal/platform/logger"
	"jesa/internal/platform/metrics"
	platformmongo "jesa/internal/platform/mongo"
	platformredis "jesa/internal/platform/redis"
	rlmetrics "jesa/internal/ratelimit/metrics"
	rlmiddleware "jesa/internal/ratelimit/middleware"
	"jesa/internal/ratelimit/store/bucket"
	"jesa/internal/registration/catalog"
	"jesa/internal/registration/handler"
	regmetrics "jesa/internal/registration/metrics"
	"jesa/internal/registration/service"
	"jesa/internal/registration/store"
	"jesa/pkg/platform/circuit"
	"jesa/pkg/platform/httputil"
)

const (
	recentAuditCapacity = 500
	auditQueueSize      = 1024
)

// main wires configuration, storage, audit sinks and the HTTP router, then
// runs the server until SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jesa: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, syncLogs, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = syncLogs() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.New(reg)

	g, gctx := errgroup.WithContext(ctx)
	var checks []healthCheck

	st, txRunner, err := openStore(ctx, cfg, log, &checks, g, gctx)
	if err != nil {
		return err
	}

	limiter, err := openRateLimiter(ctx, cfg, log, reg, &checks, g, gctx)
	if err != nil {
		return err
	}

	recent := audit.NewRecentStore(recentAuditCapacity)
	sinks := []audit.Sink{audit.NewLogSink(log), recent}
	kafkaSink, err := openKafkaSink(ctx, cfg, log, g, gctx)
	if err != nil {
		return err
	}
	if kafkaSink != nil {
		sinks = append(sinks, kafkaSink)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(regmetrics.New(reg)),
		service.WithAuditPublisher(audit.NewPublisher(log, sinks...)),
	}
	if txRunner != nil {
		opts = append(opts, service.WithTxRunner(txRunner))
	}
	svc := service.New(st, catalog.Default(), opts...)

	router := chi.NewRouter()
	router.Get("/health", healthHandler(checks))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	handler.New(svc, catalog.Default(), log, httpMetrics,
		handler.WithRateLimit(limiter.PerIP),
		handler.WithAdmin(cfg.Admin.TokenHash, recent),
		handler.WithRequestTimeout(cfg.RequestTimeout),
	).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error {
		log.Info("starting jesa registration service", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

func healthHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.check(r.Context()); err != nil {
				status[c.name] = "unavailable"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.name] = "ok"
		}
		httputil.WriteJSON(w, code, status)
	}
}

// openStore selects MongoDB when MONGO_URI is set and the in-memory store
// otherwise. The returned runner is nil when writes must fall back to
// compensating deletes.
func openStore(ctx context.Context, cfg config.Server, log *slog.Logger, checks *[]healthCheck, g *errgroup.Group, gctx context.Context) (store.Store, store.TxRunner, error) {
	client, err := platformmongo.New(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if client == nil {
		log.Warn("MONGO_URI not set, applicants are kept in memory")
		mem := store.NewInMemory()
		return mem, mem, nil
	}

	mongoStore := store.NewMongo(client.DB)
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	*checks = append(*checks, healthCheck{name: "mongo", check: client.Health})
	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return client.Close(closeCtx)
	})

	if !cfg.Mongo.Transactions {
		log.Info("mongo transactions disabled, failed writes are compensated")
		return mongoStore, nil, nil
	}
	return mongoStore, mongoStore, nil
}

func openRateLimiter(ctx context.Context, cfg config.Server, log *slog.Logger, reg prometheus.Registerer, checks *[]healthCheck, g *errgroup.Group, gctx context.Context) (*rlmiddleware.Middleware, error) {
	var buckets rlmiddleware.BucketStore = bucket.NewInMemoryBucketStore()

	client, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if client != nil {
		buckets = bucket.NewFallbackStore(
			bucket.NewRedisBucketStore(client.Client),
			bucket.NewInMemoryBucketStore(),
			circuit.New("redis-ratelimit"),
			log,
		)
		*checks = append(*checks, healthCheck{name: "redis", check: client.Health})
		g.Go(func() error {
			<-gctx.Done()
			return client.Close()
		})
	}

	return rlmiddleware.New(buckets, cfg.RateLimit.Limit, cfg.RateLimit.Window, log,
		rlmiddleware.WithDisabled(cfg.RateLimit.Disabled),
		rlmiddleware.WithMetrics(rlmetrics.New(reg)),
	), nil
}

// openKafkaSink returns nil when no brokers are configured. Records are
// queued through an AsyncSink so a slow broker never delays a response.
func openKafkaSink(ctx context.Context, cfg config.Server, log *slog.Logger, g *errgroup.Group, gctx context.Context) (audit.Sink, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	kafka, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
	if err != nil {
		return nil, fmt.Errorf("init kafka audit sink: %w", err)
	}
	if err := kafka.EnsureTopic(ctx, 1, 1); err != nil {
		log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err.Error())
	}

	async := audit.NewAsyncSink(kafka, auditQueueSize, log)
	g.Go(func() error {
		_ = async.Run(gctx)
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return kafka.Close(closeCtx)
	})
	return async, nil
}
