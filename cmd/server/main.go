package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cloakswap/internal/audit"
	"cloakswap/internal/backend"
	hookHandler "cloakswap/internal/backend/handler"
	"cloakswap/internal/credential"
	credentialHandler "cloakswap/internal/credential/handler"
	"cloakswap/internal/eligibility"
	eligibilityMetrics "cloakswap/internal/eligibility/metrics"
	"cloakswap/internal/ledger"
	ledgerHandler "cloakswap/internal/ledger/handler"
	"cloakswap/internal/platform/config"
	"cloakswap/internal/platform/database"
	"cloakswap/internal/platform/health"
	"cloakswap/internal/platform/httpserver"
	"cloakswap/internal/platform/kafka"
	"cloakswap/internal/platform/kafka/producer"
	"cloakswap/internal/platform/logger"
	"cloakswap/internal/platform/metrics"
	redisClient "cloakswap/internal/platform/redis"
	"cloakswap/internal/platform/tracing"
	"cloakswap/internal/pool"
	poolHandler "cloakswap/internal/pool/handler"
	"cloakswap/internal/preferences"
	preferencesHandler "cloakswap/internal/preferences/handler"
	"cloakswap/internal/receipt"
	"cloakswap/internal/seeder"
	"cloakswap/internal/storage"
	"cloakswap/internal/swap"
	httptransport "cloakswap/internal/transport/http"
	"cloakswap/migrations"
	id "cloakswap/pkg/domain"
	"cloakswap/pkg/platform/circuit"
	"cloakswap/pkg/platform/middleware/request"
)

const (
	version              = "dev"
	shutdownTimeout      = 10 * time.Second
	poolStatsInterval    = 15 * time.Second
	auditBufferCapacity  = 1024
	auditTopicPartitions = 3
)

// infra holds the resources that need closing on shutdown.
type infra struct {
	store    storage.Store
	redis    *redisClient.Client
	db       *database.Pool
	producer *producer.Producer
	worker   *audit.Worker
	tracer   *tracing.Provider
}

func main() {
	cfg, errs := config.Load(os.Getenv("CLOAKSWAP_CONFIG_FILE"))
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting cloakswap", "version", version, "config", cfg.LogSummary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	m := metrics.New()
	m.SetBuildInfo(version, cfg.BackendMode, cfg.StorageDriver)
	reg := m.Registerer()

	res := &infra{}
	defer res.close(log)

	tp, err := tracing.New(ctx, tracing.Config{
		ServiceName: "cloakswap",
		Version:     version,
		Environment: cfg.Environment,
		Endpoint:    cfg.TracingEndpoint,
		Insecure:    cfg.TracingInsecure,
		SampleRate:  cfg.TracingSampleRate,
	}, log)
	if err != nil {
		return err
	}
	res.tracer = tp

	if res.store, err = openStore(ctx, cfg, res, redisClient.NewPoolMetrics(reg)); err != nil {
		return err
	}

	receipts := receipt.NewKeccak()
	credentials := credential.NewService(credential.NewStore(res.store), receipts, credential.WithLogger(log))
	rules := pool.NewStore(res.store, receipts, pool.WithLogger(log))
	l := ledger.New(res.store, log)
	prefs := preferences.NewService(res.store, receipts, preferences.WithLogger(log))

	var fanout *audit.RingBuffer
	if cfg.AuditStreamEnabled() {
		fanout = audit.NewRingBuffer(auditBufferCapacity)
		if res.worker, err = startAuditStream(ctx, cfg, res, fanout, log); err != nil {
			return err
		}
	}

	evaluator := eligibility.New(credentials, rules, audit.NewPublisher(audit.NewLog(res.store), fanout), receipts,
		eligibility.WithLogger(log),
		eligibility.WithMetrics(eligibilityMetrics.New(reg)),
	)
	simulator := swap.New(evaluator, l, receipts,
		swap.WithSettlementDelay(cfg.SettlementDelay),
		swap.WithLogger(log),
		swap.WithMetrics(reg),
	)

	hook, err := newBackend(cfg, evaluator, simulator, l, res.store, log)
	if err != nil {
		return err
	}

	if cfg.SeedDemo {
		poolID, err := id.ParsePoolID(cfg.DefaultPoolID)
		if err != nil {
			return fmt.Errorf("default pool id: %w", err)
		}
		if err := seeder.Seed(ctx, rules, credentials, l, seeder.Options{PoolID: poolID, Logger: log}); err != nil {
			return err
		}
	}

	healthHandler := health.New(cfg.Environment, string(hook.Name()))
	healthHandler.RegisterCheck("storage", res.store.Ping)
	healthHandler.RegisterCheck("backend", hook.Ping)
	if res.redis != nil {
		healthHandler.RegisterCheck("redis", res.redis.Health)
	}
	if res.db != nil {
		healthHandler.RegisterCheck("postgres", res.db.Health)
	}

	credentialsH := credentialHandler.New(credentials, log)
	poolsH := poolHandler.New(rules, log)
	router := httptransport.NewRouter(httptransport.Deps{
		ServiceName:    "cloakswap",
		Logger:         log,
		AdminToken:     cfg.AdminAPIToken,
		RequestMetrics: request.NewMetrics(reg),
		MetricsHandler: m.Handler(),
		Public: []httptransport.Routes{
			healthHandler,
			credentialsH,
			poolsH,
			hookHandler.New(hook, log),
			preferencesHandler.New(prefs, log),
		},
		Admin: []httptransport.AdminRoutes{credentialsH, poolsH, ledgerHandler.New(l, log)},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr, "backend", hook.Name(), "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	if res.redis != nil {
		g.Go(func() error {
			ticker := time.NewTicker(poolStatsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					res.redis.RecordPoolStats()
				}
			}
		})
	}
	if res.worker != nil {
		g.Go(func() error {
			return res.worker.Run(gctx)
		})
	}
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, res *infra, poolMetrics *redisClient.PoolMetrics) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageFile:
		fs, err := storage.OpenFile(cfg.StorageFilePath)
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		return fs, nil
	case config.StorageRedis:
		client, err := redisClient.New(ctx, cfg.Redis, poolMetrics)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		res.redis = client
		return storage.NewRedis(client.Client), nil
	case config.StoragePostgres:
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		db, err := database.New(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		res.db = db
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return storage.NewPostgres(db.DB()), nil
	default:
		return storage.NewMemory(), nil
	}
}

func startAuditStream(ctx context.Context, cfg *config.Config, res *infra, fanout *audit.RingBuffer, log *slog.Logger) (*audit.Worker, error) {
	brokers := strings.Join(cfg.KafkaBrokers, ",")
	if err := kafka.EnsureTopic(ctx, brokers, cfg.AuditTopic, auditTopicPartitions); err != nil {
		log.Warn("could not ensure audit topic", "topic", cfg.AuditTopic, "error", err)
	}

	pcfg := kafka.DefaultProducerConfig()
	pcfg.Brokers = brokers
	p, err := producer.New(pcfg, log)
	if err != nil {
		return nil, err
	}
	res.producer = p

	return audit.NewWorker(fanout, audit.NewKafkaSink(p, cfg.AuditTopic), log,
		audit.WithBreaker(circuit.New("audit-kafka",
			circuit.WithFailureThreshold(5),
			circuit.WithCooldown(30*time.Second),
		)),
	), nil
}

func newBackend(cfg *config.Config, evaluator *eligibility.Evaluator, simulator *swap.Simulator, l *ledger.Ledger, store storage.Store, log *slog.Logger) (backend.Backend, error) {
	if cfg.BackendMode != config.BackendLive {
		return backend.NewSimulated(evaluator, simulator, l, store), nil
	}
	return backend.NewLive(backend.LiveConfig{
		BaseURL: cfg.LiveBackendURL,
		Timeout: cfg.LiveBackendTimeout,
		Breaker: circuit.New("live-backend",
			circuit.WithFailureThreshold(3),
			circuit.WithCooldown(15*time.Second),
		),
		Logger: log,
	})
}

func (r *infra) close(log *slog.Logger) {
	if r.worker != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		r.worker.Drain(drainCtx)
		cancel()
	}
	if r.tracer != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := r.tracer.Shutdown(flushCtx); err != nil {
			log.Warn("flush traces", "error", err)
		}
		cancel()
	}
	if r.producer != nil {
		if err := r.producer.Close(); err != nil {
			log.Warn("close kafka producer", "error", err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			log.Warn("close store", "error", err)
		}
	}
	// The redis store owns the client connection.
	if r.store == nil && r.redis != nil {
		if err := r.redis.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			log.Warn("close postgres", "error", err)
		}
	}
}
