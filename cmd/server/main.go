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
	"time"

	"github.com/go-chi/chi/v5"

	"dealdeck/internal/adapters/cache"
	httpadapter "dealdeck/internal/adapters/http"
	"dealdeck/internal/adapters/memory"
	pg "dealdeck/internal/adapters/postgres"
	"dealdeck/internal/adapters/upstream"
	"dealdeck/internal/config"
	"dealdeck/internal/logger"
	"dealdeck/internal/ports"
	"dealdeck/internal/services/deals"
	"dealdeck/internal/services/sessions"
	"dealdeck/internal/workers/ingest"
	"dealdeck/internal/workers/refill"
)

func main() {
	cfg, cfgErr := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.L
	if cfgErr != nil {
		log.Warn("config incomplete", "error", cfgErr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Error("offer store", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	var source ports.OfferSource = repo
	var pageCache ports.Cache
	if cfg.CacheTTL > 0 {
		pageCache = openCache(ctx, cfg, log)
		source = cache.NewSource(repo, pageCache, cfg.CacheTTL, log)
	}

	dealSvc := deals.New(source, repo, repo, pageCache, cfg.CacheTTL, log)
	deckSvc := sessions.New(dealSvc, sessions.Options{
		PageSize:     cfg.PageSize,
		ButtonSettle: cfg.ButtonSettle,
		IdleTimeout:  cfg.SessionIdle,
	}, log)

	queue := refill.NewQueue(256)
	deckSvc.SetQueue(queue)
	if cfg.RefillWorkers > 0 {
		go refill.Run(ctx, queue, deckSvc, cfg.RefillWorkers, 2*cfg.DBQueryTimeout, log)
		log.Info("refill workers started", "count", cfg.RefillWorkers)
	} else {
		log.Warn("REFILL_WORKERS=0; decks will not refill")
	}
	go deckSvc.RunJanitor(ctx, time.Minute)

	if cfg.UpstreamURL != "" && cfg.IngestInterval > 0 {
		up := upstream.New(upstream.Options{
			BaseURL: cfg.UpstreamURL,
			Timeout: cfg.UpstreamTimeout,
			Retries: cfg.UpstreamRetries,
		}, log)
		go ingest.New(up, repo, cfg.IngestBatch, log).Run(ctx, cfg.IngestInterval)
		log.Info("ingest started", "upstream", cfg.UpstreamURL, "interval", cfg.IngestInterval)
	}

	srv := httpadapter.New(dealSvc, deckSvc, repo, httpadapter.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, log)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("listening", "addr", cfg.ListenAddr, "env", cfg.Env)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", "error", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", fmt.Errorf("listen %s: %w", cfg.ListenAddr, err))
			os.Exit(1)
		}
	}
}

// openRepository connects Postgres when configured and otherwise falls back
// to the in-memory store, seeded from SEED_FILE when set.
func openRepository(ctx context.Context, cfg config.Config, log *slog.Logger) (ports.OfferRepository, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := pg.Connect(ctx, cfg.DatabaseURL, cfg.DBQueryTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("db migrate: %w", err)
		}
		log.Info("postgres ready")
		return db, db.Close, nil
	}

	mem := memory.NewStore()
	if cfg.SeedFile != "" {
		stored, skipped, err := mem.LoadFile(ctx, cfg.SeedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("seed %s: %w", cfg.SeedFile, err)
		}
		log.Info("seeded memory store", "file", cfg.SeedFile, "stored", stored, "skipped", skipped)
	}
	log.Warn("DATABASE_URL not set; offers are kept in memory")
	return mem, func() {}, nil
}

// openCache prefers Redis and falls back to a process-local cache when it
// is not configured or not reachable.
func openCache(ctx context.Context, cfg config.Config, log *slog.Logger) ports.Cache {
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, "dealdeck:")
		pingCtx, done := context.WithTimeout(ctx, 2*time.Second)
		defer done()
		err := rc.Ping(pingCtx)
		if err == nil {
			log.Info("redis cache ready", "addr", cfg.RedisAddr)
			return rc
		}
		log.Warn("redis unreachable; using local cache", "addr", cfg.RedisAddr, "error", err)
		_ = rc.Close()
	}
	return cache.NewLocal(cfg.CacheTTL, 2*cfg.CacheTTL)
}
