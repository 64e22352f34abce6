package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	_ "modernc.org/sqlite"

	"reportconsole/internal/adapters/backend"
	web "reportconsole/internal/adapters/http"
	"reportconsole/internal/adapters/http/perf"
	"reportconsole/internal/adapters/storage"
	auditStore "reportconsole/internal/adapters/storage/audit"
	sessionStore "reportconsole/internal/adapters/storage/session"
	"reportconsole/internal/application/lists"
	"reportconsole/internal/application/session"
	"reportconsole/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const sweepInterval = 15 * time.Minute

func main() {
	if n, err := config.LoadEnvFiles(".env.local", ".env"); err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	} else if n > 0 {
		slog.Debug("env_files_loaded", "count", n)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	if err := setupLogging(cfg); err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg config.Config) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	// WAL mode, foreign keys and busy timeout as for any SQLite file we own
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)
	defer timedDB.Close()
	timedDB.SetMaxOpenConns(25)
	timedDB.SetMaxIdleConns(25)
	if err := storage.MigrateDB(timedDB, cfg.DBPath); err != nil {
		return err
	}

	var sessions sessionStore.Store
	var sweeper *sessionStore.SQLiteStore
	if cfg.RedisURL != "" {
		rs, err := sessionStore.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rs.Close()
		sessions = rs
		slog.Info("session_store", "kind", "redis")
	} else {
		sweeper = sessionStore.NewSQLiteStore(timedDB)
		sessions = sweeper
		slog.Info("session_store", "kind", "sqlite", "db", cfg.DBPath)
	}

	audits := auditStore.NewSQLiteStore(timedDB)
	client := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithCollector(collector, cfg.SlowUpstreamMs),
	)
	mgr := session.NewManager(sessions, client, audits)
	registry := lists.NewRegistry(client)
	client.OnUnauthorized(mgr.HandleUnauthorized)
	mgr.OnEnd(registry.Drop)

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	if csrfKey == nil {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return err
		}
		slog.Warn("csrf_key_generated", "hint", "set REPORT_CSRF_KEY so tokens survive restarts")
	}

	srv, err := web.NewServer(web.Deps{
		Sessions:  mgr,
		Backend:   client,
		Lists:     registry,
		Audit:     audits,
		Collector: collector,
	}, web.Options{
		CSRFKey:            csrfKey,
		SecureCookies:      cfg.IsProduction(),
		TrustedOrigins:     cfg.TrustedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequestMs:      cfg.SlowRequestMs,
		SessionTTL:         sessionStore.TTL,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	go sweepSessions(ctx, sweeper, registry)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(srv.Handler(), "reportconsole"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"backend", cfg.BackendURL, "schema", storage.LatestSchemaVersion())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// sweepSessions deletes expired SQLite sessions and evicts the list state of
// sessions idle past the TTL until ctx is done. store is nil when Redis expires
// sessions itself.
func sweepSessions(ctx context.Context, store *sessionStore.SQLiteStore, registry *lists.Registry) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if store != nil {
				n, err := store.DeleteExpired(ctx)
				if err != nil {
					slog.Error("internal_error", "op", "session.DeleteExpired", "error", err)
				} else if n > 0 {
					slog.Info("sessions_swept", "count", n)
				}
			}
			if n := registry.Evict(sessionStore.TTL); n > 0 {
				slog.Info("list_state_evicted", "count", n)
			}
		}
	}
}
