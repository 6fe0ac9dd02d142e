package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/skillstake/wager-engine/internal/config"
	"github.com/skillstake/wager-engine/internal/ledger"
	"github.com/skillstake/wager-engine/internal/match"
	"github.com/skillstake/wager-engine/internal/metrics"
	"github.com/skillstake/wager-engine/internal/risk"
	"github.com/skillstake/wager-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.Redis.URL != "" {
			opt, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				slog.Error("invalid redis url", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("database url not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Escrow ledger ---
	// In-process ledger; player balances are minted out of band for now.
	lg := ledger.NewMemoryLedger()

	// --- Risk limits ---
	limiter := risk.NewExposureLimiter(cfg.Risk.MaxStakePerMatch, cfg.Risk.MaxOpenExposure)

	// --- WebSocket event hub ---
	hub := match.NewEventHub()
	go hub.Run()

	// --- Match service ---
	svc := match.NewService(st, lg, limiter, hub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"wager-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time match events.
		r.Get("/ws", hub.HandleWS)

		// Platform bootstrap.
		r.Post("/platform", svc.HandleInitPlatform)

		// Player profiles.
		r.Post("/profiles", svc.HandleCreateProfile)
		r.Get("/profiles/{playerID}", svc.HandleGetProfile)
		r.Get("/leaderboard", svc.HandleLeaderboard)

		// Match lifecycle.
		r.Post("/matches", svc.HandleCreateMatch)
		r.Get("/matches", svc.HandleListMatches)
		r.Get("/matches/{matchID}", svc.HandleGetMatch)
		r.Post("/matches/{matchID}/deposit", svc.HandleDeposit)
		r.Post("/matches/{matchID}/settle", svc.HandleSettle)
		r.Post("/matches/{matchID}/claim", svc.HandleClaim)
		r.Post("/matches/{matchID}/refund", svc.HandleRefund)
		r.Post("/matches/{matchID}/cancel", svc.HandleCancel)
		r.Delete("/matches/{matchID}", svc.HandleClose)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("wager-engine listening", "addr", cfg.Server.HTTPAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down wager-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("wager-engine stopped")
}
