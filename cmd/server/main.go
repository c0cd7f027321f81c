package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	identityhandler "authgate/internal/identity/handler"
	identitymetrics "authgate/internal/identity/metrics"
	"authgate/internal/identity/password"
	identityservice "authgate/internal/identity/service"
	"authgate/internal/identity/store"
	userstore "authgate/internal/identity/store/user"
	"authgate/internal/platform/config"
	"authgate/internal/platform/httpserver"
	"authgate/internal/platform/logger"
	"authgate/internal/platform/metrics"
	platformneo4j "authgate/internal/platform/neo4j"
	platformredis "authgate/internal/platform/redis"
	"authgate/internal/session"
	"authgate/internal/session/revocation"
	httptransport "authgate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	users, healthChecks, cleanup, err := buildUserStore(ctx, cfg)
	if err != nil {
		log.Error("failed to connect identity store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	revoked, redisClient, err := buildRevocationList(cfg)
	if err != nil {
		log.Error("failed to connect revocation store", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks = append(healthChecks, redisClient)
	}

	identityMetrics := identitymetrics.New()
	hasher := password.NewHasher(password.FromConfig(cfg.Argon2))
	identity := identityservice.New(users, hasher,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(identityMetrics),
	)
	sessions := session.NewManager(cfg.SessionSigningKey, cfg.SessionTTL, revoked)

	router := httptransport.NewRouter(httptransport.Deps{
		Identity: identityhandler.New(identity, sessions, log),
		Sessions: sessions,
		Logger:   log,
		Metrics:  metrics.New(),
		Health:   healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting authgate", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildUserStore connects the Neo4j-backed store when configured and falls
// back to the in-memory store for standalone runs.
func buildUserStore(ctx context.Context, cfg config.Server) (store.UserStore, []httptransport.HealthChecker, func(), error) {
	client, err := platformneo4j.New(ctx, cfg.Neo4j)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		return userstore.NewMemory(), nil, func() {}, nil
	}

	neoStore := userstore.NewNeo4j(client)
	if err := neoStore.EnsureConstraints(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, nil, nil, err
	}

	cleanup := func() { _ = client.Close(context.Background()) }
	return neoStore, []httptransport.HealthChecker{client}, cleanup, nil
}

// buildRevocationList connects Redis when configured and falls back to the
// in-memory list.
func buildRevocationList(cfg config.Server) (revocation.List, *platformredis.Client, error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return revocation.NewMemory(), nil, nil
	}
	return revocation.NewRedis(client.Client), client, nil
}
