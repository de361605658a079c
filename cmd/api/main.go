// @title                      User Service API
// @version                    1.0
// @description                Principal management: signup, login, token refresh and role-gated user administration.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/schoolpay/user-service/internal/api"
	"github.com/schoolpay/user-service/internal/core/ports"
	"github.com/schoolpay/user-service/internal/core/service"
	"github.com/schoolpay/user-service/internal/infrastructure/config"
	mongostore "github.com/schoolpay/user-service/internal/infrastructure/db/mongo"
	redisstore "github.com/schoolpay/user-service/internal/infrastructure/db/redis"
	"github.com/schoolpay/user-service/internal/infrastructure/db/sqlstore"
	"github.com/schoolpay/user-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "user-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "user-service",
		Env:     cfg.Env,
	})

	readiness := map[string]ports.Pinger{}
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	// --- Credential store ---
	var users ports.UserRepository
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = client.Disconnect(context.Background()) })

		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		users = repo
		readiness["mongo"] = mongostore.Pinger{Client: client}
	default:
		db, err := sqlstore.Open(ctx, sqlstore.Config{
			Driver:   cfg.Store.Driver,
			DSN:      cfg.Store.DatabaseURL,
			PoolSize: cfg.Store.PoolSize,
		}, log)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = db.Close() })

		users = sqlstore.NewUserRepository(db, log)
		readiness[cfg.Store.Driver] = db
	}
	log.Info().Str("driver", cfg.Store.Driver).Msg("credential store ready")

	// --- Principal cache (optional) ---
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })

		users = redisstore.NewCachedUserRepository(users, rdb, cfg.Redis.CacheTTL, log)
		readiness["redis"] = redisstore.Pinger{Client: rdb}
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.CacheTTL).Msg("principal cache enabled")
	}

	// --- Services ---
	codec, err := service.NewTokenCodec(cfg.Auth.SecretKey, cfg.Auth.Algorithm)
	if err != nil {
		return err
	}
	authenticator := service.NewAuthenticator(codec, users, service.AuthenticatorConfig{
		Enabled:   cfg.Auth.Enabled,
		Whitelist: cfg.Auth.Whitelist,
	}, log)
	if !cfg.Auth.Enabled {
		log.Warn().Msg("authentication is disabled")
	}
	userService := service.NewUserService(users, codec, service.UserServiceConfig{
		AccessTokenTTL:    cfg.Auth.AccessTTL(),
		RefreshTokenTTL:   cfg.Auth.RefreshTTL(),
		MinPasswordLength: cfg.Password.MinLength,
		PhoneRegion:       cfg.Password.PhoneRegion,
	}, log)

	e := api.NewRouter(api.Dependencies{
		Logger:        log,
		APIPrefix:     cfg.APIPrefix,
		Users:         userService,
		Authenticator: authenticator,
		Readiness:     readiness,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	return shutdown(e.Shutdown, log)
}

func shutdown(fn func(context.Context) error, log zerolog.Logger) error {
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
