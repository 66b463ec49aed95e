// Package main runs the identity gateway HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tenantgate/identity-gateway/internal/api"
	"github.com/tenantgate/identity-gateway/internal/core/ports"
	"github.com/tenantgate/identity-gateway/internal/core/ratelimit"
	"github.com/tenantgate/identity-gateway/internal/core/service"
	"github.com/tenantgate/identity-gateway/internal/core/token"
	"github.com/tenantgate/identity-gateway/internal/infrastructure/db/memory"
	mongodb "github.com/tenantgate/identity-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/tenantgate/identity-gateway/internal/infrastructure/db/redis"
	"github.com/tenantgate/identity-gateway/internal/pkg/config"
	"github.com/tenantgate/identity-gateway/pkg/logger"
)

type storage struct {
	tenants ports.TenantRepository
	users   ports.UserRepository
	tx      ports.Transactor
	db      *mongo.Database
	close   func(context.Context)
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The log level comes from config, so fall back to the default.
		boot := logger.Init(logger.Options{Level: "info"})
		boot.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("storage")
	}
	defer store.close(context.Background())

	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, tenant cache disabled")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	codec, err := token.NewCodec([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token codec")
	}

	var opts []service.AccountOption
	if rdb != nil {
		opts = append(opts, service.WithTenantCache(redisdb.NewTenantCache(rdb), cfg.Redis.TenantCacheTTL))
	}
	accounts, err := service.NewAccountService(store.tenants, store.users, store.tx, codec, log, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("account service")
	}

	e := api.NewRouter(api.Dependencies{
		Accounts:          accounts,
		Users:             service.NewUserService(store.users, log),
		Verifier:          codec,
		Limiter:           ratelimit.NewLimiter(),
		TrustForwardedFor: cfg.TrustForwardedFor,
		Mongo:             store.db,
		Redis:             rdb,
		Logger:            log,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: e}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.StorageBackend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.StorageBackend == config.BackendMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		s := memory.NewStore()
		return &storage{
			tenants: s.Tenants(),
			users:   s.Users(),
			tx:      s.Transactor(),
			close:   func(context.Context) {},
		}, nil
	}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &storage{
		tenants: mongodb.NewTenantRepository(db),
		users:   mongodb.NewUserRepository(db),
		tx:      mongodb.NewTransactor(client),
		db:      db,
		close: func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		},
	}, nil
}
