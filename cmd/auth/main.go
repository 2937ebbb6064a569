package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/bootstrap"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/config"
	httptransport "github.com/ZLoganZ/SocialNetwork-Server/internal/http"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/http/handler"
	httpmiddleware "github.com/ZLoganZ/SocialNetwork-Server/internal/http/middleware"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/ledger"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/mailer"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/provider"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/recovery"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/repository"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/server"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/service"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/telemetry"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newRedisClient,
			newStateStore,
			newLedger,
			newIssuer,
			newRecoveryStore,
			newProviderRegistry,
			newProviderClient,
			newFederation,
			newMailer,
			newRateLimiter,
			service.NewAuthService,
			handler.NewAuthHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureSchema, bootstrap.EnsureAdmin, startRecoveryJanitor, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	tel, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return tel.Shutdown(stopCtx)
		},
	})

	return tel, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newStateStore(client redis.UniversalClient) provider.StateStore {
	return provider.NewRedisStateStore(client)
}

func newLedger(users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) *ledger.Ledger {
	return ledger.New(users, node, logger)
}

func newIssuer(cfg config.Config, led *ledger.Ledger) *token.Issuer {
	return token.NewIssuer([]byte(cfg.TokenSecret), cfg.TokenIssuer, cfg.TokenTTL, led)
}

func newRecoveryStore(cfg config.Config, logger *zap.Logger) *recovery.Store {
	var opts []recovery.Option
	if cfg.RecoveryTestEmail != "" && cfg.RecoveryTestCode != "" {
		opts = append(opts, recovery.WithTestCode(cfg.RecoveryTestEmail, cfg.RecoveryTestCode))
	}
	return recovery.NewStore(cfg.RecoveryCodeTTL, logger, opts...)
}

func newProviderRegistry(cfg config.Config) *provider.Registry {
	return provider.NewRegistry(cfg)
}

func newProviderClient() *provider.Client {
	return provider.NewClient(nil)
}

func newFederation(registry *provider.Registry, client *provider.Client, led *ledger.Ledger, logger *zap.Logger) *provider.Federation {
	return provider.NewFederation(registry, client, led, logger)
}

func newMailer(cfg config.Config, logger *zap.Logger) mailer.Mailer {
	return mailer.NewSMTPMailer(cfg, logger)
}

func newRateLimiter(cfg config.Config) *httpmiddleware.RateLimiter {
	return httpmiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthMiddleware(authService *service.AuthService) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{AuthService: authService}
}

func startRecoveryJanitor(lc fx.Lifecycle, store *recovery.Store) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				store.Run(runCtx, time.Minute)
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
