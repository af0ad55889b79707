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

	"github.com/jackson0tr/lerko-backend/internal/bootstrap"
	"github.com/jackson0tr/lerko-backend/internal/cache"
	"github.com/jackson0tr/lerko-backend/internal/config"
	httptransport "github.com/jackson0tr/lerko-backend/internal/http"
	"github.com/jackson0tr/lerko-backend/internal/http/handler"
	httpmiddleware "github.com/jackson0tr/lerko-backend/internal/http/middleware"
	"github.com/jackson0tr/lerko-backend/internal/jobs"
	"github.com/jackson0tr/lerko-backend/internal/mail"
	"github.com/jackson0tr/lerko-backend/internal/media"
	"github.com/jackson0tr/lerko-backend/internal/payment"
	"github.com/jackson0tr/lerko-backend/internal/repository"
	"github.com/jackson0tr/lerko-backend/internal/server"
	"github.com/jackson0tr/lerko-backend/internal/service"
	"github.com/jackson0tr/lerko-backend/internal/telemetry"
	"github.com/jackson0tr/lerko-backend/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newRedisClient,
			newUserRepository,
			newCourseRepository,
			newOrderRepository,
			newNotificationRepository,
			newLayoutRepository,
			newSessionStore,
			newContentCache,
			newIssuer,
			newMailer,
			newPaymentProvider,
			newVideoGateway,
			newUploader,
			newRateLimiter,
			service.NewAuthService,
			service.NewCourseService,
			service.NewOrderService,
			service.NewNotificationService,
			service.NewLayoutService,
			service.NewAnalyticsService,
			httpmiddleware.NewGate,
			handler.NewAuthHandler,
			handler.NewCourseHandler,
			handler.NewOrderHandler,
			handler.NewNotificationHandler,
			handler.NewLayoutHandler,
			handler.NewAnalyticsHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureAdmin, jobs.RunNotificationSweeper, startHTTPServer),
	)

	app.Run()
}

func newConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
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

func newTelemetry(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

// newPGXPool connects with a fixed-delay retry loop so the service survives
// the database coming up after it.
func newPGXPool(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.DBConnectRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("database connect retry",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			time.Sleep(cfg.DBConnectDelay)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				cancel()
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						pool.Close()
						return nil
					},
				})
				return pool, nil
			}
			pool.Close()
		}
		cancel()
		lastErr = err
	}
	return nil, fmt.Errorf("connect database: %w", lastErr)
}

func newRedisClient(lc fx.Lifecycle, cfg *config.Config) (redis.UniversalClient, error) {
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

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newCourseRepository(pool *pgxpool.Pool) repository.CourseRepository {
	return repository.NewPostgresCourseRepo(pool)
}

func newOrderRepository(pool *pgxpool.Pool) repository.OrderRepository {
	return repository.NewPostgresOrderRepo(pool)
}

func newNotificationRepository(pool *pgxpool.Pool) repository.NotificationRepository {
	return repository.NewPostgresNotificationRepo(pool)
}

func newLayoutRepository(pool *pgxpool.Pool) repository.LayoutRepository {
	return repository.NewPostgresLayoutRepo(pool)
}

func newSessionStore(client redis.UniversalClient, cfg *config.Config) *cache.SessionStore {
	return cache.NewSessionStore(client, cfg.SessionTTL)
}

func newContentCache(client redis.UniversalClient, cfg *config.Config) *cache.ContentCache {
	return cache.NewContentCache(client, cfg.ContentCacheTTL)
}

func newIssuer(cfg *config.Config) *token.Issuer {
	return token.NewIssuer(*cfg)
}

func newMailer(cfg *config.Config, logger *zap.Logger) (mail.Mailer, error) {
	return mail.NewSMTPMailer(cfg, logger)
}

func newPaymentProvider(cfg *config.Config) payment.Provider {
	return payment.NewStripeProvider(cfg, nil)
}

func newVideoGateway(cfg *config.Config) media.VideoGateway {
	return media.NewHTTPVideoGateway(cfg, nil)
}

func newUploader(cfg *config.Config) media.Uploader {
	return media.NewHTTPUploader(cfg, nil)
}

func newRateLimiter(cfg *config.Config) *httpmiddleware.RateLimiter {
	return httpmiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg *config.Config, logger *zap.Logger) {
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

			logger.Info("http server listening", zap.String("addr", addr))
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
