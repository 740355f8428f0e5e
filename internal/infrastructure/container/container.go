// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/fridgechef/internal/application/chat"
	"github.com/alchemorsel/fridgechef/internal/application/recipe"
	"github.com/alchemorsel/fridgechef/internal/application/user"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/ai/chatbackend"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/config"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/monitoring"
	mongorepo "github.com/alchemorsel/fridgechef/internal/infrastructure/persistence/mongo"
	redisstore "github.com/alchemorsel/fridgechef/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/fridgechef/internal/infrastructure/security"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/alchemorsel/fridgechef/pkg/healthcheck"
	"github.com/alchemorsel/fridgechef/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module wires the whole application. configPath may be empty to use the
// default search path.
func Module(configPath string) fx.Option {
	return fx.Options(
		ConfigModule(configPath),
		LoggerModule,
		DatabaseModule,
		RepositoryModule,
		ServiceModule,
		ObservabilityModule,
		HTTPModule,
		LifecycleModule,
	)
}

// ConfigModule provides configuration
func ConfigModule(configPath string) fx.Option {
	return fx.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	})
}

// LoggerModule provides logging and routes fx's own events through zap
var LoggerModule = fx.Options(
	fx.Provide(func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	}),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		l := &fxevent.ZapLogger{Logger: log.Named("fx")}
		l.UseLogLevel(zap.DebugLevel)
		return l
	}),
)

// DatabaseModule provides the document store and the optional Redis client
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*mongorepo.ConnectionManager, error) {
		cm, err := mongorepo.NewConnectionManager(context.Background(), cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: cm.Close})
		return cm, nil
	},
	// Returns a nil client when Redis is disabled
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (redis.UniversalClient, error) {
		if !cfg.Redis.Enabled {
			return nil, nil
		}
		client, err := redisstore.NewClient(context.Background(), cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return client, nil
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		mongorepo.NewRecipeRepository,
		fx.As(new(outbound.RecipeRepository)),
	),
	fx.Annotate(
		mongorepo.NewUserRepository,
		fx.As(new(outbound.UserRepository)),
	),
	newSessionStore,
)

// newSessionStore keeps token state in Redis when it is enabled and in the
// sessions collection otherwise
func newSessionStore(cfg *config.Config, cm *mongorepo.ConnectionManager, client redis.UniversalClient, log *zap.Logger) outbound.SessionStore {
	if client != nil {
		log.Info("Using Redis session store")
		return redisstore.NewSessionStore(client, log)
	}
	log.Info("Using MongoDB session store", zap.String("collection", cfg.Mongo.Collections.Sessions))
	return mongorepo.NewSessionStore(cm)
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *chatbackend.Client {
		return chatbackend.NewClient(cfg.Chat, log)
	},
	func(
		userRepo outbound.UserRepository,
		recipeRepo outbound.RecipeRepository,
		sessions outbound.SessionStore,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.UserService {
		return user.NewUserService(userRepo, recipeRepo, sessions, cfg.Auth.BCryptCost, log)
	},
	func(repo outbound.RecipeRepository, metrics *monitoring.Metrics, log *zap.Logger) inbound.RecipeService {
		return recipe.NewRecipeService(repo, metrics, log)
	},
	func(backend *chatbackend.Client, metrics *monitoring.Metrics, cfg *config.Config, log *zap.Logger) inbound.ChatService {
		return chat.NewChatService(backend, metrics, int64(cfg.Chat.MaxImageBytes), log)
	},
)

// ObservabilityModule provides metrics, tracing and health checks
var ObservabilityModule = fx.Provide(
	monitoring.NewMetrics,
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *monitoring.TracingProvider {
		tp := monitoring.NewTracingProvider(cfg, log)
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp
	},
	newHealthCheck,
)

func newHealthCheck(
	cfg *config.Config,
	cm *mongorepo.ConnectionManager,
	client redis.UniversalClient,
	backend *chatbackend.Client,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log)
	health.SetMetrics(healthcheck.NewHealthMetrics(metrics.Registry(), "fridgechef"))
	health.Register("mongo", healthcheck.NewPingChecker(cm.Ping))
	if client != nil {
		health.Register("redis", healthcheck.NewRedisChecker(client))
	}
	health.Register("chat_backend", healthcheck.NewExternalChecker(backend.Ping))
	return health
}

// HTTPModule provides the HTTP server, middleware and handlers
var HTTPModule = fx.Provide(
	middleware.New,
	func(cfg *config.Config, sessions outbound.SessionStore, log *zap.Logger) (*security.SessionManager, error) {
		return security.NewSessionManager(cfg, sessions, log)
	},
	handlers.NewRecipeHandlers,
	handlers.NewAuthHandlers,
	handlers.NewAccountHandlers,
	handlers.NewChatHandlers,
	func(
		cfg *config.Config,
		log *zap.Logger,
		mw *middleware.Middleware,
		sessions *security.SessionManager,
		metrics *monitoring.Metrics,
		health *healthcheck.HealthCheck,
		recipes *handlers.RecipeHandlers,
		auth *handlers.AuthHandlers,
		account *handlers.AccountHandlers,
		chatHandlers *handlers.ChatHandlers,
	) *apiserver.Server {
		return apiserver.NewServer(cfg, log, mw, sessions, metrics, health, apiserver.Handlers{
			Recipes: recipes,
			Auth:    auth,
			Account: account,
			Chat:    chatHandlers,
		})
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks starts the HTTP server and drains it on stop. A
// server that fails after startup shuts the whole application down.
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	_ *monitoring.TracingProvider,
	server *apiserver.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting FridgeChef",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down FridgeChef")

			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout(cfg))
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shutdown HTTP server: %w", err)
			}

			_ = log.Sync()
			return nil
		},
	})
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 30 * time.Second
}
