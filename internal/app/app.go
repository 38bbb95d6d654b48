package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/you/homeauth/internal/config"
	httpx "github.com/you/homeauth/internal/http"
	"github.com/you/homeauth/internal/http/handlers"
	"github.com/you/homeauth/internal/http/middleware"
	"github.com/you/homeauth/internal/infrastructure/database"
	"github.com/you/homeauth/internal/logger"
)

const shutdownTimeout = 15 * time.Second

// Module wires the service: config, logger, stores, services and the HTTP server
var Module = fx.Options(
	fx.Provide(
		config.Load,
		NewLogger,
		NewContainer,
		NewRouter,
		NewHTTPServer,
	),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
	fx.Invoke(RegisterHooks),
)

// NewLogger builds the process logger; development mode also turns on the console encoder
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev || cfg.IsDevelopment()})
}

// NewRouter builds handlers and middleware from the container
func NewRouter(c *Container) *gin.Engine {
	cfg := c.Config
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	return httpx.BuildRouter(httpx.RouterDeps{
		Users:    handlers.NewUserAuthHandlers(c.UserAuthSvc, c.Logger, cfg.IsDevelopment()),
		Workers:  handlers.NewWorkerAuthHandlers(c.WorkerAuthSvc, c.Logger),
		Admin:    handlers.NewAdminHandlers(c.WorkerAuthSvc, c.WorkerRepo, c.Logger),
		Policies: handlers.NewPolicyHandlers(c.PolicySvc, c.Logger),
		Auth:     middleware.NewAuthMW(c.TokenSvc, c.UserRepo, c.WorkerRepo, c.Guard, c.Logger, cfg.TrackWorkerActivity),
		Casbin:   middleware.NewCasbinMW(c.PolicySvc, c.Audit, c.Logger),
		Limits:   middleware.NewRateLimitMW(c.Limiter, c.Logger),
		Config:   cfg,
		Logger:   c.Logger,
	})
}

// NewHTTPServer creates the server; it is started by the lifecycle hook
func NewHTTPServer(cfg *config.Config, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// RegisterHooks seeds policies and starts the server on start, and drains it and
// closes the stores on stop.
func RegisterHooks(lc fx.Lifecycle, server *http.Server, c *Container, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			seeded, err := c.Casbin.SeedDefaults()
			if err != nil {
				return err
			}
			if seeded {
				log.Info("casbin: seeded default policies")
			}

			if err := database.Ping(ctx, c.RedisClient); err != nil {
				log.Warn("redis unreachable, rate limiting disabled until it recovers", zap.Error(err))
			}

			ln, err := net.Listen("tcp", server.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("listening", zap.String("addr", server.Addr), zap.String("env", c.Config.Env))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			err := server.Shutdown(ctx)
			if cerr := c.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			_ = log.Sync()
			return err
		},
	})
}
