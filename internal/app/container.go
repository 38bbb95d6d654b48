package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/config"
	"github.com/you/homeauth/internal/infrastructure/audit"
	"github.com/you/homeauth/internal/infrastructure/auth"
	"github.com/you/homeauth/internal/infrastructure/database"
	"github.com/you/homeauth/internal/infrastructure/notifications"
	"github.com/you/homeauth/internal/infrastructure/ratelimit"
	"github.com/you/homeauth/internal/infrastructure/repositories"
	"github.com/you/homeauth/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Casbin      *auth.CasbinService

	// Repositories
	UserRepo   domain.IdentityRepository
	WorkerRepo domain.WorkerRepository

	// Services
	PasswordSvc     domain.PasswordService
	TokenSvc        domain.TokenService
	NotificationSvc domain.NotificationService
	Provider        domain.VerificationProvider
	OTPEngine       domain.OTPEngine
	Verifier        domain.VerificationService
	Audit           domain.AuditLogger
	Guard           *services.AccountGuard
	UserAuthSvc     domain.UserAuthService
	WorkerAuthSvc   domain.WorkerAuthService
	PolicySvc       domain.PolicyService
	Limiter         domain.RateLimiter
}

// NewContainer creates and initializes all dependencies
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	container := &Container{Config: cfg, Logger: logger}

	// Initialize infrastructure
	if err := container.initDatabase(); err != nil {
		return nil, err
	}
	container.initRedis()

	// Initialize repositories
	container.initRepositories()

	// Initialize services
	if err := container.initServices(); err != nil {
		_ = container.Close()
		return nil, err
	}

	return container, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN, database.DefaultOptions())
	if err != nil {
		return err
	}
	if err := database.AutoMigrate(db, c.Logger); err != nil {
		_ = database.Close(db)
		return err
	}

	c.DB = db
	return nil
}

// initRedis never fails: the limiter fails open while Redis is unreachable
func (c *Container) initRedis() {
	c.RedisClient = database.NewRedis(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	c.Limiter = ratelimit.NewRedisLimiter(c.RedisClient)
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB)
	c.WorkerRepo = repositories.NewWorkerRepository(c.DB)
}

func (c *Container) initServices() error {
	cfg := c.Config

	// Initialize basic services
	c.Audit = audit.NewZapAuditLogger(c.Logger)
	c.PasswordSvc = auth.NewPasswordService(cfg.PasswordHashCost)
	c.TokenSvc = auth.NewJWTService(auth.JWTConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		Issuer:        cfg.JWTIssuer,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	})
	c.NotificationSvc = notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom, c.Logger)
	c.Provider = notifications.NewTwilioVerifyProvider(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioVerifyServiceSID)
	if !c.Provider.Enabled() {
		c.Logger.Info("twilio verify not configured, OTPs are sent by SMS")
	}

	// Initialize OTP handling
	c.OTPEngine = services.NewOTPEngine(services.OTPConfig{
		Length:   cfg.OTPLength,
		TTL:      cfg.OTPTTL,
		HashCost: cfg.OTPHashCost,
	})
	c.Verifier = services.NewVerificationService(c.Provider, c.OTPEngine, c.NotificationSvc, c.Audit, c.Logger,
		services.VerificationConfig{
			DefaultCountryCode: cfg.DefaultCountryCode,
			ProviderTimeout:    cfg.TwilioTimeout,
			ProviderAttempts:   cfg.TwilioMaxAttempts,
		})

	c.Guard = services.NewAccountGuard(services.LockoutPolicy{
		MaxAttempts: cfg.LockoutMaxAttempts,
		Duration:    cfg.LockoutDuration,
	}, c.Audit, c.Logger)

	// Initialize auth services (depend on all other services)
	deps := services.AuthDeps{
		Passwords: c.PasswordSvc,
		Tokens:    c.TokenSvc,
		Verifier:  c.Verifier,
		Guard:     c.Guard,
		Audit:     c.Audit,
		Logger:    c.Logger,
	}
	c.UserAuthSvc = services.NewUserAuthService(c.UserRepo, c.NotificationSvc, deps,
		services.UserAuthConfig{ResetTokenTTL: cfg.ResetTokenTTL})
	c.WorkerAuthSvc = services.NewWorkerAuthService(c.WorkerRepo, deps)

	// Initialize policy service
	cas, err := auth.NewCasbinService(c.DB, cfg.CasbinModelPath)
	if err != nil {
		return fmt.Errorf("failed to initialize casbin: %w", err)
	}
	c.Casbin = cas
	c.PolicySvc = services.NewPolicyService(cas.E)

	return nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("failed to close redis", zap.Error(err))
		}
	}

	if c.DB != nil {
		return database.Close(c.DB)
	}

	return nil
}
