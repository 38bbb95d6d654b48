package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Env     string `yaml:"env"`
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret        string `yaml:"secret"`
	RefreshSecret string `yaml:"refresh_secret"`
	Issuer        string `yaml:"issuer"`
	AccessTTL     string `yaml:"access_ttl"`
	RefreshTTL    string `yaml:"refresh_ttl"`
}

type OTPConfig struct {
	TTL                string `yaml:"ttl"`
	Length             int    `yaml:"length"`
	HashCost           int    `yaml:"hash_cost"`
	DefaultCountryCode string `yaml:"default_country_code"`
}

type LockoutConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	Duration    string `yaml:"duration"`
}

type PasswordConfig struct {
	HashCost int    `yaml:"hash_cost"`
	ResetTTL string `yaml:"reset_ttl"`
}

type TwilioConfig struct {
	AccountSID       string `yaml:"account_sid"`
	AuthToken        string `yaml:"auth_token"`
	FromNumber       string `yaml:"from_number"`
	VerifyServiceSID string `yaml:"verify_service_sid"`
	Timeout          string `yaml:"timeout"`
	MaxAttempts      int    `yaml:"max_attempts"`
}

type WindowConfig struct {
	Max    int    `yaml:"max"`
	Window string `yaml:"window"`
}

type RateLimitConfig struct {
	Login         WindowConfig `yaml:"login"`
	OTP           WindowConfig `yaml:"otp"`
	PasswordReset WindowConfig `yaml:"password_reset"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}

type WorkerConfig struct {
	TrackActivity bool `yaml:"track_activity"`
}

type ConfigFile struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	OTP       OTPConfig       `yaml:"otp"`
	Lockout   LockoutConfig   `yaml:"lockout"`
	Password  PasswordConfig  `yaml:"password"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Casbin    CasbinConfig    `yaml:"casbin"`
	Log       LogConfig       `yaml:"log"`
	Worker    WorkerConfig    `yaml:"worker"`
}

// Window is a parsed fixed rate-limit window
type Window struct {
	Max    int
	Window time.Duration
}

type Config struct {
	Env     string
	Port    string
	GinMode string

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret        string
	JWTRefreshSecret string
	JWTIssuer        string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	OTPTTL             time.Duration
	OTPLength          int
	OTPHashCost        int
	DefaultCountryCode string

	LockoutMaxAttempts int
	LockoutDuration    time.Duration

	PasswordHashCost int
	ResetTokenTTL    time.Duration

	TwilioSID              string
	TwilioToken            string
	TwilioFrom             string
	TwilioVerifyServiceSID string
	TwilioTimeout          time.Duration
	TwilioMaxAttempts      int

	LoginLimit         Window
	OTPLimit           Window
	PasswordResetLimit Window

	CasbinModelPath string

	LogLevel string
	LogDev   bool

	TrackWorkerActivity bool
}

// IsDevelopment reports whether debug conveniences may be enabled
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Defaults returns the file values used when neither the file nor the environment sets them
func Defaults() ConfigFile {
	return ConfigFile{
		App:      AppConfig{Env: "production", Port: 8080, GinMode: "release"},
		Database: DatabaseConfig{DSN: "host=localhost user=postgres password=postgres dbname=homeauth port=5432 sslmode=disable"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		JWT:      JWTConfig{Issuer: "homeauth", AccessTTL: "15m", RefreshTTL: "168h"},
		OTP:      OTPConfig{TTL: "10m", Length: 6, HashCost: 10},
		Lockout:  LockoutConfig{MaxAttempts: 5, Duration: "30m"},
		Password: PasswordConfig{HashCost: 12, ResetTTL: "10m"},
		Twilio:   TwilioConfig{Timeout: "10s", MaxAttempts: 2},
		RateLimit: RateLimitConfig{
			Login:         WindowConfig{Max: 5, Window: "15m"},
			OTP:           WindowConfig{Max: 10, Window: "10m"},
			PasswordReset: WindowConfig{Max: 3, Window: "1h"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads .env, the optional YAML file at CONFIG_PATH and environment overrides
func Load() (*Config, error) {
	_ = godotenv.Load()

	file := Defaults()
	path := env("CONFIG_PATH", "config/config.yml")
	if err := loadConfigFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	applyEnv(&file)

	cfg, err := FromFile(file)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile merges the YAML at path into dst; a missing file is not an error
func loadConfigFile(path string, dst *ConfigFile) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(bytes, dst); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

func applyEnv(f *ConfigFile) {
	f.App.Env = env("APP_ENV", f.App.Env)
	f.App.Port = envInt("PORT", f.App.Port)
	f.App.GinMode = env("GIN_MODE", f.App.GinMode)
	f.Database.DSN = env("DATABASE_DSN", f.Database.DSN)
	f.Redis.Addr = env("REDIS_ADDR", f.Redis.Addr)
	f.Redis.Password = env("REDIS_PASSWORD", f.Redis.Password)
	f.Redis.DB = envInt("REDIS_DB", f.Redis.DB)
	f.JWT.Secret = env("JWT_SECRET", f.JWT.Secret)
	f.JWT.RefreshSecret = env("JWT_REFRESH_SECRET", f.JWT.RefreshSecret)
	f.JWT.Issuer = env("JWT_ISSUER", f.JWT.Issuer)
	f.OTP.DefaultCountryCode = env("DEFAULT_COUNTRY_CODE", f.OTP.DefaultCountryCode)
	f.Twilio.AccountSID = env("TWILIO_ACCOUNT_SID", f.Twilio.AccountSID)
	f.Twilio.AuthToken = env("TWILIO_AUTH_TOKEN", f.Twilio.AuthToken)
	f.Twilio.FromNumber = env("TWILIO_PHONE", f.Twilio.FromNumber)
	f.Twilio.VerifyServiceSID = env("TWILIO_VERIFY_SERVICE_SID", f.Twilio.VerifyServiceSID)
	f.Casbin.ModelPath = env("CASBIN_MODEL", f.Casbin.ModelPath)
	f.Log.Level = env("LOG_LEVEL", f.Log.Level)
	f.Log.Dev = envBool("LOG_DEV", f.Log.Dev)
	f.Worker.TrackActivity = envBool("TRACK_WORKER_ACTIVITY", f.Worker.TrackActivity)
}

// FromFile parses durations and flattens the file layout
func FromFile(f ConfigFile) (*Config, error) {
	var errs []error
	parse := func(name, v string) time.Duration {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
		return d
	}

	cfg := &Config{
		Env:     f.App.Env,
		Port:    strconv.Itoa(f.App.Port),
		GinMode: f.App.GinMode,

		DSN:           f.Database.DSN,
		RedisAddr:     f.Redis.Addr,
		RedisPassword: f.Redis.Password,
		RedisDB:       f.Redis.DB,

		JWTSecret:        f.JWT.Secret,
		JWTRefreshSecret: f.JWT.RefreshSecret,
		JWTIssuer:        f.JWT.Issuer,
		AccessTTL:        parse("JWT access TTL", f.JWT.AccessTTL),
		RefreshTTL:       parse("JWT refresh TTL", f.JWT.RefreshTTL),

		OTPTTL:             parse("OTP TTL", f.OTP.TTL),
		OTPLength:          f.OTP.Length,
		OTPHashCost:        f.OTP.HashCost,
		DefaultCountryCode: f.OTP.DefaultCountryCode,

		LockoutMaxAttempts: f.Lockout.MaxAttempts,
		LockoutDuration:    parse("lockout duration", f.Lockout.Duration),

		PasswordHashCost: f.Password.HashCost,
		ResetTokenTTL:    parse("password reset TTL", f.Password.ResetTTL),

		TwilioSID:              f.Twilio.AccountSID,
		TwilioToken:            f.Twilio.AuthToken,
		TwilioFrom:             f.Twilio.FromNumber,
		TwilioVerifyServiceSID: f.Twilio.VerifyServiceSID,
		TwilioTimeout:          parse("twilio timeout", f.Twilio.Timeout),
		TwilioMaxAttempts:      f.Twilio.MaxAttempts,

		LoginLimit:         Window{Max: f.RateLimit.Login.Max, Window: parse("login rate window", f.RateLimit.Login.Window)},
		OTPLimit:           Window{Max: f.RateLimit.OTP.Max, Window: parse("otp rate window", f.RateLimit.OTP.Window)},
		PasswordResetLimit: Window{Max: f.RateLimit.PasswordReset.Max, Window: parse("password reset rate window", f.RateLimit.PasswordReset.Window)},

		CasbinModelPath: f.Casbin.ModelPath,

		LogLevel: f.Log.Level,
		LogDev:   f.Log.Dev,

		TrackWorkerActivity: f.Worker.TrackActivity,
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the auth core cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("otp ttl must be positive"))
	}
	if c.OTPLength < 4 {
		errs = append(errs, errors.New("otp length must be at least 4"))
	}
	if c.OTPHashCost < 10 {
		errs = append(errs, errors.New("otp hash cost must be at least 10"))
	}
	if c.LockoutMaxAttempts < 1 || c.LockoutDuration <= 0 {
		errs = append(errs, errors.New("lockout threshold and duration must be positive"))
	}
	if c.TwilioMaxAttempts < 1 {
		errs = append(errs, errors.New("twilio max attempts must be at least 1"))
	}
	return errors.Join(errs...)
}
