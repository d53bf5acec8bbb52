// Package env loads process configuration from the environment. A .env file in
// the working directory is read first when present.
package env

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"facegate.io/infrastructure/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv string `mapstructure:"APP_ENV"`
	Port   string `mapstructure:"PORT"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DBURL       string `mapstructure:"DB_URL"`
	DBName      string `mapstructure:"DB_NAME"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	JWTSigningKey string        `mapstructure:"JWT_SIGNING_KEY"`
	JWTIssuer     string        `mapstructure:"JWT_ISSUER"`
	PendingTTL    time.Duration `mapstructure:"PENDING_TOKEN_TTL"`
	SessionTTL    time.Duration `mapstructure:"SESSION_TOKEN_TTL"`
	EncKey        string        `mapstructure:"ENC_KEY"`

	FaceMaxAttempts       int           `mapstructure:"FACE_MAX_ATTEMPTS"`
	FaceLockoutDuration   time.Duration `mapstructure:"FACE_LOCKOUT_DURATION"`
	PasswordMaxAttempts   int           `mapstructure:"PASSWORD_MAX_ATTEMPTS"`
	PasswordLockoutWindow time.Duration `mapstructure:"PASSWORD_LOCKOUT_DURATION"`

	FaceAcceptThreshold     float64 `mapstructure:"FACE_ACCEPT_THRESHOLD"`
	FallbackAcceptThreshold float64 `mapstructure:"FALLBACK_ACCEPT_THRESHOLD"`
	FaceMaxDistance         float64 `mapstructure:"FACE_MAX_DISTANCE"`
	MinFaceSize             int     `mapstructure:"MIN_FACE_SIZE"`
	LivenessMinTexture      float64 `mapstructure:"LIVENESS_MIN_TEXTURE"`
	LivenessMinContrast     float64 `mapstructure:"LIVENESS_MIN_CONTRAST"`

	FaceServiceURL     string        `mapstructure:"FACE_SERVICE_URL"`
	FaceServiceTimeout time.Duration `mapstructure:"FACE_SERVICE_TIMEOUT"`
	HaarCascadePath    string        `mapstructure:"HAAR_CASCADE_PATH"`

	BackupCodeLimit  int           `mapstructure:"BACKUP_CODE_LIMIT"`
	BackupCodeWindow time.Duration `mapstructure:"BACKUP_CODE_WINDOW"`

	BootstrapAdminUsername string `mapstructure:"BOOTSTRAP_ADMIN_USERNAME"`
	BootstrapAdminPassword string `mapstructure:"BOOTSTRAP_ADMIN_PASSWORD"`

	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	EmailFrom    string `mapstructure:"EMAIL_FROM"`

	MaxmindDBPath  string   `mapstructure:"MAXMIND_DB_PATH"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
	RequestsPerSec float64  `mapstructure:"REQUESTS_PER_SECOND"`
}

var defaults = map[string]any{
	"APP_ENV":                   "development",
	"PORT":                      "8080",
	"STORE_DRIVER":              "memory",
	"DB_NAME":                   "facegate",
	"JWT_ISSUER":                "facegate",
	"PENDING_TOKEN_TTL":         5 * time.Minute,
	"SESSION_TOKEN_TTL":         30 * time.Minute,
	"FACE_MAX_ATTEMPTS":         3,
	"FACE_LOCKOUT_DURATION":     15 * time.Minute,
	"PASSWORD_MAX_ATTEMPTS":     3,
	"PASSWORD_LOCKOUT_DURATION": 15 * time.Minute,
	"FACE_ACCEPT_THRESHOLD":     0.35,
	"FALLBACK_ACCEPT_THRESHOLD": 0.90,
	"FACE_MAX_DISTANCE":         0.30,
	"MIN_FACE_SIZE":             48,
	"LIVENESS_MIN_TEXTURE":      30.0,
	"LIVENESS_MIN_CONTRAST":     20.0,
	"FACE_SERVICE_TIMEOUT":      3 * time.Second,
	"BACKUP_CODE_LIMIT":         3,
	"BACKUP_CODE_WINDOW":        time.Hour,
	"EMAIL_FROM":                "Facegate <security@facegate.io>",
	"ALLOWED_ORIGINS":           []string{"*"},
	"REQUESTS_PER_SECOND":       5.0,
}

// Load reads the .env file if any, then the environment, and validates the
// result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file loaded, reading process environment only")
	}
	return FromViper(viper.New())
}

// FromViper fills defaults into v, binds every key to the environment and
// unmarshals the result.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	for _, key := range keys() {
		_ = v.BindEnv(key)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	// comma separated in the environment
	if len(config.AllowedOrigins) == 1 && strings.Contains(config.AllowedOrigins[0], ",") {
		config.AllowedOrigins = strings.Split(config.AllowedOrigins[0], ",")
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func keys() []string {
	return []string{
		"APP_ENV", "PORT", "STORE_DRIVER", "DB_URL", "DB_NAME", "REDIS_ADDR", "REDIS_PASSWORD",
		"JWT_SIGNING_KEY", "JWT_ISSUER", "PENDING_TOKEN_TTL", "SESSION_TOKEN_TTL", "ENC_KEY",
		"FACE_MAX_ATTEMPTS", "FACE_LOCKOUT_DURATION", "PASSWORD_MAX_ATTEMPTS", "PASSWORD_LOCKOUT_DURATION",
		"FACE_ACCEPT_THRESHOLD", "FALLBACK_ACCEPT_THRESHOLD", "FACE_MAX_DISTANCE", "MIN_FACE_SIZE",
		"LIVENESS_MIN_TEXTURE", "LIVENESS_MIN_CONTRAST", "FACE_SERVICE_URL", "FACE_SERVICE_TIMEOUT",
		"HAAR_CASCADE_PATH", "BACKUP_CODE_LIMIT", "BACKUP_CODE_WINDOW", "BOOTSTRAP_ADMIN_USERNAME",
		"BOOTSTRAP_ADMIN_PASSWORD", "RESEND_API_KEY", "EMAIL_FROM", "MAXMIND_DB_PATH", "ALLOWED_ORIGINS",
		"REQUESTS_PER_SECOND",
	}
}

func (c *Config) validate() error {
	var errs []error
	if len(c.JWTSigningKey) < 32 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 32 characters"))
	}
	if len(c.EncKey) != 64 {
		errs = append(errs, errors.New("ENC_KEY must be 32 bytes hex encoded"))
	}
	switch c.StoreDriver {
	case "memory":
	case "mongo", "postgres", "sqlite":
		if c.DBURL == "" {
			errs = append(errs, fmt.Errorf("DB_URL is required for store driver %s", c.StoreDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.FaceMaxAttempts < 1 || c.PasswordMaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.FaceLockoutDuration <= 0 || c.PasswordLockoutWindow <= 0 {
		errs = append(errs, errors.New("lockout durations must be positive"))
	}
	if c.FaceAcceptThreshold <= 0 || c.FaceAcceptThreshold > 1 || c.FallbackAcceptThreshold <= 0 || c.FallbackAcceptThreshold > 1 {
		errs = append(errs, errors.New("accept thresholds must be in (0, 1]"))
	}
	if c.BackupCodeLimit < 1 || c.BackupCodeWindow <= 0 {
		errs = append(errs, errors.New("backup code limit and window must be positive"))
	}
	if (c.BootstrapAdminUsername == "") != (c.BootstrapAdminPassword == "") {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD go together"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
