package config

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/pharmily/pharmily-api/internal/email"
	"github.com/pharmily/pharmily-api/internal/middleware"
	"github.com/pharmily/pharmily-api/internal/repository/sqlstore"
	"github.com/pharmily/pharmily-api/internal/router"
	"github.com/pharmily/pharmily-api/pkg/messaging/redis"
	"github.com/pharmily/pharmily-api/pkg/worker"
)

// EnvPrefix namespaces the environment overrides, e.g. PHARMILY_JWT_SECRET.
const EnvPrefix = "PHARMILY"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Clinic    ClinicConfig    `mapstructure:"clinic"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Email     EmailConfig     `mapstructure:"email"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type StorageConfig struct {
	PrescriptionDir string `mapstructure:"prescription_dir"`
}

type ClinicConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	Channel      string        `mapstructure:"channel"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type OutboxConfig struct {
	BatchSize       int           `mapstructure:"batch_size"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	ClaimTimeout    time.Duration `mapstructure:"claim_timeout"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type CacheConfig struct {
	DirectoryTTL time.Duration `mapstructure:"directory_ttl"`
}

// envOverrides are read after the file so secrets never need to live in it.
type envOverrides struct {
	Port            int    `envconfig:"PORT"`
	LogLevel        string `envconfig:"LOG_LEVEL"`
	DBDriver        string `envconfig:"DB_DRIVER"`
	DBDSN           string `envconfig:"DB_DSN"`
	JWTSecret       string `envconfig:"JWT_SECRET"`
	RedisURL        string `envconfig:"REDIS_URL"`
	SMTPPassword    string `envconfig:"SMTP_PASSWORD"`
	PrescriptionDir string `envconfig:"PRESCRIPTION_DIR"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", middleware.DefaultMaxBodySize)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")

	v.SetDefault("database.driver", sqlstore.DriverSQLite)
	v.SetDefault("database.dsn", "pharmily.db")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("storage.prescription_dir", "./temp_prescriptions")
	v.SetDefault("clinic.timezone", "Asia/Jakarta")

	v.SetDefault("redis.channel", "pharmily.events")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 200*time.Millisecond)
	v.SetDefault("outbox.max_retries", 5)
	v.SetDefault("outbox.retention_days", 7)
	v.SetDefault("outbox.cleanup_interval", time.Hour)
	v.SetDefault("outbox.claim_timeout", 5*time.Minute)

	v.SetDefault("email.port", 587)
	v.SetDefault("email.from", "no-reply@pharmily.local")

	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("cache.directory_ttl", 5*time.Minute)
}

// LoadConfig reads file (or a file named config in the usual locations),
// then applies PHARMILY_* environment overrides. A missing file is not an error.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.applyEnv(env)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv(env envOverrides) {
	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.DBDriver != "" {
		c.Database.Driver = env.DBDriver
	}
	if env.DBDSN != "" {
		c.Database.DSN = env.DBDSN
	}
	if env.JWTSecret != "" {
		c.JWT.Secret = env.JWTSecret
	}
	if env.RedisURL != "" {
		c.Redis.URL = env.RedisURL
	}
	if env.SMTPPassword != "" {
		c.Email.Password = env.SMTPPassword
	}
	if env.PrescriptionDir != "" {
		c.Storage.PrescriptionDir = env.PrescriptionDir
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("jwt secret must be at least 16 characters (set %s_JWT_SECRET)", EnvPrefix)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func (c *JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (c *DatabaseConfig) ToStoreConfig() sqlstore.Config {
	return sqlstore.Config{
		Driver:       c.Driver,
		DSN:          c.DSN,
		MaxOpenConns: c.MaxOpenConns,
	}
}

func (c *OutboxConfig) ToWorkerConfig(channel string) worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		Channel:       channel,
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
		MaxRetries:    c.MaxRetries,
		ClaimTimeout:  c.ClaimTimeout,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *EmailConfig) ToEmailConfig() email.Config {
	return email.Config{
		Enabled:  c.Enabled,
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
	}
}

func (c *Config) ToRouterConfig() router.RouterConfig {
	cors := middleware.DefaultCORSConfig()
	if len(c.Server.AllowedOrigins) > 0 {
		cors.AllowOrigins = c.Server.AllowedOrigins
	}
	return router.RouterConfig{
		RateLimit:      rate.Limit(c.RateLimit.RPS),
		RateBurst:      c.RateLimit.Burst,
		CORSConfig:     cors,
		RequestTimeout: c.Server.RequestTimeout,
		MaxBodyBytes:   c.Server.MaxBodyBytes,
		MetricsPrefix:  "pharmily_http",
	}
}
