package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Log           LogConfig          `mapstructure:"log"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Redis         RedisConfig        `mapstructure:"redis"`
	JWT           JWTConfig          `mapstructure:"jwt"`
	OAuth         OAuthConfig        `mapstructure:"oauth"`
	Email         EmailConfig        `mapstructure:"email"`
	Stripe        StripeConfig       `mapstructure:"stripe"`
	Scraper       ScraperConfig      `mapstructure:"scraper"`
	App           AppConfig          `mapstructure:"app"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Discord       DiscordConfig      `mapstructure:"discord"`
	CORS          CORSConfig         `mapstructure:"cors"`
	Brands        []BrandConfig      `mapstructure:"brands"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN          string `mapstructure:"dsn"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type OAuthConfig struct {
	Github OAuthProviderConfig `mapstructure:"github"`
	Google OAuthProviderConfig `mapstructure:"google"`
}

type OAuthProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type EmailConfig struct {
	Provider     string        `mapstructure:"provider"` // resend, smtp, log
	ResendAPIKey string        `mapstructure:"resend_api_key"`
	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	From         string        `mapstructure:"from"`
	BatchSize    int           `mapstructure:"batch_size"`  // 每次调用提供商的最大收件人数
	BatchDelay   time.Duration `mapstructure:"batch_delay"` // 批次之间的间隔
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	PriceID       string `mapstructure:"price_id"`
	PriceAmount   int64  `mapstructure:"price_amount"` // cents, used when price_id is empty
	Currency      string `mapstructure:"currency"`
	ProductName   string `mapstructure:"product_name"`
}

type ScraperConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type AppConfig struct {
	SiteURL    string `mapstructure:"site_url"`
	AccessCode string `mapstructure:"access_code"`
}

type NotificationConfig struct {
	DispatchMode     string        `mapstructure:"dispatch_mode"` // queue, inline
	Queue            string        `mapstructure:"queue"`
	Window           time.Duration `mapstructure:"window"`
	MaxWorkers       int           `mapstructure:"max_workers"`
	BrandConcurrency int           `mapstructure:"brand_concurrency"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
}

type DiscordConfig struct {
	DefaultWebhook string        `mapstructure:"default_webhook"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// BrandConfig 单个品牌的通知配置
type BrandConfig struct {
	Name           string        `mapstructure:"name"`
	Aliases        []string      `mapstructure:"aliases"`
	DiscordWebhook string        `mapstructure:"discord_webhook"`
	Emoji          string        `mapstructure:"emoji"`
	Color          int           `mapstructure:"color"`
	IngestBlocked  bool          `mapstructure:"ingest_blocked"`
	Blends         []BlendConfig `mapstructure:"blends"`
}

type BlendConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// MaxEmailBatchSize is the per-call recipient cap of the email provider.
const MaxEmailBatchSize = 100

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.sslmode", "require")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("jwt.expire_hours", 168)
	v.SetDefault("email.provider", "resend")
	v.SetDefault("email.from", "notifications@updates.matcharestock.com")
	v.SetDefault("email.batch_size", MaxEmailBatchSize)
	v.SetDefault("email.batch_delay", "1s")
	v.SetDefault("stripe.price_amount", 350)
	v.SetDefault("stripe.currency", "usd")
	v.SetDefault("stripe.product_name", "MatchaRestock Premium")
	v.SetDefault("notifications.dispatch_mode", "queue")
	v.SetDefault("notifications.queue", "matcharestock:notifications")
	v.SetDefault("notifications.window", "1h")
	v.SetDefault("notifications.max_workers", 1)
	v.SetDefault("notifications.brand_concurrency", 2)
	v.SetDefault("notifications.sweep_interval", "5m")
	v.SetDefault("notifications.lock_ttl", "10m")
	v.SetDefault("discord.timeout", "10s")

	// 以下键没有默认值，但需要注册才能被环境变量覆盖
	for _, key := range []string{
		"database.dsn", "database.host", "database.port", "database.username",
		"database.password", "database.database", "redis.password",
		"jwt.secret", "oauth.github.client_id", "oauth.github.client_secret",
		"oauth.github.redirect_uri", "oauth.google.client_id",
		"oauth.google.client_secret", "oauth.google.redirect_uri",
		"email.resend_api_key", "email.smtp_host", "email.smtp_port",
		"email.username", "email.password", "stripe.secret_key",
		"stripe.webhook_secret", "stripe.price_id", "scraper.api_key",
		"app.site_url", "app.access_code", "discord.default_webhook",
	} {
		v.SetDefault(key, "")
	}
}

func Load(configPath string) (*Config, error) {
	// .env 只用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings every binary depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Scraper.APIKey == "" {
		errs = append(errs, errors.New("scraper.api_key is required"))
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}

	switch c.Email.Provider {
	case "resend":
		if c.Email.ResendAPIKey == "" {
			errs = append(errs, errors.New("email.resend_api_key is required for the resend provider"))
		}
	case "smtp":
		if c.Email.SMTPHost == "" {
			errs = append(errs, errors.New("email.smtp_host is required for the smtp provider"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("email.provider %q is not supported", c.Email.Provider))
	}

	if c.Email.BatchSize < 1 || c.Email.BatchSize > MaxEmailBatchSize {
		errs = append(errs, fmt.Errorf("email.batch_size must be between 1 and %d", MaxEmailBatchSize))
	}

	switch c.Notifications.DispatchMode {
	case "queue", "inline":
	default:
		errs = append(errs, fmt.Errorf("notifications.dispatch_mode %q is not supported", c.Notifications.DispatchMode))
	}
	if c.Notifications.Window <= 0 {
		errs = append(errs, errors.New("notifications.window must be positive"))
	}

	seen := make(map[string]bool, len(c.Brands))
	for _, b := range c.Brands {
		if b.Name == "" {
			errs = append(errs, errors.New("brands: name is required"))
			continue
		}
		if seen[b.Name] {
			errs = append(errs, fmt.Errorf("brands: duplicate brand %q", b.Name))
		}
		seen[b.Name] = true
	}

	return errors.Join(errs...)
}
