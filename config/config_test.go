package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: 9090
jwt:
  secret: test-secret
scraper:
  api_key: scraper-key
email:
  provider: log
  batch_size: 50
  batch_delay: 250ms
notifications:
  dispatch_mode: inline
  window: 30m
brands:
  - name: Ippodo
    emoji: "🍵"
    color: 0x4CAF50
  - name: Marukyu Koyamaen
    aliases: [Marukyu]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 50, cfg.Email.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Email.BatchDelay)
	assert.Equal(t, 30*time.Minute, cfg.Notifications.Window)
	assert.Equal(t, "inline", cfg.Notifications.DispatchMode)
	assert.Equal(t, int64(350), cfg.Stripe.PriceAmount)
	require.Len(t, cfg.Brands, 2)
	assert.Equal(t, 0x4CAF50, cfg.Brands[0].Color)
	assert.Equal(t, []string{"Marukyu"}, cfg.Brands[1].Aliases)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SCRAPER_API_KEY", "from-env")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_env")

	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Scraper.APIKey)
	assert.Equal(t, "whsec_env", cfg.Stripe.WebhookSecret)
}

func TestLoad_PrefersLocalFile(t *testing.T) {
	path := writeConfig(t, testYAML)
	local := filepath.Join(filepath.Dir(path), "config.local.yaml")
	require.NoError(t, os.WriteFile(local, []byte(testYAML+"\napp:\n  site_url: http://localhost:3000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.App.SiteURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Database:      DatabaseConfig{Driver: "sqlite"},
		JWT:           JWTConfig{Secret: "s"},
		Scraper:       ScraperConfig{APIKey: "k"},
		Email:         EmailConfig{Provider: "log", BatchSize: 100},
		Notifications: NotificationConfig{DispatchMode: "queue", Window: time.Hour},
		Brands:        []BrandConfig{{Name: "Ippodo"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing jwt secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"missing scraper key", func(c *Config) { c.Scraper.APIKey = "" }, "scraper.api_key"},
		{"batch too large", func(c *Config) { c.Email.BatchSize = 101 }, "email.batch_size"},
		{"batch zero", func(c *Config) { c.Email.BatchSize = 0 }, "email.batch_size"},
		{"resend without key", func(c *Config) { c.Email.Provider = "resend" }, "resend_api_key"},
		{"smtp without host", func(c *Config) { c.Email.Provider = "smtp" }, "smtp_host"},
		{"unknown provider", func(c *Config) { c.Email.Provider = "pigeon" }, "email.provider"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"unknown dispatch mode", func(c *Config) { c.Notifications.DispatchMode = "cron" }, "dispatch_mode"},
		{"zero window", func(c *Config) { c.Notifications.Window = 0 }, "window"},
		{"duplicate brand", func(c *Config) {
			c.Brands = append(c.Brands, BrandConfig{Name: "Ippodo"})
		}, "duplicate brand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
