package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		Environment: "development",
		Storage:     StorageConfig{Mode: StorageMemory},
		PushReplica: "auto",
		Mail:        MailConfig{Mode: MailLog},
	}
}

func TestConfig_ApplyPlatformDefaults(t *testing.T) {
	t.Run("ServicePort", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("DATABASE_URL", "")

		cfg := baseConfig()
		cfg.applyPlatformDefaults(Invoices)
		assert.Equal(t, "0.0.0.0:3001", cfg.Addr)
		assert.Equal(t, "http://localhost:3001", cfg.PublicURL)
		assert.Empty(t, cfg.Storage.DatabaseURL)
	})
	t.Run("PlatformVariables", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("DATABASE_URL", "postgres://db/shiptrack")

		cfg := baseConfig()
		cfg.applyPlatformDefaults(Orders)
		assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
		assert.Equal(t, "postgres://db/shiptrack", cfg.Storage.DatabaseURL)
	})
	t.Run("ExplicitWins", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("DATABASE_URL", "postgres://db/other")

		cfg := baseConfig()
		cfg.Addr = "127.0.0.1:9000"
		cfg.PublicURL = "https://files.example.com"
		cfg.Storage.DatabaseURL = "postgres://db/shiptrack"
		cfg.applyPlatformDefaults(Verification)
		assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
		assert.Equal(t, "https://files.example.com", cfg.PublicURL)
		assert.Equal(t, "postgres://db/shiptrack", cfg.Storage.DatabaseURL)
	})
}

func TestConfig_Validate(t *testing.T) {
	for _, tt := range []struct {
		name    string
		svc     Service
		modify  func(c *Config)
		wantErr string
	}{
		{"MemoryDefaults", Orders, func(*Config) {}, ""},
		{"UnknownStorage", Orders, func(c *Config) { c.Storage.Mode = "redis" }, `unknown storage mode "redis"`},
		{"PostgresWithoutURL", Notifications, func(c *Config) { c.Storage.Mode = StoragePostgres }, "SHIPTRACK_NOTIFICATIONS_STORAGE_DATABASE_URL"},
		{"PostgresOrders", Orders, func(c *Config) {
			c.Storage = StorageConfig{Mode: StoragePostgres, DatabaseURL: "postgres://db"}
		}, ""},
		{"PostgresInvoicesWithoutKey", Invoices, func(c *Config) {
			c.Storage = StorageConfig{Mode: StoragePostgres, DatabaseURL: "postgres://db"}
		}, "signing key is required"},
		{"PostgresVerificationWithKey", Verification, func(c *Config) {
			c.Storage = StorageConfig{Mode: StoragePostgres, DatabaseURL: "postgres://db"}
			c.SigningKey = "k"
		}, ""},
		{"SMTPWithoutHost", Invoices, func(c *Config) { c.Mail.Mode = MailSMTP }, "smtp host is required"},
		{"UnknownMailer", Notifications, func(c *Config) { c.Mail.Mode = "ses" }, `unknown mail mode "ses"`},
		{"MailIgnoredByOrders", Orders, func(c *Config) { c.Mail.Mode = "ses" }, ""},
		{"BadPushReplica", Orders, func(c *Config) { c.PushReplica = "yes" }, "push replica must be auto, true or false"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.modify(&cfg)

			err := cfg.validate(tt.svc)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_PushReplica(t *testing.T) {
	for _, tt := range []struct {
		setting string
		storage string
		want    bool
	}{
		{"auto", StorageMemory, true},
		{"auto", StoragePostgres, false},
		{"true", StoragePostgres, true},
		{"false", StorageMemory, false},
	} {
		cfg := baseConfig()
		cfg.PushReplica = tt.setting
		cfg.Storage.Mode = tt.storage
		assert.Equal(t, tt.want, cfg.pushReplica(), "%s/%s", tt.setting, tt.storage)
	}
}
