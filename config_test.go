package naparnik

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "naparnik.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport: discord
bot_token: from-yaml
database_url: sqlite:///tmp/yaml.db
tick_interval: 5s
history_days: 14
`), 0o600))

	t.Setenv("NAPARNIK_BOT_TOKEN", "from-env")
	t.Setenv("NAPARNIK_HISTORY_DAYS", "7")

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)

	// yaml over defaults
	assert.Equal(t, TransportDiscord, cfg.Transport)
	assert.Equal(t, "sqlite:///tmp/yaml.db", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.TickInterval)
	// env over yaml
	assert.Equal(t, "from-env", cfg.BotToken)
	assert.Equal(t, 7, cfg.HistoryDays)
	// untouched defaults
	assert.Equal(t, "Naparnik", cfg.BotName)
	assert.Equal(t, time.Hour, cfg.ReminderInterval)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("NAPARNIK_BOT_TOKEN", "token")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, TransportTelegram, cfg.Transport)
	assert.Equal(t, 10*time.Second, cfg.TickInterval)
	assert.Equal(t, 30, cfg.HistoryDays)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "naparnik.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transport: [unclosed"), 0o600))

	_, err := LoadConfig(path, false)
	assert.Error(t, err)
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"NAPARNIK_TICK_INTERVAL":     "1s",
		"NAPARNIK_REMINDER_INTERVAL": "30m",
		"NAPARNIK_DB_URL":            "postgres://u:p@localhost/naparnik",
	}
	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 30*time.Minute, cfg.ReminderInterval)
	assert.Equal(t, "postgres://u:p@localhost/naparnik", cfg.DatabaseURL)

	bad := DefaultConfig()
	err := bad.applyEnv(func(k string) string {
		if k == "NAPARNIK_HISTORY_DAYS" {
			return "a week"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := DefaultConfig()
	valid.BotToken = "token"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "postgres url", mutate: func(c *Config) { c.DatabaseURL = "postgres://localhost/db" }},
		{name: "missing token", mutate: func(c *Config) { c.BotToken = "" }, wantErr: true},
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "irc" }, wantErr: true},
		{name: "unsupported database", mutate: func(c *Config) { c.DatabaseURL = "mysql://localhost" }, wantErr: true},
		{name: "zero tick", mutate: func(c *Config) { c.TickInterval = 0 }, wantErr: true},
		{name: "negative history", mutate: func(c *Config) { c.HistoryDays = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
