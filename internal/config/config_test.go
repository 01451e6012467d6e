package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketbot/pkg"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	env := map[string]string{
		"DISCORD_TOKEN":              "test-token",
		"DISCORD_GUILD_ID":           "100000000000000001",
		"ROLE_COMMUNITY_ID":          "200000000000000001",
		"ROLE_MODERATOR_ID":          "200000000000000002",
		"ROLE_ADMIN_ID":              "200000000000000003",
		"ROLE_BOT_DEVELOPER_ID":      "200000000000000004",
		"CHANNEL_WELCOME_ID":         "300000000000000001",
		"CHANNEL_SUPPORT_PANEL_ID":   "300000000000000002",
		"CHANNEL_TICKET_CATEGORY_ID": "300000000000000003",
		"CHANNEL_STAFF_REVIEW_ID":    "300000000000000004",
		"STAFF_ROLE_IDS":             "200000000000000002, 200000000000000003",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, BackendMemory, cfg.Session.Backend)
	assert.Equal(t, "ticketbot:", cfg.Session.KeyPrefix)
	assert.Equal(t, time.Duration(0), cfg.Application.IdleTimeout)
	assert.Equal(t, "@every 1m", cfg.Application.SweepSchedule)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.Equal(t, []string{"200000000000000002", "200000000000000003"}, cfg.StaffRoleIDs)

	assert.Equal(t, pkg.RoleIDs{
		Community:    "200000000000000001",
		Moderator:    "200000000000000002",
		Admin:        "200000000000000003",
		BotDeveloper: "200000000000000004",
	}, cfg.RoleIDs())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("APPLICATION_IDLE_TIMEOUT", "30m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 30*time.Minute, cfg.Application.IdleTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	require.NoError(t, os.Unsetenv("DISCORD_TOKEN"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"bad guild id", func(c *Config) { c.Discord.GuildID = "guild" }, "DISCORD_GUILD_ID"},
		{"short role id", func(c *Config) { c.Roles.AdminID = "123" }, "ROLE_ADMIN_ID"},
		{"bad staff role", func(c *Config) { c.StaffRoleIDs = []string{"staff"} }, "STAFF_ROLE_IDS"},
		{"no staff roles", func(c *Config) { c.StaffRoleIDs = nil }, "STAFF_ROLE_IDS"},
		{"redis without url", func(c *Config) { c.Session.Backend = BackendRedis }, "REDIS_URL"},
		{"unknown backend", func(c *Config) { c.Session.Backend = "etcd" }, "SESSION_BACKEND"},
		{"negative idle", func(c *Config) { c.Application.IdleTimeout = -time.Second }, "APPLICATION_IDLE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseQuestions(t *testing.T) {
	doc := []byte(`
questions:
  moderator:
    - "Why do you want to moderate?"
    - "How old are you?"
  bot_developer:
    - "Which languages do you use?"
`)
	got, err := ParseQuestions(doc)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"Why do you want to moderate?", "How old are you?"}, got[pkg.RoleModerator])
	assert.Equal(t, []string{"Which languages do you use?"}, got[pkg.RoleBotDeveloper])
	_, hasAdmin := got[pkg.RoleAdmin]
	assert.False(t, hasAdmin)
}

func TestParseQuestions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown role", "questions:\n  janitor:\n    - \"q\"\n"},
		{"empty list", "questions:\n  admin: []\n"},
		{"empty question", "questions:\n  admin:\n    - \"\"\n"},
		{"not yaml", "questions: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestions([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadQuestions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("questions:\n  admin:\n    - \"Experience?\"\n"), 0o644))

	got, err := LoadQuestions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Experience?"}, got[pkg.RoleAdmin])

	_, err = LoadQuestions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
