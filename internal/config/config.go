package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"ticketbot/pkg"
)

// Session backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var snowflake = regexp.MustCompile(`^\d{17,20}$`)

// Config is the full process configuration, read from the environment
type Config struct {
	Log          LogConfig         `envconfig:"LOG"`
	Discord      DiscordConfig     `envconfig:"DISCORD"`
	Roles        RoleConfig        `envconfig:"ROLE"`
	Channels     ChannelConfig     `envconfig:"CHANNEL"`
	StaffRoleIDs []string          `envconfig:"STAFF_ROLE_IDS" required:"true"`
	Session      SessionConfig     `envconfig:"SESSION"`
	Redis        RedisConfig       `envconfig:"REDIS"`
	Application  ApplicationConfig `envconfig:"APPLICATION"`
	Metrics      MetricsConfig     `envconfig:"METRICS"`
	WelcomeTitle string            `envconfig:"WELCOME_TITLE" default:"Welcome to SolBots Community/Support Server!"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"json"`
	Output     string `envconfig:"OUTPUT" default:"stdout"`
	FilePath   string `envconfig:"FILE_PATH" default:"logs/ticketbot.log"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"`
}

// DiscordConfig holds the bot credentials and the guild it serves
type DiscordConfig struct {
	Token   string `envconfig:"TOKEN" required:"true"`
	GuildID string `envconfig:"GUILD_ID" required:"true"`
}

// RoleConfig holds the managed role IDs
type RoleConfig struct {
	CommunityID    string `envconfig:"COMMUNITY_ID" required:"true"`
	ModeratorID    string `envconfig:"MODERATOR_ID" required:"true"`
	AdminID        string `envconfig:"ADMIN_ID" required:"true"`
	BotDeveloperID string `envconfig:"BOT_DEVELOPER_ID" required:"true"`
}

// ChannelConfig holds the channel IDs the bot posts to
type ChannelConfig struct {
	WelcomeID        string `envconfig:"WELCOME_ID" required:"true"`
	SupportPanelID   string `envconfig:"SUPPORT_PANEL_ID" required:"true"`
	TicketCategoryID string `envconfig:"TICKET_CATEGORY_ID" required:"true"`
	StaffReviewID    string `envconfig:"STAFF_REVIEW_ID" required:"true"`
}

// SessionConfig selects where open sessions are kept
type SessionConfig struct {
	Backend   string `envconfig:"BACKEND" default:"memory"`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:"ticketbot:"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL string `envconfig:"URL"`
}

// ApplicationConfig tunes the application questionnaire
type ApplicationConfig struct {
	QuestionsFile string        `envconfig:"QUESTIONS_FILE"`
	IdleTimeout   time.Duration `envconfig:"IDLE_TIMEOUT" default:"0"`
	SweepSchedule string        `envconfig:"SWEEP_SCHEDULE" default:"@every 1m"`
}

// MetricsConfig holds the HTTP listener for /metrics and /healthz
type MetricsConfig struct {
	Addr string `envconfig:"ADDR" default:":9090"`
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	cfg.StaffRoleIDs = trimAll(cfg.StaffRoleIDs)
	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks identifier formats and backend settings
func (c *Config) Validate() error {
	ids := map[string]string{
		"DISCORD_GUILD_ID":           c.Discord.GuildID,
		"ROLE_COMMUNITY_ID":          c.Roles.CommunityID,
		"ROLE_MODERATOR_ID":          c.Roles.ModeratorID,
		"ROLE_ADMIN_ID":              c.Roles.AdminID,
		"ROLE_BOT_DEVELOPER_ID":      c.Roles.BotDeveloperID,
		"CHANNEL_WELCOME_ID":         c.Channels.WelcomeID,
		"CHANNEL_SUPPORT_PANEL_ID":   c.Channels.SupportPanelID,
		"CHANNEL_TICKET_CATEGORY_ID": c.Channels.TicketCategoryID,
		"CHANNEL_STAFF_REVIEW_ID":    c.Channels.StaffReviewID,
	}
	for name, id := range ids {
		if !snowflake.MatchString(id) {
			return fmt.Errorf("invalid %s %q: expected a numeric snowflake", name, id)
		}
	}

	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}

	if len(c.StaffRoleIDs) == 0 {
		return fmt.Errorf("STAFF_ROLE_IDS must list at least one role")
	}
	for _, id := range c.StaffRoleIDs {
		if !snowflake.MatchString(id) {
			return fmt.Errorf("invalid STAFF_ROLE_IDS entry %q: expected a numeric snowflake", id)
		}
	}

	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want memory or redis)", c.Session.Backend)
	}

	if c.Application.IdleTimeout < 0 {
		return fmt.Errorf("APPLICATION_IDLE_TIMEOUT cannot be negative")
	}

	return nil
}

// RoleIDs returns the managed role IDs in domain form
func (c *Config) RoleIDs() pkg.RoleIDs {
	return pkg.RoleIDs{
		Community:    c.Roles.CommunityID,
		Moderator:    c.Roles.ModeratorID,
		Admin:        c.Roles.AdminID,
		BotDeveloper: c.Roles.BotDeveloperID,
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
