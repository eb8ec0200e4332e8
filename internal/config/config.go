package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env              string        `mapstructure:"ENV"`
	Port             string        `mapstructure:"PORT"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	AdminKey         string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	Timezone         string        `mapstructure:"TIMEZONE"`
	SyncEnabled      bool          `mapstructure:"SYNC_ENABLED"`
	SyncInterval     time.Duration `mapstructure:"SYNC_INTERVAL"`
	ClosedStatuses   string        `mapstructure:"CLOSED_STATUSES"`
	TicketAPIURL     string        `mapstructure:"TICKET_API_URL"`
	TicketAPIKey     string        `mapstructure:"TICKET_API_KEY"`
	TicketAPISecret  string        `mapstructure:"TICKET_API_SECRET"`
	TicketAPITimeout time.Duration `mapstructure:"TICKET_API_TIMEOUT"`
	PauseBackend     string        `mapstructure:"PAUSE_BACKEND"`
	PauseStateFile   string        `mapstructure:"PAUSE_STATE_FILE"`
	PauseRedisKey    string        `mapstructure:"PAUSE_REDIS_KEY"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int           `mapstructure:"REDIS_DB"`
	AssignableOps    string        `mapstructure:"ASSIGNABLE_OPERATORS"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("TIMEZONE", "America/Argentina/Buenos_Aires")
	v.SetDefault("SYNC_ENABLED", true)
	v.SetDefault("SYNC_INTERVAL", "10m")
	v.SetDefault("CLOSED_STATUSES", "closed,success,resolved,done")
	v.SetDefault("TICKET_API_TIMEOUT", "15s")
	v.SetDefault("PAUSE_BACKEND", "file")
	v.SetDefault("PAUSE_STATE_FILE", "system_state.json")
	v.SetDefault("PAUSE_REDIS_KEY", "opsync:system_state")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	if cfg.SyncEnabled && cfg.SyncInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_INTERVAL must be positive when SYNC_ENABLED is true, got %s", cfg.SyncInterval)
	}
	return cfg, nil
}

// Location resolves TIMEZONE; schedule windows are entered in this zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) ClosedStatusList() []string {
	return SplitList(c.ClosedStatuses)
}

func (c Config) AssignableOperatorIDs() ([]int64, error) {
	var out []int64
	for _, raw := range SplitList(c.AssignableOps) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ASSIGNABLE_OPERATORS entry %q: %w", raw, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
