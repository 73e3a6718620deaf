package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken string `env:"DISCORD_BOT_TOKEN" env-required:"true"`
	Timezone     string `env:"TIMEZONE" env-default:"Asia/Jerusalem"`
	DatabasePath string `env:"DATABASE_PATH" env-default:"./data.db"`
	DatabaseURL  string `env:"DATABASE_URL"` // postgres://…, replaces the sqlite file when set
	Port         string `env:"PORT" env-default:"8080"`
	Env          string `env:"ENV" env-default:"prod"` // prod, dev, local
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`

	loc *time.Location
}

// ConfigDir is where the installed service keeps its configuration.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nudge")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

// Load reads .env from the working directory and ~/.nudge/config, then the
// environment. Variables already set in the environment win.
func Load() (*Config, error) {
	return load(".env", ConfigFile())
}

func load(files ...string) (*Config, error) {
	for _, f := range files {
		_ = godotenv.Load(f) // missing files are fine
	}

	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.DiscordToken == "" {
		return nil, errors.New("DISCORD_BOT_TOKEN is required")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}
	cfg.loc = loc
	return cfg, nil
}

// Location is the single time zone every schedule and digest uses.
func (c *Config) Location() *time.Location {
	return c.loc
}
