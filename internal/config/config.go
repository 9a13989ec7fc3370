// Package config provides Viper-based configuration management.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/naka-gawa/stale-radar/internal/domain"
)

// Config holds the complete configuration: which repositories to aggregate,
// where the snapshot history lives, and the server address.
type Config struct {
	Repos       []RepoConfig `mapstructure:"repos"`
	Orgs        []string     `mapstructure:"orgs"`
	StaleLabel  string       `mapstructure:"stale_label"`
	HistoryDir  string       `mapstructure:"history_dir"`
	HistoryDays int          `mapstructure:"history_days"`
	Server      ServerConfig `mapstructure:"server"`

	// Token comes from the environment, never from the config file.
	// Empty means unauthenticated requests.
	Token string `mapstructure:"-"`
}

// RepoConfig names one repository to aggregate.
type RepoConfig struct {
	Org  string `mapstructure:"org"`
	Repo string `mapstructure:"repo"`
}

// ServerConfig contains the serve command's settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from file and environment variables. A .env file
// in the working directory is honored for GITHUB_TOKEN.
func Load(cfgFile string) (*Config, error) {
	// Missing .env is fine; the token may come from the real environment.
	_ = godotenv.Load()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".stale-radar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/stale-radar")
	}

	v.SetEnvPrefix("STALE_RADAR")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK when repos come from env/flags.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Token = os.Getenv("GITHUB_TOKEN")

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("stale_label", "stale")
	v.SetDefault("history_dir", "data/history")
	v.SetDefault("history_days", 365)
	v.SetDefault("server.addr", ":8080")
}

// validate checks the configuration for errors.
func validate(cfg *Config) error {
	if len(cfg.Repos) == 0 && len(cfg.Orgs) == 0 {
		return fmt.Errorf("no repositories configured: set repos or orgs")
	}
	for i, r := range cfg.Repos {
		if r.Org == "" || r.Repo == "" {
			return fmt.Errorf("repos[%d]: both org and repo must be set", i)
		}
	}
	if cfg.StaleLabel == "" {
		return fmt.Errorf("stale_label must not be empty")
	}
	if cfg.HistoryDays <= 0 {
		return fmt.Errorf("history_days must be positive, got %d", cfg.HistoryDays)
	}
	return nil
}

// RepoList converts the configured repositories to domain values.
func (c *Config) RepoList() []domain.Repo {
	repos := make([]domain.Repo, 0, len(c.Repos))
	for _, r := range c.Repos {
		repos = append(repos, domain.Repo{Org: r.Org, Name: r.Repo})
	}
	return repos
}
