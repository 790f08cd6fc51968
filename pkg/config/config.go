package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "MANGASHELF"
	appName   = "mangashelf"
)

// Config is the full set of settings a command can read.
type Config struct {
	SourceDir     string         `mapstructure:"source_dir"`
	ArchiveDir    string         `mapstructure:"archive_dir"`
	QuarantineDir string         `mapstructure:"quarantine_dir"`
	Database      DatabaseConfig `mapstructure:"database"`
	AniList       AniListConfig  `mapstructure:"anilist"`
	Ingest        IngestConfig   `mapstructure:"ingest"`
	Archive       ArchiveConfig  `mapstructure:"archive"`
	Notify        NotifyConfig   `mapstructure:"notify"`
	Log           LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // duckdb or sqlite
	Path   string `mapstructure:"path"`
}

type AniListConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
	UserID   int    `mapstructure:"user_id"`
}

type IngestConfig struct {
	Interactive      bool   `mapstructure:"interactive"`
	UnresolvedPolicy string `mapstructure:"unresolved_policy"` // halt or skip
	Numbering        string `mapstructure:"numbering"`         // volume or chapter
	RemoveSource     bool   `mapstructure:"remove_source"`
}

type ArchiveConfig struct {
	Format string `mapstructure:"format"` // cbz or epub
	Layout string `mapstructure:"layout"` // mirror or tracker
}

type NotifyConfig struct {
	URLs    []string      `mapstructure:"urls"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults, search paths and environment
// binding in place. Nested keys map to MANGASHELF_SECTION_KEY.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", appName))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	dataDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", appName)
	}

	v.SetDefault("source_dir", "")
	v.SetDefault("archive_dir", "")
	v.SetDefault("quarantine_dir", "")

	v.SetDefault("database.driver", "duckdb")
	v.SetDefault("database.path", filepath.Join(dataDir, "ledger.db"))

	v.SetDefault("anilist.endpoint", "https://graphql.anilist.co")
	v.SetDefault("anilist.token", "")
	v.SetDefault("anilist.user_id", 0)

	v.SetDefault("ingest.interactive", false)
	v.SetDefault("ingest.unresolved_policy", "halt")
	v.SetDefault("ingest.numbering", "volume")
	v.SetDefault("ingest.remove_source", true)

	v.SetDefault("archive.format", "cbz")
	v.SetDefault("archive.layout", "mirror")

	v.SetDefault("notify.urls", []string{})
	v.SetDefault("notify.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads file, or the first config.yaml on the search path when file is
// empty, and decodes the result. A missing config file is not an error when
// no explicit file was asked for.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values outside the known enums.
func (c *Config) Validate() error {
	checks := []struct {
		key     string
		value   string
		allowed []string
	}{
		{"database.driver", c.Database.Driver, []string{"duckdb", "sqlite"}},
		{"ingest.unresolved_policy", c.Ingest.UnresolvedPolicy, []string{"halt", "skip"}},
		{"ingest.numbering", c.Ingest.Numbering, []string{"volume", "chapter"}},
		{"archive.format", c.Archive.Format, []string{"cbz", "epub"}},
		{"archive.layout", c.Archive.Layout, []string{"mirror", "tracker"}},
		{"log.format", c.Log.Format, []string{"console", "json"}},
	}
	for _, check := range checks {
		if !contains(check.allowed, check.value) {
			return fmt.Errorf("invalid %s %q: want one of %s", check.key, check.value, strings.Join(check.allowed, ", "))
		}
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// ValidateIngest checks what an ingest pass needs on top of Validate: an
// existing source directory plus archive and quarantine targets.
func (c *Config) ValidateIngest() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	st, err := os.Stat(c.SourceDir)
	if err != nil {
		return fmt.Errorf("source_dir: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("source_dir %s is not a directory", c.SourceDir)
	}
	if c.ArchiveDir == "" {
		return fmt.Errorf("archive_dir is required")
	}
	if c.QuarantineDir == "" {
		return fmt.Errorf("quarantine_dir is required")
	}
	if c.AniList.UserID <= 0 {
		return fmt.Errorf("anilist.user_id is required")
	}
	return nil
}

// LockPath is the run lock that sits next to the ledger database.
func (c *Config) LockPath() string {
	return c.Database.Path + ".lock"
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
