package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// State backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Spawner holds all configuration of the item spawner.
type Spawner struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	Rules RulesConfig `yaml:"rules"`
	Scan  ScanConfig  `yaml:"scan"`
	State StateConfig `yaml:"state"`

	// Seed of the random source; 0 picks a random seed.
	Seed uint64 `yaml:"seed"`
}

// RulesConfig says where rule files live.
type RulesConfig struct {
	Directories []string `yaml:"directories"`
	// DefaultFile is written when no rule file exists.
	DefaultFile   string        `yaml:"default_file"`
	WatchInterval time.Duration `yaml:"watch_interval"` // 0 disables reloading
}

// ScanConfig tunes the cooperative city scan.
type ScanConfig struct {
	BatchSize    int           `yaml:"batch_size"`    // locations per tick
	TickInterval time.Duration `yaml:"tick_interval"`
}

// StateConfig selects where trigger state is persisted.
type StateConfig struct {
	Backend    string         `yaml:"backend"`
	Dir        string         `yaml:"dir"`         // file backend
	SQLitePath string         `yaml:"sqlite_path"` // sqlite backend
	Slot       string         `yaml:"slot"`
	Database   DatabaseConfig `yaml:"database"` // postgres backend
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultSpawner returns Spawner config with sensible defaults.
func DefaultSpawner() Spawner {
	return Spawner{
		LogLevel: "info",
		Rules: RulesConfig{
			Directories:   []string{"rules"},
			DefaultFile:   "rules/default.json",
			WatchInterval: 5 * time.Second,
		},
		Scan: ScanConfig{
			BatchSize:    8,
			TickInterval: 50 * time.Millisecond,
		},
		State: StateConfig{
			Backend:    BackendFile,
			Dir:        "state",
			SQLitePath: "state/triggers.db",
			Slot:       "default",
			Database: DatabaseConfig{
				Host:     "127.0.0.1",
				Port:     5432,
				User:     "spawner",
				Password: "spawner",
				DBName:   "spawner",
				SSLMode:  "disable",
			},
		},
	}
}

// LoadSpawner loads spawner config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSpawner(path string) (Spawner, error) {
	cfg := DefaultSpawner()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Spawner) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if len(c.Rules.Directories) == 0 {
		errs = append(errs, errors.New("rules.directories must not be empty"))
	}
	if c.Rules.WatchInterval < 0 {
		errs = append(errs, fmt.Errorf("rules.watch_interval must not be negative, got %s", c.Rules.WatchInterval))
	}
	if c.Scan.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("scan.batch_size must be positive, got %d", c.Scan.BatchSize))
	}
	if c.Scan.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("scan.tick_interval must be positive, got %s", c.Scan.TickInterval))
	}
	if !slices.Contains([]string{BackendFile, BackendSQLite, BackendPostgres, BackendMemory}, c.State.Backend) {
		errs = append(errs, fmt.Errorf("state.backend %q is not one of file, sqlite, postgres, memory", c.State.Backend))
	}
	if c.State.Slot == "" {
		errs = append(errs, errors.New("state.slot must not be empty"))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Spawner) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
