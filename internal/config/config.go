// Package config loads civica settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/civica/internal/engine"
	"github.com/talgya/civica/internal/nation"
)

// DefaultPath is read when no -config flag is given. It may be absent.
const DefaultPath = "civica.yaml"

type Config struct {
	Seed    int64 `yaml:"seed"`
	Workers int   `yaml:"workers"`

	Log LogConfig `yaml:"log"`

	SavePath string `yaml:"save_path"`
	DBPath   string `yaml:"db_path"`

	API API `yaml:"api"`

	TickInterval time.Duration `yaml:"tick_interval"`
	RandomOrgKey string        `yaml:"random_org_key"`
	Telemetry    bool          `yaml:"telemetry"`

	Founding FoundingConfig `yaml:"founding"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type API struct {
	Port     int      `yaml:"port"`
	AdminKey string   `yaml:"admin_key"`
	Origins  []string `yaml:"cors_origins"`
}

type FoundingConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Population  int    `yaml:"population"`
	Food        int    `yaml:"food"`
	Money       int    `yaml:"money"`
	Tech        int    `yaml:"tech"`
	Reputation  int    `yaml:"reputation"`
}

// Defaults returns the settings used when neither file nor environment says
// otherwise.
func Defaults() Config {
	res := nation.DefaultResources()
	return Config{
		Workers: 1,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		SavePath:     "nation_save.json",
		DBPath:       "data/civica.db",
		API:          API{Port: 8080},
		TickInterval: time.Minute,
		Founding: FoundingConfig{
			Name:        nation.DefaultCountryName,
			Description: nation.DefaultCountryDescription,
			Population:  nation.DefaultCountryPopulation,
			Food:        res.Food,
			Money:       res.Money,
			Tech:        res.Tech,
			Reputation:  res.Reputation,
		},
	}
}

// Load reads path over the defaults and then applies CIVICA_* environment
// overrides. A missing file is only an error when it is not DefaultPath.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv exports variables from the given .env files (".env" when none
// are named). Missing files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	if v, ok := lookup("CIVICA_SEED"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("CIVICA_SEED: %w", err))
		} else {
			c.Seed = n
		}
	}
	num("CIVICA_WORKERS", &c.Workers)
	str("CIVICA_LOG_LEVEL", &c.Log.Level)
	str("CIVICA_LOG_FILE", &c.Log.File)
	str("CIVICA_SAVE_PATH", &c.SavePath)
	str("CIVICA_DB_PATH", &c.DBPath)
	num("CIVICA_API_PORT", &c.API.Port)
	str("CIVICA_ADMIN_KEY", &c.API.AdminKey)
	str("RANDOM_ORG_API_KEY", &c.RandomOrgKey)
	if v, ok := lookup("CIVICA_CORS_ORIGINS"); ok && v != "" {
		c.API.Origins = strings.Split(v, ",")
	}
	if v, ok := lookup("CIVICA_TICK_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CIVICA_TICK_INTERVAL: %w", err))
		} else {
			c.TickInterval = d
		}
	}
	if v, ok := lookup("CIVICA_TELEMETRY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CIVICA_TELEMETRY: %w", err))
		} else {
			c.Telemetry = b
		}
	}
	return errors.Join(errs...)
}

// Validate rejects settings the simulator cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.API.Port < 1 || c.API.Port > 65535:
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	case c.TickInterval <= 0:
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	case c.Founding.Population < 0:
		return fmt.Errorf("founding.population must not be negative")
	case c.Founding.Reputation < nation.MinReputation || c.Founding.Reputation > nation.MaxReputation:
		return fmt.Errorf("founding.reputation must be within [%d, %d]", nation.MinReputation, nation.MaxReputation)
	}
	return nil
}

// Country converts the founding block into engine terms.
func (c Config) Country() engine.Founding {
	f := c.Founding
	return engine.Founding{
		Name:        f.Name,
		Description: f.Description,
		Population:  f.Population,
		Resources: nation.Resources{
			Food:       f.Food,
			Money:      f.Money,
			Tech:       f.Tech,
			Reputation: f.Reputation,
		},
	}
}
