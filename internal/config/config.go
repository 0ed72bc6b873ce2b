package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"chorecal/internal/model"
)

const (
	defaultBaseURL     = "http://127.0.0.1:3000/api"
	defaultTimezone    = "Local"
	defaultRefreshCron = "*/15 * * * *"
	defaultICSPath     = "./chores.ics"
	defaultLogLevel    = "info"
)

// APIConfig describes the chores REST backend.
type APIConfig struct {
	// BaseURL is the API root; collections live under {BaseURL}/chores.
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Token is sent as a bearer token when non-empty.
	Token string `yaml:"token,omitempty" json:"token,omitempty"`
	// TimeoutSeconds bounds a single HTTP exchange.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	// Retries is how many extra attempts a fetch gets on transient failure.
	Retries int `yaml:"retries" json:"retries"`
}

// ExportConfig controls the ICS feed written after each refresh.
type ExportConfig struct {
	// ICSPath is where the feed is written. Empty disables the export.
	ICSPath string `yaml:"ics_path" json:"ics_path"`
}

// FilterConfig narrows which chores are fetched. Empty fields do not filter.
type FilterConfig struct {
	AssigneeID  string `yaml:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	LocationID  string `yaml:"location_id,omitempty" json:"location_id,omitempty"`
	FrequencyID string `yaml:"frequency_id,omitempty" json:"frequency_id,omitempty"`
	Status      string `yaml:"status,omitempty" json:"status,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	API APIConfig `yaml:"api" json:"api"`

	// Timezone is the IANA zone calendar days are computed in (e.g.
	// "Europe/Berlin"). "Local" uses the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a standard 5-field cron schedule for periodic refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how many days ahead to fetch.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// BackfillDays is how many past days to fetch, so overdue chores show.
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// CacheTTLMinutes is the lifetime of memoized projections.
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	Export ExportConfig `yaml:"export" json:"export"`
	Filter FilterConfig `yaml:"filter" json:"filter"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: 15,
			Retries:        2,
		},
		Timezone:        defaultTimezone,
		RefreshCron:     defaultRefreshCron,
		HorizonDays:     30,
		BackfillDays:    7,
		CacheTTLMinutes: 5,
		LogLevel:        defaultLogLevel,
		Export:          ExportConfig{ICSPath: defaultICSPath},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	c.API.BaseURL = strings.TrimSpace(c.API.BaseURL)
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 15
	}
	if c.API.Retries < 0 {
		c.API.Retries = 0
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 30
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.CacheTTLMinutes <= 0 {
		c.CacheTTLMinutes = 5
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = defaultLogLevel
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.RefreshCron, err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Timeout is the per-request API timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CacheTTL is the projection cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// Window builds the fetch filter around now: BackfillDays back through
// HorizonDays ahead, plus the configured narrowing fields.
func (c *Config) Window(now time.Time) model.Filter {
	return model.Filter{
		Start:       now.AddDate(0, 0, -c.BackfillDays),
		End:         now.AddDate(0, 0, c.HorizonDays),
		AssigneeID:  model.ID(c.Filter.AssigneeID),
		LocationID:  model.ID(c.Filter.LocationID),
		FrequencyID: model.ID(c.Filter.FrequencyID),
		Status:      c.Filter.Status,
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and returned.
//   - Otherwise the YAML is read, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".chorecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
