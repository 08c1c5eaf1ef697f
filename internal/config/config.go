package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".promptscore.yaml"

// Fail-on thresholds.
const (
	FailOnNone     = "none"
	FailOnCritical = "critical"
	FailOnReject   = "reject"
)

var validFormats = []string{"text", "json", "markdown", "md", "sarif"}

// Config represents the promptscore configuration.
type Config struct {
	APIURL             string        `yaml:"apiUrl" json:"apiUrl"`
	APIKey             string        `yaml:"apiKey,omitempty" json:"-"`
	TimeoutSeconds     int           `yaml:"timeoutSeconds" json:"timeoutSeconds"`
	PromptPaths        []string      `yaml:"promptPaths" json:"promptPaths"`
	Exclude            []string      `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	SystemOverview     string        `yaml:"systemOverview,omitempty" json:"systemOverview,omitempty"`
	SystemOverviewFile string        `yaml:"systemOverviewFile,omitempty" json:"systemOverviewFile,omitempty"`
	Format             string        `yaml:"format" json:"format"`
	FailOn             string        `yaml:"failOn" json:"failOn"`
	PostComment        bool          `yaml:"postComment" json:"postComment"`
	SubmitReview       bool          `yaml:"submitReview" json:"submitReview"`
	MaxReportLength    int           `yaml:"maxReportLength" json:"maxReportLength"`
	Cache              CacheConfig   `yaml:"cache" json:"cache"`
	Privacy            PrivacyConfig `yaml:"privacy" json:"privacy"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Dir        string `yaml:"dir,omitempty" json:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds" json:"ttlSeconds"`
}

// PrivacyConfig controls redaction of outgoing file contents.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets" json:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty" json:"redactPaths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		TimeoutSeconds:  180,
		PromptPaths:     []string{"prompts/"},
		Format:          "text",
		FailOn:          FailOnNone,
		PostComment:     true,
		MaxReportLength: 65000,
		Cache: CacheConfig{
			Enabled:    false,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// Timeout returns the per-attempt request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Overview returns the system overview text, reading SystemOverviewFile
// when it is set.
func (c Config) Overview() (string, error) {
	if c.SystemOverviewFile == "" {
		return c.SystemOverview, nil
	}
	data, err := os.ReadFile(c.SystemOverviewFile)
	if err != nil {
		return "", fmt.Errorf("reading system overview: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	var errs []error
	if c.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("timeoutSeconds must be positive, got %d", c.TimeoutSeconds))
	}
	if !slices.Contains(validFormats, c.Format) {
		errs = append(errs, fmt.Errorf("unsupported format %q", c.Format))
	}
	switch c.FailOn {
	case FailOnNone, FailOnCritical, FailOnReject:
	default:
		errs = append(errs, fmt.Errorf("failOn must be none, critical or reject, got %q", c.FailOn))
	}
	if c.MaxReportLength < 1000 {
		errs = append(errs, fmt.Errorf("maxReportLength must be at least 1000, got %d", c.MaxReportLength))
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("cache.ttlSeconds must not be negative"))
	}
	return errors.Join(errs...)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// path may be empty, in which case DefaultFile is used if present. The
// overrides map comes from CLI flags (only explicitly set flags).
func Load(ctx context.Context, path string, overrides map[string]string) (Config, error) {
	return load(ctx, path, envLookuper(envconfig.OsLookuper()), overrides)
}

func load(ctx context.Context, path string, lu envconfig.Lookuper, overrides map[string]string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := mergeFile(&cfg, path, explicit); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(ctx, &cfg, lu); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile returns the defaults merged with the file at path only, without
// the environment. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}
	if err := mergeFile(&cfg, path, false); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes the YAML file over cfg, so only keys present in the
// file replace defaults. A missing default file is not an error.
func mergeFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	cfg.APIKey = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := SetField(cfg, key, value); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "apiUrl":
		cfg.APIURL = value
	case "apiKey":
		cfg.APIKey = value
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "promptPaths":
		cfg.PromptPaths = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "systemOverview":
		cfg.SystemOverview = value
	case "systemOverviewFile":
		cfg.SystemOverviewFile = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "postComment", "submitReview", "cache.enabled", "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		switch key {
		case "postComment":
			cfg.PostComment = b
		case "submitReview":
			cfg.SubmitReview = b
		case "cache.enabled":
			cfg.Cache.Enabled = b
		case "privacy.redactSecrets":
			cfg.Privacy.RedactSecrets = b
		}
	case "maxReportLength":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxReportLength must be an integer: %w", err)
		}
		cfg.MaxReportLength = n
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.ttlSeconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '\n' }) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
