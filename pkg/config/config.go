// Package config provides configuration management for playsync.
// It loads the YAML settings file, fills in defaults for everything left out
// and validates the result before any network or filesystem work starts.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/playsync/pkg/errors"
	"github.com/glorpus-work/playsync/pkg/filter"
	"github.com/glorpus-work/playsync/pkg/integrity"
	"github.com/glorpus-work/playsync/pkg/listing"
	"github.com/glorpus-work/playsync/pkg/lockfile"
)

// Config represents the application configuration.
type Config struct {
	Repository RepositoryConfig `yaml:"repository"`
	Paths      PathsConfig      `yaml:"paths"`
	Filter     FilterConfig     `yaml:"filter"`
	Libraries  LibrariesConfig  `yaml:"libraries"`
	Settings   Settings         `yaml:"settings"`
}

// RepositoryConfig points at the listing site.
type RepositoryConfig struct {
	URL       string `yaml:"url"`
	RepoQuery string `yaml:"repo_query"`
}

// PathsConfig holds the output locations. Relative paths are resolved
// against the directory of the config file.
type PathsConfig struct {
	DestDir  string `yaml:"dest_dir"`
	Lockfile string `yaml:"lockfile"`
}

// FilterConfig mirrors filter.Policy.
type FilterConfig struct {
	Prefix        string   `yaml:"prefix"`
	ExcludeSuffix string   `yaml:"exclude_suffix"`
	Denylist      []string `yaml:"denylist"`
	Script        string   `yaml:"script,omitempty"`
}

// LibrariesConfig describes what is vendored for each library.
type LibrariesConfig struct {
	Extension string `yaml:"extension"`
	// Pins maps a library identifier to a fixed version. "latest" or a
	// missing entry resolves the newest release.
	Pins map[string]string `yaml:"pins,omitempty"`
	// RequiredEntries must exist inside every archive when VerifyArchives is on.
	RequiredEntries []string `yaml:"required_entries,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Concurrency int           `yaml:"concurrency"`
	MaxPages    int           `yaml:"max_pages"`
	UserAgent   string        `yaml:"user_agent"`

	// Verification settings
	IntegrityAlgorithm string `yaml:"integrity_algorithm"`
	VerifyArchives     bool   `yaml:"verify_archives"`

	// Output settings
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Default configuration values.
const (
	// DefaultPath is the config file looked up in the working directory.
	DefaultPath = "playsync.yaml"

	// DefaultRepositoryURL is the group page of Google Play Services.
	DefaultRepositoryURL = "https://mvnrepository.com/artifact/com.google.android.gms"

	// DefaultRepoQuery selects the Google Maven mirror on version listings.
	DefaultRepoQuery = "google"

	// DefaultDestDir is where archives are written.
	DefaultDestDir = "../android/lib"

	// DefaultExtension is the archive type vendored for every library.
	DefaultExtension = "aar"

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "playsync/1.0"

	// DefaultLogLevel is used when nothing else is configured.
	DefaultLogLevel = "info"

	// DefaultLogFormat renders logs as logfmt-style text.
	DefaultLogFormat = "text"

	// PinLatest resolves the newest release.
	PinLatest = "latest"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	policy := filter.DefaultPolicy()
	return &Config{
		Repository: RepositoryConfig{
			URL:       DefaultRepositoryURL,
			RepoQuery: DefaultRepoQuery,
		},
		Paths: PathsConfig{
			DestDir:  DefaultDestDir,
			Lockfile: lockfile.DefaultPath,
		},
		Filter: FilterConfig{
			Prefix:        policy.Prefix,
			ExcludeSuffix: policy.ExcludeSuffix,
			Denylist:      policy.Denylist,
		},
		Libraries: LibrariesConfig{
			Extension: DefaultExtension,
		},
		Settings: Settings{
			MaxPages:           listing.DefaultMaxPages,
			UserAgent:          DefaultUserAgent,
			IntegrityAlgorithm: integrity.DefaultAlgorithm,
			VerifyArchives:     true,
			LogLevel:           DefaultLogLevel,
			LogFormat:          DefaultLogFormat,
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults. Relative paths inside the file are resolved against its directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	cfg, err := LoadConfigFromReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", path)
	}
	cfg.ResolvePaths(filepath.Dir(absPath))
	return cfg, nil
}

// LoadConfigFromReader loads configuration from an io.Reader. Keys that are
// not present keep their default value.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrConfigValidation, err)
	}

	return config, nil
}

// ResolvePaths makes relative output paths absolute against baseDir.
func (c *Config) ResolvePaths(baseDir string) {
	if c.Paths.DestDir != "" && !filepath.IsAbs(c.Paths.DestDir) {
		c.Paths.DestDir = filepath.Join(baseDir, c.Paths.DestDir)
	}
	if c.Paths.Lockfile != "" && !filepath.IsAbs(c.Paths.Lockfile) {
		c.Paths.Lockfile = filepath.Join(baseDir, c.Paths.Lockfile)
	}
}

// Policy builds the library filter described by the config.
func (c *Config) Policy() filter.Policy {
	return filter.Policy{
		Prefix:        c.Filter.Prefix,
		ExcludeSuffix: c.Filter.ExcludeSuffix,
		Denylist:      slices.Clone(c.Filter.Denylist),
		Script:        c.Filter.Script,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateRepository(c.Repository); err != nil {
		return err
	}
	if err := validateLibraries(c.Libraries); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateRepository(r RepositoryConfig) error {
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("repository url %q: %w", r.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("repository url %q must be an absolute http(s) URL", r.URL)
	}
	return nil
}

func validateLibraries(l LibrariesConfig) error {
	if l.Extension == "" || strings.ContainsAny(l.Extension, "./\\") {
		return fmt.Errorf("invalid archive extension %q", l.Extension)
	}
	for lib, pin := range l.Pins {
		pin = strings.TrimSpace(pin)
		if pin == "" || pin == PinLatest {
			continue
		}
		if _, err := version.NewVersion(pin); err != nil {
			return fmt.Errorf("pin %s=%q is not a version: %w", lib, pin, err)
		}
		if strings.ContainsAny(pin, "/\\") {
			return fmt.Errorf("pin %s=%q must not contain path separators", lib, pin)
		}
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative, got %s", s.HTTPTimeout)
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", s.Concurrency)
	}
	if s.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative, got %d", s.MaxPages)
	}
	if !integrity.Supported(s.IntegrityAlgorithm) {
		return fmt.Errorf("unsupported integrity algorithm %q", s.IntegrityAlgorithm)
	}
	if !slices.Contains(validLogLevels, strings.ToLower(s.LogLevel)) {
		return fmt.Errorf("invalid log level %q, must be one of %s", s.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, s.LogFormat) {
		return fmt.Errorf("invalid log format %q, must be one of %s", s.LogFormat, strings.Join(validLogFormats, ", "))
	}
	return nil
}

// applyDefaults sets values that were explicitly emptied in the file.
func (c *Config) applyDefaults() {
	if c.Repository.URL == "" {
		c.Repository.URL = DefaultRepositoryURL
	}
	if c.Paths.DestDir == "" {
		c.Paths.DestDir = DefaultDestDir
	}
	if c.Paths.Lockfile == "" {
		c.Paths.Lockfile = lockfile.DefaultPath
	}
	if c.Filter.Denylist == nil {
		c.Filter.Denylist = slices.Clone(filter.DefaultDenylist)
	}
	if c.Libraries.Extension == "" {
		c.Libraries.Extension = DefaultExtension
	}
	c.Libraries.Extension = strings.TrimPrefix(c.Libraries.Extension, ".")
	if c.Settings.MaxPages == 0 {
		c.Settings.MaxPages = listing.DefaultMaxPages
	}
	if c.Settings.UserAgent == "" {
		c.Settings.UserAgent = DefaultUserAgent
	}
	if c.Settings.IntegrityAlgorithm == "" {
		c.Settings.IntegrityAlgorithm = integrity.DefaultAlgorithm
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = DefaultLogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = DefaultLogFormat
	}
}
