// Package config loads logreader configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// LOGREADER_* environment variables. Command-line flags are applied on top
// by the cmd package.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "LOGREADER_"
	maxConfigFileSize = 1 << 20
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// DefaultRoots are the archive trees searched when no --path is given.
var DefaultRoots = []string{
	"/usr/flexfs/lion_cub/log/ft",
	"/usr/flexfs/lion_cub/log",
	"/usr/flexfs/lion_cub/log/customization",
	"/usr/flexfs/lion_cub/dbg/log/ft",
	"/usr/flexfs/lion_cub/dbg/log",
	"/usr/flexfs/lion_cub/dbg/log/customization",
}

// SearchConfig controls archive traversal and matching.
type SearchConfig struct {
	Roots          []string `koanf:"roots"`
	IndexExtension string   `koanf:"index_extension"`
	ExcludeMarkers []string `koanf:"exclude_markers"`
	DebugMarker    string   `koanf:"debug_marker"`
	DebugDir       string   `koanf:"debug_dir"`
}

// ResolverConfig controls SN -> PN lookups.
type ResolverConfig struct {
	// URL is the full endpoint. When empty it is derived from SiteFile.
	URL          string        `koanf:"url"`
	SiteFile     string        `koanf:"site_file"`
	EndpointPath string        `koanf:"endpoint_path"`
	Timeout      time.Duration `koanf:"timeout"`
}

// ViewerConfig is the external pager used to open a log.
type ViewerConfig struct {
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
}

// CacheConfig controls the SQLite resolution cache and search history.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Path    string        `koanf:"path"`
	TTL     time.Duration `koanf:"ttl"`
}

// ServerConfig is used by the serve command.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// Config is the full logreader configuration.
type Config struct {
	Search   SearchConfig   `koanf:"search"`
	Resolver ResolverConfig `koanf:"resolver"`
	Viewer   ViewerConfig   `koanf:"viewer"`
	Cache    CacheConfig    `koanf:"cache"`
	Server   ServerConfig   `koanf:"server"`
	Log      LogConfig      `koanf:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{Cache: CacheConfig{Enabled: true}}
	applyDefaults(cfg)
	return cfg
}

// DefaultPath returns ~/.config/logreader/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "logreader", "config.yaml"), nil
}

// Load reads configuration from path (or the default path when empty) and
// the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Seed booleans whose zero value differs from the default.
	if err := k.Load(rawbytes.Provider([]byte("cache:\n  enabled: true\n")), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	content, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps LOGREADER_SEARCH_INDEX_EXTENSION to search.index_extension.
// Only the first underscore after the prefix separates section from field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: config path %s is a directory", ErrInvalid, path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("%w: config file %s exceeds %d bytes", ErrInvalid, path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Search.Roots) == 0 {
		cfg.Search.Roots = append([]string(nil), DefaultRoots...)
	}
	if cfg.Search.IndexExtension == "" {
		cfg.Search.IndexExtension = "mlnx"
	}
	if cfg.Search.ExcludeMarkers == nil {
		cfg.Search.ExcludeMarkers = []string{"led", "SUMMARY"}
	}
	if cfg.Search.DebugMarker == "" {
		cfg.Search.DebugMarker = "/dbg/"
	}
	if cfg.Search.DebugDir == "" {
		cfg.Search.DebugDir = "DEBUG"
	}

	if cfg.Resolver.SiteFile == "" {
		cfg.Resolver.SiteFile = "/usr/flexfs/qms3/site.ws"
	}
	if cfg.Resolver.EndpointPath == "" {
		cfg.Resolver.EndpointPath = "/OperationServices/Product/Get_ProductPN"
	}
	if cfg.Resolver.Timeout == 0 {
		cfg.Resolver.Timeout = 10 * time.Second
	}

	if cfg.Viewer.Command == "" {
		cfg.Viewer.Command = "less"
		if cfg.Viewer.Args == nil {
			cfg.Viewer.Args = []string{"-r"}
		}
	}

	if cfg.Cache.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.Path = filepath.Join(home, ".cache", "logreader", "logreader.db")
		}
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 30 * 24 * time.Hour
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8095"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate checks the configuration for values the search cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Search.IndexExtension) == "" {
		return fmt.Errorf("%w: search.index_extension is empty", ErrInvalid)
	}
	if strings.ContainsAny(c.Search.IndexExtension, `/\*?[`) {
		return fmt.Errorf("%w: search.index_extension %q contains path or glob characters", ErrInvalid, c.Search.IndexExtension)
	}
	if strings.TrimSpace(c.Search.DebugDir) == "" {
		return fmt.Errorf("%w: search.debug_dir is empty", ErrInvalid)
	}
	for _, m := range c.Search.ExcludeMarkers {
		if m == "" {
			return fmt.Errorf("%w: search.exclude_markers contains an empty marker", ErrInvalid)
		}
	}
	if c.Resolver.Timeout < 0 {
		return fmt.Errorf("%w: resolver.timeout must be positive", ErrInvalid)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalid)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
