// Package config loads nodehealth settings.
//
// Settings come from three layers, later layers winning:
//
//  1. a .nodehealth.toml file, found by walking up from the project root
//  2. NODEHEALTH_* environment variables (after loading a .env file)
//  3. command-line flags, applied by the CLI
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

// FileName is the configuration file looked up from the project root.
const FileName = ".nodehealth.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NODEHEALTH_"

// Config is the merged configuration.
type Config struct {
	Analyze Analyze `toml:"analyze"`
	Cache   Cache   `toml:"cache"`
	Serve   Serve   `toml:"serve"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
	// Unknown lists keys in the file that no setting consumed.
	Unknown []string `toml:"-"`
}

// Analyze holds defaults for the analyze command.
type Analyze struct {
	Pack      string   `toml:"pack"`
	DevDeps   string   `toml:"dev_deps"`
	MaxDepth  int      `toml:"max_depth"`
	Format    string   `toml:"format"`
	Manifests []string `toml:"manifests"` // custom replacement manifests
	LogLevel  string   `toml:"log_level"`
}

// Cache holds report cache settings.
type Cache struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// Serve holds HTTP service settings.
type Serve struct {
	Addr          string `toml:"addr"`
	RedisURL      string `toml:"redis_url"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	MaxUploadMB   int64  `toml:"max_upload_mb"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Analyze: Analyze{Pack: "auto", DevDeps: "root", Format: "text", LogLevel: "info"},
		Serve:   Serve{Addr: ":8080", MaxUploadMB: 64},
	}
}

// Find walks up from dir looking for FileName. It returns "" when there is
// none.
func Find(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, FileName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load builds the configuration for a project rooted at dir: defaults, then
// the nearest config file, then the environment. Relative manifest paths in
// the file are resolved against the file's directory.
func Load(dir string) (*Config, error) {
	cfg := Default()
	if p := Find(dir); p != "" {
		if err := cfg.decodeFile(p); err != nil {
			return nil, err
		}
	}
	loadDotEnv(dir)
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(p string) error {
	md, err := toml.DecodeFile(p, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", p)
	}
	c.Path = p
	for _, k := range md.Undecoded() {
		c.Unknown = append(c.Unknown, k.String())
	}
	base := filepath.Dir(p)
	for i, m := range c.Analyze.Manifests {
		if !filepath.IsAbs(m) {
			c.Analyze.Manifests[i] = filepath.Join(base, m)
		}
	}
	return nil
}

// loadDotEnv loads .env from dir and the working directory. Variables that
// are already set are kept.
func loadDotEnv(dir string) {
	for _, p := range []string{filepath.Join(dir, ".env"), ".env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// ApplyEnv overrides settings from NODEHEALTH_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("PACK", &c.Analyze.Pack)
	str("DEV_DEPS", &c.Analyze.DevDeps)
	str("FORMAT", &c.Analyze.Format)
	str("LOG_LEVEL", &c.Analyze.LogLevel)
	str("CACHE_DIR", &c.Cache.Dir)
	str("ADDR", &c.Serve.Addr)
	str("REDIS_URL", &c.Serve.RedisURL)
	str("MONGO_URI", &c.Serve.MongoURI)
	str("MONGO_DATABASE", &c.Serve.MongoDatabase)

	if v, ok := lookup(EnvPrefix + "MANIFESTS"); ok && v != "" {
		c.Analyze.Manifests = filepath.SplitList(v)
	}
	if v, ok := lookup(EnvPrefix + "MAX_DEPTH"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%sMAX_DEPTH must be a non-negative integer, got %q", EnvPrefix, v)
		}
		c.Analyze.MaxDepth = n
	}
	if v, ok := lookup(EnvPrefix + "NO_CACHE"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "%sNO_CACHE must be a boolean, got %q", EnvPrefix, v)
		}
		c.Cache.Disabled = b
	}
	return nil
}
