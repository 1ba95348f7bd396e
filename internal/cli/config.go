package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ogdraster/pkg/errors"
	"github.com/matzehuels/ogdraster/pkg/pipeline"
)

// configFile is the config file name inside configDir.
const configFile = "config.toml"

// Config is the optional TOML configuration file.
//
//	api_url   = "https://data.geo.admin.ch/api/stac/v1"
//	cache_ttl = "30m"
//	cache_url = "redis://localhost:6379/0"
//
//	[render]
//	mode        = "opaque"
//	all_missing = "blank"
//	format      = "png"
//	scale       = 2
//
// Command flags take precedence over the file.
type Config struct {
	APIURL   string       `toml:"api_url"`
	CacheTTL Duration     `toml:"cache_ttl"`
	CacheURL string       `toml:"cache_url"`
	Render   RenderConfig `toml:"render"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Mode       string `toml:"mode"`
	AllMissing string `toml:"all_missing"`
	Format     string `toml:"format"`
	Scale      int    `toml:"scale"`
}

// Duration is a time.Duration written as a Go duration string ("30m").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDuration, err, "invalid duration %q", text)
	}
	if v < 0 {
		return errors.New(errors.ErrCodeInvalidDuration, "duration %q is negative", text)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Or returns d, or def when d is zero.
func (d Duration) Or(def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return time.Duration(d)
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{}
}

// defaultConfigPath returns $XDG_CONFIG_HOME/ogdraster/config.toml.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// LoadConfig reads the config file at path, or at the default location when
// path is empty. A missing file yields DefaultConfig unless explicit is set,
// in which case the caller asked for that file and its absence is an error.
func LoadConfig(path string, explicit bool) (*Config, error) {
	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		if err := errors.ValidateURL(c.APIURL); err != nil {
			return err
		}
	}
	if c.CacheURL != "" && !strings.HasPrefix(c.CacheURL, "redis://") && !strings.HasPrefix(c.CacheURL, "rediss://") {
		return errors.New(errors.ErrCodeInvalidInput, "cache_url must use the redis:// or rediss:// scheme")
	}
	r := c.Render
	if r.Mode != "" {
		if err := pipeline.ValidateMode(r.Mode); err != nil {
			return err
		}
	}
	if r.Format != "" {
		if err := pipeline.ValidateFormat(r.Format); err != nil {
			return err
		}
	}
	if r.AllMissing != "" {
		if err := pipeline.ValidateAllMissing(r.AllMissing); err != nil {
			return err
		}
	}
	if r.Scale != 0 {
		if err := pipeline.ValidateScale(r.Scale); err != nil {
			return err
		}
	}
	return nil
}
