package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ogdraster/pkg/buildinfo"
	"github.com/matzehuels/ogdraster/pkg/cache"
	"github.com/matzehuels/ogdraster/pkg/errors"
	"github.com/matzehuels/ogdraster/pkg/httputil"
	"github.com/matzehuels/ogdraster/pkg/observability"
	"github.com/matzehuels/ogdraster/pkg/pipeline"
	"github.com/matzehuels/ogdraster/pkg/stac"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "ogdraster"

	// assetsDir and httpDir are the cache subdirectories for asset bytes
	// (and rendered images) and for STAC search responses.
	assetsDir = "assets"
	httpDir   = "http"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose    bool
	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ogdraster renders MeteoSwiss forecast fields as grayscale rasters",
		Long: `ogdraster fetches a forecast field from the MeteoSwiss open data STAC catalog
(or reads one from a local file) and renders it to an 8-bit grayscale image.
Missing cells become transparent pixels (--mode alpha) or are filled with the
field minimum (--mode opaque).`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				observability.NewLogHooks(c.Logger).Register()
			}
			cfg, err := LoadConfig(c.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/ogdraster/config.toml)")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts selects how the catalog client and caches are built.
type runnerOpts struct {
	noCache bool
	refresh bool
	apiURL  string
}

// newRunner creates a pipeline runner backed by the STAC client.
func (c *CLI) newRunner(ctx context.Context, ro runnerOpts) (*pipeline.Runner, error) {
	cfg := c.cfg()

	apiURL := ro.apiURL
	if apiURL == "" {
		apiURL = cfg.APIURL
	}
	if apiURL == "" {
		apiURL = stac.DefaultAPIURL
	}
	if err := errors.ValidateURL(apiURL); err != nil {
		return nil, err
	}

	assets, err := c.newCache(ctx, ro.noCache)
	if err != nil {
		return nil, err
	}

	var search *httputil.Cache
	if !ro.noCache {
		search, err = newSearchCache(cfg.CacheTTL.Or(cache.SearchTTL))
		if err != nil {
			c.Logger.Warn("search cache unavailable", "error", err)
		}
	}

	client := stac.NewClient(stac.ClientOptions{
		BaseURL:     apiURL,
		SearchCache: search,
		AssetCache:  assets,
		Refresh:     ro.refresh,
		Logger:      c.Logger,
	})
	return pipeline.NewRunner(client, assets, nil, c.Logger), nil
}

// newLocalRunner creates a runner for local input that needs no catalog.
func (c *CLI) newLocalRunner() *pipeline.Runner {
	return pipeline.NewRunner(nil, nil, nil, c.Logger)
}

// newCache picks the asset cache: none, Redis when cache_url is set, or the
// file cache under the XDG cache directory.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if url := c.cfg().CacheURL; url != "" {
		rc, err := cache.NewRedisCache(ctx, url)
		if err != nil {
			return nil, err
		}
		return cache.Observe(rc), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(filepath.Join(dir, assetsDir))
	if err != nil {
		c.Logger.Warn("asset cache unavailable", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.Observe(fc), nil
}

func newSearchCache(ttl time.Duration) (*httputil.Cache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return httputil.NewCache(filepath.Join(dir, httpDir), ttl)
}

func (c *CLI) cfg() *Config {
	if c.config == nil {
		c.config = DefaultConfig()
	}
	return c.config
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/ogdraster/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/ogdraster/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderFlags are the render settings shared by fetch, convert and serve.
type renderFlags struct {
	mode       string
	format     string
	allMissing string
	scale      int
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "output mode: alpha (default), opaque")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: png (default), tiff; inferred from the output extension")
	cmd.Flags().StringVar(&f.allMissing, "all-missing", "", "all-missing policy: error (default), blank")
	cmd.Flags().IntVar(&f.scale, "scale", 0, "integer upsampling factor (1-16)")
}

// apply fills the render options with flag > config file > default precedence.
func (f *renderFlags) apply(cmd *cobra.Command, cfg *Config, opts *pipeline.Options) {
	opts.Mode = pick(cmd, "mode", f.mode, cfg.Render.Mode)
	opts.Format = pick(cmd, "format", f.format, cfg.Render.Format)
	opts.AllMissing = pick(cmd, "all-missing", f.allMissing, cfg.Render.AllMissing)
	opts.Scale = f.scale
	if !cmd.Flags().Changed("scale") {
		opts.Scale = cfg.Render.Scale
	}
}

// pick returns the flag value when it was set explicitly, else the config value.
// An empty result lets the pipeline defaults apply.
func pick(cmd *cobra.Command, name, flagValue, configValue string) string {
	if cmd.Flags().Changed(name) {
		return strings.TrimSpace(flagValue)
	}
	return configValue
}
