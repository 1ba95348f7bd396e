package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ogdraster/pkg/pipeline"
	"github.com/matzehuels/ogdraster/pkg/stac"
)

// fetchOpts holds the command-line flags for the fetch command.
type fetchOpts struct {
	render    renderFlags
	refTime   string
	horizon   string
	perturbed bool
	noCache   bool
	refresh   bool
	apiURL    string
}

// fetchCommand creates the fetch command, which downloads a forecast field
// from the catalog and writes it as an image.
func (c *CLI) fetchCommand() *cobra.Command {
	opts := fetchOpts{
		refTime: stac.Latest,
		horizon: stac.DefaultHorizon,
	}

	cmd := &cobra.Command{
		Use:   "fetch <collection> <variable> <output>",
		Short: "Fetch a forecast field and render it to an image",
		Long: `Fetch a forecast field from the MeteoSwiss open data STAC catalog and render it
to an 8-bit grayscale image.

The collection may be given with or without the "ch.meteoschweiz." prefix.
Without --ref-time the most recent forecast run is used.

Only JSON and CSV grid assets can be decoded. The MeteoSwiss catalog publishes
its forecast fields as GRIB2, so against the default API the command finds the
item and then fails with UNSUPPORTED. Use --api-url to point at a catalog that
serves JSON or CSV assets, or convert the GRIB2 file yourself and render it
with "ogdraster convert".`,
		Example: `  ogdraster fetch ogd-forecasting-icon-ch2 T_2M t2m.png
  ogdraster fetch ogd-forecasting-icon-ch1 TOT_PREC prec.png --horizon P0DT6H --mode opaque
  ogdraster fetch ogd-forecasting-icon-ch2 T_2M t2m.tiff --ref-time 2025-03-01T00:00:00Z --perturbed`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			po := pipeline.Options{
				Collection: args[0],
				Variable:   args[1],
				Output:     args[2],
				RefTime:    opts.refTime,
				Horizon:    opts.horizon,
				Perturbed:  opts.perturbed,
				Refresh:    opts.refresh,
			}
			opts.render.apply(cmd, c.cfg(), &po)
			return c.runFetch(cmd, po, opts)
		},
	}

	opts.render.register(cmd)
	cmd.Flags().StringVar(&opts.refTime, "ref-time", opts.refTime, "forecast reference time (RFC 3339) or 'latest'")
	cmd.Flags().StringVar(&opts.horizon, "horizon", opts.horizon, "lead time as ISO-8601 duration (e.g. P0DT6H)")
	cmd.Flags().BoolVar(&opts.perturbed, "perturbed", false, "select an ensemble member instead of the control run")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached data (results are still cached)")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "", "STAC API root (default "+stac.DefaultAPIURL+")")

	return cmd
}

func (c *CLI) runFetch(cmd *cobra.Command, po pipeline.Options, opts fetchOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if err := po.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, runnerOpts{noCache: opts.noCache, refresh: opts.refresh, apiURL: opts.apiURL})
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %s from %s...", po.Variable, po.Collection))
	if !c.verbose {
		spinner.Start()
	}
	result, err := runner.Execute(ctx, po)
	if !c.verbose {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s", StyleHighlight.Render(po.Describe())))

	if result.Item != nil {
		printDetail("item %s (reference %s)", result.Item.ID, result.Item.Properties.ReferenceDatetime)
	}
	printSuccess("Wrote %s image", result.Format)
	printFile(result.Path)
	printFieldStats(result.Stats.Rows, result.Stats.Cols, result.Stats.Missing, result.CacheInfo.RenderHit)
	return nil
}
