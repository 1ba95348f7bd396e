package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ogdraster/pkg/pipeline"
)

// convertCommand creates the convert command, which renders a local field file.
func (c *CLI) convertCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Render a local JSON or CSV field to an image",
		Long: `Render a field stored in a local file to an 8-bit grayscale image.

JSON input is a nested array of numbers; null and "NaN" mark missing cells and
singleton leading dimensions are dropped. CSV input has one row per line; empty
cells and NaN mark missing cells.`,
		Example: `  ogdraster convert t2m.json t2m.png
  ogdraster convert grid.csv grid.tiff --mode opaque --scale 4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			po := pipeline.Options{Input: args[0], Output: args[1]}
			flags.apply(cmd, c.cfg(), &po)
			return c.runConvert(cmd, po)
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, po pipeline.Options) error {
	logger := loggerFromContext(cmd.Context())

	runner := c.newLocalRunner()
	defer runner.Close()

	prog := newProgress(logger)
	result, err := runner.Execute(cmd.Context(), po)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %s", StyleHighlight.Render(po.Describe())))

	printSuccess("Wrote %s image", result.Format)
	printFile(result.Path)
	printFieldStats(result.Stats.Rows, result.Stats.Cols, result.Stats.Missing, false)
	return nil
}
