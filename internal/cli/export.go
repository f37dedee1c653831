package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/roach88/stepviz/internal/engine"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Source SourceOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export [script.cue]",
		Short: "Write the final scene objects as CSV",
		Long: `Play a script or a list of algorithm actions to the end and write the
scene objects, in layer order, as a CSV table.

With --format json the objects are written as JSON instead.

Examples:
  stepviz export testdata/scripts/swap.cue
  stepviz export --action push:X --action push:Y -o scene.csv`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, scriptArg(args), cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to this file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) (err error) {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	src, err := openSource(path, opts.Source, cfg, []engine.Option{engine.WithLogger(logger)}, nil)
	if err != nil {
		return err
	}
	if err := src.playAll(instantDriver, nil); err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		w = f
	}

	objects := src.Player.GetObjects()
	if opts.Format == "json" {
		return writeJSON(w, CLIResponse{Status: "ok", Data: objects})
	}
	if err := gocsv.Marshal(objects, w); err != nil {
		return WrapExitError(ExitFailure, "failed to write csv", err)
	}
	if opts.Output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ wrote %d objects to %s\n", len(objects), opts.Output)
	}
	return nil
}
