package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stepviz/internal/config"
	"github.com/roach88/stepviz/internal/engine"
	"github.com/roach88/stepviz/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Source SourceOptions
	Steps  int  // steps of the last animation to show; 0 shows all
	Color  bool // emit lipgloss styling
	Width  int
	Height int
}

// RenderResult is the JSON form of a rendered frame.
type RenderResult struct {
	Source  string   `json:"source"`
	Step    int      `json:"step"`
	Objects int      `json:"objects"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Lines   []string `json:"lines"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render [script.cue]",
		Short: "Print a frame of the scene as text",
		Long: `Play a script or a list of algorithm actions and print the resulting
scene as a text frame.

Every action but the last is played to its end. The last animation is
stepped --steps times, so the frame shows an intermediate step; without
--steps it is also played to its end.

Examples:
  stepviz render testdata/scripts/swap.cue
  stepviz render testdata/scripts/swap.cue --steps 2
  stepviz render --action push:X --action push:Y --color
  stepviz render --action push:X --width 80 --height 24`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, scriptArg(args), cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "steps of the last animation to show (0: all)")
	cmd.Flags().BoolVar(&opts.Color, "color", false, "emit terminal colors")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "canvas width in cells (default from config)")
	cmd.Flags().IntVar(&opts.Height, "height", 0, "canvas height in cells (default from config)")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	if opts.Steps < 0 {
		return NewExitError(ExitCommandError, "--steps must not be negative")
	}
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	src, err := openSource(path, opts.Source, cfg, []engine.Option{engine.WithLogger(logger)}, nil)
	if err != nil {
		return err
	}
	if err := src.playAll(instantDriver, stepDriver(opts.Steps)); err != nil {
		return err
	}

	painter := newPainter(cfg, opts.Width, opts.Height)
	canvas := painter.Paint(src.Player.GetObjects())

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: RenderResult{
			Source:  src.Name,
			Step:    src.Player.CurrentStep(),
			Objects: src.Player.Scene().Len(),
			Width:   painter.Width,
			Height:  painter.Height,
			Lines:   strings.Split(strings.TrimSuffix(canvas.String(), "\n"), "\n"),
		}})
	}

	frame := canvas.String()
	if opts.Color {
		frame = canvas.Styled()
	}
	fmt.Fprintln(cmd.OutOrStdout(), frame)
	return nil
}

// stepDriver pauses the animation and steps it n times. n == 0 plays it
// to the end.
func stepDriver(n int) Driver {
	if n == 0 {
		return instantDriver
	}
	return func(p *engine.Player) error {
		p.PauseAnimation()
		for i := 0; i < n; i++ {
			if !p.StepForward() {
				break
			}
		}
		return nil
	}
}

// newPainter sizes a painter from config, with non-zero overrides.
func newPainter(cfg *config.Config, width, height int) render.Painter {
	p := render.Painter{
		Width:  cfg.Canvas.Width,
		Height: cfg.Canvas.Height,
		ScaleX: cfg.Canvas.ScaleX,
		ScaleY: cfg.Canvas.ScaleY,
	}
	if width > 0 {
		p.Width = width
	}
	if height > 0 {
		p.Height = height
	}
	return p
}
