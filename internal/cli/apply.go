package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"snapfilter/internal/config"
	"snapfilter/internal/logger"
	"snapfilter/internal/pipeline"

	"github.com/spf13/cobra"
)

type filterOptions struct {
	filters []string
	chain   bool
	format  string
	dataURL bool
}

func (o *filterOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.filters, "filter", "f", nil, "filter to apply, repeat to run several in order")
	cmd.Flags().BoolVar(&o.chain, "chain", true, "feed each filter's output to the next")
	cmd.Flags().StringVar(&o.format, "format", "", "output format: png, jpeg, bmp or tiff (default from extension)")
	cmd.Flags().BoolVar(&o.dataURL, "data-url", false, "print the result as a PNG data URL instead of writing a file")
}

func newApplyCommand(global *globalOptions, deps Dependencies) *cobra.Command {
	opts := &filterOptions{}

	cmd := &cobra.Command{
		Use:   "apply INPUT [OUTPUT]",
		Short: "Load an image, run filters on it and save the result",
		Long: "INPUT is a file path, '-' for stdin or a data: URL. OUTPUT is a file path or '-' " +
			"for stdout; it may be omitted with --data-url.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 && !opts.dataURL {
				return errors.New("OUTPUT is required unless --data-url is set")
			}

			cfg, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("chain") {
				cfg.Session.ChainFilters = opts.chain
			}

			coord := newCoordinator(cfg, deps, nil, log)
			defer coord.Shutdown()

			if err := loadInput(cmd, coord, args[0]); err != nil {
				return err
			}

			output := ""
			if len(args) == 2 {
				output = args[1]
			}
			return runFilters(cmd.Context(), cmd, coord, opts, output)
		},
	}

	opts.bind(cmd)
	return cmd
}

func newCaptureCommand(global *globalOptions, deps Dependencies) *cobra.Command {
	opts := &filterOptions{}
	device := -1

	cmd := &cobra.Command{
		Use:   "capture [OUTPUT]",
		Short: "Grab one camera frame, run filters on it and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.dataURL {
				return errors.New("OUTPUT is required unless --data-url is set")
			}
			if deps.NewCamera == nil {
				return errors.New("this build has no camera support")
			}

			cfg, log, err := global.setup(cmd)
			if err != nil {
				return err
			}
			if device >= 0 {
				cfg.Camera.DeviceID = device
			}
			if cmd.Flags().Changed("chain") {
				cfg.Session.ChainFilters = opts.chain
			}

			coord := newCoordinator(cfg, deps, deps.NewCamera(cfg.Camera, log), log)
			defer coord.Shutdown()

			if _, err := coord.CaptureFromCamera(cmd.Context()); err != nil {
				return err
			}

			output := ""
			if len(args) == 1 {
				output = args[0]
			}
			return runFilters(cmd.Context(), cmd, coord, opts, output)
		},
	}

	opts.bind(cmd)
	cmd.Flags().IntVar(&device, "device", -1, "camera device id (default from config)")
	return cmd
}

func newCoordinator(cfg *config.Config, deps Dependencies, camera pipeline.FrameSource, log logger.Logger) *pipeline.Coordinator {
	opts := pipeline.OptionsFromConfig(cfg)
	opts.Fallback = deps.Fallback
	opts.Camera = camera
	return pipeline.NewCoordinator(opts, log)
}

func loadInput(cmd *cobra.Command, coord *pipeline.Coordinator, input string) error {
	switch {
	case strings.HasPrefix(input, "data:"):
		_, err := coord.LoadFromDataURL(input)
		return err

	case input == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		_, err = coord.LoadFromBytes(data, "")
		return err

	default:
		data, err := os.ReadFile(input)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		_, err = coord.LoadFromBytes(data, filepath.Ext(input))
		return err
	}
}

func runFilters(ctx context.Context, cmd *cobra.Command, coord *pipeline.Coordinator, opts *filterOptions, output string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for _, name := range opts.filters {
		if _, err := coord.ApplyFilter(ctx, strings.ToLower(strings.TrimSpace(name))); err != nil {
			return fmt.Errorf("filter %s: %w", name, err)
		}
	}

	result := coord.GetDisplayedImage()

	if opts.dataURL {
		dataURL, err := pipeline.EncodeDataURL(result.Buffer)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), dataURL); err != nil {
			return err
		}
		if output == "" {
			return nil
		}
	}

	if output == "-" {
		return coord.SaveImageToWriter(cmd.OutOrStdout(), result, opts.format)
	}

	format := opts.format
	if format == "" {
		format = filepath.Ext(output)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := coord.SaveImageToWriter(file, result, format); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}
