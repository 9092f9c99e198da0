// Package cli is the headless front end: it drives the same session and
// filter catalog as the desktop window from cobra commands.
package cli

import (
	"fmt"

	"snapfilter/internal/config"
	"snapfilter/internal/logger"
	"snapfilter/internal/pipeline"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Dependencies are the OpenCV-backed pieces main wires in. Both may be nil.
type Dependencies struct {
	Fallback  pipeline.FallbackDecoder
	NewCamera func(cfg config.CameraConfig, log logger.Logger) pipeline.FrameSource
}

type globalOptions struct {
	configPath string
	logLevel   string
}

func NewRootCommand(deps Dependencies) *cobra.Command {
	global := &globalOptions{}

	root := &cobra.Command{
		Use:           "snapfilter-cli",
		Short:         "Apply snapfilter image filters without a window",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&global.configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&global.logLevel, "log-level", "", "debug, info, warn, error or off (overrides config)")

	root.AddCommand(
		newFiltersCommand(),
		newApplyCommand(global, deps),
		newCaptureCommand(global, deps),
	)

	return root
}

// setup loads configuration and builds a console logger on the command's
// stderr.
func (g *globalOptions) setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	level := cfg.LogLevel
	if g.logLevel != "" {
		level = g.logLevel
	}

	log := logger.NewZerolog(zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		TimeFormat: "15:04:05",
		NoColor:    true,
	}, logger.ParseLevel(level))

	return cfg, log, nil
}
