package main

import (
	"fmt"
	"os"

	"snapfilter/internal/cli"
	"snapfilter/internal/config"
	"snapfilter/internal/logger"
	"snapfilter/internal/opencv/bridge"
	"snapfilter/internal/opencv/camera"
	"snapfilter/internal/pipeline"
)

func main() {
	root := cli.NewRootCommand(cli.Dependencies{
		Fallback: bridge.NewDecoder(),
		NewCamera: func(cfg config.CameraConfig, log logger.Logger) pipeline.FrameSource {
			return camera.New(cfg, log)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "snapfilter-cli:", err)
		os.Exit(1)
	}
}
