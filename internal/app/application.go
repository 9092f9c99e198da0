// Package app assembles configuration, logging, the capture pipeline and the
// fyne window.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"snapfilter/internal/config"
	"snapfilter/internal/gui"
	"snapfilter/internal/gui/widgets"
	"snapfilter/internal/logger"
	"snapfilter/internal/opencv/bridge"
	"snapfilter/internal/opencv/camera"
	"snapfilter/internal/pipeline"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	AppName    = "SnapFilter"
	AppID      = "io.snapfilter.desktop"
	AppVersion = "1.0.0"
)

type Application struct {
	fyneApp     fyne.App
	window      fyne.Window
	guiManager  *gui.Manager
	coordinator *pipeline.Coordinator
	config      *config.Config
	logger      logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	shutdown    *shutdownSequence
}

func NewApplication() (*Application, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	app.SetMetadata(fyne.AppMetadata{
		ID:      AppID,
		Name:    AppName,
		Version: AppVersion,
		Build:   1,
	})

	fyneApp := app.NewWithID(AppID)
	fyneApp.Settings().SetTheme(gui.NewTheme())
	window := fyneApp.NewWindow(AppName)

	windowSize := calculateMinimumWindowSize()
	window.Resize(windowSize)
	window.SetPadded(false)
	window.CenterOnScreen()
	window.SetMaster()

	ctx, cancel := context.WithCancel(context.Background())
	logLevel := logger.ParseLevel(cfg.LogLevel)
	log := logger.NewConsoleLogger(logLevel)

	log.Info("Application", "starting application", map[string]interface{}{
		"version":       AppVersion,
		"window_width":  windowSize.Width,
		"window_height": windowSize.Height,
		"log_level":     logLevel.String(),
		"camera_device": cfg.Camera.DeviceID,
		"chain_filters": cfg.Session.ChainFilters,
	})

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Camera = camera.New(cfg.Camera, log)
	opts.Fallback = bridge.NewDecoder()
	coordinator := pipeline.NewCoordinator(opts, log)

	guiManager, err := gui.NewManager(window, log)
	if err != nil {
		cancel()
		coordinator.Shutdown()
		return nil, err
	}

	guiManager.SetProcessingCoordinator(coordinator)

	application := &Application{
		fyneApp:     fyneApp,
		window:      window,
		guiManager:  guiManager,
		coordinator: coordinator,
		config:      cfg,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
		shutdown:    newShutdownSequence(log, componentShutdownTimeout, coordinator, guiManager),
	}

	application.setupMenu()
	application.setupSignalHandling()
	log.Info("Application", "initialization complete", nil)
	return application, nil
}

func (a *Application) setupMenu() {
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", func() {
			fyne.Do(a.showAbout)
		}),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(helpMenu))
}

func (a *Application) showAbout() {
	metadata := a.fyneApp.Metadata()

	name := metadata.Name
	if name == "" {
		name = AppName
	}

	version := metadata.Version
	if version == "" {
		version = AppVersion
	}

	aboutContent := container.NewVBox(
		widget.NewLabel(name),
		widget.NewLabel(fmt.Sprintf("Version: %s", version)),
		widget.NewLabel(fmt.Sprintf("Build: %d", metadata.Build)),
		widget.NewLabel(""),
		widget.NewLabel(fmt.Sprintf("Camera device: %d", a.config.Camera.DeviceID)),
		widget.NewLabel(fmt.Sprintf("Chain filters: %t", a.config.Session.ChainFilters)),
		widget.NewLabel(""),
		widget.NewLabel(fmt.Sprintf("Go: %s", runtime.Version())),
		widget.NewLabel(fmt.Sprintf("Platform: %s/%s", runtime.GOOS, runtime.GOARCH)),
	)

	dialog.ShowCustom("About", "Close", aboutContent, a.window)
}

func calculateMinimumWindowSize() fyne.Size {
	toolbarHeight := float32(110)

	return fyne.Size{
		Width:  float32(widgets.ImageAreaWidth*2 + 60),
		Height: float32(widgets.ImageAreaHeight) + toolbarHeight + 60,
	}
}

func (a *Application) setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("Application", "shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			a.initiateShutdown()
		case <-a.ctx.Done():
			return
		}
	}()
}

func (a *Application) Run() error {
	a.window.SetCloseIntercept(func() {
		a.logger.Info("Application", "shutdown requested via window close", nil)
		a.initiateShutdown()
		a.window.Close()
	})

	a.guiManager.Show()

	go func() {
		<-a.shutdown.Done()
		fyne.Do(func() {
			a.fyneApp.Quit()
		})
	}()

	a.fyneApp.Run()
	a.wg.Wait()
	return nil
}

func (a *Application) initiateShutdown() {
	a.shutdown.run(a.cancel)
}
