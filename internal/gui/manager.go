// Package gui is the fyne front end: a toolbar of session commands above the
// original frame and the filtered preview.
package gui

import (
	"snapfilter/internal/logger"
	"snapfilter/internal/pipeline"

	"fyne.io/fyne/v2"
)

type Manager struct {
	window     fyne.Window
	controller *Controller
	view       *View
	logger     logger.Logger
	isShutdown bool
}

func NewManager(window fyne.Window, log logger.Logger) (*Manager, error) {
	manager := &Manager{
		window: window,
		logger: log,
	}

	manager.view = NewView(window)

	log.Info("GUIManager", "initialized", map[string]interface{}{
		"window_title": window.Title(),
	})

	return manager, nil
}

func (m *Manager) SetProcessingCoordinator(coordinator pipeline.ProcessingCoordinator) {
	m.controller = NewController(coordinator, m.logger)

	m.view.SetController(m.controller)
	m.controller.SetView(m.view)

	m.logger.Info("GUIManager", "processing coordinator connected", map[string]interface{}{
		"filters": len(coordinator.Filters()),
	})
}

func (m *Manager) GetWindow() fyne.Window {
	return m.window
}

func (m *Manager) Show() {
	m.view.Show()
	m.logger.Info("GUIManager", "GUI displayed", nil)
}

func (m *Manager) Shutdown() {
	if m.isShutdown {
		return
	}

	m.isShutdown = true
	m.logger.Info("GUIManager", "shutdown initiated", nil)

	if m.controller != nil {
		m.controller.Shutdown()
	}

	m.logger.Info("GUIManager", "shutdown completed", nil)
}
