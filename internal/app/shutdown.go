package app

import (
	"sync"
	"time"

	"snapfilter/internal/logger"
)

const componentShutdownTimeout = 10 * time.Second

type shutdownHandler interface {
	Shutdown()
}

// shutdownSequence stops components in reverse registration order exactly
// once, however many signals or window closes race to trigger it.
type shutdownSequence struct {
	once       sync.Once
	done       chan struct{}
	components []shutdownHandler
	timeout    time.Duration
	logger     logger.Logger
}

func newShutdownSequence(log logger.Logger, timeout time.Duration, components ...shutdownHandler) *shutdownSequence {
	return &shutdownSequence{
		done:       make(chan struct{}),
		components: components,
		timeout:    timeout,
		logger:     log,
	}
}

// Done is closed once the sequence has started.
func (s *shutdownSequence) Done() <-chan struct{} {
	return s.done
}

func (s *shutdownSequence) run(beforeComponents func()) {
	s.once.Do(func() {
		close(s.done)

		s.logger.Info("Application", "shutdown sequence initiated", map[string]interface{}{
			"components": len(s.components),
		})

		if beforeComponents != nil {
			beforeComponents()
		}

		for i := len(s.components) - 1; i >= 0; i-- {
			component := s.components[i]

			finished := make(chan struct{})
			go func() {
				defer close(finished)
				component.Shutdown()
			}()

			select {
			case <-finished:
			case <-time.After(s.timeout):
				s.logger.Warning("Application", "component shutdown timeout", map[string]interface{}{
					"component_index": i,
				})
			}
		}

		s.logger.Info("Application", "shutdown sequence completed", nil)
	})
}
