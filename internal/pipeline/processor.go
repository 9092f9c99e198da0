package pipeline

import (
	"fmt"
	"time"

	"snapfilter/internal/filters"
	"snapfilter/internal/logger"
	"snapfilter/internal/session"
)

type imageProcessor struct {
	catalog *filters.Manager
	logger  logger.Logger
}

// Process runs a filter command. The returned session replaces the caller's
// only on success.
func (p *imageProcessor) Process(current session.Session, cmd session.Command) (session.Session, error) {
	name, ok := cmd.FilterName()
	if !ok {
		return current, fmt.Errorf("%w: %s is not a filter command", session.ErrUnknownCommand, cmd)
	}

	var input string
	if current.Working != nil {
		input = fmt.Sprintf("%dx%d", current.Working.Width, current.Working.Height)
	}

	start := time.Now()
	next, err := session.Dispatch(current, cmd, nil, p.catalog)
	if err != nil {
		return current, err
	}

	p.logger.Debug("ImageProcessor", "filter applied", map[string]interface{}{
		"filter":       name,
		"input_size":   input,
		"output_size":  fmt.Sprintf("%dx%d", next.Output.Width, next.Output.Height),
		"chained":      next.ChainFilters,
		"elapsed_time": time.Since(start),
	})

	return next, nil
}
