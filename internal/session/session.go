// Package session models the working image a user is editing and the commands
// that move it between the Empty, Loaded and Filtered states.
package session

import (
	"errors"
	"fmt"

	"snapfilter/internal/filters"
	"snapfilter/internal/pixel"
)

type State int

const (
	Empty State = iota
	Loaded
	Filtered
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	case Filtered:
		return "filtered"
	default:
		return "unknown"
	}
}

type Origin int

const (
	OriginNone Origin = iota
	OriginCamera
	OriginUpload
)

func (o Origin) String() string {
	switch o {
	case OriginCamera:
		return "camera"
	case OriginUpload:
		return "upload"
	default:
		return "none"
	}
}

// Catalog resolves filter names; *filters.Manager satisfies it.
type Catalog interface {
	Get(name string) (filters.Filter, error)
}

// Session is a value: Dispatch returns a new Session and never modifies the
// buffers held by the one it was given.
type Session struct {
	// Working is the frame the next filter reads.
	Working *pixel.Buffer
	// LastRawSource is the unfiltered frame from the most recent acquisition.
	LastRawSource *pixel.Buffer
	// Output is the result of the most recent filter, nil until one runs.
	Output *pixel.Buffer

	State      State
	Origin     Origin
	LastFilter string

	// ChainFilters makes each filter result the next Working frame, the way a
	// canvas that is redrawn after every click behaves.
	ChainFilters bool
}

func New(chainFilters bool) Session {
	return Session{ChainFilters: chainFilters}
}

// Displayed is the frame a presenter should show.
func (s Session) Displayed() *pixel.Buffer {
	if s.Output != nil {
		return s.Output
	}
	return s.Working
}

// Dispatch applies one command. frame carries the newly acquired buffer for
// acquisition commands and is ignored by filter commands. On error the input
// session is returned unchanged.
func Dispatch(s Session, cmd Command, frame *pixel.Buffer, catalog Catalog) (Session, error) {
	switch cmd {
	case AcquireCamera:
		return acquire(s, frame, OriginCamera, cmd)
	case AcquireUpload:
		return acquire(s, frame, OriginUpload, cmd)
	case Recapture:
		return recapture(s, frame)
	}

	name, ok := cmd.FilterName()
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}

	return applyFilter(s, name, catalog)
}

func acquire(s Session, frame *pixel.Buffer, origin Origin, cmd Command) (Session, error) {
	if err := checkFrame(frame); err != nil {
		return s, NewAcquisitionError(cmd.String(), err)
	}

	next := s
	next.Working = frame
	next.LastRawSource = frame.Clone()
	next.Output = nil
	next.State = Loaded
	next.Origin = origin
	next.LastFilter = ""
	return next, nil
}

// recapture takes a fresh frame when the caller grabbed one (camera origin),
// otherwise it restores the last raw acquisition.
func recapture(s Session, frame *pixel.Buffer) (Session, error) {
	if frame != nil {
		origin := s.Origin
		if origin == OriginNone {
			origin = OriginCamera
		}
		return acquire(s, frame, origin, Recapture)
	}

	if s.LastRawSource == nil {
		return s, NewAcquisitionError(Recapture.String(), errors.New("nothing to recapture"))
	}

	next := s
	next.Working = s.LastRawSource.Clone()
	next.Output = nil
	next.State = Loaded
	next.LastFilter = ""
	return next, nil
}

func applyFilter(s Session, name string, catalog Catalog) (Session, error) {
	if s.State == Empty || s.Working == nil {
		return s, ErrNoWorkingImage
	}

	if catalog == nil {
		return s, fmt.Errorf("apply %s: no filter catalog", name)
	}

	f, err := catalog.Get(name)
	if err != nil {
		return s, err
	}

	out := f.Apply(s.Working)
	out.MustBeConsistent()

	next := s
	next.Output = out
	next.State = Filtered
	next.LastFilter = name
	if s.ChainFilters {
		next.Working = out
	}
	return next, nil
}

func checkFrame(frame *pixel.Buffer) error {
	if frame == nil {
		return errors.New("no frame delivered")
	}

	if frame.Width < 1 || frame.Height < 1 {
		return fmt.Errorf("invalid frame dimensions %dx%d", frame.Width, frame.Height)
	}

	if frame.Len() != frame.Width*frame.Height*pixel.Channels {
		return fmt.Errorf("frame has %d samples, want %d", frame.Len(), frame.Width*frame.Height*pixel.Channels)
	}

	return nil
}
