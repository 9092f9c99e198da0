package session

import (
	"errors"
	"fmt"
)

var (
	ErrNoWorkingImage = errors.New("no working image: acquire a frame first")
	ErrAcquisition    = errors.New("frame acquisition failed")
	ErrUnknownCommand = errors.New("unknown command")
)

// AcquisitionError reports a FrameSource that could not deliver a frame.
// It matches both ErrAcquisition and its cause under errors.Is.
type AcquisitionError struct {
	Source string
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrAcquisition, e.Source)
	}
	return fmt.Sprintf("%s: %s: %v", ErrAcquisition, e.Source, e.Err)
}

func (e *AcquisitionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAcquisition}
	}
	return []error{ErrAcquisition, e.Err}
}

func NewAcquisitionError(source string, err error) error {
	return &AcquisitionError{Source: source, Err: err}
}
