package session

import (
	"fmt"
	"strings"

	"snapfilter/internal/filters"
)

type Command int

const (
	AcquireCamera Command = iota
	AcquireUpload
	Recapture
	ApplySobel
	ApplyGrayscale
	ApplyBrightness
	ApplyGaussianBlur
	ApplySharpen
)

var commandNames = map[Command]string{
	AcquireCamera:     "acquire-camera",
	AcquireUpload:     "acquire-upload",
	Recapture:         "recapture",
	ApplySobel:        "apply-sobel",
	ApplyGrayscale:    "apply-grayscale",
	ApplyBrightness:   "apply-brightness",
	ApplyGaussianBlur: "apply-gaussian-blur",
	ApplySharpen:      "apply-sharpen",
}

var commandFilters = map[Command]string{
	ApplySobel:        filters.SobelName,
	ApplyGrayscale:    filters.GrayscaleName,
	ApplyBrightness:   filters.BrightnessName,
	ApplyGaussianBlur: filters.GaussianName,
	ApplySharpen:      filters.SharpenName,
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

func (c Command) IsAcquisition() bool {
	return c == AcquireCamera || c == AcquireUpload || c == Recapture
}

// FilterName returns the catalog entry a filter command runs.
func (c Command) FilterName() (string, bool) {
	name, ok := commandFilters[c]
	return name, ok
}

// ParseCommand accepts the command name or, for filter commands, the bare
// filter name ("sobel" for apply-sobel).
func ParseCommand(s string) (Command, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for cmd, name := range commandNames {
		if name == key {
			return cmd, nil
		}
	}
	for cmd, name := range commandFilters {
		if name == key {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// CommandForFilter maps a catalog name back to its command.
func CommandForFilter(name string) (Command, error) {
	for cmd, f := range commandFilters {
		if f == name {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("%w: no command for filter %q", ErrUnknownCommand, name)
}
