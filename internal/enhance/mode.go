package enhance

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedMode indicates a mode outside the closed enumeration. It is a
// caller error and is never silently mapped to a default.
var ErrUnsupportedMode = errors.New("unsupported enhancement mode")

// Mode selects one of the four output renderings.
type Mode int

const (
	// ModeOriginal leaves pixels unchanged.
	ModeOriginal Mode = iota
	// ModeGrayscale reduces to single-channel luma intensity.
	ModeGrayscale
	// ModeScan produces a clean black-on-white binarized rendering.
	ModeScan
	// ModeHighContrast stretches local contrast without binarizing, suited to
	// faded or low-ink originals.
	ModeHighContrast
)

// Modes lists all valid modes in display order.
func Modes() []Mode {
	return []Mode{ModeOriginal, ModeGrayscale, ModeScan, ModeHighContrast}
}

// Valid reports whether m is part of the closed enumeration.
func (m Mode) Valid() bool {
	return m >= ModeOriginal && m <= ModeHighContrast
}

// String returns the canonical mode name.
func (m Mode) String() string {
	switch m {
	case ModeOriginal:
		return "original"
	case ModeGrayscale:
		return "grayscale"
	case ModeScan:
		return "scan"
	case ModeHighContrast:
		return "high-contrast"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a user-facing mode name into a Mode. Unknown names are
// a construction-time error.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "original":
		return ModeOriginal, nil
	case "grayscale", "gray":
		return ModeGrayscale, nil
	case "scan":
		return ModeScan, nil
	case "high-contrast", "highcontrast", "high_contrast":
		return ModeHighContrast, nil
	default:
		return ModeOriginal, fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}
