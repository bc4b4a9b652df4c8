package binding

import (
	"fmt"
	"strings"
)

// Mode is the direction set of a binding.
type Mode uint8

const (
	// OneTime writes the source value to the target once, on bind.
	OneTime Mode = 1 << iota
	// ToView keeps the target synchronized with the source.
	ToView
	// FromView assigns target changes back into the source expression.
	FromView
	// TwoWay is ToView and FromView combined.
	TwoWay = ToView | FromView
)

func (m Mode) String() string {
	switch m {
	case OneTime:
		return "oneTime"
	case ToView:
		return "toView"
	case FromView:
		return "fromView"
	case TwoWay:
		return "twoWay"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Validate rejects empty modes, unknown bits and oneTime combined with a continuous direction.
func (m Mode) Validate() error {
	if m == 0 || m&^(OneTime|TwoWay) != 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMode, m)
	}
	if m&OneTime != 0 && m&TwoWay != 0 {
		return fmt.Errorf("%w: oneTime cannot be combined with toView or fromView", ErrInvalidMode)
	}
	return nil
}

// ParseMode parses "oneTime", "toView", "fromView" or "twoWay" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onetime", "one-time":
		return OneTime, nil
	case "", "toview", "to-view":
		return ToView, nil
	case "fromview", "from-view":
		return FromView, nil
	case "twoway", "two-way":
		return TwoWay, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Flags tell HandleChange which direction a change notification travels.
type Flags uint8

const (
	// UpdateTarget re-evaluates the source and writes the target.
	UpdateTarget Flags = 1 << iota
	// UpdateSource assigns the new target value into the source expression.
	UpdateSource
)
