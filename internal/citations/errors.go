package citations

import (
	"errors"
	"fmt"
)

var (
	// ErrDependencyMissing reports that a mode needs a rendering capability
	// the Renderer was not constructed with.
	ErrDependencyMissing = errors.New("rendering dependency missing")
	// ErrUnknownMode reports a mode name outside html, markdown, raw and bbcode.
	ErrUnknownMode = errors.New("unknown render mode")
)

// DependencyError names the capability a mode could not obtain.
type DependencyError struct {
	Mode       Mode
	Capability string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s mode requires a %s: %v", e.Mode, e.Capability, ErrDependencyMissing)
}

func (e *DependencyError) Unwrap() error { return ErrDependencyMissing }
