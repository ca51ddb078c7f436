package platform

import (
	"errors"
	"time"
)

// ErrIdleUnsupported indicates idle detection is not available on this
// system. Callers should disable idle-driven policies rather than fail.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// IdleProvider reports the time since the last user input.
type IdleProvider interface {
	IdleDuration() (time.Duration, error)
}

// NewIdleProvider returns a platform-specific idle provider.
func NewIdleProvider() IdleProvider {
	return newIdleProvider()
}
