// Package wake keeps the display awake while a session countdown runs.
package wake

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"github.com/lowaak/circuit-timer/internal/platform"
)

// Lock is a held screen wake lock.
type Lock interface {
	// Release gives the lock back. Releasing twice is a no-op.
	Release(ctx context.Context) error
	// Released reports whether the lock is gone, either through Release or
	// because the platform dropped it.
	Released() bool
}

// Locker acquires wake locks from the platform.
type Locker interface {
	Acquire(ctx context.Context) (Lock, error)
}

// Backend names accepted by NewLocker.
const (
	BackendAuto       = "auto"
	BackendDBus       = "dbus"
	BackendCaffeinate = "caffeinate"
	BackendNone       = "none"
)

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) bool {
	switch strings.ToLower(name) {
	case BackendAuto, BackendDBus, BackendCaffeinate, BackendNone:
		return true
	}
	return false
}

// NewLocker returns the locker for backend. "auto" picks by operating system.
func NewLocker(backend string) Locker {
	switch strings.ToLower(backend) {
	case BackendDBus:
		return NewDBusLocker(appName)
	case BackendCaffeinate:
		return NewCaffeinateLocker()
	case BackendNone:
		return noneLocker{}
	}

	switch runtime.GOOS {
	case "darwin":
		return NewCaffeinateLocker()
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return NewDBusLocker(appName)
	default:
		return noneLocker{}
	}
}

const appName = "circuit-timer"

type noneLocker struct{}

func (noneLocker) Acquire(context.Context) (Lock, error) {
	return nil, &platform.ResourceUnavailableError{Resource: "screen wake lock", Err: errors.New("disabled")}
}
