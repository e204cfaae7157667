package audio

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lowaak/circuit-timer/internal/platform"
)

// Device is an audio output the emitter owns.
type Device interface {
	Play(cue Cue) error
	Suspended() bool
	Suspend() error
	Resume() error
	Close() error
}

// DeviceOpener creates the device on first use.
type DeviceOpener func() (Device, error)

// Backend names accepted by NewDeviceOpener.
const (
	BackendAuto = "auto"
	BackendOto  = "oto"
	BackendBell = "bell"
	BackendNone = "none"
)

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) bool {
	switch strings.ToLower(name) {
	case BackendAuto, BackendOto, BackendBell, BackendNone:
		return true
	}
	return false
}

// NewDeviceOpener returns the opener for backend. screen is used by the bell
// backend and may be nil elsewhere. "auto" tries oto and falls back to the
// terminal bell.
func NewDeviceOpener(backend string, sampleRate int, screen tcell.Screen) DeviceOpener {
	switch strings.ToLower(backend) {
	case BackendOto:
		return func() (Device, error) { return OpenOtoDevice(sampleRate) }
	case BackendBell:
		return func() (Device, error) { return OpenBellDevice(screen) }
	case BackendNone:
		return func() (Device, error) {
			return nil, &platform.ResourceUnavailableError{Resource: "audio", Err: fmt.Errorf("disabled by config")}
		}
	default:
		return func() (Device, error) {
			dev, err := OpenOtoDevice(sampleRate)
			if err == nil {
				return dev, nil
			}
			if screen == nil {
				return nil, err
			}
			return OpenBellDevice(screen)
		}
	}
}
