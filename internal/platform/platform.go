// Package platform holds the host capabilities the session core consumes
// but does not own: resource failure reporting and application visibility.
package platform

import (
	"fmt"
	"log"
	"sync"

	"github.com/lowaak/circuit-timer/internal/events"
)

// ResourceUnavailableError reports an unsupported or denied platform resource
// (audio output, screen wake lock). Callers log it and keep going.
type ResourceUnavailableError struct {
	Resource string
	Err      error
}

func (e *ResourceUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s unavailable", e.Resource)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Resource, e.Err)
}

func (e *ResourceUnavailableError) Unwrap() error {
	return e.Err
}

// VisibilitySource publishes true whenever the application regains the
// foreground and false when it is known to have left it.
type VisibilitySource interface {
	ListenToVisibility(ch chan<- bool) func()
}

// Visibility is a VisibilitySource fed by OS notifications (see
// visibility_unix.go) or by explicit calls to SetVisible.
type Visibility struct {
	event     *events.Event[bool]
	logger    *log.Logger
	stop      func()
	closeOnce sync.Once
}

// NewVisibility starts watching the host for foreground regain.
func NewVisibility(logger *log.Logger) *Visibility {
	if logger == nil {
		panic("Visibility: logger cannot be nil")
	}
	v := &Visibility{
		event:  events.NewEvent[bool](false),
		logger: logger,
	}
	v.stop = v.watch()
	return v
}

// ListenToVisibility registers ch for visibility changes.
func (v *Visibility) ListenToVisibility(ch chan<- bool) func() {
	return v.event.Listen(ch)
}

// SetVisible publishes a visibility change.
func (v *Visibility) SetVisible(visible bool) {
	v.logger.Printf("Visibility: visible=%v", visible)
	v.event.Notify(visible)
}

// Close stops watching the host.
func (v *Visibility) Close() {
	v.closeOnce.Do(func() {
		if v.stop != nil {
			v.stop()
		}
	})
}
