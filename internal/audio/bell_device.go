package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lowaak/circuit-timer/internal/platform"
)

// bellDevice approximates a cue with one terminal bell per tone. Pitch and
// envelope are lost; the rhythm is kept.
type bellDevice struct {
	screen tcell.Screen

	mu     sync.Mutex
	timers []*time.Timer
	gen    int // bumped per cue; stale callbacks compare against it
	closed bool
}

// OpenBellDevice uses screen's bell.
func OpenBellDevice(screen tcell.Screen) (Device, error) {
	if screen == nil {
		return nil, &platform.ResourceUnavailableError{Resource: "audio", Err: errors.New("no terminal screen for bell")}
	}
	return &bellDevice{screen: screen}, nil
}

func (d *bellDevice) Play(cue Cue) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("bell device closed")
	}
	// A new cue replaces whatever is still pending from the previous one.
	d.stopLocked()
	d.gen++
	gen := d.gen
	for _, tone := range cue.Tones {
		d.timers = append(d.timers, time.AfterFunc(tone.Offset, func() {
			d.beep(gen)
		}))
	}
	return nil
}

func (d *bellDevice) beep(gen int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.gen {
		return
	}
	_ = d.screen.Beep()
}

func (d *bellDevice) stopLocked() {
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = nil
}

func (d *bellDevice) Suspended() bool { return false }
func (d *bellDevice) Suspend() error  { return nil }
func (d *bellDevice) Resume() error   { return nil }

func (d *bellDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.closed = true
	return nil
}
