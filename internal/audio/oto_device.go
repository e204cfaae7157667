package audio

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/lowaak/circuit-timer/internal/platform"
)

// otoDevice plays PCM through the system mixer. oto allows one context per
// process, so the emitter keeps a single device for its lifetime.
type otoDevice struct {
	ctx        *oto.Context
	sampleRate int

	mu        sync.Mutex
	players   []*oto.Player
	suspended bool
}

// OpenOtoDevice creates the oto context and waits until it is ready.
func OpenOtoDevice(sampleRate int) (Device, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, &platform.ResourceUnavailableError{Resource: "audio", Err: err}
	}
	<-ready
	return &otoDevice{ctx: ctx, sampleRate: sampleRate}, nil
}

func (d *otoDevice) Play(cue Cue) error {
	if cue.SampleRate != d.sampleRate {
		return fmt.Errorf("cue rendered at %d Hz, device runs at %d Hz", cue.SampleRate, d.sampleRate)
	}
	if err := d.ctx.Err(); err != nil {
		return &platform.ResourceUnavailableError{Resource: "audio", Err: err}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.reapLocked()
	p := d.ctx.NewPlayer(bytes.NewReader(cue.PCM))
	p.Play()
	d.players = append(d.players, p)
	return nil
}

// reapLocked closes players that have drained. MUST be called with mu held.
func (d *otoDevice) reapLocked() {
	live := d.players[:0]
	for _, p := range d.players {
		if p.IsPlaying() {
			live = append(live, p)
			continue
		}
		_ = p.Close()
	}
	d.players = live
}

func (d *otoDevice) Suspended() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.suspended
}

func (d *otoDevice) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.suspended {
		return nil
	}
	if err := d.ctx.Suspend(); err != nil {
		return err
	}
	d.suspended = true
	return nil
}

func (d *otoDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.suspended {
		return nil
	}
	if err := d.ctx.Resume(); err != nil {
		return err
	}
	d.suspended = false
	return nil
}

// Close stops all players and suspends the context. oto contexts cannot be
// destroyed.
func (d *otoDevice) Close() error {
	d.mu.Lock()
	for _, p := range d.players {
		_ = p.Close()
	}
	d.players = nil
	d.mu.Unlock()
	return d.Suspend()
}
