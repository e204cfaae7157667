package audio

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/platform"
)

const requestQueueSize = 4

// Emitter plays the completion cue on a shared device. The device is opened
// on the first cue and reused afterwards; a failed open is retried on the
// next cue. Audio problems are logged, never returned.
type Emitter struct {
	opener      DeviceOpener
	logger      *log.Logger
	cue         Cue
	idleSuspend time.Duration

	requests  chan struct{}
	doneChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	// device is touched only by the emitter goroutine after construction
	device Device
}

// NewEmitterArg holds the arguments for NewEmitter
type NewEmitterArg struct {
	Opener      DeviceOpener
	Logger      *log.Logger
	SampleRate  int           // defaults to DefaultSampleRate
	IdleSuspend time.Duration // 0 keeps the device running
}

// NewEmitter renders the cue and starts the playback goroutine.
func NewEmitter(args NewEmitterArg) *Emitter {
	if args.Opener == nil {
		panic("AudioCue: opener cannot be nil")
	}
	if args.Logger == nil {
		panic("AudioCue: logger cannot be nil")
	}
	if args.SampleRate <= 0 {
		args.SampleRate = DefaultSampleRate
	}

	e := &Emitter{
		opener:      args.Opener,
		logger:      args.Logger,
		cue:         NewCue(CompletionCue, CueEnvelope, args.SampleRate),
		idleSuspend: args.IdleSuspend,
		requests:    make(chan struct{}, requestQueueSize),
		doneChan:    make(chan struct{}),
	}
	go_func_utils.SafeGoWG(e.logger, &e.wg, e.run)
	return e
}

// EmitCompletionCue queues one cue and returns immediately.
func (e *Emitter) EmitCompletionCue() {
	select {
	case <-e.doneChan:
		return
	default:
	}
	select {
	case e.requests <- struct{}{}:
	default:
		e.logger.Println("AudioCue: queue full, cue dropped")
	}
}

// Close stops the goroutine and releases the device.
func (e *Emitter) Close() {
	e.closeOnce.Do(func() {
		close(e.doneChan)
		e.wg.Wait()
		if e.device != nil {
			if err := e.device.Close(); err != nil {
				e.logger.Printf("AudioCue: close device: %v", err)
			}
			e.device = nil
		}
	})
}

func (e *Emitter) run() {
	idle := time.NewTimer(time.Hour)
	idle.Stop()

	for {
		select {
		case <-e.doneChan:
			idle.Stop()
			return

		case <-e.requests:
			idle.Stop()
			e.play()
			if e.device != nil && e.idleSuspend > 0 {
				idle.Reset(e.cue.Duration() + e.idleSuspend)
			}

		case <-idle.C:
			e.suspend()
		}
	}
}

func (e *Emitter) play() {
	if e.device == nil {
		dev, err := e.opener()
		if err != nil {
			e.report("open", err)
			return
		}
		e.device = dev
		e.logger.Println("AudioCue: device opened")
	}

	if e.device.Suspended() {
		if err := e.device.Resume(); err != nil {
			e.report("resume", err)
			return
		}
	}
	if err := e.device.Play(e.cue); err != nil {
		e.report("play", err)
	}
}

func (e *Emitter) suspend() {
	if e.device == nil || e.device.Suspended() {
		return
	}
	if err := e.device.Suspend(); err != nil {
		e.report("suspend", err)
		return
	}
	e.logger.Println("AudioCue: device suspended after idle period")
}

func (e *Emitter) report(op string, err error) {
	var unavailable *platform.ResourceUnavailableError
	if !errors.As(err, &unavailable) {
		unavailable = &platform.ResourceUnavailableError{Resource: "audio", Err: err}
	}
	e.logger.Printf("AudioCue: %s failed: %v", op, unavailable)
}
