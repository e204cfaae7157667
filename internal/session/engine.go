package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/circuit-timer/internal/events"
	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// engineCommand is sent to the engine goroutine. done is closed once the
// command has been applied and observers informed.
type engineCommand struct {
	kind commandKind
	done chan struct{}
}

type commandKind int

const (
	cmdToggle commandKind = iota
	cmdReset
	cmdSync
)

// Engine runs a Machine on its own goroutine, driven by a one-second ticker
// and by commands. All transitions happen on that goroutine.
type Engine struct {
	id     string
	wake   ActivityObserver
	clock  Clock
	logger *log.Logger

	// machine is only mutated on the loop goroutine; mu lets State() read it
	mu      sync.RWMutex
	machine *Machine

	stateEvent *events.Event[State]

	cmdChan      chan engineCommand
	doneChan     chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewEngineArg holds the arguments for NewEngine
type NewEngineArg struct {
	Workout workout.Definition
	Cue     CuePlayer        // optional
	Wake    ActivityObserver // optional
	Clock   Clock            // defaults to SystemClock
	Logger  *log.Logger
}

// NewEngine creates an Idle session for args.Workout and starts its loop.
func NewEngine(args NewEngineArg) (*Engine, error) {
	if args.Logger == nil {
		panic("SessionEngine: logger cannot be nil")
	}
	if args.Cue == nil {
		args.Cue = noopCue{}
	}
	if args.Wake == nil {
		args.Wake = noopActivity{}
	}
	if args.Clock == nil {
		args.Clock = SystemClock{}
	}

	machine, err := NewMachine(args.Workout, args.Cue)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		id:         uuid.NewString(),
		wake:       args.Wake,
		clock:      args.Clock,
		logger:     args.Logger,
		machine:    machine,
		stateEvent: events.NewEvent[State](true),
		cmdChan:    make(chan engineCommand),
		doneChan:   make(chan struct{}),
	}
	e.stateEvent.Notify(e.State())

	e.logger.Printf("SessionEngine[%s]: created for '%s' (%d exercises, circuits=%d)",
		e.shortID(), args.Workout.Name, len(args.Workout.Exercises), args.Workout.Circuits)

	go_func_utils.SafeGoWG(e.logger, &e.wg, e.runLoop)

	return e, nil
}

// ID returns the session id.
func (e *Engine) ID() string {
	return e.id
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.machine.State()
	s.SessionID = e.id
	return s
}

// ListenToState registers ch for state changes. The current state is sent
// immediately. Returns a deregistration function.
func (e *Engine) ListenToState(ch chan<- State) func() {
	return e.stateEvent.Listen(ch)
}

// ToggleTimer starts, pauses or resumes the countdown. It returns once the
// transition has been applied.
func (e *Engine) ToggleTimer() {
	e.send(cmdToggle)
}

// Reset returns the session to Idle at the first exercise.
func (e *Engine) Reset() {
	e.send(cmdReset)
}

// Shutdown stops the loop and any pending tick. Safe to call multiple times.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.logger.Printf("SessionEngine[%s]: shutting down", e.shortID())
		close(e.doneChan)
		e.wg.Wait()
		if e.State().IsActive {
			e.wake.SetActive(false)
		}
		e.logger.Printf("SessionEngine[%s]: shutdown complete", e.shortID())
	})
}

// sync waits until everything queued before it has been processed.
func (e *Engine) sync() {
	e.send(cmdSync)
}

func (e *Engine) send(kind commandKind) bool {
	cmd := engineCommand{kind: kind, done: make(chan struct{})}
	select {
	case e.cmdChan <- cmd:
	case <-e.doneChan:
		return false
	}
	select {
	case <-cmd.done:
		return true
	case <-e.doneChan:
		return false
	}
}

func (e *Engine) shortID() string {
	return e.id[:8]
}

// apply runs a transition under lock, then informs observers outside it.
func (e *Engine) apply(name string, transition func(*Machine) Outcome) {
	e.mu.Lock()
	outcome := transition(e.machine)
	state := e.machine.State()
	e.mu.Unlock()
	state.SessionID = e.id

	if !outcome.Changed {
		if name == "toggle" {
			e.logger.Printf("SessionEngine[%s]: toggle ignored, session %s", e.shortID(), state.Status)
		}
		return
	}

	if outcome.Completed > 0 {
		e.logger.Printf("SessionEngine[%s]: %s completed %d exercise(s), now %s at #%d (circuit %d)",
			e.shortID(), name, outcome.Completed, state.Status, state.CurrentExerciseIndex, state.CircuitIndex)
	} else if name != "tick" {
		e.logger.Printf("SessionEngine[%s]: %s -> %s", e.shortID(), name, state.Status)
	}
	if state.Stalled() {
		e.logger.Printf("SessionEngine[%s]: circuit %d complete, countdown holds at 00:00", e.shortID(), state.CircuitIndex)
	}

	if outcome.NotifyActivity {
		e.wake.SetActive(state.IsActive)
	}
	e.stateEvent.Notify(state)
}

// ticking reports whether the ticker should be armed.
func (e *Engine) ticking() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.machine.ticking()
}

// runLoop is the session goroutine. The ticker is armed only while a tick is
// due and re-armed to a full second on every start or resume.
func (e *Engine) runLoop() {
	ticker := e.clock.NewTicker(1 * time.Second)
	ticker.Stop()
	armed := false

	syncTicker := func() {
		want := e.ticking()
		switch {
		case want && !armed:
			ticker.Reset(1 * time.Second)
		case !want && armed:
			ticker.Stop()
		}
		armed = want
	}

	for {
		select {
		case <-e.doneChan:
			ticker.Stop()
			e.logger.Printf("SessionEngine[%s]: goroutine exiting", e.shortID())
			return

		case cmd := <-e.cmdChan:
			switch cmd.kind {
			case cmdToggle:
				e.apply("toggle", (*Machine).ToggleTimer)
			case cmdReset:
				e.apply("reset", (*Machine).Reset)
			case cmdSync:
			}
			syncTicker()
			close(cmd.done)

		case <-ticker.C():
			e.apply("tick", (*Machine).Tick)
			syncTicker()
		}
	}
}
