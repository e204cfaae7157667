package session

import (
	"github.com/lowaak/circuit-timer/internal/workout"
)

// CuePlayer sounds the exercise-complete cue. It must not block.
type CuePlayer interface {
	EmitCompletionCue()
}

// ActivityObserver is told when the countdown starts or stops running.
// It must not block.
type ActivityObserver interface {
	SetActive(active bool)
}

type noopCue struct{}

func (noopCue) EmitCompletionCue() {}

type noopActivity struct{}

func (noopActivity) SetActive(bool) {}

// Outcome describes the effect of one transition
type Outcome struct {
	Changed        bool // state differs from before
	Completed      int  // exercise completions, one cue each
	NotifyActivity bool // the activity observer must be told the new isActive
}

// Machine is the synchronous session state machine. It is not safe for
// concurrent use; Engine serializes access to it.
type Machine struct {
	workout workout.Definition
	cue     CuePlayer

	index        int
	timeLeft     int
	circuitIndex int
	active       bool
	finished     bool
	started      bool // left Idle since load or last reset
}

// NewMachine builds an Idle machine for def. A workout with no exercises is
// rejected with *workout.PreconditionError.
func NewMachine(def workout.Definition, cue CuePlayer) (*Machine, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if cue == nil {
		cue = noopCue{}
	}
	m := &Machine{
		workout: def.Normalized(),
		cue:     cue,
	}
	m.timeLeft = m.workout.Exercises[0].Seconds()
	return m, nil
}

// ToggleTimer starts or resumes a non-running session and pauses a running
// one. Resuming at zero completes the current exercise immediately.
// Finished sessions ignore it.
func (m *Machine) ToggleTimer() Outcome {
	if m.finished {
		return Outcome{}
	}
	m.active = !m.active
	if !m.active {
		return Outcome{Changed: true, NotifyActivity: true}
	}
	m.started = true
	return m.settle(Outcome{Changed: true, NotifyActivity: true})
}

// Tick applies one elapsed second. It only acts while running with time
// left; reaching zero completes the exercise in the same transition.
func (m *Machine) Tick() Outcome {
	if !m.ticking() {
		return Outcome{}
	}
	m.timeLeft--
	return m.settle(Outcome{Changed: true})
}

// Reset returns to Idle at the first exercise. circuitIndex is kept.
func (m *Machine) Reset() Outcome {
	m.index = 0
	m.timeLeft = m.workout.Exercises[0].Seconds()
	m.active = false
	m.finished = false
	m.started = false
	return Outcome{Changed: true, NotifyActivity: true}
}

// State returns a snapshot of the machine.
func (m *Machine) State() State {
	return State{
		Workout:              m.workout,
		Status:               m.status(),
		CurrentExerciseIndex: m.index,
		TimeLeft:             m.timeLeft,
		CircuitIndex:         m.circuitIndex,
		IsActive:             m.active,
		IsFinished:           m.finished,
	}
}

// ticking reports whether a one-second tick is due.
func (m *Machine) ticking() bool {
	return m.active && !m.finished && m.timeLeft > 0
}

func (m *Machine) status() Status {
	switch {
	case m.finished:
		return StatusFinished
	case m.active:
		return StatusRunning
	case m.started:
		return StatusPaused
	default:
		return StatusIdle
	}
}

// settle completes exercises for as long as a running session sits at zero.
// Only the move to a next exercise can loop, so this is bounded by the
// exercise count.
func (m *Machine) settle(o Outcome) Outcome {
	for m.active && !m.finished && m.timeLeft == 0 {
		o.Completed++
		if !m.completeExercise() {
			break
		}
	}
	if m.finished {
		o.NotifyActivity = true
	}
	return o
}

// completeExercise sounds the cue and then applies the advance policy:
//  1. not the last exercise: move to the next one and reseed timeLeft
//  2. circuits configured and another circuit remains: bump circuitIndex
//     only; the exercise index and timeLeft stay where they are
//  3. otherwise: finish
//
// It returns true only for case 1.
func (m *Machine) completeExercise() bool {
	m.cue.EmitCompletionCue()

	last := len(m.workout.Exercises) - 1
	switch {
	case m.index < last:
		m.index++
		m.timeLeft = m.workout.Exercises[m.index].Seconds()
		return true
	case m.workout.CircuitsConfigured() && m.circuitIndex+1 < m.workout.Circuits:
		m.circuitIndex++
		return false
	default:
		m.finished = true
		m.active = false
		return false
	}
}
