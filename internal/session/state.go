package session

import (
	"fmt"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// Status is the lifecycle position of a session
type Status int

const (
	StatusIdle     Status = iota // Loaded or reset, not started
	StatusRunning                // Counting down
	StatusPaused                 // Started, then paused
	StatusFinished               // Terminal, no further ticks
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is a snapshot of session progress. Values are copies; the Workout
// slices are shared but never mutated.
type State struct {
	SessionID            string
	Workout              workout.Definition
	Status               Status
	CurrentExerciseIndex int
	TimeLeft             int // seconds
	CircuitIndex         int // completed circuits
	IsActive             bool
	IsFinished           bool
}

// CurrentExercise returns the exercise at CurrentExerciseIndex.
func (s State) CurrentExercise() workout.Exercise {
	if s.CurrentExerciseIndex < 0 || s.CurrentExerciseIndex >= len(s.Workout.Exercises) {
		return workout.Exercise{}
	}
	return s.Workout.Exercises[s.CurrentExerciseIndex]
}

// NextExercise returns the exercise after the current one in this pass.
func (s State) NextExercise() (workout.Exercise, bool) {
	next := s.CurrentExerciseIndex + 1
	if next <= 0 || next >= len(s.Workout.Exercises) {
		return workout.Exercise{}, false
	}
	return s.Workout.Exercises[next], true
}

// Progress is the elapsed fraction of the current exercise, 0 to 1.
// A zero-length exercise reads as complete.
func (s State) Progress() float64 {
	duration := s.CurrentExercise().Seconds()
	if duration <= 0 {
		return 1
	}
	return float64(duration-s.TimeLeft) / float64(duration)
}

// TimeLeftDisplay formats TimeLeft as MM:SS.
func (s State) TimeLeftDisplay() string {
	return FormatMMSS(s.TimeLeft)
}

// CircuitLabel returns "Circuit N of M", or "" for single-pass workouts.
func (s State) CircuitLabel() string {
	total := s.Workout.CircuitCount()
	if total <= 1 {
		return ""
	}
	current := s.CircuitIndex + 1
	if current > total {
		current = total
	}
	return fmt.Sprintf("Circuit %d of %d", current, total)
}

// Stalled reports the running-at-zero state left behind by a circuit
// advance: nothing ticks until the session is paused and resumed or reset.
func (s State) Stalled() bool {
	return s.IsActive && !s.IsFinished && s.TimeLeft == 0
}

// FormatMMSS formats seconds as zero-padded MM:SS. Negative input reads as 0.
func FormatMMSS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
