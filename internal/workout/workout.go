package workout

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Defaults applied to exercises saved without a name or duration.
const (
	DefaultExerciseName     = "Exercise"
	DefaultExerciseDuration = 30
)

// Exercise is one timed interval of a workout
type Exercise struct {
	ID       int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string `json:"name" yaml:"name"`
	Duration int    `json:"duration" yaml:"duration"` // seconds
	Order    int    `json:"order" yaml:"order"`
}

// Seconds returns the duration clamped to zero.
func (e Exercise) Seconds() int {
	if e.Duration < 0 {
		return 0
	}
	return e.Duration
}

// Definition is a named, ordered list of exercises, optionally repeated in circuits.
// A Definition handed to a session is treated as immutable.
type Definition struct {
	ID        int64      `json:"id,omitempty" yaml:"id,omitempty"`
	Name      string     `json:"name" yaml:"name"`
	Circuits  int        `json:"circuits,omitempty" yaml:"circuits,omitempty"` // 0 = not configured
	Exercises []Exercise `json:"exercises" yaml:"exercises"`
}

// CircuitsConfigured reports whether an explicit circuit count was set.
func (d Definition) CircuitsConfigured() bool {
	return d.Circuits > 0
}

// CircuitCount returns the number of passes, defaulting to 1.
func (d Definition) CircuitCount() int {
	if d.Circuits > 0 {
		return d.Circuits
	}
	return 1
}

// PassDuration returns the length of one pass through the exercises.
func (d Definition) PassDuration() time.Duration {
	var total time.Duration
	for _, e := range d.Exercises {
		total += time.Duration(e.Seconds()) * time.Second
	}
	return total
}

// TotalDuration returns the length of all circuits.
func (d Definition) TotalDuration() time.Duration {
	return d.PassDuration() * time.Duration(d.CircuitCount())
}

// Validate checks that a session can be run from d.
func (d Definition) Validate() error {
	if len(d.Exercises) == 0 {
		return &PreconditionError{Reason: "workout has no exercises"}
	}
	return nil
}

// Normalized returns a copy with exercises stably sorted by Order.
func (d Definition) Normalized() Definition {
	out := d
	out.Exercises = make([]Exercise, len(d.Exercises))
	copy(out.Exercises, d.Exercises)
	sort.SliceStable(out.Exercises, func(i, j int) bool {
		return out.Exercises[i].Order < out.Exercises[j].Order
	})
	return out
}

// PrepareForSave validates a definition about to be stored and fills exercise
// defaults. Exercise order is rewritten to the slice position.
func PrepareForSave(d Definition) (Definition, error) {
	out := d
	out.Name = strings.TrimSpace(d.Name)
	if out.Name == "" {
		return Definition{}, &PreconditionError{Reason: "Name is required"}
	}
	if out.Circuits < 0 {
		out.Circuits = 0
	}
	out.Exercises = make([]Exercise, len(d.Exercises))
	for i, e := range d.Exercises {
		if strings.TrimSpace(e.Name) == "" {
			e.Name = DefaultExerciseName
		}
		if e.Duration == 0 {
			e.Duration = DefaultExerciseDuration
		}
		e.Order = i
		out.Exercises[i] = e
	}
	return out, nil
}

// Loader resolves a workout id to its definition.
type Loader interface {
	FetchWorkout(ctx context.Context, id int64) (Definition, error)
}

// Repository is the CRUD collaborator for workout definitions.
type Repository interface {
	Loader
	ListWorkouts(ctx context.Context) ([]Definition, error)
	CreateWorkout(ctx context.Context, d Definition) (Definition, error)
	UpdateWorkout(ctx context.Context, id int64, d Definition) (Definition, error)
	DeleteWorkout(ctx context.Context, id int64) error
}

// Load fetches, normalizes and validates a workout for a session.
// Every failure is returned as a *LoadError.
func Load(ctx context.Context, loader Loader, id int64) (Definition, error) {
	if id <= 0 {
		return Definition{}, &LoadError{ID: id, Err: &NotFoundError{ID: id}}
	}
	d, err := loader.FetchWorkout(ctx, id)
	if err != nil {
		return Definition{}, &LoadError{ID: id, Err: classify("fetch workout", err)}
	}
	d = d.Normalized()
	if err := d.Validate(); err != nil {
		return Definition{}, &LoadError{ID: id, Err: err}
	}
	return d, nil
}
