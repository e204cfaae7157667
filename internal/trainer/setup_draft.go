package trainer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lowaak/circuit-timer/internal/workout"
)

// ExerciseDraft is one editable row of the setup form. Duration is kept as
// typed so a half-edited value survives re-rendering the form.
type ExerciseDraft struct {
	Name     string
	Duration string
}

// SetupDraft is the content of the setup form.
type SetupDraft struct {
	WorkoutID int64 // 0 while creating
	Name      string
	Circuits  string
	Exercises []ExerciseDraft
}

// NewSetupDraft returns the form for a new workout: one circuit, one empty
// 30 second exercise.
func NewSetupDraft() SetupDraft {
	return SetupDraft{
		Circuits:  defaultDraftCircuits,
		Exercises: []ExerciseDraft{newExerciseDraft()},
	}
}

func newExerciseDraft() ExerciseDraft {
	return ExerciseDraft{Duration: defaultDraftDuration}
}

// DraftFromDefinition fills the form from a stored workout.
func DraftFromDefinition(d workout.Definition) SetupDraft {
	d = d.Normalized()
	draft := SetupDraft{
		WorkoutID: d.ID,
		Name:      d.Name,
		Circuits:  strconv.Itoa(d.CircuitCount()),
		Exercises: make([]ExerciseDraft, 0, len(d.Exercises)),
	}
	for _, e := range d.Exercises {
		draft.Exercises = append(draft.Exercises, ExerciseDraft{
			Name:     e.Name,
			Duration: strconv.Itoa(e.Duration),
		})
	}
	return draft
}

// Editing reports whether the draft updates an existing workout.
func (d SetupDraft) Editing() bool {
	return d.WorkoutID > 0
}

// Title is the heading of the form.
func (d SetupDraft) Title() string {
	if d.Editing() {
		return "Edit Workout"
	}
	return "Create New Workout"
}

// SaveLabel is the caption of the save button.
func (d SetupDraft) SaveLabel() string {
	if d.Editing() {
		return "Update Workout"
	}
	return "Save Workout"
}

// WithExerciseAdded returns a copy with an empty row appended.
func (d SetupDraft) WithExerciseAdded() SetupDraft {
	out := d.clone()
	out.Exercises = append(out.Exercises, newExerciseDraft())
	return out
}

// WithExerciseRemoved returns a copy without row index. Out of range
// indexes leave the draft unchanged.
func (d SetupDraft) WithExerciseRemoved(index int) SetupDraft {
	out := d.clone()
	if index < 0 || index >= len(out.Exercises) {
		return out
	}
	out.Exercises = append(out.Exercises[:index], out.Exercises[index+1:]...)
	return out
}

func (d SetupDraft) clone() SetupDraft {
	out := d
	out.Exercises = append([]ExerciseDraft(nil), d.Exercises...)
	return out
}

// Definition validates the draft and converts it for saving. Validation
// failures are *workout.PreconditionError with a message fit for the status
// line. Exercise order is the row position.
func (d SetupDraft) Definition() (workout.Definition, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return workout.Definition{}, &workout.PreconditionError{Reason: msgNameRequired}
	}
	if len(d.Exercises) == 0 {
		return workout.Definition{}, &workout.PreconditionError{Reason: msgExerciseRequired}
	}

	circuits := 1
	if s := strings.TrimSpace(d.Circuits); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return workout.Definition{}, &workout.PreconditionError{Reason: "Circuits must be a whole number of at least 1"}
		}
		circuits = n
	}

	def := workout.Definition{
		ID:        d.WorkoutID,
		Name:      name,
		Circuits:  circuits,
		Exercises: make([]workout.Exercise, 0, len(d.Exercises)),
	}
	for i, row := range d.Exercises {
		seconds, err := strconv.Atoi(strings.TrimSpace(row.Duration))
		if err != nil || seconds < 1 {
			return workout.Definition{}, &workout.PreconditionError{
				Reason: fmt.Sprintf("Exercise %d: duration must be at least 1 second", i+1),
			}
		}
		def.Exercises = append(def.Exercises, workout.Exercise{
			Name:     strings.TrimSpace(row.Name),
			Duration: seconds,
			Order:    i,
		})
	}
	return def, nil
}
