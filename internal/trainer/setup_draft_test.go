package trainer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/circuit-timer/internal/workout"
)

func TestNewSetupDraft(t *testing.T) {
	d := NewSetupDraft()
	assert.False(t, d.Editing())
	assert.Equal(t, "Create New Workout", d.Title())
	assert.Equal(t, "Save Workout", d.SaveLabel())
	assert.Equal(t, "1", d.Circuits)
	assert.Equal(t, []ExerciseDraft{{Name: "", Duration: "30"}}, d.Exercises)
}

func TestSetupDraft_Definition(t *testing.T) {
	d := SetupDraft{
		Name:     "  Full Body ",
		Circuits: "3",
		Exercises: []ExerciseDraft{
			{Name: " Burpees ", Duration: "45"},
			{Name: "Plank", Duration: " 60 "},
		},
	}

	def, err := d.Definition()
	require.NoError(t, err)
	assert.Equal(t, "Full Body", def.Name)
	assert.Equal(t, 3, def.Circuits)
	assert.Equal(t, []workout.Exercise{
		{Name: "Burpees", Duration: 45, Order: 0},
		{Name: "Plank", Duration: 60, Order: 1},
	}, def.Exercises)
}

func TestSetupDraft_DefinitionRejects(t *testing.T) {
	one := []ExerciseDraft{{Name: "Squat", Duration: "30"}}
	tests := []struct {
		name   string
		draft  SetupDraft
		reason string
	}{
		{"empty name", SetupDraft{Circuits: "1", Exercises: one}, msgNameRequired},
		{"blank name", SetupDraft{Name: "\t ", Exercises: one}, msgNameRequired},
		{"no rows", SetupDraft{Name: "Legs"}, msgExerciseRequired},
		{"zero circuits", SetupDraft{Name: "Legs", Circuits: "0", Exercises: one}, "Circuits must be a whole number of at least 1"},
		{"text circuits", SetupDraft{Name: "Legs", Circuits: "two", Exercises: one}, "Circuits must be a whole number of at least 1"},
		{
			"empty duration",
			SetupDraft{Name: "Legs", Exercises: []ExerciseDraft{{Name: "A", Duration: "30"}, {Name: "B", Duration: ""}}},
			"Exercise 2: duration must be at least 1 second",
		},
		{
			"negative duration",
			SetupDraft{Name: "Legs", Exercises: []ExerciseDraft{{Name: "A", Duration: "-5"}}},
			"Exercise 1: duration must be at least 1 second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.draft.Definition()
			require.Error(t, err)
			var pe *workout.PreconditionError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.reason, pe.Reason)
		})
	}
}

func TestSetupDraft_EmptyCircuitsMeansOne(t *testing.T) {
	def, err := SetupDraft{Name: "Legs", Exercises: []ExerciseDraft{{Duration: "10"}}}.Definition()
	require.NoError(t, err)
	assert.Equal(t, 1, def.Circuits)
}

func TestDraftFromDefinition(t *testing.T) {
	def := workout.Definition{
		ID:       7,
		Name:     "Core",
		Circuits: 0,
		Exercises: []workout.Exercise{
			{Name: "Second", Duration: 20, Order: 1},
			{Name: "First", Duration: 40, Order: 0},
		},
	}

	d := DraftFromDefinition(def)
	assert.True(t, d.Editing())
	assert.Equal(t, "Edit Workout", d.Title())
	assert.Equal(t, "Update Workout", d.SaveLabel())
	assert.Equal(t, "1", d.Circuits)
	assert.Equal(t, []ExerciseDraft{{Name: "First", Duration: "40"}, {Name: "Second", Duration: "20"}}, d.Exercises)

	back, err := d.Definition()
	require.NoError(t, err)
	assert.Equal(t, int64(7), back.ID)
	assert.Equal(t, "First", back.Exercises[0].Name)
}

func TestSetupDraft_Rows(t *testing.T) {
	d := NewSetupDraft()
	d.Exercises[0].Name = "A"

	grown := d.WithExerciseAdded()
	require.Len(t, grown.Exercises, 2)
	assert.Len(t, d.Exercises, 1, "original draft untouched")

	shrunk := grown.WithExerciseRemoved(0)
	assert.Equal(t, []ExerciseDraft{{Duration: "30"}}, shrunk.Exercises)
	assert.Equal(t, "A", grown.Exercises[0].Name, "removal copies")

	assert.Equal(t, grown.Exercises, grown.WithExerciseRemoved(2).Exercises)
	assert.Equal(t, grown.Exercises, grown.WithExerciseRemoved(-1).Exercises)
}
