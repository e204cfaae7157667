package store

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/circuit-timer/internal/workout"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "workouts.db"), log.New(&bytes.Buffer{}, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func quick() workout.Definition {
	return workout.Definition{
		Name:     "Quick",
		Circuits: 1,
		Exercises: []workout.Exercise{
			{Name: "Jump", Duration: 2},
			{Name: "Rest", Duration: 1},
		},
	}
}

func TestOpen_PanicsWithoutLogger(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Open(filepath.Join(t.TempDir(), "x.db"), nil)
	})
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workouts.db")
	logger := log.New(&bytes.Buffer{}, "", 0)
	ctx := context.Background()

	s, err := Open(path, logger)
	require.NoError(t, err)
	created, err := s.CreateWorkout(ctx, quick())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, logger)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.FetchWorkout(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Quick", got.Name)
}

func TestStore_CreateAndFetch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateWorkout(ctx, quick())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, created.Circuits)
	require.Len(t, created.Exercises, 2)
	assert.Equal(t, "Jump", created.Exercises[0].Name)
	assert.Equal(t, 0, created.Exercises[0].Order)
	assert.Equal(t, 1, created.Exercises[1].Order)
	assert.NotZero(t, created.Exercises[0].ID)

	got, err := s.FetchWorkout(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestStore_CreateAppliesDefaults(t *testing.T) {
	s := openTestStore(t)

	created, err := s.CreateWorkout(context.Background(), workout.Definition{
		Name:      "  Padded  ",
		Exercises: []workout.Exercise{{}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Padded", created.Name)
	assert.Equal(t, 0, created.Circuits, "circuits stay unconfigured")
	assert.Equal(t, workout.DefaultExerciseName, created.Exercises[0].Name)
	assert.Equal(t, workout.DefaultExerciseDuration, created.Exercises[0].Duration)
}

func TestStore_CreateRequiresName(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CreateWorkout(context.Background(), workout.Definition{Name: " "})
	var pe *workout.PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Name is required", pe.Reason)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_FetchMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.FetchWorkout(context.Background(), 42)
	assert.True(t, workout.IsNotFound(err))
}

func TestStore_UpdateReplacesExercises(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateWorkout(ctx, quick())
	require.NoError(t, err)

	updated, err := s.UpdateWorkout(ctx, created.ID, workout.Definition{
		Name:      "Longer",
		Circuits:  3,
		Exercises: []workout.Exercise{{Name: "Squat", Duration: 40}},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Longer", updated.Name)
	assert.Equal(t, 3, updated.Circuits)
	require.Len(t, updated.Exercises, 1)
	assert.Equal(t, "Squat", updated.Exercises[0].Name)

	got, err := s.FetchWorkout(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.UpdateWorkout(context.Background(), 7, quick())
	assert.True(t, workout.IsNotFound(err))
}

func TestStore_DeleteCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.CreateWorkout(ctx, quick())
	require.NoError(t, err)

	require.NoError(t, s.DeleteWorkout(ctx, created.ID))
	assert.True(t, workout.IsNotFound(s.DeleteWorkout(ctx, created.ID)))

	var orphans int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM exercises`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestStore_ListWorkouts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.ListWorkouts(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	a, err := s.CreateWorkout(ctx, quick())
	require.NoError(t, err)
	b, err := s.CreateWorkout(ctx, workout.Definition{Name: "Bare"})
	require.NoError(t, err)

	list, err := s.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a, list[0])
	assert.Equal(t, b.ID, list[1].ID)
	assert.NotNil(t, list[1].Exercises)
	assert.Empty(t, list[1].Exercises)
}

func TestStore_SeedDefaultsOnlyWhenEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.Seed(ctx, "")
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	again, err := s.Seed(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, again)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestStore_SeedFromFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`workouts:
  - name: Legs
    circuits: 2
    exercises:
      - {name: Lunge, duration: 20, order: 1}
      - {name: Squat, duration: 25, order: 0}
`), 0o644))

	n, err := s.Seed(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := s.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Squat", list[0].Exercises[0].Name, "seed order is honoured")
	assert.Equal(t, 2, list[0].Circuits)
}

func TestStore_ImportRejectsInvalid(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Import(context.Background(), strings.NewReader("workouts:\n  - name: ''\n"))
	assert.ErrorContains(t, err, "Name is required")
}
