package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/circuit-timer/internal/session"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// memoryRepo is an in-memory workout.Repository. Setting err fails every call.
type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	workouts map[int64]workout.Definition
	err      error
}

func newMemoryRepo(defs ...workout.Definition) *memoryRepo {
	r := &memoryRepo{workouts: make(map[int64]workout.Definition)}
	for _, d := range defs {
		if _, err := r.CreateWorkout(context.Background(), d); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *memoryRepo) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *memoryRepo) ListWorkouts(context.Context) ([]workout.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]workout.Definition, 0, len(r.workouts))
	for _, d := range r.workouts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) FetchWorkout(_ context.Context, id int64) (workout.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return workout.Definition{}, r.err
	}
	d, ok := r.workouts[id]
	if !ok {
		return workout.Definition{}, &workout.NotFoundError{ID: id}
	}
	return d, nil
}

func (r *memoryRepo) CreateWorkout(_ context.Context, d workout.Definition) (workout.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return workout.Definition{}, r.err
	}
	prepared, err := workout.PrepareForSave(d)
	if err != nil {
		return workout.Definition{}, err
	}
	r.nextID++
	prepared.ID = r.nextID
	r.workouts[prepared.ID] = prepared
	return prepared, nil
}

func (r *memoryRepo) UpdateWorkout(_ context.Context, id int64, d workout.Definition) (workout.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return workout.Definition{}, r.err
	}
	if _, ok := r.workouts[id]; !ok {
		return workout.Definition{}, &workout.NotFoundError{ID: id}
	}
	prepared, err := workout.PrepareForSave(d)
	if err != nil {
		return workout.Definition{}, err
	}
	prepared.ID = id
	r.workouts[id] = prepared
	return prepared, nil
}

func (r *memoryRepo) DeleteWorkout(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.workouts[id]; !ok {
		return &workout.NotFoundError{ID: id}
	}
	delete(r.workouts, id)
	return nil
}

func (r *memoryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workouts)
}

// manualTicker delivers a tick only when the test fires it while armed.
type manualTicker struct {
	mu    sync.Mutex
	ch    chan time.Time
	armed bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Reset(time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = true
}

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
}

func (t *manualTicker) fire(tb testing.TB) {
	tb.Helper()
	t.mu.Lock()
	armed := t.armed
	t.mu.Unlock()
	require.True(tb, armed, "ticker is not armed")
	select {
	case t.ch <- time.Now():
	case <-time.After(time.Second):
		tb.Fatal("Timeout delivering tick")
	}
}

type manualClock struct {
	ticker *manualTicker
}

func (c *manualClock) NewTicker(time.Duration) session.Ticker { return c.ticker }

// recordingWake records activity changes and Close in call order.
type recordingWake struct {
	mu    sync.Mutex
	calls []string
}

func (w *recordingWake) SetActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, fmt.Sprintf("active=%v", active))
}

func (w *recordingWake) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, "close")
}

func (w *recordingWake) Calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

type countingCue struct {
	mu sync.Mutex
	n  int
}

func (c *countingCue) EmitCompletionCue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *countingCue) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type controllerFixture struct {
	controller *UIController
	model      *UIModel
	repo       *memoryRepo
	ticker     *manualTicker
	cue        *countingCue
	wakes      []*recordingWake
	wakesMu    sync.Mutex
	statePath  string
	logs       *lockedBuffer
}

func (f *controllerFixture) lastWake(t *testing.T) *recordingWake {
	t.Helper()
	f.wakesMu.Lock()
	defer f.wakesMu.Unlock()
	require.NotEmpty(t, f.wakes)
	return f.wakes[len(f.wakes)-1]
}

func newControllerFixture(t *testing.T, repo *memoryRepo) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		repo:      repo,
		ticker:    &manualTicker{ch: make(chan time.Time)},
		cue:       &countingCue{},
		statePath: filepath.Join(t.TempDir(), "ui_state.json"),
		logs:      &lockedBuffer{},
	}
	logger := log.New(f.logs, "", 0)
	f.model = NewUIModel(logger, make(chan string))
	f.controller = NewUIController(NewUIControllerArg{
		Model: f.model,
		Repo:  repo,
		Cue:   f.cue,
		NewWake: func() SessionWake {
			w := &recordingWake{}
			f.wakesMu.Lock()
			f.wakes = append(f.wakes, w)
			f.wakesMu.Unlock()
			return w
		},
		Clock:     &manualClock{ticker: f.ticker},
		StatePath: f.statePath,
		Logger:    logger,
	})
	t.Cleanup(func() {
		f.controller.Shutdown()
		f.model.Shutdown()
	})
	return f
}

func quickWorkout() workout.Definition {
	return workout.Definition{
		Name:     "Quick",
		Circuits: 1,
		Exercises: []workout.Exercise{
			{Name: "Jump", Duration: 2},
			{Name: "Rest", Duration: 1},
		},
	}
}

func TestNewUIController_PanicsOnNilDeps(t *testing.T) {
	logger := log.New(&lockedBuffer{}, "", 0)
	model := NewUIModel(logger, make(chan string))
	defer model.Shutdown()
	repo := newMemoryRepo()

	assert.Panics(t, func() { NewUIController(NewUIControllerArg{Repo: repo, Logger: logger}) })
	assert.Panics(t, func() { NewUIController(NewUIControllerArg{Model: model, Logger: logger}) })
	assert.Panics(t, func() { NewUIController(NewUIControllerArg{Model: model, Repo: repo}) })
}

func TestUIController_RefreshSelectsFirstWorkout(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout(), workout.Definition{Name: "Second"}))

	f.controller.RefreshWorkouts()

	assert.Len(t, f.model.GetWorkouts(), 2)
	assert.Equal(t, int64(1), f.model.GetUIState().SelectedWorkoutID)
}

func TestUIController_RefreshRestoresRememberedWorkout(t *testing.T) {
	repo := newMemoryRepo(quickWorkout(), workout.Definition{Name: "Second"})
	dir := t.TempDir()
	statePath := filepath.Join(dir, "ui_state.json")
	require.NoError(t, os.WriteFile(statePath, []byte(`{"last_workout_id": 2}`), 0o644))

	logger := log.New(&lockedBuffer{}, "", 0)
	model := NewUIModel(logger, make(chan string))
	defer model.Shutdown()
	c := NewUIController(NewUIControllerArg{Model: model, Repo: repo, StatePath: statePath, Logger: logger})
	defer c.Shutdown()

	c.RefreshWorkouts()
	assert.Equal(t, int64(2), model.GetUIState().SelectedWorkoutID)
}

func TestUIController_RefreshFailureShowsStatus(t *testing.T) {
	repo := newMemoryRepo(quickWorkout())
	f := newControllerFixture(t, repo)
	f.controller.RefreshWorkouts()

	repo.failWith(&workout.TransportError{Op: "list workouts", Err: errors.New("connection refused")})
	f.controller.RefreshWorkouts()

	status := f.model.GetStatus()
	assert.True(t, status.Error)
	assert.Contains(t, status.Text, msgListFailed)
	assert.Contains(t, status.Text, "connection refused")
	assert.Len(t, f.model.GetWorkouts(), 1, "local state is left unchanged")
}

func TestUIController_OpenSession(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout()))

	f.controller.OpenSession(1)

	ui := f.model.GetUIState()
	assert.Equal(t, UIModeSession, ui.Mode)
	assert.True(t, ui.SessionOpen)
	assert.Equal(t, int64(1), ui.SelectedWorkoutID)

	state := f.model.GetSessionState()
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, session.StatusIdle, state.Status)
	assert.Equal(t, 2, state.TimeLeft)
	assert.Equal(t, "Quick", state.Workout.Name)

	raw, err := os.ReadFile(f.statePath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"last_workout_id": 1`)
}

func TestUIController_OpenSessionLoadFailure(t *testing.T) {
	tests := []struct {
		name   string
		repo   *memoryRepo
		id     int64
		reason string
	}{
		{name: "missing workout", repo: newMemoryRepo(), id: 9, reason: "workout 9 not found"},
		{name: "invalid id", repo: newMemoryRepo(), id: 0, reason: "workout 0 not found"},
		{name: "no exercises", repo: newMemoryRepo(workout.Definition{Name: "Empty"}), id: 1, reason: "workout has no exercises"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t, tt.repo)

			f.controller.OpenSession(tt.id)

			assert.Equal(t, UIModeWorkoutList, f.model.GetUIState().Mode)
			assert.False(t, f.model.GetUIState().SessionOpen)
			assert.Empty(t, f.model.GetSessionState().SessionID)
			status := f.model.GetStatus()
			assert.True(t, status.Error)
			assert.Equal(t, msgLoadFailed+": "+tt.reason, status.Text)

			f.wakesMu.Lock()
			assert.Empty(t, f.wakes, "no wake coordinator for a session that never started")
			f.wakesMu.Unlock()
		})
	}
}

func TestUIController_ToggleAndTicksReachModel(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout()))
	f.controller.OpenSession(1)

	f.controller.ToggleTimer()
	assert.Equal(t, session.StatusRunning, f.model.GetSessionState().Status)
	assert.Equal(t, []string{"active=true"}, f.lastWake(t).Calls())

	f.ticker.fire(t)
	assert.Eventually(t, func() bool {
		return f.model.GetSessionState().TimeLeft == 1
	}, time.Second, 5*time.Millisecond)

	f.ticker.fire(t)
	assert.Eventually(t, func() bool {
		s := f.model.GetSessionState()
		return s.CurrentExerciseIndex == 1 && s.TimeLeft == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.cue.count())

	f.ticker.fire(t)
	assert.Eventually(t, func() bool {
		return f.model.GetSessionState().IsFinished
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, f.cue.count())
	assert.Equal(t, []string{"active=true", "active=false"}, f.lastWake(t).Calls())
}

func TestUIController_ResetSession(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout()))
	f.controller.OpenSession(1)
	f.controller.ToggleTimer()
	f.ticker.fire(t)

	f.controller.ResetSession()

	state := f.model.GetSessionState()
	assert.Equal(t, session.StatusIdle, state.Status)
	assert.Equal(t, 0, state.CurrentExerciseIndex)
	assert.Equal(t, 2, state.TimeLeft)
}

func TestUIController_LeaveSessionStopsEngineBeforeWake(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout()))
	f.controller.OpenSession(1)
	f.controller.ToggleTimer()

	f.controller.LeaveSession()

	assert.Equal(t, []string{"active=true", "active=false", "close"}, f.lastWake(t).Calls())
	assert.Equal(t, UIModeWorkoutList, f.model.GetUIState().Mode)
	assert.False(t, f.model.GetUIState().SessionOpen)
	assert.Empty(t, f.model.GetSessionState().SessionID)

	// No session left to drive
	f.controller.ToggleTimer()
	assert.Contains(t, f.logs.String(), "UIController: no session open")
}

func TestUIController_OpeningAnotherSessionClosesThePrevious(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout(), quickWorkout()))
	f.controller.OpenSession(1)
	first := f.lastWake(t)
	firstID := f.model.GetSessionState().SessionID

	f.controller.OpenSession(2)

	assert.Equal(t, []string{"close"}, first.Calls())
	assert.NotEqual(t, firstID, f.model.GetSessionState().SessionID)
	assert.Equal(t, int64(2), f.model.GetUIState().SelectedWorkoutID)
}

func TestUIController_SaveWorkoutValidation(t *testing.T) {
	tests := []struct {
		name   string
		draft  SetupDraft
		reason string
	}{
		{
			name:   "missing name",
			draft:  SetupDraft{Name: "  ", Circuits: "1", Exercises: []ExerciseDraft{{Name: "Jump", Duration: "30"}}},
			reason: msgNameRequired,
		},
		{
			name:   "no exercises",
			draft:  SetupDraft{Name: "Legs", Circuits: "1"},
			reason: msgExerciseRequired,
		},
		{
			name:   "zero duration",
			draft:  SetupDraft{Name: "Legs", Exercises: []ExerciseDraft{{Name: "Squat", Duration: "0"}}},
			reason: "Exercise 1: duration must be at least 1 second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryRepo()
			f := newControllerFixture(t, repo)
			f.controller.NewWorkout()

			assert.False(t, f.controller.SaveWorkout(tt.draft))

			assert.Equal(t, StatusMessage{Text: tt.reason, Error: true}, f.model.GetStatus())
			assert.Equal(t, UIModeWorkoutSetup, f.model.GetUIState().Mode, "form stays open")
			assert.Zero(t, repo.count())
		})
	}
}

func TestUIController_CreateWorkout(t *testing.T) {
	repo := newMemoryRepo(quickWorkout())
	f := newControllerFixture(t, repo)
	f.controller.RefreshWorkouts()

	f.controller.NewWorkout()
	assert.Equal(t, UIModeWorkoutSetup, f.model.GetUIState().Mode)
	assert.Equal(t, NewSetupDraft(), f.model.GetSetupDraft())

	draft := SetupDraft{
		Name:     "Legs",
		Circuits: "",
		Exercises: []ExerciseDraft{
			{Name: "Squat", Duration: "40"},
			{Name: "", Duration: "20"},
		},
	}
	require.True(t, f.controller.SaveWorkout(draft))

	assert.Equal(t, UIModeWorkoutList, f.model.GetUIState().Mode)
	assert.Equal(t, int64(2), f.model.GetUIState().SelectedWorkoutID)
	assert.Len(t, f.model.GetWorkouts(), 2)
	assert.Equal(t, "Saved 'Legs'", f.model.GetStatus().Text)

	saved, ok := f.model.GetWorkout(2)
	require.True(t, ok)
	assert.Equal(t, 1, saved.Circuits, "circuits default to 1")
	assert.Equal(t, workout.DefaultExerciseName, saved.Exercises[1].Name)
	assert.Equal(t, 1, saved.Exercises[1].Order)
}

func TestUIController_EditWorkout(t *testing.T) {
	repo := newMemoryRepo(quickWorkout())
	f := newControllerFixture(t, repo)

	f.controller.EditWorkout(1)

	draft := f.model.GetSetupDraft()
	assert.Equal(t, UIModeWorkoutSetup, f.model.GetUIState().Mode)
	assert.Equal(t, int64(1), draft.WorkoutID)
	assert.Equal(t, "Edit Workout", draft.Title())
	assert.Equal(t, []ExerciseDraft{{Name: "Jump", Duration: "2"}, {Name: "Rest", Duration: "1"}}, draft.Exercises)

	draft.Name = "Quicker"
	draft = draft.WithExerciseRemoved(1)
	require.True(t, f.controller.SaveWorkout(draft))

	got, err := repo.FetchWorkout(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Quicker", got.Name)
	assert.Len(t, got.Exercises, 1)
	assert.Equal(t, 1, repo.count())
}

func TestUIController_EditMissingWorkout(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo())

	f.controller.EditWorkout(4)

	assert.Equal(t, UIModeWorkoutList, f.model.GetUIState().Mode)
	assert.Equal(t, msgLoadFailed+": workout 4 not found", f.model.GetStatus().Text)
}

func TestUIController_ExerciseRows(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo())
	f.controller.NewWorkout()

	typed := SetupDraft{Name: "Typed", Circuits: "2", Exercises: []ExerciseDraft{{Name: "A", Duration: "10"}}}
	f.controller.AddExerciseRow(typed)

	draft := f.model.GetSetupDraft()
	assert.Equal(t, "Typed", draft.Name, "typed values survive the rebuild")
	assert.Equal(t, []ExerciseDraft{{Name: "A", Duration: "10"}, {Duration: "30"}}, draft.Exercises)

	f.controller.RemoveExerciseRow(draft, 0)
	assert.Equal(t, []ExerciseDraft{{Duration: "30"}}, f.model.GetSetupDraft().Exercises)

	f.controller.RemoveExerciseRow(f.model.GetSetupDraft(), 5)
	assert.Len(t, f.model.GetSetupDraft().Exercises, 1)
}

func TestUIController_SaveFailureKeepsForm(t *testing.T) {
	repo := newMemoryRepo()
	f := newControllerFixture(t, repo)
	f.controller.NewWorkout()
	repo.failWith(&workout.TransportError{Op: "create workout", Err: errors.New("timeout")})

	ok := f.controller.SaveWorkout(SetupDraft{Name: "Legs", Exercises: []ExerciseDraft{{Name: "Squat", Duration: "30"}}})

	assert.False(t, ok)
	assert.Equal(t, UIModeWorkoutSetup, f.model.GetUIState().Mode)
	assert.True(t, f.model.GetStatus().Error)
	assert.Contains(t, f.model.GetStatus().Text, msgSaveFailed)
}

func TestUIController_DeleteWorkout(t *testing.T) {
	repo := newMemoryRepo(quickWorkout(), workout.Definition{Name: "Second"})
	f := newControllerFixture(t, repo)
	f.controller.RefreshWorkouts()
	f.controller.SelectWorkout(2)

	f.controller.DeleteWorkout(2)

	assert.Equal(t, 1, repo.count())
	assert.Len(t, f.model.GetWorkouts(), 1)
	assert.Equal(t, int64(1), f.model.GetUIState().SelectedWorkoutID)
	assert.Equal(t, "Workout deleted", f.model.GetStatus().Text)
}

func TestUIController_DeleteFailureLeavesList(t *testing.T) {
	repo := newMemoryRepo(quickWorkout())
	f := newControllerFixture(t, repo)
	f.controller.RefreshWorkouts()

	f.controller.DeleteWorkout(7)

	assert.Len(t, f.model.GetWorkouts(), 1)
	assert.Equal(t, StatusMessage{Text: msgDeleteFailed + ": workout 7 not found", Error: true}, f.model.GetStatus())
}

func TestUIController_Escape(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout()))

	f.controller.NewWorkout()
	f.controller.OnEscapeKey()
	assert.Equal(t, UIModeWorkoutList, f.model.GetUIState().Mode)

	f.controller.OpenSession(1)
	f.controller.OnEscapeKey()
	assert.Equal(t, UIModeWorkoutList, f.model.GetUIState().Mode)
	assert.False(t, f.model.GetUIState().SessionOpen)

	closeChan := make(chan struct{}, 1)
	unregister := f.model.ListenToCloseApplication(closeChan)
	defer unregister()
	f.controller.OnEscapeKey()

	select {
	case <-closeChan:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for close request")
	}
}

func TestUIController_SessionModeNeedsSession(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout()))

	f.controller.OnModeChange(UIModeSession)
	assert.Equal(t, UIModeWorkoutList, f.model.GetUIState().Mode)
	assert.Contains(t, f.model.GetStatus().Text, "No session open")

	f.controller.OpenSession(1)
	f.controller.OnModeChange(UIModeWorkoutList)
	f.controller.OnModeChange(UIModeSession)
	assert.Equal(t, UIModeSession, f.model.GetUIState().Mode)
}

func TestUIController_ShutdownClosesSession(t *testing.T) {
	f := newControllerFixture(t, newMemoryRepo(quickWorkout()))
	f.controller.OpenSession(1)
	f.controller.ToggleTimer()

	f.controller.Shutdown()

	assert.Equal(t, []string{"active=true", "active=false", "close"}, f.lastWake(t).Calls())
}
