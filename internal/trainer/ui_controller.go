package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/session"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// SessionWake follows the activity of one session and is closed with it.
// *wake.Coordinator satisfies it.
type SessionWake interface {
	session.ActivityObserver
	Close()
}

// activeSession is the engine shown on the session screen together with the
// resources created for it.
type activeSession struct {
	workoutID int64
	engine    *session.Engine
	wake      SessionWake // nil without a wake factory
	cancel    context.CancelFunc
	done      chan struct{} // closed when the state forwarder exits
}

// UIController handles UI events and coordinates with the UIModel
type UIController struct {
	model       *UIModel
	repo        workout.Repository
	cue         session.CuePlayer
	newWake     func() SessionWake
	clock       session.Clock
	persistence *uiModelPersistence
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	sessionMu sync.Mutex
	session   *activeSession
}

// NewUIControllerArg holds the arguments for NewUIController
type NewUIControllerArg struct {
	Model     *UIModel
	Repo      workout.Repository
	Cue       session.CuePlayer  // optional, shared by all sessions
	NewWake   func() SessionWake // optional, called once per session
	Clock     session.Clock      // optional
	StatePath string             // remembered selection; empty keeps it in memory
	Logger    *log.Logger
}

// NewUIController creates a new UIController with the given dependencies
func NewUIController(args NewUIControllerArg) *UIController {
	if args.Model == nil {
		panic("UIController: model cannot be nil")
	}
	if args.Repo == nil {
		panic("UIController: repo cannot be nil")
	}
	if args.Logger == nil {
		panic("UIController: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &UIController{
		model:       args.Model,
		repo:        args.Repo,
		cue:         args.Cue,
		newWake:     args.NewWake,
		clock:       args.Clock,
		persistence: newUIModelPersistence(args.StatePath, args.Logger),
		logger:      args.Logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// --- Workout List ---

// RefreshWorkouts reloads the workout list. The cursor stays on the selected
// workout if it still exists, otherwise it moves to the remembered workout
// or the first one.
func (c *UIController) RefreshWorkouts() {
	list, err := c.repo.ListWorkouts(c.ctx)
	if err != nil {
		c.fail(msgListFailed, err)
		return
	}

	selected := pickSelection(list, c.model.GetUIState().SelectedWorkoutID, c.persistence.getLastWorkout())
	c.model.SetSelectedWorkout(selected)
	c.model.SetWorkouts(list)
	c.logger.Printf("UIController: loaded %d workouts", len(list))
}

func pickSelection(list []workout.Definition, preferred ...int64) int64 {
	for _, id := range preferred {
		if id == 0 {
			continue
		}
		for _, w := range list {
			if w.ID == id {
				return id
			}
		}
	}
	if len(list) > 0 {
		return list[0].ID
	}
	return 0
}

// SelectWorkout moves the list cursor.
func (c *UIController) SelectWorkout(id int64) {
	c.model.SetSelectedWorkout(id)
}

// DeleteWorkout removes a workout. The view asks for confirmation first.
func (c *UIController) DeleteWorkout(id int64) {
	if err := c.repo.DeleteWorkout(c.ctx, id); err != nil {
		c.fail(msgDeleteFailed, err)
		return
	}
	c.logger.Printf("UIController: deleted workout %d", id)

	if c.persistence.getLastWorkout() == id {
		c.persistence.setLastWorkout(0)
	}
	if c.model.GetUIState().SelectedWorkoutID == id {
		c.model.SetSelectedWorkout(0)
	}
	c.model.SetStatus(StatusMessage{Text: "Workout deleted"})
	c.RefreshWorkouts()
}

// --- Workout Setup ---

// NewWorkout opens an empty setup form.
func (c *UIController) NewWorkout() {
	c.model.SetSetupDraft(NewSetupDraft())
	c.model.SetStatus(StatusMessage{})
	c.model.SetMode(UIModeWorkoutSetup)
}

// EditWorkout opens the setup form for a stored workout.
func (c *UIController) EditWorkout(id int64) {
	def, err := c.repo.FetchWorkout(c.ctx, id)
	if err != nil {
		c.fail(msgLoadFailed, err)
		c.model.SetMode(UIModeWorkoutList)
		return
	}
	c.model.SetSetupDraft(DraftFromDefinition(def))
	c.model.SetStatus(StatusMessage{})
	c.model.SetMode(UIModeWorkoutSetup)
}

// AddExerciseRow appends an empty exercise to the form as currently typed.
func (c *UIController) AddExerciseRow(current SetupDraft) {
	c.model.SetSetupDraft(current.WithExerciseAdded())
}

// RemoveExerciseRow drops one exercise from the form as currently typed.
func (c *UIController) RemoveExerciseRow(current SetupDraft, index int) {
	if index < 0 || index >= len(current.Exercises) {
		c.logger.Printf("UIController: no exercise row %d to remove", index)
		return
	}
	c.model.SetSetupDraft(current.WithExerciseRemoved(index))
}

// SaveWorkout validates and stores the form. On failure the form stays open
// with the reason in the status line. Returns whether the workout was saved.
func (c *UIController) SaveWorkout(current SetupDraft) bool {
	def, err := current.Definition()
	if err != nil {
		c.logger.Printf("UIController: setup form rejected: %v", err)
		c.model.SetStatus(StatusMessage{Text: err.Error(), Error: true})
		return false
	}

	var saved workout.Definition
	if current.Editing() {
		saved, err = c.repo.UpdateWorkout(c.ctx, current.WorkoutID, def)
	} else {
		saved, err = c.repo.CreateWorkout(c.ctx, def)
	}
	if err != nil {
		c.fail(msgSaveFailed, err)
		return false
	}

	c.logger.Printf("UIController: saved workout %d '%s' (%d exercises)", saved.ID, saved.Name, len(saved.Exercises))
	c.persistence.setLastWorkout(saved.ID)
	c.model.SetSelectedWorkout(saved.ID)
	c.RefreshWorkouts()
	c.model.SetStatus(StatusMessage{Text: fmt.Sprintf("Saved '%s'", saved.Name)})
	c.model.SetMode(UIModeWorkoutList)
	return true
}

// CancelSetup leaves the form without saving.
func (c *UIController) CancelSetup() {
	c.model.SetStatus(StatusMessage{})
	c.model.SetMode(UIModeWorkoutList)
}

// --- Session ---

// OpenSession loads a workout and shows it Idle on the session screen. Any
// session already open is closed first. If the workout cannot be loaded no
// session is created and the list is shown with the reason.
func (c *UIController) OpenSession(id int64) {
	c.closeSession()

	def, err := workout.Load(c.ctx, c.repo, id)
	if err != nil {
		c.fail(msgLoadFailed, err)
		c.model.SetMode(UIModeWorkoutList)
		return
	}

	var wake SessionWake
	var observer session.ActivityObserver
	if c.newWake != nil {
		wake = c.newWake()
		observer = wake
	}
	engine, err := session.NewEngine(session.NewEngineArg{
		Workout: def,
		Cue:     c.cue,
		Wake:    observer,
		Clock:   c.clock,
		Logger:  c.logger,
	})
	if err != nil {
		if wake != nil {
			wake.Close()
		}
		c.fail(msgLoadFailed, err)
		c.model.SetMode(UIModeWorkoutList)
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	s := &activeSession{
		workoutID: id,
		engine:    engine,
		wake:      wake,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	// The forwarder re-reads the engine on every notification, so a skipped
	// notification never leaves the model behind.
	stateChan := make(chan session.State, 1)
	unregister := engine.ListenToState(stateChan)
	go_func_utils.SafeGoWG(c.logger, &c.wg, func() {
		defer close(s.done)
		defer unregister()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stateChan:
				c.model.SetSessionState(engine.State())
			}
		}
	})

	c.sessionMu.Lock()
	c.session = s
	c.sessionMu.Unlock()

	c.logger.Printf("UIController: session %s opened for workout %d", engine.ID(), id)
	c.persistence.setLastWorkout(id)
	c.model.SetSelectedWorkout(id)
	c.model.SetSessionState(engine.State())
	c.model.setSessionOpen(true)
	c.model.SetStatus(StatusMessage{})
	c.model.SetMode(UIModeSession)
}

// ToggleTimer starts, pauses or resumes the open session.
func (c *UIController) ToggleTimer() {
	s := c.currentSession()
	if s == nil {
		c.logger.Printf("UIController: no session open - press Enter on a workout to start one")
		return
	}
	s.engine.ToggleTimer()
	c.model.SetSessionState(s.engine.State())
}

// ResetSession returns the open session to its first exercise.
func (c *UIController) ResetSession() {
	s := c.currentSession()
	if s == nil {
		c.logger.Printf("UIController: no session open")
		return
	}
	s.engine.Reset()
	c.model.SetSessionState(s.engine.State())
}

// LeaveSession tears the open session down and returns to the list.
func (c *UIController) LeaveSession() {
	c.closeSession()
	c.model.SetMode(UIModeWorkoutList)
}

func (c *UIController) currentSession() *activeSession {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.session
}

// closeSession stops the engine before closing its wake coordinator, so the
// coordinator sees the final inactive notification.
func (c *UIController) closeSession() {
	c.sessionMu.Lock()
	s := c.session
	c.session = nil
	c.sessionMu.Unlock()
	if s == nil {
		return
	}

	s.cancel()
	<-s.done
	s.engine.Shutdown()
	if s.wake != nil {
		s.wake.Close()
	}
	c.logger.Printf("UIController: session %s closed", s.engine.ID())

	c.model.SetSessionState(session.State{})
	c.model.setSessionOpen(false)
}

// --- Navigation ---

// OnEscapeKey backs out of the current screen, closing the app from the list
func (c *UIController) OnEscapeKey() {
	switch c.model.GetUIState().Mode {
	case UIModeSession:
		c.LeaveSession()
	case UIModeWorkoutSetup:
		c.CancelSetup()
	default:
		c.model.RequestCloseApplication()
	}
}

// OnModeChange handles when the user requests a mode change
func (c *UIController) OnModeChange(mode UIMode) {
	if mode == UIModeSession && c.currentSession() == nil {
		c.model.SetStatus(StatusMessage{Text: "No session open - press Enter on a workout to start one"})
		return
	}
	if info, ok := GetUIModeInfo(mode); ok {
		c.logger.Printf("UIController: Switching to %s mode", info.DisplayName)
	}
	c.model.SetMode(mode)
}

// Shutdown closes the open session and waits for its goroutines
func (c *UIController) Shutdown() {
	c.closeSession()
	c.cancel()
	c.wg.Wait()
}

// fail logs err and shows it in the status line under title.
func (c *UIController) fail(title string, err error) {
	c.logger.Printf("UIController: %s: %v", title, err)

	reason := err
	var le *workout.LoadError
	if errors.As(err, &le) {
		reason = le.Err
	}
	c.model.SetStatus(StatusMessage{Text: fmt.Sprintf("%s: %v", title, reason), Error: true})
}
