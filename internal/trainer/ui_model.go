package trainer

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/circuit-timer/internal/events"
	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/session"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// UIState holds the current state of the UI that views need to render
type UIState struct {
	Mode              UIMode
	SelectedWorkoutID int64 // list cursor, 0 if nothing selected
	SessionOpen       bool
}

// StatusMessage is the one-line feedback shown under the current screen.
type StatusMessage struct {
	Text  string
	Error bool
}

type UIModel struct {
	logEvent              *events.Event[string]
	closeApplicationEvent *events.Event[struct{}]
	uiStateEvent          *events.Event[UIState]
	uiState               UIState
	workoutsEvent         *events.Event[[]workout.Definition]
	workouts              []workout.Definition
	setupDraftEvent       *events.Event[SetupDraft]
	setupDraft            SetupDraft
	sessionStateEvent     *events.Event[session.State]
	sessionState          session.State
	statusEvent           *events.Event[StatusMessage]
	status                StatusMessage
	logLines              []string
	logMu                 sync.RWMutex
	mu                    sync.RWMutex
	ctx                   context.Context
	cancel                context.CancelFunc
	wg                    sync.WaitGroup
	logger                *log.Logger
}

const maxLogLines = 1000

func NewUIModel(logger *log.Logger, uiLogChan <-chan string) *UIModel {
	if logger == nil {
		panic("UIModel: logger cannot be nil")
	}
	if uiLogChan == nil {
		panic("UIModel: uiLogChan cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	model := &UIModel{
		logEvent:              events.NewEvent[string](false),
		closeApplicationEvent: events.NewEvent[struct{}](true),
		uiStateEvent:          events.NewEvent[UIState](true),
		uiState:               UIState{Mode: UIModeWorkoutList},
		workoutsEvent:         events.NewEvent[[]workout.Definition](true),
		setupDraftEvent:       events.NewEvent[SetupDraft](true),
		setupDraft:            NewSetupDraft(),
		sessionStateEvent:     events.NewEvent[session.State](true),
		statusEvent:           events.NewEvent[StatusMessage](true),
		logLines:              make([]string, 0, maxLogLines),
		ctx:                   ctx,
		cancel:                cancel,
		logger:                logger,
	}

	// Read from the UI log channel and populate logLines
	go_func_utils.SafeGoWG(model.logger, &model.wg, func() { model.readFromLogChannel(ctx, uiLogChan) })

	return model
}

// Shutdown stops all goroutines and waits for them to finish
func (m *UIModel) Shutdown() {
	m.logger.Println("UIModel: Shutting down")
	m.cancel()
	m.wg.Wait()
	m.logger.Println("UIModel: Shutdown complete")
}

// ListenToLog registers a channel to receive log messages
// Returns a deregistration function that can be called to remove the listener
func (m *UIModel) ListenToLog(ch chan<- string) func() {
	return m.logEvent.Listen(ch)
}

// ListenToCloseApplication registers a channel to receive close application signals
func (m *UIModel) ListenToCloseApplication(ch chan<- struct{}) func() {
	return m.closeApplicationEvent.Listen(ch)
}

// RequestCloseApplication signals that the application should close
func (m *UIModel) RequestCloseApplication() {
	m.closeApplicationEvent.Notify(struct{}{})
}

// ListenToUIState registers a channel to receive UI state changes
func (m *UIModel) ListenToUIState(ch chan<- UIState) func() {
	return m.uiStateEvent.Listen(ch)
}

// GetUIState returns the current UI state
func (m *UIModel) GetUIState() UIState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uiState
}

// SetMode updates the current UI mode and notifies listeners
func (m *UIModel) SetMode(mode UIMode) {
	m.updateUIState(func(s *UIState) { s.Mode = mode })
}

// SetSelectedWorkout moves the list cursor to id.
func (m *UIModel) SetSelectedWorkout(id int64) {
	m.updateUIState(func(s *UIState) { s.SelectedWorkoutID = id })
}

func (m *UIModel) setSessionOpen(open bool) {
	m.updateUIState(func(s *UIState) { s.SessionOpen = open })
}

func (m *UIModel) updateUIState(update func(*UIState)) {
	m.mu.Lock()
	before := m.uiState
	update(&m.uiState)
	state := m.uiState
	m.mu.Unlock()

	if state == before {
		return
	}
	m.uiStateEvent.Notify(state)
}

// ListenToWorkouts registers a channel to receive the saved workout list
func (m *UIModel) ListenToWorkouts(ch chan<- []workout.Definition) func() {
	return m.workoutsEvent.Listen(ch)
}

// GetWorkouts returns the last loaded workout list
func (m *UIModel) GetWorkouts() []workout.Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]workout.Definition(nil), m.workouts...)
}

// GetWorkout looks up a workout in the loaded list.
func (m *UIModel) GetWorkout(id int64) (workout.Definition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.workouts {
		if w.ID == id {
			return w, true
		}
	}
	return workout.Definition{}, false
}

// SetWorkouts replaces the workout list and notifies listeners
func (m *UIModel) SetWorkouts(workouts []workout.Definition) {
	list := append([]workout.Definition(nil), workouts...)
	m.mu.Lock()
	m.workouts = list
	m.mu.Unlock()

	m.workoutsEvent.Notify(list)
}

// ListenToSetupDraft registers a channel to receive setup form content
func (m *UIModel) ListenToSetupDraft(ch chan<- SetupDraft) func() {
	return m.setupDraftEvent.Listen(ch)
}

// GetSetupDraft returns the current setup form content
func (m *UIModel) GetSetupDraft() SetupDraft {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setupDraft.clone()
}

// SetSetupDraft replaces the setup form content and notifies listeners
func (m *UIModel) SetSetupDraft(draft SetupDraft) {
	draft = draft.clone()
	m.mu.Lock()
	m.setupDraft = draft
	m.mu.Unlock()

	m.setupDraftEvent.Notify(draft)
}

// ListenToSessionState registers a channel to receive session progress
func (m *UIModel) ListenToSessionState(ch chan<- session.State) func() {
	return m.sessionStateEvent.Listen(ch)
}

// GetSessionState returns the latest session snapshot. SessionID is empty
// when no session is open.
func (m *UIModel) GetSessionState() session.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionState
}

// SetSessionState stores a session snapshot and notifies listeners
func (m *UIModel) SetSessionState(state session.State) {
	m.mu.Lock()
	m.sessionState = state
	m.mu.Unlock()

	m.sessionStateEvent.Notify(state)
}

// ListenToStatus registers a channel to receive status line changes
func (m *UIModel) ListenToStatus(ch chan<- StatusMessage) func() {
	return m.statusEvent.Listen(ch)
}

// GetStatus returns the current status line
func (m *UIModel) GetStatus() StatusMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// SetStatus replaces the status line and notifies listeners
func (m *UIModel) SetStatus(msg StatusMessage) {
	m.mu.Lock()
	m.status = msg
	m.mu.Unlock()

	m.statusEvent.Notify(msg)
}

// readFromLogChannel reads log lines from the channel and populates logLines
func (m *UIModel) readFromLogChannel(ctx context.Context, logChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-logChan:
			if !ok {
				return
			}

			m.logMu.Lock()
			m.logLines = append(m.logLines, line)
			if len(m.logLines) > maxLogLines {
				m.logLines = m.logLines[len(m.logLines)-maxLogLines:]
			}
			m.logMu.Unlock()

			m.logEvent.Notify(line)
		}
	}
}

// GetLogTail returns the last n lines of logs
func (m *UIModel) GetLogTail(n int) []string {
	m.logMu.RLock()
	defer m.logMu.RUnlock()

	if n <= 0 {
		return []string{}
	}

	if n >= len(m.logLines) {
		result := make([]string, len(m.logLines))
		copy(result, m.logLines)
		return result
	}

	result := make([]string, n)
	copy(result, m.logLines[len(m.logLines)-n:])
	return result
}
