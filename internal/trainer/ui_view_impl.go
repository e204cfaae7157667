package trainer

import (
	"github.com/lowaak/circuit-timer/internal/session"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// UIViewImpl defines the interface for framework-specific UI implementations
type UIViewImpl interface {
	// Initialize is called after construction to set up framework-specific widgets
	// controller is used to handle UI events
	Initialize(controller *UIController)

	// SetupKeyboardHandlers sets up keyboard event handlers
	SetupKeyboardHandlers(controller *UIController)

	// Run starts the UI framework and blocks until it exits
	Run() error

	// Stop stops the UI framework
	Stop()

	// Draw refreshes/redraws the UI
	Draw() error

	// --- Mode Management ---

	// SetMode switches the UI to the specified mode
	SetMode(mode UIMode)

	// GetCurrentMode returns the currently active UI mode
	GetCurrentMode() UIMode

	// SetStatusMessage shows one line of feedback below the current mode
	SetStatusMessage(msg StatusMessage)

	// --- Log View (shared across modes) ---

	// GetLogViewHeight returns the visible height of the log view
	GetLogViewHeight() int

	// ClearLogView clears the log view
	ClearLogView()

	// WriteLogLine writes a line to the log view
	WriteLogLine(line string) error

	// --- Workout List Mode ---

	// SetWorkoutList populates the workout list
	SetWorkoutList(workouts []workout.Definition)

	// SetSelectedWorkout moves the list cursor to the workout with id
	SetSelectedWorkout(id int64)

	// --- Workout Setup Mode ---

	// SetSetupDraft rebuilds the setup form from draft
	SetSetupDraft(draft SetupDraft)

	// --- Session Mode ---

	// UpdateSessionState renders a session snapshot
	UpdateSessionState(state session.State)
}
