package trainer

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeWorkoutList  UIMode = iota // Saved workouts and their details
	UIModeWorkoutSetup               // Create or edit form
	UIModeSession                    // Running countdown
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // 0 when the mode is only reachable through an action
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeWorkoutList, DisplayName: "Workouts", KeyBinding: '1'},
	{Mode: UIModeSession, DisplayName: "Session", KeyBinding: '2'},
	{Mode: UIModeWorkoutSetup, DisplayName: "Workout Setup"},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	if key == 0 {
		return 0, false
	}
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// Messages shown in the status line. The wording follows the web client this
// tool replaced so existing users recognise them.
const (
	msgNameRequired     = "Please enter a workout name"
	msgExerciseRequired = "Please add at least one exercise"
	msgLoadFailed       = "Failed to load workout"
	msgSaveFailed       = "Failed to save workout"
	msgDeleteFailed     = "Failed to delete workout"
	msgListFailed       = "Failed to load workouts"
	msgConfirmDelete    = "Are you sure you want to delete this workout?"
)

// Setup form defaults for a new exercise row.
const (
	defaultDraftCircuits = "1"
	defaultDraftDuration = "30"
)

// progressBarWidth is the number of cells in the session progress bar.
const progressBarWidth = 40
