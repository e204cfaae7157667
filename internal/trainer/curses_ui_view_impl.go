package trainer

import (
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/circuit-timer/internal/session"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// Page names for tview.Pages
const (
	pageWorkoutList  = "workout_list"
	pageWorkoutSetup = "workout_setup"
	pageSession      = "session"
	pageConfirm      = "confirm_delete"
)

// setupFixedItems is the number of form items before the exercise rows
// (name and circuits). Each exercise row is two items: name and seconds.
const setupFixedItems = 2

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	model       *UIModel
	controller  *UIController
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView    *tview.TextView
	statusText *tview.TextView
	mainFlex   *tview.Flex // Main layout: mode content on left, logs on right

	// Workout List mode components
	workoutListFlex       *tview.Flex
	workoutListTabWidgets []tview.Primitive
	workoutList           *tview.List
	workoutDetailsPanel   *tview.TextView
	workouts              []workout.Definition
	syncingList           bool // suppresses list callbacks during programmatic updates
	confirming            bool // delete confirmation is showing

	// Workout Setup mode components
	setupFlex  *tview.Flex
	setupForm  *tview.Form
	setupDraft SetupDraft

	// Session mode components
	sessionFlex  *tview.Flex
	sessionPanel *tview.TextView
}

func NewCursesUIView(logger *log.Logger, app *tview.Application, model *UIModel) *CursesUIViewImpl {
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		model:       model,
		currentMode: UIModeWorkoutList,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	ui.controller = controller

	// Don't use SetChangedFunc with app.Draw() on the log view: it can hang
	// shutdown while log lines are still arriving. BaseUIView draws instead.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.statusText = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	ui.pages = tview.NewPages()

	ui.initWorkoutListMode(controller)
	ui.initWorkoutSetupMode()
	ui.initSessionMode()

	ui.pages.AddPage(pageWorkoutList, ui.workoutListFlex, true, true)
	ui.pages.AddPage(pageWorkoutSetup, ui.setupFlex, true, false)
	ui.pages.AddPage(pageSession, ui.sessionFlex, true, false)

	leftColumn := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.pages, 0, 1, true).
		AddItem(ui.statusText, 1, 0, false)

	// Main layout: pages on left, logs on right
	ui.mainFlex = tview.NewFlex().
		AddItem(leftColumn, 0, 2, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocusForCurrentMode()
}

func newInstructions(text string) *tview.TextView {
	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructions.SetText(text)
	return instructions
}

// initWorkoutListMode sets up the Workout List mode UI
func (ui *CursesUIViewImpl) initWorkoutListMode(controller *UIController) {
	instructions := newInstructions("[yellow]Enter[white] Start  |  [yellow]N[white] New  |  [yellow]E[white] Edit  |  [yellow]D[white] Delete  |  [yellow]R[white] Refresh\n[yellow]Tab[white] Cycle Panels  |  [yellow]1[white] Workouts  |  [yellow]2[white] Session  |  [yellow]Esc[white] Quit")

	ui.workoutList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			if w, ok := ui.workoutAt(index); ok {
				ui.logger.Printf("UI: Workout chosen: id=%d, name=%s", w.ID, w.Name)
				controller.OpenSession(w.ID)
			}
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			ui.updateWorkoutDetailsDisplay(index)
			if ui.syncingList {
				return
			}
			if w, ok := ui.workoutAt(index); ok {
				controller.SelectWorkout(w.ID)
			}
		})
	ui.workoutList.SetBorder(true).SetTitle(" Workouts ")

	ui.workoutDetailsPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	ui.workoutDetailsPanel.SetBorder(true).SetTitle(" Workout Details ")
	ui.updateWorkoutDetailsDisplay(-1)

	ui.workoutListTabWidgets = []tview.Primitive{ui.workoutList, ui.workoutDetailsPanel}

	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(ui.workoutList, 0, 1, true).
		AddItem(ui.workoutDetailsPanel, 0, 1, false)

	ui.workoutListFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 2, 0, false).
		AddItem(content, 0, 1, true)
}

// initWorkoutSetupMode sets up the create/edit form. Its fields are built by
// SetSetupDraft.
func (ui *CursesUIViewImpl) initWorkoutSetupMode() {
	instructions := newInstructions("[yellow]Tab[white] Next Field  |  [yellow]Ctrl-D[white] Remove Focused Exercise  |  [yellow]Esc[white] Cancel")

	ui.setupForm = tview.NewForm()
	ui.setupForm.SetBorder(true).SetTitle(" Create New Workout ")

	ui.setupFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 1, 0, false).
		AddItem(ui.setupForm, 0, 1, true)

	ui.SetSetupDraft(NewSetupDraft())
}

// initSessionMode sets up the session screen
func (ui *CursesUIViewImpl) initSessionMode() {
	instructions := newInstructions("[yellow]Space[white] Start/Pause  |  [yellow]R[white] Reset  |  [yellow]1[white] Workouts  |  [yellow]Esc[white] End Session")

	ui.sessionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.sessionPanel.SetBorder(true).SetTitle(" Session ")
	ui.UpdateSessionState(session.State{})

	ui.sessionFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 1, 0, false).
		AddItem(ui.sessionPanel, 0, 1, true)
}

func (ui *CursesUIViewImpl) workoutAt(index int) (workout.Definition, bool) {
	if index < 0 || index >= len(ui.workouts) {
		return workout.Definition{}, false
	}
	return ui.workouts[index], true
}

func (ui *CursesUIViewImpl) selectedWorkout() (workout.Definition, bool) {
	if ui.workoutList.GetItemCount() == 0 {
		return workout.Definition{}, false
	}
	return ui.workoutAt(ui.workoutList.GetCurrentItem())
}

// SetWorkoutList populates the workout list
func (ui *CursesUIViewImpl) SetWorkoutList(workouts []workout.Definition) {
	ui.syncingList = true
	defer func() { ui.syncingList = false }()

	ui.workouts = workouts
	ui.workoutList.Clear()
	for _, w := range workouts {
		ui.workoutList.AddItem(tview.Escape(w.Name), formatWorkoutSummary(w), 0, nil)
	}

	if len(workouts) == 0 {
		ui.updateWorkoutDetailsDisplay(-1)
		return
	}
	ui.updateWorkoutDetailsDisplay(ui.workoutList.GetCurrentItem())
}

// SetSelectedWorkout moves the list cursor to the workout with id
func (ui *CursesUIViewImpl) SetSelectedWorkout(id int64) {
	for i, w := range ui.workouts {
		if w.ID != id {
			continue
		}
		if i != ui.workoutList.GetCurrentItem() {
			ui.syncingList = true
			ui.workoutList.SetCurrentItem(i)
			ui.syncingList = false
		}
		ui.updateWorkoutDetailsDisplay(i)
		return
	}
}

// updateWorkoutDetailsDisplay formats and displays the workout details
func (ui *CursesUIViewImpl) updateWorkoutDetailsDisplay(index int) {
	if ui.workoutDetailsPanel == nil {
		return
	}

	w, ok := ui.workoutAt(index)
	if !ok {
		text := "\n\n  [yellow]Workouts[white]\n\n"
		if len(ui.workouts) == 0 {
			text += "  No workouts yet. Press [yellow]N[white] to create one.\n"
		} else {
			text += "  Select a workout from the list to view details.\n"
		}
		ui.workoutDetailsPanel.SetText(text)
		return
	}
	ui.workoutDetailsPanel.SetText(formatWorkoutDetails(w))
}

// confirmDelete shows a modal over the list before deleting w.
func (ui *CursesUIViewImpl) confirmDelete(w workout.Definition) {
	ui.confirming = true
	modal := tview.NewModal().
		SetText(fmt.Sprintf("%s\n\n%s", msgConfirmDelete, tview.Escape(w.Name))).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			ui.pages.RemovePage(pageConfirm)
			ui.confirming = false
			ui.app.SetFocus(ui.workoutList)
			if buttonLabel == "Delete" {
				ui.controller.DeleteWorkout(w.ID)
			}
		})
	ui.pages.AddPage(pageConfirm, modal, true, true)
	ui.app.SetFocus(modal)
}

// SetSetupDraft rebuilds the setup form from draft. When the draft grew by
// a row, focus moves to the new row's name field.
func (ui *CursesUIViewImpl) SetSetupDraft(draft SetupDraft) {
	grew := ui.setupForm.GetFormItemCount() > 0 &&
		draft.WorkoutID == ui.setupDraft.WorkoutID &&
		len(draft.Exercises) == len(ui.setupDraft.Exercises)+1
	ui.setupDraft = draft

	form := ui.setupForm
	form.Clear(true)
	form.SetTitle(fmt.Sprintf(" %s ", draft.Title()))

	form.AddInputField("Workout Name", draft.Name, 40, nil, nil)
	form.AddInputField("Circuits", draft.Circuits, 4, tview.InputFieldInteger, nil)
	for i, e := range draft.Exercises {
		form.AddInputField(fmt.Sprintf("Exercise %d", i+1), e.Name, 30, nil, nil)
		form.AddInputField("  Seconds", e.Duration, 5, tview.InputFieldInteger, nil)
	}

	form.AddButton("Add Exercise", func() {
		ui.controller.AddExerciseRow(ui.readSetupDraft())
	})
	form.AddButton(draft.SaveLabel(), func() {
		ui.controller.SaveWorkout(ui.readSetupDraft())
	})
	form.AddButton("Cancel", func() {
		ui.controller.CancelSetup()
	})

	focus := 0
	if grew {
		focus = setupFixedItems + 2*(len(draft.Exercises)-1)
	}
	form.SetFocus(focus)
	if ui.currentMode == UIModeWorkoutSetup {
		ui.app.SetFocus(form)
	}
}

// readSetupDraft collects the form as currently typed.
func (ui *CursesUIViewImpl) readSetupDraft() SetupDraft {
	text := func(i int) string {
		if field, ok := ui.setupForm.GetFormItem(i).(*tview.InputField); ok {
			return field.GetText()
		}
		return ""
	}

	draft := SetupDraft{
		WorkoutID: ui.setupDraft.WorkoutID,
		Name:      text(0),
		Circuits:  text(1),
	}
	rows := (ui.setupForm.GetFormItemCount() - setupFixedItems) / 2
	for i := 0; i < rows; i++ {
		item := setupFixedItems + 2*i
		draft.Exercises = append(draft.Exercises, ExerciseDraft{
			Name:     text(item),
			Duration: text(item + 1),
		})
	}
	return draft
}

// focusedExerciseRow returns the exercise row holding focus, or -1.
func (ui *CursesUIViewImpl) focusedExerciseRow() int {
	item, _ := ui.setupForm.GetFocusedItemIndex()
	if item < setupFixedItems {
		return -1
	}
	return (item - setupFixedItems) / 2
}

// UpdateSessionState renders a session snapshot
func (ui *CursesUIViewImpl) UpdateSessionState(state session.State) {
	ui.sessionPanel.SetText(formatSessionDisplay(state))
}

// SetStatusMessage shows one line of feedback below the current mode
func (ui *CursesUIViewImpl) SetStatusMessage(msg StatusMessage) {
	switch {
	case msg.Text == "":
		ui.statusText.SetText("")
	case msg.Error:
		ui.statusText.SetText(fmt.Sprintf(" [red]%s[white]", tview.Escape(msg.Text)))
	default:
		ui.statusText.SetText(fmt.Sprintf(" [green]%s[white]", tview.Escape(msg.Text)))
	}
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeWorkoutList:
		ui.pages.SwitchToPage(pageWorkoutList)
	case UIModeWorkoutSetup:
		ui.pages.SwitchToPage(pageWorkoutSetup)
	case UIModeSession:
		ui.pages.SwitchToPage(pageSession)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

// setFocusForCurrentMode sets focus to the main widget of the current mode
func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	switch ui.currentMode {
	case UIModeWorkoutList:
		ui.app.SetFocus(ui.workoutList)
	case UIModeWorkoutSetup:
		ui.app.SetFocus(ui.setupForm)
	case UIModeSession:
		ui.app.SetFocus(ui.sessionPanel)
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// The delete modal handles its own keys, Escape included
		if ui.confirming {
			return event
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		// The form needs plain keys and Tab for typing and navigation
		if ui.currentMode == UIModeWorkoutSetup {
			if event.Key() == tcell.KeyCtrlD {
				if row := ui.focusedExerciseRow(); row >= 0 {
					controller.RemoveExerciseRow(ui.readSetupDraft(), row)
				}
				return nil
			}
			return event
		}

		// Number keys for mode switching
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				controller.OnModeChange(mode)
				return nil
			}
		}

		switch ui.currentMode {
		case UIModeWorkoutList:
			if event.Key() == tcell.KeyTab {
				ui.cycleFocus(ui.workoutListTabWidgets)
				return nil
			}
			if event.Key() != tcell.KeyRune {
				return event
			}
			switch event.Rune() {
			case 'n':
				controller.NewWorkout()
				return nil
			case 'e':
				if w, ok := ui.selectedWorkout(); ok {
					controller.EditWorkout(w.ID)
				}
				return nil
			case 'd':
				if w, ok := ui.selectedWorkout(); ok {
					ui.confirmDelete(w)
				}
				return nil
			case 'r':
				controller.RefreshWorkouts()
				return nil
			}
		case UIModeSession:
			if event.Key() != tcell.KeyRune {
				return event
			}
			switch event.Rune() {
			case ' ':
				controller.ToggleTimer()
				return nil
			case 'r':
				controller.ResetSession()
				return nil
			}
		}

		return event
	})
}

// cycleFocus moves focus to the widget after the focused one.
func (ui *CursesUIViewImpl) cycleFocus(widgets []tview.Primitive) {
	for i, w := range widgets {
		if w.HasFocus() {
			ui.app.SetFocus(widgets[(i+1)%len(widgets)])
			return
		}
	}
	if len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

// ClearLogView clears the log view
func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

// WriteLogLine writes a line to the log view
func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must be called before setting focus, otherwise focus may be reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

// Stop stops the UI framework
func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
