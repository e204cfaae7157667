package trainer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/workout"
)

// BaseUIView contains the base logic shared by all UI implementations
type BaseUIView struct {
	uiViewImpl   UIViewImpl
	uiModel      *UIModel
	uiController *UIController
	context      context.Context
	cancelFunc   context.CancelFunc
	waitGroup    sync.WaitGroup
	logger       *log.Logger
}

// NewBaseUIViewArg holds the arguments for creating a new BaseUIView
type NewBaseUIViewArg struct {
	UIViewImpl   UIViewImpl
	UIModel      *UIModel
	UIController *UIController
	Logger       *log.Logger
}

// NewBaseUIView creates a new BaseUIView with the given implementation
func NewBaseUIView(args NewBaseUIViewArg) *BaseUIView {
	if args.Logger == nil {
		panic("BaseUIView: logger cannot be nil")
	}
	if args.UIViewImpl == nil {
		panic("BaseUIView: UIViewImpl cannot be nil")
	}
	if args.UIModel == nil {
		panic("BaseUIView: UIModel cannot be nil")
	}
	if args.UIController == nil {
		panic("BaseUIView: UIController cannot be nil")
	}
	ctx, cancel := context.WithCancel(context.Background())

	base := &BaseUIView{
		uiViewImpl:   args.UIViewImpl,
		uiModel:      args.UIModel,
		uiController: args.UIController,
		context:      ctx,
		cancelFunc:   cancel,
		logger:       args.Logger,
	}

	// Initialize framework-specific widgets
	args.UIViewImpl.Initialize(args.UIController)
	args.UIViewImpl.SetupKeyboardHandlers(args.UIController)
	args.UIViewImpl.SetMode(args.UIModel.GetUIState().Mode)

	// Set up periodic resize check and initial display
	go_func_utils.SafeGoWG(base.logger, &base.waitGroup, base.monitorLogResize)
	base.updateLogDisplay()

	base.setupEventListeners()

	return base
}

// listenTo forwards every value of one model event to apply, then redraws.
func listenTo[T any](base *BaseUIView, register func(chan<- T) func(), apply func(T)) {
	ch := make(chan T, 1)
	unregister := register(ch)
	go_func_utils.SafeGoWG(base.logger, &base.waitGroup, func() {
		defer unregister()
		for {
			select {
			case <-base.context.Done():
				return
			case v, ok := <-ch:
				if !ok {
					return
				}
				apply(v)
				base.draw()
			}
		}
	})
}

func (base *BaseUIView) setupEventListeners() {
	model, impl := base.uiModel, base.uiViewImpl

	// When a new log arrives, update the display to show the tail
	listenTo(base, model.ListenToLog, func(string) { base.updateLogDisplay() })

	listenTo(base, model.ListenToUIState, func(state UIState) {
		impl.SetMode(state.Mode)
		impl.SetSelectedWorkout(state.SelectedWorkoutID)
	})

	listenTo(base, model.ListenToWorkouts, func(workouts []workout.Definition) {
		impl.SetWorkoutList(workouts)
		impl.SetSelectedWorkout(model.GetUIState().SelectedWorkoutID)
	})

	listenTo(base, model.ListenToSetupDraft, impl.SetSetupDraft)
	listenTo(base, model.ListenToSessionState, impl.UpdateSessionState)
	listenTo(base, model.ListenToStatus, impl.SetStatusMessage)

	// The close signal stops the UI once; no redraw afterwards
	closeChan := make(chan struct{}, 1)
	closeUnregister := model.ListenToCloseApplication(closeChan)
	go_func_utils.SafeGoWG(base.logger, &base.waitGroup, func() {
		defer closeUnregister()
		select {
		case <-base.context.Done():
			return
		case _, ok := <-closeChan:
			if !ok {
				return
			}
			impl.Stop()
		}
	})
}

func (base *BaseUIView) draw() {
	if err := base.uiViewImpl.Draw(); err != nil {
		base.logger.Printf("BaseUIView: Error drawing: %v", err)
	}
}

func (base *BaseUIView) updateLogDisplay() {
	height := base.uiViewImpl.GetLogViewHeight()
	if height <= 0 {
		return
	}

	logLines := base.uiModel.GetLogTail(height)

	base.uiViewImpl.ClearLogView()
	for _, line := range logLines {
		if err := base.uiViewImpl.WriteLogLine(line); err != nil {
			base.logger.Printf("BaseUIView: Error writing to log view: %v", err)
		}
	}
}

func (base *BaseUIView) monitorLogResize() {
	var lastHeight int
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-base.context.Done():
			return
		case <-ticker.C:
			height := base.uiViewImpl.GetLogViewHeight()
			if height != lastHeight && height > 0 {
				lastHeight = height
				base.updateLogDisplay()
				base.draw()
			}
		}
	}
}

// Shutdown stops all goroutines and waits for them to finish
func (base *BaseUIView) Shutdown() {
	base.logger.Println("BaseUIView: Shutting down")
	base.cancelFunc()
	base.waitGroup.Wait()
	base.logger.Println("BaseUIView: Shutdown complete")
}

// Run starts the UI and blocks until it exits
func (base *BaseUIView) Run() error {
	return base.uiViewImpl.Run()
}
