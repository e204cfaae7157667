package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/lowaak/circuit-timer/internal/audio"
	"github.com/lowaak/circuit-timer/internal/client"
	"github.com/lowaak/circuit-timer/internal/config"
	"github.com/lowaak/circuit-timer/internal/platform"
	"github.com/lowaak/circuit-timer/internal/server"
	"github.com/lowaak/circuit-timer/internal/store"
	"github.com/lowaak/circuit-timer/internal/trainer"
	"github.com/lowaak/circuit-timer/internal/wake"
	"github.com/lowaak/circuit-timer/internal/workout"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "circuit-timer: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "circuit-timer",
		Short:         "Interval timer for circuit workouts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withConfig(runUI),
	}
	root.PersistentFlags().AddFlagSet(config.NewFlagSet("circuit-timer"))

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the workout REST API from the local database",
		Args:  cobra.NoArgs,
		RunE:  withConfig(runServer),
	})
	root.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write every workout as YAML to stdout",
		Args:  cobra.NoArgs,
		RunE:  withConfig(runExport),
	})
	return root
}

// withConfig resolves the configuration from the command's flags before
// running fn.
func withConfig(fn func(cmd *cobra.Command, cfg *config.Config) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.FromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return fn(cmd, cfg)
	}
}

func runUI(_ *cobra.Command, cfg *config.Config) error {
	// Buffered so bursts during startup reach the log pane
	uiLogChan := make(chan string, 256)
	logger, logCloser, err := config.NewLogger(cfg.Log, config.NewChannelWriter(uiLogChan))
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logCloser.Close()
	logger.Printf("Main: starting terminal timer (data dir %s)", cfg.DataDir)

	repo, closeRepo, err := openRepository(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	app := tview.NewApplication().SetScreen(screen)

	emitter := audio.NewEmitter(audio.NewEmitterArg{
		Opener:      audio.NewDeviceOpener(cfg.Audio.Backend, cfg.Audio.SampleRate, screen),
		Logger:      logger,
		SampleRate:  cfg.Audio.SampleRate,
		IdleSuspend: cfg.Audio.IdleSuspend,
	})
	defer emitter.Close()

	visibility := platform.NewVisibility(logger)
	defer visibility.Close()

	model := trainer.NewUIModel(logger, uiLogChan)
	controller := trainer.NewUIController(trainer.NewUIControllerArg{
		Model: model,
		Repo:  repo,
		Cue:   emitter,
		NewWake: func() trainer.SessionWake {
			return wake.NewCoordinator(wake.NewCoordinatorArg{
				Locker:     wake.NewLocker(cfg.Wake.Backend),
				Visibility: visibility,
				Logger:     logger,
			})
		},
		StatePath: cfg.UIStatePath(),
		Logger:    logger,
	})
	view := trainer.NewBaseUIView(trainer.NewBaseUIViewArg{
		UIViewImpl:   trainer.NewCursesUIView(logger, app, model),
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})

	controller.RefreshWorkouts()

	runErr := view.Run()

	logger.Println("Main: shutting down")
	view.Shutdown()
	controller.Shutdown()
	model.Shutdown()
	return runErr
}

func runServer(_ *cobra.Command, cfg *config.Config) error {
	logger, logCloser, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	return server.New(st, logger).ListenAndServe(ctx, cfg.Server.Addr)
}

func runExport(cmd *cobra.Command, cfg *config.Config) error {
	logger, logCloser, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logCloser.Close()

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	list, err := repo.ListWorkouts(ctx)
	if err != nil {
		return err
	}
	logger.Printf("Main: exporting %d workouts", len(list))
	return workout.EncodeYAML(cmd.OutOrStdout(), list)
}

// openRepository returns the REST client when a server URL is configured and
// the local store otherwise.
func openRepository(ctx context.Context, cfg *config.Config, logger *log.Logger) (workout.Repository, func(), error) {
	if cfg.Client.ServerURL != "" {
		c, err := client.NewClient(client.NewClientArg{
			BaseURL:  cfg.Client.ServerURL,
			Timeout:  cfg.Client.Timeout,
			CacheTTL: cfg.Client.CacheTTL,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("Main: using workout server %s", cfg.Client.ServerURL)
		return c, func() {}, nil
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { closeStore(st, logger) }, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}
	n, err := st.Seed(ctx, cfg.Store.Seed)
	if err != nil {
		closeStore(st, logger)
		return nil, fmt.Errorf("seeding workouts: %w", err)
	}
	if n > 0 {
		logger.Printf("Main: seeded %d workouts", n)
	}
	return st, nil
}

func closeStore(st *store.Store, logger *log.Logger) {
	if err := st.Close(); err != nil {
		logger.Printf("Main: closing store: %v", err)
	}
}
