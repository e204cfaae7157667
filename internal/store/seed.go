package store

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/lowaak/circuit-timer/internal/workout"
)

//go:embed default_workouts.yaml
var defaultWorkouts []byte

// Seed imports workouts from the YAML file at path into an empty store.
// An empty path uses the built-in workouts. A store that already holds
// workouts is left untouched. Returns the number imported.
func (s *Store) Seed(ctx context.Context, path string) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	var r io.Reader = bytes.NewReader(defaultWorkouts)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("opening seed file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return s.Import(ctx, r)
}

// Import creates every workout in the YAML document r.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	defs, err := workout.DecodeYAML(r)
	if err != nil {
		return 0, err
	}
	for i, d := range defs {
		if _, err := s.CreateWorkout(ctx, d); err != nil {
			return i, fmt.Errorf("importing '%s': %w", d.Name, err)
		}
	}
	s.logger.Printf("Store: imported %d workout(s)", len(defs))
	return len(defs), nil
}
