// Package store persists workout definitions in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/lowaak/circuit-timer/internal/workout"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a workout.Repository backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

var _ workout.Repository = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		panic("Store: logger cannot be nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	db.SetMaxOpenConns(1)

	logger.Printf("Store: opened %s", path)
	return &Store{db: db, logger: logger}, nil
}

// RunMigrations applies the embedded schema migrations to db.
func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of stored workouts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workouts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting workouts: %w", err)
	}
	return n, nil
}

// ListWorkouts returns every workout, ordered by id, with its exercises.
func (s *Store) ListWorkouts(ctx context.Context) ([]workout.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, circuits FROM workouts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}
	defer rows.Close()

	var out []workout.Definition
	index := map[int64]int{}
	for rows.Next() {
		d, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		index[d.ID] = len(out)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing workouts: %w", err)
	}

	exRows, err := s.db.QueryContext(ctx,
		`SELECT workout_id, id, name, duration, position FROM exercises ORDER BY workout_id, position, id`)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var workoutID int64
		var e workout.Exercise
		if err := exRows.Scan(&workoutID, &e.ID, &e.Name, &e.Duration, &e.Order); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		if i, ok := index[workoutID]; ok {
			out[i].Exercises = append(out[i].Exercises, e)
		}
	}
	if err := exRows.Err(); err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}

	for i := range out {
		if out[i].Exercises == nil {
			out[i].Exercises = []workout.Exercise{}
		}
	}
	return out, nil
}

// FetchWorkout returns the workout with id, or a *workout.NotFoundError.
func (s *Store) FetchWorkout(ctx context.Context, id int64) (workout.Definition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, circuits FROM workouts WHERE id = ?`, id)
	d, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workout.Definition{}, &workout.NotFoundError{ID: id}
	}
	if err != nil {
		return workout.Definition{}, err
	}

	d.Exercises, err = s.exercises(ctx, s.db, id)
	if err != nil {
		return workout.Definition{}, err
	}
	return d, nil
}

// CreateWorkout stores d under a new id.
func (s *Store) CreateWorkout(ctx context.Context, d workout.Definition) (workout.Definition, error) {
	d, err := workout.PrepareForSave(d)
	if err != nil {
		return workout.Definition{}, err
	}

	var created workout.Definition
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO workouts (name, circuits) VALUES (?, ?)`, d.Name, nullCircuits(d.Circuits))
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}
		if err := insertExercises(ctx, tx, id, d.Exercises); err != nil {
			return err
		}
		created, err = s.fetchTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return workout.Definition{}, err
	}
	s.logger.Printf("Store: created workout %d '%s'", created.ID, created.Name)
	return created, nil
}

// UpdateWorkout replaces the name, circuits and all exercises of workout id.
func (s *Store) UpdateWorkout(ctx context.Context, id int64, d workout.Definition) (workout.Definition, error) {
	d, err := workout.PrepareForSave(d)
	if err != nil {
		return workout.Definition{}, err
	}

	var updated workout.Definition
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE workouts SET name = ?, circuits = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ?`,
			d.Name, nullCircuits(d.Circuits), id)
		if err != nil {
			return fmt.Errorf("updating workout: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("updating workout: %w", err)
		} else if n == 0 {
			return &workout.NotFoundError{ID: id}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE workout_id = ?`, id); err != nil {
			return fmt.Errorf("clearing exercises: %w", err)
		}
		if err := insertExercises(ctx, tx, id, d.Exercises); err != nil {
			return err
		}
		updated, err = s.fetchTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return workout.Definition{}, err
	}
	s.logger.Printf("Store: updated workout %d '%s'", updated.ID, updated.Name)
	return updated, nil
}

// DeleteWorkout removes workout id and its exercises.
func (s *Store) DeleteWorkout(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if n == 0 {
		return &workout.NotFoundError{ID: id}
	}
	s.logger.Printf("Store: deleted workout %d", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanWorkout(row rowScanner) (workout.Definition, error) {
	var d workout.Definition
	var circuits sql.NullInt64
	if err := row.Scan(&d.ID, &d.Name, &circuits); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d, err
		}
		return d, fmt.Errorf("scanning workout: %w", err)
	}
	if circuits.Valid {
		d.Circuits = int(circuits.Int64)
	}
	return d, nil
}

func (s *Store) exercises(ctx context.Context, q queryer, workoutID int64) ([]workout.Exercise, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, duration, position FROM exercises WHERE workout_id = ? ORDER BY position, id`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	out := []workout.Exercise{}
	for rows.Next() {
		var e workout.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Duration, &e.Order); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	return out, nil
}

func (s *Store) fetchTx(ctx context.Context, tx *sql.Tx, id int64) (workout.Definition, error) {
	d, err := scanWorkout(tx.QueryRowContext(ctx, `SELECT id, name, circuits FROM workouts WHERE id = ?`, id))
	if err != nil {
		return workout.Definition{}, err
	}
	d.Exercises, err = s.exercises(ctx, tx, id)
	return d, err
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertExercises(ctx context.Context, tx *sql.Tx, workoutID int64, exercises []workout.Exercise) error {
	for _, e := range exercises {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO exercises (workout_id, name, duration, position) VALUES (?, ?, ?, ?)`,
			workoutID, e.Name, e.Duration, e.Order); err != nil {
			return fmt.Errorf("inserting exercise: %w", err)
		}
	}
	return nil
}

func nullCircuits(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n > 0}
}
