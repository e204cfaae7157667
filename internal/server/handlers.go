package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lowaak/circuit-timer/internal/workout"
)

const (
	msgNotFound = "Workout not found"
	msgDeleted  = "Workout deleted"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	defs, err := s.repo.ListWorkouts(r.Context())
	if err != nil {
		s.internalError(w, "list workouts", err)
		return
	}
	if defs == nil {
		defs = []workout.Definition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeWorkout(w, r)
	if !ok {
		return
	}

	created, err := s.repo.CreateWorkout(r.Context(), d)
	if err != nil {
		s.writeSaveError(w, "create workout", err)
		return
	}
	s.metrics.WorkoutChanges.WithLabelValues("create").Inc()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	d, err := s.repo.FetchWorkout(r.Context(), id)
	if err != nil {
		s.writeSaveError(w, "fetch workout", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}
	d, ok := decodeWorkout(w, r)
	if !ok {
		return
	}

	updated, err := s.repo.UpdateWorkout(r.Context(), id, d)
	if err != nil {
		s.writeSaveError(w, "update workout", err)
		return
	}
	s.metrics.WorkoutChanges.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	if err := s.repo.DeleteWorkout(r.Context(), id); err != nil {
		s.writeSaveError(w, "delete workout", err)
		return
	}
	s.metrics.WorkoutChanges.WithLabelValues("delete").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": msgDeleted})
}

// workoutID parses the {id} URL parameter. Anything that is not a positive
// integer is answered as a missing workout.
func workoutID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": msgNotFound})
		return 0, false
	}
	return id, true
}

func decodeWorkout(w http.ResponseWriter, r *http.Request) (workout.Definition, bool) {
	var d workout.Definition
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return d, false
	}
	return d, true
}

func (s *Server) writeSaveError(w http.ResponseWriter, op string, err error) {
	var pe *workout.PreconditionError
	switch {
	case workout.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": msgNotFound})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": pe.Reason})
	default:
		s.internalError(w, op, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Printf("Server: %s: %v", op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
