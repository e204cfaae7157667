package trainer

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
)

type uiModelPersistenceData struct {
	LastWorkoutID int64 `json:"last_workout_id,omitempty"`
}

// uiModelPersistence remembers UI choices across runs. An empty filePath
// keeps everything in memory.
type uiModelPersistence struct {
	filePath string
	mu       sync.Mutex
	data     uiModelPersistenceData
	logger   *log.Logger
}

func newUIModelPersistence(filePath string, logger *log.Logger) *uiModelPersistence {
	p := &uiModelPersistence{
		filePath: filePath,
		logger:   logger,
	}
	p.load()
	return p
}

func (p *uiModelPersistence) getLastWorkout() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.LastWorkoutID
}

func (p *uiModelPersistence) setLastWorkout(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data.LastWorkoutID == id {
		return
	}
	p.logger.Printf("UIModelPersistence: setLastWorkout -> %d", id)
	p.data.LastWorkoutID = id
	p.save()
}

func (p *uiModelPersistence) load() {
	p.data = uiModelPersistenceData{}
	if p.filePath == "" {
		return
	}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("UIModelPersistence: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("UIModelPersistence: load %s failed to parse: %v", p.filePath, err)
		p.data = uiModelPersistenceData{}
		return
	}
	p.logger.Printf("UIModelPersistence: load %s -> last workout %d", p.filePath, p.data.LastWorkoutID)
}

// save must be called with mu held.
func (p *uiModelPersistence) save() {
	if p.filePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("UIModelPersistence: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("UIModelPersistence: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("UIModelPersistence: save %s failed: %v", p.filePath, err)
		return
	}
	p.logger.Printf("UIModelPersistence: save %s -> last workout %d", p.filePath, p.data.LastWorkoutID)
}
