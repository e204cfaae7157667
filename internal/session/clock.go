package session

import "time"

// Ticker is the recurring-timer primitive the engine drives.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// Clock creates tickers. Tests substitute a manual implementation.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time   { return s.t.C }
func (s *systemTicker) Reset(d time.Duration) { s.t.Reset(d) }
func (s *systemTicker) Stop()                 { s.t.Stop() }
