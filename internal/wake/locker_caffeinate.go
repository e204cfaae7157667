package wake

import (
	"context"
	"os/exec"
	"sync"

	"github.com/lowaak/circuit-timer/internal/platform"
)

// CaffeinateLocker keeps a macOS display awake by running `caffeinate -d`
// for as long as the lock is held.
type CaffeinateLocker struct {
	path string // resolved lazily
}

func NewCaffeinateLocker() *CaffeinateLocker {
	return &CaffeinateLocker{}
}

func (l *CaffeinateLocker) Acquire(ctx context.Context) (Lock, error) {
	if l.path == "" {
		path, err := exec.LookPath("caffeinate")
		if err != nil {
			return nil, &platform.ResourceUnavailableError{Resource: "screen wake lock", Err: err}
		}
		l.path = path
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(l.path, "-d")
	if err := cmd.Start(); err != nil {
		return nil, &platform.ResourceUnavailableError{Resource: "screen wake lock", Err: err}
	}
	lock := &processLock{cmd: cmd, exited: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(lock.exited)
	}()
	return lock, nil
}

type processLock struct {
	cmd    *exec.Cmd
	exited chan struct{}
	once   sync.Once
}

func (l *processLock) Release(ctx context.Context) error {
	var err error
	l.once.Do(func() {
		if l.Released() {
			return
		}
		if err = l.cmd.Process.Kill(); err != nil {
			return
		}
		select {
		case <-l.exited:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

func (l *processLock) Released() bool {
	select {
	case <-l.exited:
		return true
	default:
		return false
	}
}
