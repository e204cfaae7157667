package wake

import (
	"context"
	"log"
	"sync"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/platform"
)

// Coordinator holds a wake lock while the session is active. SetActive only
// records the desired state; a single goroutine acquires and releases the
// lock to match it.
type Coordinator struct {
	locker Locker
	logger *log.Logger

	mu      sync.Mutex
	desired bool

	signal     chan struct{}
	visibility chan bool
	unlisten   func()

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	// lock is owned by the run goroutine until Close
	lock Lock
}

// NewCoordinatorArg holds the arguments for NewCoordinator
type NewCoordinatorArg struct {
	Locker     Locker
	Visibility platform.VisibilitySource // optional
	Logger     *log.Logger
}

func NewCoordinator(args NewCoordinatorArg) *Coordinator {
	if args.Locker == nil {
		panic("WakeCoordinator: locker cannot be nil")
	}
	if args.Logger == nil {
		panic("WakeCoordinator: logger cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		locker:     args.Locker,
		logger:     args.Logger,
		signal:     make(chan struct{}, 1),
		visibility: make(chan bool, 4),
		ctx:        ctx,
		cancel:     cancel,
	}
	if args.Visibility != nil {
		c.unlisten = args.Visibility.ListenToVisibility(c.visibility)
	}
	go_func_utils.SafeGoWG(c.logger, &c.wg, c.run)
	return c
}

// SetActive records whether the lock should be held. It never blocks.
func (c *Coordinator) SetActive(active bool) {
	c.mu.Lock()
	c.desired = active
	c.mu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Close cancels a pending acquisition and releases any held lock.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		if c.unlisten != nil {
			c.unlisten()
		}
		c.cancel()
		c.wg.Wait()
		c.release(context.Background())
		c.logger.Println("WakeCoordinator: closed")
	})
}

func (c *Coordinator) wantActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desired
}

func (c *Coordinator) run() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.signal:
			c.reconcile()
		case visible := <-c.visibility:
			if visible && c.wantActive() {
				c.logger.Println("WakeCoordinator: visible again, checking lock")
				c.reconcile()
			}
		}
	}
}

func (c *Coordinator) reconcile() {
	if !c.wantActive() {
		c.release(c.ctx)
		return
	}

	if c.lock != nil {
		if !c.lock.Released() {
			return
		}
		c.logger.Println("WakeCoordinator: lock was released by the platform")
		c.lock = nil
	}

	lock, err := c.locker.Acquire(c.ctx)
	if err != nil {
		if c.ctx.Err() == nil {
			c.logger.Printf("WakeCoordinator: acquire failed: %v", err)
		}
		return
	}
	if c.ctx.Err() != nil {
		_ = lock.Release(context.Background())
		return
	}
	c.lock = lock
	c.logger.Println("WakeCoordinator: lock acquired")
}

func (c *Coordinator) release(ctx context.Context) {
	if c.lock == nil {
		return
	}
	if err := c.lock.Release(ctx); err != nil {
		c.logger.Printf("WakeCoordinator: release failed: %v", err)
	} else {
		c.logger.Println("WakeCoordinator: lock released")
	}
	c.lock = nil
}
