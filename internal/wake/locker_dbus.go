package wake

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/lowaak/circuit-timer/internal/platform"
)

const (
	screenSaverDest  = "org.freedesktop.ScreenSaver"
	screenSaverPath  = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverIface = "org.freedesktop.ScreenSaver"
	inhibitReason    = "Workout timer running"
)

// DBusLocker inhibits the freedesktop screensaver over the session bus.
// Each lock owns a private bus connection; the inhibition ends when that
// connection closes.
type DBusLocker struct {
	app string
}

func NewDBusLocker(app string) *DBusLocker {
	return &DBusLocker{app: app}
}

func (l *DBusLocker) Acquire(ctx context.Context) (Lock, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, &platform.ResourceUnavailableError{Resource: "screen wake lock", Err: err}
	}

	var cookie uint32
	obj := conn.Object(screenSaverDest, screenSaverPath)
	if err := obj.CallWithContext(ctx, screenSaverIface+".Inhibit", 0, l.app, inhibitReason).Store(&cookie); err != nil {
		_ = conn.Close()
		return nil, &platform.ResourceUnavailableError{Resource: "screen wake lock", Err: err}
	}
	return &dbusLock{conn: conn, cookie: cookie}, nil
}

type dbusLock struct {
	conn   *dbus.Conn
	cookie uint32

	mu       sync.Mutex
	released bool
}

func (l *dbusLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	l.released = true

	var err error
	if l.conn.Connected() {
		obj := l.conn.Object(screenSaverDest, screenSaverPath)
		err = obj.CallWithContext(ctx, screenSaverIface+".UnInhibit", 0, l.cookie).Err
	}
	if cerr := l.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func (l *dbusLock) Released() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released || !l.conn.Connected()
}
