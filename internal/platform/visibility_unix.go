//go:build unix

package platform

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/lowaak/circuit-timer/internal/go_func_utils"
)

// watch reports regain on SIGCONT, which a terminal process receives when it
// is resumed into the foreground after job-control suspension (Ctrl-Z, fg).
func (v *Visibility) watch() func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGCONT)
	done := make(chan struct{})

	go_func_utils.SafeGo(v.logger, func() {
		for {
			select {
			case <-done:
				return
			case <-sigCh:
				v.SetVisible(true)
			}
		}
	})

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
