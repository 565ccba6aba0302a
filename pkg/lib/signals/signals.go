package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	reloadSignals   = []os.Signal{syscall.SIGHUP}
)

var (
	signalCtx context.Context
	cancel    context.CancelFunc
	once      sync.Once
)

// Context returns a Context registered to close on SIGTERM and SIGINT.
// A running solve sees the cancellation and reports what it has so far.
// If a second signal is caught, the program is terminated with exit code 1.
func Context() context.Context {
	once.Do(func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, shutdownSignals...)
		signalCtx, cancel = context.WithCancel(context.Background())
		go watch(context.Background(), c, cancel, os.Exit)
	})

	return signalCtx
}

// watch cancels on the first signal and exits on the second. It returns
// early once parent is done.
func watch(parent context.Context, c <-chan os.Signal, cancel context.CancelFunc, exit func(int)) {
	select {
	case <-parent.Done():
		return
	case <-c:
	}
	cancel()

	select {
	case <-parent.Done():
	case <-c:
		exit(1) // second signal. Exit directly.
	}
}

// Reload returns a channel that receives on every SIGHUP until ctx is
// done. Signals that arrive while the previous one is unread are merged.
func Reload(ctx context.Context) <-chan struct{} {
	c := make(chan os.Signal, 1)
	signal.Notify(c, reloadSignals...)
	out := make(chan struct{}, 1)
	go func() {
		defer signal.Stop(c)
		for {
			select {
			case <-ctx.Done():
				return
			case <-c:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}
