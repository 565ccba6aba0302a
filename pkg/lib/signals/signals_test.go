package signals

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reload := Reload(ctx)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGHUP))

	select {
	case <-reload:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after SIGHUP")
	}
}

func TestWatch(t *testing.T) {
	type tc struct {
		Name      string
		Signals   int
		Cancelled bool
		Exit      int
	}

	for _, tt := range []tc{
		{Name: "first signal cancels", Signals: 1, Cancelled: true, Exit: -1},
		{Name: "second signal exits", Signals: 2, Cancelled: true, Exit: 1},
		{Name: "no signal", Signals: 0, Cancelled: false, Exit: -1},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			parent, stop := context.WithCancel(context.Background())
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			c := make(chan os.Signal, 2)
			for i := 0; i < tt.Signals; i++ {
				c <- syscall.SIGTERM
			}
			code := -1
			exited := make(chan struct{})
			done := make(chan struct{})
			go func() {
				defer close(done)
				watch(parent, c, cancel, func(n int) {
					code = n
					close(exited)
				})
			}()

			if tt.Exit >= 0 {
				select {
				case <-exited:
				case <-time.After(5 * time.Second):
					t.Fatal("no exit after the second signal")
				}
			}
			if tt.Cancelled {
				select {
				case <-ctx.Done():
				case <-time.After(5 * time.Second):
					t.Fatal("not cancelled after the first signal")
				}
			}

			// the watcher ends with its parent
			stop()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("watch did not return")
			}
			require.Equal(t, tt.Exit, code)
			require.Equal(t, tt.Cancelled, ctx.Err() != nil)
		})
	}
}
