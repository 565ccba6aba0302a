package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testdata(name string) string {
	return filepath.Join("..", "..", "pkg", "spacer", "testdata", name)
}

func TestRootCmd(t *testing.T) {
	type tc struct {
		Name     string
		Args     []string
		Contains []string
		Error    string
	}

	for _, tt := range []tc{
		{
			Name:     "version",
			Args:     []string{"--version"},
			Contains: []string{"Spacer Version"},
		},
		{
			Name: "safe",
			Args: []string{"--width", "8", "--validate", testdata("bounded.yaml")},
			Contains: []string{
				testdata("bounded.yaml") + ": safe at level",
				"  Inv: ",
			},
		},
		{
			Name: "unsafe",
			Args: []string{"--width", "8", testdata("shallow_unsafe.yaml")},
			Contains: []string{
				testdata("shallow_unsafe.yaml") + ": unsafe at level",
				"  (__query) by six\n",
				"          (Inv 0) by init\n",
			},
		},
		{
			Name: "several files keep their order",
			Args: []string{"--width", "8", "-j", "2", testdata("bounded.yaml"), testdata("parity.yaml")},
			Contains: []string{
				testdata("bounded.yaml") + ": safe",
				testdata("parity.yaml") + ": safe",
			},
		},
		{
			Name:     "dump",
			Args:     []string{"--width", "8", "--dump", testdata("bounded.yaml")},
			Contains: []string{"Inv/1"},
		},
		{
			Name:     "resource limit",
			Args:     []string{"--width", "8", "--max-level", "2", testdata("counter_unsafe.yaml")},
			Contains: []string{"unknown (resource limit)"},
			Error:    ErrUnsolved.Error(),
		},
		{
			Name:     "config file",
			Args:     []string{"--config", testdata("config.yaml"), "--max-level", "2", testdata("counter_unsafe.yaml")},
			Contains: []string{"unknown (resource limit) at level"},
			Error:    ErrUnsolved.Error(),
		},
		{Name: "no files", Args: []string{"--debug"}, Error: "no rule files given"},
		{Name: "no jobs", Args: []string{"-j", "0", testdata("bounded.yaml")}, Error: "--jobs must be positive"},
		{Name: "watch without config", Args: []string{"--watch", testdata("bounded.yaml")}, Error: "--watch requires --config"},
		{Name: "missing file", Args: []string{testdata("missing.yaml")}, Error: "missing.yaml"},
		{Name: "missing config", Args: []string{"--config", testdata("missing.yaml"), testdata("bounded.yaml")}, Error: "reading config"},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			var out, logs bytes.Buffer
			cmd := newRootCmd()
			cmd.SetArgs(tt.Args)
			cmd.SetOut(&out)
			cmd.SetErr(&logs)

			err := cmd.Execute()
			if tt.Error != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.Error)
			} else {
				require.NoError(t, err, logs.String())
			}
			for _, s := range tt.Contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spacer.prom")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--width", "8", "--metrics-file", path, testdata("bounded.yaml")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `spacer_solve_total{reason="",status="safe"}`)
	assert.Contains(t, string(data), "spacer_stats{counter=\"queries\"")
}

// syncBuffer is written by the watch loop while the test reads it.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "spacer.yaml")
	require.NoError(t, os.WriteFile(config, []byte("domainWidth: 8\nmaxLevel: 2\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--watch", "--config", config, testdata("counter_unsafe.yaml")})
	cmd.SetOut(&out)
	cmd.SetErr(&syncBuffer{})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "unknown (resource limit)")
	}, 30*time.Second, 50*time.Millisecond)

	// replace the file in one step so no half written state is seen
	tmp := config + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("domainWidth: 8\nmaxLevel: 3\n"), 0644))
	require.NoError(t, os.Rename(tmp, config))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "unknown (resource limit) at level 3")
	}, 30*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestTraceReleasesItsWriter(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var logs syncBuffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--width", "8", "--debug", "--trace", testdata("bounded.yaml")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&logs)
	require.NoError(t, cmd.Execute())

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "__query@0/0 blocked")
	}, 5*time.Second, 10*time.Millisecond)
}
