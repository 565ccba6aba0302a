package filemonitor

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hornwork/spacer/pkg/spacer"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
	return logger
}

func TestWatchConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "spacer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxLevel: 10\n"), 0644))

	var reloads int32
	store, err := WatchConfig(ctx, testLogger(), path, func(cfg spacer.Config) {
		atomic.AddInt32(&reloads, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, 10, store.Config().MaxLevel)

	require.NoError(t, os.WriteFile(path, []byte("maxLevel: 20\nglobalGeneralization: true\n"), 0644))
	assert.Eventually(t, func() bool {
		return store.Config().MaxLevel == 20
	}, 10*time.Second, 50*time.Millisecond)
	assert.True(t, store.Config().GlobalGeneralization)
	assert.NotZero(t, atomic.LoadInt32(&reloads))

	// Files next to the configuration are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("maxLevel: 30\n"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 20, store.Config().MaxLevel)
}

func TestHandleFilesystemUpdate(t *testing.T) {
	type tc struct {
		Name     string
		Data     string
		Op       fsnotify.Op
		Other    bool
		MaxLevel int
		Reloads  int
	}

	for _, tt := range []tc{
		{Name: "write", Data: "maxLevel: 7\n", Op: fsnotify.Write, MaxLevel: 7, Reloads: 1},
		{Name: "create", Data: "maxLevel: 8\n", Op: fsnotify.Create, MaxLevel: 8, Reloads: 1},
		{Name: "chmod is ignored", Data: "maxLevel: 9\n", Op: fsnotify.Chmod, MaxLevel: 10},
		{Name: "other file is ignored", Data: "maxLevel: 9\n", Op: fsnotify.Write, Other: true, MaxLevel: 10},
		{Name: "invalid file keeps the old configuration", Data: "maxLevel: -1\n", Op: fsnotify.Write, MaxLevel: 10},
		{Name: "unknown key keeps the old configuration", Data: "levels: 3\n", Op: fsnotify.Write, MaxLevel: 10},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "spacer.yaml")
			require.NoError(t, os.WriteFile(path, []byte("maxLevel: 10\n"), 0644))

			reloads := 0
			store, err := NewConfigStore(path, func(spacer.Config) { reloads++ })
			require.NoError(t, err)

			require.NoError(t, os.WriteFile(path, []byte(tt.Data), 0644))
			name := path
			if tt.Other {
				name = filepath.Join(filepath.Dir(path), "other.yaml")
			}
			store.HandleFilesystemUpdate(testLogger(), fsnotify.Event{Name: name, Op: tt.Op})

			assert.Equal(t, tt.MaxLevel, store.Config().MaxLevel)
			assert.Equal(t, tt.Reloads, reloads)
		})
	}
}

func TestNewConfigStoreMissingFile(t *testing.T) {
	_, err := NewConfigStore(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
