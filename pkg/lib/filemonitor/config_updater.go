package filemonitor

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/spacer"
)

type configStore struct {
	mutex    sync.RWMutex
	cfg      spacer.Config
	path     string
	onReload func(spacer.Config)
}

// NewConfigStore loads the solver configuration at path and keeps it for
// safe concurrent retrieval. onReload, if set, sees every configuration
// loaded after the first.
func NewConfigStore(path string, onReload func(spacer.Config)) (*configStore, error) {
	cfg, err := spacer.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &configStore{
		cfg:      cfg,
		path:     filepath.Clean(path),
		onReload: onReload,
	}, nil
}

// HandleFilesystemUpdate is intended to be used as the OnUpdateFn for a
// watcher on the directory of the configuration file. Editors that
// replace the file show up as Create, the others as Write.
func (s *configStore) HandleFilesystemUpdate(logger logrus.FieldLogger, event fsnotify.Event) {
	if filepath.Clean(event.Name) != s.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	logger.Debugf("got fs event for %v", event.Name)
	if err := s.Reload(); err != nil {
		// a half written file fails to parse; the next event retries
		logger.WithError(err).Debug("keeping previous configuration")
		return
	}
	logger.WithField("path", s.path).Info("configuration reloaded")
}

// Reload reads the file again. The stored configuration only changes
// when the new one is valid.
func (s *configStore) Reload() error {
	cfg, err := spacer.LoadConfig(s.path)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.cfg = cfg
	s.mutex.Unlock()
	if s.onReload != nil {
		s.onReload(cfg)
	}
	return nil
}

func (s *configStore) Config() spacer.Config {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cfg
}

// WatchConfig loads the configuration at path and keeps it current until
// ctx is done.
func WatchConfig(ctx context.Context, logger logrus.FieldLogger, path string, onReload func(spacer.Config)) (*configStore, error) {
	store, err := NewConfigStore(path, onReload)
	if err != nil {
		return nil, err
	}
	w, err := NewWatch(logger, []string{filepath.Dir(store.path)}, store.HandleFilesystemUpdate)
	if err != nil {
		return nil, err
	}
	w.Run(ctx)
	return store, nil
}
