package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DebounceDelay is how long Watch waits for a burst of file events
// to settle before reloading.
var DebounceDelay = 200 * time.Millisecond

// Watch watches the config file at path and calls onChange with every
// config successfully reloaded after the file changed.
// Invalid configs are logged and skipped. onChange is called from
// the watching goroutine. Watch blocks until ctx is canceled.
func Watch(
	ctx context.Context,
	path string,
	log zerolog.Logger,
	onChange func(Config),
) error {
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory, editors replace files by renaming.
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	log.Debug().Str("dir", dir).Str("file", file).Msg("config watcher started")

	debounce := time.NewTimer(DebounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(DebounceDelay)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("dir", dir).Msg("config watch error")
		case <-debounce.C:
			c, err := Load(path)
			if err != nil {
				log.Warn().Err(err).Msg("config reload failed, keeping previous")
				continue
			}
			log.Debug().Str("path", path).Msg("config reloaded")
			onChange(c)
		}
	}
}
