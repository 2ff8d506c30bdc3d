package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/NickG503/World-Simulator/domain/kb"
	"github.com/NickG503/World-Simulator/infrastructure/logging"
)

// debounceDelay coalesces bursts of filesystem events (editors often
// write a file several times per save).
const debounceDelay = 200 * time.Millisecond

// Watch reloads the knowledge base whenever a file under dir changes
// and reports each result to onChange. It blocks until ctx is done.
func (l *Loader) Watch(ctx context.Context, dir string, onChange func(*kb.KnowledgeBase, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	addTree := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(path)
			}
			return nil
		})
	}
	if err := addTree(dir); err != nil {
		return err
	}

	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories need their own watch.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addTree(ev.Name)
				}
			}
			debounce.Reset(debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn().
				Add(logging.Component("loader")).
				Add(logging.Path(dir)).
				Add(logging.ErrorField(err)).
				Msg("watch error")

		case <-debounce.C:
			k, err := l.Load(dir)
			onChange(k, err)
		}
	}
}
