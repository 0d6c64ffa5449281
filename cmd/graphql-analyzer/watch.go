package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/trevor-scheer/graphql-analyzer/internal/filemodel"
	"github.com/trevor-scheer/graphql-analyzer/internal/workspace"
)

const fileUriScheme = "file://"

func pathFromUri(uri filemodel.FileUri) string {
	return strings.TrimPrefix(string(uri), fileUriScheme)
}

func uriFromPath(path string) filemodel.FileUri {
	return filemodel.FileUri(fileUriScheme + path)
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// watchDebounce matches spec.md §6's "debounce ≈ 100 ms". Grounded on
// codeNERD's MangleWatcher (internal/core/mangle_watcher.go): a
// debounce-ticker loop over fsnotify's Events/Errors channels, coalescing
// rapid saves into a single re-check rather than one per fsnotify event.
const watchDebounce = 100 * time.Millisecond

// watchAndRerun runs run() once immediately, then again after every
// debounced batch of write events to loaded's resolved schema/document
// files, until the process is interrupted (Ctrl-C). It re-reads each
// changed file from disk and feeds the new text through Host.UpdateText
// before re-running, so the next run() sees the edit.
func watchAndRerun(cmd *cobra.Command, loaded *workspace.Loaded, run func() int) error {
	run()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	paths := watchedPaths(loaded)
	dirs := map[string]struct{}{}
	for _, p := range paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			loaded.Host.Logger().Sugar().Warnf("watch: failed to watch %s: %v", d, err)
		}
	}

	logger := loaded.Host.Logger()
	logger.Info("watch_started")

	debounced := map[string]struct{}{}
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, tracked := paths[ev.Name]; !tracked {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounced[ev.Name] = struct{}{}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Sugar().Warnf("watch: fsnotify error: %v", err)
		case <-ticker.C:
			if len(debounced) == 0 {
				continue
			}
			reloadChangedFiles(loaded, debounced)
			debounced = map[string]struct{}{}
			run()
		}
	}
}

// watchedPaths returns the set of absolute file paths the watcher
// should pay attention to, keyed for O(1) membership checks against
// fsnotify.Event.Name.
func watchedPaths(loaded *workspace.Loaded) map[string]struct{} {
	out := map[string]struct{}{}
	snap := loaded.Host.Snapshot()
	for _, id := range append(append([]filemodel.FileId{}, snap.SchemaFiles()...), snap.DocumentFiles()...) {
		if uri, ok := snap.Uri(id); ok {
			out[pathFromUri(uri)] = struct{}{}
		}
	}
	return out
}

func reloadChangedFiles(loaded *workspace.Loaded, changed map[string]struct{}) {
	snap := loaded.Host.Snapshot()
	for path := range changed {
		uri := uriFromPath(path)
		id, ok := snap.Lookup(uri)
		if !ok {
			continue
		}
		text, err := readFile(path)
		if err != nil {
			loaded.Host.Logger().Sugar().Warnf("watch: reading %s: %v", path, err)
			continue
		}
		loaded.Host.UpdateText(id, text)
	}
}
