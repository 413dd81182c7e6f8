package watcher

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/dashkit/dashbuild/internal/dlogger"
)

// StartWatcher watches folder recursively and streams changed paths.
// Directories created while watching are added to the watch set.
func StartWatcher(folder string) <-chan string {
	wch, err := fsnotify.NewWatcher()
	if err != nil {
		panic(err)
	}

	outCh := make(chan string, 100)

	go func() {
		for {
			select {
			case event, ok := <-wch.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if event.Op&fsnotify.Create != 0 {
					if f, err := os.Stat(event.Name); err == nil && f.IsDir() {
						wch.Add(event.Name)
					}
				}
				dlogger.Info("msg", "Detected change", "path", event.Name)
				outCh <- event.Name
			case err, ok := <-wch.Errors:
				if !ok {
					return
				}
				dlogger.Warn("msg", "Watcher error", "err", err)
			}
		}
	}()

	filepath.Walk(folder, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if fi.IsDir() {
			return wch.Add(path)
		}
		return nil
	})

	return outCh
}
