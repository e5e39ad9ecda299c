package main

import (
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce absorbs the bursts of write events editors and atomic
// renames produce for a single save.
const reloadDebounce = 500 * time.Millisecond

// WatchTables reloads the food and translation table files whenever they
// change on disk. Either path may be empty. A reload that fails to parse
// keeps the previous table. The returned watcher should be closed on
// shutdown.
func WatchTables(foodPath, translationPath string, db *FoodDB, translator *Translator) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watched := map[string]func(){}
	if foodPath != "" {
		abs, err := filepath.Abs(foodPath)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		watched[abs] = func() {
			table, err := LoadFoodTable(abs)
			if err != nil {
				log.Printf("reload food table %s failed, keeping previous: %v", abs, err)
				return
			}
			db.Replace(table)
			log.Printf("reloaded food table %s entries=%d", abs, len(table))
		}
	}
	if translationPath != "" {
		abs, err := filepath.Abs(translationPath)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		watched[abs] = func() {
			table, err := LoadTranslationTable(abs)
			if err != nil {
				log.Printf("reload translation table %s failed, keeping previous: %v", abs, err)
				return
			}
			translator.Replace(table)
			log.Printf("reloaded translation table %s entries=%d", abs, len(table))
		}
	}

	// Watch the parent directories: editors that save via rename replace the
	// inode, which drops a watch placed on the file itself.
	dirs := map[string]bool{}
	for path := range watched {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go func() {
		pending := map[string]bool{}
		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				abs, err := filepath.Abs(event.Name)
				if err != nil {
					continue
				}
				if _, ok := watched[abs]; !ok {
					continue
				}
				pending[abs] = true
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
				} else {
					timer.Reset(reloadDebounce)
				}
				timerC = timer.C
			case <-timerC:
				for path := range pending {
					watched[path]()
					delete(pending, path)
				}
				timerC = nil
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("table watcher error: %v", err)
			}
		}
	}()

	return watcher, nil
}
