package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/angch/logrelay/config"
	"github.com/fsnotify/fsnotify"
)

// watchConfig calls onReload with the new configuration whenever the file
// at configPath changes and still parses and validates.
func watchConfig(ctx context.Context, configPath string, onReload func(*config.Config)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(configPath); err != nil {
		log.Printf("Failed to watch config file %s: %v", configPath, err)
		return
	}

	log.Printf("Watching config file %s for changes...", configPath)

	var (
		mu            sync.Mutex
		debounceTimer *time.Timer
	)
	const debounceDuration = 500 * time.Millisecond

	reload := func() {
		// Reloads are serialized so onReload never runs concurrently.
		mu.Lock()
		defer mu.Unlock()

		cfg, err := config.ReadFile(configPath)
		if err != nil {
			log.Printf("Config file changed but could not be read, ignoring reload: %v", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			log.Printf("Config file changed but is invalid, ignoring reload: %v", err)
			return
		}
		log.Println("Config file changed and valid, reloading...")
		onReload(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			// Editors that save by rename replace the inode, so the watch
			// has to be re-added on the new file.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(100 * time.Millisecond)
				if err := watcher.Add(configPath); err != nil {
					log.Printf("Config file %s renamed/removed and could not be re-watched: %v", configPath, err)
					continue
				}
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDuration, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}
