// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	cmdcore "carvel.dev/gotmpl/pkg/cmd/core"
)

// WatchFlags enable re-rendering whenever the template or any data values
// file changes.
type WatchFlags struct {
	Enabled bool
}

func (s *WatchFlags) Set(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&s.Enabled, "watch", "w", false,
		"Re-render when the template or data values files change")
}

// Watch renders once, then blocks re-rendering on every change to the
// watched files. Render errors are reported and watching continues.
func (s *WatchFlags) Watch(ui cmdcore.PlainUI, files []string, render func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Starting file watcher: %s", err)
	}
	defer watcher.Close()

	for _, file := range files {
		if file == "-" {
			return fmt.Errorf("Cannot watch stdin; use --file with a path")
		}
		if err := watcher.Add(file); err != nil {
			return fmt.Errorf("Watching '%s': %s", file, err)
		}
	}

	render()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			ui.Debugf("change detected: %s\n", event.Name)
			// Editors often replace the file; re-add to keep following it.
			_ = watcher.Add(event.Name)
			render()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ui.Warnf("gotmpl: Watch error: %s\n", err)
		}
	}
}
