package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"infraglue.org/cmd/opsmetrics/conf"
	"infraglue.org/slog"
)

// watchConf sends the reloaded configuration on every change to fileName
// until ctx is done. A file that fails to load is logged and ignored.
// The directory is watched so that editors replacing the file are seen.
func watchConf(ctx context.Context, fileName string) (<-chan *conf.Conf, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(fileName)); err != nil {
		w.Close()
		return nil, err
	}
	ch := make(chan *conf.Conf)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-w.Events:
				if filepath.Clean(event.Name) != filepath.Clean(fileName) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				c, err := conf.LoadFile(fileName)
				if err != nil {
					slog.Errorf("reload %s: %v", fileName, err)
					continue
				}
				slog.Infof("reloaded %s", fileName)
				select {
				case ch <- c:
				case <-ctx.Done():
					return
				}
			case err := <-w.Errors:
				slog.Errorf("watch %s: %v", fileName, err)
			}
		}
	}()
	return ch, nil
}
