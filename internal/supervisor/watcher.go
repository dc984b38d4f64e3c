package supervisor

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/loykin/vigil/internal/channel"
)

// watchRequests watches the working directory for command marker files and
// nudges the supervisor loop when one appears, so operator requests are
// picked up ahead of the next poll tick. The poll ticker remains the source
// of truth; the watcher only shortens latency.
func watchRequests(ctx context.Context, dir string, nudge chan<- struct{}, logger *slog.Logger) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("request watcher unavailable, relying on poll interval", "error", err)
		return
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(dir); err != nil {
		logger.Warn("request watcher cannot watch directory", "dir", dir, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if name != channel.StopMarkerName && name != channel.AbortMarkerName {
				continue
			}
			select {
			case nudge <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("request watcher error", "error", err)
		}
	}
}
