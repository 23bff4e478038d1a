package config

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/tandem/internal/logging"
)

// Watcher delivers a freshly decoded Config whenever the user config file
// changes on disk.
type Watcher struct {
	path   string
	logger *slog.Logger
}

// Watch loads the configuration and starts watching the user config file.
// onChange runs with the new configuration after every write. Decode errors
// are logged and the previous configuration stays in effect.
func Watch(logger *slog.Logger, onChange func(*Config)) (*Config, *Watcher, error) {
	logger = logging.OrNop(logger)
	cfg, v, err := load()
	if err != nil {
		return nil, nil, err
	}

	w := &Watcher{path: v.ConfigFileUsed(), logger: logger}
	if w.path == "" {
		logger.Debug("no user config file to watch")
		return cfg, w, nil
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			logger.Warn("config reload failed", "file", ev.Name, "error", err)
			return
		}
		logger.Info("config reloaded", "file", ev.Name, "op", ev.Op.String())
		if onChange != nil {
			onChange(next)
		}
	})
	v.WatchConfig()
	return cfg, w, nil
}

// Path returns the watched file, or "" when no user config exists.
func (w *Watcher) Path() string {
	return w.path
}

// String implements fmt.Stringer.
func (w *Watcher) String() string {
	if w.path == "" {
		return "config watcher (inactive)"
	}
	return fmt.Sprintf("config watcher (%s)", w.path)
}
