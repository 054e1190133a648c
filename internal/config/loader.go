package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"dario.cat/mergo"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML scenario file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *ScenarioConfig
	onChange []func(*ScenarioConfig)
	watcher  *fsnotify.Watcher
	log      *slog.Logger
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path, log: slog.Default()}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// SetLogger replaces the logger used to report reload failures.
func (l *Loader) SetLogger(log *slog.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = log
}

// Path returns the watched file.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *ScenarioConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*ScenarioConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the scenario on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						l.logger().Warn("scenario reload failed, keeping previous", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.logger().Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the scenario file.
func (l *Loader) Reload() (*ScenarioConfig, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*ScenarioConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) logger() *slog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.log
}

// Load reads and parses a scenario file and applies defaults. It does not validate.
func Load(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML scenario and fills unset fields from Defaults.
func Parse(data []byte) (*ScenarioConfig, error) {
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults returns the values used for every field a scenario leaves empty.
func Defaults() ScenarioConfig {
	return ScenarioConfig{
		Version: "v1",
		Simulation: SimulationConf{
			Algorithm: "overflow",
			Processes: 1,
			Compute:   ModelConf{Model: "edge"},
			Network:   ModelConf{Model: "zero"},
		},
		Engine: EngineConf{
			SweepWorkers: 4,
		},
		Log: LogConf{
			Level:  "info",
			Format: "auto",
		},
	}
}

// ApplyDefaults fills zero-valued fields of cfg from Defaults.
func ApplyDefaults(cfg *ScenarioConfig) error {
	defaults := Defaults()
	if err := mergo.Merge(cfg, defaults); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	return nil
}
