// Package app provides the main application structure and coordination
// for fxplay. It wires configuration, logging, the terminal backend and the
// playground together and manages the application lifecycle.
package app

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/fxplay/internal/config"
	"github.com/dshills/fxplay/internal/logging"
	"github.com/dshills/fxplay/internal/playground"
	"github.com/dshills/fxplay/internal/renderer/backend"
	"github.com/dshills/fxplay/internal/script"
)

// Application is the central coordinator for all fxplay components.
type Application struct {
	mu sync.RWMutex

	cfg     *config.Config
	log     *logging.Logger
	logFile io.Closer
	metrics *Metrics

	backend    backend.Backend
	driver     *backend.Driver
	playground *playground.Playground
	steps      []script.Step

	running      atomic.Bool
	done         chan struct{}
	shutdownOnce sync.Once

	opts Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the YAML configuration file.
	ConfigPath string

	// EnvFile is the .env file to read. Empty uses config.DefaultEnvFile.
	EnvFile string

	// Headless renders off-screen and prints the final frame.
	Headless bool

	// Frames overrides the number of headless frames when positive.
	Frames int

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// ScriptPath is a JSON-lines script driving the renderers.
	ScriptPath string

	// CanvasFiles are ANSI files to show, one renderer each, assigned to
	// the configured containers in order.
	CanvasFiles []string

	// EffectPath is the effect applied to renderers created from CanvasFiles.
	EffectPath string

	// Status prints a JSON status snapshot after a headless run.
	Status bool

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New loads configuration and prepares an application. The backend is set
// separately with SetBackend.
func New(opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	app := &Application{
		opts: opts,
		done: make(chan struct{}),
	}
	if err := app.bootstrap(); err != nil {
		if app.logFile != nil {
			app.logFile.Close()
		}
		return nil, err
	}
	return app, nil
}

// SetBackend sets the display backend. It must be called before Run.
func (app *Application) SetBackend(b backend.Backend) error {
	if app.running.Load() {
		return ErrAlreadyRunning
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	app.backend = b
	return nil
}

// Shutdown initiates graceful shutdown. Safe to call more than once and
// from any goroutine.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() { close(app.done) })
}

// Close releases the log file. Call it after Run returns.
func (app *Application) Close() error {
	if app.logFile == nil {
		return nil
	}
	return app.logFile.Close()
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Headless reports whether the application renders off-screen.
func (app *Application) Headless() bool {
	return app.cfg.Render.Headless
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger {
	return app.log
}

// Metrics returns the frame and input metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Playground returns the playground. It is nil until Run has started.
func (app *Application) Playground() *playground.Playground {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.playground
}

func frameBudget(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}
