// Package main is the entry point for fxplay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/fxplay/internal/app"
	"github.com/dshills/fxplay/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	// Without a terminal on stdout there is nothing to draw on.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		opts.Headless = true
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()
	defer application.Shutdown()

	var b backend.Backend
	if application.Headless() {
		rc := application.Config().Render
		b = backend.NewNullBackend(rc.Width, rc.Height)
	} else {
		t, err := backend.NewTerminal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
			return 1
		}
		b = t
	}
	if err := application.SetBackend(b); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to set backend: %v\n", err)
		return 1
	}

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		<-signals
		application.Shutdown()
	}()

	if err := application.Run(context.Background()); err != nil {
		if errors.Is(err, app.ErrQuit) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() app.Options {
	var opts app.Options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&opts.Headless, "headless", false, "Render off-screen and print the final frame")
	flag.IntVar(&opts.Frames, "frames", 0, "Frames to render in headless mode")
	flag.BoolVar(&opts.Status, "status", false, "Print a JSON status snapshot after a headless run")
	flag.StringVar(&opts.ScriptPath, "script", "", "JSON-lines script driving the renderers")
	flag.StringVar(&opts.EffectPath, "effect", "", "Effect file applied to the canvas files")
	flag.StringVar(&opts.EffectPath, "e", "", "Effect file applied to the canvas files (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "fxplay - terminal effect playground\n\n")
		fmt.Fprintf(os.Stderr, "Usage: fxplay [options] [canvas files...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  q, Esc   quit          s    stop or start all\n")
		fmt.Fprintf(os.Stderr, "  r        restart       1-9  stop or start one renderer\n")
		fmt.Fprintf(os.Stderr, "  i        log status\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  fxplay                              Run the built-in demos\n")
		fmt.Fprintf(os.Stderr, "  fxplay -e fade.lua art.ans          Play an effect over a canvas\n")
		fmt.Fprintf(os.Stderr, "  fxplay --headless --frames 120 a.ans  Print the frame after 2s at 60 fps\n")
		fmt.Fprintf(os.Stderr, "  fxplay -c fxplay.yaml --script demo.jsonl\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("fxplay %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Remaining arguments are canvas files
	opts.CanvasFiles = flag.Args()
	return opts
}
