// Command layerd is the keyboard remapping daemon: it grabs a physical
// keyboard, resolves every key through the active layer stack, and
// types the result on a virtual keyboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"layerd/internal/config"
	"layerd/internal/engine"
	"layerd/internal/platform"
	"layerd/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	err := run()
	if err != nil {
		log.Fatalf("error: %+v", err)
	}
}

func run() error {
	settingsPath := flag.String("config", config.DefaultSettingsPath(), "path to the TOML settings file")
	layoutPath := flag.String("layout", "", "layout file, overrides the settings file")
	device := flag.String("device", "", "input device, overrides the settings file")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("layerd %s (%s)\n", version, commit)
		return nil
	}

	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if *layoutPath != "" {
		settings.Layout = *layoutPath
	}
	if *device != "" {
		settings.Device = *device
	}
	if settings.Device == "" {
		return fmt.Errorf("no input device configured (use -device or the settings file)")
	}

	logger, err := newLogger(*debug, settings.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshot, err := config.LoadSnapshot(settings.Layout)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	logger.Info("layout loaded",
		zap.String("path", settings.Layout),
		zap.String("snapshot", snapshot.ID),
		zap.Strings("layers", snapshot.Table.LayerNames()))

	var scripts engine.ScriptRunner
	if settings.Script != "" {
		se, err := loadScripts(settings.Script)
		if err != nil {
			return err
		}
		defer se.Close()
		scripts = se
	}

	capture := platform.NewEvdevCapture(settings.Device, logger)
	if err := capture.Start(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	defer capture.Stop()

	injector, err := platform.NewUinputInjector("layerd virtual keyboard")
	if err != nil {
		return fmt.Errorf("create injector: %w", err)
	}
	defer injector.Close()

	eng, err := engine.New(engine.Config{
		Table:    snapshot.Table,
		Events:   capture.Events(),
		Injector: injector,
		Scripts:  scripts,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	manager := config.NewManager(snapshot, func(s *config.Snapshot) {
		eng.SetTable(s.Table)
	}, logger)

	watcher, err := config.NewWatcher(settings.Layout, func() {
		// A rejected reload keeps the previous table in force.
		_ = manager.Reload()
	}, logger)
	if err != nil {
		return fmt.Errorf("watch layout: %w", err)
	}

	logger.Info("started layerd", zap.String("device", settings.Device))

	errChan := make(chan error, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		if err := eng.Run(ctx); err != nil {
			errChan <- fmt.Errorf("engine: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := watcher.Run(ctx); err != nil {
			errChan <- fmt.Errorf("watcher: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := systemdNotifyLoop(ctx); err != nil {
			errChan <- fmt.Errorf("systemd notify: %w", err)
		}
	}()

	err = <-errChan
	stop()
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutting down")
		wg.Wait()
		return nil
	case err != nil:
		wg.Wait()
		return err
	}
	return nil
}

func loadScripts(path string) (*script.Engine, error) {
	se, err := script.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return se, nil
}

func systemdNotifyLoop(ctx context.Context) error {
	// tell systemd that we're ready
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		<-ctx.Done()
		return ctx.Err()
	}

	_, _ = daemon.SdNotify(false, "STATUS=Remapping keys")

	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	if t == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t / 2):
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

func newLogger(debug bool, level string) (*zap.Logger, error) {
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.OutputPaths = []string{"stderr"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		var l zapcore.Level
		if err := l.Set(level); err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		loggerConfig.Level = zap.NewAtomicLevelAt(l)
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
