// Command layerkbd grabs a physical keyboard, runs its events through a
// layered key-code interpretation engine, and replays the result onto a
// virtual keyboard.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"

	"layerkbd/config"
	"layerkbd/inputdevice"
	"layerkbd/layer"
	"layerkbd/outputdevice"
	"layerkbd/shellexec"
)

func main() {
	matrixPath := flag.StringP("matrix", "m", "/etc/layerkbd/matrix.json", "Matrix configuration file")
	layersPath := flag.StringP("layer", "l", "/etc/layerkbd/layers.json", "Layers configuration file")
	confPath := flag.StringP("conf", "c", "/etc/layerkbd/layerkbd.conf", "Daemon configuration file")
	debug := flag.BoolP("debug", "d", false, "Debug log level")
	verbose := flag.BoolP("verbose", "v", false, "Increase log level to info")
	testMode := flag.BoolP("test", "t", false, "Log decoded edges only; never grab or emit")
	flag.Parse()

	level := slog.LevelWarn
	switch {
	case *debug:
		level = slog.LevelDebug
	case *verbose:
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(log, *matrixPath, *layersPath, *confPath, *testMode); err != nil {
		log.Error("layerkbd: fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, matrixPath, layersPath, confPath string, testMode bool) error {
	daemon, err := config.LoadDaemon(confPath)
	if err != nil {
		return fmt.Errorf("loading daemon config: %w", err)
	}

	runner := shellexec.New(log)
	engine, err := buildEngine(log, matrixPath, layersPath, runner.Run)
	if err != nil {
		return err
	}

	devices, err := inputdevice.Scan(daemon.ScanDevices.Search, daemon.ScanDevices.BypassRE, log)
	if err != nil {
		return fmt.Errorf("scanning input devices: %w", err)
	}
	if len(devices) == 0 {
		return fmt.Errorf("no matching keyboard-capable input device found")
	}

	if !testMode {
		for _, d := range devices {
			if err := d.Grab(); err != nil {
				return fmt.Errorf("grabbing device %q: %w", d.Name, err)
			}
			defer d.Release()
		}
	}
	for _, d := range devices {
		go d.Run()
	}
	events := inputdevice.Merge(devices)

	var out *outputdevice.Device
	if !testMode {
		out, err = outputdevice.New()
		if err != nil {
			return fmt.Errorf("opening virtual keyboard: %w", err)
		}
	}

	watcher, err := watchConfig(log, matrixPath, layersPath, confPath)
	if err != nil {
		log.Warn("layerkbd: config reload disabled", "error", err)
	} else {
		defer watcher.Close()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	start := time.Now()
	for {
		var wake <-chan time.Time
		if deadline, ok := engine.NextDeadline(); ok {
			// A deadline already in the past (the Tick below hasn't
			// drained it yet) falls through to time.After(0): the loop
			// spins once more immediately rather than sleeping, until
			// Tick drains it.
			if d := deadline - time.Since(start); d > 0 {
				wake = time.After(d)
			} else {
				wake = time.After(0)
			}
		}

		var reload <-chan fsnotify.Event
		if watcher != nil {
			reload = watcher.Events
		}

		select {
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("all input devices closed")
			}
			emitted := engine.OnInputEvent(ev.Code, ev.Down, time.Since(start))
			if testMode {
				logEdges(log, ev, emitted)
			} else if len(emitted) > 0 {
				if err := out.Flush(emitted); err != nil {
					log.Error("layerkbd: output flush failed", "error", err)
				}
			}

		case <-wake:
			emitted := engine.Tick(time.Since(start))
			if !testMode && len(emitted) > 0 {
				if err := out.Flush(emitted); err != nil {
					log.Error("layerkbd: output flush failed", "error", err)
				}
			}

		case <-reload:
			log.Info("layerkbd: configuration changed, reloading")
			newEngine, err := buildEngine(log, matrixPath, layersPath, runner.Run)
			if err != nil {
				log.Error("layerkbd: config reload failed, keeping previous engine", "error", err)
				continue
			}
			engine = newEngine

		case s := <-sig:
			log.Info("layerkbd: received signal, exiting", "signal", s)
			return nil
		}
	}
}

func buildEngine(log *slog.Logger, matrixPath, layersPath string, run config.ExecRunner) (*layer.Engine, error) {
	matrix, err := config.LoadMatrix(matrixPath)
	if err != nil {
		return nil, fmt.Errorf("loading matrix: %w", err)
	}
	rows, cols := matrix.Dim()
	layers, err := config.LoadLayers(layersPath, rows, cols, run)
	if err != nil {
		return nil, fmt.Errorf("loading layers: %w", err)
	}
	return layer.New(matrix, layers, layer.NewMonotonicClock()), nil
}

func watchConfig(log *slog.Logger, paths ...string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			log.Warn("layerkbd: cannot watch config file", "path", p, "error", err)
		}
	}
	return w, nil
}

func logEdges(log *slog.Logger, ev inputdevice.Event, emitted []layer.OutputEvent) {
	log.Debug("layerkbd: edge", "code", ev.Code, "down", ev.Down, "emitted", len(emitted))
}
