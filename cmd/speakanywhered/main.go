// Package main provides the speak-anywhere daemon entrypoint: it wires
// config, logging, the audio/transcription/output/window/history
// collaborators, and the session/orchestrator/dispatcher event loop, then
// listens on the command socket until a termination signal arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/audio"
	"github.com/speakanywhere/speakanywhere/internal/config"
	"github.com/speakanywhere/speakanywhere/internal/core"
	"github.com/speakanywhere/speakanywhere/internal/detector"
	"github.com/speakanywhere/speakanywhere/internal/history"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/logging"
	"github.com/speakanywhere/speakanywhere/internal/model"
	"github.com/speakanywhere/speakanywhere/internal/orchestrator"
	"github.com/speakanywhere/speakanywhere/internal/output"
	"github.com/speakanywhere/speakanywhere/internal/ring"
	"github.com/speakanywhere/speakanywhere/internal/session"
	"github.com/speakanywhere/speakanywhere/internal/transcriber"
	"github.com/speakanywhere/speakanywhere/internal/wakeup"
	"github.com/speakanywhere/speakanywhere/internal/window"
	"github.com/speakanywhere/speakanywhere/internal/dispatcher"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: $XDG_CONFIG_HOME/speak-anywhere/config.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfgLoaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer func() { _ = logRuntime.Close() }()
	logger := logRuntime.Logger

	for _, w := range cfgLoaded.Warnings {
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	cfg := cfgLoaded.Config
	logger.Info("starting", "config", cfgLoaded.Path, "log", logRuntime.Path)

	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath, err = ipc.RuntimeSocketPath()
		if err != nil {
			return fmt.Errorf("resolve socket path: %w", err)
		}
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		return fmt.Errorf("acquire command socket: %w", err)
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return fmt.Errorf("select audio device: %w", err)
	}
	if selection.Warning != "" {
		logger.Warn("audio device selection", "warning", selection.Warning)
	}
	logger.Info("audio device selected", "device", selection.Device.ID)

	ringCapacity := cfg.Audio.MaxSeconds * cfg.Audio.SampleRate * 2
	pcmRing := ring.New(ringCapacity)
	producer := audio.NewProducer(selection.Device, cfg.Audio.SampleRate, pcmRing)

	sess := session.New(pcmRing, producer, cfg.Audio.SampleRate)

	clipboardArgv, err := config.ParseArgv(cfg.Output.ClipboardCmd)
	if err != nil {
		return fmt.Errorf("parse output.clipboard_cmd: %w", err)
	}
	typeArgv, err := config.ParseArgv(cfg.Output.TypeCmd)
	if err != nil {
		return fmt.Errorf("parse output.type_cmd: %w", err)
	}
	outputFactory := output.NewFactory(output.Config{
		ClipboardArgv: clipboardArgv,
		PasteShortcut: cfg.Output.PasteShortcut,
		TypeArgv:      typeArgv,
	}, logger)
	outputSelector := core.NewOutputSelector(outputFactory, cfg.Output.TerminalApps)

	transcriberClient := transcriber.New(cfg.Backend.URL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second, logger)

	var historyStore core.HistoryReader = noopHistory{}
	var historyInserter orchestrator.HistoryStore = noopHistory{}
	if cfg.History.Enable {
		store, err := history.OpenDSN(ctx, cfg.History.DSN)
		if err != nil {
			// History is a convenience, not a load-bearing dependency: log
			// once and keep running with inserts silently no-op'd rather
			// than refuse to start transcribing at all.
			logger.Warn("history store unavailable; history will not be recorded", "error", err.Error())
		} else {
			defer store.Close()
			historyStore = store
			historyInserter = store
		}
	}

	wakeupToken := wakeup.New()
	orch := orchestrator.New(
		transcriberClient,
		historyInserter,
		outputSelector,
		sess,
		wakeupToken,
		"http",
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
		logger,
	)

	det := detector.New(cfg.Agents)
	facade := core.New(sess, orch, det, historyStore, cfg.Output.DefaultMethod, cfg.Output.TerminalApps, logger)

	windowSource := window.NewSource(time.Duration(cfg.Window.PollIntervalMS) * time.Millisecond)
	if err := window.Connect(ctx); err != nil {
		logger.Warn("window source unavailable; focus context will be empty", "error", err.Error())
	} else {
		if initial, err := window.InitialFocused(ctx); err == nil {
			facade.SetFocused(initial)
		}
		windowSource.Start(ctx)
		defer windowSource.Stop()
	}

	server := ipc.Serve(ctx, listener)
	d := dispatcher.New(server, facade, orch, windowSource, wakeupToken, logger)

	logger.Info("listening", "socket", socketPath)
	d.Run(ctx)
	logger.Info("shutdown complete")
	return nil
}

// noopHistory satisfies both core.HistoryReader and orchestrator.HistoryStore
// when history.enable is false or the store failed to open, so the rest of
// the daemon never needs a nil check on the collaborator.
type noopHistory struct{}

func (noopHistory) Recent(_ context.Context, _ int) ([]model.HistoryRecord, error) { return nil, nil }
func (noopHistory) Insert(_ context.Context, _ model.HistoryRecord) error         { return nil }
