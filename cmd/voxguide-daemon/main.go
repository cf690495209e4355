package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	"voxguide/internal/audio"
	"voxguide/internal/bridge"
	"voxguide/internal/catalog"
	"voxguide/internal/config"
	"voxguide/internal/engine"
	"voxguide/internal/host"
	"voxguide/internal/ipc"
	"voxguide/internal/listen"
	"voxguide/internal/logging"
	"voxguide/internal/metrics"
	"voxguide/internal/notify"
	"voxguide/internal/tts"
	"voxguide/pkg/protocol"
	"voxguide/pkg/stt"
)

func main() {
	cfg, err := config.Load("voxguide-daemon", os.Args[1:], os.Environ())
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.Setup(cfg.LogLevel)
	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		log.Error("Daemon failed", "err", err)
		os.Exit(1)
	}
	log.Info("Shut down")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	cat, err := host.Catalog(cfg.Catalog)
	if err != nil {
		return err
	}

	opts, err := host.EngineOptions(cfg, logger)
	if err != nil {
		return err
	}

	src, closeSrc, err := source(cfg.Audio)
	if err != nil {
		return err
	}
	defer closeSrc()

	whisper, err := stt.NewTranscriber(cfg.Audio.WhisperModel, stt.Options{
		Language:      cfg.Audio.Language,
		Threads:       cfg.Audio.Threads,
		InitialPrompt: vocabulary(cat),
		TranslateToEn: cfg.Audio.Translate,
		BeamSize:      cfg.Audio.BeamSize,
		Temperature:   cfg.Audio.Temperature,
	})
	if err != nil {
		return fmt.Errorf("init whisper: %w", err)
	}
	defer whisper.Close()
	log.Debug("Loaded whisper", "model", cfg.Audio.WhisperModel)

	var ducker tts.Ducker
	if cfg.Speech.Duck {
		ducker = audio.NewDucker(audio.Pactl{}, audio.DuckOptions{
			SelfNames: []string{"espeak-ng", "voxguide"},
			Factor:    0.3,
			MinVolume: 10,
			Fade:      150 * time.Millisecond,
		})
	}
	speaker, err := tts.New(tts.Options{
		Language: cfg.Speech.Language,
		Gender:   cfg.Speech.Gender,
		Ducker:   ducker,
	})
	if err != nil {
		return fmt.Errorf("init espeak: %w", err)
	}
	defer speaker.Close()

	desktop, err := notify.New(notify.Options{
		InfoChime:  cfg.Notify.InfoChime,
		ErrorChime: cfg.Notify.ErrorChime,
		Desktop:    cfg.Notify.Desktop,
	})
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	defer desktop.Close()

	observer := metrics.New()
	notifiers := engine.Notifiers{desktop}
	sinks := engine.SignalSinks{speaker}
	opts = append(opts,
		engine.WithRecognizer(listen.NewSession(listen.AudioListener{Source: src, Transcriber: whisper}, cfg.Audio.MaxTurn)),
		engine.WithSpeaker(speaker),
		engine.WithObserver(observer),
	)

	// the hub handler needs the engine, which needs the bridge
	var (
		onFrame func(*protocol.Message)
		ptcl    *protocol.Protocol
		br      *bridge.Bridge
	)
	if cfg.Hub.URL != "" {
		ptcl, err = protocol.Dial(ctx, protocol.Config{
			Shard:   cfg.Hub.Shard,
			URL:     cfg.Hub.URL,
			Reconn:  cfg.Hub.Reconnect,
			Handler: func(m *protocol.Message) { onFrame(m) },
		})
		if err != nil {
			return fmt.Errorf("connect hub: %w", err)
		}
		defer ptcl.Close()
		log.Info("Connected to hub", "url", cfg.Hub.URL, "shard", ptcl.Shard())

		br = bridge.New(ptcl, cfg.Hub.UIShard)
		notifiers = append(notifiers, br)
		sinks = append(sinks, br)
		opts = append(opts, engine.WithNavigator(br))
	}

	eng := engine.New(cat, append(opts,
		engine.WithNotifier(notifiers),
		engine.WithSignalSink(sinks),
	)...)
	defer eng.Close()

	if ptcl != nil {
		// set before Run so no frame sees a nil handler
		onFrame = br.Handler(ctx, eng)
		go func() {
			if err := ptcl.Run(ctx); err != nil {
				log.Error("Hub connection stopped", "err", err)
			}
		}()
	}

	srv, err := ipc.Listen(cfg.Socket, ipc.EngineHandler(eng))
	if err != nil {
		return fmt.Errorf("control socket: %w", err)
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.Error("Control socket stopped", "err", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, observer.Handler())
	}

	log.Info("Boot up - successful", "socket", cfg.Socket, "commands", cat.Len())

	err = eng.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// source picks the audio input: files when configured, the microphone
// otherwise.
func source(cfg config.Audio) (listen.Source, func(), error) {
	if len(cfg.Files) > 0 {
		log.Info("Using audio files instead of the microphone", "files", len(cfg.Files), "loop", cfg.Loop)
		return listen.NewFileSource(cfg.Files, cfg.Loop), func() {}, nil
	}

	rec := audio.NewRecorder(audio.DefaultRecordOptions)
	if err := rec.Init(); err != nil {
		return nil, nil, fmt.Errorf("init audio: %w", err)
	}
	log.Debug("Loaded recorder")
	return rec, rec.Close, nil
}

// vocabulary biases whisper toward the catalog's phrases.
func vocabulary(cat *catalog.Catalog) string {
	var phrases []string
	for _, d := range cat.List() {
		phrases = append(phrases, d.Patterns...)
	}
	return strings.Join(phrases, ", ")
}

func serveMetrics(ctx context.Context, addr string, h http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Metrics server failed", "err", err)
	}
}
