package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cli "github.com/spf13/pflag"

	"voxguide/internal/catalog"
	"voxguide/internal/config"
	"voxguide/internal/engine"
	"voxguide/internal/host"
	"voxguide/internal/listen"
	"voxguide/internal/logging"
	"voxguide/internal/nlu"
)

// console plays every collaborator of the engine on a terminal.
type console struct {
	out  io.Writer
	idle chan struct{}
}

func (c *console) Speak(text string, _ engine.Voice) error {
	_, err := fmt.Fprintf(c.out, "vox> %s\n", text)
	return err
}

func (c *console) Navigate(route string) error {
	_, err := fmt.Fprintf(c.out, "  -> %s\n", route)
	return err
}

func (c *console) Signal(s nlu.Signal) error {
	_, err := fmt.Fprintf(c.out, "  ~> %s %s\n", s.Kind, s.Value)
	return err
}

func (c *console) Notify(n engine.Notice) {
	log.Info(n.Title, "severity", n.Severity, "desc", n.Description)
}

func (c *console) PhaseChanged(_, to engine.Phase) {
	if to != engine.Idle {
		return
	}
	select {
	case c.idle <- struct{}{}:
	default:
	}
}

func (c *console) Processed(string, nlu.Match, nlu.Outcome) {}

func main() {
	cfg, err := config.Load("voxguide", os.Args[1:], os.Environ())
	if errors.Is(err, cli.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.Setup(cfg.LogLevel)

	cat, err := host.Catalog(cfg.Catalog)
	if err != nil {
		log.Error("Failed to load catalog", "err", err)
		os.Exit(1)
	}

	opts, err := host.EngineOptions(cfg, logger)
	if err != nil {
		log.Error("Failed to set up fallback", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	text := listen.NewTextListener()
	c := &console{out: os.Stdout, idle: make(chan struct{}, 1)}

	eng := engine.New(cat, append(opts,
		engine.WithRecognizer(listen.NewSession(text, 0)),
		engine.WithSpeaker(c),
		engine.WithNavigator(c),
		engine.WithSignalSink(c),
		engine.WithNotifier(c),
		engine.WithObserver(c),
	)...)
	defer eng.Close()

	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Engine stopped", "err", err)
		}
	}()

	fmt.Fprintln(c.out, "Type a command, :commands to list them, :quit to leave.")
	if err := repl(ctx, bufio.NewScanner(os.Stdin), eng, text, c, cat); err != nil {
		log.Error("Failed to read input", "err", err)
		os.Exit(1)
	}
}

func repl(ctx context.Context, in *bufio.Scanner, eng *engine.Engine, text *listen.TextListener, c *console, cat *catalog.Catalog) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for in.Scan() {
			lines <- in.Text()
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return in.Err()
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":commands":
			printCommands(c.out, cat)
			continue
		}

		// drain a stale idle signal
		select {
		case <-c.idle:
		default:
		}

		if err := eng.Toggle(ctx); err != nil {
			log.Error("Failed to start listening", "err", err)
			continue
		}
		if err := text.Feed(ctx, line); err != nil {
			return nil
		}

		select {
		case <-c.idle:
		case <-ctx.Done():
			return nil
		}
	}
}

func printCommands(w io.Writer, cat *catalog.Catalog) {
	names, groups := cat.Groups()
	for _, name := range names {
		title := name
		if title == "" {
			title = "other"
		}
		fmt.Fprintf(w, "%s:\n", title)
		for _, d := range groups[name] {
			fmt.Fprintf(w, "  %-32s %s\n", strings.Join(d.Patterns, ", "), d.Description)
		}
	}
}
