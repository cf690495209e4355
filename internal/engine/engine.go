// Package engine runs the listen → match → dispatch → speak loop and owns
// the listening state.
package engine

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"voxguide/internal/catalog"
	"voxguide/internal/nlu"
	"voxguide/internal/utterance"
)

type Phase int32

const (
	Idle Phase = iota
	Listening
	Processing
)

func (p Phase) String() string {
	switch p {
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	default:
		return "idle"
	}
}

var (
	ErrCapabilityUnavailable = errors.New("voice recognition not available")
	ErrSession               = errors.New("voice recognition error")
	ErrNoMatch               = errors.New("command not recognized")
)

const (
	executedTitle    = "Voice Command Executed"
	noMatchTitle     = "Command Not Recognized"
	noMatchNotice    = "Try saying 'voice commands' to see available options."
	unavailableTitle = "Voice Recognition Not Available"
	unavailableBody  = "No speech recognition capability is available."
	sessionTitle     = "Voice Recognition Error"
	sessionBody      = "Could not process voice command. Please try again."
)

type Engine struct {
	// mu serializes transitions. Readers use the atomics below so
	// collaborators called during Processing can still inspect state.
	mu         sync.Mutex
	phase      atomic.Int32
	transcript atomic.Value

	cat  *catalog.Catalog
	defs []catalog.Definition

	rec       Recognizer
	closeOnce sync.Once

	speaker  Speaker
	nav      Navigator
	notifier Notifier
	sink     SignalSink
	fallback Fallback
	observer Observer

	voice           Voice
	fallbackTimeout time.Duration
	log             *log.Logger
}

type Option func(*Engine)

func WithRecognizer(r Recognizer) Option { return func(e *Engine) { e.rec = r } }
func WithSpeaker(s Speaker) Option       { return func(e *Engine) { e.speaker = s } }
func WithNavigator(n Navigator) Option   { return func(e *Engine) { e.nav = n } }
func WithNotifier(n Notifier) Option     { return func(e *Engine) { e.notifier = n } }
func WithSignalSink(s SignalSink) Option { return func(e *Engine) { e.sink = s } }
func WithObserver(o Observer) Option     { return func(e *Engine) { e.observer = o } }
func WithVoice(v Voice) Option           { return func(e *Engine) { e.voice = v } }
func WithLogger(l *log.Logger) Option    { return func(e *Engine) { e.log = l } }

// WithFallback consults f, bounded by timeout, when no pattern matches.
func WithFallback(f Fallback, timeout time.Duration) Option {
	return func(e *Engine) {
		e.fallback = f
		e.fallbackTimeout = timeout
	}
}

// New builds an idle engine over cat. The engine takes ownership of the
// recognizer, if any, and releases it in Close.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		cat:      cat,
		defs:     cat.List(),
		speaker:  nopSpeaker{},
		nav:      nopNavigator{},
		notifier: nopNotifier{},
		sink:     nopSink{},
		voice:    DefaultVoice,
		log:      log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.transcript.Store("")
	return e
}

func (e *Engine) Phase() Phase           { return Phase(e.phase.Load()) }
func (e *Engine) IsListening() bool      { return e.Phase() == Listening }
func (e *Engine) IsProcessing() bool     { return e.Phase() == Processing }
func (e *Engine) LastTranscript() string { return e.transcript.Load().(string) }

// Commands lists the catalog in priority order, for help surfaces.
func (e *Engine) Commands() []catalog.Definition { return e.cat.List() }

// Speak sends text straight to the speaker, independent of recognition.
func (e *Engine) Speak(text string) error {
	return e.speaker.Speak(text, e.voice)
}

// Toggle starts listening when idle and cancels listening otherwise. The
// engine is idle again after any failure.
func (e *Engine) Toggle(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.Phase() {
	case Listening:
		if err := e.rec.Stop(); err != nil {
			e.log.Warn("Failed to stop recognizer", "err", err)
		}
		e.setPhase(Idle)
		e.log.Info("Listening cancelled")
		return nil

	case Idle:
		if e.rec == nil {
			e.notify(unavailableTitle, unavailableBody, SeverityError)
			return ErrCapabilityUnavailable
		}
		if err := e.rec.Start(ctx); err != nil {
			e.log.Error("Failed to start recognizer", "err", err)
			e.notify(unavailableTitle, unavailableBody, SeverityError)
			return fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		}
		e.setPhase(Listening)
		e.log.Info("Listening")
	}

	return nil
}

// Handle applies one recognizer event. Events arriving while the engine is
// not listening are dropped.
func (e *Engine) Handle(ctx context.Context, ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Phase() != Listening {
		e.log.Debug("Dropped event", "kind", ev.Kind, "phase", e.Phase())
		return
	}

	switch ev.Kind {
	case EventStart:
		e.log.Debug("Recognizer started")

	case EventResult:
		e.finishTurn()
		e.process(ctx, ev.Transcript)

	case EventEnd:
		e.finishTurn()
		e.setPhase(Idle)

	case EventError:
		e.finishTurn()
		e.setPhase(Idle)
		e.log.Error("Recognition failed", "err", fmt.Errorf("%w: %v", ErrSession, ev.Err))
		e.notify(sessionTitle, sessionBody, SeverityError)
	}
}

// Run feeds recognizer events to Handle until ctx is done or the event
// channel closes.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	rec := e.rec
	e.mu.Unlock()

	if rec == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	events := rec.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.Handle(ctx, ev)
		}
	}
}

// Close stops any listening turn and releases the recognizer.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	e.closeOnce.Do(func() {
		if e.rec == nil {
			return
		}
		if e.Phase() == Listening {
			_ = e.rec.Stop()
		}
		err = e.rec.Close()
		e.rec = nil
		e.setPhase(Idle)
	})
	return err
}

// finishTurn stops the recognizer once its turn has produced a final
// event, so trailing events cannot leak into the next turn.
func (e *Engine) finishTurn() {
	if err := e.rec.Stop(); err != nil {
		e.log.Warn("Failed to stop recognizer", "err", err)
	}
}

func (e *Engine) process(ctx context.Context, raw string) {
	e.setPhase(Processing)
	defer e.setPhase(Idle)

	u := utterance.Normalize(raw)
	e.transcript.Store(u)
	e.log.Info("Heard", "text", u)

	m := nlu.Find(u, e.defs)
	if !m.Found() && e.fallback != nil && u != "" {
		m = e.resolve(ctx, u)
	}

	if !m.Found() {
		e.log.Info("No command matched", "text", u, "err", ErrNoMatch)
		e.say(nlu.NoMatchFeedback)
		e.notify(noMatchTitle, noMatchNotice, SeverityError)
		e.observe(u, m, nlu.Outcome{Feedback: nlu.NoMatchFeedback})
		return
	}

	out := nlu.Dispatch(*m.Command)
	e.log.Info("Matched", "command", m.Command.Description, "action", m.Command.Action, "pattern", m.Pattern)

	if out.Route != "" {
		if err := e.nav.Navigate(out.Route); err != nil {
			e.log.Error("Failed to navigate", "route", out.Route, "err", err)
		}
	}
	for _, s := range out.Signals {
		if err := e.sink.Signal(s); err != nil {
			e.log.Error("Failed to signal", "kind", s.Kind, "err", err)
		}
	}

	e.say(out.Feedback)
	e.notify(executedTitle, m.Command.Description, SeverityInfo)
	e.observe(u, m, out)
}

func (e *Engine) resolve(ctx context.Context, u string) nlu.Match {
	if e.fallbackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fallbackTimeout)
		defer cancel()
	}

	m, err := e.fallback.Resolve(ctx, u, e.defs)
	if err != nil {
		e.log.Warn("Fallback classifier failed", "err", err)
		return nlu.NoMatch
	}
	return m
}

func (e *Engine) setPhase(to Phase) {
	from := Phase(e.phase.Swap(int32(to)))
	if from != to && e.observer != nil {
		e.observer.PhaseChanged(from, to)
	}
}

func (e *Engine) say(text string) {
	if err := e.speaker.Speak(text, e.voice); err != nil {
		e.log.Error("Failed to voice out", "err", err)
	}
}

func (e *Engine) notify(title, desc string, sev Severity) {
	e.notifier.Notify(Notice{Title: title, Description: desc, Severity: sev})
}

func (e *Engine) observe(u string, m nlu.Match, out nlu.Outcome) {
	if e.observer != nil {
		e.observer.Processed(u, m, out)
	}
}

type nopSpeaker struct{}

func (nopSpeaker) Speak(string, Voice) error { return nil }

type nopNavigator struct{}

func (nopNavigator) Navigate(string) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

type nopSink struct{}

func (nopSink) Signal(nlu.Signal) error { return nil }
