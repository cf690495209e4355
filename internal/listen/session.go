// Package listen implements the engine's recognition capability: one
// listening turn at a time, reported as a stream of events.
package listen

import (
	"context"
	"errors"
	"sync"
	"time"

	"voxguide/internal/engine"
)

var (
	ErrBusy     = errors.New("recognition already running")
	ErrClosed   = errors.New("recognition session closed")
	ErrNoSpeech = errors.New("no speech detected")
	ErrTimeout  = errors.New("recognition timed out")
)

// Listener produces the transcript of one spoken turn.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Session runs Listener turns in the background and reports them as
// engine events. After Stop returns no further events of the stopped turn
// are delivered.
type Session struct {
	l       Listener
	maxTurn time.Duration

	events chan engine.Event

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewSession wraps l. maxTurn bounds a single turn; zero means no limit.
func NewSession(l Listener, maxTurn time.Duration) *Session {
	return &Session{
		l:       l,
		maxTurn: maxTurn,
		events:  make(chan engine.Event),
	}
}

func (s *Session) Events() <-chan engine.Event { return s.events }

// Start begins a turn. The turn outlives ctx's cancellation but keeps its
// values; use Stop to end it early.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.done != nil {
		select {
		case <-s.done:
		default:
			return ErrBusy
		}
	}

	tctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.turn(tctx, s.done)
	return nil
}

// Stop ends the running turn, if any, and waits for it to finish.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.stopLocked()
	s.closed = true
	close(s.events)

	if c, ok := s.l.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (s *Session) stopLocked() {
	if s.done == nil {
		return
	}
	s.cancel()
	<-s.done
	s.done = nil
}

func (s *Session) turn(ctx context.Context, done chan struct{}) {
	defer close(done)

	stop := ctx.Done()
	lctx := ctx
	if s.maxTurn > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeoutCause(ctx, s.maxTurn, ErrTimeout)
		defer cancel()
	}

	if !s.emit(stop, engine.Event{Kind: engine.EventStart}) {
		return
	}

	text, err := s.l.Listen(lctx)
	if ctx.Err() != nil {
		return
	}

	var ev engine.Event
	switch {
	case lctx.Err() != nil:
		ev = engine.Event{Kind: engine.EventError, Err: context.Cause(lctx)}
	case err != nil:
		ev = engine.Event{Kind: engine.EventError, Err: err}
	case text == "":
		ev = engine.Event{Kind: engine.EventError, Err: ErrNoSpeech}
	default:
		ev = engine.Event{Kind: engine.EventResult, Transcript: text}
	}

	if s.emit(stop, ev) && ev.Kind == engine.EventResult {
		s.emit(stop, engine.Event{Kind: engine.EventEnd})
	}
}

// emit delivers ev unless the turn is stopped first.
func (s *Session) emit(stop <-chan struct{}, ev engine.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-stop:
		return false
	}
}
