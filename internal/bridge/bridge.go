// Package bridge connects the engine to the UI shard on the hub. It turns
// navigation, signals and notices into protocol frames and turns the UI's
// TOGGLE frames into engine toggles.
package bridge

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"voxguide/internal/engine"
	"voxguide/internal/nlu"
	"voxguide/pkg/protocol"
)

const DefaultUIShard = "UI"

type Transmitter interface {
	Transmit(v any) error
}

// Toggler is the part of the engine the UI may drive.
type Toggler interface {
	Toggle(ctx context.Context) error
	Phase() engine.Phase
}

type Bridge struct {
	tx Transmitter
	ui string
}

func New(tx Transmitter, ui string) *Bridge {
	if ui == "" {
		ui = DefaultUIShard
	}
	return &Bridge{tx: tx, ui: ui}
}

func (b *Bridge) send(verb, noun string, args ...string) error {
	return b.tx.Transmit(protocol.Message{To: b.ui, Verb: verb, Noun: noun, Args: args})
}

func (b *Bridge) Navigate(route string) error {
	if err := b.send("GO", "ROUTE", route); err != nil {
		return fmt.Errorf("navigate %s: %w", route, err)
	}
	return nil
}

func (b *Bridge) Signal(s nlu.Signal) error {
	var err error
	switch s.Kind {
	case nlu.ShareLocation:
		err = b.send("SHARE", "LOCATION")
	case nlu.SetVoice:
		err = b.send("SET", "VOICE", s.Value)
	case nlu.AdjustVolume:
		err = b.send("SET", "VOLUME", s.Value)
	default:
		return fmt.Errorf("unknown signal %q", s.Kind)
	}
	if err != nil {
		return fmt.Errorf("signal %s: %w", s.Kind, err)
	}
	return nil
}

// Notify forwards the severity only; titles do not fit a frame.
func (b *Bridge) Notify(n engine.Notice) {
	if err := b.send("SHOW", "NOTICE", n.Severity.String()); err != nil {
		log.Warn("Failed to forward notice", "title", n.Title, "err", err)
	}
}

// Handler answers UI frames. It is meant for protocol.Config.Handler.
func (b *Bridge) Handler(ctx context.Context, t Toggler) func(*protocol.Message) {
	return func(m *protocol.Message) {
		reply := m.Reply()

		switch {
		case m.Verb == "TOGGLE" && m.Noun == "LISTEN":
			err := t.Toggle(ctx)
			switch {
			case errors.Is(err, engine.ErrCapabilityUnavailable):
				reply.Error("UNAVAILABLE")
			case err != nil:
				reply.Error("FAILED")
			default:
				reply.Ok("LISTEN", t.Phase().String())
			}

		case m.Verb == "GET" && m.Noun == "PHASE":
			reply.Ok("PHASE", t.Phase().String())

		default:
			log.Debug("Ignoring frame", "frame", m.String())
			return
		}

		if err := b.tx.Transmit(reply); err != nil {
			log.Warn("Failed to reply", "to", m.From, "err", err)
		}
	}
}
