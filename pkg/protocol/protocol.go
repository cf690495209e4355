// Package protocol speaks the hub's line protocol: single-line frames of
// the form TO:VERB:NOUN[:ARG...]:FROM over a websocket.
package protocol

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"
	"time"
)

// Broadcast addresses every shard on the hub.
const Broadcast = "ALL"

type Config struct {
	Shard  string
	URL    string
	Reconn time.Duration
	// Handler receives every frame addressed to Shard or Broadcast.
	Handler func(*Message)
}

type Protocol struct {
	ws *WebSocket

	shard   string
	handler func(*Message)
}

func Dial(ctx context.Context, cfg Config) (*Protocol, error) {
	if !isToken(cfg.Shard) {
		return nil, fmt.Errorf("invalid shard name: %q", cfg.Shard)
	}

	ws, err := DialWebSocket(ctx, cfg.URL, cfg.Reconn)
	if err != nil {
		return nil, err
	}

	return &Protocol{
		ws:      ws,
		shard:   cfg.Shard,
		handler: cfg.Handler,
	}, nil
}

func (ptcl *Protocol) Shard() string { return ptcl.shard }

// Transmit sends a Message, a preformatted string or a list of fields. The
// FROM field is always this shard.
func (ptcl *Protocol) Transmit(v any) error {
	var msg string

	switch m := v.(type) {
	case Message:
		m.From = ptcl.shard
		msg = m.String()
	case *Message:
		c := *m
		c.From = ptcl.shard
		msg = c.String()
	case string:
		msg = fmt.Sprintf("%s:%s", m, ptcl.shard)
	case []string:
		msg = fmt.Sprintf("%s:%s", strings.Join(m, ":"), ptcl.shard)
	default:
		return fmt.Errorf("unsupported frame type %T", v)
	}

	if _, err := Parse(msg); err != nil {
		return fmt.Errorf("refusing to send %q: %w", msg, err)
	}

	err := ptcl.ws.Write([]byte(msg))
	if err != nil {
		log.Error("Failed to transmit", "msg", msg, "err", err)
	}
	return err
}

// Run reads frames until ctx is done, reconnecting when the hub drops the
// connection.
func (ptcl *Protocol) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { ptcl.ws.Close() })
	defer stop()

	for {
		in := ptcl.ws.Read()
		if ctx.Err() != nil {
			return nil
		}

		switch in.kind {
		case incomeClosed, incomeFailure:
			// a failed gorilla connection never recovers, so both kinds redial
			if in.kind == incomeFailure {
				log.Error("Failed to read", "err", in.err)
			}
			log.Warn("Trying to reconnect", "url", ptcl.ws.url)
			if err := ptcl.ws.Reconnect(ctx); err != nil {
				return nil
			}
			log.Info("Successfully reconnected", "url", ptcl.ws.url)

		case incomeOK:
			if !ptcl.checkRecipient(in.msg) {
				continue
			}

			msg, err := Parse(string(in.msg))
			if err != nil {
				log.Warn("Failed to parse", "msg", string(in.msg), "err", err)
				continue
			}

			if ptcl.handler != nil {
				ptcl.handler(msg)
			}
		}
	}
}

func (ptcl *Protocol) Close() error {
	return ptcl.ws.Close()
}

func (ptcl *Protocol) checkRecipient(msg []byte) bool {
	to, _, _ := strings.Cut(string(msg), ":")
	return to == ptcl.shard || to == Broadcast
}

func Parse(line string) (*Message, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return nil, errors.New("empty message")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		// frames are single-line
		return nil, fmt.Errorf("invalid whitespace present")
	}
	parts := strings.Split(s, ":")
	if len(parts) < 4 {
		return nil, fmt.Errorf("too few fields: got %d, want >= 4", len(parts))
	}

	to := parts[0]
	verb := parts[1]
	noun := parts[2]
	from := parts[len(parts)-1]
	args := append([]string(nil), parts[3:len(parts)-1]...)

	if !isToken(to) && !isHexID(to) && to != Broadcast {
		return nil, fmt.Errorf("invalid TO token: %q", to)
	}
	if !isToken(from) && !isHexID(from) {
		return nil, fmt.Errorf("invalid FROM token: %q", from)
	}

	if !isToken(noun) || !isToken(verb) {
		return nil, fmt.Errorf("invalid NOUN/VERB: %q %q", noun, verb)
	}
	for i, a := range args {
		if !isArg(a) {
			return nil, fmt.Errorf("invalid ARG[%d]: %q", i, a)
		}
	}

	msg := &Message{
		To:   to,
		Verb: strings.ToUpper(verb),
		Noun: strings.ToUpper(noun),
		Args: args,
		From: from,
	}
	return msg, nil
}

var (
	tokenRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	// args may carry route paths
	argRe   = regexp.MustCompile(`^[A-Za-z0-9_./-]+$`)
	hexIDRe = regexp.MustCompile(`^[0-9A-F]{2}$`)
)

func isToken(s string) bool {
	return tokenRe.MatchString(s)
}

func isArg(s string) bool {
	return argRe.MatchString(s)
}

func isHexID(s string) bool {
	return hexIDRe.MatchString(strings.ToUpper(s))
}

type Message struct {
	To   string
	Verb string
	Noun string
	Args []string
	From string
}

func (m *Message) String() string {
	parts := make([]string, 0, 4+len(m.Args))
	parts = append(parts, m.To)
	parts = append(parts, m.Verb)
	parts = append(parts, m.Noun)
	parts = append(parts, m.Args...)
	parts = append(parts, m.From)
	return strings.Join(parts, ":")
}

// Reply returns a frame addressed back to the sender of m.
func (m *Message) Reply() *Message {
	return &Message{To: m.From, Verb: m.Verb, Noun: m.Noun}
}

func (m *Message) Error(reason string, args ...string) {
	m.Verb = "ERR"
	m.Noun = reason
	m.Args = args
}

func (m *Message) Ok(reason string, args ...string) {
	m.Verb = "OK"
	m.Noun = reason
	m.Args = args
}
