// Package ipc is the daemon's control channel: one JSON request and one
// JSON response per unix socket connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const DefaultSocketPath = "/tmp/voxguide.sock"

// ErrUnreachable is returned by Send when nothing accepts connections on
// the socket.
var ErrUnreachable = errors.New("daemon unreachable")

const (
	CmdToggle   = "toggle"
	CmdSpeak    = "speak"
	CmdState    = "state"
	CmdCommands = "commands"
)

type Request struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Command struct {
	Patterns    []string `json:"patterns"`
	Description string   `json:"description"`
	Group       string   `json:"group,omitempty"`
}

type Response struct {
	OK         bool      `json:"ok"`
	Phase      string    `json:"phase,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Commands   []Command `json:"commands,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type Handler func(ctx context.Context, req Request) Response

type Server struct {
	path    string
	ln      net.Listener
	handler Handler
	wg      sync.WaitGroup
}

// Listen removes a stale socket at path and starts listening on it.
func Listen(path string, handler Handler) (*Server, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	return &Server{path: path, ln: ln, handler: handler}, nil
}

// Serve accepts connections until ctx is done, then waits for in-flight
// requests and removes the socket.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.ln.Close() })
	defer stop()

	defer func() {
		s.wg.Wait()
		os.Remove(s.path)
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("Failed to accept control connection", "err", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("Bad control request", "err", err)
		_ = json.NewEncoder(conn).Encode(Response{Error: "bad request: " + err.Error()})
		return
	}

	log.Debug("Control request", "cmd", req.Cmd)
	if err := json.NewEncoder(conn).Encode(s.handler(ctx, req)); err != nil {
		log.Warn("Failed to reply", "cmd", req.Cmd, "err", err)
	}
}

// Send performs one request against the server at path.
func Send(ctx context.Context, path string, req Request) (Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("receive: %w", err)
	}
	return resp, nil
}
