package protocol

import (
	"context"
	"errors"
	log "log/slog"
	"net"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

type WebSocket struct {
	url    string
	reconn time.Duration

	mu     sync.Mutex // guards conn swaps and writes
	conn   *ws.Conn
	closed bool
}

func DialWebSocket(ctx context.Context, url string, reconn time.Duration) (*WebSocket, error) {
	log.Debug("init websocket protocol", "url", url)

	if reconn <= 0 {
		reconn = time.Second
	}

	conn, _, err := ws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		log.Error("Failed to dial url", "url", url, "err", err)
		return nil, err
	}

	return &WebSocket{
		url:    url,
		reconn: reconn,
		conn:   conn,
	}, nil
}

func (web *WebSocket) Write(payload []byte) error {
	web.mu.Lock()
	defer web.mu.Unlock()

	if web.closed {
		return net.ErrClosed
	}

	log.Debug("Write ws", "msg", string(payload))
	return web.conn.WriteMessage(ws.TextMessage, payload)
}

type incomeKind uint

const (
	incomeClosed incomeKind = iota
	incomeFailure
	incomeOK
)

type income struct {
	kind incomeKind
	msg  []byte
	err  error
}

// Read blocks for the next frame. Only one goroutine may read.
func (web *WebSocket) Read() income {
	web.mu.Lock()
	conn := web.conn
	web.mu.Unlock()

	_, msg, err := conn.ReadMessage()
	if err != nil {
		if WsIsClosed(err) || errors.Is(err, net.ErrClosed) {
			return income{kind: incomeClosed, err: err}
		}
		return income{kind: incomeFailure, err: err}
	}

	log.Debug("Read ws", "msg", string(msg))
	return income{kind: incomeOK, msg: msg}
}

// Reconnect dials until it succeeds, the socket is closed or ctx is done.
func (web *WebSocket) Reconnect(ctx context.Context) error {
	t := time.NewTicker(web.reconn)
	defer t.Stop()

	for {
		web.mu.Lock()
		closed := web.closed
		web.mu.Unlock()
		if closed {
			return net.ErrClosed
		}

		conn, _, err := ws.DefaultDialer.DialContext(ctx, web.url, nil)
		if err == nil {
			web.mu.Lock()
			defer web.mu.Unlock()
			if web.closed {
				conn.Close()
				return net.ErrClosed
			}
			web.conn.Close()
			web.conn = conn
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (web *WebSocket) Close() error {
	web.mu.Lock()
	defer web.mu.Unlock()

	if web.closed {
		return nil
	}
	web.closed = true

	_ = web.conn.WriteControl(ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return web.conn.Close()
}

func WsIsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
