package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	ws "github.com/gorilla/websocket"

	"github.com/gymjs/muscle-selector/internal/dispatcher"
	"github.com/gymjs/muscle-selector/pkg/protocol"
)

const (
	sendChSize     = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
)

// connection serves one WebSocket client bound to a session. Only writeLoop
// writes to the socket.
type connection struct {
	conn      *ws.Conn
	sessionID string
	sendCh    chan []byte
	done      chan struct{}
	closeOnce sync.Once

	dispatch func(dispatcher.Event) (any, error)
	logger   *slog.Logger
}

func newConnection(conn *ws.Conn, sessionID string, dispatch func(dispatcher.Event) (any, error), logger *slog.Logger) *connection {
	return &connection{
		conn:      conn,
		sessionID: sessionID,
		sendCh:    make(chan []byte, sendChSize),
		done:      make(chan struct{}),
		dispatch:  dispatch,
		logger:    logger.With("session", sessionID),
	}
}

// handleWebSocket upgrades the request and streams state replies for every
// envelope the client sends. The current state is pushed first.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if s.shuttingDown() {
		s.writeError(w, r, errShuttingDown)
		return
	}
	sess, err := s.svc.Session(sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("WebSocket upgrade failed", "session", sessionID, "error", err)
		return
	}

	c := newConnection(conn, sessionID, s.dispatcher.Dispatch, s.logger)
	if !s.track(c) {
		_ = conn.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseGoingAway, errShuttingDown.Error()),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	c.reply(protocol.Reply{Type: protocol.ReplyState, State: sess.State()})
	go func() {
		defer s.wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer s.wg.Done()
		defer s.untrack(c)
		c.readLoop()
	}()

	s.logger.Info("WebSocket connected", "session", sessionID, "remote", r.RemoteAddr)
}

// writeLoop drains sendCh, pings the client and sends a close frame on
// shutdown.
func (c *connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("WebSocket SetWriteDeadline error", "error", err)
				c.close()
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.logger.Warn("WebSocket write error", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("WebSocket ping failed", "error", err)
				c.close()
				return
			}
		}
	}
}

// readLoop decodes envelopes and dispatches them in arrival order.
func (c *connection) readLoop() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if ws.IsUnexpectedCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
					c.logger.Warn("WebSocket read error", "error", err)
				}
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *connection) handleMessage(message []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
		c.logger.Debug("Malformed envelope", "raw", string(message))
		c.reply(protocol.Reply{Type: protocol.ReplyError, Error: "malformed envelope"})
		return
	}
	if env.Type == protocol.TypePing {
		c.reply(protocol.Reply{Type: protocol.ReplyAck, For: protocol.TypePing})
		return
	}

	state, err := c.dispatch(dispatcher.Event{
		Command:   env.Type,
		SessionID: c.sessionID,
		Payload:   env.Payload,
	})
	if err != nil {
		if !errors.Is(err, dispatcher.ErrUnknownCommand) {
			c.logger.Debug("Command failed", "command", env.Type, "error", err)
		}
		c.reply(protocol.Reply{Type: protocol.ReplyError, For: env.Type, Error: err.Error()})
		return
	}
	c.reply(protocol.Reply{Type: protocol.ReplyState, For: env.Type, State: state})
}

// reply queues a message for the write loop. A client that lets sendCh fill
// up is disconnected rather than silently missing a reply.
func (c *connection) reply(r protocol.Reply) {
	data, err := json.Marshal(r)
	if err != nil {
		c.logger.Error("Failed to marshal reply", "for", r.For, "error", err)
		return
	}
	select {
	case <-c.done:
	case c.sendCh <- data:
	default:
		c.logger.Warn("WebSocket client too slow, closing", "for", r.For, "pending", len(c.sendCh))
		c.close()
	}
}

// close stops both loops. Safe to call more than once.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		// unblock readLoop
		_ = c.conn.SetReadDeadline(time.Now())
	})
}
