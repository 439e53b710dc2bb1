package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fedskywalker/four-in-a-row/internal/protocol"
	"github.com/fedskywalker/four-in-a-row/internal/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler is the relay: it manages room membership and moves opaque state
// blobs between the two occupants of a room. Game rules are never evaluated
// here; they live in the game package, executed on both clients.
type Handler struct {
	registry *room.Registry
	logger   *slog.Logger

	mu    sync.RWMutex
	conns map[string]*conn
}

// conn is one connected client. roomCode is touched only by the connection's
// own read goroutine, so it needs no lock.
type conn struct {
	id       string
	ws       *websocket.Conn
	send     chan []byte
	roomCode string
}

// NewHandler creates a relay handler backed by the given registry.
func NewHandler(registry *room.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger,
		conns:    make(map[string]*conn),
	}
}

// Serve upgrades the request and runs the connection until it drops.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &conn{
		id:   uuid.NewString(),
		ws:   wsConn,
		send: make(chan []byte, 256),
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	h.logger.Info("client connected", "conn", c.id)

	go c.writePump()
	h.readPump(c)
}

func (h *Handler) readPump(c *conn) {
	defer func() {
		h.disconnect(c)
		c.ws.Close()
	}()

	for {
		var msg protocol.Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			return
		}
		h.dispatch(c, msg)
	}
}

func (c *conn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// dispatch handles one inbound event. Handlers run to completion on the
// connection's read goroutine; concurrent access to a room from the two
// players' goroutines is serialized by the room's own mutex.
func (h *Handler) dispatch(c *conn, msg protocol.Message) {
	switch msg.Event {
	case protocol.EventCreate:
		h.handleCreate(c)
	case protocol.EventJoin:
		h.handleJoin(c, msg)
	case protocol.EventLeave:
		h.handleLeave(c)
	case protocol.EventMove:
		h.handleMove(c, msg)
	case protocol.EventRematch:
		h.handleRematch(c)
	default:
		h.sendError(c.id, "unknown event")
	}
}

func (h *Handler) handleCreate(c *conn) {
	if c.roomCode != "" {
		h.sendError(c.id, "already in a game")
		return
	}
	r, err := h.registry.Create(c.id)
	if err != nil {
		h.logger.Error("room creation failed", "error", err)
		h.sendError(c.id, "could not create game")
		return
	}
	c.roomCode = r.Code
	h.sendTo(c.id, protocol.Message{
		Event:        protocol.EventGameCreated,
		GameCode:     r.Code,
		PlayerNumber: 1,
	})
}

func (h *Handler) handleJoin(c *conn, msg protocol.Message) {
	if c.roomCode != "" {
		h.sendError(c.id, "already in a game")
		return
	}
	code := protocol.NormalizeCode(msg.GameCode)
	r, err := h.registry.Join(code, c.id)
	switch err {
	case nil:
	case room.ErrRoomNotFound:
		h.sendError(c.id, "game not found")
		return
	case room.ErrRoomFull:
		h.sendError(c.id, "game is full")
		return
	default:
		h.sendError(c.id, "could not join game")
		return
	}

	c.roomCode = code
	number := r.PlayerNumber(c.id)
	h.sendTo(c.id, protocol.Message{
		Event:        protocol.EventGameJoined,
		GameCode:     code,
		PlayerNumber: number,
	})

	// A cached snapshot means a game is in progress; bring the joiner up to
	// date before anything else happens.
	if state := r.GameState(); state != nil {
		h.sendTo(c.id, protocol.Message{
			Event:     protocol.EventGameStateSync,
			GameCode:  code,
			GameState: state,
		})
	}

	if opponent, ok := r.Opponent(c.id); ok {
		h.sendTo(opponent, protocol.Message{
			Event:        protocol.EventOpponentJoined,
			GameCode:     code,
			PlayerNumber: number,
		})
	}
}

func (h *Handler) handleLeave(c *conn) {
	if c.roomCode == "" {
		return
	}
	code := c.roomCode
	c.roomCode = ""
	r, alive := h.registry.Leave(code, c.id)
	if !alive {
		return
	}
	for _, id := range r.Players() {
		h.sendTo(id, protocol.Message{
			Event:    protocol.EventOpponentLeft,
			GameCode: code,
		})
	}
}

func (h *Handler) handleMove(c *conn, msg protocol.Message) {
	if c.roomCode == "" {
		h.sendError(c.id, "not in a game")
		return
	}
	r, ok := h.registry.Get(c.roomCode)
	if !ok {
		h.sendError(c.id, "game not found")
		return
	}

	// Cache the reported state as the latest known snapshot and forward the
	// move verbatim. No legality re-check: the reporting client is trusted.
	r.SetGameState(msg.GameState)
	if opponent, ok := r.Opponent(c.id); ok {
		h.sendTo(opponent, protocol.Message{
			Event:     protocol.EventOpponentMove,
			GameCode:  c.roomCode,
			Column:    msg.Column,
			Row:       msg.Row,
			GameState: msg.GameState,
		})
	}
}

func (h *Handler) handleRematch(c *conn) {
	if c.roomCode == "" {
		h.sendError(c.id, "not in a game")
		return
	}
	both, err := h.registry.RequestRematch(c.roomCode, c.id)
	if err != nil {
		h.sendError(c.id, "game not found")
		return
	}
	r, ok := h.registry.Get(c.roomCode)
	if !ok {
		return
	}
	if both {
		for _, id := range r.Players() {
			h.sendTo(id, protocol.Message{
				Event:    protocol.EventRematchStart,
				GameCode: c.roomCode,
			})
		}
		return
	}
	if opponent, ok := r.Opponent(c.id); ok {
		h.sendTo(opponent, protocol.Message{
			Event:    protocol.EventRematchRequested,
			GameCode: c.roomCode,
		})
	}
}

// disconnect treats a dropped transport as an implicit leave.
func (h *Handler) disconnect(c *conn) {
	h.handleLeave(c)

	h.mu.Lock()
	if _, ok := h.conns[c.id]; ok {
		delete(h.conns, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Info("client disconnected", "conn", c.id)
}

func (h *Handler) sendTo(connID string, msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal failed", "event", msg.Event, "error", err)
		return
	}

	// disconnect closes the send channel under the write lock, so holding
	// the read lock across the send keeps it off a closed channel.
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}

	select {
	case c.send <- data:
	default:
		// Slow consumer: drop the message rather than block the relay.
		h.logger.Warn("send buffer full, dropping message", "conn", connID, "event", msg.Event)
	}
}

func (h *Handler) sendError(connID, reason string) {
	h.sendTo(connID, protocol.Message{Event: protocol.EventError, Message: reason})
}
