package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fedskywalker/four-in-a-row/internal/game"
	"github.com/fedskywalker/four-in-a-row/internal/protocol"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrNoGame       = errors.New("not in a game")
)

// Handlers is the callback surface consumed by the presentation layer.
// Rendering, animation timing and audio cues all hang off these; none of
// that is the client's concern. Nil handlers are skipped.
type Handlers struct {
	Connected        func()
	Disconnected     func(reason string)
	GameCreated      func(code string, playerNumber int)
	GameJoined       func(code string, playerNumber int)
	OpponentJoined   func()
	OpponentLeft     func()
	OpponentMove     func(column, row int)
	GameStateSync    func()
	RematchRequested func()
	RematchStart     func()
	Error            func(message string)
}

// Client is the network layer for one player. It keeps a local mirror of the
// game state: its own moves are applied optimistically before transmission,
// and every inbound state snapshot overwrites the mirror wholesale.
type Client struct {
	handlers Handlers

	mu           sync.Mutex
	ws           *websocket.Conn
	game         *game.State
	code         string
	playerNumber int
}

// New creates a client with the given callbacks.
func New(handlers Handlers) *Client {
	return &Client{
		handlers: handlers,
		game:     game.NewState(),
	}
}

// Connect dials the relay and starts listening for events.
func (c *Client) Connect(ctx context.Context, url string) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.ws = ws
	c.mu.Unlock()

	if c.handlers.Connected != nil {
		c.handlers.Connected()
	}
	go c.readLoop(ws)
	return nil
}

// Close drops the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws == nil {
		return nil
	}
	return ws.Close()
}

// CreateGame asks the relay for a new room; the reply arrives as a
// GameCreated callback carrying the code.
func (c *Client) CreateGame() error {
	return c.write(protocol.Message{Event: protocol.EventCreate})
}

// JoinGame joins an existing room by code.
func (c *Client) JoinGame(code string) error {
	return c.write(protocol.Message{
		Event:    protocol.EventJoin,
		GameCode: protocol.NormalizeCode(code),
	})
}

// LeaveGame leaves the current room.
func (c *Client) LeaveGame() error {
	c.mu.Lock()
	code := c.code
	c.code = ""
	c.playerNumber = 0
	c.mu.Unlock()
	if code == "" {
		return ErrNoGame
	}
	return c.write(protocol.Message{Event: protocol.EventLeave, GameCode: code})
}

// SendMove transmits a move and the resulting full state to the peer.
func (c *Client) SendMove(column, row int, state json.RawMessage) error {
	c.mu.Lock()
	code := c.code
	c.mu.Unlock()
	if code == "" {
		return ErrNoGame
	}
	return c.write(protocol.Message{
		Event:     protocol.EventMove,
		GameCode:  code,
		Column:    column,
		Row:       row,
		GameState: state,
	})
}

// PlayMove applies a move to the local mirror and, on success, transmits the
// resulting state. Illegal moves fail locally and nothing goes on the wire.
func (c *Client) PlayMove(column int) (game.MoveResult, error) {
	c.mu.Lock()
	if c.code == "" {
		c.mu.Unlock()
		return game.MoveResult{}, ErrNoGame
	}
	res, err := c.game.MakeMove(column)
	if err != nil {
		c.mu.Unlock()
		return game.MoveResult{}, err
	}
	state, err := c.game.Serialize()
	c.mu.Unlock()
	if err != nil {
		return game.MoveResult{}, err
	}
	return res, c.SendMove(column, res.Row, state)
}

// RequestRematch asks the opponent for a rematch.
func (c *Client) RequestRematch() error {
	c.mu.Lock()
	code := c.code
	c.mu.Unlock()
	if code == "" {
		return ErrNoGame
	}
	return c.write(protocol.Message{Event: protocol.EventRematch, GameCode: code})
}

// IsMyTurn is an advisory local gate: it compares the assigned player slot
// with the mirrored current player. The relay does not enforce it.
func (c *Client) IsMyTurn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playerNumber == 0 || c.game.GameOver {
		return false
	}
	me := game.PlayerA
	if c.playerNumber == 2 {
		me = game.PlayerB
	}
	return c.game.CurrentPlayer == me
}

// GameCode returns the current room code, empty when not in a game.
func (c *Client) GameCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// PlayerNumber returns the assigned slot (1 or 2), 0 when not in a game.
func (c *Client) PlayerNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerNumber
}

// Snapshot returns a copy of the mirrored game state.
func (c *Client) Snapshot() game.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.game
}

func (c *Client) write(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		return ErrNotConnected
	}
	return c.ws.WriteJSON(msg)
}

func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		var msg protocol.Message
		if err := ws.ReadJSON(&msg); err != nil {
			if c.handlers.Disconnected != nil {
				c.handlers.Disconnected(err.Error())
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg protocol.Message) {
	switch msg.Event {
	case protocol.EventGameCreated:
		c.mu.Lock()
		c.code = msg.GameCode
		c.playerNumber = msg.PlayerNumber
		c.game.Reset()
		c.mu.Unlock()
		if c.handlers.GameCreated != nil {
			c.handlers.GameCreated(msg.GameCode, msg.PlayerNumber)
		}

	case protocol.EventGameJoined:
		c.mu.Lock()
		c.code = msg.GameCode
		c.playerNumber = msg.PlayerNumber
		c.game.Reset()
		c.mu.Unlock()
		if c.handlers.GameJoined != nil {
			c.handlers.GameJoined(msg.GameCode, msg.PlayerNumber)
		}

	case protocol.EventOpponentJoined:
		if c.handlers.OpponentJoined != nil {
			c.handlers.OpponentJoined()
		}

	case protocol.EventOpponentLeft:
		if c.handlers.OpponentLeft != nil {
			c.handlers.OpponentLeft()
		}

	case protocol.EventOpponentMove:
		c.overwriteState(msg.GameState)
		if c.handlers.OpponentMove != nil {
			c.handlers.OpponentMove(msg.Column, msg.Row)
		}

	case protocol.EventGameStateSync:
		c.overwriteState(msg.GameState)
		if c.handlers.GameStateSync != nil {
			c.handlers.GameStateSync()
		}

	case protocol.EventRematchRequested:
		if c.handlers.RematchRequested != nil {
			c.handlers.RematchRequested()
		}

	case protocol.EventRematchStart:
		c.mu.Lock()
		c.game.Reset()
		c.mu.Unlock()
		if c.handlers.RematchStart != nil {
			c.handlers.RematchStart()
		}

	case protocol.EventError:
		if c.handlers.Error != nil {
			c.handlers.Error(msg.Message)
		}
	}
}

// overwriteState replaces the local mirror with an inbound snapshot. The
// transmitted state is authoritative, it is never merged.
func (c *Client) overwriteState(state json.RawMessage) {
	if state == nil {
		return
	}
	c.mu.Lock()
	err := c.game.Deserialize(state)
	c.mu.Unlock()
	if err != nil && c.handlers.Error != nil {
		c.handlers.Error("bad game state from peer: " + err.Error())
	}
}
