package protocol

import (
	"encoding/json"
	"strings"
)

// Event names exchanged between clients and the relay.
const (
	// client -> server
	EventCreate  = "create"
	EventJoin    = "join"
	EventLeave   = "leave"
	EventMove    = "move"
	EventRematch = "rematch"

	// server -> client
	EventGameCreated      = "game-created"
	EventGameJoined       = "game-joined"
	EventOpponentJoined   = "opponent-joined"
	EventOpponentLeft     = "opponent-left"
	EventOpponentMove     = "opponent-move"
	EventGameStateSync    = "game-state-sync"
	EventRematchRequested = "rematch-requested"
	EventRematchStart     = "rematch-start"
	EventError            = "error"
)

// Message is the wire envelope for every event in both directions. Unused
// fields are omitted. GameState is carried opaquely: the relay caches and
// forwards it without ever inspecting the board inside.
type Message struct {
	Event        string          `json:"event"`
	GameCode     string          `json:"gameCode,omitempty"`
	PlayerNumber int             `json:"playerNumber,omitempty"`
	Column       int             `json:"column,omitempty"`
	Row          int             `json:"row,omitempty"`
	GameState    json.RawMessage `json:"gameState,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// NormalizeCode uppercases and trims a room code as typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
