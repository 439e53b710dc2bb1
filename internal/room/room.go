package room

import (
	"encoding/json"
	"sync"
	"time"
)

// Room is one live two-player session. The relay owns it; clients only hold
// the code. The cached game state is an opaque blob mirrored from whichever
// client reported it last; the relay never looks inside.
//
// Each room carries its own mutex so two players' messages for the same room
// can arrive concurrently without a registry-wide lock.
type Room struct {
	Code      string
	HostID    string
	CreatedAt time.Time

	mu        sync.Mutex
	players   []string
	gameState json.RawMessage
	rematch   map[string]struct{}
	closed    bool
}

func newRoom(code, hostID string) *Room {
	return &Room{
		Code:      code,
		HostID:    hostID,
		CreatedAt: time.Now(),
		players:   []string{hostID},
		rematch:   make(map[string]struct{}),
	}
}

// Players returns the connection IDs in join order.
func (r *Room) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.players))
	copy(out, r.players)
	return out
}

// PlayerNumber returns the 1-based slot of a connection, or 0 if it is not
// in the room.
func (r *Room) PlayerNumber(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range r.players {
		if id == connID {
			return i + 1
		}
	}
	return 0
}

// Opponent returns the other occupant's connection ID, if any.
func (r *Room) Opponent(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.players {
		if id != connID {
			return id, true
		}
	}
	return "", false
}

// SetGameState caches the latest state snapshot reported by a client.
func (r *Room) SetGameState(state json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gameState = state
}

// GameState returns the cached snapshot, nil when none has been reported
// since creation or the last rematch.
func (r *Room) GameState() json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameState
}

func (r *Room) addPlayer(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if len(r.players) >= 2 {
		return ErrRoomFull
	}
	r.players = append(r.players, connID)
	return nil
}

// removePlayer drops a connection from the room and reports how many
// occupants remain. An emptied room is marked closed so a join racing the
// last leave cannot land in a room the registry is about to delete.
func (r *Room) removePlayer(connID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range r.players {
		if id == connID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	delete(r.rematch, connID)
	if len(r.players) == 0 {
		r.closed = true
	}
	return len(r.players)
}

// close marks the room unjoinable ahead of its removal from the registry.
func (r *Room) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// requestRematch records a rematch request. When both occupants have asked,
// the request set and the cached game state are cleared and true is returned.
func (r *Room) requestRematch(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rematch[connID] = struct{}{}
	if len(r.players) < 2 {
		return false
	}
	for _, id := range r.players {
		if _, ok := r.rematch[id]; !ok {
			return false
		}
	}
	r.rematch = make(map[string]struct{})
	r.gameState = nil
	return true
}
