package room

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// CodeAlphabet is the room code character set: uppercase letters and digits
// with visually confusable characters (0/O, 1/I) excluded.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed room code length.
const CodeLength = 6

// maxCodeAttempts bounds the collision retry loop. With a 32^6 code space it
// is not expected to trigger at any realistic room count.
const maxCodeAttempts = 100

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrCodesExhausted = errors.New("could not generate an unused room code")
)

// Registry maps room codes to live rooms. Its lock only guards the map;
// room contents are guarded by each room's own mutex.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Create makes a room with a fresh code and the owner in slot 1.
func (reg *Registry) Create(ownerID string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := generateCode()
		if _, taken := reg.rooms[code]; taken {
			continue
		}
		r := newRoom(code, ownerID)
		reg.rooms[code] = r
		reg.logger.Info("room created", "code", code, "host", ownerID)
		return r, nil
	}
	return nil, ErrCodesExhausted
}

// Get looks up a room by code.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// Join adds a connection to an existing room.
func (reg *Registry) Join(code, joinerID string) (*Room, error) {
	r, ok := reg.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := r.addPlayer(joinerID); err != nil {
		return nil, err
	}
	reg.logger.Info("player joined", "code", code, "player", joinerID)
	return r, nil
}

// Leave removes a connection from a room. An emptied room is deleted;
// otherwise the room survives so a new second player can join. Returns the
// room when it still exists.
func (reg *Registry) Leave(code, connID string) (*Room, bool) {
	r, ok := reg.Get(code)
	if !ok {
		return nil, false
	}
	if remaining := r.removePlayer(connID); remaining == 0 {
		reg.mu.Lock()
		delete(reg.rooms, code)
		reg.mu.Unlock()
		reg.logger.Info("room deleted", "code", code)
		return nil, false
	}
	reg.logger.Info("player left", "code", code, "player", connID)
	return r, true
}

// RequestRematch records a rematch request and reports whether both
// occupants have now agreed.
func (reg *Registry) RequestRematch(code, connID string) (bool, error) {
	r, ok := reg.Get(code)
	if !ok {
		return false, ErrRoomNotFound
	}
	return r.requestRematch(connID), nil
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Sweep deletes rooms older than maxAge regardless of occupancy, so
// abandoned rooms do not accumulate. Returns how many were removed.
func (reg *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	removed := 0
	for code, r := range reg.rooms {
		if r.CreatedAt.Before(cutoff) {
			r.close()
			delete(reg.rooms, code)
			removed++
			reg.logger.Info("room expired", "code", code, "age", time.Since(r.CreatedAt))
		}
	}
	return removed
}

// StartSweeper runs Sweep on a fixed interval until Stop is called.
func (reg *Registry) StartSweeper(interval, maxAge time.Duration) {
	reg.wg.Add(1)
	go func() {
		defer reg.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reg.Sweep(maxAge)
			case <-reg.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the sweeper goroutine.
func (reg *Registry) Stop() {
	close(reg.stopCh)
	reg.wg.Wait()
}

func generateCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// time-derived code rather than crash mid-request.
		seed := time.Now().UnixNano()
		for i := range buf {
			buf[i] = byte(seed >> (i * 8))
		}
	}
	for i, b := range buf {
		buf[i] = CodeAlphabet[int(b)%len(CodeAlphabet)]
	}
	return string(buf)
}
