package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedskywalker/four-in-a-row/internal/client"
	"github.com/fedskywalker/four-in-a-row/internal/game"
	"github.com/fedskywalker/four-in-a-row/internal/room"
	"github.com/fedskywalker/four-in-a-row/internal/ws"
)

func newRelay(t *testing.T) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := room.NewRegistry(logger)
	handler := ws.NewHandler(registry, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.Serve)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

// recorder captures callback invocations for assertion.
type recorder struct {
	events chan string

	mu       sync.Mutex
	code     string
	number   int
	moveCol  int
	moveRow  int
	errorMsg string
	reason   string
}

func newRecorder() *recorder {
	return &recorder{events: make(chan string, 64)}
}

func (r *recorder) handlers() client.Handlers {
	return client.Handlers{
		Connected: func() { r.events <- "connected" },
		Disconnected: func(reason string) {
			r.mu.Lock()
			r.reason = reason
			r.mu.Unlock()
			r.events <- "disconnected"
		},
		GameCreated: func(code string, number int) {
			r.mu.Lock()
			r.code, r.number = code, number
			r.mu.Unlock()
			r.events <- "game-created"
		},
		GameJoined: func(code string, number int) {
			r.mu.Lock()
			r.code, r.number = code, number
			r.mu.Unlock()
			r.events <- "game-joined"
		},
		OpponentJoined: func() { r.events <- "opponent-joined" },
		OpponentLeft:   func() { r.events <- "opponent-left" },
		OpponentMove: func(col, row int) {
			r.mu.Lock()
			r.moveCol, r.moveRow = col, row
			r.mu.Unlock()
			r.events <- "opponent-move"
		},
		GameStateSync:    func() { r.events <- "game-state-sync" },
		RematchRequested: func() { r.events <- "rematch-requested" },
		RematchStart:     func() { r.events <- "rematch-start" },
		Error: func(msg string) {
			r.mu.Lock()
			r.errorMsg = msg
			r.mu.Unlock()
			r.events <- "error"
		},
	}
}

func (r *recorder) wait(t *testing.T, event string) {
	t.Helper()
	select {
	case got := <-r.events:
		require.Equal(t, event, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", event)
	}
}

func (r *recorder) gameInfo() (string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code, r.number
}

func (r *recorder) lastMove() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.moveCol, r.moveRow
}

func connect(t *testing.T, url string) (*client.Client, *recorder) {
	t.Helper()
	rec := newRecorder()
	c := client.New(rec.handlers())
	require.NoError(t, c.Connect(context.Background(), url))
	t.Cleanup(func() { c.Close() })
	rec.wait(t, "connected")
	return c, rec
}

// pair connects two clients into one room.
func pair(t *testing.T, url string) (host *client.Client, hostRec *recorder, guest *client.Client, guestRec *recorder) {
	t.Helper()
	host, hostRec = connect(t, url)
	require.NoError(t, host.CreateGame())
	hostRec.wait(t, "game-created")
	code, _ := hostRec.gameInfo()

	guest, guestRec = connect(t, url)
	require.NoError(t, guest.JoinGame(code))
	guestRec.wait(t, "game-joined")
	hostRec.wait(t, "opponent-joined")
	return host, hostRec, guest, guestRec
}

func TestCreateAndJoin(t *testing.T) {
	url := newRelay(t)
	host, hostRec, guest, guestRec := pair(t, url)

	hostCode, hostNum := hostRec.gameInfo()
	guestCode, guestNum := guestRec.gameInfo()
	assert.Equal(t, hostCode, guestCode)
	assert.Equal(t, 1, hostNum)
	assert.Equal(t, 2, guestNum)
	assert.Len(t, hostCode, room.CodeLength)
	assert.Equal(t, hostCode, host.GameCode())
	assert.Equal(t, guestCode, guest.GameCode())
}

func TestJoinBadCode(t *testing.T) {
	url := newRelay(t)
	c, rec := connect(t, url)

	require.NoError(t, c.JoinGame("zzzzzz"))
	rec.wait(t, "error")
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "game not found", rec.errorMsg)
}

func TestTurnGate(t *testing.T) {
	url := newRelay(t)
	host, _, guest, guestRec := pair(t, url)

	assert.True(t, host.IsMyTurn(), "player 1 moves first")
	assert.False(t, guest.IsMyTurn())

	res, err := host.PlayMove(3)
	require.NoError(t, err)
	assert.Equal(t, game.Rows-1, res.Row)
	assert.False(t, host.IsMyTurn(), "turn flips after the move")

	guestRec.wait(t, "opponent-move")
	col, row := guestRec.lastMove()
	assert.Equal(t, 3, col)
	assert.Equal(t, game.Rows-1, row)
	assert.True(t, guest.IsMyTurn(), "mirrored state hands the turn over")
}

func TestOpponentMirrorsTransmittedState(t *testing.T) {
	url := newRelay(t)
	host, _, guest, guestRec := pair(t, url)

	_, err := host.PlayMove(0)
	require.NoError(t, err)
	guestRec.wait(t, "opponent-move")

	hostState := host.Snapshot()
	guestState := guest.Snapshot()
	assert.Equal(t, hostState, guestState, "inbound state overwrites the mirror wholesale")
	assert.Equal(t, game.PlayerA, guestState.Board[game.Rows-1][0])
	require.Len(t, guestState.MoveHistory, 1)
}

func TestWinPropagates(t *testing.T) {
	url := newRelay(t)
	host, hostRec, guest, guestRec := pair(t, url)

	play := func(c *client.Client, other *recorder, col int) game.MoveResult {
		t.Helper()
		res, err := c.PlayMove(col)
		require.NoError(t, err)
		other.wait(t, "opponent-move")
		return res
	}

	play(host, guestRec, 0)
	play(guest, hostRec, 6)
	play(host, guestRec, 1)
	play(guest, hostRec, 6)
	play(host, guestRec, 2)
	play(guest, hostRec, 6)
	res := play(host, guestRec, 3)

	assert.Equal(t, game.PlayerA, res.Winner)
	assert.Len(t, res.WinningCells, game.ToWin)

	hostState := host.Snapshot()
	guestState := guest.Snapshot()
	assert.True(t, hostState.GameOver)
	assert.True(t, guestState.GameOver)
	assert.Equal(t, game.PlayerA, guestState.Winner)
	assert.False(t, host.IsMyTurn())
	assert.False(t, guest.IsMyTurn())

	// Moving after the game is decided fails locally, nothing transmitted.
	_, err := guest.PlayMove(4)
	assert.ErrorIs(t, err, game.ErrGameOver)
}

func TestRematchResetsBothMirrors(t *testing.T) {
	url := newRelay(t)
	host, hostRec, guest, guestRec := pair(t, url)

	_, err := host.PlayMove(2)
	require.NoError(t, err)
	guestRec.wait(t, "opponent-move")

	require.NoError(t, host.RequestRematch())
	guestRec.wait(t, "rematch-requested")

	require.NoError(t, guest.RequestRematch())
	hostRec.wait(t, "rematch-start")
	guestRec.wait(t, "rematch-start")

	fresh := game.NewState()
	hostState := host.Snapshot()
	guestState := guest.Snapshot()
	assert.Equal(t, *fresh, hostState)
	assert.Equal(t, *fresh, guestState)
	assert.True(t, host.IsMyTurn(), "player 1 opens the rematch")
}

func TestOpponentDisconnectSurfaces(t *testing.T) {
	url := newRelay(t)
	_, hostRec, guest, _ := pair(t, url)

	guest.Close()
	hostRec.wait(t, "opponent-left")
}

func TestIllegalMoveNotTransmitted(t *testing.T) {
	url := newRelay(t)
	host, _, _, guestRec := pair(t, url)

	_, err := host.PlayMove(42)
	assert.ErrorIs(t, err, game.ErrInvalidColumn)

	select {
	case ev := <-guestRec.events:
		t.Fatalf("unexpected event %q after an illegal move", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestOperationsRequireGame(t *testing.T) {
	url := newRelay(t)
	c, _ := connect(t, url)

	assert.ErrorIs(t, c.LeaveGame(), client.ErrNoGame)
	assert.ErrorIs(t, c.RequestRematch(), client.ErrNoGame)
	_, err := c.PlayMove(0)
	assert.ErrorIs(t, err, client.ErrNoGame)
}

func TestSendMoveRequiresGame(t *testing.T) {
	c := client.New(client.Handlers{})
	err := c.SendMove(0, 5, nil)
	assert.ErrorIs(t, err, client.ErrNoGame)
}
