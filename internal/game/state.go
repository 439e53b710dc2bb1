package game

import "encoding/json"

// Move records a single placed piece. History order is chronological.
type Move struct {
	Column int  `json:"column"`
	Row    int  `json:"row"`
	Player Cell `json:"player"`
}

// MoveResult describes the outcome of a successful move.
type MoveResult struct {
	Row          int
	Winner       Cell
	WinningCells []Coord
	IsDraw       bool
}

// State is the authoritative game state machine. A client mutates its own
// copy through MakeMove and ships the whole thing to its peer; the peer
// overwrites its copy via the Serialize/Deserialize round trip rather than
// replaying moves.
type State struct {
	Board         Board   `json:"board"`
	CurrentPlayer Cell    `json:"currentPlayer"`
	MoveHistory   []Move  `json:"moveHistory"`
	Winner        Cell    `json:"winner"`
	WinningCells  []Coord `json:"winningCells"`
	IsDraw        bool    `json:"isDraw"`
	GameOver      bool    `json:"gameOver"`
}

// NewState creates a fresh game with PlayerA to move.
func NewState() *State {
	return &State{CurrentPlayer: PlayerA}
}

// MakeMove drops a piece for the current player in the given column. On any
// failure the state is left untouched. After a winning or drawing move the
// game is over and further moves are rejected; otherwise the turn flips.
func (s *State) MakeMove(column int) (MoveResult, error) {
	if s.GameOver {
		return MoveResult{}, ErrGameOver
	}

	board, row, err := DropPiece(s.Board, column, s.CurrentPlayer)
	if err != nil {
		return MoveResult{}, err
	}

	mover := s.CurrentPlayer
	s.Board = board
	s.MoveHistory = append(s.MoveHistory, Move{Column: column, Row: row, Player: mover})

	if won, cells := CheckWin(s.Board, mover); won {
		s.Winner = mover
		s.WinningCells = cells
		s.GameOver = true
		return MoveResult{Row: row, Winner: mover, WinningCells: cells}, nil
	}

	if IsBoardFull(s.Board) {
		s.IsDraw = true
		s.GameOver = true
		return MoveResult{Row: row, IsDraw: true}, nil
	}

	s.CurrentPlayer = mover.Other()
	return MoveResult{Row: row}, nil
}

// Reset reinitializes the game: empty board, PlayerA to move, history and
// terminal flags cleared.
func (s *State) Reset() {
	*s = State{CurrentPlayer: PlayerA}
}

// Serialize encodes the full state for transmission.
func (s *State) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

// Deserialize replaces the full state with the decoded one. Every field is
// overwritten; there is no partial merge.
func (s *State) Deserialize(data []byte) error {
	var decoded State
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = decoded
	return nil
}
