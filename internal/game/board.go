package game

import "errors"

// Player cell values
type Cell int

const (
	Empty   Cell = 0
	PlayerA Cell = 1
	PlayerB Cell = 2
)

// Board dimensions and win length
const (
	Rows  = 6
	Cols  = 7
	ToWin = 4
)

var (
	ErrInvalidColumn = errors.New("column out of range")
	ErrColumnFull    = errors.New("column is full")
	ErrGameOver      = errors.New("game is over")
)

// Board is the 6x7 grid. Row 0 is the top; pieces stack from the
// bottom row upward. It is a value type: passing a Board copies it.
type Board [Rows][Cols]Cell

// Coord identifies a single cell on the board.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Other returns the opposing player.
func (c Cell) Other() Cell {
	if c == PlayerA {
		return PlayerB
	}
	return PlayerA
}

// DropPiece places a piece for player p in the given column, landing in the
// lowest empty row. The input board is not modified; the board with the piece
// placed is returned along with the landing row.
func DropPiece(b Board, column int, p Cell) (Board, int, error) {
	if column < 0 || column >= Cols {
		return b, -1, ErrInvalidColumn
	}
	for row := Rows - 1; row >= 0; row-- {
		if b[row][column] == Empty {
			b[row][column] = p
			return b, row, nil
		}
	}
	return b, -1, ErrColumnFull
}

// winDirs lists the four line orientations in scan order: horizontal,
// vertical, up diagonal, down diagonal. When several lines complete at once,
// the first orientation (and within it the first row-major start cell)
// decides the reported winning cells.
var winDirs = [4]struct{ dr, dc int }{
	{0, 1},
	{1, 0},
	{-1, 1},
	{1, 1},
}

// CheckWin scans the board for four consecutive cells belonging to player p.
// It returns the exact four coordinates of the first line found.
func CheckWin(b Board, p Cell) (bool, []Coord) {
	for _, d := range winDirs {
		for r := 0; r < Rows; r++ {
			for c := 0; c < Cols; c++ {
				if cells, ok := lineFrom(b, p, r, c, d.dr, d.dc); ok {
					return true, cells
				}
			}
		}
	}
	return false, nil
}

// lineFrom reports whether a full winning line for p starts at (r,c) and
// extends in direction (dr,dc).
func lineFrom(b Board, p Cell, r, c, dr, dc int) ([]Coord, bool) {
	endR, endC := r+dr*(ToWin-1), c+dc*(ToWin-1)
	if endR < 0 || endR >= Rows || endC < 0 || endC >= Cols {
		return nil, false
	}
	cells := make([]Coord, 0, ToWin)
	for i := 0; i < ToWin; i++ {
		rr, cc := r+dr*i, c+dc*i
		if b[rr][cc] != p {
			return nil, false
		}
		cells = append(cells, Coord{Row: rr, Col: cc})
	}
	return cells, true
}

// IsBoardFull reports whether the board has no empty cells left. Checking the
// top row is enough: gravity guarantees a piece in row 0 only after the rest
// of its column has filled.
func IsBoardFull(b Board) bool {
	for c := 0; c < Cols; c++ {
		if b[0][c] == Empty {
			return false
		}
	}
	return true
}
