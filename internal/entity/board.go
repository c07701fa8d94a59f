package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-replay/internal/apperror"
)

const BoardSize = 3

// Mark is the content of a board cell. The zero value is an empty cell.
type Mark uint8

const (
	MarkEmpty Mark = iota
	MarkX
	MarkO
)

// ParseMark converts "X" or "O" to a Mark. An empty string yields MarkEmpty.
func ParseMark(s string) (Mark, error) {
	switch s {
	case "X", "x":
		return MarkX, nil
	case "O", "o":
		return MarkO, nil
	case "":
		return MarkEmpty, nil
	default:
		return MarkEmpty, fmt.Errorf("%w: %q", apperror.ErrInvalidMark, s)
	}
}

func (that Mark) IsPlayable() bool {
	return that == MarkX || that == MarkO
}

// Opponent returns the complementary mark, MarkEmpty for an empty cell.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

func (that Mark) String() string {
	switch that {
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	default:
		return ""
	}
}

func (that Mark) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Mark) UnmarshalText(text []byte) error {
	mark, err := ParseMark(string(text))
	if err != nil {
		return err
	}

	*that = mark

	return nil
}

// lines - every row, column and both diagonals as (x, y) coordinates.
var lines = [][BoardSize][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Board is a 3x3 grid addressed as cells[x][y], x being the row.
// The zero value is an empty board.
type Board struct {
	cells [BoardSize][BoardSize]Mark
}

// NewBoardFromRows builds a board from explicit rows, rejecting any shape other than 3x3.
func NewBoardFromRows(rows [][]Mark) (Board, error) {
	var board Board

	if len(rows) != BoardSize {
		return Board{}, fmt.Errorf("%w: %d rows", apperror.ErrInvalidBoardSize, len(rows))
	}

	for x, row := range rows {
		if len(row) != BoardSize {
			return Board{}, fmt.Errorf("%w: row %d has %d cells", apperror.ErrInvalidBoardSize, x, len(row))
		}

		for y, mark := range row {
			if mark != MarkEmpty && !mark.IsPlayable() {
				return Board{}, fmt.Errorf("%w: cell (%d, %d)", apperror.ErrInvalidMark, x, y)
			}
			board.cells[x][y] = mark
		}
	}

	return board, nil
}

func (that Board) IsEmpty() bool {
	return that.Count() == 0
}

func (that Board) IsFull() bool {
	return that.Count() == BoardSize*BoardSize
}

// Count returns the number of occupied cells.
func (that Board) Count() int {
	count := 0
	for x := range BoardSize {
		for y := range BoardSize {
			if that.cells[x][y] != MarkEmpty {
				count++
			}
		}
	}

	return count
}

func (that Board) IsValidPosition(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// IsOccupied reports whether a valid position holds a mark. Positions off the board are never occupied.
func (that Board) IsOccupied(x, y int) bool {
	return that.IsValidPosition(x, y) && that.cells[x][y] != MarkEmpty
}

// At returns the mark at (x, y), MarkEmpty for unoccupied or invalid positions.
func (that Board) At(x, y int) Mark {
	if !that.IsValidPosition(x, y) {
		return MarkEmpty
	}

	return that.cells[x][y]
}

// Place sets a cell. The caller checks the position is valid and free;
// breaking that contract is a programming error.
func (that *Board) Place(x, y int, mark Mark) {
	if !mark.IsPlayable() {
		panic(fmt.Sprintf("entity: place of unplayable mark %d", mark))
	}

	if !that.IsValidPosition(x, y) || that.IsOccupied(x, y) {
		panic(fmt.Sprintf("entity: place on unavailable cell (%d, %d)", x, y))
	}

	that.cells[x][y] = mark
}

// HasLine reports whether a full row, column or diagonal holds only mark.
func (that Board) HasLine(mark Mark) bool {
	if !mark.IsPlayable() {
		return false
	}

	for _, line := range lines {
		complete := true
		for _, cell := range line {
			if that.cells[cell[0]][cell[1]] != mark {
				complete = false
				break
			}
		}

		if complete {
			return true
		}
	}

	return false
}

// Rows returns a copy of the grid for rendering.
func (that Board) Rows() [BoardSize][BoardSize]Mark {
	return that.cells
}
