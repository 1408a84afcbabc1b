package entity

import (
	"fmt"

	"github.com/playgoban/goban-backend/internal/apperror"
)

const (
	// DefaultBoardSize is the classic 19x19 goban.
	DefaultBoardSize = 19

	ColorBlack = "black"
	ColorWhite = "white"

	EmptyCell = ""
)

// Board is a fixed-size grid of stones. It only knows "one stone per
// empty cell" - captures, territory and scoring are not its business.
// A non-empty cell never reverts to empty.
type Board struct {
	Size  int        `json:"size"`
	Cells [][]string `json:"cells"`
}

func NewBoard(size int) *Board {
	if size <= 0 {
		size = DefaultBoardSize
	}

	cells := make([][]string, size)
	for y := range cells {
		cells[y] = make([]string, size)
	}

	return &Board{
		Size:  size,
		Cells: cells,
	}
}

// PlaceStone - puts a stone of the given color on (x, y).
// The board is left untouched on any error.
func (that *Board) PlaceStone(x, y int, color string) error {
	if x < 0 || x >= that.Size || y < 0 || y >= that.Size {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfBounds, x, y)
	}

	if that.Cells[y][x] != EmptyCell {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, x, y)
	}

	that.Cells[y][x] = color

	return nil
}

// StoneCount - number of occupied cells.
func (that *Board) StoneCount() int {
	count := 0
	for _, row := range that.Cells {
		for _, cell := range row {
			if cell != EmptyCell {
				count++
			}
		}
	}

	return count
}

// OppositeColor - flips black to white and back.
func OppositeColor(color string) string {
	if color == ColorBlack {
		return ColorWhite
	}
	return ColorBlack
}
