package tictactoe

import "github.com/trisgames/tris-backend/internal/entity"

// Outcome - result of evaluating a board: no decision yet, a win for a
// symbol, or a draw.
type Outcome struct {
	Winner string
	Draw   bool
}

// WinCombos - the 8 winning lines: 3 rows, 3 columns, 2 diagonals.
// The order is fixed so evaluation is deterministic.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Evaluate - checks the winning lines in fixed order and returns the first
// won line's symbol, a draw when the board is full with no winner, or a
// zero Outcome while the game is still open.
func Evaluate(board [entity.BoardSize]string) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return Outcome{Winner: a}
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return Outcome{}
		}
	}

	return Outcome{Draw: true}
}
