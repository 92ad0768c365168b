package history

import (
	"testing"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
)

func TestUpdateQuietsRewardsBest(t *testing.T) {
	var tbl = NewTables()
	var good = board.NewMove(board.MakeSquare(0, 0), board.MakeSquare(0, 1), board.Rook, board.PieceNone)
	var bad = board.NewMove(board.MakeSquare(1, 0), board.MakeSquare(1, 1), board.Rook, board.PieceNone)

	tbl.UpdateQuiets(0, board.Red, []board.Move{good, bad}, good, 6, nil, nil, nil, nil, nil)

	if got := tbl.Main(board.Red, good); got <= 0 {
		t.Errorf("best move history = %d, want positive", got)
	}
	if got := tbl.Main(board.Red, bad); got >= 0 {
		t.Errorf("non-best move history = %d, want negative", got)
	}
}

func TestCorrectionValueClamped(t *testing.T) {
	var tbl = NewTables()
	for i := 0; i < 1000; i++ {
		tbl.UpdateCorrection(board.Red, 1, 1, 1, 1, 1, 500, -500, 20, board.PieceNone, board.SquareNone)
	}
	var v = tbl.CorrectionValue(board.Red, 1, 1, 1, 1, 1, board.PieceNone, board.SquareNone)
	if v <= 0 {
		t.Errorf("correction value = %d, want positive after repeated positive bonus", v)
	}
	// Every weighted table saturates at correctionMax.
	if want := (148 + 185 + 101 + 139 + 139) * correctionMax / 128; v != want {
		t.Errorf("correction value = %d, want the clamped %d", v, want)
	}
}
