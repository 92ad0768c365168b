package search

import (
	"testing"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
)

func TestPvLineAssignPrependsMove(t *testing.T) {
	var child pvLine
	child.assign(board.NewMove(board.MakeSquare(0, 0), board.MakeSquare(0, 1), board.Rook, board.PieceNone), &pvLine{})

	var parent pvLine
	var m = board.NewMove(board.MakeSquare(4, 0), board.MakeSquare(4, 1), board.Rook, board.PieceNone)
	parent.assign(m, &child)

	var got = parent.slice()
	if len(got) != 2 || got[0] != m || got[1] != child.moves[0] {
		t.Errorf("assign built %v, want [%v %v]", got, m, child.moves[0])
	}
}

func TestDecisiveScoreClassification(t *testing.T) {
	if !isWin(winIn(3)) {
		t.Error("winIn(3) should be classified a win")
	}
	if !isLoss(lossIn(3)) {
		t.Error("lossIn(3) should be classified a loss")
	}
	if isDecisive(ValueDraw) {
		t.Error("a draw score should not be decisive")
	}
	if !isDecisive(winIn(1)) || !isDecisive(lossIn(1)) {
		t.Error("mate scores should be decisive")
	}
}

func TestClampValue(t *testing.T) {
	if got := clampValue(500, -100, 100); got != 100 {
		t.Errorf("clampValue(500, -100, 100) = %v, want 100", got)
	}
	if got := clampValue(-500, -100, 100); got != -100 {
		t.Errorf("clampValue(-500, -100, 100) = %v, want -100", got)
	}
	if got := clampValue(0, -100, 100); got != 0 {
		t.Errorf("clampValue(0, -100, 100) = %v, want 0", got)
	}
}
