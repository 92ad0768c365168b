package search

import (
	"testing"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/history"
)

func TestMovePickerReturnsTransMoveFirst(t *testing.T) {
	var pos, ok = board.NewPositionFromFEN(board.InitialFEN)
	if !ok {
		t.Fatal("failed to parse initial FEN")
	}
	var h = history.NewTables()
	var side = pos.SideToMove()

	var legal = pos.GenerateLegalMoves()
	if len(legal) == 0 {
		t.Fatal("initial position should have legal moves")
	}
	var transMove = legal[len(legal)-1]

	var mp = newMovePicker(&pos, side, h, transMove, board.MoveEmpty, board.MoveEmpty,
		nil, nil, nil, nil, nil)
	if got := mp.next(); got != transMove {
		t.Errorf("first move from picker = %v, want transMove %v", got, transMove)
	}
}

func TestMovePickerSkipQuietMovesStopsQuiets(t *testing.T) {
	var pos, ok = board.NewPositionFromFEN(board.InitialFEN)
	if !ok {
		t.Fatal("failed to parse initial FEN")
	}
	var h = history.NewTables()
	var side = pos.SideToMove()

	var mp = newMovePicker(&pos, side, h, board.MoveEmpty, board.MoveEmpty, board.MoveEmpty,
		nil, nil, nil, nil, nil)
	mp.skipQuietMoves()

	for {
		var m = mp.next()
		if m == board.MoveEmpty {
			break
		}
		if !m.IsCapture() {
			t.Errorf("skipQuietMoves let a quiet move %v through", m)
		}
	}
}

func TestMovePickerExhaustsAllPseudoLegalMoves(t *testing.T) {
	var pos, ok = board.NewPositionFromFEN(board.InitialFEN)
	if !ok {
		t.Fatal("failed to parse initial FEN")
	}
	var h = history.NewTables()
	var side = pos.SideToMove()

	var buf [board.MaxMoves]board.Move
	var want = len(pos.GenerateMoves(buf[:0]))

	var mp = newMovePicker(&pos, side, h, board.MoveEmpty, board.MoveEmpty, board.MoveEmpty,
		nil, nil, nil, nil, nil)
	var got int
	for mp.next() != board.MoveEmpty {
		got++
	}
	if got != want {
		t.Errorf("picker produced %v moves, want %v", got, want)
	}
}

func TestQuiescencePickerNotInCheckReturnsOnlyCaptures(t *testing.T) {
	var pos, ok = board.NewPositionFromFEN(board.InitialFEN)
	if !ok {
		t.Fatal("failed to parse initial FEN")
	}
	var qp = newQuiescencePicker(&pos)
	if pos.IsCheck() {
		t.Fatal("initial position should not be in check")
	}
	// Not in check: only captures. From the initial position the two captures
	// are b2b9 and h2h9, each cannon jumping the opposing cannon to take a knight.
	var got int
	for m := qp.next(); m != board.MoveEmpty; m = qp.next() {
		if !m.IsCapture() {
			t.Errorf("quiescence picker returned non-capture %v outside check", m)
		}
		got++
	}
	if got != 2 {
		t.Errorf("quiescence picker from the initial position returned %d moves, want 2", got)
	}
}
