package search

import (
	"context"
	"testing"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/eval"
	"github.com/ChizhovVadim/CounterGo/pkg/timeman"
	"github.com/ChizhovVadim/CounterGo/pkg/tt"
)

func newTestPool(threads int) *Pool {
	return NewPool(Options{Threads: threads, AspirationWindows: true, MultiPV: 1},
		eval.NewEvaluator(), tt.New(1))
}

func TestPoolSearchFindsLegalMoveFromStartpos(t *testing.T) {
	var pos, ok = board.NewPositionFromFEN(board.InitialFEN)
	if !ok {
		t.Fatal("failed to parse initial FEN")
	}
	var p = newTestPool(1)
	var best, _ = p.Search(context.Background(), &pos, 1,
		Limits{Depth: 4}, timeman.Options{}, GameState{TimeAdjust: -1, AvailableNodes: -1}, nil)

	if best.Move == board.MoveEmpty {
		t.Fatal("search from the initial position returned no move")
	}
	var found = false
	for _, m := range pos.GenerateLegalMoves() {
		if m == best.Move {
			found = true
		}
	}
	if !found {
		t.Errorf("search returned %v, which is not a legal move from the initial position", best.Move)
	}
}

func TestPoolSearchSingleLegalMoveShortCircuits(t *testing.T) {
	// Both generals stand on file 3 with nothing between them: an illegal
	// standing position, but GenerateLegalMoves only cares whether a
	// candidate move's result is legal. Of the red king's two in-palace
	// moves from its corner, only stepping off file 3 clears the
	// flying-general violation; staying on file 3 leaves red's own king
	// exposed, so exactly one legal move survives.
	var pos board.Position
	pos.Board[board.MakeSquare(3, 0)] = board.MakePiece(board.Red, board.King)
	pos.Board[board.MakeSquare(3, 9)] = board.MakePiece(board.Black, board.King)
	pos.RedMove = true

	var legal = pos.GenerateLegalMoves()
	if len(legal) != 1 {
		t.Fatalf("test position has %v legal moves, want exactly 1", len(legal))
	}

	var p = newTestPool(1)
	var best, _ = p.Search(context.Background(), &pos, 1,
		Limits{Depth: 4}, timeman.Options{}, GameState{TimeAdjust: -1, AvailableNodes: -1}, nil)
	if best.Move != legal[0] {
		t.Errorf("single-legal-move search returned %v, want %v", best.Move, legal[0])
	}
}

func TestPoolSearchMultipleWorkersAgree(t *testing.T) {
	var pos, ok = board.NewPositionFromFEN(board.InitialFEN)
	if !ok {
		t.Fatal("failed to parse initial FEN")
	}
	var p = newTestPool(4)
	var best, _ = p.Search(context.Background(), &pos, 1,
		Limits{Depth: 3}, timeman.Options{}, GameState{TimeAdjust: -1, AvailableNodes: -1}, nil)
	if best.Move == board.MoveEmpty {
		t.Fatal("multi-worker search returned no move")
	}
	if len(best.PV) == 0 || best.PV[0] != best.Move {
		t.Errorf("PV %v does not start with the reported best move %v", best.PV, best.Move)
	}
}
