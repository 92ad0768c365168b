package uci

import (
	"testing"

	"github.com/ChizhovVadim/CounterGo/pkg/search"
)

func TestComputeWDLSumsToOneThousand(t *testing.T) {
	for _, cp := range []search.Value{-800, -50, 0, 50, 800} {
		var w, d, l = computeWDL(cp)
		if got := w + d + l; got != 1000 {
			t.Errorf("computeWDL(%v) = %v/%v/%v, sums to %v, want 1000", cp, w, d, l, got)
		}
	}
}

func TestComputeWDLFavorsWinningSide(t *testing.T) {
	var w, _, l = computeWDL(500)
	if w <= l {
		t.Errorf("a +500cp score should favor a win: got win=%v loss=%v", w, l)
	}
	w, _, l = computeWDL(-500)
	if l <= w {
		t.Errorf("a -500cp score should favor a loss: got win=%v loss=%v", w, l)
	}
}

func TestComputeWDLMateScoresAreCertain(t *testing.T) {
	var w, d, l = computeWDL(search.MateInMaxPly)
	if w != 1000 || d != 0 || l != 0 {
		t.Errorf("a mate score should report a certain win, got %v/%v/%v", w, d, l)
	}
	w, d, l = computeWDL(search.MatedInMaxPly)
	if l != 1000 || d != 0 || w != 0 {
		t.Errorf("a mated score should report a certain loss, got %v/%v/%v", w, d, l)
	}
}

func TestBenchPositionsAreAllLegal(t *testing.T) {
	var positions = benchPositions()
	if len(positions) == 0 {
		t.Fatal("benchPositions returned none")
	}
	for i, p := range positions {
		if len(p.GenerateLegalMoves()) == 0 {
			t.Errorf("bench position %v has no legal moves", i)
		}
	}
}
