// Package search implements the SearchWorker/ThreadPool core described in
// spec.md §4.2-§4.4: parallel alpha-beta search with iterative deepening,
// aspiration windows and quiescence search. Position, move generation and
// the evaluator are consumed only through pkg/board and pkg/eval's
// exported contracts, exactly the "external collaborator" boundary spec.md
// §1 describes. Grounded on pkg/engine/search.go (the negamax skeleton,
// pruning heuristics) and pkg/engine/lazysmp.go (worker fan-out),
// generalized from CounterGo's own move/position types to pkg/board's.
package search

import (
	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/eval"
	"github.com/ChizhovVadim/CounterGo/pkg/history"
	"github.com/ChizhovVadim/CounterGo/pkg/tt"
)

// Value is the search's score type, aliased to pkg/eval's so an Evaluator
// implementation satisfies the Evaluator interface below without a
// conversion at the call site.
type Value = eval.Value

const (
	ValueInfinite Value = 30001
	ValueMate     Value = 30000
	ValueDraw     Value = 0
	ValueNone     Value = -30002

	// MaxPly bounds recursion depth and every ply-indexed array; matches
	// spec.md's SearchStack padding discussion (7 before, 2 after).
	MaxPly = 128

	MateInMaxPly  = ValueMate - MaxPly
	MatedInMaxPly = -MateInMaxPly
)

func winIn(ply int) Value  { return ValueMate - Value(ply) }
func lossIn(ply int) Value { return -ValueMate + Value(ply) }

func isWin(v Value) bool      { return v >= MateInMaxPly }
func isLoss(v Value) bool     { return v <= MatedInMaxPly }
func isDecisive(v Value) bool { return isWin(v) || isLoss(v) }

func maxValue(a, b Value) Value {
	if a > b {
		return a
	}
	return b
}

func minValue(a, b Value) Value {
	if a < b {
		return a
	}
	return b
}

func clampValue(v, lo, hi Value) Value {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Evaluator is the static-evaluation external collaborator spec.md §1
// describes: Position -> Value from the side-to-move's point of view, plus
// a prefetch hint. pkg/eval.Evaluator satisfies this directly.
type Evaluator interface {
	Evaluate(pos *board.Position) Value
	Prefetch(pos *board.Position)
}

// TranspositionTable is the subset of pkg/tt.Table's API the search core
// depends on, named separately so the core can be exercised against a
// fake table in tests; the fake still uses pkg/tt's Data and Writer types.
type TranspositionTable interface {
	Probe(key uint64) (hit bool, data tt.Data, w tt.Writer)
	NewSearch()
	Hashfull(age int) int
}

// pvLine is a fixed-capacity principal-variation buffer, avoiding the
// per-node allocation a slice-of-slices PV would need.
type pvLine struct {
	moves [MaxPly]board.Move
	size  int
}

func (pv *pvLine) clear() {
	pv.size = 0
}

func (pv *pvLine) assign(m board.Move, child *pvLine) {
	pv.moves[0] = m
	copy(pv.moves[1:], child.moves[:child.size])
	pv.size = child.size + 1
}

func (pv *pvLine) slice() []board.Move {
	return append([]board.Move(nil), pv.moves[:pv.size]...)
}

// stackEntry is one ply of the search stack: spec.md names ply,
// currentMove, excludedMove, staticEval, statScore, moveCount, cutoffCnt,
// inCheck, ttHit, ttPv, continuation-history pointers, and the PV buffer.
// Continuation-correction is addressed by the moving piece/destination of
// currentMove, so no separate pointer is stored for it.
type stackEntry struct {
	ply          int
	currentMove  board.Move
	excludedMove board.Move
	staticEval   Value
	statScore    int
	moveCount    int
	cutoffCnt    int
	inCheck      bool
	ttHit        bool
	ttPv         bool
	killer1      board.Move
	killer2      board.Move
	cont         *history.ContinuationTable
	pv           pvLine
}

// RootMove tracks one root candidate across iterations, the same shape
// pkg/uci needs to print MultiPV lines. AverageScore/MeanSquaredScore drive
// each PV slot's own aspiration window (spec.md §4.2 step 3); UciScore is
// the score actually reported for this line (frozen to the last proven
// value when a thread's search was aborted mid-iteration); Effort is the
// node count spent on this move at the current iteration, feeding the
// nodesEffort term of the time-reactive stopping formula.
type RootMove struct {
	Move             board.Move
	Score            Value
	PreviousScore    Value
	AverageScore     Value
	MeanSquaredScore int64
	UciScore         Value
	SelDepth         int
	PV               []board.Move
	ScoreLowerbound  bool
	ScoreUpperbound  bool
	Effort           int64
}

// unsetScore is the "never updated" sentinel averageScore/meanSquaredScore
// carry before their first update, matching original_source/src/search.cpp
// checking against -VALUE_INFINITE (and its square) rather than a zero
// value, since zero is itself a legitimate averaged score.
const unsetScore = -ValueInfinite

// newRootMove seeds a fresh root candidate with the "unset" average-score
// sentinels rather than Go's zero value, since zero is a legitimate score.
func newRootMove(m board.Move) RootMove {
	return RootMove{
		Move:             m,
		Score:            -ValueInfinite,
		PreviousScore:    -ValueInfinite,
		AverageScore:     unsetScore,
		MeanSquaredScore: int64(unsetScore) * int64(unsetScore),
		UciScore:         -ValueInfinite,
		PV:               []board.Move{m},
	}
}

// updateAverageScore folds a fresh root score into the running average and
// mean-squared-score pair the aspiration window reads back, grounded on
// original_source/src/search.cpp's `rm.averageScore = ... (2*value +
// rm.averageScore)/3` and the paired meanSquaredScore update.
func (rm *RootMove) updateAverageScore(v Value) {
	if rm.AverageScore != unsetScore {
		rm.AverageScore = (2*v + rm.AverageScore) / 3
	} else {
		rm.AverageScore = v
	}
	var sq = int64(v) * int64(absValue(v))
	if rm.MeanSquaredScore != int64(unsetScore)*int64(unsetScore) {
		rm.MeanSquaredScore = (sq + rm.MeanSquaredScore) / 2
	} else {
		rm.MeanSquaredScore = sq
	}
}

func absValue(v Value) Value {
	if v < 0 {
		return -v
	}
	return v
}
