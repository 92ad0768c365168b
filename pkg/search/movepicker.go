package search

import (
	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/history"
)

const sortKeyImportant = 100000

var mvvValue = [board.PieceTypeNb]int{
	board.Pawn:    1,
	board.Advisor: 2,
	board.Bishop:  2,
	board.Knight:  4,
	board.Cannon:  4,
	board.Rook:    6,
}

func mvvlva(m board.Move) int {
	return 8*mvvValue[m.CapturedPiece()] - mvvValue[m.MovingPiece()]
}

// movePicker stages every pseudo-legal move for the main search: the TT
// move first, then good captures (by SEE), killers, quiets ordered by
// history, then bad captures last. Grounded on
// pkg/engine/moveiterator.go's moveIterator, scoring the whole list once
// up front rather than lazily re-sorting the tail on each Next() call —
// simpler, at the cost of always paying for a full sort even when a beta
// cutoff would have made most of it unnecessary.
type movePicker struct {
	moves      [board.MaxMoves]board.Move
	ordered    [board.MaxMoves]board.OrderedMove
	count      int
	index      int
	skipQuiets bool
}

func newMovePicker(pos *board.Position, side board.Side, h *history.Tables, transMove, killer1, killer2 board.Move,
	cont1, cont2, cont3, cont4, cont6 *history.ContinuationTable) *movePicker {

	var mp = &movePicker{}
	var raw = pos.GenerateMoves(mp.moves[:0])
	mp.count = len(raw)
	for i, m := range raw {
		var score int32
		switch {
		case m == transMove:
			score = int32(sortKeyImportant + 2000)
		case m.IsCapture():
			if pos.SEEGE(m, 0) {
				score = int32(sortKeyImportant + 1000 + mvvlva(m))
			} else {
				score = int32(-sortKeyImportant + mvvlva(m))
			}
		case m == killer1:
			score = int32(sortKeyImportant + 1)
		case m == killer2:
			score = int32(sortKeyImportant)
		default:
			score = int32(h.Main(side, m) +
				cont1.Read(side, m) + cont2.Read(side, m) + cont3.Read(side, m) +
				cont4.Read(side, m) + cont6.Read(side, m))
		}
		mp.ordered[i] = board.OrderedMove{Move: m, Key: score}
	}
	sortMoves(mp.ordered[:mp.count])
	return mp
}

// skipQuietMoves implements the MovePicker contract's skip_quiet_moves():
// once shallow-depth pruning decides quiets aren't worth searching, only
// captures are returned for the rest of this node.
func (mp *movePicker) skipQuietMoves() {
	mp.skipQuiets = true
}

func (mp *movePicker) next() board.Move {
	for mp.index < mp.count {
		var m = mp.ordered[mp.index].Move
		mp.index++
		if mp.skipQuiets && !m.IsCapture() {
			continue
		}
		return m
	}
	return board.MoveEmpty
}

// quiescencePicker only ever produces captures, or, when the side to move
// is in check, every pseudo-legal evasion, matching moveIteratorQS.
type quiescencePicker struct {
	moves   [board.MaxMoves]board.Move
	ordered [board.MaxMoves]board.OrderedMove
	count   int
	index   int
}

func newQuiescencePicker(pos *board.Position) *quiescencePicker {
	var mi = &quiescencePicker{}
	var raw []board.Move
	if pos.IsCheck() {
		raw = pos.GenerateMoves(mi.moves[:0])
	} else {
		raw = pos.GenerateCaptures(mi.moves[:0])
	}
	mi.count = len(raw)
	for i, m := range raw {
		var score int32
		if m.IsCapture() {
			score = int32(29000 + mvvlva(m))
		}
		mi.ordered[i] = board.OrderedMove{Move: m, Key: score}
	}
	sortMoves(mi.ordered[:mi.count])
	return mi
}

func (mi *quiescencePicker) next() board.Move {
	if mi.index >= mi.count {
		return board.MoveEmpty
	}
	var m = mi.ordered[mi.index].Move
	mi.index++
	return m
}

// probCutPicker yields only captures whose static exchange value clears
// threshold, staged for ProbCut's cheap tactical probe (spec.md §4.3 step
// 12). The already-searched TT move is skipped since the caller tries it
// through the ordinary move loop.
type probCutPicker struct {
	ordered [board.MaxMoves]board.OrderedMove
	moves   [board.MaxMoves]board.Move
	count   int
	index   int
}

func newProbCutPicker(pos *board.Position, side board.Side, ttMove board.Move, threshold int) *probCutPicker {
	var pc = &probCutPicker{}
	var raw = pos.GenerateCaptures(pc.moves[:0])
	for _, m := range raw {
		if m == ttMove {
			continue
		}
		if !pos.SEEGE(m, threshold) {
			continue
		}
		pc.ordered[pc.count] = board.OrderedMove{Move: m, Key: int32(mvvlva(m))}
		pc.count++
	}
	sortMoves(pc.ordered[:pc.count])
	return pc
}

func (pc *probCutPicker) next() board.Move {
	if pc.index >= pc.count {
		return board.MoveEmpty
	}
	var m = pc.ordered[pc.index].Move
	pc.index++
	return m
}

func sortMoves(moves []board.OrderedMove) {
	for i := 1; i < len(moves); i++ {
		var j, t = i, moves[i]
		for ; j > 0 && moves[j-1].Key < t.Key; j-- {
			moves[j] = moves[j-1]
		}
		moves[j] = t
	}
}
