// Package history implements the History external collaborator: several
// numeric tables (main, pawn, capture, continuation, correction, low-ply)
// that pkg/search reads for move ordering and pruning decisions and updates
// by "increment by a bounded signed quantity" after every search node.
// Grounded on pkg/engine/history.go's exponential-moving-average update and
// piece/square indexing, extended with the capture, correction and low-ply
// tables the teacher's single-package engine never needed.
package history

import "github.com/ChizhovVadim/CounterGo/pkg/board"

const (
	historyMax = 1 << 14
	// correctionMax bounds the correction tables; spec.md's correction
	// bonus formula divides by 8 and clamps to a quarter of this limit.
	correctionMax = 1 << 16
)

// pieceToIndex packs a side, a moving piece type and a destination square
// into a compact table index, the same shape as pieceSquareIndex in the
// teacher. NumCells is a power of two, so masking `to` to a byte is exact,
// not a lossy hash.
func pieceToIndex(side board.Side, pt board.PieceType, to board.Square) int {
	var idx = int(pt)<<8 | int(to)&0xff
	if side == board.Black {
		idx |= 1 << 11
	}
	return idx
}

func fromToIndex(side board.Side, m board.Move) int {
	var idx = int(m.From())&0xff<<8 | int(m.To())&0xff
	if side == board.Black {
		idx |= 1 << 16
	}
	return idx
}

const (
	mainSize    = 1 << 17
	pieceToSize = 1 << 12
	captureSize = 1 << 16
	lowPlySize  = 5
)

// Tables owns every history kind for one search worker. Continuation
// history is addressed indirectly, through pointers the caller obtains via
// Continuation, matching the "five continuation-history pointers at offsets
// -1,-2,-3,-4,-6" the move picker seeds itself with (spec.md §4.3 step 13).
type Tables struct {
	main    [mainSize]int16
	pawn    [pieceToSize]int16
	capture [captureSize]int16
	lowPly  [lowPlySize][pieceToSize]int16

	continuation [pieceToSize]ContinuationTable

	correctionPawn      [2][pieceToSize]int32
	correctionMajor     [2][pieceToSize]int32
	correctionMinor     [2][pieceToSize]int32
	correctionNonPawnW  [2][pieceToSize]int32
	correctionNonPawnB  [2][pieceToSize]int32
	continuationCorrect [pieceToSize]int32
}

// ContinuationTable is indexed by (piece, to) of the move played at the
// referencing ply, addressed indirectly so SearchStack entries can hold a
// pointer to "no previous move" sentinels near the root.
type ContinuationTable [pieceToSize]int16

func NewTables() *Tables {
	return &Tables{}
}

func (t *Tables) Clear() {
	*t = Tables{}
}

// Main returns the plain from/to history score for a quiet move.
func (t *Tables) Main(side board.Side, m board.Move) int {
	return int(t.main[fromToIndex(side, m)])
}

// Pawn returns the pawn-structure history score, updated only for quiet
// moves that don't capture on a pawn's square.
func (t *Tables) Pawn(side board.Side, m board.Move) int {
	return int(t.pawn[pieceToIndex(side, m.MovingPiece(), m.To())])
}

// Capture returns the capture-history score, indexed by moving piece,
// destination and captured piece.
func (t *Tables) Capture(side board.Side, m board.Move) int {
	return int(t.capture[captureIndex(side, m)])
}

func captureIndex(side board.Side, m board.Move) int {
	var idx = int(m.MovingPiece())<<9 | int(m.To())<<3 | int(m.CapturedPiece())
	if side == board.Black {
		idx |= 1 << 15
	}
	return idx & (captureSize - 1)
}

// LowPly returns the low-ply history score for a quiet move at ply, used
// only for the first lowPlySize plies where root-adjacent move ordering
// matters most.
func (t *Tables) LowPly(ply int, side board.Side, m board.Move) int {
	if ply >= lowPlySize {
		return 0
	}
	return int(t.lowPly[ply][pieceToIndex(side, m.MovingPiece(), m.To())])
}

// Continuation returns the continuation-history table addressed by the
// piece and destination of a previously played move, or nil if there was
// no such move (root-adjacent sentinel plies).
func (t *Tables) Continuation(side board.Side, m board.Move) *ContinuationTable {
	if m == board.MoveEmpty || m == board.MoveNull {
		return nil
	}
	return &t.continuation[pieceToIndex(side, m.MovingPiece(), m.To())]
}

func (c *ContinuationTable) Read(side board.Side, m board.Move) int {
	if c == nil {
		return 0
	}
	return int(c[pieceToIndex(side, m.MovingPiece(), m.To())])
}

func (c *ContinuationTable) update(side board.Side, m board.Move, bonus int, good bool) {
	if c == nil {
		return
	}
	updateHistory(&c[pieceToIndex(side, m.MovingPiece(), m.To())], bonus, good)
}

// UpdateMalus pushes a continuation-history entry toward its negative
// bound, used when a quiet move right before a TT cutoff needs to be
// punished (spec.md §4.3 step 4's continuation malus on a quiet-TT-move
// cutoff).
func (c *ContinuationTable) UpdateMalus(side board.Side, m board.Move, malus int) {
	c.update(side, m, malus, false)
}

// UpdateBonus pushes a continuation-history entry toward its positive
// bound, used for the post-LMR continuation bonus (spec.md §4.3 step 16)
// once a reduced search that failed high gets re-verified at full depth.
func (c *ContinuationTable) UpdateBonus(side board.Side, m board.Move, bonus int) {
	c.update(side, m, bonus, true)
}

// updateHistory applies the exponential-moving-average step from
// pkg/engine/history.go: move v toward +-historyMax by bonus/512 of the
// remaining distance.
func updateHistory(v *int16, bonus int, good bool) {
	var target = -historyMax
	if good {
		target = historyMax
	}
	if bonus > 512 {
		bonus = 512
	}
	*v += int16((target - int(*v)) * bonus / 512)
}

// UpdateQuiets applies the main/pawn/low-ply/continuation bonus to the best
// quiet move and a malus to every other quiet move tried at this node,
// mirroring update_all_stats' quiet branch (spec.md §4.3 step 15).
func (t *Tables) UpdateQuiets(ply int, side board.Side, quiets []board.Move, best board.Move, depth int,
	cont1, cont2, cont3, cont4, cont6 *ContinuationTable) {
	var bonus = statBonus(depth)
	for _, m := range quiets {
		var good = m == best
		updateHistory(&t.main[fromToIndex(side, m)], bonus, good)
		if m.CapturedPiece() != board.Pawn {
			updateHistory(&t.pawn[pieceToIndex(side, m.MovingPiece(), m.To())], bonus, good)
		}
		if ply < lowPlySize {
			updateHistory(&t.lowPly[ply][pieceToIndex(side, m.MovingPiece(), m.To())], bonus, good)
		}
		cont1.update(side, m, bonus, good)
		cont2.update(side, m, bonus, good)
		cont3.update(side, m, bonus, good)
		cont4.update(side, m, bonus, good)
		cont6.update(side, m, bonus, good)
	}
}

// UpdateCaptures applies the capture-history bonus/malus, mirroring
// update_all_stats' capture branch.
func (t *Tables) UpdateCaptures(side board.Side, captures []board.Move, best board.Move, depth int) {
	var bonus = statBonus(depth)
	for _, m := range captures {
		updateHistory(&t.capture[captureIndex(side, m)], bonus, m == best)
	}
}

// statBonus is Stockfish's stat_bonus: a depth-linear bonus capped at
// 2168, referenced by spec.md §4.3 steps 14-15 ("stat_bonus(depth)").
func statBonus(depth int) int {
	var b = 158*depth - 87
	if b > 2168 {
		return 2168
	}
	if b < 0 {
		return 0
	}
	return b
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// correctionKey groups the pawn/major/minor/non-pawn correction tables by a
// caller-supplied structural key (typically a Zobrist-style hash of the
// relevant piece set) rather than a full position key, matching the
// "signature" indexing Stockfish's correction history uses.
type correctionKey = int

// ContinuationCorrection reads the sixth correction table back, indexed by
// the piece and destination square of the move played on the previous ply
// from the mover's own side, mirroring continuationCorrectionHistory's read
// side in original_source/src/search.cpp step 5's static-eval correction.
func (t *Tables) ContinuationCorrection(side board.Side, prevPiece board.PieceType, prevTo board.Square) int {
	if prevPiece == board.PieceNone {
		return 0
	}
	return int(t.continuationCorrect[pieceToIndex(side.Opposite(), prevPiece, prevTo)])
}

// CorrectionValue sums the five weighted correction tables plus the
// continuation-correction table keyed by the previous move's (piece, to),
// the way spec.md §4.3 step 5 reads them back (`correctionValue/131072`,
// approximated here on the module's existing /128 scale since the other
// five tables already divide by 128 rather than 131072).
func (t *Tables) CorrectionValue(side board.Side, pawnKey, majorKey, minorKey, npwKey, npbKey correctionKey,
	prevPiece board.PieceType, prevTo board.Square) int {
	var s = int(side)
	var v = 148*int(t.correctionPawn[s][pawnKey&(pieceToSize-1)]) +
		185*int(t.correctionMajor[s][majorKey&(pieceToSize-1)]) +
		101*int(t.correctionMinor[s][minorKey&(pieceToSize-1)]) +
		139*int(t.correctionNonPawnW[s][npwKey&(pieceToSize-1)]) +
		139*int(t.correctionNonPawnB[s][npbKey&(pieceToSize-1)]) +
		128*t.ContinuationCorrection(side, prevPiece, prevTo)
	return v / 128
}

// UpdateCorrection applies spec.md §4.3 step 14's bonus to all five
// correction tables plus the continuation-correction table indexed by the
// previous move's (piece, to).
func (t *Tables) UpdateCorrection(side board.Side, pawnKey, majorKey, minorKey, npwKey, npbKey correctionKey,
	bestValue, staticEval, depth int, prevPiece board.PieceType, prevTo board.Square) {
	var bonus = clamp((bestValue-staticEval)*depth/8, -correctionMax/4, correctionMax/4)
	var s = int(side)
	addCorrection(&t.correctionPawn[s][pawnKey&(pieceToSize-1)], bonus)
	addCorrection(&t.correctionMajor[s][majorKey&(pieceToSize-1)], bonus)
	addCorrection(&t.correctionMinor[s][minorKey&(pieceToSize-1)], bonus)
	addCorrection(&t.correctionNonPawnW[s][npwKey&(pieceToSize-1)], bonus)
	addCorrection(&t.correctionNonPawnB[s][npbKey&(pieceToSize-1)], bonus)
	if prevPiece != board.PieceNone {
		var idx = pieceToIndex(side.Opposite(), prevPiece, prevTo)
		addCorrection(&t.continuationCorrect[idx], bonus)
	}
}

func addCorrection(v *int32, bonus int) {
	var newVal = int(*v) + bonus
	*v = int32(clamp(newVal, -correctionMax, correctionMax))
}
