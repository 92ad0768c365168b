// Package eval implements the Evaluator external collaborator pkg/search
// consumes only through an interface: a static Position -> Value function
// from the side-to-move's point of view, plus a prefetch hint. Its accuracy
// is explicitly unconstrained; this is a plain material-plus-piece-square
// evaluator, not a trained network.
package eval

import "github.com/ChizhovVadim/CounterGo/pkg/board"

// Value mirrors pkg/search's centipawn-ish score type; kept as a distinct
// name here so eval's exported API doesn't force an import cycle back to
// pkg/search.
type Value int32

// Material values follow the usual Xiangqi ranking (rook > cannon > knight
// > bishop = advisor > pawn), with a pawn that has crossed the river worth
// roughly double an uncrossed one. Grounded on the tapered material-plus-PST
// shape of pkg/eval/pesto/eval.go, simplified to a single table since
// Xiangqi has no minor promotion and no opposite-colour-bishop endgame
// analogue to scale against.
const (
	valueRook        Value = 900
	valueCannon      Value = 450
	valueKnight      Value = 400
	valueBishop      Value = 200
	valueAdvisor     Value = 200
	valuePawn        Value = 100
	valuePawnCrossed Value = 200
)

var pieceValue = [board.PieceTypeNb]Value{
	board.Rook:    valueRook,
	board.Cannon:  valueCannon,
	board.Knight:  valueKnight,
	board.Bishop:  valueBishop,
	board.Advisor: valueAdvisor,
	board.Pawn:    valuePawn,
}

// pst holds side-to-move-relative piece-square bonuses indexed by the raw
// mailbox square, mirrored across the river with Square.Flip for Black.
// Advisors, bishops and kings are confined to the palace/home half and their
// tables are all zero, so their placement adds nothing; rooks, cannons and knights favour central files and rows
// close to the enemy camp; pawns gain value crossing the river and again
// nearing the enemy palace.
type pst [board.NumCells]Value

var pstTable [board.PieceTypeNb]pst

func init() {
	for file := 0; file < board.NumFiles; file++ {
		for rank := 0; rank < board.NumRanks; rank++ {
			var sq = board.MakeSquare(file, rank)
			pstTable[board.Rook][sq] = rookBonus(file, rank)
			pstTable[board.Cannon][sq] = cannonBonus(file, rank)
			pstTable[board.Knight][sq] = knightBonus(file, rank)
			pstTable[board.Pawn][sq] = pawnBonus(file, rank)
			pstTable[board.Advisor][sq] = 0
			pstTable[board.Bishop][sq] = 0
			pstTable[board.King][sq] = 0
		}
	}
}

func centerDistance(file int) int {
	return board.AbsDelta(file, 4)
}

func rookBonus(file, rank int) Value {
	return Value(6 - centerDistance(file))
}

func cannonBonus(file, rank int) Value {
	var bonus = 4 - centerDistance(file)
	if rank >= 3 && rank <= 6 {
		bonus += 2
	}
	return Value(bonus)
}

func knightBonus(file, rank int) Value {
	var bonus = 4 - centerDistance(file)
	if rank >= 2 && rank <= 7 {
		bonus += 2
	}
	return Value(bonus)
}

func pawnBonus(file, rank int) Value {
	// Ranks 0-2 are the Red home rows before the pawn crosses.
	if rank <= 2 {
		return 0
	}
	if rank <= 4 {
		return 6
	}
	return Value(10 + (rank-5)*4)
}

// Evaluator is a stateless static evaluator: material plus piece-square
// bonuses, no incremental update state to carry between plies.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns a score from pos.SideToMove's point of view.
func (e *Evaluator) Evaluate(pos *board.Position) Value {
	var score = e.evaluateSide(pos, board.Red) - e.evaluateSide(pos, board.Black)
	if pos.SideToMove() == board.Black {
		return -score
	}
	return score
}

func (e *Evaluator) evaluateSide(pos *board.Position, side board.Side) Value {
	var total Value
	for sq := 0; sq < board.NumCells; sq++ {
		var piece = pos.Board[sq]
		if piece.IsEmpty() || piece.Side() != side {
			continue
		}
		var pt = piece.Type()
		total += pieceValue[pt]
		if pt == board.Pawn && !board.Square(sq).OwnHalf(side) {
			total += valuePawnCrossed - valuePawn
		}
		var relSq = board.Square(sq)
		if side == board.Black {
			relSq = relSq.Flip()
		}
		total += pstTable[pt][relSq]
	}
	return total
}

// Prefetch is a no-op hint for callers about to evaluate pos on a hot path;
// real implementations backed by a weights cache or NNUE accumulator would
// warm that state here. Kept so pkg/search can call it uniformly regardless
// of which Evaluator implementation is wired in, the same seam
// pkg/engine.IUpdatableEvaluator's Init/MakeMove pair serves in the teacher.
func (e *Evaluator) Prefetch(pos *board.Position) {}
