package board

// seeValue gives each piece type a coarse value for ordering exchanges; it
// is deliberately independent of pkg/eval's tuned material weights, the same
// separation the teacher keeps between eval/material.go and search-side SEE
// pruning.
var seeValue = [PieceTypeNb]int{
	PieceNone: 0,
	King:      10000,
	Advisor:   20,
	Bishop:    20,
	Cannon:    45,
	Knight:    45,
	Rook:      100,
	Pawn:      10,
}

// attackersTo enumerates every square holding a side piece on board that
// pattern-legally attacks target, ignoring whether moving it would expose
// its own general (SEE only cares about material, not legality). It is the
// same set of piece patterns generatePieceMoves uses, run in reverse from
// the target square.
func attackersTo(board *[NumCells]Piece, target Square, side Side) []Square {
	var result []Square

	for _, d := range orthogonalDeltas {
		if sq := target + d; sq.InBoard() && sq.InPalace(side) && board[sq] == MakePiece(side, King) {
			result = append(result, sq)
		}
	}
	for _, d := range advisorDeltas {
		if sq := target + d; sq.InBoard() && sq.InPalace(side) && board[sq] == MakePiece(side, Advisor) {
			result = append(result, sq)
		}
	}
	for _, d := range bishopDeltas {
		var sq = target + d
		if !sq.InBoard() || !sq.OwnHalf(side) {
			continue
		}
		var eye = target + d/2
		if board[eye].IsEmpty() && board[sq] == MakePiece(side, Bishop) {
			result = append(result, sq)
		}
	}
	for i, d := range knightDeltas {
		var sq = target - d
		if !sq.InBoard() || board[sq] != MakePiece(side, Knight) {
			continue
		}
		if leg := sq + knightLegDelta[i]; board[leg].IsEmpty() {
			result = append(result, sq)
		}
	}

	var pawnDir = South
	if side == Black {
		pawnDir = North
	}
	if sq := target + pawnDir; sq.InBoard() && board[sq] == MakePiece(side, Pawn) {
		result = append(result, sq)
	}
	for _, d := range [2]Square{East, West} {
		if sq := target + d; sq.InBoard() && board[sq] == MakePiece(side, Pawn) && !sq.OwnHalf(side) {
			result = append(result, sq)
		}
	}

	var rook = MakePiece(side, Rook)
	var cannon = MakePiece(side, Cannon)
	for _, d := range orthogonalDeltas {
		var sq = target + d
		var screen = false
		for sq.InBoard() {
			var piece = board[sq]
			if piece.IsEmpty() {
				sq += d
				continue
			}
			if !screen {
				if piece == rook {
					result = append(result, sq)
				}
				screen = true
			} else {
				if piece == cannon {
					result = append(result, sq)
				}
				break
			}
			sq += d
		}
	}

	return result
}

func leastValuableAttacker(board *[NumCells]Piece, attackers []Square) Square {
	var best = attackers[0]
	for _, sq := range attackers[1:] {
		if seeValue[board[sq].Type()] < seeValue[board[best].Type()] {
			best = sq
		}
	}
	return best
}

// SEE runs the classic swap-algorithm static exchange evaluation for a
// capture (or quiet move) m: it replays the full capture sequence on `to`,
// always letting each side reply with its least valuable attacker, and
// folds the result back into a single material score from the mover's
// point of view. Grounded on the textbook swap algorithm rather than any
// bitboard SEE, since attack sets here come from attackersTo's ray/pattern
// scan instead of precomputed tables.
func (p *Position) SEE(m Move) int {
	var board = p.Board
	var from, to = m.From(), m.To()
	var side = board[from].Side()

	var gain [32]int
	var depth = 0
	gain[0] = seeValue[board[to].Type()]

	var movingType = board[from].Type()
	board[from] = 0
	board[to] = MakePiece(side, movingType)
	side = side.Opposite()

	for depth < len(gain)-1 {
		var attackers = attackersTo(&board, to, side)
		if len(attackers) == 0 {
			break
		}
		var sq = leastValuableAttacker(&board, attackers)
		depth++
		gain[depth] = seeValue[board[to].Type()] - gain[depth-1]
		if Max(-gain[depth-1], gain[depth]) < 0 {
			depth--
			break
		}
		var attackerType = board[sq].Type()
		board[sq] = 0
		board[to] = MakePiece(side, attackerType)
		side = side.Opposite()
	}

	for depth > 0 {
		var negated = -gain[depth]
		if negated < gain[depth-1] {
			gain[depth-1] = negated
		}
		depth--
	}
	return gain[0]
}

// SEEGE reports whether m's static exchange value is at least threshold,
// the form pkg/search's capture-ordering and pruning code actually calls
// (compare Stockfish's Position::see_ge, used the same way by
// pkg/engine/see.go in the teacher).
func (p *Position) SEEGE(m Move, threshold int) bool {
	if !m.IsCapture() {
		return threshold <= 0
	}
	return p.SEE(m) >= threshold
}
