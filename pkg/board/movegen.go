package board

// MaxMoves bounds the pseudo-legal move count from any single Xiangqi
// position; used to size caller-owned move buffers so generation never
// allocates on the hot path (mirroring common/movelist.go's fixed arrays).
const MaxMoves = 128

// OrderedMove pairs a Move with a caller-assigned ordering key, the same
// shape pkg/engine/moveiterator.go sorts on.
type OrderedMove struct {
	Move Move
	Key  int32
}

// GenerateMoves appends every pseudo-legal move (not yet verified against
// self-check) to buf and returns the used prefix.
func (p *Position) GenerateMoves(buf []Move) []Move {
	var moves = buf[:0]
	var side = p.SideToMove()
	for sq := 0; sq < NumCells; sq++ {
		var from = Square(sq)
		var piece = p.Board[from]
		if piece.IsEmpty() || piece.Side() != side {
			continue
		}
		moves = p.generatePieceMoves(from, piece.Type(), side, moves, false)
	}
	return moves
}

// GenerateCaptures appends only capturing pseudo-legal moves, for use by
// the quiescence search's MovePicker.
func (p *Position) GenerateCaptures(buf []Move) []Move {
	var moves = buf[:0]
	var side = p.SideToMove()
	for sq := 0; sq < NumCells; sq++ {
		var from = Square(sq)
		var piece = p.Board[from]
		if piece.IsEmpty() || piece.Side() != side {
			continue
		}
		moves = p.generatePieceMoves(from, piece.Type(), side, moves, true)
	}
	return moves
}

// GenerateLegalMoves is a convenience used by the root move list and by
// tests; it is not on the search hot path.
func (p *Position) GenerateLegalMoves() []Move {
	var buf [MaxMoves]Move
	var pseudo = p.GenerateMoves(buf[:])
	var result = make([]Move, 0, len(pseudo))
	var child Position
	for _, m := range pseudo {
		if p.DoMove(m, &child) {
			result = append(result, m)
		}
	}
	return result
}

func (p *Position) addMove(moves []Move, from, to Square, side Side, capturesOnly bool) []Move {
	var target = p.Board[to]
	if !target.IsEmpty() && target.Side() == side {
		return moves
	}
	if capturesOnly && target.IsEmpty() {
		return moves
	}
	return append(moves, NewMove(from, to, p.Board[from].Type(), target.Type()))
}

func (p *Position) generatePieceMoves(from Square, pt PieceType, side Side, moves []Move, capturesOnly bool) []Move {
	switch pt {
	case King:
		for _, d := range orthogonalDeltas {
			var to = from + d
			if to.InBoard() && to.InPalace(side) {
				moves = p.addMove(moves, from, to, side, capturesOnly)
			}
		}
	case Advisor:
		for _, d := range advisorDeltas {
			var to = from + d
			if to.InBoard() && to.InPalace(side) {
				moves = p.addMove(moves, from, to, side, capturesOnly)
			}
		}
	case Bishop:
		for _, d := range bishopDeltas {
			var to = from + d
			if !to.InBoard() || !to.OwnHalf(side) {
				continue
			}
			var eye = from + d/2
			if !p.Board[eye].IsEmpty() {
				continue
			}
			moves = p.addMove(moves, from, to, side, capturesOnly)
		}
	case Knight:
		for i, d := range knightDeltas {
			var to = from + d
			if !to.InBoard() {
				continue
			}
			var leg = from + knightLegDelta[i]
			if !p.Board[leg].IsEmpty() {
				continue
			}
			moves = p.addMove(moves, from, to, side, capturesOnly)
		}
	case Rook:
		for _, d := range orthogonalDeltas {
			for to := from + d; to.InBoard(); to += d {
				var target = p.Board[to]
				if target.IsEmpty() {
					moves = p.addMove(moves, from, to, side, capturesOnly)
					continue
				}
				moves = p.addMove(moves, from, to, side, capturesOnly)
				break
			}
		}
	case Cannon:
		for _, d := range orthogonalDeltas {
			var to = from + d
			for ; to.InBoard() && p.Board[to].IsEmpty(); to += d {
				if !capturesOnly {
					moves = append(moves, NewMove(from, to, Cannon, PieceNone))
				}
			}
			if !to.InBoard() {
				continue
			}
			// to now holds the screen piece; the cannon jumps it to capture
			// the first piece beyond.
			for to += d; to.InBoard(); to += d {
				var target = p.Board[to]
				if target.IsEmpty() {
					continue
				}
				if target.Side() != side {
					moves = append(moves, NewMove(from, to, Cannon, target.Type()))
				}
				break
			}
		}
	case Pawn:
		var forward = North
		if side == Black {
			forward = South
		}
		if to := from + forward; to.InBoard() {
			moves = p.addMove(moves, from, to, side, capturesOnly)
		}
		if !from.OwnHalf(side) {
			for _, d := range [2]Square{East, West} {
				if to := from + d; to.InBoard() {
					moves = p.addMove(moves, from, to, side, capturesOnly)
				}
			}
		}
	}
	return moves
}
