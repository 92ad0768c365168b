package board

// PawnKey, MajorKey, MinorKey and NonPawnKey are structural signatures over
// a subset of the piece set, the same role Stockfish's separate pawn/minor/
// major/non-pawn keys play as correction-history bucket selectors. They are
// recomputed by a full board scan rather than carried incrementally, since
// pkg/history only reads them once per node rather than on every move.
func (p *Position) PawnKey() uint64 {
	return p.subsetKey(func(pt PieceType) bool { return pt == Pawn })
}

func (p *Position) MajorKey() uint64 {
	return p.subsetKey(func(pt PieceType) bool { return pt == Rook || pt == Cannon })
}

func (p *Position) MinorKey() uint64 {
	return p.subsetKey(func(pt PieceType) bool { return pt == Advisor || pt == Bishop || pt == Knight })
}

func (p *Position) NonPawnKey(side Side) uint64 {
	return p.subsetKey(func(pt PieceType) bool { return pt != Pawn }) ^ uint64(side)*zobristSide
}

func (p *Position) subsetKey(include func(PieceType) bool) uint64 {
	var key uint64
	for sq := 0; sq < NumCells; sq++ {
		var piece = p.Board[sq]
		if piece.IsEmpty() || !include(piece.Type()) {
			continue
		}
		key ^= pieceKey(piece, Square(sq))
	}
	return key
}
