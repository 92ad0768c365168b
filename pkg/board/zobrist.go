package board

import "math/rand"

var (
	zobristPiece [2][PieceTypeNb][NumCells]uint64
	zobristSide  uint64
)

func init() {
	var rng = rand.New(rand.NewSource(20260806))
	for side := 0; side < 2; side++ {
		for pt := King; pt < PieceTypeNb; pt++ {
			for sq := 0; sq < NumCells; sq++ {
				zobristPiece[side][pt][sq] = rng.Uint64()
			}
		}
	}
	zobristSide = rng.Uint64()
}

func pieceKey(p Piece, sq Square) uint64 {
	if p == 0 {
		return 0
	}
	var side = 0
	if p.Side() == Black {
		side = 1
	}
	return zobristPiece[side][p.Type()][sq]
}
