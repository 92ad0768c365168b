// Package board implements the position, move and move-generation contracts
// that the search core in pkg/search treats as external collaborators (see
// spec.md §1). It is a straightforward mailbox implementation, not a
// performance-tuned rules engine.
package board

import "strings"

// Side to move. Red moves first, as in a standard Xiangqi game.
type Side int8

const (
	Red Side = iota
	Black
)

func (s Side) Opposite() Side {
	return s ^ 1
}

// PieceType enumerates the seven Xiangqi piece kinds. Values double as
// array indices (material tables, piece-square tables), so PieceNone must
// stay zero.
type PieceType int8

const (
	PieceNone PieceType = iota
	King                // General / Marshal
	Advisor
	Bishop // Elephant
	Knight // Horse
	Rook   // Chariot
	Cannon
	Pawn // Soldier
	PieceTypeNb
)

// Piece packs a PieceType with its side: positive for Red, negative for
// Black, zero for an empty square. This mirrors the sign convention used by
// other_examples/H1W0XXX-xionghan__types.go.
type Piece int8

func MakePiece(side Side, pt PieceType) Piece {
	if pt == PieceNone {
		return 0
	}
	if side == Red {
		return Piece(pt)
	}
	return -Piece(pt)
}

func (p Piece) Type() PieceType {
	if p < 0 {
		return PieceType(-p)
	}
	return PieceType(p)
}

func (p Piece) Side() Side {
	if p < 0 {
		return Black
	}
	return Red
}

func (p Piece) IsEmpty() bool {
	return p == 0
}

// Board layout: a 16x16 mailbox (matching the delta arithmetic used by
// other_examples/fuyuntt-cchess__position.go, where a rank step is 0x10 and
// a file step is 0x01) with the real 9x10 Xiangqi board embedded away from
// the border so ray-walks terminate naturally on off-board cells.
const (
	fileBase = 3
	rankBase = 3
	NumFiles = 9
	NumRanks = 10
	NumCells = 256
)

// Square is a mailbox index in [0, NumCells).
type Square int

const SquareNone Square = -1

func MakeSquare(file, rank int) Square {
	return Square((rank+rankBase)<<4 | (file + fileBase))
}

func (sq Square) File() int {
	return int(sq)&0xf - fileBase
}

func (sq Square) Rank() int {
	return int(sq)>>4 - rankBase
}

func (sq Square) InBoard() bool {
	f, r := sq.File(), sq.Rank()
	return f >= 0 && f < NumFiles && r >= 0 && r < NumRanks
}

// InPalace reports whether sq lies in the 3x3 palace of side.
func (sq Square) InPalace(side Side) bool {
	f := sq.File()
	if f < 3 || f > 5 {
		return false
	}
	r := sq.Rank()
	if side == Red {
		return r >= 0 && r <= 2
	}
	return r >= 7 && r <= 9
}

// OwnHalf reports whether sq lies on side's own half of the river.
func (sq Square) OwnHalf(side Side) bool {
	r := sq.Rank()
	if side == Red {
		return r <= 4
	}
	return r >= 5
}

// Flip mirrors a square across the river, used for side-relative
// piece-square tables in pkg/eval.
func (sq Square) Flip() Square {
	return MakeSquare(sq.File(), NumRanks-1-sq.Rank())
}

const (
	fileNames = "abcdefghi"
	rankNames = "0123456789"
)

func (sq Square) String() string {
	if sq == SquareNone {
		return "-"
	}
	return string(fileNames[sq.File()]) + string(rankNames[sq.Rank()])
}

func ParseSquare(s string) Square {
	if s == "-" || len(s) != 2 {
		return SquareNone
	}
	file := strings.IndexByte(fileNames, s[0])
	rank := strings.IndexByte(rankNames, s[1])
	if file < 0 || rank < 0 {
		return SquareNone
	}
	return MakeSquare(file, rank)
}

func AbsDelta(x, y int) int {
	if x > y {
		return x - y
	}
	return y - x
}

func Max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

func Min(x, y int) int {
	if x < y {
		return x
	}
	return y
}
