package board

// Direction deltas match the mailbox arithmetic used by
// other_examples/fuyuntt-cchess__position.go: one rank step is 0x10, one
// file step is 0x01.
const (
	North = Square(0x10)
	South = Square(-0x10)
	East  = Square(0x01)
	West  = Square(-0x01)
)

var knightDeltas = [8]Square{
	2*North + West, 2*North + East,
	North + 2*West, North + 2*East,
	South + 2*West, South + 2*East,
	2*South + West, 2*South + East,
}

// knightLegDelta[i] is the blocking square (the horse's "leg") for the
// corresponding knightDeltas[i] move.
var knightLegDelta = [8]Square{
	North, North,
	West, East,
	West, East,
	South, South,
}

var bishopDeltas = [4]Square{2*North + 2*West, 2*North + 2*East, 2*South + 2*West, 2*South + 2*East}
var advisorDeltas = [4]Square{North + West, North + East, South + West, South + East}
var orthogonalDeltas = [4]Square{North, South, East, West}

// Position is a mutable Xiangqi board plus the bookkeeping the search core
// needs: side to move, the reversible-move clock, and an incrementally
// unnecessary but cheap-to-recompute Zobrist key.
type Position struct {
	Board    [NumCells]Piece
	RedMove  bool
	Rule60   int
	LastMove Move
	Key      uint64
}

const InitialFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w - - 0 1"

func fenPieceType(c byte) PieceType {
	switch c {
	case 'k':
		return King
	case 'a':
		return Advisor
	case 'b', 'e':
		return Bishop
	case 'n', 'h':
		return Knight
	case 'r':
		return Rook
	case 'c':
		return Cannon
	case 'p':
		return Pawn
	}
	return PieceNone
}

func fenPieceChar(p Piece) byte {
	var c byte
	switch p.Type() {
	case King:
		c = 'k'
	case Advisor:
		c = 'a'
	case Bishop:
		c = 'b'
	case Knight:
		c = 'n'
	case Rook:
		c = 'r'
	case Cannon:
		c = 'c'
	case Pawn:
		c = 'p'
	}
	if p.Side() == Red {
		c -= 'a' - 'A'
	}
	return c
}

// NewPositionFromFEN parses a Xiangqi FEN: ten ranks separated by '/',
// listed from Black's back rank (rank 9) down to Red's back rank (rank 0),
// followed by side-to-move, and (ignored here beyond parsing) the
// castling/ep placeholders and halfmove/fullmove counters.
func NewPositionFromFEN(fen string) (Position, bool) {
	var p Position
	var fields = splitFields(fen)
	if len(fields) == 0 {
		return p, false
	}
	var ranks = splitByte(fields[0], '/')
	if len(ranks) != NumRanks {
		return p, false
	}
	for i, rowStr := range ranks {
		var rank = NumRanks - 1 - i
		var file = 0
		for j := 0; j < len(rowStr); j++ {
			var c = rowStr[j]
			if c >= '1' && c <= '9' {
				file += int(c - '0')
				continue
			}
			var pt = fenPieceType(lower(c))
			if pt == PieceNone || file >= NumFiles {
				return Position{}, false
			}
			var side = Red
			if c >= 'a' && c <= 'z' {
				side = Black
			}
			var sq = MakeSquare(file, rank)
			p.Board[sq] = MakePiece(side, pt)
			file++
		}
	}
	p.RedMove = true
	if len(fields) >= 2 && fields[1] == "b" {
		p.RedMove = false
	}
	if len(fields) >= 5 {
		p.Rule60 = atoiSafe(fields[4])
	}
	p.Key = p.computeKey()
	return p, true
}

func (p *Position) FEN() string {
	var sb []byte
	for i := 0; i < NumRanks; i++ {
		var rank = NumRanks - 1 - i
		var empty = 0
		for file := 0; file < NumFiles; file++ {
			var piece = p.Board[MakeSquare(file, rank)]
			if piece.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb = append(sb, byte('0'+empty))
				empty = 0
			}
			sb = append(sb, fenPieceChar(piece))
		}
		if empty > 0 {
			sb = append(sb, byte('0'+empty))
		}
		if i != NumRanks-1 {
			sb = append(sb, '/')
		}
	}
	var side byte = 'w'
	if !p.RedMove {
		side = 'b'
	}
	return string(sb) + " " + string(side) + " - - 0 1"
}

func (p *Position) computeKey() uint64 {
	var key uint64
	for sq := 0; sq < NumCells; sq++ {
		key ^= pieceKey(p.Board[sq], Square(sq))
	}
	if !p.RedMove {
		key ^= zobristSide
	}
	return key
}

func (p *Position) SideToMove() Side {
	if p.RedMove {
		return Red
	}
	return Black
}

func (p *Position) Rule60Count() int {
	return p.Rule60
}

// DoMove applies m to *p and writes the resulting position into *dst,
// returning false if m leaves the mover's own general in check (dst then
// holds that rejected position and must not be used). Search workers keep one Position slot per ply and call
// DoMove/DoNullMove into the next slot rather than mutating in place, so
// undo is simply "stop reading that slot" — the same style the teacher
// uses in common/position.go (p.MakeMove(move, child)).
func (p *Position) DoMove(m Move, dst *Position) bool {
	*dst = *p
	var from, to = m.From(), m.To()
	var moving = dst.Board[from]
	var captured = dst.Board[to]

	dst.Key ^= pieceKey(moving, from)
	if !captured.IsEmpty() {
		dst.Key ^= pieceKey(captured, to)
	}
	dst.Key ^= pieceKey(moving, to)
	dst.Key ^= zobristSide

	dst.Board[from] = 0
	dst.Board[to] = moving
	dst.RedMove = !p.RedMove
	dst.LastMove = m

	if captured.IsEmpty() {
		dst.Rule60++
	} else {
		dst.Rule60 = 0
	}

	if dst.attacksKing(p.SideToMove()) {
		return false
	}
	return true
}

// DoNullMove passes the turn without moving a piece, used by the
// null-move-pruning heuristic in pkg/search.
func (p *Position) DoNullMove(dst *Position) {
	*dst = *p
	dst.RedMove = !p.RedMove
	dst.LastMove = MoveNull
	dst.Key ^= zobristSide
}

// attacksKing reports whether side's general is currently attacked; used
// right after DoMove to reject moves that leave the mover in check.
func (p *Position) attacksKing(side Side) bool {
	var kingSq = p.findKing(side)
	if kingSq == SquareNone {
		return true
	}
	return p.attackersOf(kingSq, side.Opposite()) != SquareNone || p.generalsFacing()
}

func (p *Position) findKing(side Side) Square {
	var want = MakePiece(side, King)
	for sq := 0; sq < NumCells; sq++ {
		if p.Board[sq] == want {
			return Square(sq)
		}
	}
	return SquareNone
}

// generalsFacing implements the "flying general" rule: the two generals may
// never stand on the same file with no piece between them.
func (p *Position) generalsFacing() bool {
	var redKing = p.findKing(Red)
	var blackKing = p.findKing(Black)
	if redKing == SquareNone || blackKing == SquareNone {
		return false
	}
	if redKing.File() != blackKing.File() {
		return false
	}
	for sq := redKing + North; sq != blackKing; sq += North {
		if !p.Board[sq].IsEmpty() {
			return false
		}
	}
	return true
}

// attackersOf returns the first square from which a piece of attackingSide
// attacks target, or SquareNone. It is a plain ray/pattern scan, not an
// attack-table lookup — bitboard attack tables are explicitly out of scope
// (spec.md §1).
func (p *Position) attackersOf(target Square, attackingSide Side) Square {
	// Pawns (soldiers): a red pawn moves North, so one attacking `target`
	// sits to its South, and symmetrically for Black.
	var pawnDir = South
	if attackingSide == Black {
		pawnDir = North
	}
	if sq := target + pawnDir; sq.InBoard() && p.Board[sq] == MakePiece(attackingSide, Pawn) {
		return sq
	}
	for _, d := range [2]Square{East, West} {
		if sq := target + d; sq.InBoard() && p.Board[sq] == MakePiece(attackingSide, Pawn) {
			// Only relevant once that pawn has crossed the river.
			if !sq.OwnHalf(attackingSide) {
				return sq
			}
		}
	}

	// Knights: target is attacked by a knight at sq if sq+knightDeltas[i]==target
	// and the corresponding leg is empty.
	for i, d := range knightDeltas {
		var sq = target - d
		if !sq.InBoard() || p.Board[sq] != MakePiece(attackingSide, Knight) {
			continue
		}
		var leg = sq + knightLegDelta[i]
		if p.Board[leg].IsEmpty() {
			return sq
		}
	}

	// Rooks and cannons along the four rays; the general also attacks like
	// a rook for the flying-general rule, handled separately.
	var rook = MakePiece(attackingSide, Rook)
	var cannon = MakePiece(attackingSide, Cannon)
	for _, d := range orthogonalDeltas {
		var sq = target + d
		var screen = false
		for sq.InBoard() {
			var piece = p.Board[sq]
			if piece.IsEmpty() {
				sq += d
				continue
			}
			if !screen {
				if piece == rook {
					return sq
				}
				screen = true
			} else {
				if piece == cannon {
					return sq
				}
				break
			}
			sq += d
		}
	}

	return SquareNone
}

// Checkers returns the square of an opposing piece giving check to the side
// to move's general right now. At most one square is returned: under a
// double check only the first attacker found is reported.
func (p *Position) Checkers() []Square {
	var side = p.SideToMove()
	var kingSq = p.findKing(side)
	if kingSq == SquareNone {
		return nil
	}
	var result []Square
	if sq := p.attackersOf(kingSq, side.Opposite()); sq != SquareNone {
		result = append(result, sq)
	}
	return result
}

func (p *Position) IsCheck() bool {
	var side = p.SideToMove()
	var kingSq = p.findKing(side)
	if kingSq == SquareNone {
		return false
	}
	return p.attackersOf(kingSq, side.Opposite()) != SquareNone
}

// GivesCheck reports whether m, played from p, checks the opponent.
func (p *Position) GivesCheck(m Move) bool {
	var child Position
	if !p.DoMove(m, &child) {
		return false
	}
	return child.IsCheck()
}

func (p *Position) Capture(m Move) bool {
	return m.IsCapture()
}

// Legal re-verifies a pseudo-legal move; DoMove already performs the same
// check and returns it as a bool, so Legal is a read-only convenience for
// callers (e.g. the UCI `position ... moves ...` parser) that only want the
// verdict.
func (p *Position) Legal(m Move) bool {
	var child Position
	return p.DoMove(m, &child)
}

func (p *Position) KeyAfter(m Move) uint64 {
	var key = p.Key
	var from, to = m.From(), m.To()
	var moving = p.Board[from]
	var captured = p.Board[to]
	key ^= pieceKey(moving, from)
	if !captured.IsEmpty() {
		key ^= pieceKey(captured, to)
	}
	key ^= pieceKey(moving, to)
	key ^= zobristSide
	return key
}

var majorPieceWeight = [PieceTypeNb]int{Rook: 5, Cannon: 3, Knight: 3}

// MajorMaterial sums the weight of side's rooks, cannons and knights, used
// by the search to gate null-move pruning and reverse futility in positions
// too materially bare for those heuristics to be sound (compare
// isLateEndgame in the teacher's engine/searchutils.go).
func (p *Position) MajorMaterial(side Side) int {
	var total int
	for sq := 0; sq < NumCells; sq++ {
		var piece = p.Board[sq]
		if piece.IsEmpty() || piece.Side() != side {
			continue
		}
		total += majorPieceWeight[piece.Type()]
	}
	return total
}

// RuleJudgeResult mirrors the three-way arbiter verdict spec.md's
// rule_judge contract describes.
type RuleJudgeResult int

const (
	RuleJudgeNone RuleJudgeResult = iota
	RuleJudgeDraw
	RuleJudgeWin  // side to move has forced a won rule outcome
	RuleJudgeLoss // side to move has been forced into a lost rule outcome
)

// RuleJudge is a simplified draw arbiter: real Xiangqi perpetual-check and
// perpetual-chase rules require tracking whether repeated checks/chases are
// "unconditional" across the whole repetition cycle, which spec.md places
// outside the core's scope (§1, "no rule implementation for the game
// itself"). This implementation reports a draw once the Rule60 counter
// reaches 120 plies or when the position is repeated at least twice in the
// supplied history, and otherwise reports no verdict; callers needing full chase-legality should replace historyKeys
// with a real arbiter without changing the search's call site.
func (p *Position) RuleJudge(historyKeys map[uint64]int, ply int) RuleJudgeResult {
	if p.Rule60 >= 120 {
		return RuleJudgeDraw
	}
	if historyKeys[p.Key] >= 2 {
		return RuleJudgeDraw
	}
	return RuleJudgeNone
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func splitFields(s string) []string {
	var result []string
	var start = -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			result = append(result, s[start:i])
			start = -1
		}
	}
	return result
}

func splitByte(s string, sep byte) []string {
	var result []string
	var start = 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			result = append(result, s[start:i])
			start = i + 1
		}
	}
	result = append(result, s[start:])
	return result
}

func atoiSafe(s string) int {
	var n int
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return n
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}
