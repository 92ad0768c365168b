package board

import "testing"

func TestFENRoundTrip(t *testing.T) {
	var p, ok = NewPositionFromFEN(InitialFEN)
	if !ok {
		t.Fatal("failed to parse initial FEN")
	}
	var got = p.FEN()
	var want = InitialFEN[:len(InitialFEN)-len(" - - 0 1")]
	if got[:len(want)] != want {
		t.Errorf("FEN round trip mismatch:\n got  %v\n want %v", got, want)
	}
	if !p.RedMove {
		t.Error("initial position should have Red to move")
	}
}

func TestKnightLegBlock(t *testing.T) {
	var p Position
	var knightSq = MakeSquare(4, 4)
	p.Board[knightSq] = MakePiece(Red, Knight)
	p.Board[knightSq+North] = MakePiece(Red, Pawn) // blocks the leg to the north
	p.RedMove = true

	var buf [MaxMoves]Move
	var moves = p.GenerateMoves(buf[:])
	var blockedTarget = knightSq + 2*North + West
	for _, m := range moves {
		if m.From() == knightSq && m.To() == blockedTarget {
			t.Errorf("knight move %v should be blocked by its leg", m)
		}
	}

	// Moves whose leg lies to the east/west/south remain legal; check one.
	var openTarget = knightSq + South + 2*West
	var found = false
	for _, m := range moves {
		if m.From() == knightSq && m.To() == openTarget {
			found = true
		}
	}
	if !found {
		t.Errorf("knight move to %v should be legal, leg is clear", openTarget)
	}
}

func TestCannonNeedsExactlyOneScreen(t *testing.T) {
	var p Position
	var cannonSq = MakeSquare(0, 0)
	var targetSq = MakeSquare(0, 5)
	p.Board[cannonSq] = MakePiece(Red, Cannon)
	p.Board[targetSq] = MakePiece(Black, Rook)
	p.RedMove = true

	var buf [MaxMoves]Move
	var moves = p.GenerateCaptures(buf[:])
	for _, m := range moves {
		if m.To() == targetSq {
			t.Error("cannon should not capture across an empty lane")
		}
	}

	var screenSq = MakeSquare(0, 2)
	p.Board[screenSq] = MakePiece(Red, Pawn)
	moves = p.GenerateCaptures(buf[:])
	var found = false
	for _, m := range moves {
		if m.From() == cannonSq && m.To() == targetSq {
			found = true
		}
	}
	if !found {
		t.Error("cannon should capture over a single screen")
	}

	var secondScreenSq = MakeSquare(0, 3)
	p.Board[secondScreenSq] = MakePiece(Black, Advisor)
	moves = p.GenerateCaptures(buf[:])
	for _, m := range moves {
		if m.From() == cannonSq && m.To() == targetSq {
			t.Error("cannon should not capture across two screens")
		}
	}
}

func TestFlyingGeneralIllegal(t *testing.T) {
	var p Position
	p.Board[MakeSquare(4, 0)] = MakePiece(Red, King)
	p.Board[MakeSquare(4, 9)] = MakePiece(Black, King)
	p.Board[MakeSquare(4, 5)] = MakePiece(Red, Pawn) // the only piece on the file
	p.RedMove = true
	p.Key = p.computeKey()

	var m = NewMove(MakeSquare(4, 5), MakeSquare(3, 5), Pawn, PieceNone)
	if p.Legal(m) {
		t.Error("moving the blocking pawn off the file should expose the flying-general rule")
	}
}

func TestSEESimpleExchange(t *testing.T) {
	var p Position
	var rookSq = MakeSquare(0, 0)
	var pawnSq = MakeSquare(0, 5)
	p.Board[rookSq] = MakePiece(Red, Rook)
	p.Board[pawnSq] = MakePiece(Black, Pawn)
	p.RedMove = true

	var m = NewMove(rookSq, pawnSq, Rook, Pawn)
	if got := p.SEE(m); got != seeValue[Pawn] {
		t.Errorf("undefended pawn capture SEE = %d, want %d", got, seeValue[Pawn])
	}
}

func TestSEELosingExchange(t *testing.T) {
	var p Position
	var rookSq = MakeSquare(0, 0)
	var pawnSq = MakeSquare(0, 5)
	var defenderSq = MakeSquare(1, 7)
	p.Board[rookSq] = MakePiece(Red, Rook)
	p.Board[pawnSq] = MakePiece(Black, Pawn)
	p.Board[defenderSq] = MakePiece(Black, Knight)
	p.RedMove = true

	// The knight's leg to pawnSq is clear, so RxP walks into NxR: the rook
	// is lost for a pawn.
	var m = NewMove(rookSq, pawnSq, Rook, Pawn)
	if got := p.SEE(m); got >= seeValue[Rook] {
		t.Errorf("defended-pawn capture SEE = %d, should not recover the rook's value", got)
	}
}
