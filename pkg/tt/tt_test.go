package tt

import (
	"testing"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
)

func TestProbeWriteRoundTrip(t *testing.T) {
	var table = New(1)
	var key = uint64(0x1234567890abcdef)
	var m = board.NewMove(board.MakeSquare(0, 0), board.MakeSquare(0, 5), board.Rook, board.Cannon)

	hit, _, w := table.Probe(key)
	if hit {
		t.Fatal("empty table should not report a hit")
	}
	w.Write(key, 123, 45, 8, BoundExact, m, true)

	hit, data, _ := table.Probe(key)
	if !hit {
		t.Fatal("expected a hit after write")
	}
	if data.Move != m || data.Value != 123 || data.Depth != 8 || data.Bound != BoundExact || !data.IsPv {
		t.Errorf("round trip mismatch: %+v", data)
	}
}

func TestNewSearchAgesGeneration(t *testing.T) {
	var table = New(1)
	var key = uint64(0xabcdef0100000001)
	_, _, w := table.Probe(key)
	w.Write(key, 1, 1, 1, BoundExact, board.MoveEmpty, false)
	table.NewSearch()
	if table.Hashfull(0) != 0 {
		t.Error("an aged entry should not count toward hashfull at age 0")
	}
	if table.Hashfull(1) == 0 {
		t.Error("the aged entry should still count toward hashfull at age 1")
	}
}

func TestValueToFromTT(t *testing.T) {
	var v = MateInMaxPly + 5
	var stored = ValueToTT(v, 3)
	var back = ValueFromTT(stored, 3, 0)
	if back != v {
		t.Errorf("value_to_tt/value_from_tt round trip: got %d, want %d", back, v)
	}
}
