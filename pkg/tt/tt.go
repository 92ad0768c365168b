// Package tt implements the TranspositionTable external contract of
// spec.md §4.5: a lock-free, generation-aged hash table shared by every
// search worker. Grounded on pkg/engine/transtable.go's CAS-gated entry
// design, extended with is_pv, generation and Hashfull(age).
package tt

import (
	"sync/atomic"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
)

// Bound reports which side of the search window a stored value is exact
// for; boundExact is the union of both flags, matching boundLower|boundUpper
// in the teacher.
type Bound uint8

const (
	BoundNone  Bound = 0
	BoundLower Bound = 1 << 0
	BoundUpper Bound = 1 << 1
	BoundExact       = BoundLower | BoundUpper
)

const (
	// ValueMate and the surrounding constants mirror spec.md's mate-scoring
	// window; maxPly bounds ply-based mate-distance adjustment and equals
	// pkg/search's MaxPly.
	maxPly           = 128
	ValueMate        = 30000
	ValueInfinite    = 30001
	MateInMaxPly     = ValueMate - maxPly
	MatedInMaxPly    = -MateInMaxPly
	ValueNone        = -ValueInfinite - 1
)

// ValueToTT adjusts a search value for storage: mate/loss scores are
// distance-to-root dependent, so they're rebased to a distance-from-this-
// node value before hitting the table.
func ValueToTT(v, ply int) int {
	if v == ValueNone {
		return v
	}
	if v >= MateInMaxPly {
		return v + ply
	}
	if v <= MatedInMaxPly {
		return v - ply
	}
	return v
}

// ValueFromTT reverses ValueToTT and additionally downgrades a stored mate
// score that the 60-move rule would make unreachable, per spec.md §4.5.
func ValueFromTT(v, ply, rule60Count int) int {
	if v == ValueNone {
		return v
	}
	if v >= MateInMaxPly {
		if ValueMate-v > 120-rule60Count {
			return MateInMaxPly - 1
		}
		return v - ply
	}
	if v <= MatedInMaxPly {
		if ValueMate+v > 120-rule60Count {
			return MatedInMaxPly + 1
		}
		return v + ply
	}
	return v
}

func roundPowerOfTwo(size int) int {
	var x = 1
	for (x << 1) <= size {
		x <<= 1
	}
	return x
}

// entry packs one table slot; the gate field is a spinlock-free
// single-writer CAS guard, not a real mutex, the same idea as
// pkg/engine/transtable.go's transEntry.gate, but board.Move here needs a
// full 23 bits (mailbox squares run 0-255 rather than 0-89), so move and
// generation get their own fields instead of sharing one packed word.
type entry struct {
	gate       int32
	key32      uint32
	move       int32
	generation uint16
	value      int16
	eval       int16
	depth      int8
	bound      uint8
	isPv       uint8
}

func (e *entry) Move() board.Move {
	return board.Move(e.move)
}

func (e *entry) Generation() uint16 {
	return e.generation
}

func (e *entry) setMoveAndGeneration(m board.Move, gen uint16) {
	e.move = int32(m)
	e.generation = gen
}

// Data is the read-side view probe() hands back, matching spec.md §4.5's
// {move, value, eval, depth, bound, is_pv, generation} tuple.
type Data struct {
	Move       board.Move
	Value      int
	Eval       int
	Depth      int
	Bound      Bound
	IsPv       bool
	Generation uint16
}

// Table is the shared, lock-free transposition table.
type Table struct {
	megabytes int
	entries   []entry
	generation uint16
	mask      uint32
}

func New(megabytes int) *Table {
	if megabytes < 1 {
		megabytes = 1
	}
	var size = roundPowerOfTwo(1024 * 1024 * megabytes / 16)
	return &Table{
		megabytes: megabytes,
		entries:   make([]entry, size),
		mask:      uint32(size - 1),
	}
}

func (t *Table) SizeMB() int {
	return t.megabytes
}

// NewSearch ages the generation counter; entries from stale generations
// become preferentially replaceable without needing to be cleared.
func (t *Table) NewSearch() {
	t.generation = (t.generation + 1) & 0x7ff
}

func (t *Table) Clear() {
	t.generation = 0
	for i := range t.entries {
		t.entries[i] = entry{}
	}
}

// Probe returns whether key hit the table plus the stored Data. A Writer
// value is also returned so callers can write back without a second hash
// computation, mirroring spec.md's `probe(key) -> (hit, data, writer)`.
func (t *Table) Probe(key uint64) (hit bool, data Data, w Writer) {
	var idx = uint32(key) & t.mask
	var e = &t.entries[idx]
	w = Writer{table: t, index: idx}
	if !atomic.CompareAndSwapInt32(&e.gate, 0, 1) {
		return false, Data{}, w
	}
	defer atomic.StoreInt32(&e.gate, 0)
	if e.key32 != uint32(key>>32) {
		return false, Data{}, w
	}
	e.setMoveAndGeneration(e.Move(), t.generation)
	return true, Data{
		Move:       e.Move(),
		Value:      int(e.value),
		Eval:       int(e.eval),
		Depth:      int(e.depth),
		Bound:      Bound(e.bound),
		IsPv:       e.isPv != 0,
		Generation: e.Generation(),
	}, w
}

// Writer targets the single slot a prior Probe examined.
type Writer struct {
	table *Table
	index uint32
}

// Write stores a search result, applying the teacher's replacement policy:
// prefer deeper or exact entries on a key match, prefer stale-generation or
// deeper entries on a collision.
func (w Writer) Write(key uint64, value, eval, depth int, bound Bound, move board.Move, isPv bool) {
	var t = w.table
	var e = &t.entries[w.index]
	if !atomic.CompareAndSwapInt32(&e.gate, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&e.gate, 0)

	var sameKey = e.key32 == uint32(key>>32)
	var replace bool
	if sameKey {
		replace = depth >= int(e.depth)-3 || bound == BoundExact || isPv
	} else {
		replace = e.Generation() != t.generation || depth >= int(e.depth)
	}
	if !replace {
		return
	}
	if move == board.MoveEmpty && sameKey {
		move = e.Move()
	}
	e.key32 = uint32(key >> 32)
	e.value = int16(value)
	e.eval = int16(eval)
	e.depth = int8(depth)
	e.bound = uint8(bound)
	if isPv {
		e.isPv = 1
	} else {
		e.isPv = 0
	}
	e.setMoveAndGeneration(move, t.generation)
}

// Hashfull returns the per-mille of slots occupied by entries written
// within `age` generations of the current one, sampling the first 1000
// slots the way Stockfish's hashfull() does. spec.md §4.5 names it exactly
// this way; the teacher has no direct counterpart since its transTable
// never reported occupancy.
func (t *Table) Hashfull(age int) int {
	var sample = 1000
	if sample > len(t.entries) {
		sample = len(t.entries)
	}
	var count int
	for i := 0; i < sample; i++ {
		var e = &t.entries[i]
		if e.key32 == 0 {
			continue
		}
		var gen = int(e.Generation())
		var cur = int(t.generation)
		var delta = cur - gen
		if delta < 0 {
			delta += 1 << 11
		}
		if delta <= age {
			count++
		}
	}
	return count * 1000 / sample
}
