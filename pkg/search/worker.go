package search

import (
	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/history"
)

// stackSize covers MaxPly of real search plus the 7-before/2-after padding
// spec.md's SearchStack discussion calls for; index 0 of the raw array
// therefore holds ply -7, addressed through Worker.at().
const (
	stackPad  = 7
	stackSize = MaxPly + stackPad + 2
)

// Worker is one search thread: its own position/search stacks and its own
// history tables (continuation history in particular is thread-local, the
// same separation pkg/engine/lazysmp.go achieves with one `thread` struct
// per goroutine), sharing only the pool's transposition table.
type Worker struct {
	pool      *Pool
	id        int
	history   *history.Tables
	positions [stackSize]board.Position
	stack     [stackSize]stackEntry
	nodes     int64
	rootDepth int
	selDepth  int
	rootPos   board.Position
	rootMoves []RootMove

	// nodesLimit is `go nodes N`'s cap (0 when unset), read by incNodes to
	// pick the node-limited callsCnt cadence spec.md §4.3 step 1 specifies.
	nodesLimit int64
	// callsCnt counts down to the next time-budget check; reset to
	// min(512, nodesLimit/1024) in node-limited mode, else 512, matching
	// original_source/src/search.cpp's SearchManager::check_time.
	callsCnt int
	// searchAgainCounter and rootDelta feed the aspiration-window depth
	// formula (spec.md §4.2 step 3 / original_source/src/search.cpp's
	// `adjustedDepth`/`reduction()`): searchAgainCounter increments once per
	// depth iteration, rootDelta is the root aspiration window's width for
	// the depth currently in progress.
	searchAgainCounter int
	rootDelta          Value

	// searchMoves is the UCI `go searchmoves` whitelist for this search, or
	// nil when every legal root move is in play (spec.md §4.6/§8).
	searchMoves []board.Move
	// rootExcluded holds the root moves already claimed by earlier, higher
	// MultiPV slots at the current depth, so a later slot's move loop skips
	// them (spec.md §4.2 step 3).
	rootExcluded []board.Move
	// nmpMinPly disables a second null-move probe until search has climbed
	// back above this ply, guarding the verification search's own subtree
	// from immediately re-triggering null-move pruning.
	nmpMinPly int

	stopped bool
}

func newWorker(pool *Pool, id int) *Worker {
	return &Worker{
		pool:    pool,
		id:      id,
		history: history.NewTables(),
	}
}

// at maps a logical ply (which may be negative, for look-behind heuristics)
// to its slot in the padded arrays.
func (w *Worker) at(ply int) int {
	return ply + stackPad
}

func (w *Worker) ss(ply int) *stackEntry {
	return &w.stack[w.at(ply)]
}

func (w *Worker) pos(ply int) *board.Position {
	return &w.positions[w.at(ply)]
}

// resetStack seeds the sentinel look-behind plies and the root position
// before a new iterative deepening run, matching the teacher's per-search
// killer-clearing in searchDepth.
func (w *Worker) resetStack(root *board.Position) {
	for i := range w.stack {
		w.stack[i] = stackEntry{staticEval: ValueNone}
	}
	w.positions[w.at(0)] = *root
	w.nodes = 0
	w.selDepth = 0
	w.nmpMinPly = 0
	w.callsCnt = w.resetCallsCnt()
}

// resetCallsCnt computes the next check_time countdown: spec.md §4.3 step 1
// caps the check interval at 512 nodes, tightened to nodesLimit/1024 when a
// `go nodes N` cap makes overshoot past the limit cheap to bound tightly.
func (w *Worker) resetCallsCnt() int {
	if w.nodesLimit > 0 {
		return minInt(512, int(w.nodesLimit/1024))
	}
	return 512
}

// doMove advances the search one ply, threading Zobrist/board state through
// the padded position array and bumping the node counter the way
// thread.MakeMove does in the teacher.
func (w *Worker) doMove(ply int, m board.Move) bool {
	var from = w.pos(ply)
	var to = w.pos(ply + 1)
	var ok bool
	if m == board.MoveNull {
		from.DoNullMove(to)
		ok = true
	} else {
		ok = from.DoMove(m, to)
	}
	if ok {
		w.ss(ply).currentMove = m
		w.incNodes()
	}
	return ok
}

// incNodes bumps the node counter and, once the callsCnt countdown (spec.md
// §4.3 step 1) reaches zero, checks whether the pool's time budget has
// expired. On expiry it panics with errSearchStopped so the recursion
// unwinds immediately rather than threading a cancellation check through
// every return path in negamax/quiescence, the same escape
// pkg/engine/lazysmp.go's errSearchTimeout provides.
func (w *Worker) incNodes() {
	w.nodes++
	w.callsCnt--
	if w.callsCnt <= 0 {
		w.callsCnt = w.resetCallsCnt()
		if w.pool.timeExceeded() {
			w.stopped = true
			panic(errSearchStopped)
		}
	}
}

// continuationAt returns the continuation-history table keyed by the move
// played `back` plies ago from `ply`, or nil past the root (the sentinel
// plies stackPad provides keep this always in range).
func (w *Worker) continuationAt(ply, back int, side board.Side) *history.ContinuationTable {
	var m = w.ss(ply - back).currentMove
	return w.history.Continuation(side, m)
}
