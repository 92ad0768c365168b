package search

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/timeman"
)

// errSearchStopped unwinds an in-progress negamax/quiescence call the
// moment a worker notices its time budget expired, the same panic/recover
// escape pkg/engine/lazysmp.go's errSearchTimeout uses rather than
// threading a cancellation check through every return path.
var errSearchStopped = errors.New("search stopped")

// Options mirrors the UCI-tunable knobs spec.md §4.4 lists: thread count,
// aspiration windows, MultiPV breadth. Each worker runs its own per-pvIdx
// aspiration loop (spec.md §4.2 step 3); the pool ranks the resulting lines
// and, when MultiPV==1 and Threads>1, arbitrates the final answer across
// workers by vote rather than by which worker happened to finish first.
type Options struct {
	Threads           int
	AspirationWindows bool
	MultiPV           int
}

// Limits is the subset of timeman.Limits the pool needs to hand a search
// manager, kept separate so callers outside pkg/timeman don't need that
// import just to start a search.
type Limits = timeman.Limits

// GameState is re-exported so pkg/uci only needs to import pkg/search to
// thread nodestime/aspiration-adjust memory across successive `go` calls.
type GameState = timeman.GameState

// Info is one progress report the pool hands back mid-search, the shape
// pkg/uci needs for `info depth ... multipv ... pv ...` lines.
type Info struct {
	Depth        int
	SelDepth     int
	MultiPVIndex int
	Score        Value
	Nodes        int64
	PV           []board.Move
	Lowerbound   bool
	Upperbound   bool
}

// Pool is the SearchWorker/ThreadPool spec.md §4.2 describes: a fixed set
// of Worker goroutines racing iterative-deepening tasks off a shared
// transposition table, coordinated the way pkg/engine/lazysmp.go's
// task/taskResult channel pair does.
type Pool struct {
	options    Options
	tt         TranspositionTable
	evaluator  Evaluator
	workers    []*Worker
	timeMgr    *timeman.Manager
	ctx        context.Context
	stopped    atomic.Bool
	gameHistMu sync.Mutex
	gameHist   map[uint64]int
	progress   func(Info)
}

// NewPool wires the external collaborators spec.md §1 names (evaluator,
// transposition table) into a fresh worker set.
func NewPool(options Options, evaluator Evaluator, table TranspositionTable) *Pool {
	if options.Threads < 1 {
		options.Threads = 1
	}
	if options.MultiPV < 1 {
		options.MultiPV = 1
	}
	var p = &Pool{
		options:   options,
		tt:        table,
		evaluator: evaluator,
		gameHist:  make(map[uint64]int),
	}
	p.workers = make([]*Worker, options.Threads)
	for i := range p.workers {
		p.workers[i] = newWorker(p, i)
	}
	return p
}

// SetGameHistory records the Zobrist keys of positions played before the
// current search root, so in-tree repetition detection (Worker.isDraw) can
// see across the game boundary the way pkg/board.RuleJudge's caller-supplied
// history map does.
func (p *Pool) SetGameHistory(keys []uint64) {
	p.gameHistMu.Lock()
	defer p.gameHistMu.Unlock()
	p.gameHist = make(map[uint64]int, len(keys))
	for _, k := range keys {
		p.gameHist[k]++
	}
}

func (p *Pool) gameHistoryCount(key uint64) int {
	p.gameHistMu.Lock()
	defer p.gameHistMu.Unlock()
	return p.gameHist[key]
}

func (p *Pool) timeExceeded() bool {
	if p.stopped.Load() {
		return true
	}
	select {
	case <-p.ctx.Done():
		p.stopped.Store(true)
		return true
	default:
		return false
	}
}

func (p *Pool) Hashfull() int {
	return p.tt.Hashfull(0)
}

// TimeManager exposes the manager owning the in-flight search so pkg/uci
// can relay ponderhit and query the computed optimum/maximum budget.
func (p *Pool) TimeManager() *timeman.Manager {
	return p.timeMgr
}

// Stop cancels the in-flight search; workers notice on their next
// incNodes check and unwind via errSearchStopped.
func (p *Pool) Stop() {
	p.stopped.Store(true)
}

// searchTask/searchResult mirror pkg/engine/lazysmp.go's channel-based
// depth dispatch: every idle worker pulls the next depth to try, so a
// worker that finishes depth 10 quickly can start depth 11 while a slower
// sibling is still finishing depth 10. Each result now carries the
// worker's whole ranked MultiPV list, not just a single line.
type searchTask struct {
	depth int
}

type searchResult struct {
	workerID  int
	depth     int
	selDepth  int
	nodes     int64
	rootMoves []RootMove
}

// Search runs iterative deepening across the pool until ctx is cancelled
// or the time manager's Done predicate, or the time-reactive stopping
// formula (spec.md §4.2's "should stop early" heuristics), fires. It
// reports each depth that improves on the previous best through progress,
// once per MultiPV line, and returns the top line plus the per-game state
// (nodestime budget, aspiration-ratio memory) the next `go` call needs.
func (p *Pool) Search(ctx context.Context, root *board.Position, plyCount int, limits Limits,
	timeOptions timeman.Options, game GameState, progress func(Info)) (RootMove, GameState) {

	p.stopped.Store(false)
	p.progress = progress
	p.tt.NewSearch()

	var legalMoves = root.GenerateLegalMoves()
	if len(legalMoves) == 0 {
		return RootMove{}, game
	}

	var rootMoves = filterSearchMoves(legalMoves, limits.SearchMoves)
	if len(rootMoves) == 0 {
		rootMoves = legalMoves
	}

	var start = time.Now()
	var searchCtx, mgr = timeman.NewManager(ctx, start, limits, timeOptions,
		int(root.SideToMove()), plyCount, game)
	p.ctx = searchCtx
	p.timeMgr = mgr
	defer mgr.Close()

	var best = newRootMove(rootMoves[0])
	best.PV = []board.Move{rootMoves[0]}

	if len(rootMoves) == 1 {
		mgr.AdvanceNodesTime(0)
		return best, mgr.GameState()
	}

	var pvCount = p.options.MultiPV
	if pvCount > len(rootMoves) {
		pvCount = len(rootMoves)
	}

	var tasks = make(chan searchTask)
	var results = make(chan searchResult)
	var group, _ = errgroup.WithContext(context.Background())

	for _, w := range p.workers {
		var worker = w
		var workerTasks = tasks
		worker.initRoot(rootMoves, limits.SearchMoves)
		worker.nodesLimit = limits.Nodes
		group.Go(func() error {
			worker.runTaskLoop(root, workerTasks, results)
			return nil
		})
	}

	go func() {
		group.Wait()
		close(results)
	}()

	var completedDepth int
	var searchCountByDepth [MaxPly + 1]int
	var totalNodes int64
	var workerReports = make([]searchResult, len(p.workers))

	// Bookkeeping for the time-reactive stopping formula, spec.md §4.2 /
	// original_source/src/search.cpp lines 441-487.
	var bestMoveChanges float64
	var previousTimeReduction = 1.0
	var lastBestMoveDepth int
	var iterValue [4]Value
	var iterIdx int
	var bestPreviousAverageScore = ValueInfinite

	for {
		var task = searchTask{depth: completedDepth + 1}
		if task.depth <= MaxPly && searchCountByDepth[task.depth] >= (len(p.workers)+1)/2 {
			task.depth = completedDepth + 2
		}

		var stopNow = task.depth > MaxPly || mgr.Done(completedDepth, time.Since(start), totalNodes)
		if !stopNow && completedDepth > 0 {
			stopNow = p.shouldStopEarly(mgr, start, completedDepth, lastBestMoveDepth, totalNodes,
				best, bestPreviousAverageScore, iterValue, iterIdx, bestMoveChanges,
				&previousTimeReduction, limits)
		}
		if !stopNow && limits.Mate > 0 && isDecisive(best.Score) {
			var matePlies int
			if best.Score > 0 {
				matePlies = int(ValueMate - best.Score)
			} else {
				matePlies = int(ValueMate + best.Score)
			}
			if matePlies <= 2*limits.Mate {
				stopNow = true
			}
		}
		if stopNow {
			if tasks != nil {
				close(tasks)
				tasks = nil
			}
		}

		select {
		case res, ok := <-results:
			if !ok {
				var finalBest = pickBestReport(workerReports, best)
				mgr.AdvanceNodesTime(totalNodes)
				return finalBest, mgr.GameState()
			}
			totalNodes += res.nodes
			workerReports[res.workerID] = res
			if res.depth > completedDepth {
				bestPreviousAverageScore = best.AverageScore
				if len(res.rootMoves) > 0 && res.rootMoves[0].Move != best.Move {
					bestMoveChanges++
					lastBestMoveDepth = res.depth
				}
				completedDepth = res.depth
				if len(res.rootMoves) > 0 {
					best = res.rootMoves[0]
				}
				iterValue[iterIdx] = best.Score
				iterIdx = (iterIdx + 1) & 3
				if p.progress != nil {
					for i, rm := range res.rootMoves {
						p.progress(Info{
							Depth:        completedDepth,
							SelDepth:     rm.SelDepth,
							MultiPVIndex: i,
							Score:        rm.Score,
							Nodes:        totalNodes,
							PV:           rm.PV,
							Lowerbound:   rm.ScoreLowerbound,
							Upperbound:   rm.ScoreUpperbound,
						})
					}
				}
			}
		case tasks <- task:
			if task.depth <= MaxPly {
				searchCountByDepth[task.depth]++
			}
		}
	}
}

// filterSearchMoves restricts legal to the UCI `go searchmoves` whitelist
// (spec.md §4.6/§8); an empty whitelist means every legal move stays in
// play, matching original_source/src/search.cpp's own "searchmoves empty
// means search all" comment.
func filterSearchMoves(legal, whitelist []board.Move) []board.Move {
	if len(whitelist) == 0 {
		return legal
	}
	var out = make([]board.Move, 0, len(legal))
	for _, m := range legal {
		for _, w := range whitelist {
			if m == w {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// shouldStopEarly implements spec.md §4.2's soft, time-reactive stop check:
// the search may finish before the hard `maximum` budget once the position
// looks settled (fallingEval near its floor), the best move has stopped
// changing (bestMoveInstability near 1), and either the effort spent on the
// current best move already dwarfs the remaining nodes budget or the total
// elapsed time exceeds the reactive optimum. Constants are reproduced from
// original_source/src/search.cpp lines 441-487.
func (p *Pool) shouldStopEarly(mgr *timeman.Manager, start time.Time, completedDepth, lastBestMoveDepth int,
	totalNodes int64, best RootMove, bestPreviousAverageScore Value, iterValue [4]Value, iterIdx int,
	bestMoveChanges float64, previousTimeReduction *float64, limits Limits) bool {

	if limits.Ponder || limits.Infinite || mgr.Optimum() <= 0 {
		return false
	}
	if !mgr.ShouldStopIteration(time.Since(start)) {
		return false
	}

	var bestValue = float64(best.Score)
	var prevIterValue = float64(iterValue[(iterIdx+3)&3])
	var fallingEval = (86 + 14*(float64(bestPreviousAverageScore)-bestValue) + 4*(prevIterValue-bestValue)) / 566.87
	fallingEval = clampFloat(fallingEval, 0.62, 1.76)

	var timeReduction = 0.63
	if lastBestMoveDepth+12 < completedDepth {
		timeReduction = 1.59
	}
	var reduction = (1.91 + *previousTimeReduction) / (3.17 * timeReduction)
	*previousTimeReduction = timeReduction

	var bestMoveInstability = 0.87 + 1.62*bestMoveChanges/float64(len(p.workers))

	var totalTime = float64(mgr.Optimum()) * fallingEval * reduction * bestMoveInstability

	var elapsed = time.Since(start)
	var nodesEffort = float64(best.Effort) * 144 / math.Max(1, float64(totalNodes))
	if completedDepth >= 9 && nodesEffort >= 111 &&
		float64(elapsed) > totalTime*0.73 && !limits.Ponder {
		return true
	}
	return float64(elapsed) > totalTime
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// pickBestReport applies get_best_thread voting across every worker's last
// completed-depth report (spec.md line 97: "voting across workers by depth
// and score agreement"), used when Threads>1 to pick the final answer
// instead of trusting whichever worker happened to report its deepest
// result first. The exact vote weighting is Stockfish's thread.cpp
// algorithm reconstructed from general knowledge of the engine family,
// since original_source/src/thread.cpp was not part of the retrieved
// reference pack (only bitboard.cpp, evaluate.cpp, search.cpp, timeman.cpp,
// types.h and uci.cpp were retrieved).
func pickBestReport(reports []searchResult, fallback RootMove) RootMove {
	var minScore = ValueInfinite
	var any bool
	for _, r := range reports {
		if len(r.rootMoves) == 0 {
			continue
		}
		any = true
		if r.rootMoves[0].Score < minScore {
			minScore = r.rootMoves[0].Score
		}
	}
	if !any {
		return fallback
	}

	var votes = make(map[board.Move]int64)
	for _, r := range reports {
		if len(r.rootMoves) == 0 {
			continue
		}
		var rm = r.rootMoves[0]
		votes[rm.Move] += int64(rm.Score-minScore+14) * int64(r.depth)
	}

	var bestIdx = -1
	for i, r := range reports {
		if len(r.rootMoves) == 0 {
			continue
		}
		if bestIdx == -1 {
			bestIdx = i
			continue
		}
		var rm, brm = r.rootMoves[0], reports[bestIdx].rootMoves[0]
		switch {
		case votes[rm.Move] != votes[brm.Move]:
			if votes[rm.Move] > votes[brm.Move] {
				bestIdx = i
			}
		case isDecisive(rm.Score) && rm.Score > brm.Score:
			bestIdx = i
		case !isDecisive(brm.Score) && r.depth > reports[bestIdx].depth:
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return fallback
	}
	return reports[bestIdx].rootMoves[0]
}

// initRoot seeds a worker's persistent per-candidate RootMove list before a
// fresh Search call: one slot per root move (in generation order; the
// aspiration loop re-sorts as scores come in), plus the searchmoves
// whitelist the root move loop consults every node.
func (w *Worker) initRoot(rootMoves []board.Move, searchMoves []board.Move) {
	w.rootMoves = make([]RootMove, len(rootMoves))
	for i, m := range rootMoves {
		w.rootMoves[i] = newRootMove(m)
	}
	w.searchMoves = searchMoves
}

// runTaskLoop is the per-worker half of the lazySMP loop: pull a depth, run
// the full per-pvIdx MultiPV aspiration loop at it, report, repeat until
// tasks closes.
func (w *Worker) runTaskLoop(root *board.Position, tasks <-chan searchTask, results chan<- searchResult) {
	defer func() {
		if r := recover(); r != nil {
			if r == errSearchStopped {
				return
			}
			panic(r)
		}
	}()

	w.resetStack(root)
	for i := 0; i <= 2; i++ {
		w.stack[w.at(i)].killer1 = board.MoveEmpty
		w.stack[w.at(i)].killer2 = board.MoveEmpty
	}

	for task := range tasks {
		w.rootDepth = task.depth
		w.stopped = false
		var rootMoves = w.searchMultiPV(root, task.depth)
		results <- searchResult{
			workerID:  w.id,
			depth:     task.depth,
			selDepth:  w.selDepth,
			nodes:     w.nodes,
			rootMoves: rootMoves,
		}
		w.nodes = 0
	}
}

// searchMultiPV runs spec.md §4.2 step 3's per-pvIdx loop: each slot gets
// its own aspiration window seeded from its own running average score, and
// excludes every move already claimed by an earlier (better) slot this
// iteration. The list is kept sorted best-first after every slot so a
// slot's own average score reflects its rank rather than its original
// generation-order position.
func (w *Worker) searchMultiPV(root *board.Position, depth int) []RootMove {
	w.positions[w.at(0)] = *root
	w.rootDepth = depth
	w.searchAgainCounter++

	var pvCount = w.pool.options.MultiPV
	if pvCount > len(w.rootMoves) {
		pvCount = len(w.rootMoves)
	}

	for pvIdx := 0; pvIdx < pvCount; pvIdx++ {
		w.rootExcluded = w.rootExcluded[:0]
		for i := 0; i < pvIdx; i++ {
			w.rootExcluded = append(w.rootExcluded, w.rootMoves[i].Move)
		}

		var rm = &w.rootMoves[pvIdx]
		var beforeNodes = w.nodes
		var score = w.aspirationWindowPV(depth, rm)
		var pv = w.ss(0).pv.slice()
		for j := pvIdx + 1; len(pv) > 0 && j < len(w.rootMoves); j++ {
			if w.rootMoves[j].Move == pv[0] {
				w.rootMoves[pvIdx], w.rootMoves[j] = w.rootMoves[j], w.rootMoves[pvIdx]
				break
			}
		}
		rm.PreviousScore = rm.Score
		rm.Score = score
		rm.UciScore = score
		rm.updateAverageScore(score)
		rm.SelDepth = w.selDepth
		rm.Effort += w.nodes - beforeNodes

		if len(pv) == 0 {
			pv = []board.Move{rm.Move}
		}
		rm.PV = pv

		for i := pvIdx; i > 0 && w.rootMoves[i].Score > w.rootMoves[i-1].Score; i-- {
			w.rootMoves[i], w.rootMoves[i-1] = w.rootMoves[i-1], w.rootMoves[i]
		}
	}

	sort.SliceStable(w.rootMoves[:pvCount], func(i, j int) bool {
		return w.rootMoves[i].Score > w.rootMoves[j].Score
	})

	var out = make([]RootMove, pvCount)
	copy(out, w.rootMoves[:pvCount])
	return out
}

// aspirationWindowPV narrows alpha/beta around a PV slot's own running
// average once the search is deep enough and that slot has a settled
// average to widen around, following original_source/src/search.cpp's
// per-pvIdx widening loop but with the delta taken as
// `10 + |meanSquaredScore| / 44420`. With Options.AspirationWindows off,
// every depth is searched with a full window.
func (w *Worker) aspirationWindowPV(depth int, rm *RootMove) Value {
	if !w.pool.options.AspirationWindows || depth < 5 || rm.AverageScore == unsetScore || isDecisive(rm.AverageScore) {
		w.rootDelta = 2 * ValueInfinite
		return w.negamax(0, depth, -ValueInfinite, ValueInfinite, false)
	}

	var msq = rm.MeanSquaredScore
	if msq < 0 {
		msq = -msq
	}
	var delta = Value(10 + int(msq/44420))
	var avg = rm.AverageScore
	var alpha = maxValue(avg-delta, -ValueInfinite)
	var beta = minValue(avg+delta, ValueInfinite)

	// failedHighCnt/adjustedDepth reproduce original_source/src/search.cpp's
	// per-pvIdx aspiration retry loop (spec.md §4.2 step 3): each fail-high
	// searches shallower, so a line that keeps raising the bar doesn't pay
	// full depth on every retry; a fail-low resets the discount.
	var failedHighCnt = 0

	for tries := 0; tries < 8; tries++ {
		var adjustedDepth = maxInt(1, w.rootDepth-failedHighCnt-3*(w.searchAgainCounter+1)/4)
		w.rootDelta = beta - alpha
		var score = w.negamax(0, adjustedDepth, alpha, beta, false)
		if score <= alpha {
			beta = (alpha + beta) / 2
			alpha = maxValue(score-delta, -ValueInfinite)
			failedHighCnt = 0
			rm.ScoreLowerbound = false
			rm.ScoreUpperbound = true
		} else if score >= beta {
			beta = minValue(score+delta, ValueInfinite)
			failedHighCnt++
			rm.ScoreLowerbound = true
			rm.ScoreUpperbound = false
		} else {
			rm.ScoreLowerbound = false
			rm.ScoreUpperbound = false
			return score
		}
		delta += delta / 3
		if alpha <= -ValueInfinite && beta >= ValueInfinite {
			return score
		}
	}
	w.rootDelta = beta - alpha
	return w.negamax(0, depth, -ValueInfinite, ValueInfinite, false)
}
