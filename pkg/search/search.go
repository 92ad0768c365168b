package search

import (
	"math"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/history"
	"github.com/ChizhovVadim/CounterGo/pkg/tt"
)

// pruning/reduction constants. Named individually, in the teacher's style,
// rather than folded into one options struct literal.
const (
	pawnValueForPruning = 100
)

// pieceValueForPruning is a rough centipawn table used only by the search
// core's own margins (razoring, ProbCut, statScore) — a separate, smaller
// table than pkg/eval's, the same way original_source/src/types.h's
// PieceValue[MG] table is search-internal and distinct from the trained
// evaluation weights.
var pieceValueForPruning = [board.PieceTypeNb]int{
	board.Rook:    900,
	board.Cannon:  450,
	board.Knight:  400,
	board.Bishop:  200,
	board.Advisor: 200,
	board.Pawn:    100,
}

// isDraw reports the cheap in-tree repetition/60-move check the hot path
// uses; RuleJudge on pkg/board remains available for callers (e.g. the UCI
// driver reporting game-end) that want the full arbiter contract.
func (w *Worker) isDraw(ply int) bool {
	var pos = w.pos(ply)
	if pos.Rule60Count() >= 120 {
		return true
	}
	if pos.LastMove == board.MoveEmpty || pos.Rule60Count() == 0 {
		return false
	}
	var count = w.pool.gameHistoryCount(pos.Key)
	for i := ply - 1; i >= 0; i-- {
		var prior = &w.positions[w.at(i)]
		if prior.Key == pos.Key {
			count++
			if count >= 2 {
				return true
			}
		}
		if prior.Rule60Count() == 0 || prior.LastMove == board.MoveEmpty {
			break
		}
	}
	return false
}

// negamax is the recursive search core: TT probe, static eval and its
// correction, the pre-move-loop pruning family (reverse futility, razoring,
// null-move with verification, internal iterative reduction, ProbCut), the
// staged move loop with singular extension/LMR/PVS, and the post-loop
// bookkeeping (best-move update, TT write, history/killer/correction
// updates). Grounded on pkg/engine/search.go's alphaBeta for the negamax
// skeleton and on original_source/src/search.cpp's `search<NT>` for the
// heuristics the teacher's much simpler engine never needed.
func (w *Worker) negamax(ply, depth int, alpha, beta Value, cutNode bool) Value {
	if depth <= 0 {
		return w.quiescence(ply, alpha, beta)
	}
	var ss = w.ss(ply)
	ss.pv.clear()
	ss.cutoffCnt = 0
	ss.statScore = 0

	var rootNode = ply == 0
	var pvNode = beta != alpha+1
	var allNode = !pvNode && !cutNode
	var pos = w.pos(ply)
	var side = pos.SideToMove()
	var isCheck = len(pos.Checkers()) > 0
	ss.inCheck = isCheck
	if ply > w.selDepth {
		w.selDepth = ply
	}

	if !rootNode {
		if ply >= MaxPly-1 {
			return w.pool.evaluator.Evaluate(pos)
		}
		if w.isDraw(ply) {
			return ValueDraw
		}
		// Mate-distance pruning (spec.md §4.3 step 3).
		if a := lossIn(ply); a > alpha {
			alpha = a
		}
		if b := winIn(ply + 1); b < beta {
			beta = b
		}
		if alpha >= beta {
			return alpha
		}
	}

	var skipMove = ss.excludedMove
	var ttHit bool
	var ttWriter tt.Writer
	var ttData struct {
		Move  board.Move
		Value Value
		Eval  Value
		Depth int
		Bound tt.Bound
		IsPv  bool
	}
	if skipMove == board.MoveEmpty {
		var hit, data, w2 = w.pool.tt.Probe(pos.Key)
		ttWriter = w2
		if hit {
			ttHit = true
			ttData.Move = data.Move
			ttData.Value = Value(tt.ValueFromTT(data.Value, ply, pos.Rule60Count()))
			ttData.Eval = Value(data.Eval)
			ttData.Depth = data.Depth
			ttData.Bound = data.Bound
			ttData.IsPv = data.IsPv
		}
	}
	ss.ttHit = ttHit
	ss.ttPv = pvNode || (ttHit && ttData.IsPv)

	// TT early cutoff (spec.md §4.3 step 4): non-PV only, ttDepth strictly
	// greater than depth reduced by one when ttValue can't raise beta, the
	// stored bound on the crossed side, and either cutNode agrees with the
	// bound's direction or depth is past the shallow-node threshold. A
	// cutoff on a quiet TT move earns a small history bonus; a cutoff right
	// after a quiet, low-move-count parent move earns a continuation malus.
	if ttHit && !rootNode && !pvNode && pos.Rule60Count() < 110 {
		var depthMargin = 0
		if ttData.Value <= beta {
			depthMargin = 1
		}
		if ttData.Depth > depth-depthMargin && (cutNode == (ttData.Value >= beta) || depth > 9) {
			if ttData.Value >= beta && ttData.Bound&tt.BoundLower != 0 {
				if ttData.Move != board.MoveEmpty && !ttData.Move.IsCapture() {
					w.history.UpdateQuiets(ply, side, []board.Move{ttData.Move}, ttData.Move, depth,
						w.continuationAt(ply, 1, side), w.continuationAt(ply, 2, side),
						w.continuationAt(ply, 3, side), w.continuationAt(ply, 4, side),
						w.continuationAt(ply, 6, side))
					if ply > 0 {
						var prev = w.ss(ply - 1)
						if prev.moveCount <= 2 && prev.currentMove != board.MoveEmpty && !prev.currentMove.IsCapture() {
							w.continuationAt(ply-1, 1, side.Opposite()).UpdateMalus(
								side.Opposite(), prev.currentMove, statMalus(depth))
						}
					}
				}
				return ttData.Value
			}
			if ttData.Value <= alpha && ttData.Bound&tt.BoundUpper != 0 {
				return ttData.Value
			}
		}
	}

	// rawEval mirrors original_source/src/search.cpp's ss->staticEval: set
	// once per node and never mutated again. eval is the working value the
	// pruning heuristics below actually read, which a TT hit may override
	// to ttData.Value without touching rawEval.
	var rawEval Value
	if isCheck {
		if ply >= 2 {
			rawEval = w.ss(ply - 2).staticEval
		} else {
			rawEval = ValueNone
		}
	} else if skipMove != board.MoveEmpty {
		rawEval = ss.staticEval
	} else if ttHit && ttData.Eval != ValueNone {
		rawEval = w.correctedEval(pos, side, ttData.Eval)
	} else {
		rawEval = w.correctedEval(pos, side, w.pool.evaluator.Evaluate(pos))
	}
	ss.staticEval = rawEval
	var improving = !isCheck && ply >= 2 && rawEval > w.ss(ply-2).staticEval

	var eval = rawEval
	if ttHit && !isDecisive(ttData.Value) {
		if (ttData.Value > eval && ttData.Bound&tt.BoundLower != 0) ||
			(ttData.Value < eval && ttData.Bound&tt.BoundUpper != 0) {
			eval = ttData.Value
		}
	}

	if !rootNode && skipMove == board.MoveEmpty && !isCheck {
		// Razoring (spec.md §4.3 step 8): the position looks lost enough
		// that even a quiescence verification at a shifted window is worth
		// trusting outright.
		if depth <= 6 && eval < alpha-Value(1373+252*depth*depth) {
			var v = w.quiescence(ply, alpha-1, alpha)
			if v < alpha && !isDecisive(v) {
				return v
			}
		}

		// Reverse futility pruning (spec.md §4.3 step 9).
		if depth < 16 && !ss.ttPv {
			var noTtCutNode = cutNode && !ttHit
			var mult = 140 - 33*boolInt(noTtCutNode)
			var opponentWorsening = rawEval+w.ss(ply-1).staticEval > 2
			var margin = Value(mult*depth) -
				2*Value(boolInt(improving))*Value(mult) -
				Value(boolInt(opponentWorsening))*Value(mult)/3
			var equalityBonus Value
			if rawEval == eval {
				equalityBonus = Value(40 - absInt(w.correctionValue(pos, side))/131072)
			}
			if eval-margin-Value(w.ss(ply-1).statScore)/159+equalityBonus >= beta && eval >= beta &&
				(ttData.Move == board.MoveEmpty || ttData.Move.IsCapture()) && !isLoss(beta) && !isWin(eval) {
				return beta + (eval-beta)/3
			}
		}

		if rawEval >= beta+113 {
			improving = true
		}

		// Null-move pruning with verification (spec.md §4.3 step 10).
		if depth >= 2 &&
			pos.LastMove != board.MoveEmpty && pos.LastMove != board.MoveNull &&
			beta < MateInMaxPly && eval >= beta &&
			pos.MajorMaterial(side) > 0 && ply >= w.nmpMinPly {
			var reduction = minInt(int(eval-beta)/254, 5) + depth/3 + 5
			ss.currentMove = board.MoveNull
			w.doMove(ply, board.MoveNull)
			var score = -w.negamax(ply+1, depth-reduction, -beta, -beta+1, !cutNode)
			w.undoBookkeeping()
			if score >= beta && !isWin(score) {
				if depth >= 15 || w.nmpMinPly == 0 {
					var savedMinPly = w.nmpMinPly
					w.nmpMinPly = ply + 3*(depth-reduction)/4
					var verify = w.negamax(ply, depth-reduction, beta-1, beta, false)
					w.nmpMinPly = savedMinPly
					if verify >= beta {
						return score
					}
				} else {
					return score
				}
			}
		}
	}

	// Internal iterative reduction (spec.md §4.3 step 11): a PV node
	// without a TT move, or a cut-node deep enough that trusting move
	// ordering blind is risky, gets a shallower first pass so a later
	// re-search benefits from the TT move a shallow pass installs.
	if pvNode && ttData.Move == board.MoveEmpty {
		depth -= 2
	} else if cutNode && depth >= 7 && (ttData.Move == board.MoveEmpty || ttData.Bound == tt.BoundUpper) {
		depth -= 1
	}
	if depth <= 0 {
		return w.quiescence(ply, alpha, beta)
	}

	// ProbCut (spec.md §4.3 step 12): a cheap qsearch-then-reduced-search
	// probe that a tactical move already clears a raised beta by enough
	// margin to trust without a full search.
	if !pvNode && skipMove == board.MoveEmpty && depth > 4 && !isDecisive(beta) {
		var probCutBeta = beta + 234 - Value(66*boolInt(improving))
		var pcp = newProbCutPicker(pos, side, ttData.Move, int(probCutBeta-rawEval))
		for {
			var m = pcp.next()
			if m == board.MoveEmpty {
				break
			}
			if !w.doMove(ply, m) {
				continue
			}
			var v = -w.quiescence(ply+1, -probCutBeta, -probCutBeta+1)
			if v >= probCutBeta {
				v = -w.negamax(ply+1, depth-4, -probCutBeta, -probCutBeta+1, !cutNode)
			}
			w.undoBookkeeping()
			if v >= probCutBeta {
				ttWriter.Write(pos.Key, tt.ValueToTT(int(v), ply), int(rawEval), depth-3, tt.BoundLower, m, ss.ttPv)
				return v
			}
		}
	}

	var cont1 = w.continuationAt(ply, 1, side)
	var cont2 = w.continuationAt(ply, 2, side)
	var cont3 = w.continuationAt(ply, 3, side)
	var cont4 = w.continuationAt(ply, 4, side)
	var cont6 = w.continuationAt(ply, 6, side)

	var mp = newMovePicker(pos, side, w.history, ttData.Move, ss.killer1, ss.killer2, cont1, cont2, cont3, cont4, cont6)

	var best = -ValueInfinite
	var bestMove board.Move
	var oldAlpha = alpha
	var movesSearched = 0
	var hasLegalMove = false
	var quietsSeen = 0

	var quietsSearched = make([]board.Move, 0, 32)
	var capturesSearched = make([]board.Move, 0, 32)

	var lmp = 5 + (depth-1)*depth
	if !improving {
		lmp /= 2
	}

	for {
		var m = mp.next()
		if m == board.MoveEmpty {
			break
		}
		if m == skipMove {
			continue
		}
		if rootNode && !w.rootMoveAllowed(m) {
			continue
		}
		var isNoisy = m.IsCapture()
		if !isNoisy {
			quietsSeen++
		}

		if !rootNode && depth <= 8 && best > MatedInMaxPly && hasLegalMove && !isCheck {
			if !isNoisy && m != ss.killer1 && m != ss.killer2 && quietsSeen > lmp {
				continue
			}
			if !isNoisy && m != ss.killer1 && m != ss.killer2 &&
				eval+100+Value(pawnValueForPruning*depth) <= alpha {
				continue
			}
			var seeMargin int
			if isNoisy {
				seeMargin = maxInt(depth, int(eval+pawnValueForPruning-alpha)/pawnValueForPruning)
			} else {
				seeMargin = depth / 2
			}
			if !pos.SEEGE(m, -seeMargin) {
				continue
			}
		}

		// Singular extension (spec.md §4.3 step 13, "For each candidate").
		var extension int
		if !rootNode && depth >= 6 && m == ttData.Move && skipMove == board.MoveEmpty &&
			ttData.Depth >= depth-3 && ttData.Bound&tt.BoundLower != 0 && !isDecisive(ttData.Value) {
			var singularBeta = ttData.Value - Value((41+73*boolInt(ss.ttPv && !pvNode))*depth/76)
			var singularDepth = (depth - 1) / 2
			ss.excludedMove = m
			var v = w.negamax(ply, singularDepth, singularBeta-1, singularBeta, cutNode)
			ss.excludedMove = board.MoveEmpty
			if v < singularBeta {
				extension = 1
				var doubleMargin = 246*boolInt(pvNode) - 108*boolInt(!ttData.Move.IsCapture())
				var tripleMargin = 132 + 334*boolInt(pvNode) - 279*boolInt(!ttData.Move.IsCapture()) + 68*boolInt(ss.ttPv)
				if v < singularBeta-Value(doubleMargin) {
					extension++
					if v < singularBeta-Value(tripleMargin) {
						extension++
					}
				}
				if !pvNode && depth < 20 {
					depth++
				}
			} else if singularBeta >= beta && !isDecisive(singularBeta) {
				return singularBeta
			} else if ttData.Value >= beta {
				extension = -3
			} else if cutNode {
				extension = -2
			}
		}

		if !w.doMove(ply, m) {
			continue
		}
		hasLegalMove = true
		movesSearched++
		ss.moveCount = movesSearched

		var child = w.pos(ply + 1)
		if extension == 0 && depth >= 3 && len(child.Checkers()) > 0 {
			extension = 1
		}

		var statScoreVal int
		if isNoisy {
			statScoreVal = 7*pieceValueForPruning[m.CapturedPiece()] + w.history.Capture(side, m) - 5000
		} else {
			statScoreVal = 2*w.history.Main(side, m) + cont1.Read(side, m) + cont2.Read(side, m) - 4241
		}
		ss.statScore = statScoreVal

		if !isNoisy {
			quietsSearched = append(quietsSearched, m)
		} else {
			capturesSearched = append(capturesSearched, m)
		}

		var newDepth = depth - 1 + extension
		var score Value

		// Reduction (spec.md §4.3's LMR paragraph / original_source's
		// reduction()): a fixed-point (/1024) formula seeded by the
		// depth/moveCount lookup table and the current node's window width
		// against the root aspiration window's width, then adjusted by
		// ttPv/pvNode/correction/cutNode/ttCapture/cutoffCnt/ttMove terms.
		var ttCapture = ttData.Move != board.MoveEmpty && ttData.Move.IsCapture()
		var delta = int(beta - alpha)
		var scale = reductionTable(depth) * reductionTable(movesSearched)
		var r = scale - delta*1181/maxInt(1, int(w.rootDelta)) + boolInt(!improving)*scale/3 + 2199

		if ss.ttPv {
			r -= 1024 + boolInt(ttData.Value > alpha)*1024 + boolInt(ttData.Depth >= depth)*1024
		}
		if pvNode {
			r -= 1024
		}
		r += 330
		r -= absInt(w.correctionValue(pos, side)) / 32768
		if cutNode {
			r += 3179 - boolInt(ttData.Depth >= depth && ss.ttPv)*949
		}
		if ttCapture && !isNoisy {
			r += 1401 + boolInt(depth < 8)*1471
		}
		if w.ss(ply+1).cutoffCnt > 3 {
			r += 1332 + boolInt(allNode)*959
		} else if m == ttData.Move {
			r -= 2775
		}
		r -= statScoreVal * 2652 / 18912

		if depth >= 2 && movesSearched > 1 {
			var d = maxInt(1, minInt(newDepth-r/1024, newDepth+boolInt(!allNode)+boolInt(pvNode && bestMove == board.MoveEmpty)))
			score = -w.negamax(ply+1, d, -(alpha + 1), -alpha, true)
			if score > alpha && d < newDepth {
				var doDeeperSearch = score > best+58+2*Value(newDepth)
				var doShallowerSearch = score < best+8
				if doDeeperSearch {
					newDepth++
				} else if doShallowerSearch {
					newDepth--
				}
				if newDepth > d {
					score = -w.negamax(ply+1, newDepth, -(alpha + 1), -alpha, !cutNode)
				}
				var bonus = boolInt(score >= beta) * 2048
				w.updateContinuationHistories(ply, side, m, bonus, isCheck, cont1, cont2, cont3, cont4, cont6)
			}
		} else if !pvNode || movesSearched > 1 {
			if ttData.Move == board.MoveEmpty {
				r += 1744
			}
			score = -w.negamax(ply+1, newDepth-boolInt(r > 4047), -(alpha + 1), -alpha, !cutNode)
		}

		if pvNode && (movesSearched == 1 || score > alpha) {
			score = -w.negamax(ply+1, newDepth, -beta, -alpha, false)
		}

		w.undoBookkeeping()

		if score > best {
			best = score
			bestMove = m
			if score > alpha {
				alpha = score
				ss.pv.assign(m, &w.ss(ply+1).pv)
				if alpha >= beta {
					ss.cutoffCnt++
					break
				}
			}
		}
	}

	if !hasLegalMove {
		if skipMove != board.MoveEmpty {
			return alpha
		}
		return lossIn(ply)
	}

	if !pvNode && !isCheck {
		best = (best*Value(depth) + beta) / Value(depth+1)
	}

	if alpha > oldAlpha && bestMove != board.MoveEmpty && !bestMove.IsCapture() {
		w.history.UpdateQuiets(ply, side, quietsSearched, bestMove, depth, cont1, cont2, cont3, cont4, cont6)
		if bestMove != ss.killer1 {
			ss.killer2 = ss.killer1
			ss.killer1 = bestMove
		}
	}
	if alpha > oldAlpha && bestMove != board.MoveEmpty && bestMove.IsCapture() {
		w.history.UpdateCaptures(side, capturesSearched, bestMove, depth)
	}
	if bestMove == board.MoveEmpty && alpha <= oldAlpha && ply > 0 {
		var prev = w.ss(ply - 1)
		if prev.currentMove != board.MoveEmpty && !prev.currentMove.IsCapture() {
			var bonus = statBonus(depth) / 8
			w.continuationAt(ply, 1, side).UpdateMalus(side.Opposite(), prev.currentMove, bonus)
		}
	}

	if !isCheck && bestMove != board.MoveEmpty && !bestMove.IsCapture() {
		var bound = boundFor(best, oldAlpha, beta)
		var agrees = (best > rawEval && bound&tt.BoundLower != 0) || (best < rawEval && bound&tt.BoundUpper != 0)
		if agrees {
			var prevPiece, prevTo = lastMovePieceTo(pos)
			w.history.UpdateCorrection(side, int(pos.PawnKey()), int(pos.MajorKey()), int(pos.MinorKey()),
				int(pos.NonPawnKey(board.Red)), int(pos.NonPawnKey(board.Black)),
				int(best), int(rawEval), depth, prevPiece, prevTo)
		}
	}

	if skipMove == board.MoveEmpty {
		var bound = boundFor(best, oldAlpha, beta)
		if !(rootNode && bound == tt.BoundUpper) {
			ttWriter.Write(pos.Key, tt.ValueToTT(int(best), ply), int(rawEval), depth, bound, bestMove, ss.ttPv)
		}
	}

	return best
}

// rootMoveAllowed reports whether m may be tried at the root: it must both
// pass the UCI `searchmoves` whitelist (spec.md §4.6/§8) and not already
// have been claimed by an earlier, better-scoring MultiPV slot this
// iteration (spec.md §4.2 step 3's "skip already-searched MultiPV moves").
func (w *Worker) rootMoveAllowed(m board.Move) bool {
	if len(w.searchMoves) > 0 {
		var allowed = false
		for _, sm := range w.searchMoves {
			if sm == m {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	for _, claimed := range w.rootExcluded {
		if claimed == m {
			return false
		}
	}
	return true
}

// correctedEval applies the correction-history adjustment spec.md §4.3 step
// 14 describes on top of a raw static evaluation, using the structural
// sub-keys pkg/board exposes as the five bucket selectors plus the
// continuation-correction table keyed by the previous move.
func (w *Worker) correctedEval(pos *board.Position, side board.Side, raw Value) Value {
	var correction = w.correctionValue(pos, side)
	return clampValue(raw+Value(correction), MatedInMaxPly+1, MateInMaxPly-1)
}

// correctionValue exposes the raw correction-history magnitude on its own,
// independent of correctedEval's clamp-to-static-eval use, so the reverse
// futility pruning equality bonus (spec.md §4.3 step 9) can read the same
// value original_source/src/search.cpp's `correctionValue` local carries.
func (w *Worker) correctionValue(pos *board.Position, side board.Side) int {
	var prevPiece, prevTo = lastMovePieceTo(pos)
	return w.history.CorrectionValue(side,
		int(pos.PawnKey()), int(pos.MajorKey()), int(pos.MinorKey()),
		int(pos.NonPawnKey(board.Red)), int(pos.NonPawnKey(board.Black)),
		prevPiece, prevTo)
}

// quiescence resolves tactical noise at the search frontier: captures (and,
// while in check, every evasion) until a quiet position is reached, guarded
// by a stand-pat cutoff. Grounded on pkg/engine/search.go's quiescence.
func (w *Worker) quiescence(ply int, alpha, beta Value) Value {
	var ss = w.ss(ply)
	ss.pv.clear()

	if ply >= MaxPly-1 {
		return w.pool.evaluator.Evaluate(w.pos(ply))
	}
	if w.isDraw(ply) {
		return ValueDraw
	}

	var pos = w.pos(ply)
	var side = pos.SideToMove()
	var isCheck = len(pos.Checkers()) > 0
	ss.inCheck = isCheck

	var hit, data, writer = w.pool.tt.Probe(pos.Key)
	ss.ttPv = hit && data.IsPv
	var ttValue Value
	if hit {
		ttValue = Value(tt.ValueFromTT(data.Value, ply, pos.Rule60Count()))
		if !isDecisive(ttValue) {
			if (ttValue >= beta && data.Bound&tt.BoundLower != 0) ||
				(ttValue <= alpha && data.Bound&tt.BoundUpper != 0) ||
				data.Bound == tt.BoundExact {
				return ttValue
			}
		} else if (ttValue >= beta && data.Bound&tt.BoundLower != 0) ||
			(ttValue <= alpha && data.Bound&tt.BoundUpper != 0) {
			return ttValue
		}
	}

	var best Value
	var futilityBase Value
	if isCheck {
		best = -ValueInfinite
	} else {
		var raw Value
		if hit && data.Eval != int(ValueNone) {
			raw = Value(data.Eval)
		} else {
			raw = w.pool.evaluator.Evaluate(pos)
		}
		best = w.correctedEval(pos, side, raw)
		if hit && !isDecisive(ttValue) {
			if (ttValue > best && data.Bound&tt.BoundLower != 0) ||
				(ttValue < best && data.Bound&tt.BoundUpper != 0) {
				best = ttValue
			}
		}
		if best >= beta {
			return best
		}
		if best > alpha {
			alpha = best
		}
		futilityBase = best + 100
	}

	var bestMove board.Move
	var qp = newQuiescencePicker(pos)
	for {
		var m = qp.next()
		if m == board.MoveEmpty {
			break
		}
		if !isCheck && m.IsCapture() && !pos.SEEGE(m, 0) {
			continue
		}
		if !isCheck && m.IsCapture() && futilityBase <= alpha && !pos.SEEGE(m, 1) {
			continue
		}
		if !w.doMove(ply, m) {
			continue
		}
		var score = -w.quiescence(ply+1, -beta, -alpha)
		if score > best {
			best = score
			bestMove = m
			if score > alpha {
				alpha = score
				ss.pv.assign(m, &w.ss(ply+1).pv)
				if alpha >= beta {
					break
				}
			}
		}
	}

	if isCheck && bestMove == board.MoveEmpty {
		return lossIn(ply)
	}

	var bound tt.Bound = tt.BoundUpper
	if best >= beta {
		bound = tt.BoundLower
	}
	var storedEval = int(ValueNone)
	if !isCheck {
		storedEval = int(best)
	}
	writer.Write(pos.Key, tt.ValueToTT(int(best), ply), storedEval, 0, bound, bestMove, ss.ttPv)
	return best
}

// lastMovePieceTo reports the (piece, destination) of the move that led to
// pos, or (PieceNone, SquareNone) at the root or right after a null move —
// Move's packed bit layout doesn't represent MoveNull's -1 sentinel as a
// valid piece/square pair, so it must be special-cased rather than decoded.
func lastMovePieceTo(pos *board.Position) (board.PieceType, board.Square) {
	if pos.LastMove == board.MoveEmpty || pos.LastMove == board.MoveNull {
		return board.PieceNone, board.SquareNone
	}
	return pos.LastMove.MovingPiece(), pos.LastMove.To()
}

// undoBookkeeping exists so the move loop reads clearly as "make, search,
// undo" even though pkg/board's copy-on-DoMove design means there's no
// mutable state to roll back; kept as a named seam in case a future
// incremental evaluator needs an unmake hook.
func (w *Worker) undoBookkeeping() {}

// updateContinuationHistories applies the post-LMR fail-high bonus (spec.md
// §4.3's LMR paragraph) across the look-behind continuation tables at
// offsets 1/2/3/4/6, weighted the way original_source/src/search.cpp's
// update_continuation_histories scales each table, and stopping after
// offset 2 when the side to move is in check the same way the original
// skips the deeper tables it hasn't populated meaningfully from in-check
// plies.
func (w *Worker) updateContinuationHistories(ply int, side board.Side, m board.Move, bonus int, inCheck bool,
	cont1, cont2, cont3, cont4, cont6 *history.ContinuationTable) {
	cont1.UpdateBonus(side, m, bonus)
	cont2.UpdateBonus(side, m, bonus*571/1024)
	if inCheck {
		return
	}
	cont3.UpdateBonus(side, m, bonus*339/1024)
	cont4.UpdateBonus(side, m, bonus*500/1024)
	cont6.UpdateBonus(side, m, bonus*592/1024)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var reductionCache [MaxPly + 1]int

func init() {
	for i := 1; i <= MaxPly; i++ {
		reductionCache[i] = int(14.6 * logApprox(float64(i)))
	}
}

func reductionTable(i int) int {
	if i <= 0 {
		return 0
	}
	if i > MaxPly {
		i = MaxPly
	}
	return reductionCache[i]
}

func logApprox(x float64) float64 {
	return math.Log(x)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boundFor(best, alpha, beta Value) tt.Bound {
	var bound tt.Bound
	if best > alpha {
		bound |= tt.BoundLower
	}
	if best < beta {
		bound |= tt.BoundUpper
	}
	return bound
}

// statBonus/statMalus are Stockfish's stat_bonus/stat_malus: depth-linear
// bonuses/maluses clamped to a fixed ceiling, referenced by spec.md §4.3
// steps 14-15.
func statBonus(depth int) int {
	var b = 158*depth - 87
	if b > 2168 {
		return 2168
	}
	if b < 0 {
		return 0
	}
	return b
}

func statMalus(depth int) int {
	var b = 977*depth - 282
	if b > 1524 {
		return 1524
	}
	if b < 0 {
		return 0
	}
	return b
}
