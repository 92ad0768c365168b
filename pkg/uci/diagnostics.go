package uci

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/eval"
	"github.com/ChizhovVadim/CounterGo/pkg/search"
	"github.com/ChizhovVadim/CounterGo/pkg/timeman"
)

// evalCommand prints the static evaluator's opinion of the current
// position, from the side-to-move's point of view, for troubleshooting
// pkg/eval without running a search.
func (d *Driver) evalCommand() error {
	if len(d.positions) == 0 {
		return errors.New("no position set")
	}
	var e = eval.NewEvaluator()
	var pos = d.positions[len(d.positions)-1]
	fmt.Printf("eval %v\n", e.Evaluate(&pos))
	return nil
}

// flipCommand mirrors the current position across both the file and side
// axes (Red becomes Black and vice versa), a standard UCI debugging aid for
// checking that an evaluator and move generator agree the position is
// symmetric.
func (d *Driver) flipCommand() error {
	if len(d.positions) == 0 {
		return errors.New("no position set")
	}
	var flipped board.Position
	var src = &d.positions[len(d.positions)-1]
	for sq := 0; sq < board.NumCells; sq++ {
		var piece = src.Board[sq]
		if piece.IsEmpty() {
			continue
		}
		var mirrored = board.Square(sq).Flip()
		flipped.Board[mirrored] = board.MakePiece(piece.Side().Opposite(), piece.Type())
	}
	flipped.RedMove = !src.RedMove
	d.positions = []board.Position{flipped}
	fmt.Println(flipped.FEN())
	return nil
}

// benchPositions plays a short, fixed sequence of opening moves from the
// initial position so bench exercises more than one search tree, without
// depending on hand-typed FEN strings that would bypass parseMoveLAN/DoMove.
func benchPositions() []board.Position {
	var openings = [][]string{
		{},
		{"h2e2", "h9g7"},
		{"h2e2", "h9g7", "b2d2", "b9c7"},
	}
	var result []board.Position
	for _, moves := range openings {
		var pos, ok = board.NewPositionFromFEN(board.InitialFEN)
		if !ok {
			continue
		}
		for _, s := range moves {
			var m, ok = parseMoveLAN(&pos, s)
			if !ok {
				break
			}
			var next board.Position
			if !pos.DoMove(m, &next) {
				break
			}
			pos = next
		}
		result = append(result, pos)
	}
	return result
}

// benchCommand runs a fixed-depth search over benchPositions on a fresh
// table, the way Stockfish-derived engines use `bench` as a reproducible
// smoke test and a hashfull/nps sanity check, not a strength benchmark.
func (d *Driver) benchCommand() error {
	const benchDepth = 8
	d.buildPool()

	var start = time.Now()
	var totalNodes int64
	var hashfullSamples []int

	for _, pos := range benchPositions() {
		var p = pos
		var lastNodes int64
		d.pool.Search(context.Background(), &p, 1, search.Limits{Depth: benchDepth},
			timeman.Options{MoveOverhead: d.moveOverhead}, timeman.GameState{TimeAdjust: -1, AvailableNodes: -1}, func(info search.Info) {
				lastNodes = info.Nodes
			})
		totalNodes += lastNodes
		hashfullSamples = append(hashfullSamples, d.pool.Hashfull())
	}

	var elapsed = time.Since(start)
	var nps int64
	if elapsed > 0 {
		nps = totalNodes * int64(time.Second) / int64(elapsed)
	}

	var minFull, maxFull, sumFull = hashfullSamples[0], hashfullSamples[0], 0
	for _, h := range hashfullSamples {
		if h < minFull {
			minFull = h
		}
		if h > maxFull {
			maxFull = h
		}
		sumFull += h
	}
	var avgFull = sumFull / len(hashfullSamples)

	fmt.Printf("Total time (ms) : %v\n", elapsed.Milliseconds())
	fmt.Printf("Nodes searched  : %v\n", totalNodes)
	fmt.Printf("Nodes/second    : %v\n", nps)
	fmt.Printf("Hashfull (min/avg/max) : %v/%v/%v\n", minFull, avgFull, maxFull)
	return nil
}

// computeWDL turns a centipawn-ish score into a rough win/draw/loss
// per-mille triple for UCI_ShowWDL. Xiangqi has no published, trained WDL
// model the way Stockfish derives one from self-play statistics, so this
// uses a plain logistic win/loss curve plus a bell-shaped draw band
// centered on cp=0, normalized to sum to 1000.
func computeWDL(cp search.Value) (win, draw, loss int) {
	if cp >= search.MateInMaxPly {
		return 1000, 0, 0
	}
	if cp <= search.MatedInMaxPly {
		return 0, 0, 1000
	}
	var x = float64(cp)
	var w = 1.0 / (1.0 + math.Exp(-x/220))
	var l = 1.0 / (1.0 + math.Exp(x/220))
	var d = math.Exp(-(x * x) / (2 * 260 * 260))
	var total = w + l + d
	win = int(math.Round(1000 * w / total))
	loss = int(math.Round(1000 * l / total))
	draw = 1000 - win - loss
	return
}
