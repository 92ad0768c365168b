// Package uci implements the UCI-style ProtocolDriver spec.md §4.6 and §6
// describe: a line-oriented command loop translating GUI commands into
// pkg/search.Pool calls and search progress back into `info`/`bestmove`
// output. Grounded on pkg/uci/protocol.go's Protocol (command dispatch,
// options, positions-plus-moves state) and cli.go's scanner loop, extended
// with ponderhit, perft, MultiPV and WDL passthrough per spec.md.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ChizhovVadim/CounterGo/pkg/board"
	"github.com/ChizhovVadim/CounterGo/pkg/eval"
	"github.com/ChizhovVadim/CounterGo/pkg/search"
	"github.com/ChizhovVadim/CounterGo/pkg/timeman"
	"github.com/ChizhovVadim/CounterGo/pkg/tt"
)

// Driver owns the pool and the position-plus-move-history state a UCI
// session accumulates between `position` and `go` commands.
type Driver struct {
	name    string
	author  string
	version string
	options []Option

	threads      int
	hashMB       int
	moveOverhead int
	multiPV      int
	aspiration   bool
	showWDL      bool
	ponder       bool
	nodesTime    int

	pool  *search.Pool
	table *tt.Table

	positions  []board.Position
	gameState  timeman.GameState
	thinking   bool
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New builds a driver with CounterGo-style default option values, wired to
// pkg/eval and pkg/tt the way the teacher's cmd/counter/main.go wires its
// own evaluator and transposition table.
func New(name, author, version string) *Driver {
	var d = &Driver{
		name:         name,
		author:       author,
		version:      version,
		threads:      1,
		hashMB:       64,
		moveOverhead: 30,
		multiPV:      1,
		aspiration:   true,
	}
	d.options = []Option{
		&IntOption{Name: "Threads", Min: 1, Max: 128, Value: &d.threads},
		&IntOption{Name: "Hash", Min: 1, Max: 65536, Value: &d.hashMB},
		&IntOption{Name: "Move Overhead", Min: 0, Max: 5000, Value: &d.moveOverhead},
		&IntOption{Name: "MultiPV", Min: 1, Max: 32, Value: &d.multiPV},
		&BoolOption{Name: "AspirationWindows", Value: &d.aspiration},
		&BoolOption{Name: "UCI_ShowWDL", Value: &d.showWDL},
		&BoolOption{Name: "Ponder", Value: &d.ponder},
		&IntOption{Name: "nodestime", Min: 0, Max: 10000, Value: &d.nodesTime},
	}
	d.resetGame()
	return d
}

func (d *Driver) resetGame() {
	var p, ok = board.NewPositionFromFEN(board.InitialFEN)
	if !ok {
		panic("invalid initial FEN")
	}
	d.positions = []board.Position{p}
	d.gameState = timeman.GameState{TimeAdjust: -1, AvailableNodes: -1}
}

func (d *Driver) buildPool() {
	d.table = tt.New(d.hashMB)
	var options = search.Options{
		Threads:           d.threads,
		AspirationWindows: d.aspiration,
		MultiPV:           d.multiPV,
	}
	d.pool = search.NewPool(options, eval.NewEvaluator(), d.table)
}

// Run drives the read-eval loop against stdin, matching cli.go's scanner
// shape but folded into the Driver itself rather than a separate handler
// interface, since this driver owns the goroutine that streams search info.
func (d *Driver) Run(logger *log.Logger) {
	d.buildPool()
	var commands = make(chan string)
	go func() {
		defer close(commands)
		var scanner = bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 1<<20), 1<<20)
		for scanner.Scan() {
			var line = scanner.Text()
			if line == "quit" {
				return
			}
			if line != "" {
				commands <- line
			}
		}
	}()
	for line := range commands {
		if err := d.handle(line); err != nil {
			logger.Println(err)
		}
	}
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Driver) handle(line string) error {
	var fields = strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	var name, args = fields[0], fields[1:]

	if d.thinking {
		switch name {
		case "stop":
			d.pool.Stop()
			return nil
		case "ponderhit":
			if mgr := d.pool.TimeManager(); mgr != nil {
				mgr.OnPonderhit(time.Now())
			}
			return nil
		default:
			return errors.New("search still running")
		}
	}

	switch name {
	case "uci":
		return d.uciCommand()
	case "isready":
		fmt.Println("readyok")
		return nil
	case "setoption":
		return d.setOptionCommand(args)
	case "ucinewgame":
		if d.pool != nil {
			d.buildPool()
		}
		d.resetGame()
		return nil
	case "position":
		return d.positionCommand(args)
	case "go":
		return d.goCommand(args)
	case "perft":
		return d.perftCommand(args)
	case "d":
		return d.displayCommand()
	case "eval":
		return d.evalCommand()
	case "flip":
		return d.flipCommand()
	case "bench":
		return d.benchCommand()
	}
	return errors.New("command not found: " + name)
}

func (d *Driver) uciCommand() error {
	fmt.Printf("id name %s %s\n", d.name, d.version)
	fmt.Printf("id author %s\n", d.author)
	for _, opt := range d.options {
		fmt.Println(opt.UciString())
	}
	fmt.Println("uciok")
	return nil
}

func (d *Driver) setOptionCommand(fields []string) error {
	var nameIdx = indexOf(fields, "name")
	var valueIdx = indexOf(fields, "value")
	if nameIdx == -1 {
		return errors.New("invalid setoption arguments")
	}
	var end = len(fields)
	if valueIdx != -1 {
		end = valueIdx
	}
	var optName = strings.Join(fields[nameIdx+1:end], " ")
	var optValue string
	if valueIdx != -1 {
		optValue = strings.Join(fields[valueIdx+1:], " ")
	}
	for _, opt := range d.options {
		if strings.EqualFold(opt.UciName(), optName) {
			return opt.Set(optValue)
		}
	}
	return errors.New("unhandled option: " + optName)
}

func (d *Driver) positionCommand(args []string) error {
	if len(args) == 0 {
		return errors.New("missing position arguments")
	}
	var movesIdx = indexOf(args, "moves")
	var fen string
	switch args[0] {
	case "startpos":
		fen = board.InitialFEN
	case "fen":
		if movesIdx == -1 {
			fen = strings.Join(args[1:], " ")
		} else {
			fen = strings.Join(args[1:movesIdx], " ")
		}
	default:
		return errors.New("unknown position command")
	}
	var p, ok = board.NewPositionFromFEN(fen)
	if !ok {
		return errors.New("invalid fen")
	}
	var positions = []board.Position{p}
	if movesIdx >= 0 {
		for _, s := range args[movesIdx+1:] {
			var m, ok = parseMoveLAN(&positions[len(positions)-1], s)
			if !ok {
				d.positions = positions
				return errors.New("illegal move in position command: " + s)
			}
			var next board.Position
			if !positions[len(positions)-1].DoMove(m, &next) {
				d.positions = positions
				return errors.New("illegal move in position command: " + s)
			}
			positions = append(positions, next)
		}
	}
	d.positions = positions
	return nil
}

func (d *Driver) goCommand(args []string) error {
	if len(d.positions) == 0 {
		return errors.New("no position set")
	}
	var limits, perftDepth, searchMoveTokens = parseGoArgs(args)
	if perftDepth > 0 {
		return d.perftDepth(perftDepth)
	}

	var root = d.positions[len(d.positions)-1]
	if len(searchMoveTokens) > 0 {
		for _, s := range searchMoveTokens {
			var m, ok = parseMoveLAN(&root, s)
			if !ok {
				return errors.New("illegal move in searchmoves: " + s)
			}
			limits.SearchMoves = append(limits.SearchMoves, m)
		}
	}
	limits.NodesTime = d.nodesTime

	var history = make([]uint64, 0, len(d.positions))
	for _, p := range d.positions[:len(d.positions)-1] {
		history = append(history, p.Key)
	}
	d.pool.SetGameHistory(history)

	var ctx, cancel = context.WithCancel(context.Background())
	d.cancel = cancel
	d.thinking = true
	d.searchDone = make(chan struct{})

	go func() {
		defer close(d.searchDone)
		var best, game = d.pool.Search(ctx, &root, len(d.positions), limits,
			timeman.Options{MoveOverhead: d.moveOverhead}, d.gameState, func(info search.Info) {
				fmt.Println(d.formatInfo(info))
			})
		d.gameState = game
		d.thinking = false
		d.cancel = nil
		if best.Move != board.MoveEmpty {
			fmt.Printf("bestmove %v\n", best.Move.String())
		} else {
			fmt.Println("bestmove 0000")
		}
	}()
	return nil
}

func (d *Driver) perftCommand(args []string) error {
	var depth = 1
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}
	return d.perftDepth(depth)
}

func (d *Driver) perftDepth(depth int) error {
	if len(d.positions) == 0 {
		return errors.New("no position set")
	}
	var root = d.positions[len(d.positions)-1]
	var total = perft(&root, depth)
	fmt.Printf("perft %v nodes %v\n", depth, total)
	return nil
}

func perft(pos *board.Position, depth int) int64 {
	if depth == 0 {
		return 1
	}
	var moves = pos.GenerateLegalMoves()
	if depth == 1 {
		return int64(len(moves))
	}
	var total int64
	for _, m := range moves {
		var child board.Position
		if pos.DoMove(m, &child) {
			total += perft(&child, depth-1)
		}
	}
	return total
}

func (d *Driver) displayCommand() error {
	if len(d.positions) == 0 {
		return errors.New("no position set")
	}
	fmt.Println(d.positions[len(d.positions)-1].FEN())
	return nil
}

func (d *Driver) formatInfo(info search.Info) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %v seldepth %v", info.Depth, info.SelDepth)
	if d.multiPV > 1 {
		fmt.Fprintf(&sb, " multipv %v", info.MultiPVIndex+1)
	}
	if info.Score >= search.MateInMaxPly {
		fmt.Fprintf(&sb, " score mate %v", (search.ValueMate-info.Score+1)/2)
	} else if info.Score <= search.MatedInMaxPly {
		fmt.Fprintf(&sb, " score mate %v", -(search.ValueMate+info.Score)/2)
	} else {
		fmt.Fprintf(&sb, " score cp %v", info.Score)
	}
	if info.Lowerbound {
		sb.WriteString(" lowerbound")
	}
	if info.Upperbound {
		sb.WriteString(" upperbound")
	}
	if d.showWDL {
		var w, dr, l = computeWDL(info.Score)
		fmt.Fprintf(&sb, " wdl %v %v %v", w, dr, l)
	}
	fmt.Fprintf(&sb, " nodes %v", info.Nodes)
	if len(info.PV) != 0 {
		sb.WriteString(" pv")
		for _, m := range info.PV {
			sb.WriteString(" ")
			sb.WriteString(m.String())
		}
	}
	return sb.String()
}

// parseGoArgs parses every field of a UCI `go` command except `searchmoves`,
// whose move strings are returned raw (searchMoveTokens) since resolving
// them against the current position needs the root position parseGoArgs
// doesn't have access to; the caller (goCommand) does that resolution.
// `searchmoves` is UCI's own terminal argument (spec.md §4.6/§8): once seen,
// every remaining token is a move, not another keyword.
func parseGoArgs(args []string) (limits search.Limits, perftDepth int, searchMoveTokens []string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			limits.Ponder = true
		case "wtime":
			limits.Time[board.Red], i = readInt(args, i)
		case "btime":
			limits.Time[board.Black], i = readInt(args, i)
		case "winc":
			limits.Increment[board.Red], i = readInt(args, i)
		case "binc":
			limits.Increment[board.Black], i = readInt(args, i)
		case "movestogo":
			limits.MovesToGo, i = readInt(args, i)
		case "depth":
			limits.Depth, i = readInt(args, i)
		case "nodes":
			var n int
			n, i = readInt(args, i)
			limits.Nodes = int64(n)
		case "mate":
			limits.Mate, i = readInt(args, i)
		case "movetime":
			limits.MoveTime, i = readInt(args, i)
		case "infinite":
			limits.Infinite = true
		case "perft":
			perftDepth, i = readInt(args, i)
		case "searchmoves":
			searchMoveTokens = args[i+1:]
			i = len(args)
		}
	}
	return
}

func readInt(args []string, i int) (int, int) {
	if i+1 >= len(args) {
		return 0, i
	}
	var v, _ = strconv.Atoi(args[i+1])
	return v, i + 1
}

func indexOf(args []string, value string) int {
	for i, v := range args {
		if v == value {
			return i
		}
	}
	return -1
}

// parseMoveLAN resolves a coordinate move string (e.g. "h2e2") against the
// position's legal move list; Xiangqi has no promotions, so no trailing
// piece letter is expected the way chess LAN carries one.
func parseMoveLAN(pos *board.Position, s string) (board.Move, bool) {
	if len(s) < 4 {
		return board.MoveEmpty, false
	}
	var from = board.ParseSquare(s[0:2])
	var to = board.ParseSquare(s[2:4])
	for _, m := range pos.GenerateLegalMoves() {
		if m.From() == from && m.To() == to {
			return m, true
		}
	}
	return board.MoveEmpty, false
}
