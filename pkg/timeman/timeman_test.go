package timeman

import (
	"context"
	"testing"
	"time"
)

func TestSuddenDeathBudgetInvariants(t *testing.T) {
	var limits = Limits{
		Time:      [2]int{60000, 60000},
		Increment: [2]int{1000, 1000},
	}
	var options = Options{MoveOverhead: 30}

	ctx, tm := NewManager(context.Background(), time.Now(), limits, options, 0, 10, GameState{TimeAdjust: -1, AvailableNodes: -1})
	defer tm.Close()
	_ = ctx

	if tm.Maximum() < tm.Optimum() {
		t.Errorf("maximum %v should be >= optimum %v", tm.Maximum(), tm.Optimum())
	}
	var hardCeiling = time.Duration(0.81*float64(limits.Time[0])-float64(options.MoveOverhead)-10) * time.Millisecond
	if tm.Maximum() > hardCeiling {
		t.Errorf("maximum %v exceeds the 0.81*time-overhead-10 ceiling %v", tm.Maximum(), hardCeiling)
	}
}

func TestFixedMovesToGoBudget(t *testing.T) {
	var limits = Limits{
		Time:      [2]int{30000, 30000},
		MovesToGo: 20,
	}
	_, tm := NewManager(context.Background(), time.Now(), limits, Options{MoveOverhead: 10}, 0, 5, GameState{TimeAdjust: -1, AvailableNodes: -1})
	defer tm.Close()
	if tm.Optimum() <= 0 {
		t.Error("expected a positive optimum budget")
	}
	if tm.Maximum() < tm.Optimum() {
		t.Error("maximum should never be less than optimum")
	}
}

func TestDoneRequiresACompletedIteration(t *testing.T) {
	var limits = Limits{MoveTime: 100}
	_, tm := NewManager(context.Background(), time.Now(), limits, Options{}, 0, 0, GameState{TimeAdjust: -1, AvailableNodes: -1})
	defer tm.Close()
	if tm.Done(0, time.Second, 0) {
		t.Error("Done should never fire before completedDepth reaches 1")
	}
	if !tm.Done(1, time.Second, 0) {
		t.Error("Done should fire once movetime has elapsed and a depth completed")
	}
}

func TestDoneRespectsFixedDepth(t *testing.T) {
	var limits = Limits{Depth: 6}
	_, tm := NewManager(context.Background(), time.Now(), limits, Options{}, 0, 0, GameState{TimeAdjust: -1, AvailableNodes: -1})
	defer tm.Close()
	if tm.Done(5, 0, 0) {
		t.Error("Done should not fire before the requested depth completes")
	}
	if !tm.Done(6, 0, 0) {
		t.Error("Done should fire once the requested depth has completed")
	}
}

func TestDoneSuppressedWhilePondering(t *testing.T) {
	var limits = Limits{MoveTime: 100, Ponder: true}
	_, tm := NewManager(context.Background(), time.Now(), limits, Options{}, 0, 0, GameState{TimeAdjust: -1, AvailableNodes: -1})
	defer tm.Close()
	if tm.Done(1, time.Second, 0) {
		t.Error("a go-ponder search should never stop on movetime before ponderhit")
	}
	tm.OnPonderhit(time.Now())
	if !tm.Done(1, time.Second, 0) {
		t.Error("Done should resume honoring movetime once OnPonderhit fires")
	}
}

func TestNodesTimeBudgetPersistsAcrossGameState(t *testing.T) {
	var limits = Limits{Time: [2]int{1000, 1000}, NodesTime: 100}
	_, tm := NewManager(context.Background(), time.Now(), limits, Options{}, 0, 0, GameState{TimeAdjust: -1, AvailableNodes: -1})
	tm.AdvanceNodesTime(50000)
	var carried = tm.GameState()
	tm.Close()
	if carried.AvailableNodes <= 0 {
		t.Fatal("expected a positive nodes-as-time budget to carry into the next move")
	}

	_, tm2 := NewManager(context.Background(), time.Now(), limits, Options{}, 0, 1, carried)
	defer tm2.Close()
	if tm2.GameState().AvailableNodes != carried.AvailableNodes {
		t.Errorf("NewManager should seed availableNodes from GameState, got %v want %v",
			tm2.GameState().AvailableNodes, carried.AvailableNodes)
	}
}
