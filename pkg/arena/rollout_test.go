package arena

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/yourusername/stackengine/pkg/engine"
)

// finishingPosition lets white complete a stack on (4,4) at once
func finishingPosition() *engine.Position {
	p := engine.NewPosition(8)
	p.Place(engine.Tile{Row: 3, Col: 3}, engine.White, engine.White, engine.White, engine.White)
	p.Place(engine.Tile{Row: 4, Col: 4}, engine.Black, engine.Black, engine.Black, engine.Black)
	p.Place(engine.Tile{Row: 7, Col: 7}, engine.Black)
	p.Place(engine.Tile{Row: 7, Col: 5}, engine.Black)
	return p
}

func TestRollout(t *testing.T) {
	var progress atomic.Int32
	opts := RolloutOptions{
		Trials:   6,
		Epsilon:  0.3,
		MaxPlies: 40,
		Workers:  2,
		Seed:     11,
		Progress: func(p RolloutProgress) {
			progress.Add(1)
			if p.TrialsTotal != 6 || p.Percent <= 0 || p.Percent > 100 {
				t.Errorf("bad progress %+v", p)
			}
		},
	}
	state := &engine.GameState{Position: engine.StartingPosition(8), Turn: engine.White}

	res, err := Rollout(context.Background(), state, opts)
	if err != nil {
		t.Fatalf("Rollout failed: %v", err)
	}
	if res.Trials != 6 || res.Wins+res.Losses+res.Draws != 6 {
		t.Errorf("outcomes do not add up: %+v", res)
	}
	if res.WinProb < 0 || res.WinProb > 1 || res.WinProbCI < 0 {
		t.Errorf("WinProb = %v ± %v", res.WinProb, res.WinProbCI)
	}
	if res.MeanPlies <= 0 || res.MeanPlies > 40 {
		t.Errorf("MeanPlies = %v", res.MeanPlies)
	}
	if int(progress.Load()) != 6 {
		t.Errorf("Expected 6 progress calls, got %d", progress.Load())
	}
	if !state.Position.Equal(engine.StartingPosition(8)) {
		t.Error("Rollout modified the position")
	}
}

func TestRolloutWinningMove(t *testing.T) {
	state := &engine.GameState{Position: finishingPosition(), Turn: engine.White, Points: [2]int{1, 0}}

	res, err := Rollout(context.Background(), state, RolloutOptions{Trials: 4, Workers: 2})
	if err != nil {
		t.Fatalf("Rollout failed: %v", err)
	}
	if res.Wins != 4 || res.WinProb != 1 || res.WinProbStdDev != 0 {
		t.Errorf("got %+v, want four wins", res)
	}
	if res.MeanPlies != 1 || res.MeanMargin != 2 {
		t.Errorf("MeanPlies = %v, MeanMargin = %v", res.MeanPlies, res.MeanMargin)
	}
}

func TestRolloutFinishedGame(t *testing.T) {
	state := &engine.GameState{Position: finishingPosition(), Turn: engine.White, Points: [2]int{0, 2}}

	res, err := Rollout(context.Background(), state, RolloutOptions{Trials: 3})
	if err != nil {
		t.Fatalf("Rollout failed: %v", err)
	}
	if res.Losses != 3 || res.WinProb != 0 || res.MeanPlies != 0 {
		t.Errorf("got %+v, want three losses", res)
	}
	if res.Turn != engine.White {
		t.Errorf("Turn = %v", res.Turn)
	}
}

func TestRolloutDeterministicWithSeed(t *testing.T) {
	opts := RolloutOptions{Trials: 5, Epsilon: 0.5, MaxPlies: 30, Workers: 3, Seed: 99}
	state := &engine.GameState{Position: engine.StartingPosition(8), Turn: engine.Black}

	a, err := Rollout(context.Background(), state, opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Rollout(context.Background(), state, opts)
	if err != nil {
		t.Fatal(err)
	}
	if a.Wins != b.Wins || a.Losses != b.Losses || a.MeanPlies != b.MeanPlies || a.MeanMargin != b.MeanMargin {
		t.Errorf("seeded rollouts differ: %+v vs %+v", a, b)
	}
}

func TestRolloutSingleTrial(t *testing.T) {
	state := &engine.GameState{Position: engine.StartingPosition(8), Turn: engine.White}
	res, err := Rollout(context.Background(), state, RolloutOptions{Trials: 1, MaxPlies: 4, Workers: 1})
	if err != nil {
		t.Fatalf("Rollout failed: %v", err)
	}
	if res.Trials != 1 || res.Wins+res.Losses+res.Draws != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRolloutErrors(t *testing.T) {
	ctx := context.Background()
	start := &engine.GameState{Position: engine.StartingPosition(8), Turn: engine.White}

	if _, err := Rollout(ctx, start, RolloutOptions{Epsilon: 1.5}); err == nil {
		t.Error("expected an error for epsilon above 1")
	}
	if _, err := Rollout(ctx, &engine.GameState{Turn: engine.White}, RolloutOptions{}); !errors.Is(err, engine.ErrNilPosition) {
		t.Errorf("err = %v, want ErrNilPosition", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Rollout(cancelled, start, RolloutOptions{Trials: 4}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAggregate(t *testing.T) {
	res := aggregate(engine.Black, []playout{
		{score: 1, margin: 2, plies: 10},
		{score: 0, margin: -1, plies: 20},
		{score: 0.5, margin: 0, plies: 30, capped: true},
		{score: 1, margin: 1, plies: 40},
	})
	if res.Wins != 2 || res.Losses != 1 || res.Draws != 1 || res.Capped != 1 {
		t.Errorf("counts = %+v", res)
	}
	if math.Abs(res.WinProb-0.625) > 1e-9 || math.Abs(res.MeanMargin-0.5) > 1e-9 || res.MeanPlies != 25 {
		t.Errorf("means = %v %v %v", res.WinProb, res.MeanMargin, res.MeanPlies)
	}
	if res.WinProbCI <= 0 {
		t.Errorf("WinProbCI = %v", res.WinProbCI)
	}
	if empty := aggregate(engine.White, nil); empty.Trials != 0 || empty.WinProb != 0 {
		t.Errorf("empty = %+v", empty)
	}
}
