package engine

import (
	"testing"
)

func TestEvaluateSingleToken(t *testing.T) {
	p := buildPosition(8, map[Tile][]Color{{Row: 0, Col: 0}: {White}})
	if got := Evaluate(p); got != 1 {
		t.Errorf("Expected +1 for a lone white token, got %d", got)
	}

	p = buildPosition(8, map[Tile][]Color{{Row: 0, Col: 0}: {Black}})
	if got := Evaluate(p); got != -1 {
		t.Errorf("Expected -1 for a lone black token, got %d", got)
	}
}

func TestEvaluateEmptyBoard(t *testing.T) {
	if got := Evaluate(NewPosition(8)); got != 0 {
		t.Errorf("Expected 0 for an empty board, got %d", got)
	}
}

func TestEvaluateCenter(t *testing.T) {
	p := buildPosition(8, map[Tile][]Color{{Row: 3, Col: 3}: {White}})
	ev := EvaluateDetailed(p)
	if ev.Center != 2 {
		t.Errorf("Expected center bonus 2, got %d", ev.Center)
	}
	if ev.Score != 3 {
		t.Errorf("Expected score 3, got %d", ev.Score)
	}

	// Row 6 is outside [2,6)
	p = buildPosition(8, map[Tile][]Color{{Row: 6, Col: 2}: {White}})
	if ev := EvaluateDetailed(p); ev.Center != 0 {
		t.Errorf("Expected no center bonus on (6,2), got %d", ev.Center)
	}
}

func TestEvaluateCompletedStack(t *testing.T) {
	colors := []Color{Black, White, Black, White, Black, White, Black, White}
	p := buildPosition(8, map[Tile][]Color{{Row: 0, Col: 0}: colors})

	ev := EvaluateDetailed(p)
	if ev.Completed != 100 {
		t.Errorf("Expected completed bonus 100, got %d", ev.Completed)
	}
	if ev.Height != 14 {
		t.Errorf("Expected height term 14, got %d", ev.Height)
	}
	if ev.Material != 0 {
		t.Errorf("Expected balanced material, got %d", ev.Material)
	}
	if ev.Score != 114 {
		t.Errorf("Expected score 114, got %d", ev.Score)
	}
}

func TestEvaluateMobility(t *testing.T) {
	p := buildPosition(8, map[Tile][]Color{
		{Row: 1, Col: 3}: {White},
		{Row: 5, Col: 3}: {Black},
	})

	// Each isolated stack sees the other straight ahead and gets two destinations
	ev := EvaluateDetailed(p)
	if ev.Mobility != 0 {
		t.Errorf("Expected mobility to cancel out, got %d", ev.Mobility)
	}

	p.Place(Tile{Row: 5, Col: 3}, White)
	ev = EvaluateDetailed(p)
	if ev.Mobility != 8 {
		t.Errorf("Expected white mobility 8, got %d", ev.Mobility)
	}
	if ev.Height != 2 {
		t.Errorf("Expected height term 2, got %d", ev.Height)
	}
}

func TestEvaluateAntisymmetric(t *testing.T) {
	positions := []*Position{
		StartingPosition(8),
		StartingPosition(10),
		buildPosition(8, map[Tile][]Color{
			{Row: 3, Col: 3}: {White, Black, White},
			{Row: 4, Col: 4}: {Black},
			{Row: 7, Col: 7}: repeat(Black, 8),
		}),
	}

	for i, p := range positions {
		q := swapColors(p)
		if a, b := Evaluate(p), Evaluate(q); a != -b {
			t.Errorf("Position %d: %d vs swapped %d", i, a, b)
		}
	}
}

// swapColors returns the position with every token's color flipped
func swapColors(p *Position) *Position {
	b := p.Board()
	for _, stack := range b.Stacks {
		for i := range stack {
			stack[i] ^= 1
		}
	}
	q, err := PositionFromBoard(b)
	if err != nil {
		panic(err)
	}
	return q
}
