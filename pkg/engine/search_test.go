package engine

import (
	"math"
	"testing"
)

// minimax is a plain full-width search with the same pass and decisive-move rules as
// the alpha-beta search. It works on a fresh clone for every child.
func minimax(p *Position, depth int, maximizing bool, passed bool, sc SearchContext) (int, *Move) {
	if depth == 0 {
		return Evaluate(p), nil
	}
	turn := Black
	if maximizing {
		turn = White
	}
	cands := GenerateCandidates(p, turn, sc)
	if len(cands) == 0 {
		if passed {
			return Evaluate(p), nil
		}
		v, _ := minimax(p, depth, !maximizing, true, sc)
		return v, nil
	}

	best := math.MinInt
	if !maximizing {
		best = math.MaxInt
	}
	var bestMove *Move
	for _, c := range cands {
		q := p.Clone()
		q.MoveStack(c.From, c.Level, c.To)
		var v int
		if c.Decisive {
			v = Evaluate(q)
		} else {
			v, _ = minimax(q, depth-1, !maximizing, false, sc)
		}
		if (maximizing && v > best) || (!maximizing && v < best) {
			best = v
			m := c.Move
			bestMove = &m
		}
	}
	return best, bestMove
}

// playOpening plays the first legal move for each side a few times
func playOpening(size, plies int) *Position {
	p := StartingPosition(size)
	turn := White
	for i := 0; i < plies; i++ {
		moves := GenerateMoves(p, turn)
		if len(moves) == 0 {
			break
		}
		m := moves[(i*7)%len(moves)]
		p.MoveStack(m.From, m.Level, m.To)
		turn = turn.Opponent()
	}
	return p
}

func TestSearchDepthZero(t *testing.T) {
	p := StartingPosition(8)
	res := Search(p, White, 0, SearchContext{MaxPoints: 3})
	if res.BestMove != nil {
		t.Errorf("Expected no move at depth 0, got %v", res.BestMove)
	}
	if res.Score != Evaluate(p) {
		t.Errorf("Expected static score %d, got %d", Evaluate(p), res.Score)
	}
}

func TestSearchMatchesMinimax(t *testing.T) {
	positions := []*Position{
		StartingPosition(8),
		playOpening(8, 6),
		playOpening(8, 15),
		playOpening(10, 10),
	}
	sc := SearchContext{MaxPoints: 3}

	for i, p := range positions {
		for depth := 1; depth <= 3; depth++ {
			if p.Size() > 8 && depth > 2 {
				continue
			}
			for _, turn := range []Color{White, Black} {
				wantScore, wantMove := minimax(p.Clone(), depth, turn == White, false, sc)
				res := Search(p, turn, depth, sc)

				if res.Score != wantScore {
					t.Errorf("pos %d depth %d %v: score %d, minimax %d", i, depth, turn, res.Score, wantScore)
				}
				if (res.BestMove == nil) != (wantMove == nil) {
					t.Errorf("pos %d depth %d %v: move %v, minimax %v", i, depth, turn, res.BestMove, wantMove)
					continue
				}
				if res.BestMove != nil && *res.BestMove != *wantMove {
					t.Errorf("pos %d depth %d %v: move %v, minimax %v", i, depth, turn, *res.BestMove, *wantMove)
				}
			}
		}
	}
}

func TestSearchRestoresPosition(t *testing.T) {
	p := playOpening(8, 8)
	orig := p.Clone()

	res := Search(p, Black, 3, SearchContext{MaxPoints: 3})
	if res.BestMove == nil {
		t.Fatal("Expected a move")
	}
	if !p.Equal(orig) {
		t.Error("Search left the position modified")
	}
	if res.Nodes == 0 {
		t.Error("Expected node count")
	}
}

func TestSearchMutualPass(t *testing.T) {
	p := buildPosition(8, map[Tile][]Color{{Row: 0, Col: 0}: {White}})

	res := Search(p, White, 3, SearchContext{MaxPoints: 3})
	if res.BestMove != nil {
		t.Errorf("Expected skip, got %v", res.BestMove)
	}
	if res.Score != 1 {
		t.Errorf("Expected static score 1, got %d", res.Score)
	}
}

func TestSearchPassToOpponent(t *testing.T) {
	// Black has no tokens; white still moves at the same depth
	p := buildPosition(8, map[Tile][]Color{
		{Row: 3, Col: 3}: {White},
		{Row: 5, Col: 5}: {White},
	})
	sc := SearchContext{MaxPoints: 3}

	res := Search(p, Black, 2, sc)
	if res.BestMove != nil {
		t.Errorf("Expected black to skip, got %v", res.BestMove)
	}
	want, _ := minimax(p.Clone(), 2, false, false, sc)
	if res.Score != want {
		t.Errorf("Expected %d, got %d", want, res.Score)
	}
	white := Search(p, White, 2, sc)
	if res.Score != white.Score {
		t.Errorf("Skipping should search white at the same depth: %d vs %d", res.Score, white.Score)
	}
}

func TestSearchTakesDecisiveStack(t *testing.T) {
	from, to := Tile{Row: 3, Col: 3}, Tile{Row: 4, Col: 4}
	p := buildPosition(8, map[Tile][]Color{
		from: repeat(White, 4),
		to:   {Black, Black, Black, White},
	})
	sc := SearchContext{MaxPoints: 3, LastScoringOpportunity: true}

	res := Search(p, White, 3, sc)
	want := Move{From: from, Level: 1, To: to}
	if res.BestMove == nil || *res.BestMove != want {
		t.Fatalf("Expected %v, got %v", want, res.BestMove)
	}

	after := p.Clone()
	after.MoveStack(from, 1, to)
	if res.Score != Evaluate(after) {
		t.Errorf("Expected the static score of the completed stack %d, got %d", Evaluate(after), res.Score)
	}
}

func TestSearchDecisiveDoesNotRecurse(t *testing.T) {
	from, to := Tile{Row: 3, Col: 3}, Tile{Row: 4, Col: 4}
	// White's only move completes the stack; black still has moves elsewhere
	p := buildPosition(8, map[Tile][]Color{
		from:             {White, Black, Black, Black},
		to:               repeat(Black, 4),
		{Row: 7, Col: 7}: {Black},
		{Row: 7, Col: 5}: {Black},
	})

	after := p.Clone()
	after.MoveStack(from, 1, to)
	want := Move{From: from, Level: 1, To: to}

	tests := []struct {
		name string
		sc   SearchContext
	}{
		{"last opportunity", SearchContext{MaxPoints: 3, LastScoringOpportunity: true}},
		// MaxPoints/2 - 1 = 0: the completion is the scorer's deciding point
		{"one below majority", SearchContext{MaxPoints: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			counting := func(q *Position) int {
				calls++
				return Evaluate(q)
			}

			res := search(p, White, 3, tt.sc, counting)
			if res.BestMove == nil || *res.BestMove != want {
				t.Fatalf("Expected %v, got %v", want, res.BestMove)
			}
			if calls != 1 {
				t.Errorf("Expected the completed stack to be evaluated once, got %d", calls)
			}
			if res.Score != Evaluate(after) {
				t.Errorf("Expected %d, got %d", Evaluate(after), res.Score)
			}
		})
	}
}
