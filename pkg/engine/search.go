package engine

import (
	"math"
	"time"
)

// SearchContext carries the game-session facts the search needs to recognize a
// decisive stack completion. It is read-only during a search.
type SearchContext struct {
	MaxPoints              int    // Total stacks that can be completed on this board
	Points                 [2]int // Points already scored, indexed by Color
	LastScoringOpportunity bool   // Only one more stack can be completed in the game
}

// decisive reports whether m completes an 8-stack that decides the game: either it is
// the last stack that can be scored, or the scoring color sits one point below the
// majority threshold MaxPoints/2.
//
// The search never clears completed stacks or credits points, so Points stay fixed for
// the whole tree.
func (sc SearchContext) decisive(p *Position, m Move) bool {
	if ResultHeight(p, m) != MaxStackHeight {
		return false
	}
	if sc.LastScoringOpportunity {
		return true
	}
	src := p.Stack(m.From)
	scorer := src[len(src)-1].Color
	return sc.Points[scorer] == sc.MaxPoints/2-1
}

// SearchResult is the outcome of a search
type SearchResult struct {
	BestMove *Move         // nil when the side to move has no legal move (skip turn)
	Score    int           // Heuristic value (positive: White is better)
	Depth    int           // Search depth in plies
	Nodes    int64         // Nodes visited
	TimeUsed time.Duration // Wall-clock search time
}

// searcher holds the state of one synchronous search over a shared position
type searcher struct {
	pos   *Position
	sc    SearchContext
	eval  func(*Position) int
	nodes int64
}

// Search runs a fixed-depth alpha-beta search for turn and returns the best move.
// The position is mutated while searching and restored before Search returns.
func Search(p *Position, turn Color, depth int, sc SearchContext) SearchResult {
	return search(p, turn, depth, sc, Evaluate)
}

func search(p *Position, turn Color, depth int, sc SearchContext, eval func(*Position) int) SearchResult {
	if depth < 0 {
		depth = 0
	}
	start := time.Now()
	s := &searcher{pos: p, sc: sc, eval: eval}

	score, move, ok := s.alphaBeta(depth, turn == White, math.MinInt, math.MaxInt, false)

	res := SearchResult{
		Score:    score,
		Depth:    depth,
		Nodes:    s.nodes,
		TimeUsed: time.Since(start),
	}
	if ok {
		res.BestMove = &move
	}
	return res
}

// alphaBeta returns the minimax value of the position with the side given by
// maximizing to move (White maximizes), plus the best move when one exists.
//
// passed is set when the previous node was a forced pass at this same depth; if the
// side to move also has nothing to play the position is evaluated directly.
func (s *searcher) alphaBeta(depth int, maximizing bool, alpha, beta int, passed bool) (int, Move, bool) {
	s.nodes++

	if depth == 0 {
		return s.eval(s.pos), Move{}, false
	}

	turn := Black
	if maximizing {
		turn = White
	}
	cands := GenerateCandidates(s.pos, turn, s.sc)

	if len(cands) == 0 {
		if passed {
			return s.eval(s.pos), Move{}, false
		}
		value, _, _ := s.alphaBeta(depth, !maximizing, alpha, beta, true)
		return value, Move{}, false
	}

	var best Move
	if maximizing {
		bestValue := math.MinInt
		for _, c := range cands {
			value := s.child(c, depth, maximizing, alpha, beta)
			if value > bestValue {
				bestValue = value
				best = c.Move
			}
			alpha = max(alpha, bestValue)
			if beta <= alpha {
				break
			}
		}
		return bestValue, best, true
	}

	bestValue := math.MaxInt
	for _, c := range cands {
		value := s.child(c, depth, maximizing, alpha, beta)
		if value < bestValue {
			bestValue = value
			best = c.Move
		}
		beta = min(beta, bestValue)
		if beta <= alpha {
			break
		}
	}
	return bestValue, best, true
}

// child plays c, scores the resulting position and takes the move back
func (s *searcher) child(c Candidate, depth int, maximizing bool, alpha, beta int) int {
	undo := s.pos.Apply(c.Move)
	defer undo.Revert()

	if c.Decisive {
		s.nodes++
		return s.eval(s.pos)
	}
	value, _, _ := s.alphaBeta(depth-1, !maximizing, alpha, beta, false)
	return value
}
