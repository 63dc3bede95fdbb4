package engine

import (
	"fmt"
	"sort"
	"time"
)

// ScoredMove is a legal move with the search value of the position it leads to
type ScoredMove struct {
	Move
	Score    int  // From White's point of view
	Decisive bool // Completes a stack that decides the game
}

// AnalysisResult holds every legal move of a position, ranked for the side to move.
type AnalysisResult struct {
	Turn     Color
	Moves    []ScoredMove // Best first; ties keep generation order
	Depth    int
	Nodes    int64
	TimeUsed time.Duration
}

// NumMoves returns the number of legal moves
func (a *AnalysisResult) NumMoves() int {
	return len(a.Moves)
}

// Best returns the top ranked move, false when the side to move must skip
func (a *AnalysisResult) Best() (ScoredMove, bool) {
	if len(a.Moves) == 0 {
		return ScoredMove{}, false
	}
	return a.Moves[0], true
}

// Find returns the scored entry of m
func (a *AnalysisResult) Find(m Move) (ScoredMove, bool) {
	for _, sm := range a.Moves {
		if sm.Move == m {
			return sm, true
		}
	}
	return ScoredMove{}, false
}

// Loss returns how much worse sm is than the best move, from the mover's point of view
func (a *AnalysisResult) Loss(sm ScoredMove) int {
	best, ok := a.Best()
	if !ok {
		return 0
	}
	return a.Turn.Sign() * (best.Score - sm.Score)
}

// AnalyzePosition scores every legal move at the configured depth.
func (e *Engine) AnalyzePosition(s *GameState) (*AnalysisResult, error) {
	return e.AnalyzePositionDepth(s, e.depth)
}

// AnalyzePositionDepth scores every legal move of the side to move with a full-window
// search of depth-1 plies below it. The first ranked move is the move BestMoveDepth
// returns at the same depth, with the same score.
func (e *Engine) AnalyzePositionDepth(s *GameState, depth int) (*AnalysisResult, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, fmt.Errorf("engine: analysis depth %d must be at least 1", depth)
	}

	start := time.Now()
	pos := s.Position.Clone()
	sc := s.SearchContext()
	res := &AnalysisResult{Turn: s.Turn, Depth: depth}

	for _, c := range GenerateCandidates(pos, s.Turn, sc) {
		sm := ScoredMove{Move: c.Move, Decisive: c.Decisive}
		undo := pos.Apply(c.Move)
		if c.Decisive {
			sm.Score = e.evaluate(pos)
			res.Nodes++
		} else {
			sub := search(pos, s.Turn.Opponent(), depth-1, sc, e.evaluate)
			sm.Score = sub.Score
			res.Nodes += sub.Nodes
		}
		undo.Revert()
		res.Moves = append(res.Moves, sm)
	}

	sign := s.Turn.Sign()
	sort.SliceStable(res.Moves, func(i, j int) bool {
		return sign*res.Moves[i].Score > sign*res.Moves[j].Score
	})
	res.TimeUsed = time.Since(start)
	return res, nil
}

// RankMoves returns the n best moves (all of them when n <= 0).
func (e *Engine) RankMoves(s *GameState, n int) ([]ScoredMove, error) {
	res, err := e.AnalyzePosition(s)
	if err != nil {
		return nil, err
	}
	if n > 0 && n < len(res.Moves) {
		return res.Moves[:n], nil
	}
	return res.Moves, nil
}
