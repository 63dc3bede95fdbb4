package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// DefaultDepth is the search depth used when none is configured
const DefaultDepth = 3

var (
	ErrNilPosition  = errors.New("engine: nil position")
	ErrInvalidColor = errors.New("engine: invalid color")
	ErrInvalidScore = errors.New("engine: invalid points")
)

// Engine picks moves and scores positions
type Engine struct {
	depth int

	// Evaluation cache
	cache *EvalCache
}

// EngineOptions configures the engine
type EngineOptions struct {
	Depth     int // Search depth in plies (0 = DefaultDepth)
	CacheSize int // Evaluation cache size (0 = default, negative = disabled)
}

// DefaultEngineOptions returns the options used by the command-line tools
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Depth:     DefaultDepth,
		CacheSize: DefaultCacheSize,
	}
}

// GameState is everything the engine needs to choose a move
type GameState struct {
	Position               *Position
	Turn                   Color  // Side to move
	Points                 [2]int // Points scored so far, indexed by Color
	MaxPoints              int    // Completable stacks (0 = derive from the board size)
	LastScoringOpportunity bool   // Only one more stack can be completed
}

// Validate checks the state for caller errors
func (s *GameState) Validate() error {
	if s == nil || s.Position == nil {
		return ErrNilPosition
	}
	if !s.Turn.Valid() {
		return fmt.Errorf("%w: turn %d", ErrInvalidColor, s.Turn)
	}
	if s.MaxPoints < 0 {
		return fmt.Errorf("%w: max points %d", ErrInvalidScore, s.MaxPoints)
	}
	for c, pts := range s.Points {
		if pts < 0 {
			return fmt.Errorf("%w: %v has %d", ErrInvalidScore, Color(c), pts)
		}
	}
	return nil
}

// SearchContext returns the scoring facts for a search from s
func (s *GameState) SearchContext() SearchContext {
	maxPoints := s.MaxPoints
	if maxPoints == 0 {
		maxPoints = MaxPoints(s.Position.Size())
	}
	return SearchContext{
		MaxPoints:              maxPoints,
		Points:                 s.Points,
		LastScoringOpportunity: s.LastScoringOpportunity,
	}
}

// NewEngine creates a new engine with the given options
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Depth < 0 {
		return nil, fmt.Errorf("engine: negative depth %d", opts.Depth)
	}
	e := &Engine{depth: opts.Depth}
	if e.depth == 0 {
		e.depth = DefaultDepth
	}

	cacheSize := opts.CacheSize
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}
	if cacheSize > 0 {
		e.cache = NewEvalCache(uint32(cacheSize))
	}
	return e, nil
}

// Depth returns the configured search depth
func (e *Engine) Depth() int {
	return e.depth
}

// Cache returns the evaluation cache, or nil when caching is disabled
func (e *Engine) Cache() *EvalCache {
	return e.cache
}

// Evaluate scores a position from White's point of view
func (e *Engine) Evaluate(p *Position) (int, error) {
	if p == nil {
		return 0, ErrNilPosition
	}
	return e.evaluate(p), nil
}

func (e *Engine) evaluate(p *Position) int {
	if e.cache == nil {
		return Evaluate(p)
	}
	key := p.Key()
	if score, ok := e.cache.Lookup(key); ok {
		return score
	}
	score := Evaluate(p)
	e.cache.Add(key, score)
	return score
}

// BestMove searches the state at the configured depth.
// The caller's position is not modified. A nil BestMove in the result means the side to
// move has no legal move and must skip its turn.
func (e *Engine) BestMove(s *GameState) (SearchResult, error) {
	return e.BestMoveDepth(s, e.depth)
}

// BestMoveDepth searches the state at an explicit depth
func (e *Engine) BestMoveDepth(s *GameState, depth int) (SearchResult, error) {
	if err := s.Validate(); err != nil {
		return SearchResult{}, err
	}
	if depth < 0 {
		return SearchResult{}, fmt.Errorf("engine: negative depth %d", depth)
	}

	log.Debug().
		Str("turn", s.Turn.String()).
		Int("depth", depth).
		Int("size", s.Position.Size()).
		Msg("searching")

	// Work on a copy so concurrent callers can share positions
	pos := s.Position.Clone()
	res := search(pos, s.Turn, depth, s.SearchContext(), e.evaluate)

	ev := log.Debug().
		Int("score", res.Score).
		Int64("nodes", res.Nodes).
		Dur("elapsed", res.TimeUsed)
	if res.BestMove != nil {
		ev = ev.Str("move", res.BestMove.String())
	} else {
		ev = ev.Bool("skip", true)
	}
	ev.Msg("search-complete")

	return res, nil
}
