// Package game runs complete games: it applies moves permanently, scores completed
// stacks and decides when a side must skip its turn and when the game is over.
package game

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/stackengine/pkg/engine"
)

var (
	ErrGameOver        = errors.New("game: game is over")
	ErrIllegalMove     = errors.New("game: illegal move")
	ErrUnsupportedSize = errors.New("game: unsupported board size")
)

// BoardSizes lists the supported board sizes
var BoardSizes = []int{8, 10, 16}

// Record is one entry of the game history
type Record struct {
	Player  engine.Color
	Move    *engine.Move // nil when Player had no legal move
	Scorer  engine.Color // color credited with a completed stack, NoColor if none
	Skipped engine.Color // side that lost its next turn, NoColor if none
}

// Session is a game in progress
type Session struct {
	start     *engine.Position
	first     engine.Color
	pos       *engine.Position
	turn      engine.Color
	points    [2]int
	maxPoints int
	over      bool
	winner    engine.Color
	history   []Record
}

// NewSession starts a game on the standard opening position
func NewSession(size int, first engine.Color) (*Session, error) {
	if !SupportedSize(size) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSize, size)
	}
	return NewSessionFrom(engine.StartingPosition(size), first)
}

// NewSessionFrom starts a game from an arbitrary position with no points scored
func NewSessionFrom(pos *engine.Position, first engine.Color) (*Session, error) {
	if pos == nil {
		return nil, engine.ErrNilPosition
	}
	if !first.Valid() {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidColor, first)
	}
	s := &Session{
		start:     pos.Clone(),
		first:     first,
		pos:       pos.Clone(),
		turn:      first,
		maxPoints: engine.MaxPoints(pos.Size()),
		winner:    engine.NoColor,
	}
	if !engine.HasLegalMove(s.pos, s.turn) {
		s.advance(s.turn.Opponent())
	}
	return s, nil
}

// Resume continues a game from an engine snapshot, keeping its points. The game
// is over at once when the snapshot already holds a winner.
func Resume(state *engine.GameState) (*Session, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		start:     state.Position.Clone(),
		first:     state.Turn,
		pos:       state.Position.Clone(),
		turn:      state.Turn,
		points:    state.Points,
		maxPoints: state.MaxPoints,
		winner:    engine.NoColor,
	}
	if s.maxPoints == 0 {
		s.maxPoints = engine.MaxPoints(s.pos.Size())
	}
	if s.points[engine.White]+s.points[engine.Black] > s.maxPoints {
		return nil, fmt.Errorf("%w: %d points scored, %d possible", engine.ErrInvalidScore,
			s.points[engine.White]+s.points[engine.Black], s.maxPoints)
	}
	if s.checkWinner() {
		return s, nil
	}
	if !engine.HasLegalMove(s.pos, s.turn) {
		s.advance(s.turn.Opponent())
	}
	return s, nil
}

// SupportedSize reports whether size is one of BoardSizes
func SupportedSize(size int) bool {
	for _, n := range BoardSizes {
		if n == size {
			return true
		}
	}
	return false
}

// Position returns the current board. It must not be modified.
func (s *Session) Position() *engine.Position { return s.pos }

// Turn returns the side to move
func (s *Session) Turn() engine.Color { return s.turn }

// Points returns the points of color c
func (s *Session) Points(c engine.Color) int { return s.points[c] }

// MaxPoints returns the number of stacks that can be completed in this game
func (s *Session) MaxPoints() int { return s.maxPoints }

// WinningPoints returns the points needed to win outright
func (s *Session) WinningPoints() int { return s.maxPoints/2 + 1 }

// RemainingStacks returns how many stacks can still be completed
func (s *Session) RemainingStacks() int {
	return s.maxPoints - s.points[engine.White] - s.points[engine.Black]
}

// LastScoringOpportunity reports whether only one stack is left to complete
func (s *Session) LastScoringOpportunity() bool {
	return s.RemainingStacks() == 1
}

// Over reports whether the game has ended
func (s *Session) Over() bool { return s.over }

// Winner returns the winning color, or NoColor while the game runs or after a draw
func (s *Session) Winner() engine.Color { return s.winner }

// History returns the moves played so far
func (s *Session) History() []Record { return s.history }

// Start returns the position the game started from. It must not be modified.
func (s *Session) Start() *engine.Position { return s.start }

// First returns the side that was asked to move first
func (s *Session) First() engine.Color { return s.first }

// State returns a snapshot for the engine
func (s *Session) State() *engine.GameState {
	return &engine.GameState{
		Position:               s.pos.Clone(),
		Turn:                   s.turn,
		Points:                 s.points,
		MaxPoints:              s.maxPoints,
		LastScoringOpportunity: s.LastScoringOpportunity(),
	}
}

// Play applies a move for the side to move
func (s *Session) Play(m engine.Move) (Record, error) {
	if s.over {
		return Record{}, ErrGameOver
	}
	if !engine.IsLegal(s.pos, s.turn, m) {
		return Record{}, fmt.Errorf("%w: %v for %v", ErrIllegalMove, m, s.turn)
	}

	rec := Record{Player: s.turn, Move: &m, Scorer: engine.NoColor, Skipped: engine.NoColor}
	s.pos.MoveStack(m.From, m.Level, m.To)

	if s.pos.Height(m.To) == engine.MaxStackHeight {
		top, _ := s.pos.Top(m.To)
		s.points[top.Color]++
		s.pos.Clear(m.To)
		rec.Scorer = top.Color

		log.Debug().
			Str("tile", m.To.String()).
			Str("scorer", top.Color.String()).
			Int("white", s.points[engine.White]).
			Int("black", s.points[engine.Black]).
			Msg("stack-completed")
	}

	if s.checkWinner() {
		s.history = append(s.history, rec)
		return rec, nil
	}
	rec.Skipped = s.advance(s.turn.Opponent())
	s.history = append(s.history, rec)
	return rec, nil
}

// Pass records a skipped turn. It is only allowed when the side to move has no
// legal move.
func (s *Session) Pass() (Record, error) {
	if s.over {
		return Record{}, ErrGameOver
	}
	if engine.HasLegalMove(s.pos, s.turn) {
		return Record{}, fmt.Errorf("%w: %v must move", ErrIllegalMove, s.turn)
	}
	rec := Record{Player: s.turn, Scorer: engine.NoColor, Skipped: engine.NoColor}
	rec.Skipped = s.advance(s.turn.Opponent())
	s.history = append(s.history, rec)
	return rec, nil
}

// PlayEngine asks e for the side to move and plays its choice
func (s *Session) PlayEngine(e *engine.Engine) (Record, engine.SearchResult, error) {
	if s.over {
		return Record{}, engine.SearchResult{}, ErrGameOver
	}
	res, err := e.BestMove(s.State())
	if err != nil {
		return Record{}, res, err
	}
	if res.BestMove == nil {
		rec, err := s.Pass()
		return rec, res, err
	}
	rec, err := s.Play(*res.BestMove)
	return rec, res, err
}

// advance hands the turn to next. If next cannot move the turn goes back to the
// other side and next is returned as skipped; if neither side can move the game ends.
func (s *Session) advance(next engine.Color) engine.Color {
	if engine.HasLegalMove(s.pos, next) {
		s.turn = next
		return engine.NoColor
	}
	other := next.Opponent()
	if engine.HasLegalMove(s.pos, other) {
		s.turn = other
		log.Debug().Str("player", next.String()).Msg("turn-skipped")
		return next
	}
	s.finish()
	return engine.NoColor
}

// checkWinner ends the game when a side reached the winning points or no stack is
// left to complete
func (s *Session) checkWinner() bool {
	win := s.WinningPoints()
	if s.points[engine.White] >= win || s.points[engine.Black] >= win || s.RemainingStacks() <= 0 {
		s.finish()
		return true
	}
	return false
}

// finish ends the game; the side with more points wins
func (s *Session) finish() {
	s.over = true
	switch {
	case s.points[engine.White] > s.points[engine.Black]:
		s.winner = engine.White
	case s.points[engine.Black] > s.points[engine.White]:
		s.winner = engine.Black
	default:
		s.winner = engine.NoColor
	}
	log.Debug().
		Str("winner", s.winner.String()).
		Int("white", s.points[engine.White]).
		Int("black", s.points[engine.Black]).
		Msg("game-over")
}
