// Package match records played games and rates their moves with the engine.
package match

import (
	"errors"
	"fmt"

	"github.com/yourusername/stackengine/pkg/engine"
	"github.com/yourusername/stackengine/pkg/game"
)

// ErrMismatch is returned when a replayed game disagrees with its record
var ErrMismatch = errors.New("match: record does not match replay")

// Match is a set of recorded games.
type Match struct {
	// Match metadata
	Event   string  // Event name
	Date    string  // Match date (YYYY-MM-DD format)
	Size    int     // Board size
	Comment string  // General match comments
	Games   []*Game // List of games in the match
}

// Game is a single recorded game.
type Game struct {
	Number   int           // Game number (1-indexed)
	White    string        // Name of the white player
	Black    string        // Name of the black player
	Start    string        // Position ID of the starting position
	First    engine.Color  // Side asked to move first
	Records  []game.Record // Plies in order
	Points   [2]int        // Final points [white, black]
	Winner   engine.Color  // NoColor for a draw or an unfinished game
	Finished bool          // False if the game was stopped early
}

// NewMatch creates a new empty match.
func NewMatch(event string, size int) *Match {
	return &Match{
		Event: event,
		Size:  size,
		Games: make([]*Game, 0),
	}
}

// NewGame creates a new game starting from pos.
func NewGame(number int, pos *engine.Position, first engine.Color) *Game {
	return &Game{
		Number:  number,
		Start:   pos.ID(),
		First:   first,
		Records: make([]game.Record, 0),
		Winner:  engine.NoColor,
	}
}

// FromSession records a session played so far.
func FromSession(number int, s *game.Session, white, black string) *Game {
	g := NewGame(number, s.Start(), s.First())
	g.White = white
	g.Black = black
	g.Records = append(g.Records, s.History()...)
	g.Points = [2]int{s.Points(engine.White), s.Points(engine.Black)}
	g.Finished = s.Over()
	if g.Finished {
		g.Winner = s.Winner()
	}
	return g
}

// AddGame appends g, numbering it after the existing games.
func (m *Match) AddGame(g *Game) {
	g.Number = len(m.Games) + 1
	m.Games = append(m.Games, g)
}

// AddMove adds a move to the game.
func (g *Game) AddMove(player engine.Color, move engine.Move) {
	mv := move
	g.Records = append(g.Records, game.Record{
		Player:  player,
		Move:    &mv,
		Scorer:  engine.NoColor,
		Skipped: engine.NoColor,
	})
}

// AddPass adds a pass to the game.
func (g *Game) AddPass(player engine.Color) {
	g.Records = append(g.Records, game.Record{
		Player:  player,
		Scorer:  engine.NoColor,
		Skipped: engine.NoColor,
	})
}

// Replay plays the recorded plies through a new session, checking that every ply
// is legal for the recorded side and that scoring, skips and the result agree with
// the record.
func (g *Game) Replay() (*game.Session, error) {
	start, err := engine.ParsePosition(g.Start)
	if err != nil {
		return nil, fmt.Errorf("game %d: start position: %w", g.Number, err)
	}
	s, err := game.NewSessionFrom(start, g.First)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", g.Number, err)
	}

	for i, rec := range g.Records {
		if s.Turn() != rec.Player {
			return s, fmt.Errorf("%w: game %d ply %d: %v to move, record has %v",
				ErrMismatch, g.Number, i+1, s.Turn(), rec.Player)
		}
		var got game.Record
		if rec.Move == nil {
			got, err = s.Pass()
		} else {
			got, err = s.Play(*rec.Move)
		}
		if err != nil {
			return s, fmt.Errorf("game %d ply %d: %w", g.Number, i+1, err)
		}
		if got.Scorer != rec.Scorer || got.Skipped != rec.Skipped {
			return s, fmt.Errorf("%w: game %d ply %d", ErrMismatch, g.Number, i+1)
		}
	}

	if g.Finished {
		points := [2]int{s.Points(engine.White), s.Points(engine.Black)}
		if !s.Over() || points != g.Points || s.Winner() != g.Winner {
			return s, fmt.Errorf("%w: game %d result", ErrMismatch, g.Number)
		}
	}
	return s, nil
}
