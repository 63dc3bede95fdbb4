package match

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/stackengine/pkg/engine"
	"github.com/yourusername/stackengine/pkg/game"
)

// PlyAnalysis rates one recorded move.
type PlyAnalysis struct {
	Ply      int              `json:"ply"` // 1-based
	Player   engine.Color     `json:"player"`
	Position string           `json:"position"` // Position ID before the move
	Played   engine.Move      `json:"played"`
	Best     engine.Move      `json:"best"`
	Loss     int              `json:"loss"`
	Skill    engine.SkillType `json:"skill"`
	Forced   bool             `json:"forced"`
}

// PlayerAnalysis sums the ratings of one player.
type PlayerAnalysis struct {
	Name        string            `json:"name"`
	Moves       int               `json:"moves"` // Unforced moves
	TotalLoss   int               `json:"total_loss"`
	LossPerMove float64           `json:"loss_per_move"`
	Rating      engine.RatingType `json:"rating"`
	Blunders    int               `json:"blunders"` // Very bad
	Errors      int               `json:"errors"`   // Bad
	Doubtful    int               `json:"doubtful"`
}

func (p *PlayerAnalysis) add(pa PlyAnalysis) {
	if pa.Forced {
		return
	}
	p.Moves++
	p.TotalLoss += pa.Loss
	switch pa.Skill {
	case engine.SkillVeryBad:
		p.Blunders++
	case engine.SkillBad:
		p.Errors++
	case engine.SkillDoubtful:
		p.Doubtful++
	}
}

func (p *PlayerAnalysis) finish() {
	if p.Moves > 0 {
		p.LossPerMove = float64(p.TotalLoss) / float64(p.Moves)
	}
	p.Rating = engine.GetRating(p.LossPerMove, p.Moves)
}

// GameAnalysis contains analysis of a single game.
type GameAnalysis struct {
	Number  int               `json:"number"`
	Players [2]PlayerAnalysis `json:"players"` // Indexed by color
	Plies   []PlyAnalysis     `json:"plies"`   // Moves only; passes are not rated
}

// Mistakes returns the plies rated at skill or worse.
func (g *GameAnalysis) Mistakes(skill engine.SkillType) []PlyAnalysis {
	var out []PlyAnalysis
	for _, pa := range g.Plies {
		if pa.Skill <= skill {
			out = append(out, pa)
		}
	}
	return out
}

// MatchAnalysis contains the analysis of every game, with totals per player name.
type MatchAnalysis struct {
	Games   []GameAnalysis   `json:"games"`
	Players []PlayerAnalysis `json:"players"` // In order of first appearance
}

// AnalysisOptions configures match analysis.
type AnalysisOptions struct {
	Workers int // Plies analyzed in parallel (0 = GOMAXPROCS)
}

// AnalyzeGame replays g and rates every move with e.
func AnalyzeGame(ctx context.Context, g *Game, e *engine.Engine, opts AnalysisOptions) (*GameAnalysis, error) {
	states, err := g.states()
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	plies := make([]*PlyAnalysis, len(g.Records))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, rec := range g.Records {
		if rec.Move == nil {
			continue
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := e.AnalyzeMoveSkill(states[i], *rec.Move)
			if err != nil {
				return fmt.Errorf("game %d ply %d: %w", g.Number, i+1, err)
			}
			plies[i] = &PlyAnalysis{
				Ply:      i + 1,
				Player:   rec.Player,
				Position: states[i].Position.ID(),
				Played:   *rec.Move,
				Best:     a.BestMove,
				Loss:     a.Loss,
				Skill:    a.Skill,
				Forced:   a.IsForced,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ga := &GameAnalysis{Number: g.Number}
	ga.Players[engine.White].Name = g.White
	ga.Players[engine.Black].Name = g.Black
	for _, pa := range plies {
		if pa == nil {
			continue
		}
		ga.Plies = append(ga.Plies, *pa)
		ga.Players[pa.Player].add(*pa)
	}
	ga.Players[engine.White].finish()
	ga.Players[engine.Black].finish()
	return ga, nil
}

// AnalyzeMatch analyzes every game of m.
func AnalyzeMatch(ctx context.Context, m *Match, e *engine.Engine, opts AnalysisOptions) (*MatchAnalysis, error) {
	ma := &MatchAnalysis{}
	index := make(map[string]int)

	for _, g := range m.Games {
		ga, err := AnalyzeGame(ctx, g, e, opts)
		if err != nil {
			return nil, err
		}
		ma.Games = append(ma.Games, *ga)

		for _, c := range []engine.Color{engine.White, engine.Black} {
			name := ga.Players[c].Name
			i, ok := index[name]
			if !ok {
				i = len(ma.Players)
				index[name] = i
				ma.Players = append(ma.Players, PlayerAnalysis{Name: name})
			}
			for _, pa := range ga.Plies {
				if pa.Player == c {
					ma.Players[i].add(pa)
				}
			}
		}
	}
	for i := range ma.Players {
		ma.Players[i].finish()
	}
	return ma, nil
}

// states replays g and returns the engine state before each ply.
func (g *Game) states() ([]*engine.GameState, error) {
	start, err := engine.ParsePosition(g.Start)
	if err != nil {
		return nil, fmt.Errorf("game %d: start position: %w", g.Number, err)
	}
	s, err := game.NewSessionFrom(start, g.First)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", g.Number, err)
	}

	states := make([]*engine.GameState, len(g.Records))
	for i, rec := range g.Records {
		if s.Turn() != rec.Player {
			return nil, fmt.Errorf("%w: game %d ply %d", ErrMismatch, g.Number, i+1)
		}
		states[i] = s.State()
		if rec.Move == nil {
			_, err = s.Pass()
		} else {
			_, err = s.Play(*rec.Move)
		}
		if err != nil {
			return nil, fmt.Errorf("game %d ply %d: %w", g.Number, i+1, err)
		}
	}
	return states, nil
}
