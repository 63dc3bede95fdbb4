// Package arena plays engine-versus-engine matches and summarizes the results.
package arena

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/stackengine/pkg/engine"
	"github.com/yourusername/stackengine/pkg/game"
)

// DefaultMaxPlies caps games that cycle without a result
const DefaultMaxPlies = 400

// Player identifies one of the two engines in a match
type Player int

const (
	PlayerNone Player = iota
	PlayerA
	PlayerB
)

func (p Player) String() string {
	switch p {
	case PlayerA:
		return "A"
	case PlayerB:
		return "B"
	}
	return "-"
}

// Config controls a match
type Config struct {
	Games       int    // Number of games (default 10)
	Size        int    // Board size (default 8)
	DepthA      int    // Search depth of engine A (0 = engine default)
	DepthB      int    // Search depth of engine B (0 = engine default)
	RandomPlies int    // Random opening plies before the engines take over
	MaxPlies    int    // Ply cap declaring a draw (0 = DefaultMaxPlies)
	Workers     int    // Parallel games (0 = GOMAXPROCS)
	Seed        uint64 // Seed for the random openings (0 = unseeded)
	CacheSize   int    // Evaluation cache size per engine (0 = default, negative = disabled)

	// Progress is called after each finished game, from the worker goroutine
	Progress func(done, total int)
}

// DefaultConfig returns a small depth-2 versus depth-3 match
func DefaultConfig() Config {
	return Config{
		Games:       10,
		Size:        8,
		DepthA:      2,
		DepthB:      3,
		RandomPlies: 2,
		MaxPlies:    DefaultMaxPlies,
	}
}

// GameResult is the outcome of one game
type GameResult struct {
	ID         uuid.UUID
	Index      int
	White      Player // Engine playing white
	Winner     engine.Color
	WinnerSide Player
	Points     [2]int
	Plies      int
	Capped     bool // Stopped by the ply cap
	Duration   time.Duration
	History    []game.Record
}

// Result summarizes a match
type Result struct {
	Games     []GameResult
	WinsA     int
	WinsB     int
	Draws     int
	WhiteWins int
	BlackWins int

	MeanPlies   float64
	StdDevPlies float64
	// Point margin from A's point of view
	MeanMargin   float64
	StdDevMargin float64

	Elapsed time.Duration
}

// Run plays cfg.Games games between two engines. Engine A plays white in even-numbered
// games and black in odd-numbered ones.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Games <= 0 {
		cfg.Games = 10
	}
	if cfg.Size == 0 {
		cfg.Size = 8
	}
	if !game.SupportedSize(cfg.Size) {
		return nil, fmt.Errorf("%w: %d", game.ErrUnsupportedSize, cfg.Size)
	}
	if cfg.MaxPlies <= 0 {
		cfg.MaxPlies = DefaultMaxPlies
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.RandomPlies < 0 {
		return nil, errors.New("arena: negative random plies")
	}

	engA, err := engine.NewEngine(engine.EngineOptions{Depth: cfg.DepthA, CacheSize: cfg.CacheSize})
	if err != nil {
		return nil, fmt.Errorf("engine A: %w", err)
	}
	engB, err := engine.NewEngine(engine.EngineOptions{Depth: cfg.DepthB, CacheSize: cfg.CacheSize})
	if err != nil {
		return nil, fmt.Errorf("engine B: %w", err)
	}

	log.Info().
		Int("games", cfg.Games).
		Int("size", cfg.Size).
		Int("depth-a", engA.Depth()).
		Int("depth-b", engB.Depth()).
		Int("workers", cfg.Workers).
		Msg("arena-starting")

	start := time.Now()
	results := make([]GameResult, cfg.Games)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Games; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := playGame(gctx, cfg, i, engA, engB)
			if err != nil {
				return err
			}
			results[i] = res

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			if cfg.Progress != nil {
				cfg.Progress(n, cfg.Games)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := summarize(results)
	r.Elapsed = time.Since(start)

	log.Info().
		Int("wins-a", r.WinsA).
		Int("wins-b", r.WinsB).
		Int("draws", r.Draws).
		Float64("mean-plies", r.MeanPlies).
		Dur("elapsed", r.Elapsed).
		Msg("arena-finished")
	return r, nil
}

func playGame(ctx context.Context, cfg Config, index int, engA, engB *engine.Engine) (GameResult, error) {
	start := time.Now()
	res := GameResult{ID: uuid.New(), Index: index, White: PlayerA}
	if index%2 == 1 {
		res.White = PlayerB
	}

	s, err := game.NewSession(cfg.Size, engine.White)
	if err != nil {
		return res, err
	}
	engines := map[engine.Color]*engine.Engine{engine.White: engA, engine.Black: engB}
	if res.White == PlayerB {
		engines[engine.White], engines[engine.Black] = engB, engA
	}

	rng := newRNG(cfg.Seed, index)
	for ply := 0; !s.Over(); ply++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if ply >= cfg.MaxPlies {
			res.Capped = true
			break
		}

		if ply < cfg.RandomPlies {
			moves := engine.GenerateMoves(s.Position(), s.Turn())
			if len(moves) == 0 {
				_, err = s.Pass()
			} else {
				_, err = s.Play(moves[rng.Intn(len(moves))])
			}
		} else {
			_, _, err = s.PlayEngine(engines[s.Turn()])
		}
		if err != nil {
			return res, fmt.Errorf("game %s ply %d: %w", res.ID, ply, err)
		}
	}

	res.History = s.History()
	res.Plies = len(res.History)
	res.Points = [2]int{s.Points(engine.White), s.Points(engine.Black)}
	res.Winner = s.Winner()
	switch {
	case res.Capped || res.Winner == engine.NoColor:
		res.Winner = engine.NoColor
		res.WinnerSide = PlayerNone
	case res.Winner == engine.White:
		res.WinnerSide = res.White
	default:
		res.WinnerSide = opponent(res.White)
	}
	res.Duration = time.Since(start)

	log.Debug().
		Str("game", res.ID.String()).
		Int("plies", res.Plies).
		Str("winner", res.WinnerSide.String()).
		Bool("capped", res.Capped).
		Msg("game-finished")
	return res, nil
}

func opponent(p Player) Player {
	if p == PlayerA {
		return PlayerB
	}
	return PlayerA
}

func summarize(games []GameResult) *Result {
	r := &Result{Games: games}
	plies := make([]float64, len(games))
	margins := make([]float64, len(games))

	for i, g := range games {
		switch g.WinnerSide {
		case PlayerA:
			r.WinsA++
		case PlayerB:
			r.WinsB++
		default:
			r.Draws++
		}
		switch g.Winner {
		case engine.White:
			r.WhiteWins++
		case engine.Black:
			r.BlackWins++
		}

		plies[i] = float64(g.Plies)
		margin := g.Points[engine.White] - g.Points[engine.Black]
		if g.White == PlayerB {
			margin = -margin
		}
		margins[i] = float64(margin)
	}

	r.MeanPlies, r.StdDevPlies = meanStdDev(plies)
	r.MeanMargin, r.StdDevMargin = meanStdDev(margins)
	return r
}

func meanStdDev(x []float64) (float64, float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
