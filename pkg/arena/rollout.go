package arena

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"lukechampine.com/frand"

	"github.com/yourusername/stackengine/pkg/engine"
	"github.com/yourusername/stackengine/pkg/game"
)

// DefaultTrials is the number of playouts when none is configured
const DefaultTrials = 100

// RolloutOptions controls rollout execution
type RolloutOptions struct {
	Trials   int     // Number of games to play out (default DefaultTrials)
	Depth    int     // Search depth of the playout engine (default 1)
	Epsilon  float64 // Probability of a uniformly random move at each ply
	MaxPlies int     // Truncate a playout after this many plies (0 = DefaultMaxPlies)
	Workers  int     // Number of parallel playouts (0 = GOMAXPROCS)
	Seed     uint64  // Seed for the random moves (0 = unseeded)

	// Progress is called after each finished playout, from the worker goroutine
	Progress func(RolloutProgress)
}

// RolloutProgress contains progress information during a rollout
type RolloutProgress struct {
	TrialsCompleted int
	TrialsTotal     int
	Percent         float64 // 0-100
}

// RolloutResult summarizes the playouts from the point of view of the side to move
type RolloutResult struct {
	Turn   engine.Color
	Trials int

	Wins   int
	Losses int
	Draws  int
	Capped int // Playouts stopped by the ply cap and scored on points

	// Expected score: 1 per win, 0.5 per draw
	WinProb       float64
	WinProbStdDev float64
	WinProbCI     float64 // 95% confidence interval

	// Point margin of the side to move at the end of a playout
	MeanMargin   float64
	StdDevMargin float64

	MeanPlies float64
	Elapsed   time.Duration
}

type playout struct {
	score  float64
	margin float64
	plies  int
	capped bool
}

// Rollout plays out the game from state many times and reports how often the side to
// move wins. Playouts choose moves with a shallow search, replaced by a random move
// with probability Epsilon.
func Rollout(ctx context.Context, state *engine.GameState, opts RolloutOptions) (*RolloutResult, error) {
	if opts.Trials <= 0 {
		opts.Trials = DefaultTrials
	}
	if opts.Depth <= 0 {
		opts.Depth = 1
	}
	if opts.MaxPlies <= 0 {
		opts.MaxPlies = DefaultMaxPlies
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Epsilon < 0 || opts.Epsilon > 1 {
		return nil, errors.New("arena: epsilon must be between 0 and 1")
	}

	// Reject bad states before any worker starts
	if _, err := game.Resume(state); err != nil {
		return nil, err
	}
	e, err := engine.NewEngine(engine.EngineOptions{Depth: opts.Depth})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("trials", opts.Trials).
		Int("depth", opts.Depth).
		Float64("epsilon", opts.Epsilon).
		Str("turn", state.Turn.String()).
		Msg("rollout-starting")

	start := time.Now()
	results := make([]playout, opts.Trials)

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i := 0; i < opts.Trials; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := playOut(gctx, state, e, opts, i)
			if err != nil {
				return err
			}
			results[i] = res

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			if opts.Progress != nil {
				opts.Progress(RolloutProgress{
					TrialsCompleted: n,
					TrialsTotal:     opts.Trials,
					Percent:         100 * float64(n) / float64(opts.Trials),
				})
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

	r := aggregate(state.Turn, results)
	r.Elapsed = time.Since(start)

	log.Debug().
		Float64("win-prob", r.WinProb).
		Float64("ci", r.WinProbCI).
		Dur("elapsed", r.Elapsed).
		Msg("rollout-finished")
	return r, nil
}

// playOut plays one game to the end or to the ply cap
func playOut(ctx context.Context, state *engine.GameState, e *engine.Engine, opts RolloutOptions, index int) (playout, error) {
	s, err := game.Resume(state)
	if err != nil {
		return playout{}, err
	}
	rng := newRNG(opts.Seed, index)
	me := state.Turn

	var res playout
	for ; !s.Over(); res.plies++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if res.plies >= opts.MaxPlies {
			res.capped = true
			break
		}

		moves := engine.GenerateMoves(s.Position(), s.Turn())
		switch {
		case len(moves) == 0:
			_, err = s.Pass()
		case opts.Epsilon > 0 && float64(rng.Intn(1<<20)) < opts.Epsilon*(1<<20):
			_, err = s.Play(moves[rng.Intn(len(moves))])
		default:
			_, _, err = s.PlayEngine(e)
		}
		if err != nil {
			return res, fmt.Errorf("playout %d ply %d: %w", index, res.plies, err)
		}
	}

	mine, theirs := s.Points(me), s.Points(me.Opponent())
	res.margin = float64(mine - theirs)

	winner := s.Winner()
	if res.capped {
		winner = engine.NoColor
		switch {
		case mine > theirs:
			winner = me
		case theirs > mine:
			winner = me.Opponent()
		}
	}
	switch winner {
	case me:
		res.score = 1
	case engine.NoColor:
		res.score = 0.5
	}
	return res, nil
}

func aggregate(turn engine.Color, results []playout) *RolloutResult {
	r := &RolloutResult{Turn: turn, Trials: len(results)}
	if len(results) == 0 {
		return r
	}

	scores := make([]float64, len(results))
	margins := make([]float64, len(results))
	plies := make([]float64, len(results))
	for i, p := range results {
		switch p.score {
		case 1:
			r.Wins++
		case 0:
			r.Losses++
		default:
			r.Draws++
		}
		if p.capped {
			r.Capped++
		}
		scores[i] = p.score
		margins[i] = p.margin
		plies[i] = float64(p.plies)
	}

	r.WinProb, r.WinProbStdDev = meanStdDev(scores)
	r.WinProbCI = 1.96 * r.WinProbStdDev / math.Sqrt(float64(len(results)))
	r.MeanMargin, r.StdDevMargin = meanStdDev(margins)
	r.MeanPlies = stat.Mean(plies, nil)
	return r
}

// newRNG returns the random source for one game or playout. Seeded sources
// depend only on seed and index.
func newRNG(seed uint64, index int) *frand.RNG {
	if seed == 0 {
		return frand.New()
	}
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf, seed)
	binary.LittleEndian.PutUint64(buf[8:], uint64(index))
	return frand.NewCustom(buf, 1024, 12)
}
