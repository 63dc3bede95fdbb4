// stackengine - analysis and self-play tool for the stacking game
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/stackengine/pkg/arena"
	"github.com/yourusername/stackengine/pkg/engine"
	"github.com/yourusername/stackengine/pkg/game"
	"github.com/yourusername/stackengine/pkg/match"
)

var out = newRenderer(os.Stdout)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "start":
		cmdStart(args)
	case "eval":
		cmdEval(args)
	case "moves":
		cmdMoves(args)
	case "move":
		cmdMove(args)
	case "play":
		cmdPlay(args)
	case "arena":
		cmdArena(args)
	case "rollout":
		cmdRollout(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`stackengine - Stacking Game Analysis Engine

Usage: stackengine <command> [options]

Commands:
  start     Print the opening position for a board size
  eval      Evaluate a position
  moves     List the legal moves of a position
  move      Search for the best move
  play      Play a game against the engine, or watch it play itself
  arena     Play an engine-versus-engine match
  rollout   Estimate the winning chances of a position by playouts

Use "stackengine <command> -h" for command-specific help.

Position ID Format:
  Positions are passed as compact URL-safe base64 IDs.
  "stackengine start -size 8" prints the ID of the opening position.`)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// logFlag registers the -log flag on fs
func logFlag(fs *flag.FlagSet) *string {
	return fs.String("log", "warn", "Log level (debug, info, warn, error)")
}

// setupLogging points the global logger at a console writer on stderr
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		fatalf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// positionFlags registers -position and its short form -p
func positionFlags(fs *flag.FlagSet) func() string {
	long := fs.String("position", "", "Position ID")
	short := fs.String("p", "", "Position ID (short form)")
	return func() string {
		if *long != "" {
			return *long
		}
		return *short
	}
}

func parsePosition(id, usage string) *engine.Position {
	if id == "" {
		fmt.Fprintln(os.Stderr, "Error: position required")
		fmt.Fprintln(os.Stderr, "Usage: "+usage)
		os.Exit(1)
	}
	pos, err := engine.ParsePosition(id)
	if err != nil {
		fatalf("invalid position ID: %v", err)
	}
	return pos
}

func parseColor(s string) engine.Color {
	c, err := engine.ParseColor(s)
	if err != nil {
		fatalf("%v", err)
	}
	return c
}

func createEngine(depth, cacheSize int) *engine.Engine {
	e, err := engine.NewEngine(engine.EngineOptions{Depth: depth, CacheSize: cacheSize})
	if err != nil {
		fatalf("failed to create engine: %v", err)
	}
	return e
}

func cmdStart(args []string) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	size := fs.Int("size", 8, "Board size (8, 10 or 16)")
	fs.Parse(args)

	if !game.SupportedSize(*size) {
		fatalf("size must be one of %v", game.BoardSizes)
	}
	pos := engine.StartingPosition(*size)
	maxPoints := engine.MaxPoints(*size)

	fmt.Printf("Position ID: %s\n\n", pos.ID())
	fmt.Print(out.board(pos))
	fmt.Printf("\n%s\n", out.score([2]int{}, maxPoints))
}

func cmdEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	position := positionFlags(fs)
	level := logFlag(fs)
	fs.Parse(args)
	setupLogging(*level)

	pos := parsePosition(position(), "stackengine eval -position <positionID>")
	ev := engine.EvaluateDetailed(pos)

	fmt.Print(out.board(pos))
	fmt.Println()
	fmt.Printf("Score:     %+d\n", ev.Score)
	fmt.Printf("  Height:    %+d\n", ev.Height)
	fmt.Printf("  Mobility:  %+d\n", ev.Mobility)
	fmt.Printf("  Center:    %+d\n", ev.Center)
	fmt.Printf("  Completed: %+d\n", ev.Completed)
	fmt.Printf("  Material:  %+d (%s %d, %s %d)\n", ev.Material,
		out.colored(engine.White, "W"), pos.TokenCount(engine.White),
		out.colored(engine.Black, "B"), pos.TokenCount(engine.Black))
}

func cmdMoves(args []string) {
	fs := flag.NewFlagSet("moves", flag.ExitOnError)
	position := positionFlags(fs)
	turn := fs.String("turn", "white", "Side to move (white or black)")
	rank := fs.Bool("rank", false, "Rank the moves by search score")
	depth := fs.Int("depth", engine.DefaultDepth, "Search depth for -rank")
	num := fs.Int("n", 0, "Number of ranked moves to show (0 = all)")
	level := logFlag(fs)
	fs.Parse(args)
	setupLogging(*level)

	pos := parsePosition(position(), "stackengine moves -position <positionID> [-turn black] [-rank]")
	c := parseColor(*turn)

	moves := engine.GenerateMoves(pos, c)
	if len(moves) == 0 {
		fmt.Printf("No legal moves for %s (turn is skipped)\n", c)
		return
	}

	if !*rank {
		fmt.Printf("%d legal moves for %s:\n", len(moves), out.colored(c, c.String()))
		for i, m := range moves {
			fmt.Printf("  %3d. %-22s  %s -> height %d\n", i+1, m, out.stack(pos, m.From), engine.ResultHeight(pos, m))
		}
		return
	}

	e := createEngine(*depth, 0)
	res, err := e.AnalyzePosition(&engine.GameState{Position: pos, Turn: c})
	if err != nil {
		fatalf("analysis failed: %v", err)
	}
	shown := res.Moves
	if *num > 0 && *num < len(shown) {
		shown = shown[:*num]
	}
	fmt.Printf("%d legal moves for %s, depth %d (%d nodes, %v):\n", res.NumMoves(), out.colored(c, c.String()),
		res.Depth, res.Nodes, res.TimeUsed.Round(time.Millisecond))
	for i, sm := range shown {
		mark := ""
		if sm.Decisive {
			mark = " decisive"
		}
		fmt.Printf("  %3d. %-22s  score %+5d  loss %4d%s\n", i+1, sm.Move, sm.Score, res.Loss(sm), mark)
	}
}

func cmdMove(args []string) {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	position := positionFlags(fs)
	turn := fs.String("turn", "white", "Side to move (white or black)")
	depth := fs.Int("depth", engine.DefaultDepth, "Search depth in plies")
	whitePts := fs.Int("white-points", 0, "Points already scored by white")
	blackPts := fs.Int("black-points", 0, "Points already scored by black")
	last := fs.Bool("last", false, "Only one stack is left to complete")
	level := logFlag(fs)
	fs.Parse(args)
	setupLogging(*level)

	pos := parsePosition(position(), "stackengine move -position <positionID> [-turn black] [-depth N]")
	c := parseColor(*turn)
	e := createEngine(*depth, 0)

	res, err := e.BestMove(&engine.GameState{
		Position:               pos,
		Turn:                   c,
		Points:                 [2]int{*whitePts, *blackPts},
		LastScoringOpportunity: *last,
	})
	if err != nil {
		fatalf("search failed: %v", err)
	}

	if res.BestMove == nil {
		fmt.Printf("No legal moves for %s (turn is skipped)\n", c)
		return
	}

	m := *res.BestMove
	height := engine.ResultHeight(pos, m)
	fmt.Printf("Best move for %s: %s (height %d)\n", out.colored(c, c.String()), m, height)
	fmt.Printf("  Score: %+d  Depth: %d  Nodes: %d  Time: %v\n",
		res.Score, res.Depth, res.Nodes, res.TimeUsed.Round(time.Microsecond))

	pos.MoveStack(m.From, m.Level, m.To)
	if height == engine.MaxStackHeight {
		top, _ := pos.Top(m.To)
		fmt.Printf("  Completes a stack for %s\n", out.colored(top.Color, top.Color.String()))
		pos.Clear(m.To)
	}
	fmt.Printf("\nResulting position: %s\n\n", pos.ID())
	fmt.Print(out.board(pos))
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	size := fs.Int("size", 8, "Board size (8, 10 or 16)")
	depth := fs.Int("depth", engine.DefaultDepth, "Engine search depth")
	human := fs.String("human", "white", "Color played from the keyboard (white, black or none)")
	first := fs.String("first", "white", "Side that moves first")
	analyze := fs.Bool("analyze", false, "Rate every move once the game is over")
	level := logFlag(fs)
	fs.Parse(args)
	setupLogging(*level)

	humanColor := engine.NoColor
	if *human != "none" {
		humanColor = parseColor(*human)
	}

	s, err := game.NewSession(*size, parseColor(*first))
	if err != nil {
		fatalf("%v", err)
	}
	e := createEngine(*depth, 0)
	in := bufio.NewScanner(os.Stdin)

	names := map[engine.Color]string{
		engine.White: fmt.Sprintf("engine depth %d", *depth),
		engine.Black: fmt.Sprintf("engine depth %d", *depth),
	}
	if humanColor != engine.NoColor {
		names[humanColor] = "human"
	}
	if *analyze {
		defer func() {
			g := match.FromSession(1, s, names[engine.White], names[engine.Black])
			ga, err := match.AnalyzeGame(context.Background(), g, e, match.AnalysisOptions{})
			if err != nil {
				fatalf("analysis failed: %v", err)
			}
			fmt.Println()
			printGameAnalysis(ga)
		}()
	}

	for !s.Over() {
		fmt.Print(out.board(s.Position()))
		fmt.Println(out.score([2]int{s.Points(engine.White), s.Points(engine.Black)}, s.MaxPoints()))

		var rec game.Record
		if s.Turn() == humanColor {
			m, ok := readMove(in, s)
			if !ok {
				fmt.Println("Game abandoned")
				break
			}
			rec, err = s.Play(m)
		} else {
			var res engine.SearchResult
			rec, res, err = s.PlayEngine(e)
			if err == nil && rec.Move != nil {
				fmt.Printf("%s plays %s (score %+d, %d nodes)\n",
					out.colored(rec.Player, rec.Player.String()), rec.Move, res.Score, res.Nodes)
			}
		}
		if err != nil {
			fatalf("%v", err)
		}
		reportRecord(rec)
	}

	fmt.Print(out.board(s.Position()))
	fmt.Println(out.score([2]int{s.Points(engine.White), s.Points(engine.Black)}, s.MaxPoints()))
	if !s.Over() {
		return
	}
	if w := s.Winner(); w == engine.NoColor {
		fmt.Println("Game over: draw")
	} else {
		fmt.Printf("Game over: %s wins\n", out.colored(w, w.String()))
	}
}

// readMove prompts until a legal move is entered, by number or in move notation
func readMove(in *bufio.Scanner, s *game.Session) (engine.Move, bool) {
	moves := engine.GenerateMoves(s.Position(), s.Turn())
	for i, m := range moves {
		fmt.Printf("  %3d. %s\n", i+1, m)
	}
	for {
		fmt.Printf("%s to move [1-%d, q]: ", s.Turn(), len(moves))
		if !in.Scan() {
			return engine.Move{}, false
		}
		text := strings.TrimSpace(in.Text())
		if text == "q" || text == "quit" {
			return engine.Move{}, false
		}
		if m, err := engine.ParseMove(text); err == nil {
			if engine.IsLegal(s.Position(), s.Turn(), m) {
				return m, true
			}
			fmt.Printf("%s is not legal\n", m)
			continue
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > len(moves) {
			fmt.Println("Enter a move number from the list")
			continue
		}
		return moves[n-1], true
	}
}

func reportRecord(rec game.Record) {
	if rec.Move == nil {
		fmt.Printf("%s has no legal move\n", rec.Player)
	}
	if rec.Scorer != engine.NoColor {
		fmt.Printf("Stack completed: point for %s\n", out.colored(rec.Scorer, rec.Scorer.String()))
	}
	if rec.Skipped != engine.NoColor {
		fmt.Printf("%s cannot move and is skipped\n", rec.Skipped)
	}
	fmt.Println()
}

func cmdArena(args []string) {
	fs := flag.NewFlagSet("arena", flag.ExitOnError)
	def := arena.DefaultConfig()
	games := fs.Int("games", def.Games, "Number of games")
	size := fs.Int("size", def.Size, "Board size (8, 10 or 16)")
	depthA := fs.Int("depth-a", def.DepthA, "Search depth of engine A")
	depthB := fs.Int("depth-b", def.DepthB, "Search depth of engine B")
	random := fs.Int("random", def.RandomPlies, "Random opening plies")
	maxPlies := fs.Int("max-plies", def.MaxPlies, "Ply cap declaring a draw")
	workers := fs.Int("workers", 0, "Number of worker goroutines (0 = auto)")
	seed := fs.Uint64("seed", 0, "Random seed (0 = random)")
	analyze := fs.Bool("analyze", false, "Rate every move of every game")
	analyzeDepth := fs.Int("analyze-depth", 2, "Search depth for -analyze")
	level := logFlag(fs)
	fs.Parse(args)
	setupLogging(*level)

	if !game.SupportedSize(*size) {
		fatalf("size must be one of %v", game.BoardSizes)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := arena.Config{
		Games:       *games,
		Size:        *size,
		DepthA:      *depthA,
		DepthB:      *depthB,
		RandomPlies: *random,
		MaxPlies:    *maxPlies,
		Workers:     *workers,
		Seed:        *seed,
		Progress: func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r%d/%d games", done, total)
		},
	}

	res, err := arena.Run(ctx, cfg)
	fmt.Fprintln(os.Stderr)
	if errors.Is(err, context.Canceled) {
		fatalf("match interrupted")
	}
	if err != nil {
		fatalf("arena failed: %v", err)
	}

	fmt.Printf("Arena (%d games, %dx%d, depth %d vs %d, %.1fs):\n",
		len(res.Games), *size, *size, *depthA, *depthB, res.Elapsed.Seconds())
	fmt.Printf("  A (depth %d): %d wins\n", *depthA, res.WinsA)
	fmt.Printf("  B (depth %d): %d wins\n", *depthB, res.WinsB)
	fmt.Printf("  Draws:        %d\n", res.Draws)
	fmt.Printf("  %s wins: %d  %s wins: %d\n",
		out.colored(engine.White, "White"), res.WhiteWins,
		out.colored(engine.Black, "Black"), res.BlackWins)
	fmt.Printf("  Plies:  %.1f ± %.1f\n", res.MeanPlies, res.StdDevPlies)
	fmt.Printf("  Margin: %+.2f ± %.2f (A's view)\n", res.MeanMargin, res.StdDevMargin)

	if !*analyze {
		return
	}
	ma, err := match.AnalyzeMatch(ctx, arenaMatch(res, *size, *depthA, *depthB),
		createEngine(*analyzeDepth, 0), match.AnalysisOptions{Workers: *workers})
	if err != nil {
		fatalf("analysis failed: %v", err)
	}
	fmt.Printf("\nAnalysis at depth %d:\n", *analyzeDepth)
	for _, p := range ma.Players {
		fmt.Printf("  %-12s %4d moves  loss/move %5.2f  %2d ?? %2d ? %2d ?!  %s\n",
			p.Name, p.Moves, p.LossPerMove, p.Blunders, p.Errors, p.Doubtful, p.Rating)
	}
}

func cmdRollout(args []string) {
	fs := flag.NewFlagSet("rollout", flag.ExitOnError)
	position := positionFlags(fs)
	turn := fs.String("turn", "white", "Side to move (white or black)")
	white := fs.Int("white-points", 0, "Points already scored by white")
	black := fs.Int("black-points", 0, "Points already scored by black")
	trials := fs.Int("trials", arena.DefaultTrials, "Number of playouts")
	depth := fs.Int("depth", 1, "Search depth of the playout engine")
	epsilon := fs.Float64("epsilon", 0.1, "Probability of a random move at each ply")
	maxPlies := fs.Int("max-plies", arena.DefaultMaxPlies, "Truncate playouts after this many plies")
	workers := fs.Int("workers", 0, "Number of worker goroutines (0 = auto)")
	seed := fs.Uint64("seed", 0, "Random seed (0 = random)")
	level := logFlag(fs)
	fs.Parse(args)
	setupLogging(*level)

	pos := parsePosition(position(), "stackengine rollout -position <positionID> [-turn black] [-trials N]")
	state := &engine.GameState{
		Position: pos,
		Turn:     parseColor(*turn),
		Points:   [2]int{*white, *black},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := arena.Rollout(ctx, state, arena.RolloutOptions{
		Trials:   *trials,
		Depth:    *depth,
		Epsilon:  *epsilon,
		MaxPlies: *maxPlies,
		Workers:  *workers,
		Seed:     *seed,
		Progress: func(p arena.RolloutProgress) {
			fmt.Fprintf(os.Stderr, "\r%d/%d playouts (%.0f%%)", p.TrialsCompleted, p.TrialsTotal, p.Percent)
		},
	})
	fmt.Fprintln(os.Stderr)
	if errors.Is(err, context.Canceled) {
		fatalf("rollout interrupted")
	}
	if err != nil {
		fatalf("rollout failed: %v", err)
	}

	c := state.Turn
	fmt.Printf("Rollout for %s (%d playouts, depth %d, epsilon %.2f, %.1fs):\n",
		out.colored(c, c.String()), res.Trials, *depth, *epsilon, res.Elapsed.Seconds())
	fmt.Printf("  Wins %d  Losses %d  Draws %d  (capped %d)\n", res.Wins, res.Losses, res.Draws, res.Capped)
	fmt.Printf("  Win probability: %.3f ± %.3f\n", res.WinProb, res.WinProbCI)
	fmt.Printf("  Margin: %+.2f ± %.2f\n", res.MeanMargin, res.StdDevMargin)
	fmt.Printf("  Plies:  %.1f\n", res.MeanPlies)
}

// arenaMatch converts arena games to a match record
func arenaMatch(res *arena.Result, size, depthA, depthB int) *match.Match {
	m := match.NewMatch("arena", size)
	m.Date = time.Now().Format("2006-01-02")
	m.Comment = fmt.Sprintf("A depth %d vs B depth %d", depthA, depthB)
	names := map[arena.Player]string{
		arena.PlayerA: fmt.Sprintf("A depth %d", depthA),
		arena.PlayerB: fmt.Sprintf("B depth %d", depthB),
	}
	for _, r := range res.Games {
		g := match.NewGame(0, engine.StartingPosition(size), engine.White)
		g.White = names[r.White]
		if r.White == arena.PlayerA {
			g.Black = names[arena.PlayerB]
		} else {
			g.Black = names[arena.PlayerA]
		}
		g.Records = append(g.Records, r.History...)
		g.Points = r.Points
		g.Finished = !r.Capped
		g.Winner = r.Winner
		m.AddGame(g)
	}
	return m
}

func printGameAnalysis(ga *match.GameAnalysis) {
	for _, c := range []engine.Color{engine.White, engine.Black} {
		p := ga.Players[c]
		fmt.Printf("  %s %-16s %3d moves  loss/move %5.2f  %2d ?? %2d ? %2d ?!  %s\n",
			out.colored(c, colorLetter(c)), p.Name, p.Moves, p.LossPerMove,
			p.Blunders, p.Errors, p.Doubtful, p.Rating)
	}
	for _, pa := range ga.Mistakes(engine.SkillDoubtful) {
		fmt.Printf("  %3d) %s %s%s  best %s  loss %d\n",
			pa.Ply, pa.Player, pa.Played, pa.Skill.Abbr(), pa.Best, pa.Loss)
	}
}
