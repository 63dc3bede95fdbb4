// Package external implements a line-oriented text protocol for driving the engine
// from other programs over a TCP socket.
//
// Protocol overview:
//   - Server listens on a TCP port
//   - Client connects and sends one command per line
//   - Commands include: eval, moves, best, analyze, set, version, exit
//   - Positions are sent as state strings (see StateLine)
//   - Each response ends with a newline; multi-line responses end with "."
package external

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yourusername/stackengine/pkg/engine"
)

// Server implements the text protocol server.
type Server struct {
	engine   *engine.Engine
	listener net.Listener
	mu       sync.Mutex
	running  bool
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	options  ServerOptions
}

// ServerOptions configures the server.
type ServerOptions struct {
	Host          string // Host to bind to
	Port          int    // TCP port to listen on (0 = any free port)
	Depth         int    // Default search depth (0 = engine depth)
	MaxDepth      int    // Deepest search a client may set
	PromptEnabled bool   // Send prompts after responses
}

// DefaultServerOptions returns sensible defaults.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Host:          "localhost",
		Port:          1234,
		MaxDepth:      6,
		PromptEnabled: true,
	}
}

// NewServer creates a new server.
func NewServer(eng *engine.Engine, opts ServerOptions) *Server {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultServerOptions().MaxDepth
	}
	return &Server{
		engine:  eng,
		options: opts,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	addr := net.JoinHostPort(s.options.Host, strconv.Itoa(s.options.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.running = true
	log.Info().Str("addr", listener.Addr().String()).Msg("text-protocol-listening")

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every open connection, then waits for the
// connection handlers to return.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	err := s.listener.Close()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return
			}
			log.Warn().Err(err).Msg("accept-failed")
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handleConnection(conn)
	}
}

// session is the per-connection protocol state.
type session struct {
	server *Server
	depth  int
	prompt bool
}

// handleConnection handles a single client connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		s.wg.Done()
	}()

	logger := log.With().Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Debug().Msg("text-client-connected")

	sess := &session{server: s, depth: s.options.Depth, prompt: s.options.PromptEnabled}
	if sess.depth <= 0 && s.engine != nil {
		sess.depth = s.engine.Depth()
	}

	w := bufio.NewWriter(conn)
	sess.writePrompt(w)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		w.WriteString(sess.processCommand(line))
		sess.writePrompt(w)
		if err := w.Flush(); err != nil {
			logger.Debug().Err(err).Msg("text-write-failed")
			return
		}

		if cmd := strings.ToLower(line); cmd == "exit" || cmd == "quit" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Debug().Err(err).Msg("text-read-failed")
	}
	logger.Debug().Msg("text-client-disconnected")
}

func (sess *session) writePrompt(w *bufio.Writer) {
	if sess.prompt {
		w.WriteString("> ")
	}
	w.Flush()
}

// processCommand processes a single command and returns the response.
func (sess *session) processCommand(cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return "Error: empty command\n"
	}

	command := strings.ToLower(parts[0])

	switch command {
	case "version":
		return "stackengine text protocol 1.0\n"

	case "help":
		return helpResponse()

	case "exit", "quit":
		return "Goodbye\n"

	case "set":
		return sess.handleSet(parts[1:])

	case "evaluation", "eval":
		return sess.withState(parts, sess.handleEvaluation)

	case "moves":
		return sess.withState(parts, sess.handleMoves)

	case "best", "move":
		return sess.withState(parts, sess.handleBest)

	case "analyze":
		return sess.withState(parts, sess.handleAnalyze)

	default:
		// A bare state string asks for the best move
		if strings.HasPrefix(cmd, "state:") {
			return sess.withState([]string{"best", cmd}, sess.handleBest)
		}
		return fmt.Sprintf("Error: unknown command '%s'\n", command)
	}
}

// helpResponse returns help text.
func helpResponse() string {
	return `Available commands:
  version            - Show version information
  help               - Show this help
  set depth <n>      - Set the search depth
  set prompt on|off  - Enable or disable prompts
  eval <state>       - Evaluate a position
  moves <state>      - List the legal moves
  best <state>       - Get the best move
  analyze <state> [n] - Rank the n best moves
  exit               - Close connection
State: state:positionID:turn[:whitePoints:blackPoints[:maxPoints[:last]]]
`
}

// handleSet handles the set command.
func (sess *session) handleSet(args []string) string {
	if len(args) < 2 {
		return "Error: set requires option and value\n"
	}

	option := strings.ToLower(args[0])
	value := args[1]

	switch option {
	case "depth", "plies":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 1 || depth > sess.server.options.MaxDepth {
			return fmt.Sprintf("Error: depth must be 1-%d\n", sess.server.options.MaxDepth)
		}
		sess.depth = depth
		return fmt.Sprintf("depth set to %d\n", depth)

	case "prompt":
		sess.prompt = value == "on" || value == "true" || value == "1"
		return fmt.Sprintf("prompt set to %v\n", sess.prompt)

	default:
		return fmt.Sprintf("Error: unknown option '%s'\n", option)
	}
}

// withState parses the state argument of a command and runs handle on it.
func (sess *session) withState(parts []string, handle func(*StateLine, []string) string) string {
	if len(parts) < 2 {
		return "Error: no state specified\n"
	}
	if sess.server.engine == nil {
		return "Error: no engine loaded\n"
	}
	sl, err := ParseStateLine(parts[1])
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	return handle(sl, parts[2:])
}

// handleEvaluation returns the score and its terms:
// score height mobility center completed material
func (sess *session) handleEvaluation(sl *StateLine, _ []string) string {
	ev := engine.EvaluateDetailed(sl.Position)
	return fmt.Sprintf("%d %d %d %d %d %d\n",
		ev.Score, ev.Height, ev.Mobility, ev.Center, ev.Completed, ev.Material)
}

// handleMoves returns the legal moves on one line, "none" when the turn is skipped.
func (sess *session) handleMoves(sl *StateLine, _ []string) string {
	moves := engine.GenerateMoves(sl.Position, sl.Turn)
	if len(moves) == 0 {
		return "none\n"
	}
	notation := make([]string, len(moves))
	for i, m := range moves {
		notation[i] = m.String()
	}
	return strings.Join(notation, " ") + "\n"
}

// handleBest returns the best move and its score, or "skip".
func (sess *session) handleBest(sl *StateLine, _ []string) string {
	res, err := sess.server.engine.BestMoveDepth(sl.ToGameState(), sess.depth)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	if res.BestMove == nil {
		return "skip\n"
	}
	return fmt.Sprintf("%s %d\n", res.BestMove, res.Score)
}

// handleAnalyze returns one line per move (notation, score, loss), best first,
// followed by a line holding ".".
func (sess *session) handleAnalyze(sl *StateLine, args []string) string {
	n := 0
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 0 {
			return fmt.Sprintf("Error: bad move count %q\n", args[0])
		}
	}

	res, err := sess.server.engine.AnalyzePositionDepth(sl.ToGameState(), sess.depth)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	moves := res.Moves
	if n > 0 && n < len(moves) {
		moves = moves[:n]
	}

	var sb strings.Builder
	for _, sm := range moves {
		fmt.Fprintf(&sb, "%s %d %d\n", sm.Move, sm.Score, res.Loss(sm))
	}
	sb.WriteString(".\n")
	return sb.String()
}
