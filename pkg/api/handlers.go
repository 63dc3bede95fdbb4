package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yourusername/stackengine/pkg/engine"
	"github.com/yourusername/stackengine/pkg/game"
)

// DefaultMaxDepth bounds the search depth a client may request
const DefaultMaxDepth = 6

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// Handlers holds the HTTP handlers and engine reference.
type Handlers struct {
	engine   *engine.Engine
	version  string
	pool     *WorkerPool
	maxDepth int
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(e *engine.Engine, version string) *Handlers {
	return &Handlers{
		engine:   e,
		version:  version,
		pool:     nil,
		maxDepth: DefaultMaxDepth,
	}
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(e *engine.Engine, version string, pool *WorkerPool) *Handlers {
	h := NewHandlers(e, version)
	h.pool = pool
	return h
}

// SetMaxDepth changes the deepest search a client may request.
func (h *Handlers) SetMaxDepth(depth int) {
	if depth > 0 {
		h.maxDepth = depth
	}
}

// apiError is a request failure with its HTTP status and error code.
type apiError struct {
	status int
	msg    string
	code   string
}

func (e *apiError) Error() string {
	return e.msg
}

func badRequest(code, format string, args ...interface{}) *apiError {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...), code: code}
}

var errNoEngine = &apiError{status: http.StatusServiceUnavailable, msg: "engine not loaded", code: "NO_ENGINE"}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

func writeAPIError(w http.ResponseWriter, err *apiError) {
	writeError(w, err.status, err.msg, err.code)
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return false
	}
	return true
}

// parsePosition decodes a position ID from a request.
func parsePosition(id string) (*engine.Position, *apiError) {
	if id == "" {
		return nil, badRequest("MISSING_POSITION", "position is required")
	}
	pos, err := engine.ParsePosition(id)
	if err != nil {
		return nil, badRequest("INVALID_POSITION", "invalid position ID: %v", err)
	}
	return pos, nil
}

// parseTurn parses the side to move; white when omitted.
func parseTurn(s string) (engine.Color, *apiError) {
	if s == "" {
		return engine.White, nil
	}
	c, err := engine.ParseColor(s)
	if err != nil {
		return engine.NoColor, badRequest("INVALID_TURN", "%v", err)
	}
	return c, nil
}

// evaluate scores the requested position.
func (h *Handlers) evaluate(req EvaluateRequest) (*EvaluateResponse, *apiError) {
	if h.engine == nil {
		return nil, errNoEngine
	}
	pos, aerr := parsePosition(req.Position)
	if aerr != nil {
		return nil, aerr
	}
	ev := engine.EvaluateDetailed(pos)
	score, err := h.engine.Evaluate(pos)
	if err != nil {
		return nil, &apiError{status: http.StatusInternalServerError, msg: err.Error(), code: "EVAL_ERROR"}
	}
	ev.Score = score
	return EvalToResponse(req.Position, pos, ev), nil
}

// legalMoves lists the legal moves for the requested side.
func (h *Handlers) legalMoves(req MovesRequest) (*MovesResponse, *apiError) {
	pos, aerr := parsePosition(req.Position)
	if aerr != nil {
		return nil, aerr
	}
	turn, aerr := parseTurn(req.Turn)
	if aerr != nil {
		return nil, aerr
	}

	moves := engine.GenerateMoves(pos, turn)
	resp := &MovesResponse{
		Position: req.Position,
		Turn:     turn.String(),
		Moves:    make([]MoveJSON, len(moves)),
		NumLegal: len(moves),
		Skip:     len(moves) == 0,
	}
	for i, m := range moves {
		resp.Moves[i] = MoveToJSON(m, engine.ResultHeight(pos, m))
	}
	return resp, nil
}

// searchState validates a search request and builds its game state.
func (h *Handlers) searchState(req MoveRequest) (*engine.GameState, int, *apiError) {
	if h.engine == nil {
		return nil, 0, errNoEngine
	}
	pos, aerr := parsePosition(req.Position)
	if aerr != nil {
		return nil, 0, aerr
	}
	turn, aerr := parseTurn(req.Turn)
	if aerr != nil {
		return nil, 0, aerr
	}

	depth := req.Depth
	if depth < 0 || depth > h.maxDepth {
		return nil, 0, badRequest("INVALID_DEPTH", "depth must be between 1 and %d", h.maxDepth)
	}
	if depth == 0 {
		depth = h.engine.Depth()
	}

	state := &engine.GameState{
		Position:               pos,
		Turn:                   turn,
		Points:                 req.Points,
		MaxPoints:              req.MaxPoints,
		LastScoringOpportunity: req.LastScoringOpportunity,
	}
	return state, depth, nil
}

func searchError(err error) *apiError {
	if errors.Is(err, engine.ErrInvalidScore) || errors.Is(err, engine.ErrInvalidColor) {
		return badRequest("INVALID_STATE", "%v", err)
	}
	return &apiError{status: http.StatusInternalServerError, msg: err.Error(), code: "SEARCH_ERROR"}
}

// bestMove searches the requested position.
func (h *Handlers) bestMove(req MoveRequest) (*BestMoveResponse, *apiError) {
	state, depth, aerr := h.searchState(req)
	if aerr != nil {
		return nil, aerr
	}
	pos, turn := state.Position, state.Turn

	res, err := h.engine.BestMoveDepth(state, depth)
	if err != nil {
		return nil, searchError(err)
	}

	resp := &BestMoveResponse{
		Position: req.Position,
		Turn:     turn.String(),
		Skip:     res.BestMove == nil,
		Score:    res.Score,
		Depth:    res.Depth,
		Nodes:    res.Nodes,
		TimeMs:   float64(res.TimeUsed.Microseconds()) / 1000,
	}
	if res.BestMove != nil {
		m := *res.BestMove
		height := engine.ResultHeight(pos, m)
		mj := MoveToJSON(m, height)
		resp.Move = &mj

		pos.MoveStack(m.From, m.Level, m.To)
		if height == engine.MaxStackHeight {
			pos.Clear(m.To)
		}
		resp.Result = pos.ID()
	}
	return resp, nil
}

// analyze scores every legal move of the requested position.
func (h *Handlers) analyze(req AnalyzeRequest) (*AnalyzeResponse, *apiError) {
	state, depth, aerr := h.searchState(req.MoveRequest)
	if aerr != nil {
		return nil, aerr
	}
	if req.Top < 0 {
		return nil, badRequest("INVALID_TOP", "top must not be negative")
	}

	res, err := h.engine.AnalyzePositionDepth(state, depth)
	if err != nil {
		return nil, searchError(err)
	}

	resp := &AnalyzeResponse{
		Position: req.Position,
		Turn:     state.Turn.String(),
		NumLegal: res.NumMoves(),
		Skip:     res.NumMoves() == 0,
		Depth:    res.Depth,
		Nodes:    res.Nodes,
		TimeMs:   float64(res.TimeUsed.Microseconds()) / 1000,
	}
	shown := res.Moves
	if req.Top > 0 && req.Top < len(shown) {
		shown = shown[:req.Top]
	}
	resp.Moves = make([]RankedMoveJSON, len(shown))
	for i, sm := range shown {
		resp.Moves[i] = RankedMoveJSON{
			MoveJSON: MoveToJSON(sm.Move, engine.ResultHeight(state.Position, sm.Move)),
			Score:    sm.Score,
			Loss:     res.Loss(sm),
			Decisive: sm.Decisive,
		}
	}
	return resp, nil
}

// start builds the opening position for a board size.
func (h *Handlers) start(sizeParam string) (*StartResponse, *apiError) {
	size := 8
	if sizeParam != "" {
		n, err := strconv.Atoi(sizeParam)
		if err != nil {
			return nil, badRequest("INVALID_SIZE", "invalid size %q", sizeParam)
		}
		size = n
	}
	if !game.SupportedSize(size) {
		return nil, badRequest("INVALID_SIZE", "size must be one of %v", game.BoardSizes)
	}

	pos := engine.StartingPosition(size)
	maxPoints := engine.MaxPoints(size)
	return &StartResponse{
		Size:      size,
		Position:  pos.ID(),
		MaxPoints: maxPoints,
		Winning:   maxPoints/2 + 1,
		Board:     pos.String(),
	}, nil
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.engine != nil,
	}
	if h.engine != nil {
		resp.Depth = h.engine.Depth()
	}

	// Include pool stats if available
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// Evaluate handles POST /api/evaluate
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.AcquireEval(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
			return
		}
		defer h.pool.ReleaseEval()
	}

	var req EvaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, aerr := h.evaluate(req)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Moves handles POST /api/moves
func (h *Handlers) Moves(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.AcquireEval(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
			return
		}
		defer h.pool.ReleaseEval()
	}

	var req MovesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, aerr := h.legalMoves(req)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Move handles POST /api/move
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.AcquireSearch(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
			return
		}
		defer h.pool.ReleaseSearch()
	}

	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, aerr := h.bestMove(req)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Analyze handles POST /api/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.AcquireSearch(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
			return
		}
		defer h.pool.ReleaseSearch()
	}

	var req AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, aerr := h.analyze(req)
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Start handles GET /api/start?size=N
func (h *Handlers) Start(w http.ResponseWriter, r *http.Request) {
	resp, aerr := h.start(r.URL.Query().Get("size"))
	if aerr != nil {
		writeAPIError(w, aerr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
