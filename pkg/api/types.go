// Package api provides the HTTP/JSON and WebSocket analysis API for the stacking game engine.
package api

import (
	"github.com/yourusername/stackengine/pkg/engine"
)

// ============================================================================
// Request Types
// ============================================================================

// EvaluateRequest is the request body for position evaluation.
type EvaluateRequest struct {
	Position string `json:"position"` // Position ID
}

// MovesRequest is the request body for listing legal moves.
type MovesRequest struct {
	Position string `json:"position"` // Position ID
	Turn     string `json:"turn"`     // "white" or "black"
}

// MoveRequest is the request body for finding the best move.
type MoveRequest struct {
	Position               string `json:"position"`                           // Position ID
	Turn                   string `json:"turn"`                               // "white" or "black"
	Points                 [2]int `json:"points,omitempty"`                   // Points scored [white, black]
	MaxPoints              int    `json:"max_points,omitempty"`               // 0 = derive from board size
	LastScoringOpportunity bool   `json:"last_scoring_opportunity,omitempty"` // Only one stack left to complete
	Depth                  int    `json:"depth,omitempty"`                    // Search depth (0 = engine default)
}

// AnalyzeRequest is the request body for ranking every legal move.
type AnalyzeRequest struct {
	MoveRequest
	Top int `json:"top,omitempty"` // Number of moves to return (0 = all)
}

// ============================================================================
// Response Types
// ============================================================================

// MoveJSON is a move in the response.
type MoveJSON struct {
	From     [2]int `json:"from"`     // [row, col] of the source stack
	Level    int    `json:"level"`    // Level of the lowest moved token (1-based)
	To       [2]int `json:"to"`       // [row, col] of the destination stack
	Notation string `json:"notation"` // Human-readable move, e.g. "(2,2)@1->(3,3)"
	Height   int    `json:"height"`   // Destination height after the move
}

// EvaluateResponse is the response for position evaluation.
type EvaluateResponse struct {
	Position    string `json:"position"`     // Position evaluated
	Score       int    `json:"score"`        // Heuristic score (positive favors white)
	Height      int    `json:"height"`       // Height term
	Mobility    int    `json:"mobility"`     // Mobility term
	Center      int    `json:"center"`       // Center term
	Completed   int    `json:"completed"`    // Completed-stack term
	Material    int    `json:"material"`     // White tokens minus black tokens
	WhiteTokens int    `json:"white_tokens"` // White tokens on the board
	BlackTokens int    `json:"black_tokens"` // Black tokens on the board
}

// MovesResponse is the response for legal moves.
type MovesResponse struct {
	Position string     `json:"position"`  // Position evaluated
	Turn     string     `json:"turn"`      // Side to move
	Moves    []MoveJSON `json:"moves"`     // Legal moves in enumeration order
	NumLegal int        `json:"num_legal"` // Number of legal moves
	Skip     bool       `json:"skip"`      // True if the side to move must skip
}

// BestMoveResponse is the response for the best move.
type BestMoveResponse struct {
	Position string    `json:"position"`         // Position searched
	Turn     string    `json:"turn"`             // Side to move
	Move     *MoveJSON `json:"move,omitempty"`   // Best move, absent when skipping
	Skip     bool      `json:"skip"`             // True if the side to move must skip
	Score    int       `json:"score"`            // Search score (positive favors white)
	Depth    int       `json:"depth"`            // Search depth used
	Nodes    int64     `json:"nodes"`            // Nodes searched
	TimeMs   float64   `json:"time_ms"`          // Search time in milliseconds
	Result   string    `json:"result,omitempty"` // Position ID after the move
}

// RankedMoveJSON is a move with its search score.
type RankedMoveJSON struct {
	MoveJSON
	Score    int  `json:"score"`    // Search score after the move (positive favors white)
	Loss     int  `json:"loss"`     // Mover's loss against the best move
	Decisive bool `json:"decisive"` // Completes a stack that decides the game
}

// AnalyzeResponse is the response for move ranking.
type AnalyzeResponse struct {
	Position string           `json:"position"`  // Position analyzed
	Turn     string           `json:"turn"`      // Side to move
	Moves    []RankedMoveJSON `json:"moves"`     // Best first
	NumLegal int              `json:"num_legal"` // Number of legal moves
	Skip     bool             `json:"skip"`      // True if the side to move must skip
	Depth    int              `json:"depth"`     // Search depth used
	Nodes    int64            `json:"nodes"`     // Nodes searched
	TimeMs   float64          `json:"time_ms"`   // Analysis time in milliseconds
}

// StartResponse is the response for the starting position.
type StartResponse struct {
	Size      int    `json:"size"`       // Board size
	Position  string `json:"position"`   // Position ID of the opening position
	MaxPoints int    `json:"max_points"` // Stacks that can be completed
	Winning   int    `json:"winning"`    // Points needed to win
	Board     string `json:"board"`      // Text diagram
}

// ArenaGame is one finished arena game.
type ArenaGame struct {
	ID     string `json:"id"`     // Game ID
	White  string `json:"white"`  // Engine playing white ("A" or "B")
	Winner string `json:"winner"` // Winning engine ("A", "B" or "-" for a draw)
	Points [2]int `json:"points"` // Final points [white, black]
	Plies  int    `json:"plies"`  // Plies played
	Capped bool   `json:"capped"` // Stopped by the ply cap
}

// ArenaProgress is sent after each finished arena game.
type ArenaProgress struct {
	Done    int     `json:"done"`    // Games finished
	Total   int     `json:"total"`   // Games requested
	Percent float64 `json:"percent"` // Percentage complete (0-100)
}

// ArenaResponse summarizes an arena match.
type ArenaResponse struct {
	Games        []ArenaGame `json:"games"`
	WinsA        int         `json:"wins_a"`
	WinsB        int         `json:"wins_b"`
	Draws        int         `json:"draws"`
	WhiteWins    int         `json:"white_wins"`
	BlackWins    int         `json:"black_wins"`
	MeanPlies    float64     `json:"mean_plies"`
	StdDevPlies  float64     `json:"std_dev_plies"`
	MeanMargin   float64     `json:"mean_margin"`
	StdDevMargin float64     `json:"std_dev_margin"`
	ElapsedMs    float64     `json:"elapsed_ms"`
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error   string `json:"error"`             // Error message
	Code    string `json:"code,omitempty"`    // Error code
	Details string `json:"details,omitempty"` // Additional details
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string     `json:"status"`          // "ok" or "error"
	Version string     `json:"version"`         // Engine version
	Ready   bool       `json:"ready"`           // Whether an engine is attached
	Depth   int        `json:"depth,omitempty"` // Default search depth
	Pool    *PoolStats `json:"pool,omitempty"`  // Worker pool statistics
}

// ============================================================================
// Helper Functions
// ============================================================================

// MoveToJSON converts an engine move to its API form. height is the destination
// height after the move.
func MoveToJSON(m engine.Move, height int) MoveJSON {
	return MoveJSON{
		From:     [2]int{m.From.Row, m.From.Col},
		Level:    m.Level,
		To:       [2]int{m.To.Row, m.To.Col},
		Notation: m.String(),
		Height:   height,
	}
}

// EvalToResponse converts an engine Evaluation to an API response.
func EvalToResponse(position string, pos *engine.Position, ev engine.Evaluation) *EvaluateResponse {
	return &EvaluateResponse{
		Position:    position,
		Score:       ev.Score,
		Height:      ev.Height,
		Mobility:    ev.Mobility,
		Center:      ev.Center,
		Completed:   ev.Completed,
		Material:    ev.Material,
		WhiteTokens: pos.TokenCount(engine.White),
		BlackTokens: pos.TokenCount(engine.Black),
	}
}
