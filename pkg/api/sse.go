package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yourusername/stackengine/pkg/arena"
)

// Arena stream limits
const (
	maxArenaGames = 100
	maxArenaDepth = 4
)

// ArenaSSE handles Server-Sent Events for streaming engine-versus-engine matches.
// GET /api/arena/stream?games=...&size=...&depth_a=...&depth_b=...&seed=...
func (h *Handlers) ArenaSSE(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	query := r.URL.Query()
	cfg := arena.DefaultConfig()
	cfg.Games = parseIntParam(query.Get("games"), cfg.Games)
	cfg.Size = parseIntParam(query.Get("size"), cfg.Size)
	cfg.DepthA = parseIntParam(query.Get("depth_a"), cfg.DepthA)
	cfg.DepthB = parseIntParam(query.Get("depth_b"), cfg.DepthB)
	cfg.RandomPlies = parseIntParam(query.Get("random_plies"), cfg.RandomPlies)
	cfg.Seed = uint64(parseIntParam(query.Get("seed"), 0))

	if cfg.Games <= 0 || cfg.Games > maxArenaGames {
		writeSSEError(w, fmt.Sprintf("games must be between 1 and %d", maxArenaGames))
		return
	}
	if cfg.DepthA <= 0 || cfg.DepthA > maxArenaDepth || cfg.DepthB <= 0 || cfg.DepthB > maxArenaDepth {
		writeSSEError(w, fmt.Sprintf("depths must be between 1 and %d", maxArenaDepth))
		return
	}
	if cfg.RandomPlies < 0 {
		writeSSEError(w, "random_plies must not be negative")
		return
	}

	// Flush function for streaming
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeSSEError(w, "streaming not supported")
		return
	}

	if h.pool != nil {
		if err := h.pool.AcquireSearch(r.Context()); err != nil {
			writeSSEError(w, "server busy")
			return
		}
		defer h.pool.ReleaseSearch()
	}

	// Progress arrives from arena workers; the writer is not safe for concurrent use
	progress := make(chan ArenaProgress, cfg.Games)
	cfg.Progress = func(done, total int) {
		progress <- ArenaProgress{Done: done, Total: total, Percent: float64(done) / float64(total) * 100}
	}

	type outcome struct {
		res *arena.Result
		err error
	}
	finished := make(chan outcome, 1)
	go func() {
		res, err := arena.Run(r.Context(), cfg)
		finished <- outcome{res, err}
	}()

	for {
		select {
		case p := <-progress:
			writeSSEEvent(w, "progress", p)
			flusher.Flush()
		case out := <-finished:
			// Drain progress sent before the match returned
			for len(progress) > 0 {
				writeSSEEvent(w, "progress", <-progress)
			}
			if out.err != nil {
				writeSSEError(w, "arena failed: "+out.err.Error())
				return
			}
			writeSSEEvent(w, "result", ArenaToResponse(out.res))
			flusher.Flush()

			// Send done event to signal completion
			writeSSEEvent(w, "done", nil)
			flusher.Flush()
			return
		}
	}
}

// ArenaToResponse converts an arena result to an API response.
func ArenaToResponse(res *arena.Result) *ArenaResponse {
	resp := &ArenaResponse{
		Games:        make([]ArenaGame, len(res.Games)),
		WinsA:        res.WinsA,
		WinsB:        res.WinsB,
		Draws:        res.Draws,
		WhiteWins:    res.WhiteWins,
		BlackWins:    res.BlackWins,
		MeanPlies:    res.MeanPlies,
		StdDevPlies:  res.StdDevPlies,
		MeanMargin:   res.MeanMargin,
		StdDevMargin: res.StdDevMargin,
		ElapsedMs:    float64(res.Elapsed.Microseconds()) / 1000,
	}
	for i, g := range res.Games {
		resp.Games[i] = ArenaGame{
			ID:     g.ID.String(),
			White:  g.White.String(),
			Winner: g.WinnerSide.String(),
			Points: g.Points,
			Plies:  g.Plies,
			Capped: g.Capped,
		}
	}
	return resp
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprintf(w, "\n")
}

// writeSSEError writes an error event and closes the stream.
func writeSSEError(w http.ResponseWriter, message string) {
	writeSSEEvent(w, "error", map[string]string{"error": message})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// parseIntParam parses an integer from a string with a default value.
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	var val int
	if _, err := fmt.Sscanf(s, "%d", &val); err != nil {
		return defaultVal
	}
	return val
}
