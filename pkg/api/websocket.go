package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins - configure properly in production
	},
}

// WSMessage is a generic WebSocket message.
type WSMessage struct {
	Type    string          `json:"type"`    // Message type: "evaluate", "moves", "move", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a generic WebSocket response.
type WSResponse struct {
	Type    string      `json:"type"`              // Response type: "result", "error", "pong", "hello"
	ID      string      `json:"id,omitempty"`      // Request ID
	Payload interface{} `json:"payload,omitempty"` // Response data
	Error   string      `json:"error,omitempty"`   // Error message if any
	Code    string      `json:"code,omitempty"`    // Error code if any
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	id       uuid.UUID
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse
	done     chan struct{} // closed when writePump exits
	ctx      context.Context
	logger   zerolog.Logger
}

// WebSocket handles WebSocket connections for real-time analysis.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket-upgrade-failed")
		return
	}
	id := uuid.New()
	client := &WSClient{
		id:       id,
		conn:     conn,
		handlers: h,
		sendChan: make(chan WSResponse, 256),
		done:     make(chan struct{}),
		ctx:      r.Context(),
		logger:   log.With().Str("conn", id.String()).Logger(),
	}
	client.logger.Info().Str("remote", r.RemoteAddr).Msg("websocket-connected")

	go client.writePump()
	client.send(WSResponse{Type: "hello", Payload: map[string]string{"connection": id.String()}})
	client.readPump()
}

func (c *WSClient) writePump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Debug().Err(err).Msg("websocket-write-failed")
			return
		}
	}
}

// send queues resp for writePump. It drops resp once the writer is gone, so a dead
// connection never blocks the reader.
func (c *WSClient) send(resp WSResponse) {
	select {
	case c.sendChan <- resp:
	case <-c.done:
	}
}

func (c *WSClient) readPump() {
	defer func() {
		close(c.sendChan)
		c.conn.Close()
		c.logger.Info().Msg("websocket-closed")
	}()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handleMessage(msg)
	}
}

func (c *WSClient) handleMessage(msg WSMessage) {
	c.logger.Debug().Str("type", msg.Type).Str("id", msg.ID).Msg("websocket-message")

	switch msg.Type {
	case "evaluate":
		c.handleEvaluate(msg)
	case "moves":
		c.handleMoves(msg)
	case "move":
		c.handleMove(msg)
	case "analyze":
		c.handleAnalyze(msg)
	case "ping":
		c.send(WSResponse{Type: "pong", ID: msg.ID})
	default:
		c.send(WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type", Code: "UNKNOWN_TYPE"})
	}
}

func (c *WSClient) sendError(id string, err *apiError) {
	c.send(WSResponse{Type: "error", ID: id, Error: err.msg, Code: err.code})
}

func (c *WSClient) handleEvaluate(msg WSMessage) {
	var req EvaluateRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.send(WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload", Code: "INVALID_JSON"})
		return
	}
	if pool := c.handlers.pool; pool != nil {
		if err := pool.AcquireEval(c.ctx); err != nil {
			c.send(WSResponse{Type: "error", ID: msg.ID, Error: "server busy", Code: "SERVER_BUSY"})
			return
		}
		defer pool.ReleaseEval()
	}
	resp, aerr := c.handlers.evaluate(req)
	if aerr != nil {
		c.sendError(msg.ID, aerr)
		return
	}
	c.send(WSResponse{Type: "result", ID: msg.ID, Payload: resp})
}

func (c *WSClient) handleMoves(msg WSMessage) {
	var req MovesRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.send(WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload", Code: "INVALID_JSON"})
		return
	}
	if pool := c.handlers.pool; pool != nil {
		if err := pool.AcquireEval(c.ctx); err != nil {
			c.send(WSResponse{Type: "error", ID: msg.ID, Error: "server busy", Code: "SERVER_BUSY"})
			return
		}
		defer pool.ReleaseEval()
	}
	resp, aerr := c.handlers.legalMoves(req)
	if aerr != nil {
		c.sendError(msg.ID, aerr)
		return
	}
	c.send(WSResponse{Type: "result", ID: msg.ID, Payload: resp})
}

func (c *WSClient) handleMove(msg WSMessage) {
	var req MoveRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.send(WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload", Code: "INVALID_JSON"})
		return
	}
	if pool := c.handlers.pool; pool != nil {
		if err := pool.AcquireSearch(c.ctx); err != nil {
			c.send(WSResponse{Type: "error", ID: msg.ID, Error: "server busy", Code: "SERVER_BUSY"})
			return
		}
		defer pool.ReleaseSearch()
	}
	resp, aerr := c.handlers.bestMove(req)
	if aerr != nil {
		c.sendError(msg.ID, aerr)
		return
	}
	c.send(WSResponse{Type: "result", ID: msg.ID, Payload: resp})
}

func (c *WSClient) handleAnalyze(msg WSMessage) {
	var req AnalyzeRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.send(WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload", Code: "INVALID_JSON"})
		return
	}
	if pool := c.handlers.pool; pool != nil {
		if err := pool.AcquireSearch(c.ctx); err != nil {
			c.send(WSResponse{Type: "error", ID: msg.ID, Error: "server busy", Code: "SERVER_BUSY"})
			return
		}
		defer pool.ReleaseSearch()
	}
	resp, aerr := c.handlers.analyze(req)
	if aerr != nil {
		c.sendError(msg.ID, aerr)
		return
	}
	c.send(WSResponse{Type: "result", ID: msg.ID, Payload: resp})
}
