package external

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/stackengine/pkg/engine"
)

// StateLine is a parsed state string.
// Format: state:positionID:turn[:whitePoints:blackPoints[:maxPoints[:last]]]
type StateLine struct {
	Position  *engine.Position
	Turn      engine.Color
	Points    [2]int // Points scored [white, black]
	MaxPoints int    // 0 = derive from the board size
	Last      bool   // Only one stack left to complete
}

// ParseStateLine parses a state string. The "state:" prefix is optional; a bare
// position ID means White to move with nothing scored.
func ParseStateLine(s string) (*StateLine, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "state:")
	parts := strings.Split(s, ":")
	if parts[0] == "" {
		return nil, fmt.Errorf("invalid state: missing position")
	}

	pos, err := engine.ParsePosition(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid state: %w", err)
	}
	sl := &StateLine{Position: pos, Turn: engine.White}

	if len(parts) > 1 {
		if sl.Turn, err = engine.ParseColor(parts[1]); err != nil {
			return nil, fmt.Errorf("invalid state: %w", err)
		}
	}
	if len(parts) == 3 || len(parts) > 6 {
		return nil, fmt.Errorf("invalid state: expected 1, 2, 4, 5 or 6 fields, got %d", len(parts))
	}
	if len(parts) > 3 {
		for i := 0; i < 2; i++ {
			n, err := strconv.Atoi(parts[2+i])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid state: bad points %q", parts[2+i])
			}
			sl.Points[i] = n
		}
	}
	if len(parts) > 4 {
		if sl.MaxPoints, err = strconv.Atoi(parts[4]); err != nil || sl.MaxPoints < 0 {
			return nil, fmt.Errorf("invalid state: bad max points %q", parts[4])
		}
	}
	if len(parts) > 5 {
		sl.Last = parts[5] == "1"
	}
	return sl, nil
}

// String formats the state with every field
func (sl *StateLine) String() string {
	last := "0"
	if sl.Last {
		last = "1"
	}
	return fmt.Sprintf("state:%s:%s:%d:%d:%d:%s", sl.Position.ID(), sl.Turn,
		sl.Points[engine.White], sl.Points[engine.Black], sl.MaxPoints, last)
}

// ToGameState converts the state line to an engine GameState.
func (sl *StateLine) ToGameState() *engine.GameState {
	return &engine.GameState{
		Position:               sl.Position,
		Turn:                   sl.Turn,
		Points:                 sl.Points,
		MaxPoints:              sl.MaxPoints,
		LastScoringOpportunity: sl.Last,
	}
}
