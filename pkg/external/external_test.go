package external

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/stackengine/pkg/engine"
)

func testSession(t *testing.T) *session {
	t.Helper()
	e, err := engine.NewEngine(engine.EngineOptions{Depth: 1})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	s := NewServer(e, ServerOptions{})
	return &session{server: s, depth: 1}
}

func startState() string {
	return "state:" + engine.StartingPosition(8).ID() + ":white"
}

func TestParseStateLine(t *testing.T) {
	id := engine.StartingPosition(8).ID()

	tests := []struct {
		name    string
		input   string
		turn    engine.Color
		points  [2]int
		max     int
		last    bool
		wantErr bool
	}{
		{"bare id", id, engine.White, [2]int{}, 0, false, false},
		{"prefix and turn", "state:" + id + ":black", engine.Black, [2]int{}, 0, false, false},
		{"points", "state:" + id + ":w:1:0", engine.White, [2]int{1, 0}, 0, false, false},
		{"all fields", "state:" + id + ":b:0:1:3:1", engine.Black, [2]int{0, 1}, 3, true, false},
		{"empty", "state:", 0, [2]int{}, 0, false, true},
		{"bad id", "state:bogus:white", 0, [2]int{}, 0, false, true},
		{"bad turn", "state:" + id + ":red", 0, [2]int{}, 0, false, true},
		{"one point field", "state:" + id + ":white:1", 0, [2]int{}, 0, false, true},
		{"negative points", "state:" + id + ":white:-1:0", 0, [2]int{}, 0, false, true},
		{"bad max", "state:" + id + ":white:0:0:x", 0, [2]int{}, 0, false, true},
		{"too many fields", "state:" + id + ":white:0:0:3:0:9", 0, [2]int{}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sl, err := ParseStateLine(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseStateLine(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStateLine error: %v", err)
			}
			if sl.Turn != tt.turn || sl.Points != tt.points || sl.MaxPoints != tt.max || sl.Last != tt.last {
				t.Errorf("got %+v", sl)
			}
			if sl.Position.ID() != id {
				t.Errorf("position = %s", sl.Position.ID())
			}
		})
	}
}

func TestStateLineRoundTrip(t *testing.T) {
	sl := &StateLine{Position: engine.StartingPosition(10), Turn: engine.Black, Points: [2]int{2, 1}, MaxPoints: 5, Last: true}
	back, err := ParseStateLine(sl.String())
	if err != nil {
		t.Fatalf("ParseStateLine(%q): %v", sl.String(), err)
	}
	if !back.Position.Equal(sl.Position) || back.Turn != sl.Turn || back.Points != sl.Points ||
		back.MaxPoints != sl.MaxPoints || back.Last != sl.Last {
		t.Errorf("round trip: %+v vs %+v", back, sl)
	}

	st := back.ToGameState()
	if st.Turn != engine.Black || !st.LastScoringOpportunity || st.MaxPoints != 5 || st.Points != [2]int{2, 1} {
		t.Errorf("ToGameState = %+v", st)
	}
}

func TestProcessCommand(t *testing.T) {
	start := engine.StartingPosition(8)
	e, _ := engine.NewEngine(engine.EngineOptions{Depth: 1})
	best, _ := e.BestMoveDepth(&engine.GameState{Position: start, Turn: engine.White}, 1)

	tests := []struct {
		name   string
		cmd    string
		prefix string
	}{
		{"version", "version", "stackengine text protocol"},
		{"help", "HELP", "Available commands"},
		{"exit", "exit", "Goodbye"},
		{"unknown", "resign", "Error: unknown command"},
		{"set depth", "set depth 2", "depth set to 2"},
		{"set depth too deep", "set depth 99", "Error: depth must be"},
		{"set missing value", "set depth", "Error: set requires"},
		{"set unknown", "set colour red", "Error: unknown option"},
		{"set prompt", "set prompt off", "prompt set to false"},
		{"eval missing state", "eval", "Error: no state"},
		{"eval bad state", "eval state:bogus", "Error: invalid state"},
		{"eval", "eval " + startState(), strconv.Itoa(engine.Evaluate(start)) + " "},
		{"moves", "moves " + startState(), engine.GenerateMoves(start, engine.White)[0].String() + " "},
		{"best", "best " + startState(), best.BestMove.String() + " " + strconv.Itoa(best.Score)},
		{"bare state", startState(), best.BestMove.String()},
		{"analyze", "analyze " + startState() + " 1", best.BestMove.String() + " " + strconv.Itoa(best.Score) + " 0\n.\n"},
		{"analyze bad count", "analyze " + startState() + " x", "Error: bad move count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testSession(t).processCommand(tt.cmd)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("processCommand(%q) = %q, want prefix %q", tt.cmd, got, tt.prefix)
			}
			if !strings.HasSuffix(got, "\n") {
				t.Errorf("response %q should end with a newline", got)
			}
		})
	}
}

func TestProcessCommandSkip(t *testing.T) {
	pos := engine.NewPosition(8)
	pos.Place(engine.Tile{Row: 3, Col: 3}, engine.White)
	pos.Place(engine.Tile{Row: 4, Col: 4}, engine.White)
	state := "state:" + pos.ID() + ":black"

	sess := testSession(t)
	if got := sess.processCommand("moves " + state); got != "none\n" {
		t.Errorf("moves = %q, want none", got)
	}
	if got := sess.processCommand("best " + state); got != "skip\n" {
		t.Errorf("best = %q, want skip", got)
	}
	if got := sess.processCommand("analyze " + state); got != ".\n" {
		t.Errorf("analyze = %q, want an empty list", got)
	}
}

func TestProcessCommandNoEngine(t *testing.T) {
	sess := &session{server: NewServer(nil, ServerOptions{}), depth: 1}
	if got := sess.processCommand("eval " + startState()); !strings.HasPrefix(got, "Error: no engine") {
		t.Errorf("got %q", got)
	}
}

func TestServerConnection(t *testing.T) {
	e, _ := engine.NewEngine(engine.EngineOptions{Depth: 1})
	srv := NewServer(e, ServerOptions{Host: "127.0.0.1", Port: 0, PromptEnabled: true})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	if err := srv.Start(); err == nil {
		t.Error("second Start should fail")
	}

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)

	readPrompt := func() {
		t.Helper()
		buf := make([]byte, 2)
		if _, err := io.ReadFull(r, buf); err != nil || string(buf) != "> " {
			t.Fatalf("prompt = %q, %v", buf, err)
		}
	}
	send := func(cmd string) string {
		t.Helper()
		if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
			t.Fatalf("Write: %v", err)
		}
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString: %v", err)
		}
		return line
	}

	readPrompt()
	if got := send("version"); !strings.HasPrefix(got, "stackengine") {
		t.Errorf("version = %q", got)
	}
	readPrompt()
	if got := send("set prompt off"); got != "prompt set to false\n" {
		t.Errorf("set prompt = %q", got)
	}
	if got := send("best " + startState()); strings.HasPrefix(got, "Error") || got == "skip\n" {
		t.Errorf("best = %q", got)
	}
	if got := send("quit"); got != "Goodbye\n" {
		t.Errorf("quit = %q", got)
	}
	if _, err := r.ReadString('\n'); err != io.EOF {
		t.Errorf("connection should close after quit, got %v", err)
	}
}

func TestServerStopClosesConnections(t *testing.T) {
	e, _ := engine.NewEngine(engine.EngineOptions{Depth: 1})
	srv := NewServer(e, ServerOptions{Host: "127.0.0.1"})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	// Wait until the server has registered the connection
	if _, err := conn.Write([]byte("version\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := bufio.NewReader(conn).ReadString('\n'); err != nil {
		t.Fatal(err)
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Error("connection should be closed after Stop")
	}
}
