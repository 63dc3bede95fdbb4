package engine

import (
	"testing"
)

func TestAnalyzePositionMatchesSearch(t *testing.T) {
	e, _ := NewEngine(EngineOptions{Depth: 2, CacheSize: -1})

	for _, plies := range []int{0, 3, 6} {
		for _, turn := range []Color{White, Black} {
			pos := playOpening(8, plies)
			state := &GameState{Position: pos, Turn: turn}

			res, err := e.AnalyzePosition(state)
			if err != nil {
				t.Fatalf("AnalyzePosition: %v", err)
			}
			sr, err := e.BestMove(state)
			if err != nil {
				t.Fatalf("BestMove: %v", err)
			}

			if res.NumMoves() != len(GenerateMoves(pos, turn)) {
				t.Errorf("plies %d %v: %d moves analyzed, want %d", plies, turn, res.NumMoves(), len(GenerateMoves(pos, turn)))
			}
			best, ok := res.Best()
			if !ok {
				if sr.BestMove != nil {
					t.Errorf("plies %d %v: analysis found no move, search found %v", plies, turn, *sr.BestMove)
				}
				continue
			}
			if sr.BestMove == nil || best.Move != *sr.BestMove {
				t.Errorf("plies %d %v: best %v, search chose %v", plies, turn, best.Move, sr.BestMove)
			}
			if best.Score != sr.Score {
				t.Errorf("plies %d %v: best score %d, search score %d", plies, turn, best.Score, sr.Score)
			}
		}
	}
}

func TestAnalyzePositionOrdering(t *testing.T) {
	e, _ := NewEngine(EngineOptions{Depth: 1})
	pos := playOpening(8, 4)

	for _, turn := range []Color{White, Black} {
		res, err := e.AnalyzePosition(&GameState{Position: pos, Turn: turn})
		if err != nil {
			t.Fatal(err)
		}
		for i := 1; i < len(res.Moves); i++ {
			if turn.Sign()*res.Moves[i].Score > turn.Sign()*res.Moves[i-1].Score {
				t.Errorf("%v: move %d scores better than move %d", turn, i, i-1)
			}
			if res.Loss(res.Moves[i]) < 0 {
				t.Errorf("%v: negative loss for move %d", turn, i)
			}
		}
	}
}

func TestAnalyzePositionDoesNotModify(t *testing.T) {
	e, _ := NewEngine(EngineOptions{Depth: 2})
	pos := playOpening(8, 2)
	before := pos.Clone()

	if _, err := e.AnalyzePosition(&GameState{Position: pos, Turn: White}); err != nil {
		t.Fatal(err)
	}
	if !pos.Equal(before) {
		t.Error("AnalyzePosition modified the position")
	}
}

func TestAnalyzePositionErrors(t *testing.T) {
	e, _ := NewEngine(EngineOptions{})

	if _, err := e.AnalyzePosition(nil); err == nil {
		t.Error("expected an error for a nil state")
	}
	if _, err := e.AnalyzePositionDepth(&GameState{Position: StartingPosition(8), Turn: White}, 0); err == nil {
		t.Error("expected an error for depth 0")
	}
}

func TestAnalyzePositionSkip(t *testing.T) {
	e, _ := NewEngine(EngineOptions{Depth: 1})
	pos := buildPosition(8, map[Tile][]Color{{3, 3}: {White}, {4, 4}: {White}})

	res, err := e.AnalyzePosition(&GameState{Position: pos, Turn: Black})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Best(); ok || res.NumMoves() != 0 {
		t.Errorf("expected no moves, got %d", res.NumMoves())
	}
}

func TestRankMoves(t *testing.T) {
	e, _ := NewEngine(EngineOptions{Depth: 1})
	state := &GameState{Position: StartingPosition(8), Turn: White}

	all, err := e.RankMoves(state, 0)
	if err != nil {
		t.Fatal(err)
	}
	top, err := e.RankMoves(state, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 3 {
		t.Fatalf("RankMoves(3) returned %d moves", len(top))
	}
	for i := range top {
		if top[i] != all[i] {
			t.Errorf("rank %d: %v vs %v", i, top[i], all[i])
		}
	}
}

func TestClassifySkill(t *testing.T) {
	tests := []struct {
		loss int
		want SkillType
	}{
		{0, SkillNone},
		{3, SkillNone},
		{4, SkillDoubtful},
		{11, SkillDoubtful},
		{12, SkillBad},
		{39, SkillBad},
		{40, SkillVeryBad},
		{200, SkillVeryBad},
	}
	for _, tt := range tests {
		if got := ClassifySkill(tt.loss); got != tt.want {
			t.Errorf("ClassifySkill(%d) = %v, want %v", tt.loss, got, tt.want)
		}
	}
}

func TestSkillStrings(t *testing.T) {
	if SkillVeryBad.Abbr() != "??" || SkillBad.Abbr() != "?" || SkillDoubtful.Abbr() != "?!" || SkillNone.Abbr() != "" {
		t.Error("unexpected skill abbreviations")
	}
	if SkillBad.String() != "Bad" {
		t.Errorf("SkillBad.String() = %q", SkillBad.String())
	}
}

func TestGetRating(t *testing.T) {
	tests := []struct {
		loss  float64
		moves int
		want  RatingType
	}{
		{0, 0, RatingUndefined},
		{0.1, 10, RatingSupernatural},
		{1, 10, RatingExpert},
		{2, 10, RatingAdvanced},
		{4, 10, RatingIntermediate},
		{6, 10, RatingCasualPlayer},
		{10, 10, RatingBeginner},
		{30, 10, RatingAwful},
	}
	for _, tt := range tests {
		if got := GetRating(tt.loss, tt.moves); got != tt.want {
			t.Errorf("GetRating(%v, %d) = %v, want %v", tt.loss, tt.moves, got, tt.want)
		}
	}
}

func TestAnalyzeMoveSkill(t *testing.T) {
	e, _ := NewEngine(EngineOptions{Depth: 1})
	pos := playOpening(8, 4)
	state := &GameState{Position: pos, Turn: White}

	res, err := e.AnalyzePosition(state)
	if err != nil {
		t.Fatal(err)
	}
	best, _ := res.Best()
	worst := res.Moves[len(res.Moves)-1]

	a, err := e.AnalyzeMoveSkill(state, best.Move)
	if err != nil {
		t.Fatal(err)
	}
	if a.Loss != 0 || a.Skill != SkillNone || a.BestMove != best.Move {
		t.Errorf("best move analysis = %+v", a)
	}
	if len(a.TopMoves) != min(5, res.NumMoves()) {
		t.Errorf("TopMoves = %d", len(a.TopMoves))
	}

	a, err = e.AnalyzeMoveSkill(state, worst.Move)
	if err != nil {
		t.Fatal(err)
	}
	if a.Loss != res.Loss(worst) || a.Skill != ClassifySkill(res.Loss(worst)) {
		t.Errorf("worst move analysis = %+v, want loss %d", a, res.Loss(worst))
	}

	illegal := Move{From: Tile{0, 0}, Level: 1, To: Tile{7, 7}}
	if _, err := e.AnalyzeMoveSkill(state, illegal); err == nil {
		t.Error("expected an error for an illegal move")
	}
}

func TestAnalyzeMoveSkillDecisive(t *testing.T) {
	e, _ := NewEngine(EngineOptions{Depth: 2})
	pos := buildPosition(8, map[Tile][]Color{
		{3, 3}: repeat(White, 4),
		{4, 4}: {Black, Black, Black, White},
	})
	state := &GameState{Position: pos, Turn: White}

	res, err := e.AnalyzePosition(state)
	if err != nil {
		t.Fatal(err)
	}
	best, _ := res.Best()
	if !best.Decisive || ResultHeight(pos, best.Move) != MaxStackHeight {
		t.Fatalf("best = %+v, want the decisive completion", best)
	}
}
