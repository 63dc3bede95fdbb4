package engine

import (
	"fmt"
)

// SkillType represents the skill rating of a move.
type SkillType int

const (
	SkillVeryBad  SkillType = iota // Blunder: loses >= 40 points
	SkillBad                       // Error: loses 12-40 points
	SkillDoubtful                  // Doubtful: loses 4-12 points
	SkillNone                      // Good or best move
)

// SkillThresholds are the minimum score losses for VeryBad, Bad and Doubtful.
// A completed stack is worth 100, so a blunder usually gives one away.
var SkillThresholds = [3]int{40, 12, 4}

// String returns the display name of the skill type.
func (s SkillType) String() string {
	return [...]string{"Very Bad", "Bad", "Doubtful", "None"}[s]
}

// Abbr returns the abbreviated notation (??, ?, ?!).
func (s SkillType) Abbr() string {
	return [...]string{"??", "?", "?!", ""}[s]
}

// RatingType represents overall player rating level.
type RatingType int

const (
	RatingUndefined    RatingType = iota
	RatingAwful                   // > 12 loss per move
	RatingBeginner                // 8-12
	RatingCasualPlayer            // 5-8
	RatingIntermediate            // 3-5
	RatingAdvanced                // 1.5-3
	RatingExpert                  // 0.5-1.5
	RatingSupernatural            // < 0.5
)

// String returns the display name of the rating.
func (r RatingType) String() string {
	return [...]string{
		"Undefined", "Awful", "Beginner", "Casual Player",
		"Intermediate", "Advanced", "Expert", "Supernatural",
	}[r]
}

// ClassifySkill returns the skill rating based on score loss.
// loss should be positive for moves worse than best.
func ClassifySkill(loss int) SkillType {
	if loss >= SkillThresholds[0] {
		return SkillVeryBad
	} else if loss >= SkillThresholds[1] {
		return SkillBad
	} else if loss >= SkillThresholds[2] {
		return SkillDoubtful
	}
	return SkillNone
}

// GetRating returns the player rating based on the average loss per unforced move.
// Lower is better; moves is the number of moves the average was taken over.
func GetRating(lossPerMove float64, moves int) RatingType {
	if moves == 0 {
		return RatingUndefined
	}
	if lossPerMove < 0.5 {
		return RatingSupernatural
	} else if lossPerMove < 1.5 {
		return RatingExpert
	} else if lossPerMove < 3 {
		return RatingAdvanced
	} else if lossPerMove < 5 {
		return RatingIntermediate
	} else if lossPerMove < 8 {
		return RatingCasualPlayer
	} else if lossPerMove < 12 {
		return RatingBeginner
	}
	return RatingAwful
}

// MoveSkillAnalysis contains the detailed analysis of a single move for tutoring.
type MoveSkillAnalysis struct {
	Move      Move         // The move that was played
	BestMove  Move         // The best move according to analysis
	Score     int          // Value of the played move (White's view)
	BestScore int          // Value of the best move (White's view)
	Loss      int          // Mover's loss against the best move (positive = error)
	Skill     SkillType    // Skill rating
	IsForced  bool         // True if at most one legal move
	TopMoves  []ScoredMove // Top moves for context
}

// AnalyzeMoveSkill rates playedMove for the side to move in state.
func (e *Engine) AnalyzeMoveSkill(state *GameState, playedMove Move) (*MoveSkillAnalysis, error) {
	res, err := e.AnalyzePosition(state)
	if err != nil {
		return nil, fmt.Errorf("analyzing position: %w", err)
	}

	analysis := &MoveSkillAnalysis{
		Move:     playedMove,
		IsForced: res.NumMoves() <= 1,
		Skill:    SkillNone,
	}

	best, ok := res.Best()
	if !ok {
		return nil, fmt.Errorf("engine: %v has no legal move", state.Turn)
	}
	analysis.BestMove = best.Move
	analysis.BestScore = best.Score

	played, ok := res.Find(playedMove)
	if !ok {
		return nil, fmt.Errorf("engine: %v is not legal for %v", playedMove, state.Turn)
	}
	analysis.Score = played.Score

	// Store top moves for context (up to 5)
	maxTop := min(5, len(res.Moves))
	analysis.TopMoves = res.Moves[:maxTop]

	if analysis.IsForced {
		return analysis, nil
	}
	analysis.Loss = res.Loss(played)
	analysis.Skill = ClassifySkill(analysis.Loss)
	return analysis, nil
}
