package engine

// Heuristic weights
const (
	heightWeight    = 2
	mobilityWeight  = 2
	centerWeight    = 2
	completedWeight = 100
)

// Evaluation is a heuristic score broken down by term.
// Every term is from White's point of view: positive favors White.
type Evaluation struct {
	Score     int // Sum of all terms
	Height    int // 2*(height-1) per stack, signed by top color
	Mobility  int // 2*|potential destinations| per stack
	Center    int // 2 per stack inside the central square
	Completed int // 100 per 8-stack
	Material  int // White tokens minus Black tokens
}

// Evaluate scores a position; larger favors White
func Evaluate(p *Position) int {
	return EvaluateDetailed(p).Score
}

// EvaluateDetailed scores a position and reports each term.
// Every non-empty stack contributes on behalf of its top token's color.
func EvaluateDetailed(p *Position) Evaluation {
	var ev Evaluation
	lo, hi := p.size/4, 3*p.size/4

	for _, t := range p.playable {
		stack := p.stacks[t.Row*p.size+t.Col]
		if len(stack) == 0 {
			continue
		}
		for _, tok := range stack {
			ev.Material += tok.Color.Sign()
		}

		sign := stack[len(stack)-1].Color.Sign()
		height := len(stack)

		ev.Height += sign * heightWeight * (height - 1)
		ev.Mobility += sign * mobilityWeight * len(p.PotentialDestinations(t))
		if t.Row >= lo && t.Row < hi && t.Col >= lo && t.Col < hi {
			ev.Center += sign * centerWeight
		}
		if height == MaxStackHeight {
			ev.Completed += sign * completedWeight
		}
	}

	ev.Score = ev.Height + ev.Mobility + ev.Center + ev.Completed + ev.Material
	return ev
}
