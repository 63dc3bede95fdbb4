package engine

import (
	"fmt"
	"regexp"
	"strconv"
)

// Move moves the sub-stack starting at Level on From onto the stack on To
type Move struct {
	From  Tile
	Level int
	To    Tile
}

func (m Move) String() string {
	return fmt.Sprintf("%v@%d->%v", m.From, m.Level, m.To)
}

var moveRE = regexp.MustCompile(`^\(\s*(\d+)\s*,\s*(\d+)\s*\)@(\d+)->\(\s*(\d+)\s*,\s*(\d+)\s*\)$`)

// ParseMove parses the notation produced by Move.String, e.g. "(2,2)@1->(3,3)".
// It checks the syntax only; legality depends on the position.
func ParseMove(s string) (Move, error) {
	m := moveRE.FindStringSubmatch(s)
	if m == nil {
		return Move{}, fmt.Errorf("invalid move %q", s)
	}
	var n [5]int
	for i := range n {
		n[i], _ = strconv.Atoi(m[i+1])
	}
	return Move{From: Tile{Row: n[0], Col: n[1]}, Level: n[2], To: Tile{Row: n[3], Col: n[4]}}, nil
}

// Candidate is a legal move tagged for the search
type Candidate struct {
	Move
	Decisive bool // completes an 8-stack that decides the game
}

// GenerateMoves returns every legal move for color c.
//
// Tiles are scanned row-major and tokens bottom to top. An isolated stack (no
// occupied neighbor) moves only as a whole, from its own-color bottom token, one step
// toward the nearest stacks. A connected stack may move any own-color sub-stack onto
// an occupied neighbor whose height is at least the token's level, provided the merged
// stack stays within MaxStackHeight.
func GenerateMoves(p *Position, c Color) []Move {
	moves := make([]Move, 0, 32)
	forEachMove(p, c, func(m Move) bool {
		moves = append(moves, m)
		return true
	})
	return moves
}

// HasLegalMove reports whether color c has at least one legal move
func HasLegalMove(p *Position, c Color) bool {
	found := false
	forEachMove(p, c, func(Move) bool {
		found = true
		return false
	})
	return found
}

// GenerateCandidates returns the legal moves for c tagged with Decisive
func GenerateCandidates(p *Position, c Color, sc SearchContext) []Candidate {
	cands := make([]Candidate, 0, 32)
	forEachMove(p, c, func(m Move) bool {
		cands = append(cands, Candidate{Move: m, Decisive: sc.decisive(p, m)})
		return true
	})
	return cands
}

// IsLegal reports whether m is among the legal moves for color c
func IsLegal(p *Position, c Color, m Move) bool {
	legal := false
	forEachMove(p, c, func(cand Move) bool {
		if cand == m {
			legal = true
			return false
		}
		return true
	})
	return legal
}

// ResultHeight returns the height of the destination stack after m
func ResultHeight(p *Position, m Move) int {
	return p.Height(m.To) + p.Height(m.From) - (m.Level - 1)
}

// forEachMove calls yield for every legal move until yield returns false
func forEachMove(p *Position, c Color, yield func(Move) bool) {
	for _, tile := range p.playable {
		stack := p.stacks[tile.Row*p.size+tile.Col]
		if len(stack) == 0 {
			continue
		}

		if !p.HasOccupiedNeighbor(tile) {
			if stack[0].Color != c {
				continue
			}
			for _, dest := range p.PotentialDestinations(tile) {
				m := Move{From: tile, Level: 1, To: dest}
				if !withinHeight(p, m) {
					continue
				}
				if !yield(m) {
					return
				}
			}
			continue
		}

		for _, tok := range stack {
			if tok.Color != c {
				continue
			}
			for _, d := range Diagonals {
				dest := tile.Add(d)
				if !p.Occupied(dest) {
					continue
				}
				// Tokens never move down in rank
				if tok.Level > p.Height(dest) {
					continue
				}
				m := Move{From: tile, Level: tok.Level, To: dest}
				if !withinHeight(p, m) {
					continue
				}
				if !yield(m) {
					return
				}
			}
		}
	}
}

// withinHeight rejects moves that would build a stack taller than MaxStackHeight
func withinHeight(p *Position, m Move) bool {
	return ResultHeight(p, m) <= MaxStackHeight
}
