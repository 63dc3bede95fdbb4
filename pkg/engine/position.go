// Package engine provides the public API for the stacking game engine.
package engine

import (
	"fmt"
	"strings"

	"github.com/yourusername/stackengine/internal/positionid"
)

// MaxStackHeight is the height at which a stack is completed and scored
const MaxStackHeight = 8

// Color identifies a player. White is the maximizing side (positive scores).
type Color int8

const (
	NoColor Color = -1
	White   Color = 0
	Black   Color = 1
)

// Opponent returns the other color
func (c Color) Opponent() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	}
	return NoColor
}

// Sign returns +1 for White and -1 for Black
func (c Color) Sign() int {
	if c == White {
		return 1
	}
	if c == Black {
		return -1
	}
	return 0
}

// Valid reports whether c is White or Black
func (c Color) Valid() bool {
	return c == White || c == Black
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	}
	return "none"
}

// ParseColor parses "white"/"w" or "black"/"b" (case-insensitive)
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}

// Tile is a board coordinate
type Tile struct {
	Row int
	Col int
}

// Direction is a step between diagonal neighbors
type Direction struct {
	DRow int
	DCol int
}

// Add returns the tile one step away in direction d
func (t Tile) Add(d Direction) Tile {
	return Tile{Row: t.Row + d.DRow, Col: t.Col + d.DCol}
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.Row, t.Col)
}

// Diagonals lists the four neighbor directions in enumeration order
var Diagonals = [4]Direction{
	{DRow: -1, DCol: -1},
	{DRow: -1, DCol: 1},
	{DRow: 1, DCol: 1},
	{DRow: 1, DCol: -1},
}

// Token is a single game piece.
// Level is 1-based; the token at stack index i always has Level i+1.
type Token struct {
	ID    int
	Color Color
	Tile  Tile
	Level int
}

// Position is a board of stacks.
// Cells are tri-state: tiles with odd (row+col) or outside the board are not playable;
// playable tiles are either empty or hold a stack ordered bottom to top.
type Position struct {
	size     int
	stacks   [][]Token // row-major, nil for non-playable tiles
	playable []Tile    // playable tiles, row-major
	nextID   int
}

// NewPosition creates an empty board of the given size
func NewPosition(size int) *Position {
	if size < positionid.MinBoardSize || size > positionid.MaxBoardSize {
		panic(fmt.Sprintf("engine: board size %d out of range", size))
	}
	p := &Position{
		size:     size,
		stacks:   make([][]Token, size*size),
		playable: make([]Tile, 0, positionid.PlayableTiles(size)),
	}
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if (row+col)%2 == 0 {
				p.playable = append(p.playable, Tile{Row: row, Col: col})
				p.stacks[row*size+col] = make([]Token, 0, MaxStackHeight)
			}
		}
	}
	return p
}

// StartingPosition returns the standard opening position:
// one token on every playable tile except the first and last rows,
// white on even rows and black on odd rows.
func StartingPosition(size int) *Position {
	p := NewPosition(size)
	for _, t := range p.playable {
		if t.Row == 0 || t.Row == size-1 {
			continue
		}
		c := White
		if t.Row%2 == 1 {
			c = Black
		}
		p.Place(t, c)
	}
	return p
}

// MaxPoints returns the number of stacks that can be completed on a board
func MaxPoints(size int) int {
	return (size*size - 2*size) / 16
}

// Size returns the board dimension
func (p *Position) Size() int {
	return p.size
}

// InBounds reports whether both coordinates lie in [0, size)
func (p *Position) InBounds(t Tile) bool {
	return t.Row >= 0 && t.Row < p.size && t.Col >= 0 && t.Col < p.size
}

// IsPlayable reports whether t is a playable tile
func (p *Position) IsPlayable(t Tile) bool {
	return p.InBounds(t) && (t.Row+t.Col)%2 == 0
}

// PlayableTiles returns all playable tiles in row-major order.
// The slice is shared and must not be modified.
func (p *Position) PlayableTiles() []Tile {
	return p.playable
}

// index panics if t is not a playable tile
func (p *Position) index(t Tile) int {
	if !p.IsPlayable(t) {
		panic(fmt.Sprintf("engine: tile %v is not playable on a %dx%d board", t, p.size, p.size))
	}
	return t.Row*p.size + t.Col
}

// Stack returns the tokens on t, bottom first.
// The slice aliases the position and must not be modified.
func (p *Position) Stack(t Tile) []Token {
	return p.stacks[p.index(t)]
}

// Height returns the number of tokens on t
func (p *Position) Height(t Tile) int {
	return len(p.stacks[p.index(t)])
}

// Occupied reports whether t is in bounds and holds at least one token.
// Out-of-bounds tiles are simply unoccupied; non-playable in-bounds tiles panic.
func (p *Position) Occupied(t Tile) bool {
	if !p.InBounds(t) {
		return false
	}
	return len(p.stacks[p.index(t)]) > 0
}

// Top returns the topmost token on t
func (p *Position) Top(t Tile) (Token, bool) {
	s := p.stacks[p.index(t)]
	if len(s) == 0 {
		return Token{}, false
	}
	return s[len(s)-1], true
}

// Place pushes new tokens onto t, bottom first, assigning fresh identities.
// It is meant for position setup, not for play.
func (p *Position) Place(t Tile, colors ...Color) {
	i := p.index(t)
	for _, c := range colors {
		if !c.Valid() {
			panic(fmt.Sprintf("engine: cannot place token of color %v", c))
		}
		if len(p.stacks[i]) >= MaxStackHeight {
			panic(fmt.Sprintf("engine: stack on %v is full", t))
		}
		p.stacks[i] = append(p.stacks[i], Token{
			ID:    p.nextID,
			Color: c,
			Tile:  t,
			Level: len(p.stacks[i]) + 1,
		})
		p.nextID++
	}
}

// Clear removes every token from t
func (p *Position) Clear(t Tile) {
	i := p.index(t)
	p.stacks[i] = p.stacks[i][:0]
}

// TokenCount returns the number of tokens of color c on the board
func (p *Position) TokenCount(c Color) int {
	n := 0
	for _, t := range p.playable {
		for _, tok := range p.stacks[t.Row*p.size+t.Col] {
			if tok.Color == c {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy of the position
func (p *Position) Clone() *Position {
	q := &Position{
		size:     p.size,
		stacks:   make([][]Token, len(p.stacks)),
		playable: p.playable,
		nextID:   p.nextID,
	}
	for i, s := range p.stacks {
		if s == nil {
			continue
		}
		q.stacks[i] = make([]Token, len(s), MaxStackHeight)
		copy(q.stacks[i], s)
	}
	return q
}

// Equal reports whether two positions hold the same tokens (identity, color, tile
// and level) in the same stack order
func (p *Position) Equal(q *Position) bool {
	if p.size != q.size {
		return false
	}
	for _, t := range p.playable {
		a := p.stacks[t.Row*p.size+t.Col]
		b := q.stacks[t.Row*q.size+t.Col]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// Board converts the position to its engine-independent form
func (p *Position) Board() positionid.Board {
	b := positionid.Board{Size: p.size, Stacks: make([][]uint8, len(p.playable))}
	for i, t := range p.playable {
		s := p.stacks[t.Row*p.size+t.Col]
		colors := make([]uint8, len(s))
		for j, tok := range s {
			colors[j] = uint8(tok.Color)
		}
		b.Stacks[i] = colors
	}
	return b
}

// PositionFromBoard builds a position from its engine-independent form
func PositionFromBoard(b positionid.Board) (*Position, error) {
	if err := positionid.CheckBoard(b); err != nil {
		return nil, err
	}
	p := NewPosition(b.Size)
	for i, t := range p.playable {
		for _, c := range b.Stacks[i] {
			p.Place(t, Color(c))
		}
	}
	return p, nil
}

// ID returns the position ID string
func (p *Position) ID() string {
	return positionid.PositionID(p.Board())
}

// ParsePosition decodes a position ID string
func ParsePosition(id string) (*Position, error) {
	b, err := positionid.BoardFromPositionID(id)
	if err != nil {
		return nil, err
	}
	return PositionFromBoard(b)
}

// appendEncoding appends the canonical position bytes (see positionid.Board.Bytes)
func (p *Position) appendEncoding(dst []byte) []byte {
	dst = append(dst, uint8(p.size))
	for _, t := range p.playable {
		s := p.stacks[t.Row*p.size+t.Col]
		var bits uint8
		for i, tok := range s {
			if tok.Color == Black {
				bits |= 1 << uint(i)
			}
		}
		dst = positionid.AppendStack(dst, len(s), bits)
	}
	return dst
}

// Key returns the cache key of the position
func (p *Position) Key() positionid.PositionKey {
	buf := make([]byte, 0, positionid.EncodedLength(p.size))
	return positionid.MakePositionKey(p.appendEncoding(buf))
}

// String renders the board one row per line; each playable tile shows its height
// and top color (W/B), '.' marks an empty playable tile.
func (p *Position) String() string {
	var sb strings.Builder
	for row := 0; row < p.size; row++ {
		for col := 0; col < p.size; col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			t := Tile{Row: row, Col: col}
			if !p.IsPlayable(t) {
				sb.WriteString("  ")
				continue
			}
			top, ok := p.Top(t)
			if !ok {
				sb.WriteString(" .")
				continue
			}
			mark := byte('W')
			if top.Color == Black {
				mark = 'B'
			}
			sb.WriteByte(mark)
			sb.WriteByte(byte('0' + p.Height(t)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
