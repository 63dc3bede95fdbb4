package engine

import (
	"testing"
)

// buildPosition places the given stacks (bottom first) on an empty board
func buildPosition(size int, stacks map[Tile][]Color) *Position {
	p := NewPosition(size)
	for _, t := range p.PlayableTiles() {
		if colors, ok := stacks[t]; ok {
			p.Place(t, colors...)
		}
	}
	return p
}

func repeat(c Color, n int) []Color {
	colors := make([]Color, n)
	for i := range colors {
		colors[i] = c
	}
	return colors
}

func TestStartingPosition(t *testing.T) {
	for _, size := range []int{8, 10, 16} {
		p := StartingPosition(size)
		perColor := (size - 2) * size / 4

		if got := p.TokenCount(White); got != perColor {
			t.Errorf("size %d: expected %d white tokens, got %d", size, perColor, got)
		}
		if got := p.TokenCount(Black); got != perColor {
			t.Errorf("size %d: expected %d black tokens, got %d", size, perColor, got)
		}

		for _, tile := range p.PlayableTiles() {
			h := p.Height(tile)
			if tile.Row == 0 || tile.Row == size-1 {
				if h != 0 {
					t.Errorf("size %d: expected empty edge tile %v, got height %d", size, tile, h)
				}
				continue
			}
			if h != 1 {
				t.Fatalf("size %d: expected one token on %v, got %d", size, tile, h)
			}
			want := White
			if tile.Row%2 == 1 {
				want = Black
			}
			top, _ := p.Top(tile)
			if top.Color != want {
				t.Errorf("size %d: tile %v expected %v, got %v", size, tile, want, top.Color)
			}
		}
	}
}

func TestMaxPoints(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{8, 3},
		{10, 5},
		{16, 14},
	}
	for _, tt := range tests {
		if got := MaxPoints(tt.size); got != tt.want {
			t.Errorf("MaxPoints(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestPlayableTiles(t *testing.T) {
	p := NewPosition(8)
	if len(p.PlayableTiles()) != 32 {
		t.Fatalf("Expected 32 playable tiles, got %d", len(p.PlayableTiles()))
	}
	for _, tile := range p.PlayableTiles() {
		if (tile.Row+tile.Col)%2 != 0 {
			t.Errorf("Tile %v should not be playable", tile)
		}
	}
	if p.IsPlayable(Tile{Row: 0, Col: 1}) {
		t.Error("(0,1) should not be playable")
	}
	if p.IsPlayable(Tile{Row: -1, Col: -1}) {
		t.Error("(-1,-1) is out of bounds")
	}
}

func TestNonPlayableTilePanics(t *testing.T) {
	p := NewPosition(8)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic when querying a non-playable tile")
		}
	}()
	p.Height(Tile{Row: 2, Col: 3})
}

func TestOccupiedOutOfBounds(t *testing.T) {
	p := buildPosition(8, map[Tile][]Color{{Row: 0, Col: 0}: {White}})

	if !p.Occupied(Tile{Row: 0, Col: 0}) {
		t.Error("Expected (0,0) to be occupied")
	}
	if p.Occupied(Tile{Row: -1, Col: 1}) {
		t.Error("Out-of-bounds tile reported occupied")
	}
	if p.Occupied(Tile{Row: 1, Col: 1}) {
		t.Error("Empty tile reported occupied")
	}
}

func TestPlaceLevels(t *testing.T) {
	tile := Tile{Row: 3, Col: 3}
	p := buildPosition(8, map[Tile][]Color{tile: {White, Black, White}})

	for i, tok := range p.Stack(tile) {
		if tok.Level != i+1 {
			t.Errorf("Token %d has level %d", i, tok.Level)
		}
		if tok.Tile != tile {
			t.Errorf("Token %d has tile %v", i, tok.Tile)
		}
	}
	top, ok := p.Top(tile)
	if !ok || top.Color != White {
		t.Errorf("Expected white top, got %v", top.Color)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := StartingPosition(8)
	q := p.Clone()
	if !p.Equal(q) {
		t.Fatal("Clone should equal the original")
	}

	q.MoveStack(Tile{Row: 1, Col: 1}, 1, Tile{Row: 2, Col: 2})
	if p.Equal(q) {
		t.Error("Moving on the clone changed the original")
	}
	if p.Height(Tile{Row: 1, Col: 1}) != 1 {
		t.Error("Original stack was modified")
	}
}

func TestPositionIDRoundTrip(t *testing.T) {
	p := buildPosition(10, map[Tile][]Color{
		{Row: 0, Col: 0}: {White},
		{Row: 4, Col: 4}: {Black, White, Black},
		{Row: 9, Col: 9}: repeat(Black, 7),
	})

	q, err := ParsePosition(p.ID())
	if err != nil {
		t.Fatalf("ParsePosition failed: %v", err)
	}
	if q.String() != p.String() {
		t.Errorf("Round trip changed the board:\n%s\nvs\n%s", p, q)
	}
	if q.Key() != p.Key() {
		t.Error("Round trip changed the position key")
	}
	if StartingPosition(10).Key() == p.Key() {
		t.Error("Different positions share a key")
	}
}

func TestParsePositionInvalid(t *testing.T) {
	if _, err := ParsePosition("!!!"); err == nil {
		t.Error("Expected error for invalid position ID")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"white", White, false},
		{"W", White, false},
		{" black ", Black, false},
		{"b", Black, false},
		{"red", NoColor, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
