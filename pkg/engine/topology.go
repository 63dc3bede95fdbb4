package engine

// HasOccupiedNeighbor reports whether any diagonal neighbor of t holds a stack
func (p *Position) HasOccupiedNeighbor(t Tile) bool {
	p.index(t)
	for _, d := range Diagonals {
		if p.Occupied(t.Add(d)) {
			return true
		}
	}
	return false
}

// nearestStacks returns the occupied tiles on the closest ring around t that has any.
//
// Ring k is swept from two anchors, (row-k, col-k) and (row+k, col+k). From the first
// anchor one sweep walks right along the top row and one walks down the left column;
// from the second anchor one walks left along the bottom row and one walks up the right
// column. Sweeps advance two columns/rows at a time so they stay on playable tiles, and
// the two remaining corners close the ring. A ring is always swept completely before
// deciding whether to expand.
func (p *Position) nearestStacks(t Tile) []Tile {
	p.index(t)
	var hits []Tile
	visit := func(c Tile) {
		if p.Occupied(c) {
			hits = append(hits, c)
		}
	}

	for k := 1; k < p.size && len(hits) == 0; k++ {
		top, bottom := t.Row-k, t.Row+k
		left, right := t.Col-k, t.Col+k
		for i := 0; i < k; i++ {
			step := 2 * i
			visit(Tile{Row: top, Col: left + step})
			if i > 0 {
				visit(Tile{Row: top + step, Col: left})
			}
			visit(Tile{Row: bottom, Col: right - step})
			if i > 0 {
				visit(Tile{Row: bottom - step, Col: right})
			}
		}
		visit(Tile{Row: top, Col: right})
		visit(Tile{Row: bottom, Col: left})
	}
	return hits
}

// NearestStackDirections returns the diagonal directions leading from t toward the
// nearest stacks, deduplicated and in Diagonals order. A stack lying mostly vertically
// away yields both diagonals on that side; mostly horizontally likewise; an exact
// diagonal yields that single direction. An empty board yields none.
func (p *Position) NearestStackDirections(t Tile) []Direction {
	var found [len(Diagonals)]bool
	mark := func(dRow, dCol int) {
		for i, d := range Diagonals {
			if d.DRow == dRow && d.DCol == dCol {
				found[i] = true
				return
			}
		}
	}

	for _, hit := range p.nearestStacks(t) {
		dRow := hit.Row - t.Row
		dCol := hit.Col - t.Col
		stepRow, stepCol := sign(dRow), sign(dCol)
		switch {
		case abs(dRow) > abs(dCol):
			mark(stepRow, -1)
			mark(stepRow, 1)
		case abs(dRow) < abs(dCol):
			mark(-1, stepCol)
			mark(1, stepCol)
		default:
			mark(stepRow, stepCol)
		}
	}

	var dirs []Direction
	for i, ok := range found {
		if ok {
			dirs = append(dirs, Diagonals[i])
		}
	}
	return dirs
}

// PotentialDestinations returns the in-bounds tiles one step from t toward the
// nearest stacks
func (p *Position) PotentialDestinations(t Tile) []Tile {
	var dests []Tile
	for _, d := range p.NearestStackDirections(t) {
		if dest := t.Add(d); p.InBounds(dest) {
			dests = append(dests, dest)
		}
	}
	return dests
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
