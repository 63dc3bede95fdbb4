package engine

import "fmt"

// MoveStack moves the sub-stack from level up to the top of from onto to, in place.
// Moved tokens keep their order and get their new tile and level.
//
// The returned revert level is the level at which the sub-stack now starts on to
// (the pre-move height of to plus one). MoveStack(to, revertLevel, from) restores the
// original position exactly.
func (p *Position) MoveStack(from Tile, level int, to Tile) int {
	fi, ti := p.index(from), p.index(to)
	if fi == ti {
		panic(fmt.Sprintf("engine: move from %v onto itself", from))
	}
	src, dst := p.stacks[fi], p.stacks[ti]
	if level < 1 || level > len(src) {
		panic(fmt.Sprintf("engine: level %d not on %v (height %d)", level, from, len(src)))
	}
	moved := len(src) - (level - 1)
	if len(dst)+moved > MaxStackHeight {
		panic(fmt.Sprintf("engine: moving %d tokens onto %v (height %d) exceeds %d", moved, to, len(dst), MaxStackHeight))
	}

	revertLevel := len(dst) + 1
	for _, tok := range src[level-1:] {
		tok.Tile = to
		tok.Level = len(dst) + 1
		dst = append(dst, tok)
	}
	p.stacks[ti] = dst
	p.stacks[fi] = src[:level-1]
	return revertLevel
}

// Undo restores the position changed by Apply
type Undo struct {
	pos         *Position
	move        Move
	RevertLevel int
	movedID     int
	done        bool
}

// Apply plays m on the position in place and returns the handle that reverts it.
// Every Apply must be matched by exactly one Revert before the caller returns;
// the usual shape is
//
//	undo := pos.Apply(m)
//	defer undo.Revert()
func (p *Position) Apply(m Move) Undo {
	revertLevel := p.MoveStack(m.From, m.Level, m.To)
	return Undo{
		pos:         p,
		move:        m,
		RevertLevel: revertLevel,
		movedID:     p.Stack(m.To)[revertLevel-1].ID,
	}
}

// Revert moves the sub-stack back. It panics if called twice or if the destination
// no longer holds the moved sub-stack at the recorded level.
func (u *Undo) Revert() {
	if u.done {
		panic(fmt.Sprintf("engine: move %v reverted twice", u.move))
	}
	dst := u.pos.Stack(u.move.To)
	if u.RevertLevel > len(dst) || dst[u.RevertLevel-1].ID != u.movedID {
		panic(fmt.Sprintf("engine: revert of %v at level %d does not match the applied move", u.move, u.RevertLevel))
	}
	u.pos.MoveStack(u.move.To, u.RevertLevel, u.move.From)
	u.done = true
}
