// Package positionid implements position encoding/decoding for stacking game boards.
//
// A position ID is a compact URL-safe base64 string (no padding) that uniquely identifies a board position:
// the board size followed by one (height, color bits) pair per playable tile in
// row-major order. The same canonical bytes feed MakePositionKey, which produces the
// fixed-size key used by the evaluation cache.
package positionid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
)

const (
	// MinBoardSize is the smallest board a position ID may describe
	MinBoardSize = 2
	// MaxBoardSize is the largest board a position ID may describe
	MaxBoardSize = 32
	// MaxHeight is the maximum number of tokens on one tile
	MaxHeight = 8
)

// idEncoding is the position ID alphabet: A-Z a-z 0-9 - _, unpadded
var idEncoding = base64.RawURLEncoding

// ErrInvalidPositionID is returned when a position ID is invalid
var ErrInvalidPositionID = errors.New("invalid position ID")

// Board is the engine-independent view of a position.
// Stacks holds one entry per playable tile (row+col even) in row-major order;
// each entry lists token colors bottom to top (0 = white, 1 = black).
type Board struct {
	Size   int
	Stacks [][]uint8
}

// PositionKey is a 128-bit digest of a position's canonical bytes
type PositionKey struct {
	Hi uint64
	Lo uint64
}

// PlayableTiles returns the number of playable tiles on a size x size board
func PlayableTiles(size int) int {
	return (size*size + 1) / 2
}

// EncodedLength returns the length of the canonical byte encoding for a board size
func EncodedLength(size int) int {
	return 1 + 2*PlayableTiles(size)
}

// AppendStack appends the canonical two-byte encoding of a single stack.
// colorBits has bit i set when the token at level i+1 is black.
func AppendStack(dst []byte, height int, colorBits uint8) []byte {
	return append(dst, uint8(height), colorBits)
}

// Bytes returns the canonical byte encoding of the board
func (b Board) Bytes() []byte {
	buf := make([]byte, 0, EncodedLength(b.Size))
	buf = append(buf, uint8(b.Size))
	for _, stack := range b.Stacks {
		var bits uint8
		for i, c := range stack {
			if c != 0 {
				bits |= 1 << uint(i)
			}
		}
		buf = AppendStack(buf, len(stack), bits)
	}
	return buf
}

// CheckBoard validates that a board is well formed
func CheckBoard(b Board) error {
	if b.Size < MinBoardSize || b.Size > MaxBoardSize {
		return fmt.Errorf("%w: board size %d out of range", ErrInvalidPositionID, b.Size)
	}
	if len(b.Stacks) != PlayableTiles(b.Size) {
		return fmt.Errorf("%w: expected %d stacks, got %d", ErrInvalidPositionID, PlayableTiles(b.Size), len(b.Stacks))
	}
	for i, stack := range b.Stacks {
		if len(stack) > MaxHeight {
			return fmt.Errorf("%w: stack %d has %d tokens", ErrInvalidPositionID, i, len(stack))
		}
		for _, c := range stack {
			if c > 1 {
				return fmt.Errorf("%w: stack %d has unknown color %d", ErrInvalidPositionID, i, c)
			}
		}
	}
	return nil
}

// PositionID generates a base64 position ID string from a board
func PositionID(b Board) string {
	return idEncoding.EncodeToString(b.Bytes())
}

// BoardFromPositionID decodes a base64 position ID string to a board
func BoardFromPositionID(posID string) (Board, error) {
	var board Board

	// The decoder skips line breaks; an ID never contains one
	if strings.ContainsAny(posID, "\r\n") {
		return board, ErrInvalidPositionID
	}
	data, err := idEncoding.DecodeString(posID)
	if err != nil {
		return board, fmt.Errorf("%w: %v", ErrInvalidPositionID, err)
	}
	if len(data) == 0 {
		return board, ErrInvalidPositionID
	}

	size := int(data[0])
	if size < MinBoardSize || size > MaxBoardSize {
		return board, fmt.Errorf("%w: board size %d out of range", ErrInvalidPositionID, size)
	}
	want := EncodedLength(size)
	if len(data) < want {
		return board, fmt.Errorf("%w: truncated", ErrInvalidPositionID)
	}
	if len(data) > want {
		return board, fmt.Errorf("%w: trailing data", ErrInvalidPositionID)
	}

	board.Size = size
	board.Stacks = make([][]uint8, PlayableTiles(size))
	for i := range board.Stacks {
		height := int(data[1+2*i])
		bits := data[2+2*i]
		if height > MaxHeight {
			return Board{}, fmt.Errorf("%w: stack %d has %d tokens", ErrInvalidPositionID, i, height)
		}
		if height < MaxHeight && bits>>uint(height) != 0 {
			return Board{}, fmt.Errorf("%w: stack %d has stray color bits", ErrInvalidPositionID, i)
		}
		stack := make([]uint8, height)
		for level := 0; level < height; level++ {
			stack[level] = (bits >> uint(level)) & 1
		}
		board.Stacks[i] = stack
	}

	return board, nil
}

// EqualBoards returns true if two boards are identical
func EqualBoards(b1, b2 Board) bool {
	if b1.Size != b2.Size || len(b1.Stacks) != len(b2.Stacks) {
		return false
	}
	for i := range b1.Stacks {
		if len(b1.Stacks[i]) != len(b2.Stacks[i]) {
			return false
		}
		for j := range b1.Stacks[i] {
			if b1.Stacks[i][j] != b2.Stacks[i][j] {
				return false
			}
		}
	}
	return true
}

// MakePositionKey hashes canonical position bytes into a PositionKey.
// Hi is FNV-1a of the bytes; Lo is FNV-1a of a salted copy followed by a murmur
// finalizer, so the two halves are independent enough for cache verification.
func MakePositionKey(data []byte) PositionKey {
	h := fnv.New64a()
	h.Write(data)
	hi := h.Sum64()

	h.Reset()
	h.Write([]byte{0x5b, 0xc3})
	h.Write(data)
	lo := h.Sum64()

	lo ^= lo >> 33
	lo *= 0xff51afd7ed558ccd
	lo ^= lo >> 33
	lo *= 0xc4ceb9fe1a85ec53
	lo ^= lo >> 33

	return PositionKey{Hi: hi, Lo: lo}
}
