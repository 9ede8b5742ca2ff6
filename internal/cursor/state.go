package cursor

import (
	"fmt"

	"github.com/yashagw/btrievedb/internal/key"
)

// Direction is the key order a seek walks in.
type Direction uint8

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// State remembers the last row a seek returned on one key. Continue calls walk
// from it in the stored direction whatever operation they name.
type State struct {
	KeyNumber    uint16
	Direction    Direction
	LastKey      key.Value
	LastPosition uint32
}

// NewState creates a new cursor state for a row returned by a seek.
func NewState(keyNumber uint16, direction Direction, lastKey key.Value, lastPosition uint32) *State {
	return &State{
		KeyNumber:    keyNumber,
		Direction:    direction,
		LastKey:      lastKey,
		LastPosition: lastPosition,
	}
}

// Advance moves the state to the next returned row, keeping key and direction.
func (s *State) Advance(lastKey key.Value, lastPosition uint32) {
	s.LastKey = lastKey
	s.LastPosition = lastPosition
}

func (s *State) String() string {
	return fmt.Sprintf("key %d %s from (%s, %d)", s.KeyNumber, s.Direction, s.LastKey, s.LastPosition)
}
