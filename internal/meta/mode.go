package meta

import (
	"strings"

	"relmap/internal/common"
)

// Mode controls how far resolution may go to make a mapping work.
type Mode int

const (
	// Strict uses only what is declared and what already exists in the schema.
	Strict Mode = iota
	// Fill synthesizes missing names and schema objects from the defaults but
	// never alters existing schema objects.
	Fill
	// Adapt may also alter existing schema objects to fit the mapping.
	Adapt
)

// Fill reports whether missing details may be synthesized.
func (m Mode) Fill() bool {
	return m == Fill || m == Adapt
}

// Adapt reports whether existing schema objects may be changed.
func (m Mode) Adapt() bool {
	return m == Adapt
}

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Fill:
		return "fill"
	case Adapt:
		return "adapt"
	default:
		return common.UnknownStr
	}
}

// ParseMode parses "strict", "fill" or "adapt", ignoring case.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, true
	case "fill":
		return Fill, true
	case "adapt":
		return Adapt, true
	default:
		return Strict, false
	}
}

// Allowance records an explicit opt-in or opt-out for a schema component.
type Allowance int

const (
	Unspecified Allowance = iota
	Allowed
	Denied
)

// Denied reports whether the component was explicitly refused.
func (a Allowance) Denied() bool {
	return a == Denied
}

func (a Allowance) String() string {
	switch a {
	case Unspecified:
		return "unspecified"
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return common.UnknownStr
	}
}

// JoinDirection tells whether a foreign key points from the mapping's table
// to the related table (forward) or back from the related table (inverse).
type JoinDirection int

const (
	JoinNone JoinDirection = iota
	JoinForward
	JoinInverse
)

func (d JoinDirection) String() string {
	switch d {
	case JoinNone:
		return "none"
	case JoinForward:
		return "forward"
	case JoinInverse:
		return "inverse"
	default:
		return common.UnknownStr
	}
}

// ParseJoinDirection parses "none", "forward" or "inverse".
func ParseJoinDirection(s string) (JoinDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return JoinNone, true
	case "forward":
		return JoinForward, true
	case "inverse":
		return JoinInverse, true
	default:
		return JoinNone, false
	}
}

// ColumnIO records which columns of a mapping may be written. Columns are
// addressed by position; every column is writable unless marked otherwise.
// Null variants restrict writing NULL only.
type ColumnIO struct {
	unInsertable     uint64
	unUpdatable      uint64
	unNullInsertable uint64
	unNullUpdatable  uint64
}

func setBit(bits *uint64, i int, on bool) {
	if i < 0 || i >= 64 {
		return
	}

	if on {
		*bits |= 1 << uint(i)
	} else {
		*bits &^= 1 << uint(i)
	}
}

func bit(bits uint64, i int) bool {
	if i < 0 || i >= 64 {
		return false
	}

	return bits&(1<<uint(i)) != 0
}

// SetInsertable marks column i as insertable or not.
func (io *ColumnIO) SetInsertable(i int, ok bool) { setBit(&io.unInsertable, i, !ok) }

// SetUpdatable marks column i as updatable or not.
func (io *ColumnIO) SetUpdatable(i int, ok bool) { setBit(&io.unUpdatable, i, !ok) }

// SetNullInsertable marks whether NULL may be inserted into column i.
func (io *ColumnIO) SetNullInsertable(i int, ok bool) { setBit(&io.unNullInsertable, i, !ok) }

// SetNullUpdatable marks whether column i may be updated to NULL.
func (io *ColumnIO) SetNullUpdatable(i int, ok bool) { setBit(&io.unNullUpdatable, i, !ok) }

// IsInsertable reports whether column i may be written on insert. With
// isNull the value being written is NULL.
func (io ColumnIO) IsInsertable(i int, isNull bool) bool {
	if bit(io.unInsertable, i) {
		return false
	}

	return !isNull || !bit(io.unNullInsertable, i)
}

// IsUpdatable reports whether column i may be written on update.
func (io ColumnIO) IsUpdatable(i int, isNull bool) bool {
	if bit(io.unUpdatable, i) {
		return false
	}

	return !isNull || !bit(io.unNullUpdatable, i)
}

// IsAnyInsertable reports whether any of the first n columns is insertable.
func (io ColumnIO) IsAnyInsertable(n int) bool {
	for i := range n {
		if io.IsInsertable(i, false) {
			return true
		}
	}

	return false
}

// IsAnyUpdatable reports whether any of the first n columns is updatable.
func (io ColumnIO) IsAnyUpdatable(n int) bool {
	for i := range n {
		if io.IsUpdatable(i, false) {
			return true
		}
	}

	return false
}

// IsZero reports whether every column is fully writable.
func (io ColumnIO) IsZero() bool {
	return io == ColumnIO{}
}
