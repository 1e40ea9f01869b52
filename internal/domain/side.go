package domain

import "fmt"

// Side is the book side an MBO record refers to.
type Side byte

const (
	SideUnset Side = 0 // empty side field
	SideNone  Side = 'N'
	SideBid  Side = 'B'
	SideAsk  Side = 'A'
)

// ParseSide decodes the single-letter side code. An empty field decodes as
// SideUnset, which behaves like N but renders back as an empty field.
func ParseSide(s string) (Side, error) {
	switch s {
	case "B":
		return SideBid, nil
	case "A":
		return SideAsk, nil
	case "N":
		return SideNone, nil
	case "":
		return SideUnset, nil
	}
	return SideNone, fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Resting reports whether the side can hold resting liquidity.
func (s Side) Resting() bool {
	return s == SideBid || s == SideAsk
}

func (s Side) String() string {
	if s == SideUnset {
		return ""
	}
	return string(s)
}

// Action is the MBO action code. Letters outside the ones below are kept
// as-is and pass through the book untouched.
type Action byte

const (
	ActionAdd    Action = 'A'
	ActionCancel Action = 'C'
	ActionModify Action = 'M'
	ActionTrade  Action = 'T'
	ActionFill   Action = 'F'
	ActionReset  Action = 'R'
	ActionNone   Action = 'N' // no-op record, carries only flags or status
)

// ParseAction decodes the single-letter action code. Any uppercase letter is
// accepted; only empty, multi-character or non-letter codes are rejected.
func ParseAction(s string) (Action, error) {
	if len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z' {
		return Action(s[0]), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// Mutating reports whether the action changes resting liquidity.
func (a Action) Mutating() bool {
	return a == ActionAdd || a == ActionCancel
}

func (a Action) String() string {
	return string(a)
}

// MarshalText renders the side as its letter code.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
