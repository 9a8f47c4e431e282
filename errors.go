package wgnl

import (
	"fmt"
)

// AttrLenError reports a fixed-size attribute whose payload length does not
// match what its kind requires.
type AttrLenError struct {
	Kind uint16
	Len  int
	Want int
}

func (e *AttrLenError) Error() string {

	return fmt.Sprintf(
		"attribute %d: invalid payload length %d, want %d",
		e.Kind, e.Len, e.Want,
	)

}

// UnknownAttrError reports an attribute type outside the recognized set for
// its family. The numeric kind is carried so callers can diagnose the
// mismatch against the kernel header definitions.
type UnknownAttrError struct {
	Family string
	Kind   uint16
}

func (e *UnknownAttrError) Error() string {

	return fmt.Sprintf("invalid %s attribute kind: %d", e.Family, e.Kind)

}
