package bundle

import (
	"fmt"
	"strings"
)

// UnknownFieldError is returned when a bundle carries an annotation key
// outside the recognized set.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown annotation field %q", e.Field)
}

// UnknownTagError is returned when an ENT_IOB value is outside the fixed
// enumeration "", "O", "B", "I".
type UnknownTagError struct {
	Tag string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown ENT_IOB tag %q", e.Tag)
}

// LinkMismatchError is returned when a link span does not correspond to
// exactly one declared entity span.
type LinkMismatchError struct {
	Start int
	End   int
}

func (e *LinkMismatchError) Error() string {
	return fmt.Sprintf("link span (%d,%d) does not match any declared entity", e.Start, e.End)
}

// AmbiguousLinkError is returned when more than one kb-id is assigned
// weight 1.0 for a single link span.
type AmbiguousLinkError struct {
	Start int
	End   int
	KBIDs []string
}

func (e *AmbiguousLinkError) Error() string {
	return fmt.Sprintf("ambiguous link for span (%d,%d): kb-ids %s all have weight 1.0",
		e.Start, e.End, strings.Join(e.KBIDs, ", "))
}
