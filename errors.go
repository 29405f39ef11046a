package goldalign

import (
	"errors"
)

var (
	// ErrMissingDoc is returned when a required document argument is nil.
	ErrMissingDoc = errors.New("required document is missing")
)

// Validation errors raised while a bundle is normalized and encoded live
// in the bundle package (bundle.UnknownFieldError, bundle.UnknownTagError,
// bundle.LinkMismatchError, bundle.AmbiguousLinkError); they propagate
// through FromBundle unchanged so errors.As targets keep working.
// align.ErrMismatchedTexts surfaces from Alignment the same way.
