package goldalign

import (
	"github.com/goldalign/goldalign/align"
)

type options struct {
	logger  *Logger
	aligner align.Aligner
}

// Option configures Example construction.
type Option func(*options)

// WithLogger sets the logger used for non-fatal diagnostics such as
// dropped entities. The default discards them.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAligner replaces the alignment engine.
//
// If nil is passed, align.Default is used.
func WithAligner(a align.Aligner) Option {
	return func(o *options) {
		if a == nil {
			a = align.Default
		}
		o.aligner = a
	}
}

func defaultOptions() options {
	return options{
		logger:  NoopLogger(),
		aligner: align.Default,
	}
}
