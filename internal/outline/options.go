package outline

const (
	// DefaultMaxDepth is the deepest indentLevel Indent will produce.
	DefaultMaxDepth = 4
	// DefaultIndentUnit is the horizontal width, in pixels, of one indent level
	// when translating a drag offset to a depth.
	DefaultIndentUnit = 24.0
)

type options struct {
	strict     bool
	maxDepth   int
	indentUnit float64
}

func defaultOptions() options {
	return options{
		maxDepth:   DefaultMaxDepth,
		indentUnit: DefaultIndentUnit,
	}
}

// Option configures a Document.
type Option func(*options)

// WithStrict makes NewDocument reject depth jumps instead of clamping them.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithMaxDepth sets the indent ceiling. Values <= 0 keep the default.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithIndentUnit sets the drag indent unit width. Values <= 0 keep the default.
func WithIndentUnit(width float64) Option {
	return func(o *options) {
		if width > 0 {
			o.indentUnit = width
		}
	}
}
