package outline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDispatch(t *testing.T) {
	base := func(t *testing.T) *Document {
		return newDoc(t, num("A", 0, 1), num("B", 0, 2), num("C", 0, 3))
	}

	tests := []struct {
		name    string
		intent  Intent
		handled bool
		keys    []Key
		depths  []int
	}{
		{"indent", Intent{Op: OpIndent, Start: "B"}, true, []Key{"A", "B", "C"}, []int{0, 1, 0}},
		{"indent first", Intent{Op: OpIndent, Start: "A"}, false, []Key{"A", "B", "C"}, []int{0, 0, 0}},
		{"outdent root", Intent{Op: "OUTDENT", Start: "A", End: "C"}, false, []Key{"A", "B", "C"}, []int{0, 0, 0}},
		{"merge backward demotes", Intent{Op: OpMergeBackward, Key: "B"}, true, []Key{"A", "B", "C"}, []int{0, 0, 0}},
		{"merge forward", Intent{Op: OpMergeForward, Key: "B"}, true, []Key{"A", "B"}, []int{0, 0}},
		{"drag", Intent{Op: OpDrag, Keys: []Key{"C"}, Target: "A"}, true, []Key{"C", "A", "B"}, []int{0, 0, 0}},
		{"renumber clean", Intent{Op: OpRenumber}, false, []Key{"A", "B", "C"}, []int{0, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, handled, err := Apply(base(t), tt.intent)
			require.NoError(t, err)
			assert.Equal(t, tt.handled, handled)
			assert.Equal(t, tt.keys, keysOf(next.Blocks()))
			assert.Equal(t, tt.depths, depthsOf(next.Blocks()))
		})
	}
}

func TestApplyErrors(t *testing.T) {
	d := newDoc(t, blk("A", TypeParagraph, 0), blk("B", TypeParagraph, 0))

	tests := []struct {
		name     string
		intent   Intent
		notFound bool
	}{
		{"unknown op", Intent{Op: "explode"}, false},
		{"indent without start", Intent{Op: OpIndent}, false},
		{"indent unknown end", Intent{Op: OpIndent, Start: "B", End: "Z"}, true},
		{"merge unknown key", Intent{Op: OpMergeForward, Key: "Z"}, true},
		{"drag without keys", Intent{Op: OpDrag, Target: "A"}, false},
		{"drag unknown target", Intent{Op: OpDrag, Keys: []Key{"A"}, Target: "Z"}, true},
		{"drag bad position", Intent{Op: OpDrag, Keys: []Key{"A"}, Target: "B", Position: "over"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, handled, err := Apply(d, tt.intent)
			require.Error(t, err)
			assert.False(t, handled)
			assert.Same(t, d, next)

			var nf NotFoundError
			var v ValidationError
			if tt.notFound {
				assert.True(t, errors.As(err, &nf))
			} else {
				assert.True(t, errors.As(err, &v))
			}
		})
	}
}
