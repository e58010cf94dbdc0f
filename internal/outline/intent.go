package outline

import (
	"fmt"
	"strings"
)

// Op names a structural edit.
type Op string

const (
	OpIndent        Op = "indent"
	OpOutdent       Op = "outdent"
	OpMergeBackward Op = "merge-backward"
	OpMergeForward  Op = "merge-forward"
	OpDrag          Op = "drag"
	OpRenumber      Op = "renumber"
)

// Intent is a serialized edit request from an editing surface.
type Intent struct {
	Op Op `json:"op" yaml:"op"`

	// indent, outdent
	Start Key `json:"start,omitempty" yaml:"start,omitempty"`
	End   Key `json:"end,omitempty" yaml:"end,omitempty"`

	// merge-backward, merge-forward
	Key Key `json:"key,omitempty" yaml:"key,omitempty"`

	// drag
	Keys     []Key        `json:"keys,omitempty" yaml:"keys,omitempty"`
	Target   Key          `json:"target,omitempty" yaml:"target,omitempty"`
	Position DropPosition `json:"position,omitempty" yaml:"position,omitempty"`
	Offset   float64      `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Apply validates in and runs it against d. Malformed intents and unknown
// keys are errors; an edit whose preconditions do not hold returns d with
// handled set to false.
func Apply(d *Document, in Intent) (*Document, bool, error) {
	switch Op(strings.ToLower(strings.TrimSpace(string(in.Op)))) {
	case OpIndent:
		if err := d.requireKeys("start", in.Start); err != nil {
			return d, false, err
		}
		if err := d.requireOptionalKey(in.End); err != nil {
			return d, false, err
		}
		next, handled := d.Indent(Selection{Start: in.Start, End: in.End})
		return next, handled, nil
	case OpOutdent:
		if err := d.requireKeys("start", in.Start); err != nil {
			return d, false, err
		}
		if err := d.requireOptionalKey(in.End); err != nil {
			return d, false, err
		}
		next, handled := d.Outdent(Selection{Start: in.Start, End: in.End})
		return next, handled, nil
	case OpMergeBackward:
		if err := d.requireKeys("key", in.Key); err != nil {
			return d, false, err
		}
		next, handled := d.MergeBackward(in.Key)
		return next, handled, nil
	case OpMergeForward:
		if err := d.requireKeys("key", in.Key); err != nil {
			return d, false, err
		}
		next, handled := d.MergeForward(in.Key)
		return next, handled, nil
	case OpDrag:
		if len(in.Keys) == 0 {
			return d, false, ValidationError{Message: "drag requires keys"}
		}
		if err := d.requireKeys("keys", in.Keys...); err != nil {
			return d, false, err
		}
		if err := d.requireKeys("target", in.Target); err != nil {
			return d, false, err
		}
		switch in.Position {
		case "", DropBefore, DropAfter:
		default:
			return d, false, ValidationError{Message: fmt.Sprintf("invalid drop position %q (expected before|after)", in.Position)}
		}
		next, handled := d.DragReorder(DragRequest{
			Keys:     in.Keys,
			Target:   in.Target,
			Position: in.Position,
			Offset:   in.Offset,
		})
		return next, handled, nil
	case OpRenumber:
		next, handled := d.Renumber()
		return next, handled, nil
	default:
		return d, false, ValidationError{Message: fmt.Sprintf("unknown op %q", in.Op)}
	}
}

func (d *Document) requireKeys(field string, keys ...Key) error {
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return ValidationError{Message: field + " is required"}
		}
		if _, ok := d.index[k]; !ok {
			return NotFoundError{Key: k}
		}
	}
	return nil
}

func (d *Document) requireOptionalKey(k Key) error {
	if k == "" {
		return nil
	}
	if _, ok := d.index[k]; !ok {
		return NotFoundError{Key: k}
	}
	return nil
}
