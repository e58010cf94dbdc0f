package outline

import "fmt"

// Error types returned by the outline package.
type (
	// ValidationError indicates malformed input blocks or intents.
	ValidationError struct{ Message string }
	// NotFoundError indicates a key that is not part of the document.
	NotFoundError struct{ Key Key }
)

func (e ValidationError) Error() string { return e.Message }
func (e NotFoundError) Error() string   { return fmt.Sprintf("block not found: %s", e.Key) }

// DepthJumpError is returned in strict mode when a block is nested more than
// one level below its predecessor.
type DepthJumpError struct {
	Key      Key
	Depth    int
	MaxDepth int
}

func (e DepthJumpError) Error() string {
	return fmt.Sprintf("block %s has indentLevel %d, at most %d allowed after its predecessor", e.Key, e.Depth, e.MaxDepth)
}
