package css

import "fmt"

// InvariantError is the panic value raised when the matching engine finds
// itself in a state its own construction rules out. It signals a bug in the
// engine, never bad input.
type InvariantError struct {
	Op       string
	Selector int64
	Detail   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("css: invariant violated in %s (selector %d): %s", e.Op, e.Selector, e.Detail)
}
