package queries

import "fmt"

// Shape specifies how an operation turns a row sequence into its result.
type Shape int

const (
	// ShapeSingle expects exactly one row (T).
	ShapeSingle Shape = iota
	// ShapeOptional expects 0 or 1 row (*T, nil when absent).
	ShapeOptional
	// ShapeList collects 0 to N rows ([]T).
	ShapeList
	// ShapeStream decodes rows lazily (iter.Seq2[T, error]).
	ShapeStream
	// ShapeExec discards rows; the operation only reports an error.
	ShapeExec
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapeSingle:
		return "single"
	case ShapeOptional:
		return "optional"
	case ShapeList:
		return "list"
	case ShapeStream:
		return "stream"
	case ShapeExec:
		return "exec"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// atMostOne reports whether the shape fails on a second row.
func (s Shape) atMostOne() bool {
	return s == ShapeSingle || s == ShapeOptional
}
