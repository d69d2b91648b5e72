package compile

import (
	"fmt"
	"go/ast"
	"go/types"

	"github.com/shipq/queries"
)

// Classify maps a declared result type to its shape and record type.
// imports resolves package qualifiers (the local name of "iter" may be
// aliased). Only the outermost wrapper counts; a record type that is itself
// a wrapper is rejected.
//
//	[]T (not []byte)      -> ShapeList, T
//	*T                    -> ShapeOptional, T
//	iter.Seq2[T, error]   -> ShapeStream, T
//	anything else         -> ShapeSingle, itself
func Classify(expr ast.Expr, imports map[string]string) (queries.Shape, ast.Expr, error) {
	shape, record, wrapped, err := unwrap(expr, imports)
	if err != nil {
		return 0, nil, err
	}
	if !wrapped {
		return queries.ShapeSingle, expr, decodable(expr)
	}

	_, _, nested, err := unwrap(record, imports)
	if err != nil {
		return 0, nil, err
	}
	if nested {
		return 0, nil, fmt.Errorf("nested result wrapper %s: the record type of a %s result cannot itself be a list, pointer or stream", types.ExprString(expr), shape)
	}
	return shape, record, decodable(record)
}

// unwrap recognizes the outermost result wrapper of expr.
func unwrap(expr ast.Expr, imports map[string]string) (queries.Shape, ast.Expr, bool, error) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return unwrap(e.X, imports)
	case *ast.ArrayType:
		if e.Len != nil || isByte(e.Elt) {
			return 0, nil, false, nil
		}
		return queries.ShapeList, e.Elt, true, nil
	case *ast.StarExpr:
		return queries.ShapeOptional, e.X, true, nil
	case *ast.IndexListExpr:
		if !isIterSelector(e.X, "Seq2", imports) {
			return 0, nil, false, nil
		}
		if len(e.Indices) != 2 || !isError(e.Indices[1]) {
			return 0, nil, false, fmt.Errorf("stream result %s must be iter.Seq2[T, error]", types.ExprString(expr))
		}
		return queries.ShapeStream, e.Indices[0], true, nil
	case *ast.IndexExpr:
		if isIterSelector(e.X, "Seq", imports) {
			return 0, nil, false, fmt.Errorf("stream result %s must be iter.Seq2[T, error]", types.ExprString(expr))
		}
	}
	return 0, nil, false, nil
}

// decodable rejects record types no row can ever decode into.
func decodable(record ast.Expr) error {
	switch record.(type) {
	case *ast.ChanType:
		return fmt.Errorf("record type %s cannot be decoded from a row", types.ExprString(record))
	case *ast.FuncType:
		return fmt.Errorf("record type %s cannot be decoded from a row", types.ExprString(record))
	}
	if isError(record) {
		return fmt.Errorf("record type error cannot be decoded from a row")
	}
	return nil
}

func isByte(expr ast.Expr) bool {
	id, ok := expr.(*ast.Ident)
	return ok && (id.Name == "byte" || id.Name == "uint8")
}

func isIterSelector(expr ast.Expr, name string, imports map[string]string) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != name {
		return false
	}
	x, ok := sel.X.(*ast.Ident)
	return ok && imports[x.Name] == "iter"
}
