package compile

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"

	"github.com/shipq/queries/decl"
)

// Param is a bound operation parameter.
type Param struct {
	Name string
	Type ast.Expr
}

// Signature is the extracted shape of one declared operation.
type Signature struct {
	Name string
	Pos  token.Position

	// Params are bound positionally to the query; the leading
	// context.Context is not included.
	Params []Param

	// Result is the declared result type, or nil when the operation only
	// returns error.
	Result ast.Expr

	Query string
}

// reservedNames are identifiers used by generated method bodies.
var reservedNames = map[string]bool{
	"ctx":     true,
	"ex":      true,
	"q":       true,
	"release": true,
	"rows":    true,
	"err":     true,
	"zero":    true,
	"seq":     true,
	"context": true,
	"queries": true,
}

// Extract reads the signature of a validated method member. imports maps
// the package qualifiers in scope of the declaration; a parameter may not
// shadow one, since generated bodies refer to the declared types.
func Extract(m *decl.Member, imports map[string]string) (*Signature, error) {
	var errs scanner.ErrorList
	sig := &Signature{Name: m.Name, Pos: m.Pos}

	for _, d := range m.Directives {
		if d.Key == decl.KeyQuery || d.Key == decl.KeyFile {
			sig.Query = strings.TrimSpace(d.Text)
			break
		}
	}

	seen := make(map[string]bool)
	for i, p := range m.Params {
		if p.Variadic {
			errs.Add(p.Pos, fmt.Sprintf("%s: variadic parameters are not supported", m.Name))
			continue
		}
		if i == 0 {
			// the context; its name is not used by generated code
			continue
		}
		switch {
		case p.Name == "":
			errs.Add(p.Pos, fmt.Sprintf("%s: parameter %d of type %s must be named", m.Name, i+1, types.ExprString(p.Type)))
		case !token.IsIdentifier(p.Name):
			errs.Add(p.Pos, fmt.Sprintf("%s: invalid parameter name %q", m.Name, p.Name))
		case p.Name == "_":
			errs.Add(p.Pos, fmt.Sprintf("%s: blank parameter name is not allowed", m.Name))
		case reservedNames[p.Name]:
			errs.Add(p.Pos, fmt.Sprintf("%s: parameter name %q is reserved by generated code", m.Name, p.Name))
		case imports[p.Name] != "":
			errs.Add(p.Pos, fmt.Sprintf("%s: parameter name %q shadows the import of %q", m.Name, p.Name, imports[p.Name]))
		case seen[p.Name]:
			errs.Add(p.Pos, fmt.Sprintf("%s: duplicate parameter %q", m.Name, p.Name))
		}
		seen[p.Name] = true

		switch p.Type.(type) {
		case *ast.ChanType:
			errs.Add(p.Pos, fmt.Sprintf("%s: parameter %s: channels cannot be bound to a query", m.Name, p.Name))
		case *ast.FuncType:
			errs.Add(p.Pos, fmt.Sprintf("%s: parameter %s: functions cannot be bound to a query", m.Name, p.Name))
		}
		sig.Params = append(sig.Params, Param{Name: p.Name, Type: p.Type})
	}

	switch {
	case len(m.Results) == 1 && isError(m.Results[0].Type):
	case len(m.Results) == 2 && isError(m.Results[1].Type) && !isError(m.Results[0].Type):
		sig.Result = m.Results[0].Type
	default:
		errs.Add(m.Pos, fmt.Sprintf("%s: results must be (T, error) or (error), got (%s)", m.Name, resultList(m.Results)))
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return sig, nil
}

func isError(expr ast.Expr) bool {
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == "error"
}

func resultList(results []decl.Param) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = types.ExprString(r.Type)
	}
	return strings.Join(parts, ", ")
}
