// Package compile turns loaded declarations into a generation plan: it
// validates each declared interface, extracts operation signatures, and
// classifies each declared result into a queries.Shape.
//
// All problems are reported together as a go/scanner.ErrorList sorted by
// position, so a single run shows every mistake in a declaration file.
package compile

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/shipq/queries/dburl"
	"github.com/shipq/queries/decl"
)

// lifecycleMethods are generated on the receivers and cannot be operations.
var lifecycleMethods = map[string]bool{
	"Begin":    true,
	"Commit":   true,
	"Rollback": true,
}

// Validate checks the structural rules of every interface in f. It returns
// nil or a scanner.ErrorList.
func Validate(f *decl.File) error {
	var errs scanner.ErrorList
	for _, iface := range f.Interfaces {
		validateInterface(&errs, f, iface)
	}
	errs.Sort()
	return errs.Err()
}

func validateInterface(errs *scanner.ErrorList, f *decl.File, iface *decl.Interface) {
	if !token.IsIdentifier(iface.Name) {
		errs.Add(iface.Pos, fmt.Sprintf("invalid interface name %q", iface.Name))
	}
	if len(iface.TypeParams) > 0 {
		errs.Add(iface.Pos, fmt.Sprintf("%s: generic parameters are not supported", iface.Name))
	}

	seenDirectives := make(map[string]bool)
	for _, d := range iface.Directives {
		switch {
		case d.Key != decl.KeyDatabase:
			errs.Add(d.Pos, fmt.Sprintf("%s: unknown interface directive queries:%s", iface.Name, d.Key))
		case seenDirectives[d.Key]:
			errs.Add(d.Pos, fmt.Sprintf("%s: duplicate queries:%s directive", iface.Name, d.Key))
		case d.Value == "":
			errs.Add(d.Pos, fmt.Sprintf("%s: queries:database needs a value (postgres, mysql or sqlite)", iface.Name))
		case !dburl.IsDialect(d.Value):
			errs.Add(d.Pos, fmt.Sprintf("%s: unknown database %q (want postgres, mysql or sqlite)", iface.Name, d.Value))
		}
		seenDirectives[d.Key] = true
	}
	if !seenDirectives[decl.KeyDatabase] {
		errs.Add(iface.Pos, fmt.Sprintf("%s: missing queries:database directive", iface.Name))
	}

	seenNames := make(map[string]bool)
	for i := range iface.Members {
		m := &iface.Members[i]
		switch m.Kind {
		case decl.EmbeddedMember:
			errs.Add(m.Pos, fmt.Sprintf("%s: embedded interfaces are not supported (%s)", iface.Name, m.Name))
			continue
		case decl.TypeSetMember:
			errs.Add(m.Pos, fmt.Sprintf("%s: only methods are allowed, found type set element %s", iface.Name, m.Name))
			continue
		}

		switch {
		case m.Name == "":
			errs.Add(m.Pos, fmt.Sprintf("%s: operation has no name", iface.Name))
		case !token.IsIdentifier(m.Name):
			errs.Add(m.Pos, fmt.Sprintf("%s: invalid operation name %q", iface.Name, m.Name))
		case !ast.IsExported(m.Name) && f.Source == decl.SourceYAML:
			errs.Add(m.Pos, fmt.Sprintf("%s.%s: operation names must be exported", iface.Name, m.Name))
		case lifecycleMethods[m.Name]:
			errs.Add(m.Pos, fmt.Sprintf("%s.%s: name collides with the generated %s method", iface.Name, m.Name, m.Name))
		case seenNames[m.Name]:
			errs.Add(m.Pos, fmt.Sprintf("%s.%s: duplicate operation name", iface.Name, m.Name))
		}
		seenNames[m.Name] = true

		if len(m.Params) == 0 || !isContext(f, m.Params[0].Type) {
			errs.Add(m.Pos, fmt.Sprintf("%s.%s: operation must take a context.Context as its first parameter", iface.Name, m.Name))
		}

		validateQueryDirectives(errs, iface, m)
	}
}

func validateQueryDirectives(errs *scanner.ErrorList, iface *decl.Interface, m *decl.Member) {
	var found []decl.Directive
	for _, d := range m.Directives {
		switch d.Key {
		case decl.KeyQuery, decl.KeyFile:
			found = append(found, d)
		default:
			errs.Add(d.Pos, fmt.Sprintf("%s.%s: unknown operation directive queries:%s", iface.Name, m.Name, d.Key))
		}
	}

	switch len(found) {
	case 0:
		errs.Add(m.Pos, fmt.Sprintf("%s.%s: missing query directive (queries:query or queries:file)", iface.Name, m.Name))
		return
	case 1:
	default:
		errs.Add(found[1].Pos, fmt.Sprintf("%s.%s: an operation takes exactly one queries:query or queries:file directive", iface.Name, m.Name))
		return
	}

	d := found[0]
	switch {
	case d.Key == decl.KeyFile && d.Value == "":
		errs.Add(d.Pos, fmt.Sprintf("%s.%s: queries:file needs a path", iface.Name, m.Name))
	case d.Err != nil:
		errs.Add(d.Pos, fmt.Sprintf("%s.%s: cannot read query file: %v", iface.Name, m.Name, d.Err))
	case strings.TrimSpace(d.Text) == "":
		errs.Add(d.Pos, fmt.Sprintf("%s.%s: empty query text", iface.Name, m.Name))
	}
}

// isContext reports whether expr names context.Context under the file's
// imports.
func isContext(f *decl.File, expr ast.Expr) bool {
	return isPkgSelector(f, expr, "context", "Context")
}

// isPkgSelector reports whether expr is pkg.name where the qualifier resolves
// to importPath in f.
func isPkgSelector(f *decl.File, expr ast.Expr, importPath, name string) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != name {
		return false
	}
	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	if p, ok := f.Imports[x.Name]; ok {
		return p == importPath
	}
	return false
}
