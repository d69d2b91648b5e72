package compile

import (
	"fmt"
	"go/ast"
	"go/scanner"
	"go/token"

	"github.com/shipq/queries"
	"github.com/shipq/queries/decl"
)

// Operation is a classified operation ready for synthesis.
type Operation struct {
	*Signature
	Shape queries.Shape

	// Record is the decoded record type; nil for ShapeExec.
	Record ast.Expr
}

// Interface is a compiled declaration.
type Interface struct {
	Name       string
	Database   string
	Pos        token.Position
	Operations []Operation
}

// Plan is everything the synthesizer needs for one declaration file.
type Plan struct {
	Package string
	Path    string
	Source  decl.Source
	Imports map[string]string

	Interfaces []Interface
}

// Warning is a non-fatal finding.
type Warning struct {
	Pos     token.Position
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Pos, w.Message)
}

// Compile validates f, extracts and classifies every operation, and checks
// placeholder counts. Declaration errors come back as a scanner.ErrorList;
// warnings are returned alongside a successful plan.
func Compile(f *decl.File) (*Plan, []Warning, error) {
	if err := Validate(f); err != nil {
		return nil, nil, err
	}
	if f.Package == "" || !token.IsIdentifier(f.Package) {
		return nil, nil, fmt.Errorf("%s: invalid or missing package name %q", f.Path, f.Package)
	}

	plan := &Plan{
		Package: f.Package,
		Path:    f.Path,
		Source:  f.Source,
		Imports: f.Imports,
	}

	var errs scanner.ErrorList
	var warnings []Warning
	for _, iface := range f.Interfaces {
		ci := Interface{
			Name:     iface.Name,
			Database: iface.Database(),
			Pos:      iface.Pos,
		}
		for i := range iface.Members {
			m := &iface.Members[i]
			sig, err := Extract(m, f.Imports)
			if err != nil {
				appendErrors(&errs, err)
				continue
			}

			op := Operation{Signature: sig, Shape: queries.ShapeExec}
			if sig.Result != nil {
				shape, record, err := Classify(sig.Result, f.Imports)
				if err != nil {
					errs.Add(m.Pos, fmt.Sprintf("%s.%s: %v", iface.Name, m.Name, err))
					continue
				}
				op.Shape, op.Record = shape, record
			}

			if n := CountPlaceholders(ci.Database, sig.Query); n != len(sig.Params) {
				warnings = append(warnings, Warning{
					Pos:     m.Pos,
					Message: fmt.Sprintf("%s.%s: query has %d placeholders but the operation binds %d parameters", iface.Name, m.Name, n, len(sig.Params)),
				})
			}
			ci.Operations = append(ci.Operations, op)
		}
		plan.Interfaces = append(plan.Interfaces, ci)
	}
	checkNames(&errs, plan)

	errs.Sort()
	if err := errs.Err(); err != nil {
		return nil, nil, err
	}
	return plan, warnings, nil
}

func appendErrors(dst *scanner.ErrorList, err error) {
	if list, ok := err.(scanner.ErrorList); ok {
		*dst = append(*dst, list...)
		return
	}
	dst.Add(token.Position{}, err.Error())
}
