package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/types"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shipq/queries"
	"github.com/shipq/queries/compile"
	"github.com/shipq/queries/decl"
)

// Header is the first line of every generated file.
const Header = "// Code generated by queriesgen. DO NOT EDIT."

// RuntimeImportPath is the import path of the runtime package generated
// code calls into.
const RuntimeImportPath = "github.com/shipq/queries"

// Generate synthesizes the Go source implementing every interface of plan.
// The result is gofmt-ed.
func Generate(plan *compile.Plan) ([]byte, error) {
	imports, err := collectImports(plan)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n// Source: %s\n\n", Header, filepath.Base(plan.Path))
	fmt.Fprintf(&buf, "package %s\n\n", plan.Package)
	writeImports(&buf, imports)

	for i := range plan.Interfaces {
		writeInterface(&buf, plan, &plan.Interfaces[i])
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w\n%s", err, buf.Bytes())
	}
	return formatted, nil
}

type importSpec struct {
	name string
	path string
}

// collectImports returns the imports the generated file needs: context, the
// runtime package, and every package qualifier used by a declared type.
func collectImports(plan *compile.Plan) ([]importSpec, error) {
	used := map[string]string{
		"context": "context",
		"queries": RuntimeImportPath,
	}
	var unknown []string

	visit := func(expr ast.Expr) {
		ast.Inspect(expr, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			x, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			if p, ok := plan.Imports[x.Name]; ok {
				used[x.Name] = p
			} else if _, ok := used[x.Name]; !ok {
				unknown = append(unknown, x.Name)
			}
			return false
		})
	}
	for _, iface := range plan.Interfaces {
		for _, op := range iface.Operations {
			for _, p := range op.Params {
				visit(p.Type)
			}
			if op.Result != nil {
				visit(op.Result)
			}
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%s: unknown package qualifier(s) %s; add the import", plan.Path, strings.Join(unknown, ", "))
	}

	specs := make([]importSpec, 0, len(used))
	for name, p := range used {
		specs = append(specs, importSpec{name: name, path: p})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].path < specs[j].path })
	return specs, nil
}

func writeImports(buf *bytes.Buffer, specs []importSpec) {
	var std, other []importSpec
	for _, s := range specs {
		if isStdlib(s.path) {
			std = append(std, s)
		} else {
			other = append(other, s)
		}
	}

	buf.WriteString("import (\n")
	for i, group := range [][]importSpec{std, other} {
		if i > 0 && len(std) > 0 && len(other) > 0 {
			buf.WriteString("\n")
		}
		for _, s := range group {
			if s.name == path.Base(s.path) {
				fmt.Fprintf(buf, "\t%q\n", s.path)
			} else {
				fmt.Fprintf(buf, "\t%s %q\n", s.name, s.path)
			}
		}
	}
	buf.WriteString(")\n\n")
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

func writeInterface(buf *bytes.Buffer, plan *compile.Plan, iface *compile.Interface) {
	n := compile.NamesFor(iface.Name)

	if plan.Source == decl.SourceYAML {
		fmt.Fprintf(buf, "// %s is declared in %s.\n", n.Interface, filepath.Base(plan.Path))
		fmt.Fprintf(buf, "type %s interface {\n", n.Interface)
		for _, op := range iface.Operations {
			fmt.Fprintf(buf, "\t%s(%s) %s\n", op.Name, paramList(op), resultList(op))
		}
		buf.WriteString("}\n\n")
	}

	if len(iface.Operations) > 0 {
		buf.WriteString("const (\n")
		for _, op := range iface.Operations {
			fmt.Fprintf(buf, "\t%s = %s\n", n.SQLConst(op.Name), quoteSQL(op.Query))
		}
		buf.WriteString(")\n\n")
	}

	// Pool-bound receiver.
	fmt.Fprintf(buf, "// %s runs %s operations against a connection pool.\n", n.DB, n.Interface)
	fmt.Fprintf(buf, "// It is safe for concurrent use.\n")
	fmt.Fprintf(buf, "type %s struct {\n\tpool queries.Pool\n}\n\n", n.DB)
	fmt.Fprintf(buf, "// %s returns a %s backed by pool. It panics if pool reports a\n// database other than %s.\n", n.NewDB, n.DB, iface.Database)
	fmt.Fprintf(buf, "func %s(pool queries.Pool) *%s {\n", n.NewDB, n.DB)
	fmt.Fprintf(buf, "\tqueries.MustMatchDialect(pool, %q)\n", iface.Database)
	fmt.Fprintf(buf, "\treturn &%s{pool: pool}\n}\n\n", n.DB)
	fmt.Fprintf(buf, "// Begin starts a transaction.\n")
	fmt.Fprintf(buf, "func (q *%s) Begin(ctx context.Context) (*%s, error) {\n", n.DB, n.Tx)
	fmt.Fprintf(buf, "\ttx, err := q.pool.Begin(ctx)\n\tif err != nil {\n\t\treturn nil, err\n\t}\n")
	fmt.Fprintf(buf, "\treturn %s(tx), nil\n}\n\n", n.NewTx)

	// Transaction-bound receiver.
	fmt.Fprintf(buf, "// %s runs %s operations inside one transaction. Calls must not\n", n.Tx, n.Interface)
	fmt.Fprintf(buf, "// overlap; after Commit or Rollback every call fails with queries.ErrTxClosed.\n")
	fmt.Fprintf(buf, "type %s struct {\n\ttx *queries.TxHandle\n}\n\n", n.Tx)
	fmt.Fprintf(buf, "// %s wraps tx. It panics if tx reports a database other than %s.\n", n.NewTx, iface.Database)
	fmt.Fprintf(buf, "func %s(tx queries.Tx) *%s {\n", n.NewTx, n.Tx)
	fmt.Fprintf(buf, "\tqueries.MustMatchDialect(tx, %q)\n", iface.Database)
	fmt.Fprintf(buf, "\treturn &%s{tx: queries.NewTxHandle(tx)}\n}\n\n", n.Tx)
	fmt.Fprintf(buf, "// Commit commits the transaction and closes q.\n")
	fmt.Fprintf(buf, "func (q *%s) Commit(ctx context.Context) error {\n\treturn q.tx.Commit(ctx)\n}\n\n", n.Tx)
	fmt.Fprintf(buf, "// Rollback aborts the transaction and closes q.\n")
	fmt.Fprintf(buf, "func (q *%s) Rollback(ctx context.Context) error {\n\treturn q.tx.Rollback(ctx)\n}\n\n", n.Tx)

	for _, op := range iface.Operations {
		writeRunFunc(buf, n, op)
		writeDBMethod(buf, n, op)
		writeTxMethod(buf, n, op)
	}

	fmt.Fprintf(buf, "var (\n\t_ %s = (*%s)(nil)\n\t_ %s = (*%s)(nil)\n)\n\n", n.Interface, n.DB, n.Interface, n.Tx)
}

func writeRunFunc(buf *bytes.Buffer, n compile.Names, op compile.Operation) {
	extra := ""
	if op.Shape == queries.ShapeStream {
		extra = ", release func()"
	}
	fmt.Fprintf(buf, "func %s(ctx context.Context, ex queries.Executor%s%s) %s {\n",
		n.RunFunc(op.Name), extra, tailParams(op), resultList(op))
	fmt.Fprintf(buf, "\trows, err := ex.Query(ctx, %s%s)\n", n.SQLConst(op.Name), tailArgs(op))
	fmt.Fprintf(buf, "\tif err != nil {\n")
	writeErrorReturn(buf, op, "\t\t")
	fmt.Fprintf(buf, "\t}\n")

	record := ""
	if op.Record != nil {
		record = types.ExprString(op.Record)
	}
	switch op.Shape {
	case queries.ShapeSingle:
		fmt.Fprintf(buf, "\treturn queries.Single(ctx, rows, queries.Decode[%s])\n", record)
	case queries.ShapeOptional:
		fmt.Fprintf(buf, "\treturn queries.Optional(ctx, rows, queries.Decode[%s])\n", record)
	case queries.ShapeList:
		fmt.Fprintf(buf, "\treturn queries.List(ctx, rows, queries.Decode[%s])\n", record)
	case queries.ShapeStream:
		fmt.Fprintf(buf, "\treturn queries.Stream(ctx, rows, queries.Decode[%s], release), nil\n", record)
	case queries.ShapeExec:
		fmt.Fprintf(buf, "\treturn queries.Exec(ctx, rows)\n")
	}
	buf.WriteString("}\n\n")
}

func writeDBMethod(buf *bytes.Buffer, n compile.Names, op compile.Operation) {
	fmt.Fprintf(buf, "func (q *%s) %s(%s) %s {\n", n.DB, op.Name, paramList(op), resultList(op))
	release := ""
	if op.Shape == queries.ShapeStream {
		release = ", nil"
	}
	fmt.Fprintf(buf, "\treturn %s(ctx, q.pool%s%s)\n}\n\n", n.RunFunc(op.Name), release, tailArgs(op))
}

func writeTxMethod(buf *bytes.Buffer, n compile.Names, op compile.Operation) {
	fmt.Fprintf(buf, "func (q *%s) %s(%s) %s {\n", n.Tx, op.Name, paramList(op), resultList(op))
	fmt.Fprintf(buf, "\tex, release, err := q.tx.Acquire()\n\tif err != nil {\n")
	writeErrorReturn(buf, op, "\t\t")
	fmt.Fprintf(buf, "\t}\n")

	if op.Shape == queries.ShapeStream {
		// The borrow is released when the stream ends, not when we return.
		fmt.Fprintf(buf, "\tseq, err := %s(ctx, ex, release%s)\n", n.RunFunc(op.Name), tailArgs(op))
		fmt.Fprintf(buf, "\tif err != nil {\n\t\trelease()\n\t}\n\treturn seq, err\n}\n\n")
		return
	}
	fmt.Fprintf(buf, "\tdefer release()\n")
	fmt.Fprintf(buf, "\treturn %s(ctx, ex%s)\n}\n\n", n.RunFunc(op.Name), tailArgs(op))
}

func writeErrorReturn(buf *bytes.Buffer, op compile.Operation, indent string) {
	switch op.Shape {
	case queries.ShapeExec:
		fmt.Fprintf(buf, "%sreturn err\n", indent)
	case queries.ShapeSingle:
		fmt.Fprintf(buf, "%svar zero %s\n%sreturn zero, err\n", indent, types.ExprString(op.Result), indent)
	default:
		fmt.Fprintf(buf, "%sreturn nil, err\n", indent)
	}
}

// paramList renders the method parameters, context first.
func paramList(op compile.Operation) string {
	return "ctx context.Context" + tailParams(op)
}

func tailParams(op compile.Operation) string {
	var b strings.Builder
	for _, p := range op.Params {
		fmt.Fprintf(&b, ", %s %s", p.Name, types.ExprString(p.Type))
	}
	return b.String()
}

func tailArgs(op compile.Operation) string {
	var b strings.Builder
	for _, p := range op.Params {
		b.WriteString(", ")
		b.WriteString(p.Name)
	}
	return b.String()
}

func resultList(op compile.Operation) string {
	if op.Result == nil {
		return "error"
	}
	return "(" + types.ExprString(op.Result) + ", error)"
}

// quoteSQL returns a Go literal for query text, preferring a raw string.
func quoteSQL(sql string) string {
	if strings.ContainsAny(sql, "`\r") {
		return strconv.Quote(sql)
	}
	return "`" + sql + "`"
}
