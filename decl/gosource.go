package decl

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strconv"
)

// ParseGo parses a Go source file and returns every interface in it that
// carries at least one queries: directive. If src is nil the file is read
// from filename. Query files named by file directives are resolved relative
// to the directory of filename.
func ParseGo(filename string, src []byte) (*File, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	f := &File{
		Path:    filename,
		Package: node.Name.Name,
		Source:  SourceGo,
		Imports: make(map[string]string),
	}

	for _, spec := range node.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: bad import path %s", fset.Position(spec.Pos()), spec.Path.Value)
		}
		name := ImportName(p)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		f.Imports[name] = p
	}

	for _, d := range node.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec)
			it, ok := ts.Type.(*ast.InterfaceType)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}
			directives := directivesOf(fset, doc)
			if len(directives) == 0 {
				continue
			}
			f.Interfaces = append(f.Interfaces, interfaceOf(fset, ts, it, directives))
		}
	}

	resolveQueryFiles(f, filepath.Dir(filename))
	return f, nil
}

func interfaceOf(fset *token.FileSet, ts *ast.TypeSpec, it *ast.InterfaceType, directives []Directive) *Interface {
	iface := &Interface{
		Name:       ts.Name.Name,
		Pos:        fset.Position(ts.Name.Pos()),
		Directives: directives,
	}
	if ts.TypeParams != nil {
		for _, field := range ts.TypeParams.List {
			for _, name := range field.Names {
				iface.TypeParams = append(iface.TypeParams, name.Name)
			}
		}
	}

	for _, field := range it.Methods.List {
		m := Member{
			Pos:        fset.Position(field.Pos()),
			Directives: directivesOf(fset, field.Doc),
		}
		ft, isFunc := field.Type.(*ast.FuncType)
		switch {
		case isFunc && len(field.Names) > 0:
			m.Kind = MethodMember
			m.Name = field.Names[0].Name
			m.Pos = fset.Position(field.Names[0].Pos())
			m.Params = paramsOf(fset, ft.Params)
			m.Results = paramsOf(fset, ft.Results)
		case isTypeSetElement(field.Type):
			m.Kind = TypeSetMember
			m.Name = types.ExprString(field.Type)
		default:
			m.Kind = EmbeddedMember
			m.Name = types.ExprString(field.Type)
		}
		iface.Members = append(iface.Members, m)
	}
	return iface
}

func isTypeSetElement(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		return e.Op == token.OR
	case *ast.UnaryExpr:
		return e.Op == token.TILDE
	}
	return false
}

func paramsOf(fset *token.FileSet, fields *ast.FieldList) []Param {
	if fields == nil {
		return nil
	}
	var out []Param
	for _, field := range fields.List {
		typ, variadic := field.Type, false
		if ell, ok := typ.(*ast.Ellipsis); ok {
			typ, variadic = ell.Elt, true
		}
		if len(field.Names) == 0 {
			out = append(out, Param{Type: typ, Variadic: variadic, Pos: fset.Position(field.Pos())})
			continue
		}
		for _, name := range field.Names {
			out = append(out, Param{
				Name:     name.Name,
				Type:     typ,
				Variadic: variadic,
				Pos:      fset.Position(name.Pos()),
			})
		}
	}
	return out
}

func directivesOf(fset *token.FileSet, cg *ast.CommentGroup) []Directive {
	if cg == nil {
		return nil
	}
	var out []Directive
	for _, c := range cg.List {
		key, value, ok := parseDirective(c.Text)
		if !ok {
			continue
		}
		out = append(out, Directive{Key: key, Value: value, Pos: fset.Position(c.Pos())})
	}
	return out
}

// resolveQueryFiles fills in Text for every query and file directive of f.
func resolveQueryFiles(f *File, dir string) {
	for _, iface := range f.Interfaces {
		for i := range iface.Members {
			ds := iface.Members[i].Directives
			for j := range ds {
				switch ds[j].Key {
				case KeyQuery:
					ds[j].Text = ds[j].Value
				case KeyFile:
					if ds[j].Value == "" {
						continue
					}
					data, err := os.ReadFile(resolvePath(dir, ds[j].Value))
					if err != nil {
						ds[j].Err = err
						continue
					}
					ds[j].Text = string(data)
				}
			}
		}
	}
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
