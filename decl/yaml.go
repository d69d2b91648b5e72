package decl

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Package    string          `yaml:"package"`
	Imports    []string        `yaml:"imports"`
	Interfaces []yamlInterface `yaml:"interfaces"`
}

type yamlInterface struct {
	Name       posString       `yaml:"name"`
	Database   posString       `yaml:"database"`
	Operations []yamlOperation `yaml:"operations"`
}

type yamlOperation struct {
	Name      posString   `yaml:"name"`
	Params    []yamlParam `yaml:"params"`
	Query     *posString  `yaml:"query"`
	QueryFile *posString  `yaml:"query_file"`
	Returns   *posString  `yaml:"returns"`
}

type yamlParam struct {
	Name posString `yaml:"name"`
	Type posString `yaml:"type"`
}

// posString is a scalar that remembers where it was written.
type posString struct {
	Value        string
	Line, Column int
}

func (s *posString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a string", node.Line)
	}
	s.Value, s.Line, s.Column = node.Value, node.Line, node.Column
	return nil
}

// ParseYAML decodes a YAML declaration file. If src is nil the file is read
// from filename. Unknown keys are errors. Every operation takes an implicit
// leading context.Context and returns error as its last result.
func ParseYAML(filename string, src []byte) (*File, error) {
	if src == nil {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		src = data
	}

	var doc yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	f := &File{
		Path:    filename,
		Package: doc.Package,
		Source:  SourceYAML,
		Imports: map[string]string{
			"context": "context",
			"iter":    "iter",
		},
	}
	for _, imp := range doc.Imports {
		fields := strings.Fields(imp)
		switch len(fields) {
		case 1:
			f.Imports[ImportName(fields[0])] = fields[0]
		case 2:
			f.Imports[fields[0]] = fields[1]
		default:
			return nil, fmt.Errorf("%s: bad import %q: want \"path\" or \"name path\"", filename, imp)
		}
	}

	pos := func(s posString) token.Position {
		return token.Position{Filename: filename, Line: s.Line, Column: s.Column}
	}
	typeExpr := func(s posString) (ast.Expr, error) {
		expr, err := parser.ParseExpr(s.Value)
		if err != nil || s.Value == "" {
			return nil, fmt.Errorf("%s: invalid type %q", pos(s), s.Value)
		}
		return expr, nil
	}

	ctxType, _ := parser.ParseExpr("context.Context")
	errType := ast.NewIdent("error")

	for _, yi := range doc.Interfaces {
		dbPos := pos(yi.Database)
		if yi.Database.Line == 0 {
			dbPos = pos(yi.Name)
		}
		iface := &Interface{
			Name: yi.Name.Value,
			Pos:  pos(yi.Name),
			Directives: []Directive{{
				Key:   KeyDatabase,
				Value: yi.Database.Value,
				Pos:   dbPos,
			}},
		}
		for _, op := range yi.Operations {
			m := Member{
				Kind:   MethodMember,
				Name:   op.Name.Value,
				Pos:    pos(op.Name),
				Params: []Param{{Name: "ctx", Type: ctxType, Pos: pos(op.Name)}},
			}
			for _, p := range op.Params {
				typ, err := typeExpr(p.Type)
				if err != nil {
					return nil, err
				}
				m.Params = append(m.Params, Param{Name: p.Name.Value, Type: typ, Pos: pos(p.Name)})
			}
			if op.Returns != nil {
				typ, err := typeExpr(*op.Returns)
				if err != nil {
					return nil, err
				}
				m.Results = append(m.Results, Param{Type: typ, Pos: pos(*op.Returns)})
			}
			m.Results = append(m.Results, Param{Type: errType, Pos: pos(op.Name)})

			if op.Query != nil {
				m.Directives = append(m.Directives, Directive{Key: KeyQuery, Value: op.Query.Value, Pos: pos(*op.Query)})
			}
			if op.QueryFile != nil {
				m.Directives = append(m.Directives, Directive{Key: KeyFile, Value: op.QueryFile.Value, Pos: pos(*op.QueryFile)})
			}
			iface.Members = append(iface.Members, m)
		}
		f.Interfaces = append(f.Interfaces, iface)
	}

	resolveQueryFiles(f, filepath.Dir(filename))
	return f, nil
}
