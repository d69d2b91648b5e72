// Package decl loads query declarations from annotated Go interfaces and from
// YAML declaration files into a common model.
//
// A Go declaration is an interface carrying queries: directives:
//
//	//queries:database sqlite
//	type PetQueries interface {
//		//queries:query SELECT id, name FROM pets WHERE id = ?
//		GetPet(ctx context.Context, id int64) (Pet, error)
//
//		//queries:file sql/list_pets.sql
//		ListPets(ctx context.Context) ([]Pet, error)
//	}
//
// A block comment of the form /*queries:query ... */ holds multi-line SQL.
// Loading never judges the declaration; see package compile for that.
package decl

import (
	"go/ast"
	"go/token"
	"path"
	"regexp"
	"strings"
)

// Directive keys understood by the compiler.
const (
	KeyDatabase = "database"
	KeyQuery    = "query"
	KeyFile     = "file"
)

const directivePrefix = "queries:"

// Source tells which front end produced a File.
type Source int

const (
	SourceGo Source = iota
	SourceYAML
)

// File is one loaded declaration file.
type File struct {
	Path    string
	Package string
	Source  Source

	// Imports maps the local package name used in type expressions to the
	// import path.
	Imports map[string]string

	Interfaces []*Interface
}

// Interface is a declared interface together with its directives.
type Interface struct {
	Name       string
	Pos        token.Position
	Directives []Directive

	// TypeParams lists the names of the interface's type parameters, if any.
	TypeParams []string

	Members []Member
}

// Database returns the value of the first database directive, or "".
func (i *Interface) Database() string {
	for _, d := range i.Directives {
		if d.Key == KeyDatabase {
			return d.Value
		}
	}
	return ""
}

// MemberKind distinguishes the element kinds an interface body can hold.
type MemberKind int

const (
	MethodMember   MemberKind = iota
	EmbeddedMember            // embedded interface or named type
	TypeSetMember             // ~T or A | B
)

// Member is one element of an interface body.
type Member struct {
	Kind       MemberKind
	Name       string // method name, or the printed element for other kinds
	Pos        token.Position
	Directives []Directive
	Params     []Param
	Results    []Param
}

// Param is one method parameter or result.
type Param struct {
	Name     string // "" when unnamed
	Type     ast.Expr
	Variadic bool
	Pos      token.Position
}

// Directive is one queries:<key> <value> annotation.
type Directive struct {
	Key   string
	Value string
	Pos   token.Position

	// Text is the query text: Value for query directives, the file contents
	// for file directives. Err records a file that could not be read.
	Text string
	Err  error
}

// parseDirective recognizes //queries:key value and /*queries:key value*/.
func parseDirective(comment string) (key, value string, ok bool) {
	var body string
	switch {
	case strings.HasPrefix(comment, "//"+directivePrefix):
		body = comment[len("//"+directivePrefix):]
	case strings.HasPrefix(comment, "/*"+directivePrefix):
		body = strings.TrimSuffix(comment[len("/*"+directivePrefix):], "*/")
	default:
		return "", "", false
	}
	key, value, _ = strings.Cut(body, " ")
	if i := strings.IndexAny(key, "\t\r\n"); i >= 0 {
		key, value = key[:i], key[i:]+" "+value
	}
	return key, strings.TrimSpace(value), true
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// ImportName returns the package name an import path is conventionally
// referred to by: the last path element, skipping a major version suffix
// ("github.com/jackc/pgx/v5" -> "pgx", "gopkg.in/yaml.v3" -> "yaml").
func ImportName(importPath string) string {
	base := path.Base(importPath)
	if majorVersion.MatchString(base) {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.Index(base, ".v"); i > 0 && majorVersion.MatchString(base[i+1:]) {
		base = base[:i]
	}
	base = strings.TrimPrefix(base, "go-")
	return strings.ReplaceAll(base, "-", "_")
}
