package decl

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load reads a declaration file, choosing the front end by extension.
func Load(filename string) (*File, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".go":
		return ParseGo(filename, nil)
	case ".yaml", ".yml":
		return ParseYAML(filename, nil)
	default:
		return nil, fmt.Errorf("%s: unsupported declaration file (want .go, .yaml or .yml)", filename)
	}
}

// QueryFiles returns the paths of the query files f's operations read,
// resolved against the directory of f, in declaration order.
func (f *File) QueryFiles() []string {
	var out []string
	seen := make(map[string]bool)
	for _, iface := range f.Interfaces {
		for _, m := range iface.Members {
			for _, d := range m.Directives {
				if d.Key != KeyFile || d.Value == "" {
					continue
				}
				p := resolvePath(filepath.Dir(f.Path), d.Value)
				if !seen[p] {
					seen[p] = true
					out = append(out, p)
				}
			}
		}
	}
	return out
}
