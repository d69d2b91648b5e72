// Package inifile reads and writes the small INI dialect used by queries.ini.
//
// Sections and keys are case-insensitive. Lines starting with '#' or ';' are
// comments, as is anything after " ;" or " #" on a key line. Unlike most INI
// readers, Parse is strict: a key outside any section, a line without '=',
// an empty key or a malformed section header is an error naming the line.
package inifile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// File represents a parsed INI file.
type File struct {
	Sections []Section
}

// Section represents a named section in an INI file.
type Section struct {
	Name   string     // e.g., "generate", "db"
	Line   int        // line of the header, 0 for sections created by Set
	Values []KeyValue // preserves order
}

// KeyValue represents a key-value pair.
type KeyValue struct {
	Key   string
	Value string
	Line  int
}

// ParseError reports a malformed line.
type ParseError struct {
	Filename string
	Line     int
	Msg      string
}

func (e *ParseError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Msg)
}

// Parse reads an INI file from the given reader.
func Parse(r io.Reader) (*File, error) {
	return parse("", r)
}

// ParseFile reads and parses an INI file from disk. Errors carry the path.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(path, f)
}

func parse(filename string, r io.Reader) (*File, error) {
	f := &File{}
	var current *Section
	fail := func(line int, format string, args ...any) (*File, error) {
		return nil, &ParseError{Filename: filename, Line: line, Msg: fmt.Sprintf(format, args...)}
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return fail(lineNo, "unterminated section header %q", line)
			}
			name := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			if name == "" {
				return fail(lineNo, "empty section name")
			}
			if f.Section(name) != nil {
				return fail(lineNo, "duplicate section [%s]", name)
			}
			f.Sections = append(f.Sections, Section{Name: name, Line: lineNo})
			current = &f.Sections[len(f.Sections)-1]
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fail(lineNo, "expected key = value, got %q", line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return fail(lineNo, "missing key before '='")
		}
		if current == nil {
			return fail(lineNo, "key %q outside of any section", key)
		}
		current.Values = append(current.Values, KeyValue{
			Key:   key,
			Value: stripComment(strings.TrimSpace(value)),
			Line:  lineNo,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// stripComment removes a trailing " ;..." or " #..." comment from a value.
func stripComment(v string) string {
	for i := 1; i < len(v); i++ {
		if (v[i] == ';' || v[i] == '#') && (v[i-1] == ' ' || v[i-1] == '\t') {
			return strings.TrimSpace(v[:i])
		}
	}
	if v == ";" || v == "#" || strings.HasPrefix(v, "; ") || strings.HasPrefix(v, "# ") {
		return ""
	}
	return v
}

// Section returns the section with the given name (case-insensitive).
func (f *File) Section(name string) *Section {
	name = strings.ToLower(name)
	for i := range f.Sections {
		if f.Sections[i].Name == name {
			return &f.Sections[i]
		}
	}
	return nil
}

// Get returns the last value for a key in a section.
func (f *File) Get(section, key string) string {
	s := f.Section(section)
	if s == nil {
		return ""
	}
	return s.Get(key)
}

// Get returns the last value for a key (case-insensitive).
func (s *Section) Get(key string) string {
	if kv := s.last(key); kv != nil {
		return kv.Value
	}
	return ""
}

func (s *Section) last(key string) *KeyValue {
	key = strings.ToLower(key)
	for i := len(s.Values) - 1; i >= 0; i-- {
		if s.Values[i].Key == key {
			return &s.Values[i]
		}
	}
	return nil
}

// GetList splits the values of key on commas and collects the non-empty
// items across every occurrence of the key.
func (s *Section) GetList(key string) []string {
	key = strings.ToLower(key)
	var result []string
	for _, kv := range s.Values {
		if kv.Key != key {
			continue
		}
		for _, item := range strings.Split(kv.Value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				result = append(result, item)
			}
		}
	}
	return result
}

// Set sets a key-value pair in the specified section.
// If the section doesn't exist, it is created.
// If the key already exists, its value is replaced (destructive overwrite).
func (f *File) Set(section, key, value string) {
	section = strings.ToLower(section)
	key = strings.ToLower(key)

	s := f.Section(section)
	if s == nil {
		f.Sections = append(f.Sections, Section{Name: section})
		s = &f.Sections[len(f.Sections)-1]
	}

	for i := range s.Values {
		if s.Values[i].Key == key {
			s.Values[i].Value = value
			return
		}
	}
	s.Values = append(s.Values, KeyValue{Key: key, Value: value})
}

// Write serializes the INI file to the given writer.
func (f *File) Write(w io.Writer) error {
	for i, section := range f.Sections {
		if _, err := fmt.Fprintf(w, "[%s]\n", section.Name); err != nil {
			return err
		}

		for _, kv := range section.Values {
			if _, err := fmt.Fprintf(w, "%s = %s\n", kv.Key, kv.Value); err != nil {
				return err
			}
		}

		// blank line between sections, not after the last one
		if i < len(f.Sections)-1 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteFile writes the INI file to the specified path.
func (f *File) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := f.Write(file); err != nil {
		return err
	}

	return file.Sync()
}
