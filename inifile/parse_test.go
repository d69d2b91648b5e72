package inifile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		f, err := Parse(strings.NewReader(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.Sections) != 0 {
			t.Errorf("expected empty sections, got %d", len(f.Sections))
		}
	})

	t.Run("multiple sections", func(t *testing.T) {
		ini := "[generate]\nsources = a.go\n[db]\nurl = sqlite:app.db\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("generate", "sources"); got != "a.go" {
			t.Errorf("generate.sources: got %q, want %q", got, "a.go")
		}
		if got := f.Get("db", "url"); got != "sqlite:app.db" {
			t.Errorf("db.url: got %q, want %q", got, "sqlite:app.db")
		}
	})

	t.Run("ignores comments and empty lines", func(t *testing.T) {
		ini := "# comment\n; another\n\n[section]\n\nkey = value\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("section", "key"); got != "value" {
			t.Errorf("got %q, want %q", got, "value")
		}
	})

	t.Run("strips inline comments", func(t *testing.T) {
		ini := "[log]\nlevel = info   ; debug|info|warn|error\nformat = pretty # or json\npackage =    ; unset\ncolor = #fff\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := map[string]string{"level": "info", "format": "pretty", "package": "", "color": "#fff"}
		for k, v := range want {
			if got := f.Get("log", k); got != v {
				t.Errorf("%s: got %q, want %q", k, got, v)
			}
		}
	})

	t.Run("trims whitespace and keeps equals signs in values", func(t *testing.T) {
		ini := "[section]\n  url  =   postgres://host?foo=bar&baz=qux   \n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("section", "url"); got != "postgres://host?foo=bar&baz=qux" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("records line numbers", func(t *testing.T) {
		ini := "; header\n[db]\n\nurl = x\n"
		f, err := Parse(strings.NewReader(ini))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := f.Section("db")
		if s.Line != 2 || s.Values[0].Line != 4 {
			t.Errorf("got section line %d, key line %d, want 2 and 4", s.Line, s.Values[0].Line)
		}
	})

	t.Run("missing keys and sections read as empty", func(t *testing.T) {
		f, err := Parse(strings.NewReader("[section]\nkey = value\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.Get("section", "missing"); got != "" {
			t.Errorf("got %q, want empty string", got)
		}
		if got := f.Get("other", "key"); got != "" {
			t.Errorf("got %q, want empty string", got)
		}
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		ini  string
		line int
		msg  string
	}{
		{"key before any section", "orphan = value\n[section]\n", 1, "outside of any section"},
		{"line without equals", "[section]\ninvalid line\n", 2, "expected key = value"},
		{"empty key", "[section]\n = value\n", 2, "missing key"},
		{"unterminated header", "[section\nkey = v\n", 1, "unterminated section header"},
		{"empty section name", "[ ]\n", 1, "empty section name"},
		{"duplicate section", "[a]\nk = v\n\n[A]\n", 4, "duplicate section [a]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.ini))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Line != tt.line {
				t.Errorf("line: got %d, want %d", pe.Line, tt.line)
			}
			if !strings.Contains(pe.Msg, tt.msg) {
				t.Errorf("message %q does not contain %q", pe.Msg, tt.msg)
			}
		})
	}
}

func TestParseFileErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.ini")
	if err := os.WriteFile(path, []byte("[generate]\nbogus\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ParseFile(path)
	if err == nil || err.Error() != path+":2: expected key = value, got \"bogus\"" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCaseSensitivity(t *testing.T) {
	f, err := Parse(strings.NewReader("[DB]\nURL = x\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.Get("db", "url"); got != "x" {
		t.Errorf("got %q, want %q", got, "x")
	}
	if got := f.Get("Db", "Url"); got != "x" {
		t.Errorf("got %q, want %q", got, "x")
	}
}

func TestSectionAccessors(t *testing.T) {
	ini := "[generate]\nsources = a.go, b.yaml\nsources = c.go,,\nSOURCES = d.go\n"
	f, err := Parse(strings.NewReader(ini))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := f.Section("generate")

	t.Run("Get returns the last value", func(t *testing.T) {
		if got := s.Get("sources"); got != "d.go" {
			t.Errorf("got %q, want %q", got, "d.go")
		}
	})

	t.Run("GetList splits on commas", func(t *testing.T) {
		want := []string{"a.go", "b.yaml", "c.go", "d.go"}
		if got := s.GetList("sources"); !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})
}

func TestSet(t *testing.T) {
	f := &File{}
	f.Set("Generate", "Suffix", "_gen.go")
	f.Set("generate", "suffix", "_queries.go")
	f.Set("db", "url", "sqlite:app.db")

	if len(f.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(f.Sections))
	}
	if got := f.Get("generate", "suffix"); got != "_queries.go" {
		t.Errorf("got %q, want %q", got, "_queries.go")
	}
	if n := len(f.Section("generate").Values); n != 1 {
		t.Errorf("expected overwrite, got %d values", n)
	}
}

func TestWrite(t *testing.T) {
	f := &File{}
	f.Set("generate", "sources", "queries.go")
	f.Set("generate", "suffix", "_gen.go")
	f.Set("log", "level", "info")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[generate]\nsources = queries.go\nsuffix = _gen.go\n\n[log]\nlevel = info\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.ini")
	f := &File{}
	f.Set("db", "url", "postgres://localhost/app?sslmode=disable")
	f.Set("log", "format", "json")
	if err := f.WriteFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f2, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f2.Get("db", "url"); got != "postgres://localhost/app?sslmode=disable" {
		t.Errorf("db.url: got %q", got)
	}
	if got := f2.Get("log", "format"); got != "json" {
		t.Errorf("log.format: got %q", got)
	}
}
