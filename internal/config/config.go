// Package config loads queriesgen settings from queries.ini.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/shipq/queries/codegen"
	"github.com/shipq/queries/dburl"
	"github.com/shipq/queries/inifile"
	"github.com/shipq/queries/logging"
)

// ConfigFilename is the name of the config file.
const ConfigFilename = "queries.ini"

// Environment overrides.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvLogLevel    = "QUERIES_LOG_LEVEL"
)

// ErrNotFound is returned by Load when the directory has no queries.ini.
var ErrNotFound = errors.New(ConfigFilename + " not found")

// Config holds the complete configuration from queries.ini.
type Config struct {
	// Path is the file the config was read from, empty for defaults.
	Path string
	// Dir is the directory relative paths are resolved against.
	Dir string

	Generate GenerateConfig
	DB       DBConfig
	Log      LogConfig
}

// GenerateConfig holds the [generate] section.
type GenerateConfig struct {
	Sources []string // absolute paths of declaration files
	Suffix  string
	Package string // package for YAML sources that do not name one
}

// DBConfig holds the [db] section.
type DBConfig struct {
	URL     string
	Dialect string // inferred from URL, empty when URL is
}

// LogConfig holds the [log] section.
type LogConfig struct {
	Level  slog.Level
	Format string
}

var knownKeys = map[string][]string{
	"generate": {"sources", "suffix", "package"},
	"db":       {"url"},
	"log":      {"level", "format"},
}

// Default returns the configuration used when there is no queries.ini,
// with environment overrides applied.
func Default(dir string) (*Config, error) {
	cfg := defaults(dir)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults(dir string) *Config {
	return &Config{
		Dir:      dir,
		Generate: GenerateConfig{Suffix: codegen.DefaultSuffix},
		Log:      LogConfig{Level: slog.LevelInfo, Format: logging.FormatPretty},
	}
}

// Load reads queries.ini from the given directory (or CWD if empty).
// It returns ErrNotFound if there is none.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	path := filepath.Join(dir, ConfigFilename)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s\n"+
			"  Hint: Run 'queriesgen init' to create one, or pass declaration files explicitly",
			ErrNotFound, dir)
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Relative paths inside it are resolved
// against its directory.
func LoadFile(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	f, err := inifile.ParseFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFilename, err)
	}

	cfg := defaults(filepath.Dir(abs))
	cfg.Path = abs
	if err := cfg.apply(f); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(f *inifile.File) error {
	for _, s := range f.Sections {
		keys, ok := knownKeys[s.Name]
		if !ok {
			return fmt.Errorf("%s:%d: unknown section [%s]", c.Path, s.Line, s.Name)
		}
		for _, kv := range s.Values {
			if !slices.Contains(keys, kv.Key) {
				return fmt.Errorf("%s:%d: unknown key %q in [%s]", c.Path, kv.Line, kv.Key, s.Name)
			}
		}
	}

	if s := f.Section("generate"); s != nil {
		for _, src := range s.GetList("sources") {
			c.Generate.Sources = append(c.Generate.Sources, c.resolve(src))
		}
		if v := s.Get("suffix"); v != "" {
			if !strings.HasSuffix(v, ".go") || strings.ContainsRune(v, filepath.Separator) {
				return fmt.Errorf("generate.suffix: %q must end in .go and contain no path separator", v)
			}
			c.Generate.Suffix = v
		}
		c.Generate.Package = s.Get("package")
	}

	c.DB.URL = f.Get("db", "url")

	if v := f.Get("log", "level"); v != "" {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
		c.Log.Level = level
	}
	if v := f.Get("log", "format"); v != "" {
		if err := ValidateFormat(v); err != nil {
			return fmt.Errorf("log.format: %w", err)
		}
		c.Log.Format = strings.ToLower(v)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if c.DB.URL == "" {
		c.DB.URL = os.Getenv(EnvDatabaseURL)
	}
	if c.DB.URL != "" {
		dialect, err := dburl.InferDialectFromDBUrl(c.DB.URL)
		if err != nil {
			return fmt.Errorf("db.url: %w", err)
		}
		c.DB.Dialect = dialect
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		level, err := logging.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		c.Log.Level = level
	}
	return nil
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Dir, p)
}

// ValidateFormat checks a log format name.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case logging.FormatJSON, logging.FormatPretty, logging.FormatText:
		return nil
	}
	return fmt.Errorf("invalid log format %q (want json, pretty or text)", format)
}

// Template returns the queries.ini written by 'queriesgen init'.
func Template(sources []string) *inifile.File {
	f := &inifile.File{}
	f.Set("generate", "sources", strings.Join(sources, ", "))
	f.Set("generate", "suffix", codegen.DefaultSuffix)
	f.Set("db", "url", "")
	f.Set("log", "level", "info")
	f.Set("log", "format", logging.FormatPretty)
	return f
}
