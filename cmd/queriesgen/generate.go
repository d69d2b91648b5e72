package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/shipq/queries/cli"
	"github.com/shipq/queries/codegen"
	"github.com/shipq/queries/compile"
	"github.com/shipq/queries/dburl"
	"github.com/shipq/queries/decl"
)

func generateCmd(args []string, o *cli.Output) int {
	fs := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	fs.SetOutput(o.Err)
	var common commonFlags
	common.register(fs)
	outPath := fs.StringP("out", "o", "", "output file (only with a single declaration file)")
	fs.Usage = func() {
		fmt.Fprintln(o.Err, "Usage: queriesgen generate [flags] [files...]")
		fs.PrintDefaults()
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	s, err := common.load(o)
	if err != nil {
		o.Errors(err)
		return 1
	}
	files, err := s.sources(fs.Args())
	if err != nil {
		o.Errors(err)
		return 2
	}
	if *outPath != "" && len(files) != 1 {
		o.Errors(fmt.Errorf("--out needs exactly one declaration file, got %d", len(files)))
		return 2
	}

	s.logger.Info("generate_started", "files", len(files), "suffix", s.cfg.Generate.Suffix)
	failed := false
	for _, file := range files {
		if _, err := s.generate(file, *outPath); err != nil {
			o.Errors(err)
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

func checkCmd(args []string, o *cli.Output) int {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	fs.SetOutput(o.Err)
	var common commonFlags
	common.register(fs)
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	s, err := common.load(o)
	if err != nil {
		o.Errors(err)
		return 1
	}
	files, err := s.sources(fs.Args())
	if err != nil {
		o.Errors(err)
		return 2
	}

	failed := false
	for _, file := range files {
		plan, warnings, err := s.compile(file)
		if err != nil {
			o.Errors(err)
			failed = true
			continue
		}
		for _, w := range warnings {
			o.Warnf("%s", w)
		}
		ops := 0
		for _, iface := range plan.Interfaces {
			ops += len(iface.Operations)
		}
		o.Successf("%s: %d interfaces, %d operations", file, len(plan.Interfaces), ops)
	}
	if failed {
		return 1
	}
	return 0
}

// compile loads and compiles one declaration file, logging every compiled
// interface and every warning. An interface declared for a database other
// than the configured one is a warning.
func (s *session) compile(file string) (*compile.Plan, []compile.Warning, error) {
	f, err := decl.Load(file)
	if err != nil {
		return nil, nil, err
	}
	if f.Source == decl.SourceYAML && f.Package == "" {
		f.Package = s.cfg.Generate.Package
	}

	plan, warnings, err := compile.Compile(f)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		s.logger.Warn("placeholder_mismatch", "pos", w.Pos.String(), "message", w.Message)
	}
	for _, iface := range plan.Interfaces {
		s.logger.Info("interface_compiled",
			"file", file,
			"interface", iface.Name,
			"database", iface.Database,
			"operations", len(iface.Operations),
		)
		if s.cfg.DB.Dialect == "" || iface.Database == s.cfg.DB.Dialect {
			continue
		}
		w := compile.Warning{
			Pos: iface.Pos,
			Message: fmt.Sprintf("%s is declared for %s but the configured database %s is %s",
				iface.Name, iface.Database, dburl.Redacted(s.cfg.DB.URL), s.cfg.DB.Dialect),
		}
		s.logger.Warn("dialect_mismatch", "pos", w.Pos.String(), "interface", iface.Name,
			"declared", iface.Database, "configured", s.cfg.DB.Dialect)
		warnings = append(warnings, w)
	}
	return plan, warnings, nil
}

var errNoDeclarations = errors.New("no annotated interfaces")

// generate compiles file and writes its generated code, returning the path
// written. An explicit out overrides the configured suffix.
func (s *session) generate(file, out string) (string, error) {
	plan, _, err := s.compile(file)
	if err != nil {
		return "", err
	}
	if len(plan.Interfaces) == 0 {
		return "", fmt.Errorf("%s: %w", file, errNoDeclarations)
	}

	code, err := codegen.Generate(plan)
	if err != nil {
		return "", fmt.Errorf("%s: %w", file, err)
	}

	if out == "" {
		out = codegen.OutputPath(file, s.cfg.Generate.Suffix)
	}
	if filepath.Clean(out) == filepath.Clean(file) {
		return "", fmt.Errorf("%s: output would overwrite the declaration file", file)
	}
	if _, err := os.Stat(out); err == nil {
		generated, err := codegen.IsGenerated(out)
		if err != nil {
			return "", err
		}
		if !generated {
			return "", fmt.Errorf("refusing to overwrite %s: it does not start with %q", out, codegen.Header)
		}
	}

	changed, err := codegen.WriteFileIfChanged(out, code)
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", out, err)
	}
	s.logger.Info("file_written", "source", file, "output", out, "changed", changed)
	if changed {
		s.out.Successf("wrote %s", out)
	} else {
		s.out.Infof("%s is up to date", out)
	}
	return out, nil
}
