package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/shipq/queries/cli"
	"github.com/shipq/queries/dburl"
	"github.com/shipq/queries/internal/config"
	"github.com/shipq/queries/internal/project"
	"github.com/shipq/queries/logging"
)

type errUnknownCommand string

func (e errUnknownCommand) Error() string { return "unknown command: " + string(e) }

var errNoSources = errors.New("no declaration files: pass them as arguments, " +
	"list them under [generate] sources in queries.ini, or run from go generate")

// commonFlags are accepted by every command that reads declarations.
type commonFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	suffix     string
	pkg        string
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.configPath, "config", "c", "", "path to queries.ini (default: ./queries.ini if present)")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&c.logFormat, "log-format", "", "log format: json, pretty or text")
	fs.StringVar(&c.suffix, "suffix", "", "suffix of generated files (default _gen.go)")
	fs.StringVar(&c.pkg, "package", "", "package for YAML declarations that do not name one")
}

// session is the loaded configuration of one command invocation.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	out    *cli.Output
}

// load reads the configuration and applies flag overrides. Flags win over
// the environment, which wins over queries.ini.
func (c *commonFlags) load(o *cli.Output) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	if c.logLevel != "" {
		level, err := logging.ParseLevel(c.logLevel)
		if err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
		cfg.Log.Level = level
	}
	if c.logFormat != "" {
		if err := config.ValidateFormat(c.logFormat); err != nil {
			return nil, fmt.Errorf("--log-format: %w", err)
		}
		cfg.Log.Format = c.logFormat
	}
	if c.suffix != "" {
		cfg.Generate.Suffix = c.suffix
	}
	if c.pkg != "" {
		cfg.Generate.Package = c.pkg
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, o.Err)
	if err != nil {
		return nil, err
	}
	logger.Debug("config_loaded",
		"path", cfg.Path,
		"sources", len(cfg.Generate.Sources),
		"db_url", dburl.Redacted(cfg.DB.URL),
		"db_dialect", cfg.DB.Dialect,
	)
	return &session{cfg: cfg, logger: logger, out: o}, nil
}

// loadConfig reads --config, or else the nearest queries.ini at or above the
// working directory. Without one the defaults apply.
func (c *commonFlags) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFile(c.configPath)
	}
	root, found, err := project.FindRoot("")
	if err != nil {
		return nil, err
	}
	if found {
		return config.LoadFile(root.ConfigPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return config.Default(wd)
}

// sources picks the declaration files: explicit arguments, then the
// configured sources, then $GOFILE.
func (s *session) sources(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(s.cfg.Generate.Sources) > 0 {
		return s.cfg.Generate.Sources, nil
	}
	if gofile := os.Getenv("GOFILE"); gofile != "" {
		return []string{gofile}, nil
	}
	return nil, errNoSources
}

// parseFlags parses args into fs, reporting whether the command should
// continue and, if not, the exit code.
func parseFlags(fs *pflag.FlagSet, args []string) (ok bool, code int) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, 0
		}
		return false, 2
	}
	return true, 0
}
