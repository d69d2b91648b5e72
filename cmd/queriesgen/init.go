package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/pflag"

	"github.com/shipq/queries/cli"
	"github.com/shipq/queries/internal/config"
)

func initCmd(args []string, o *cli.Output) int {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	fs.SetOutput(o.Err)
	force := fs.BoolP("force", "f", false, "overwrite an existing queries.ini")
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	wd, err := os.Getwd()
	if err != nil {
		o.Errors(fmt.Errorf("failed to get current directory: %w", err))
		return 1
	}
	path := filepath.Join(wd, config.ConfigFilename)
	if _, err := os.Stat(path); err == nil && !*force {
		o.Errors(fmt.Errorf("%s already exists (use --force to overwrite)", path))
		return 1
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		o.Errors(err)
		return 1
	}

	if err := config.Template(fs.Args()).WriteFile(path); err != nil {
		o.Errors(fmt.Errorf("failed to write %s: %w", path, err))
		return 1
	}
	o.Successf("created %s", config.ConfigFilename)
	return 0
}

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func versionString() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "devel"
}

func versionCmd(o *cli.Output) int {
	o.Infof("queriesgen %s", versionString())
	return 0
}
