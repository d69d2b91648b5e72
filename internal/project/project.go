// Package project locates the queries.ini that governs a directory. The
// search walks upward, the way the go command finds go.mod.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shipq/queries/internal/config"
)

// Root is a directory holding a queries.ini.
type Root struct {
	// Dir is the absolute path of the directory.
	Dir string

	// ConfigPath is the absolute path of its queries.ini.
	ConfigPath string
}

// FindRoot searches upward from startDir for a queries.ini file.
// If startDir is empty, the current working directory is used.
//
// It returns (nil, false, nil) when no directory up to the filesystem root
// has one, and an error only for filesystem failures.
func FindRoot(startDir string) (*Root, bool, error) {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return nil, false, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(dir, config.ConfigFilename)
		info, err := os.Stat(configPath)
		if err == nil && !info.IsDir() {
			return &Root{Dir: dir, ConfigPath: configPath}, true, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("failed to check %s: %w", configPath, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false, nil
		}
		dir = parent
	}
}
