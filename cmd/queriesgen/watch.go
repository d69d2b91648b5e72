package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/shipq/queries/cli"
	"github.com/shipq/queries/decl"
)

const defaultDebounce = 150 * time.Millisecond

func watchCmd(args []string, o *cli.Output) int {
	fs := pflag.NewFlagSet("watch", pflag.ContinueOnError)
	fs.SetOutput(o.Err)
	var common commonFlags
	common.register(fs)
	debounce := fs.Duration("debounce", defaultDebounce, "quiet period before regenerating")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := s.watch(ctx, files, *debounce, nil); err != nil {
		o.Errors(err)
		return 1
	}
	return 0
}

// watcher maps watched paths to the declaration files that depend on them.
type watcher struct {
	fsw     *fsnotify.Watcher
	dirs    map[string]bool
	targets map[string][]string // path -> declaration files
}

func (w *watcher) track(path, source string) error {
	path = filepath.Clean(path)
	if !slices.Contains(w.targets[path], source) {
		w.targets[path] = append(w.targets[path], source)
	}
	// Editors often replace files instead of writing them in place, so the
	// directory is watched rather than the file.
	dir := filepath.Dir(path)
	if w.dirs[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dirs[dir] = true
	return nil
}

// refresh regenerates source and re-tracks the query files it reads.
func (s *session) refresh(w *watcher, source string) error {
	if f, err := decl.Load(source); err == nil {
		for _, qf := range f.QueryFiles() {
			if err := w.track(qf, source); err != nil {
				return err
			}
		}
	}
	_, err := s.generate(source, "")
	return err
}

// watch generates every file once, then regenerates a file whenever it or
// a query file it reads changes. Events are debounced. It returns when ctx
// is done. onGenerate, if non-nil, is called after every regeneration.
func (s *session) watch(ctx context.Context, files []string, debounce time.Duration, onGenerate func(source string, err error)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer fsw.Close()

	w := &watcher{fsw: fsw, dirs: make(map[string]bool), targets: make(map[string][]string)}
	sources := make([]string, len(files))
	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		sources[i] = abs
		if err := w.track(abs, abs); err != nil {
			return err
		}
	}

	regenerate := func(source string) {
		err := s.refresh(w, source)
		if err != nil {
			s.out.Errors(err)
		}
		if onGenerate != nil {
			onGenerate(source, err)
		}
	}
	for _, source := range sources {
		regenerate(source)
	}
	s.logger.Info("watch_started", "files", len(sources), "dirs", len(w.dirs))

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			deps := w.targets[filepath.Clean(ev.Name)]
			if len(deps) == 0 {
				continue
			}
			s.logger.Debug("file_changed", "path", ev.Name, "op", ev.Op.String())
			for _, d := range deps {
				pending[d] = true
			}
			timer.Reset(debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watch_error", "error", err)

		case <-timer.C:
			batch := make([]string, 0, len(pending))
			for source := range pending {
				batch = append(batch, source)
			}
			clear(pending)
			slices.Sort(batch)
			for _, source := range batch {
				regenerate(source)
			}
		}
	}
}
