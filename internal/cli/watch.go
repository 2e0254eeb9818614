package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/zoobzio/formula"
	"github.com/zoobzio/formula/config"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Dialect  string
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <formula-file>",
		Short: "Translate a formula document whenever it or the configuration changes",
		Long: `Translate a formula document, then translate it again each time the
document changes. With --config the engine is rebuilt when the
configuration file changes; a configuration that fails to load keeps the
current engine. Failing formulas print ` + ErrorPlaceholder + `.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect or dialect list")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 100*time.Millisecond, "delay before translating after a change")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, cmd *cobra.Command, path string) error {
	engine, cfg, err := opts.engine(cmd)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "formula file", err)
	}
	ref := formula.NewEngineRef(engine)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}

	var mu sync.Mutex // guards cfg and output
	translate := func() {
		mu.Lock()
		defer mu.Unlock()
		doc, err := readDocument(abs)
		if err != nil {
			formatter.Warnf("%v\n", err)
			return
		}
		out, err := translateDocument(ref.Load(), cfg, doc, opts.Dialect, true)
		if err != nil {
			formatter.Warnf("%v\n", err)
			return
		}
		if formatter.JSON() {
			_ = formatter.Encode(out)
			return
		}
		writeTranslations(formatter, out)
	}
	translate()

	if opts.Config != "" {
		w, err := config.NewWatcher(opts.Config, ref, opts.logger(cmd),
			config.WithDebounceDelay(opts.Debounce),
			config.WithOnReload(func(c *config.Config) {
				mu.Lock()
				cfg = c
				mu.Unlock()
				translate()
			}),
		)
		if err != nil {
			return WrapExitError(ExitCommandError, "watching config", err)
		}
		if err := w.Start(); err != nil {
			return WrapExitError(ExitCommandError, "watching config", err)
		}
		defer func() { _ = w.Stop() }()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "watching formulas", err)
	}
	defer fsw.Close()
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return WrapExitError(ExitCommandError, "watching formulas", err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == abs && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				pending = time.After(opts.Debounce)
			}
		case <-pending:
			pending = nil
			translate()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			formatter.Warnf("watch error: %v\n", err)
		}
	}
}
