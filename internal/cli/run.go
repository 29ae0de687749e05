package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/pagewarden/internal/config"
	"github.com/ppiankov/pagewarden/internal/denylist"
	"github.com/ppiankov/pagewarden/internal/engine"
	"github.com/ppiankov/pagewarden/internal/logging"
	"github.com/ppiankov/pagewarden/internal/page"
	"github.com/ppiankov/pagewarden/internal/script"
)

// exitNavigatedAway is the exit code when strict mode navigates the page away.
const exitNavigatedAway = 3

var (
	runWatch       bool
	runDevtools    bool
	runInteractive bool
	runEvents      bool
	runDenylist    string
	runLogLevel    string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "Reload the page when the file changes")
	runCmd.Flags().BoolVar(&runDevtools, "devtools", false, "Open the page console at debug level (developer tools open)")
	runCmd.Flags().BoolVar(&runInteractive, "interactive", false, "Read input events from stdin (e.g. \"keydown ctrl+shift+i\", \"contextmenu\", \"hide\")")
	runCmd.Flags().BoolVar(&runEvents, "events", false, "Print retained events as JSON lines on exit")
	runCmd.Flags().StringVar(&runDenylist, "denylist", "", "Path to denylist YAML (default ~/.pagewarden/denylist.yaml)")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "info", "Engine log level (debug, info, warn, error)")
}

var runCmd = &cobra.Command{
	Use:   "run PAGE.html",
	Short: "Open a page session and arm the resolved policy",
	Long: "Loads the page, resolves its policy, arms detectors and runs its inline scripts.\n" +
		"Runs until interrupted, or exits with code 3 once strict mode navigates the page away.\n" +
		"SIGUSR1 toggles page visibility.",
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("cannot resolve page path: %w", err)
	}
	location := rootURL
	if location == "" {
		location = "file://" + filepath.ToSlash(path)
	}

	tuning, err := config.LoadTuning()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = runLogLevel
	log, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	c, err := openControl(location)
	if err != nil {
		return err
	}
	defer c.Close()
	fmt.Fprintln(cmd.ErrOrStderr(), c.resolved.Notice())

	dl, err := denylist.Load(runDenylist)
	if err != nil {
		return fmt.Errorf("failed to load denylist: %w", err)
	}

	doc, err := page.LoadFile(path, location)
	if err != nil {
		return err
	}
	win := page.NewWindow(doc, logging.NewConsole(cmd.ErrOrStderr(), runDevtools))
	rt, err := script.New(win, script.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to create script runtime: %w", err)
	}

	eng := engine.New(doc, log, tuning, engine.WithDenylist(dl))
	defer eng.Close()
	if runEvents {
		defer printEvents(cmd.OutOrStdout(), eng)
	}

	eng.Guard(win, c.resolved.Policy)
	eng.Initialize(win, c.resolved.Policy)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rt.RunInline(ctx); err != nil {
		log.Warn("inline script failed", zap.Error(err))
	}

	if runWatch {
		w := page.NewFileWatcher(doc, path, func(err error) {
			log.Warn("page reload failed", zap.Error(err))
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Warn("page watcher stopped", zap.Error(err))
			}
		}()
	}

	go toggleVisibility(ctx, doc)

	if runInteractive {
		go readInput(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), win, log)
	}

	select {
	case <-ctx.Done():
		return nil
	case <-doc.Unloaded():
		return &exitError{
			code: exitNavigatedAway,
			msg:  fmt.Sprintf("page navigated away to %s after %d alerts", doc.Location(), eng.AlertCount()),
		}
	}
}

// toggleVisibility flips page visibility on every visibility signal.
func toggleVisibility(ctx context.Context, doc *page.Document) {
	sigs := visibilitySignals()
	if len(sigs) == 0 {
		return
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			doc.SetHidden(!doc.Hidden())
		}
	}
}

// readInput dispatches one input event per line of r and reports whether
// the page kept its default action.
func readInput(ctx context.Context, r io.Reader, w io.Writer, win *page.Window, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		cmd, err := parseInputLine(scanner.Text())
		if err != nil {
			log.Warn("ignoring input line", zap.Error(err))
			continue
		}
		switch {
		case cmd.visibility != nil:
			win.Document.SetHidden(*cmd.visibility)
			fmt.Fprintf(w, "hidden=%t\n", *cmd.visibility)
		case cmd.event != nil:
			if win.Dispatch(*cmd.event) {
				fmt.Fprintf(w, "%s allowed\n", describeEvent(*cmd.event))
			} else {
				fmt.Fprintf(w, "%s blocked\n", describeEvent(*cmd.event))
			}
		}
	}
}

func printEvents(w io.Writer, eng *engine.Engine) {
	enc := json.NewEncoder(w)
	for _, ev := range eng.Events() {
		enc.Encode(ev)
	}
}
