package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gradhall/kiosk/internal/config"
	"github.com/gradhall/kiosk/internal/exec"
	"github.com/gradhall/kiosk/internal/flow"
	"github.com/gradhall/kiosk/internal/profile"
	"github.com/gradhall/kiosk/internal/queue"
	"github.com/gradhall/kiosk/internal/records"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database  string
	QueuePath string
	Profile   string
	Surface   string
	Current   string
	Offline   bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a kiosk session loop on stdin",
		Long: `Run the kiosk state machine, reading input field observations from stdin.

Each line is the current text of the scan field. A blank line submits the
field manually. Lines starting with "/" are operator commands:

  /confirm   confirm the pending operation
  /cancel    cancel and reset
  /approve   admin approval for a late return
  /offline   drop connectivity (queue mutations)
  /online    restore connectivity
  /quit      stop the kiosk

Environment variables (KIOSK_DB, KIOSK_SURFACE, KIOSK_PROFILE, KIOSK_OFFLINE,
KIOSK_EVENT_ID, KIOSK_EVENT_NAME, KIOSK_LOG_LEVEL) supply defaults; flags
override them.

Examples:
  kiosk run --db ./hall-b.db --surface returns
  kiosk run --db ./hall-b.db --profile profiles/gallery.yaml --offline`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKiosk(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to records database (default $KIOSK_DB)")
	cmd.Flags().StringVar(&opts.QueuePath, "queue", "", "path to offline queue database (default <db>.queue)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "profile YAML file (default built-in for surface)")
	cmd.Flags().StringVar(&opts.Surface, "surface", "", "surface name when no profile file is given")
	cmd.Flags().StringVar(&opts.Current, "current", "", "currently assigned resource (swap surfaces)")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "start with connectivity down")

	return cmd
}

func runKiosk(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return WrapExitError(ExitCommandError, "bad environment", err)
	}
	if opts.Database == "" {
		opts.Database = cfg.DBPath
	}
	if opts.QueuePath == "" {
		opts.QueuePath = opts.Database + ".queue"
	}
	if opts.Profile == "" {
		opts.Profile = cfg.ProfilePath
	}
	if opts.Surface == "" {
		opts.Surface = cfg.Surface
	}
	offline := opts.Offline || cfg.Offline

	logLevel := cfg.SlogLevel()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	prof, err := loadProfile(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load profile", err)
	}

	store, err := records.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open records database", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("error closing records database", "error", closeErr)
		}
	}()

	q, err := queue.Open(opts.QueuePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open offline queue", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			logger.Error("error closing offline queue", "error", closeErr)
		}
	}()

	conn := exec.NewToggle(offline)
	executor := exec.New(store, q, conn, exec.WithLogger(logger))

	event := flow.EventContext{EventID: cfg.EventID, EventName: cfg.EventName}
	out := cmd.OutOrStdout()
	machine := flow.New(
		prof.FlowConfig(event, opts.Current),
		store.Lookup(prof.OpKind()),
		executor,
		flow.WithLogger(logger),
		flow.WithObserver(func(tr flow.Transition) {
			fmt.Fprintf(out, "%d %s -> %s: %s\n", tr.Seq, tr.From, tr.To, tr.Note)
		}),
	)
	defer machine.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("kiosk starting",
		"surface", prof.Surface,
		"db", opts.Database,
		"queue", opts.QueuePath,
		"offline", offline)
	fmt.Fprintln(out, "Kiosk ready. Scan or type; blank line submits; /quit to stop.")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("kiosk stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return WrapExitError(ExitFailure, "stdin read error", err)
				}
				logger.Info("input closed, kiosk stopped")
				return nil
			}
			if strings.HasPrefix(line, "/") {
				if quit := dispatchCommand(machine, conn, line, out); quit {
					return nil
				}
				continue
			}
			if line == "" {
				machine.Submit()
				continue
			}
			machine.Input(line)
		}
	}
}

func loadProfile(opts *RunOptions) (profile.Profile, error) {
	if opts.Profile != "" {
		return profile.LoadFile(opts.Profile)
	}
	return profile.Default(opts.Surface)
}

func dispatchCommand(m *flow.Machine, conn *exec.Toggle, line string, out io.Writer) bool {
	switch strings.TrimSpace(line) {
	case "/confirm":
		m.Confirm()
	case "/cancel":
		m.Cancel()
	case "/approve":
		m.AdminApprove()
	case "/offline":
		conn.SetOffline(true)
		fmt.Fprintln(out, "connectivity: offline")
	case "/online":
		conn.SetOffline(false)
		fmt.Fprintln(out, "connectivity: online")
	case "/quit":
		return true
	default:
		fmt.Fprintf(out, "unknown command %q\n", line)
	}
	return false
}
