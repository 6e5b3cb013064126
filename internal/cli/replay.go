package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gradhall/kiosk/internal/exec"
	"github.com/gradhall/kiosk/internal/queue"
	"github.com/gradhall/kiosk/internal/records"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	QueuePath string
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Applied   int  `json:"applied"`
	Remaining int  `json:"remaining"`
	Clean     bool `json:"clean"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay queued offline operations against the records database",
		Long: `Replay pending offline operations in enqueue order.

Each operation is decoded and applied to the records database, then marked
replayed. Replay stops at the first failure; already-applied operations stay
marked and the failed operation stays pending for the next attempt.

Exit codes:
  0 - Queue drained
  1 - Replay stopped at a failing operation
  2 - Command error (database not found, etc.)

Examples:
  kiosk replay --db ./hall-b.db
  kiosk replay --db ./hall-b.db --queue ./hall-b.db.queue --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to records database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.QueuePath, "queue", "", "path to offline queue database (default <db>.queue)")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.QueuePath == "" {
		opts.QueuePath = opts.Database + ".queue"
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := records.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open records database", err)
	}
	defer store.Close()

	q, err := queue.Open(opts.QueuePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open offline queue", err)
	}
	defer q.Close()

	conn := exec.NewToggle(false)
	executor := exec.New(store, q, conn, exec.WithLogger(slog.Default()))

	applied, replayErr := q.Replay(ctx, func(ctx context.Context, pending queue.PendingOperation) error {
		op, err := exec.DecodeOperation(pending)
		if err != nil {
			return err
		}
		formatter.VerboseLog("applying %s %s", op.Kind, pending.ID)
		return executor.Apply(ctx, op)
	})

	remaining, pendErr := q.Pending(ctx)
	if pendErr != nil {
		return WrapExitError(ExitCommandError, "failed to list pending operations", pendErr)
	}

	result := ReplayResult{
		Applied:   applied,
		Remaining: len(remaining),
		Clean:     replayErr == nil,
	}

	if replayErr != nil {
		if ferr := formatter.Error(ErrCodeReplay, replayErr.Error(), result); ferr != nil {
			return WrapExitError(ExitCommandError, "output error", ferr)
		}
		return WrapExitError(ExitFailure, "replay stopped", replayErr)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	formatter.VerboseLog("queue drained")
	return formatter.Success(replaySummary(result))
}

func replaySummary(r ReplayResult) string {
	if r.Applied == 0 {
		return "Nothing to replay."
	}
	return fmt.Sprintf("Replayed %d operation(s).", r.Applied)
}
