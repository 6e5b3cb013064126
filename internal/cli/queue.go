package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gradhall/kiosk/internal/queue"
)

// QueueOptions holds flags for the queue command.
type QueueOptions struct {
	*RootOptions
	QueuePath string
	All       bool
}

// QueueEntry is one operation in queue listing output.
type QueueEntry struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	EnqueuedAt string `json:"enqueued_at"`
	Payload    string `json:"payload"`
}

// QueueListing is the queue command's JSON payload.
type QueueListing struct {
	Entries []QueueEntry `json:"entries"`
	Pending int          `json:"pending"`
}

// NewQueueCommand creates the queue command.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueueOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List queued offline operations",
		Long: `List operations waiting in the offline queue.

By default only pending operations are shown; --all includes operations
already replayed.

Examples:
  kiosk queue --queue ./hall-b.db.queue
  kiosk queue --queue ./hall-b.db.queue --all --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueue(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.QueuePath, "queue", "", "path to offline queue database (required)")
	_ = cmd.MarkFlagRequired("queue")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include replayed operations")

	return cmd
}

func runQueue(opts *QueueOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	q, err := queue.Open(opts.QueuePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open offline queue", err)
	}
	defer q.Close()

	var ops []queue.PendingOperation
	if opts.All {
		ops, err = q.All(ctx)
	} else {
		ops, err = q.Pending(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read queue", err)
	}

	listing := QueueListing{Entries: make([]QueueEntry, 0, len(ops))}
	for _, op := range ops {
		if op.Status == queue.StatusPending {
			listing.Pending++
		}
		listing.Entries = append(listing.Entries, QueueEntry{
			ID:         op.ID,
			Kind:       op.Kind,
			Status:     string(op.Status),
			EnqueuedAt: op.EnqueuedAt.Format(time.RFC3339),
			Payload:    string(op.Payload),
		})
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(listing)
	}

	out := cmd.OutOrStdout()
	if len(listing.Entries) == 0 {
		fmt.Fprintln(out, "Queue is empty.")
		return nil
	}
	for _, e := range listing.Entries {
		fmt.Fprintf(out, "%s  %-8s %-9s %s\n", e.EnqueuedAt, e.Kind, e.Status, e.ID)
		if opts.Verbose {
			fmt.Fprintf(out, "    %s\n", e.Payload)
		}
	}
	fmt.Fprintf(out, "%d pending\n", listing.Pending)
	return nil
}
