package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gradhall/kiosk/internal/records"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
}

// SeedResult is the seed command's JSON payload.
type SeedResult struct {
	EventID string `json:"event_id"`
	Loaded  int    `json:"loaded"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <records.yaml>",
		Short: "Load gown records into the records database",
		Long: `Load a YAML record file into the records database.

Existing records with the same ID are overwritten, so the command can be
re-run when the event roster changes.

Example:
  kiosk seed --db ./hall-b.db rosters/winter-2026.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to records database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSeed(opts *SeedOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	seed, err := records.LoadSeedFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load seed file", err)
	}

	store, err := records.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open records database", err)
	}
	defer store.Close()

	n, err := store.Seed(ctx, seed)
	if err != nil {
		return WrapExitError(ExitFailure, "seed failed", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(SeedResult{EventID: seed.EventID, Loaded: n})
	}
	return formatter.Success(fmt.Sprintf("Loaded %d record(s) for event %s.", n, seed.EventID))
}
