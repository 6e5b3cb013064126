package cli

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/gradhall/kiosk/internal/profile"
)

// ValidationResult holds profile validation results.
type ValidationResult struct {
	Valid   bool                      `json:"valid"`
	Surface string                    `json:"surface,omitempty"`
	Errors  []profile.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile.yaml>",
		Short: "Validate a surface profile",
		Long: `Validate a profile YAML file against the surface schema.

Checks the surface name, operation, timing bounds, and branch toggles a
kiosk would refuse to start with.

Exit codes:
  0 - Profile is valid
  1 - Profile violates the schema
  2 - Command error (file not found, unparseable YAML)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	p, err := profile.LoadFile(path)
	if err != nil {
		if ferr := formatter.Error(ErrCodeProfile, err.Error(), nil); ferr != nil {
			return WrapExitError(ExitCommandError, "output error", ferr)
		}
		if errors.Is(err, fs.ErrNotExist) {
			return WrapExitError(ExitCommandError, "profile not found", err)
		}
		return WrapExitError(ExitFailure, "profile invalid", err)
	}

	result := ValidationResult{Valid: true, Surface: p.Surface}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success("Profile is valid (" + p.Surface + ").")
}
