package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	application "github.com/rocketscienceinc/tictactoe-replay/internal"
	"github.com/rocketscienceinc/tictactoe-replay/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
}

var validFormats = []string{"text", "json"}

// NewRootCommand creates the tictactoe command. Every invocation restores the game from
// the move log before acting on it.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tictactoe",
		Short: "Two-player tic-tac-toe backed by a durable move log",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.yml", "path to the config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewStateCommand(opts))
	cmd.AddCommand(NewNewGameCommand(opts))
	cmd.AddCommand(NewJoinCommand(opts))
	cmd.AddCommand(NewMoveCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != ExitFailure {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}

	return GetExitCode(err)
}

// withManager loads the config and hands fn a restored game manager. Errors that are not
// already an ExitError become command errors.
func withManager(cmd *cobra.Command, opts *RootOptions, fn application.RunFunc) error {
	conf, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := application.NewLogger(conf.LogLevel, cmd.ErrOrStderr())

	err = application.RunApp(cmd.Context(), logger, conf, fn)
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	return WrapExitError(ExitCommandError, "command failed", err)
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format: opts.Format,
		Writer: cmd.OutOrStdout(),
	}
}
