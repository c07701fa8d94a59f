package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-replay/internal/usecase"
	"github.com/spf13/cobra"
)

const (
	statusOK       = "ok"
	statusRejected = "rejected"
)

// JoinOptions holds flags for the join command.
type JoinOptions struct {
	*RootOptions
	Mark string
	Seat int
}

// MoveOptions holds flags for the move command.
type MoveOptions struct {
	*RootOptions
	Seat int
	X    int
	Y    int
}

// MoveResult is the JSON payload of the move command.
type MoveResult struct {
	Outcome entity.Outcome  `json:"outcome"`
	Game    entity.Snapshot `json:"game"`
}

// JoinResult is the JSON payload of the join command.
type JoinResult struct {
	Outcome entity.JoinOutcome `json:"outcome"`
	Game    entity.Snapshot    `json:"game"`
}

func NewStateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the current game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, opts, func(_ context.Context, manager *usecase.GameManager) error {
				snapshot, err := manager.CurrentState()
				if err != nil {
					return err
				}

				return newFormatter(cmd, opts).Print(statusOK, "", snapshot, RenderSnapshot(snapshot))
			})
		},
	}
}

func NewNewGameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Discard the current game and start a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, opts, func(ctx context.Context, manager *usecase.GameManager) error {
				snapshot, err := manager.NewGame(ctx)
				if err != nil {
					return err
				}

				return newFormatter(cmd, opts).Print(statusOK, "New game started.", snapshot,
					"New game started.\n"+RenderSnapshot(snapshot))
			})
		},
	}
}

func NewJoinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JoinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Take a seat in the current game",
		Long: `Take a seat in the current game.

Player 1 picks X or O. Player 2 gets the other mark; passing --mark for
player 2 only checks it matches.

Exit codes:
  0 - Joined
  1 - Join rejected
  2 - Command error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJoin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Mark, "mark", "", "mark to play with (X|O)")
	cmd.Flags().IntVar(&opts.Seat, "seat", 0, "seat to take (1|2), next open seat when omitted")

	return cmd
}

func runJoin(cmd *cobra.Command, opts *JoinOptions) error {
	mark, err := entity.ParseMark(opts.Mark)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --mark", err)
	}

	seat, err := toSeat(opts.Seat)
	if err != nil {
		return err
	}

	return withManager(cmd, opts.RootOptions, func(ctx context.Context, manager *usecase.GameManager) error {
		var (
			outcome entity.JoinOutcome
			err     error
		)
		if seat == entity.SeatNone {
			outcome, err = manager.Join(ctx, mark)
		} else {
			outcome, err = manager.JoinSeat(ctx, seat, mark)
		}
		if err != nil {
			return err
		}

		snapshot, err := manager.CurrentState()
		if err != nil {
			return err
		}

		return report(cmd, opts.RootOptions, outcome.Accepted(), outcome.Message(),
			JoinResult{Outcome: outcome, Game: snapshot}, snapshot)
	})
}

func NewMoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Place a mark for a seat",
		Long: `Place a mark for a seat at row x, column y (both 0-2).

Exit codes:
  0 - Move played
  1 - Move rejected
  2 - Command error

Examples:
  tictactoe move --seat 1 --x 1 --y 1
  tictactoe move --seat 2 --x 0 --y 2 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMove(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Seat, "seat", 0, "seat making the move (1|2)")
	cmd.Flags().IntVar(&opts.X, "x", 0, "row (0-2)")
	cmd.Flags().IntVar(&opts.Y, "y", 0, "column (0-2)")
	_ = cmd.MarkFlagRequired("seat")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")

	return cmd
}

func runMove(cmd *cobra.Command, opts *MoveOptions) error {
	seat, err := toSeat(opts.Seat)
	if err != nil {
		return err
	}

	return withManager(cmd, opts.RootOptions, func(ctx context.Context, manager *usecase.GameManager) error {
		outcome, err := manager.MakeMove(ctx, seat, opts.X, opts.Y)
		if err != nil {
			return err
		}

		snapshot, err := manager.CurrentState()
		if err != nil {
			return err
		}

		return report(cmd, opts.RootOptions, outcome.Accepted(), outcome.Message(),
			MoveResult{Outcome: outcome, Game: snapshot}, snapshot)
	})
}

func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the events of the current game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, opts, func(ctx context.Context, manager *usecase.GameManager) error {
				events, err := manager.History(ctx)
				if err != nil {
					return err
				}

				return newFormatter(cmd, opts).Print(statusOK, "", events, RenderHistory(events))
			})
		},
	}
}

// report prints the result of a join or move. A rejection becomes an ExitFailure after printing.
func report(cmd *cobra.Command, opts *RootOptions, accepted bool, message string, data any, snapshot entity.Snapshot) error {
	status := statusOK
	if !accepted {
		status = statusRejected
	}

	if err := newFormatter(cmd, opts).Print(status, message, data, message+"\n\n"+RenderSnapshot(snapshot)); err != nil {
		return err
	}

	if !accepted {
		return NewExitError(ExitFailure, message)
	}

	return nil
}

// toSeat keeps out-of-range seat numbers for the rules to reject; only values that do not fit a seat at all fail here.
func toSeat(n int) (entity.Seat, error) {
	if n < 0 || n > math.MaxUint8 {
		return entity.SeatNone, NewExitError(ExitCommandError, fmt.Sprintf("invalid seat %d", n))
	}

	return entity.Seat(n), nil
}
