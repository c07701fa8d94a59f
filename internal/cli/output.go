package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Command succeeded
	ExitFailure      = 1 // Join or move rejected by the rules
	ExitCommandError = 2 // Bad flags, unreadable config or storage failure
)

// ExitError carries the exit code a command wants the process to end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an ExitError
// (cobra flag parsing, unknown commands) are command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status  string `json:"status"` // "ok" or "rejected"
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Print writes data as a JSON envelope, or text as is.
func (f *OutputFormatter) Print(status, message string, data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  status,
			Message: message,
			Data:    data,
		})
	}

	_, err := fmt.Fprint(f.Writer, text)
	return err
}

// RenderSnapshot draws the board with x as the row and y as the column, followed by the game status.
func RenderSnapshot(snapshot entity.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Game %d\n\n", snapshot.ID)

	for x, row := range snapshot.Board {
		cells := make([]string, 0, len(row))
		for _, mark := range row {
			symbol := mark.String()
			if mark == entity.MarkEmpty {
				symbol = " "
			}
			cells = append(cells, " "+symbol+" ")
		}

		fmt.Fprintf(&b, "%s\n", strings.Join(cells, "|"))
		if x < len(snapshot.Board)-1 {
			b.WriteString("---+---+---\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(renderSeat(entity.SeatOne, snapshot.PlayerOne))
	b.WriteString(renderSeat(entity.SeatTwo, snapshot.PlayerTwo))

	switch {
	case snapshot.Winner != entity.SeatNone:
		fmt.Fprintf(&b, "Player %d won.\n", snapshot.Winner)
	case snapshot.IsDraw:
		b.WriteString("Draw.\n")
	case !snapshot.Started:
		b.WriteString("Waiting for players.\n")
	default:
		fmt.Fprintf(&b, "Player %d to move.\n", snapshot.Turn)
	}

	return b.String()
}

func renderSeat(seat entity.Seat, player *entity.Player) string {
	if player == nil {
		return fmt.Sprintf("Seat %d: open\n", seat)
	}

	return fmt.Sprintf("Seat %d: %s\n", seat, player.Mark)
}

// RenderHistory lists events one per line in append order.
func RenderHistory(events []entity.Event) string {
	var b strings.Builder

	for _, event := range events {
		b.WriteString(event.String())
		b.WriteString("\n")
	}

	return b.String()
}
