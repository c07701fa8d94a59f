package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-replay/internal/apperror"
)

type EventKind string

const (
	// EventGameReset opens a game id. It is always the first event of a game.
	EventGameReset    EventKind = "game_reset"
	EventPlayerJoined EventKind = "player_joined"
	EventMovePlayed   EventKind = "move_played"
)

// Event is one immutable entry of the move log.
type Event struct {
	GameID int64     `json:"game_id"`
	Seq    int64     `json:"seq"`
	Kind   EventKind `json:"kind"`
	Seat   Seat      `json:"seat,omitempty"`
	Mark   Mark      `json:"mark,omitempty"`
	X      int       `json:"x"`
	Y      int       `json:"y"`
}

func NewGameReset(gameID int64) Event {
	return Event{GameID: gameID, Kind: EventGameReset}
}

func NewPlayerJoined(gameID int64, player Player) Event {
	return Event{GameID: gameID, Kind: EventPlayerJoined, Seat: player.Seat, Mark: player.Mark}
}

func NewMovePlayed(gameID int64, seat Seat, x, y int) Event {
	return Event{GameID: gameID, Kind: EventMovePlayed, Seat: seat, X: x, Y: y}
}

// Validate checks the event is well formed. It does not check the event is legal in its game.
func (that Event) Validate() error {
	switch that.Kind {
	case EventGameReset:
		return nil
	case EventPlayerJoined:
		if !that.Seat.IsValid() {
			return fmt.Errorf("%w: %d", apperror.ErrInvalidSeat, that.Seat)
		}
		if !that.Mark.IsPlayable() {
			return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, that.Mark)
		}
		return nil
	case EventMovePlayed:
		if !that.Seat.IsValid() {
			return fmt.Errorf("%w: %d", apperror.ErrInvalidSeat, that.Seat)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", apperror.ErrUnknownEvent, that.Kind)
	}
}

func (that Event) String() string {
	switch that.Kind {
	case EventPlayerJoined:
		return fmt.Sprintf("#%d %s seat=%d mark=%s", that.Seq, that.Kind, that.Seat, that.Mark)
	case EventMovePlayed:
		return fmt.Sprintf("#%d %s seat=%d x=%d y=%d", that.Seq, that.Kind, that.Seat, that.X, that.Y)
	default:
		return fmt.Sprintf("#%d %s", that.Seq, that.Kind)
	}
}
