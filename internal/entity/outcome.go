package entity

import "fmt"

// Status is the result of a join or a move. Rejections are expected game flow, not errors.
type Status uint8

const (
	StatusUnknown Status = iota

	StatusPlayerJoined
	StatusAcceptedMove
	StatusWonByMove
	StatusDrawMove

	StatusMissingPlayer
	StatusInvalidOrderOfPlay
	StatusGameAlreadyOver
	StatusOtherPlayersTurn
	StatusPositionNotAllowed

	StatusSeatOneTaken
	StatusSeatTwoTaken
	StatusSeatOneMissing
	StatusSeatNotAllowed
	StatusMarkNotAllowed
)

var statusNames = map[Status]string{
	StatusUnknown:            "unknown",
	StatusPlayerJoined:       "player_joined",
	StatusAcceptedMove:       "accepted_move",
	StatusWonByMove:          "won_by_move",
	StatusDrawMove:           "draw_move",
	StatusMissingPlayer:      "missing_player",
	StatusInvalidOrderOfPlay: "invalid_order_of_play",
	StatusGameAlreadyOver:    "game_already_over",
	StatusOtherPlayersTurn:   "other_players_turn",
	StatusPositionNotAllowed: "position_not_allowed",
	StatusSeatOneTaken:       "seat_one_taken",
	StatusSeatTwoTaken:       "seat_two_taken",
	StatusSeatOneMissing:     "seat_one_missing",
	StatusSeatNotAllowed:     "seat_not_allowed",
	StatusMarkNotAllowed:     "mark_not_allowed",
}

func (that Status) String() string {
	if name, ok := statusNames[that]; ok {
		return name
	}

	return fmt.Sprintf("status(%d)", uint8(that))
}

func (that Status) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

// IsAccepted reports whether the status mutated the game.
func (that Status) IsAccepted() bool {
	switch that {
	case StatusPlayerJoined, StatusAcceptedMove, StatusWonByMove, StatusDrawMove:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ended the game.
func (that Status) IsTerminal() bool {
	return that == StatusWonByMove || that == StatusDrawMove
}

// Outcome is the structured result of ApplyMove.
type Outcome struct {
	Status Status `json:"status"`
	Seat   Seat   `json:"seat"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Turn   Seat   `json:"turn"`
	Winner Seat   `json:"winner"`
}

func (that Outcome) Accepted() bool {
	return that.Status.IsAccepted()
}

func (that Outcome) Message() string {
	switch that.Status {
	case StatusMissingPlayer:
		return "Game cannot start until there are two players on the game board!"
	case StatusInvalidOrderOfPlay:
		return "Player 1 makes the first move on an empty board!"
	case StatusGameAlreadyOver:
		if that.Winner != SeatNone {
			return fmt.Sprintf("Game is already over! Player %d won!", that.Winner)
		}
		return "Game is already over! Nobody won."
	case StatusOtherPlayersTurn:
		return fmt.Sprintf("It is not currently your turn. Player %d gets to make the next move.", that.Turn)
	case StatusPositionNotAllowed:
		return fmt.Sprintf("You cannot make a move at (%d, %d). Please choose an unoccupied position on the game board!", that.X, that.Y)
	case StatusWonByMove:
		return fmt.Sprintf("Player %d is the winner!", that.Winner)
	case StatusDrawMove:
		return "Game Over! Nobody wins."
	case StatusAcceptedMove:
		return fmt.Sprintf("Player %d made move at (%d, %d).", that.Seat, that.X, that.Y)
	default:
		return that.Status.String()
	}
}

// JoinOutcome is the structured result of Join and JoinSeat.
type JoinOutcome struct {
	Status Status `json:"status"`
	Player Player `json:"player"`
}

func (that JoinOutcome) Accepted() bool {
	return that.Status == StatusPlayerJoined
}

func (that JoinOutcome) Message() string {
	switch that.Status {
	case StatusPlayerJoined:
		return fmt.Sprintf("Player %d joined as %s.", that.Player.Seat, that.Player.Mark)
	case StatusSeatOneTaken:
		return "There is already a Player 1 for this game board."
	case StatusSeatTwoTaken:
		return "Sorry, there are already two players for this game board."
	case StatusSeatOneMissing:
		return "There is no game to join yet; join as Player 1 first."
	case StatusSeatNotAllowed:
		return "Players can only take seat 1 or seat 2."
	case StatusMarkNotAllowed:
		return "Player 1 selects either 'X' or 'O'; Player 2 takes the other mark."
	default:
		return that.Status.String()
	}
}
