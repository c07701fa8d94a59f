package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-replay/internal/apperror"
)

// Seat is one of the two fixed player slots.
type Seat uint8

const (
	SeatNone Seat = iota
	SeatOne
	SeatTwo
)

func ParseSeat(n int) (Seat, error) {
	switch n {
	case 1:
		return SeatOne, nil
	case 2:
		return SeatTwo, nil
	default:
		return SeatNone, fmt.Errorf("%w: %d", apperror.ErrInvalidSeat, n)
	}
}

func (that Seat) IsValid() bool {
	return that == SeatOne || that == SeatTwo
}

// Other returns the opposite seat. Turns alternate strictly 1 -> 2 -> 1.
func (that Seat) Other() Seat {
	if that == SeatOne {
		return SeatTwo
	}

	return SeatOne
}

type Player struct {
	Seat Seat `json:"seat"`
	Mark Mark `json:"mark"`
}

func (that Player) IsAssigned() bool {
	return that.Seat.IsValid()
}

func (that Player) String() string {
	return fmt.Sprintf("player %d (%s)", that.Seat, that.Mark)
}
