package apperror

import "errors"

var (
	ErrPersistence  = errors.New("move log persistence failed")
	ErrCorruptLog   = errors.New("move log cannot be replayed")
	ErrNotRestored  = errors.New("game is not restored from the move log")
	ErrGameNotFound = errors.New("game not found")
	ErrStaleAppend  = errors.New("move log has moved past the state the event was validated against")

	ErrInvalidBoardSize = errors.New("board must be 3x3")
	ErrInvalidMark      = errors.New("invalid mark")
	ErrInvalidSeat      = errors.New("invalid seat")
	ErrUnknownEvent     = errors.New("unknown event kind")
)
