package repository

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
)

// MoveLog is the durable, append-only record of a game. It is the source of truth:
// the live game is always derived from it by replay.
type MoveLog interface {
	// Append stores the event together with the projection of the state it leads to.
	// Both are committed in one transaction or not at all. event.Seq must be the number of
	// events already in the game's log, otherwise nothing is written and the error wraps
	// apperror.ErrStaleAppend.
	Append(ctx context.Context, event entity.Event, projection entity.Projection) error

	// AllEvents returns the events of a game in append order, or nothing for an unknown game.
	AllEvents(ctx context.Context, gameID int64) ([]entity.Event, error)

	LatestGameID(ctx context.Context) (int64, bool, error)

	// Reset deletes every event of gameID (0 deletes nothing) and allocates a new game id.
	Reset(ctx context.Context, gameID int64) (int64, error)

	// Projection returns the cached state fields of a game.
	Projection(ctx context.Context, gameID int64) (entity.Projection, error)
}
