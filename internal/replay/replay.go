package replay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-replay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
)

type eventSource interface {
	AllEvents(ctx context.Context, gameID int64) ([]entity.Event, error)
	LatestGameID(ctx context.Context) (int64, bool, error)
	Projection(ctx context.Context, gameID int64) (entity.Projection, error)
}

// Reconstructor rebuilds games from the move log through the live rule engine.
type Reconstructor struct {
	logger *slog.Logger
	source eventSource
}

func NewReconstructor(logger *slog.Logger, source eventSource) *Reconstructor {
	return &Reconstructor{
		logger: logger.With("component", "replay"),
		source: source,
	}
}

// Replay applies events in order to a fresh game. Every event must be accepted by the
// rule engine; anything else means the log cannot be trusted.
func Replay(gameID int64, events []entity.Event) (*entity.Game, error) {
	game := entity.NewGame(gameID)

	for _, event := range events {
		if event.GameID != gameID {
			return nil, fmt.Errorf("%w: event %d belongs to game %d, not %d", apperror.ErrCorruptLog, event.Seq, event.GameID, gameID)
		}

		if err := event.Validate(); err != nil {
			return nil, fmt.Errorf("%w: event %d: %w", apperror.ErrCorruptLog, event.Seq, err)
		}

		switch event.Kind {
		case entity.EventGameReset:
			game = entity.NewGame(gameID)

		case entity.EventPlayerJoined:
			if outcome := game.JoinSeat(event.Seat, event.Mark); !outcome.Accepted() {
				return nil, fmt.Errorf("%w: event %d (%s) rejected: %s", apperror.ErrCorruptLog, event.Seq, event, outcome.Status)
			}

		case entity.EventMovePlayed:
			if outcome := game.ApplyMove(event.Seat, event.X, event.Y); !outcome.Accepted() {
				return nil, fmt.Errorf("%w: event %d (%s) rejected: %s", apperror.ErrCorruptLog, event.Seq, event, outcome.Status)
			}
		}
	}

	return game, nil
}

// Reconstruct replays every event of gameID. A game without events comes back empty.
func (that *Reconstructor) Reconstruct(ctx context.Context, gameID int64) (*entity.Game, error) {
	log := that.logger.With("method", "Reconstruct", "gameID", gameID)

	events, err := that.source.AllEvents(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	game, err := Replay(gameID, events)
	if err != nil {
		return nil, fmt.Errorf("failed to replay game: %w", err)
	}

	if len(events) > 0 {
		that.checkProjection(ctx, log, game)
	}

	log.Debug("game reconstructed", "events", len(events), "started", game.IsStarted(), "moves", game.Board().Count())

	return game, nil
}

// ReconstructLatest replays the most recent game. found is false when the log holds no game.
func (that *Reconstructor) ReconstructLatest(ctx context.Context) (*entity.Game, bool, error) {
	gameID, found, err := that.source.LatestGameID(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find latest game: %w", err)
	}

	if !found {
		return nil, false, nil
	}

	game, err := that.Reconstruct(ctx, gameID)
	if err != nil {
		return nil, false, err
	}

	return game, true, nil
}

// checkProjection compares the cached state with the replayed one. The replay always wins.
func (that *Reconstructor) checkProjection(ctx context.Context, log *slog.Logger, game *entity.Game) {
	cached, err := that.source.Projection(ctx, game.ID())
	if err != nil {
		log.Warn("could not read cached game state", "error", err)
		return
	}

	if replayed := game.Projection(); cached != replayed {
		log.Warn("cached game state differs from replay, using replay",
			"cached", cached, "replayed", replayed)
	}
}
