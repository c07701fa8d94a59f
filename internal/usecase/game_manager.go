package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-replay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-replay/internal/replay"
)

type moveLog interface {
	Append(ctx context.Context, event entity.Event, projection entity.Projection) error
	AllEvents(ctx context.Context, gameID int64) ([]entity.Event, error)
	LatestGameID(ctx context.Context) (int64, bool, error)
	Reset(ctx context.Context, gameID int64) (int64, error)
	Projection(ctx context.Context, gameID int64) (entity.Projection, error)
}

// GameManager owns the live game and its move log. Every mutation runs under one lock:
// it is validated on a copy of the game, appended to the log, and only then made live.
type GameManager struct {
	logger *slog.Logger

	mu            sync.Mutex
	moveLog       moveLog
	reconstructor *replay.Reconstructor
	game          *entity.Game
	stale         bool
}

func NewGameManager(logger *slog.Logger, moveLog moveLog) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		moveLog:       moveLog,
		reconstructor: replay.NewReconstructor(logger, moveLog),
	}
}

// Restore rebuilds the latest game from the move log, opening the first game on an empty log.
// The manager refuses to serve until Restore succeeds.
func (that *GameManager) Restore(ctx context.Context) (entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.restore(ctx); err != nil {
		return entity.Snapshot{}, err
	}

	return that.game.Snapshot(), nil
}

// Join seats a player in the next open seat.
func (that *GameManager) Join(ctx context.Context, mark entity.Mark) (entity.JoinOutcome, error) {
	return that.join(ctx, func(game *entity.Game) entity.JoinOutcome {
		return game.Join(mark)
	})
}

// JoinSeat seats a player in an explicit seat.
func (that *GameManager) JoinSeat(ctx context.Context, seat entity.Seat, mark entity.Mark) (entity.JoinOutcome, error) {
	return that.join(ctx, func(game *entity.Game) entity.JoinOutcome {
		return game.JoinSeat(seat, mark)
	})
}

func (that *GameManager) join(ctx context.Context, apply func(game *entity.Game) entity.JoinOutcome) (entity.JoinOutcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "join")

	if err := that.ready(ctx); err != nil {
		return entity.JoinOutcome{}, err
	}

	next := that.game.Clone()
	outcome := apply(next)
	if !outcome.Accepted() {
		log.Info("join rejected", "gameID", next.ID(), "status", outcome.Status)
		return outcome, nil
	}

	if err := that.commit(ctx, next, entity.NewPlayerJoined(next.ID(), outcome.Player)); err != nil {
		return entity.JoinOutcome{}, err
	}

	log.Info("player joined", "gameID", next.ID(), "seat", outcome.Player.Seat, "mark", outcome.Player.Mark)

	return outcome, nil
}

// MakeMove validates and plays a move for seat at (x, y).
func (that *GameManager) MakeMove(ctx context.Context, seat entity.Seat, x, y int) (entity.Outcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "MakeMove")

	if err := that.ready(ctx); err != nil {
		return entity.Outcome{}, err
	}

	next := that.game.Clone()
	outcome := next.ApplyMove(seat, x, y)
	if !outcome.Accepted() {
		log.Info("move rejected", "gameID", next.ID(), "seat", seat, "x", x, "y", y, "status", outcome.Status)
		return outcome, nil
	}

	if err := that.commit(ctx, next, entity.NewMovePlayed(next.ID(), seat, x, y)); err != nil {
		return entity.Outcome{}, err
	}

	log.Info("move played", "gameID", next.ID(), "seat", seat, "x", x, "y", y, "status", outcome.Status)

	return outcome, nil
}

// NewGame discards the current game and its events and opens a fresh one.
func (that *GameManager) NewGame(ctx context.Context) (entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "NewGame")

	if that.game == nil {
		return entity.Snapshot{}, apperror.ErrNotRestored
	}

	// a stale live game still carries the id of the game the log holds
	previous := that.game.ID()

	gameID, err := that.moveLog.Reset(ctx, previous)
	if err != nil {
		that.stale = true
		return entity.Snapshot{}, fmt.Errorf("failed to reset game: %w", err)
	}

	that.game = entity.NewGame(gameID)
	that.stale = false

	log.Info("new game", "gameID", gameID, "previousGameID", previous)

	return that.game.Snapshot(), nil
}

// CurrentState returns a snapshot of the live game.
func (that *GameManager) CurrentState() (entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.game == nil {
		return entity.Snapshot{}, apperror.ErrNotRestored
	}

	return that.game.Snapshot(), nil
}

// Reconstruct replays any game of the log without touching the live game.
func (that *GameManager) Reconstruct(ctx context.Context, gameID int64) (*entity.Game, error) {
	game, err := that.reconstructor.Reconstruct(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct game %d: %w", gameID, err)
	}

	return game, nil
}

// History returns the events of the live game in append order.
func (that *GameManager) History(ctx context.Context) ([]entity.Event, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.ready(ctx); err != nil {
		return nil, err
	}

	events, err := that.moveLog.AllEvents(ctx, that.game.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return events, nil
}

// commit appends the event at the position next.Version() and installs next as the live game.
// The log refuses the event when another writer appended since this manager read it. On any
// failure the live game stays as it was and the manager re-reads the log before the next
// operation, since the append may have landed even though it reported an error.
func (that *GameManager) commit(ctx context.Context, next *entity.Game, event entity.Event) error {
	event.Seq = next.Version()

	if err := that.moveLog.Append(ctx, event, next.Projection()); err != nil {
		that.stale = true

		if errors.Is(err, apperror.ErrStaleAppend) {
			that.logger.Warn("move log changed under the live game", "gameID", next.ID(), "event", event.String(), "error", err)
		} else {
			that.logger.Error("failed to append event", "gameID", next.ID(), "event", event.String(), "error", err)
		}

		if !errors.Is(err, apperror.ErrPersistence) {
			err = fmt.Errorf("%w: %w", apperror.ErrPersistence, err)
		}

		return fmt.Errorf("failed to record %s: %w", event.Kind, err)
	}

	that.game = next

	return nil
}

// ready makes sure the live game reflects the log.
func (that *GameManager) ready(ctx context.Context) error {
	if that.game == nil {
		return apperror.ErrNotRestored
	}

	if that.stale {
		return that.restore(ctx)
	}

	return nil
}

func (that *GameManager) restore(ctx context.Context) error {
	log := that.logger.With("method", "restore")

	game, found, err := that.reconstructor.ReconstructLatest(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore game: %w", err)
	}

	if !found {
		gameID, err := that.moveLog.Reset(ctx, 0)
		if err != nil {
			return fmt.Errorf("failed to open first game: %w", err)
		}

		game = entity.NewGame(gameID)
		log.Info("no game in the move log, opened a new one", "gameID", gameID)
	}

	that.game = game
	that.stale = false

	log.Info("game restored", "gameID", game.ID(), "started", game.IsStarted(), "moves", game.Board().Count())

	return nil
}
