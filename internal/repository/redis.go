package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-replay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
)

type redisMoveLog struct {
	client *redis.Client
	prefix string
}

// redisProjection mirrors entity.Projection in the per-game state hash.
type redisProjection struct {
	Started bool `redis:"started"`
	Winner  int  `redis:"winner_seat"`
	IsDraw  bool `redis:"is_draw"`
	Turn    int  `redis:"turn"`
}

// NewRedisMoveLog keeps every game as a list of JSON events plus a state hash, all keys under prefix.
func NewRedisMoveLog(client *redis.Client, prefix string) MoveLog {
	return &redisMoveLog{
		client: client,
		prefix: prefix,
	}
}

func (that *redisMoveLog) nextIDKey() string {
	return that.prefix + ":next_game_id"
}

func (that *redisMoveLog) latestKey() string {
	return that.prefix + ":latest_game_id"
}

func (that *redisMoveLog) eventsKey(gameID int64) string {
	return fmt.Sprintf("%s:game:%d:events", that.prefix, gameID)
}

func (that *redisMoveLog) stateKey(gameID int64) string {
	return fmt.Sprintf("%s:game:%d:state", that.prefix, gameID)
}

func (that *redisMoveLog) Append(ctx context.Context, event entity.Event, projection entity.Projection) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("can't append event: %w", err)
	}

	if event.Kind == entity.EventGameReset {
		return fmt.Errorf("can't append %q: games are opened by Reset", event.Kind)
	}

	eventsKey := that.eventsKey(event.GameID)
	stateKey := that.stateKey(event.GameID)

	// WATCH makes the EXEC fail if another writer touched the game after LLEN
	err := that.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, stateKey).Result()
		if err != nil {
			return fmt.Errorf("%w: find game: %w", apperror.ErrPersistence, err)
		}

		if exists == 0 {
			return fmt.Errorf("%w: id %d", apperror.ErrGameNotFound, event.GameID)
		}

		seq, err := tx.LLen(ctx, eventsKey).Result()
		if err != nil {
			return fmt.Errorf("%w: count events: %w", apperror.ErrPersistence, err)
		}

		if seq != event.Seq {
			return fmt.Errorf("%w: %w: game %d expects seq %d, got %d",
				apperror.ErrPersistence, apperror.ErrStaleAppend, event.GameID, seq, event.Seq)
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("could not marshal event: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, eventsKey, payload)
			pipe.HSet(ctx, stateKey, toRedisProjection(projection))

			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: append event: %w", apperror.ErrPersistence, err)
		}

		return nil
	}, eventsKey, stateKey)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("%w: %w: concurrent write to game %d: %w",
				apperror.ErrPersistence, apperror.ErrStaleAppend, event.GameID, err)
		}

		return err
	}

	return nil
}

func (that *redisMoveLog) AllEvents(ctx context.Context, gameID int64) ([]entity.Event, error) {
	response, err := that.client.LRange(ctx, that.eventsKey(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read events: %w", apperror.ErrPersistence, err)
	}

	if len(response) == 0 {
		return nil, nil
	}

	events := make([]entity.Event, 0, len(response))
	for i, raw := range response {
		var event entity.Event
		if err = json.Unmarshal([]byte(raw), &event); err != nil {
			return nil, fmt.Errorf("%w: event %d: %w", apperror.ErrCorruptLog, i, err)
		}

		events = append(events, event)
	}

	return events, nil
}

func (that *redisMoveLog) LatestGameID(ctx context.Context) (int64, bool, error) {
	id, err := that.client.Get(ctx, that.latestKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("%w: find latest game: %w", apperror.ErrPersistence, err)
	}

	return id, true, nil
}

func (that *redisMoveLog) Reset(ctx context.Context, gameID int64) (int64, error) {
	// a failed transaction below only leaves a gap in the id sequence
	newID, err := that.client.Incr(ctx, that.nextIDKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: allocate game id: %w", apperror.ErrPersistence, err)
	}

	payload, err := json.Marshal(entity.NewGameReset(newID))
	if err != nil {
		return 0, fmt.Errorf("could not marshal event: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if gameID != 0 {
			pipe.Del(ctx, that.eventsKey(gameID), that.stateKey(gameID))
		}

		pipe.RPush(ctx, that.eventsKey(newID), payload)
		pipe.HSet(ctx, that.stateKey(newID), redisProjection{})
		pipe.Set(ctx, that.latestKey(), newID, 0)

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: reset game %d: %w", apperror.ErrPersistence, gameID, err)
	}

	return newID, nil
}

func (that *redisMoveLog) Projection(ctx context.Context, gameID int64) (entity.Projection, error) {
	cmd := that.client.HGetAll(ctx, that.stateKey(gameID))

	response, err := cmd.Result()
	if err != nil {
		return entity.Projection{}, fmt.Errorf("%w: read game state: %w", apperror.ErrPersistence, err)
	}

	if len(response) == 0 {
		return entity.Projection{}, fmt.Errorf("%w: id %d", apperror.ErrGameNotFound, gameID)
	}

	var state redisProjection
	if err = cmd.Scan(&state); err != nil {
		return entity.Projection{}, fmt.Errorf("%w: game state %d: %w", apperror.ErrCorruptLog, gameID, err)
	}

	return entity.Projection{
		Started: state.Started,
		Winner:  entity.Seat(state.Winner),
		IsDraw:  state.IsDraw,
		Turn:    entity.Seat(state.Turn),
	}, nil
}

func toRedisProjection(projection entity.Projection) redisProjection {
	return redisProjection{
		Started: projection.Started,
		Winner:  int(projection.Winner),
		IsDraw:  projection.IsDraw,
		Turn:    int(projection.Turn),
	}
}
