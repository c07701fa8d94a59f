package repository

import (
	"context"
	"testing"

	"github.com/rocketscienceinc/tictactoe-replay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-replay/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moveLogFactory func(t *testing.T) (context.Context, MoveLog)

var moveLogBackends = map[string]moveLogFactory{
	"sqlite": func(t *testing.T) (context.Context, MoveLog) {
		ctx, st := suite.New(t)
		return ctx, NewSQLiteMoveLog(st.SQLite())
	},
	"redis": func(t *testing.T) (context.Context, MoveLog) {
		ctx, st := suite.New(t)
		return ctx, NewRedisMoveLog(st.Redis(), "test")
	},
}

func forEachBackend(t *testing.T, name string, fn func(t *testing.T, ctx context.Context, moveLog MoveLog)) {
	t.Helper()

	for backend, factory := range moveLogBackends {
		t.Run(backend+"/"+name, func(t *testing.T) {
			ctx, moveLog := factory(t)
			fn(t, ctx, moveLog)
		})
	}
}

var (
	playerOne = entity.Player{Seat: entity.SeatOne, Mark: entity.MarkX}
	playerTwo = entity.Player{Seat: entity.SeatTwo, Mark: entity.MarkO}
)

// at places event at position seq of its game's log.
func at(seq int64, event entity.Event) entity.Event {
	event.Seq = seq
	return event
}

func TestMoveLog_Reset(t *testing.T) {
	forEachBackend(t, "Empty log has no latest game", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		// When: asking an empty log for its latest game
		_, found, err := moveLog.LatestGameID(ctx)

		// Then: nothing is found
		require.NoError(t, err)
		assert.False(t, found)
	})

	forEachBackend(t, "Reset opens a game", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		// When: opening the first game
		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)

		// Then: it is the latest game and its log holds only the reset marker
		latest, found, err := moveLog.LatestGameID(ctx)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, gameID, latest)

		events, err := moveLog.AllEvents(ctx, gameID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, entity.EventGameReset, events[0].Kind)
		assert.Equal(t, gameID, events[0].GameID)

		projection, err := moveLog.Projection(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, entity.Projection{}, projection)
	})

	forEachBackend(t, "Reset drops the previous game", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		// Given: a game with a player
		oldID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)
		require.NoError(t, moveLog.Append(ctx, at(1, entity.NewPlayerJoined(oldID, playerOne)), entity.Projection{Turn: entity.SeatOne}))

		// When: resetting it
		newID, err := moveLog.Reset(ctx, oldID)
		require.NoError(t, err)

		// Then: a fresh id is allocated and the old events are gone
		assert.Greater(t, newID, oldID)

		events, err := moveLog.AllEvents(ctx, oldID)
		require.NoError(t, err)
		assert.Empty(t, events)

		_, err = moveLog.Projection(ctx, oldID)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)

		latest, _, err := moveLog.LatestGameID(ctx)
		require.NoError(t, err)
		assert.Equal(t, newID, latest)
	})
}

func TestMoveLog_Append(t *testing.T) {
	forEachBackend(t, "Events come back in append order", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		// Given: an open game
		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)

		// When: appending joins and moves
		appended := []entity.Event{
			entity.NewPlayerJoined(gameID, playerOne),
			entity.NewPlayerJoined(gameID, playerTwo),
			entity.NewMovePlayed(gameID, entity.SeatOne, 1, 1),
			entity.NewMovePlayed(gameID, entity.SeatTwo, 0, 2),
		}
		for i := range appended {
			appended[i].Seq = int64(i + 1)
			require.NoError(t, moveLog.Append(ctx, appended[i], entity.Projection{Started: true, Turn: entity.SeatOne}))
		}

		// Then: they are read back in order after the reset marker
		events, err := moveLog.AllEvents(ctx, gameID)
		require.NoError(t, err)
		require.Len(t, events, len(appended)+1)
		assert.Equal(t, appended, events[1:])

		// And: reading twice gives the same result
		again, err := moveLog.AllEvents(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, events, again)
	})

	forEachBackend(t, "Projection is stored with the event", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)

		want := entity.Projection{Started: true, Winner: entity.SeatTwo, IsDraw: false, Turn: entity.SeatTwo}
		require.NoError(t, moveLog.Append(ctx, at(1, entity.NewPlayerJoined(gameID, playerOne)), want))

		projection, err := moveLog.Projection(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, want, projection)
	})

	forEachBackend(t, "Stale position is refused", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		// Given: a game whose log already holds seat one
		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)
		committed := entity.Projection{Turn: entity.SeatOne}
		require.NoError(t, moveLog.Append(ctx, at(1, entity.NewPlayerJoined(gameID, playerOne)), committed))

		// When: a writer that read the log before that join appends at the same position
		err = moveLog.Append(ctx, at(1, entity.NewPlayerJoined(gameID, entity.Player{Seat: entity.SeatOne, Mark: entity.MarkO})),
			entity.Projection{Turn: entity.SeatOne})

		// Then: it is refused and nothing of it is stored
		require.ErrorIs(t, err, apperror.ErrStaleAppend)
		require.ErrorIs(t, err, apperror.ErrPersistence)

		// And: positions ahead of the log are refused too
		err = moveLog.Append(ctx, at(5, entity.NewPlayerJoined(gameID, playerTwo)), entity.Projection{Started: true})
		require.ErrorIs(t, err, apperror.ErrStaleAppend)

		events, err := moveLog.AllEvents(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, []entity.Event{entity.NewGameReset(gameID), at(1, entity.NewPlayerJoined(gameID, playerOne))}, events)

		projection, err := moveLog.Projection(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, committed, projection)
	})

	forEachBackend(t, "Unknown game", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		err := moveLog.Append(ctx, at(1, entity.NewPlayerJoined(42, playerOne)), entity.Projection{})

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	forEachBackend(t, "Reset events cannot be appended", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)

		err = moveLog.Append(ctx, entity.NewGameReset(gameID), entity.Projection{})

		require.Error(t, err)
	})

	forEachBackend(t, "Malformed events are refused", func(t *testing.T, ctx context.Context, moveLog MoveLog) {
		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)

		err = moveLog.Append(ctx, entity.NewPlayerJoined(gameID, entity.Player{Seat: entity.SeatOne}), entity.Projection{})
		require.ErrorIs(t, err, apperror.ErrInvalidMark)

		err = moveLog.Append(ctx, entity.NewMovePlayed(gameID, entity.SeatNone, 0, 0), entity.Projection{})
		require.ErrorIs(t, err, apperror.ErrInvalidSeat)

		events, err := moveLog.AllEvents(ctx, gameID)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})
}

func TestSQLiteMoveLog_Constraints(t *testing.T) {
	t.Run("Failed insert leaves the projection untouched", func(t *testing.T) {
		ctx, st := suite.New(t)
		conn := st.SQLite()
		moveLog := NewSQLiteMoveLog(conn)

		// Given: a game with both players and a move on (1, 1)
		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)
		require.NoError(t, moveLog.Append(ctx, at(1, entity.NewPlayerJoined(gameID, playerOne)), entity.Projection{Turn: entity.SeatOne}))
		require.NoError(t, moveLog.Append(ctx, at(2, entity.NewPlayerJoined(gameID, playerTwo)), entity.Projection{Started: true, Turn: entity.SeatOne}))
		committed := entity.Projection{Started: true, Turn: entity.SeatTwo}
		require.NoError(t, moveLog.Append(ctx, at(3, entity.NewMovePlayed(gameID, entity.SeatOne, 1, 1)), committed))

		// When: a second mark on the same cell is appended
		err = moveLog.Append(ctx, at(4, entity.NewMovePlayed(gameID, entity.SeatTwo, 1, 1)), entity.Projection{Started: true, Winner: entity.SeatTwo})

		// Then: the append fails as a persistence failure and nothing of it is kept
		require.ErrorIs(t, err, apperror.ErrPersistence)

		projection, err := moveLog.Projection(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, committed, projection)

		events, err := moveLog.AllEvents(ctx, gameID)
		require.NoError(t, err)
		assert.Len(t, events, 4)
	})

	t.Run("Reset cascades to players and moves", func(t *testing.T) {
		ctx, st := suite.New(t)
		conn := st.SQLite()
		moveLog := NewSQLiteMoveLog(conn)

		// Given: a game with players and a move
		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)
		require.NoError(t, moveLog.Append(ctx, at(1, entity.NewPlayerJoined(gameID, playerOne)), entity.Projection{}))
		require.NoError(t, moveLog.Append(ctx, at(2, entity.NewPlayerJoined(gameID, playerTwo)), entity.Projection{}))
		require.NoError(t, moveLog.Append(ctx, at(3, entity.NewMovePlayed(gameID, entity.SeatOne, 0, 0)), entity.Projection{}))

		// When: resetting the game
		_, err = moveLog.Reset(ctx, gameID)
		require.NoError(t, err)

		// Then: no row of the old game is left
		var players, moves int
		require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&players))
		require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM moves`).Scan(&moves))
		assert.Zero(t, players)
		assert.Zero(t, moves)
	})

	t.Run("Moves need a seated player", func(t *testing.T) {
		ctx, st := suite.New(t)
		moveLog := NewSQLiteMoveLog(st.SQLite())

		gameID, err := moveLog.Reset(ctx, 0)
		require.NoError(t, err)

		err = moveLog.Append(ctx, at(1, entity.NewMovePlayed(gameID, entity.SeatOne, 0, 0)), entity.Projection{})

		require.ErrorIs(t, err, apperror.ErrPersistence)
	})
}
