package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-replay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
)

type sqliteMoveLog struct {
	conn *sql.DB
}

// NewSQLiteMoveLog expects a connection with the move log schema applied and foreign keys enforced.
func NewSQLiteMoveLog(conn *sql.DB) MoveLog {
	return &sqliteMoveLog{
		conn: conn,
	}
}

func (that *sqliteMoveLog) Append(ctx context.Context, event entity.Event, projection entity.Projection) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("can't append event: %w", err)
	}

	if event.Kind == entity.EventGameReset {
		return fmt.Errorf("can't append %q: games are opened by Reset", event.Kind)
	}

	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin append: %w", apperror.ErrPersistence, err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	// the write lock is taken here, so event_count cannot move until commit
	result, err := tx.ExecContext(ctx, `
		UPDATE games
		SET started = ?, winner_seat = ?, is_draw = ?, turn = ?, event_count = event_count + 1
		WHERE id = ? AND event_count = ?`,
		projection.Started, int(projection.Winner), projection.IsDraw, int(projection.Turn), event.GameID, event.Seq)
	if err != nil {
		return fmt.Errorf("%w: update game state: %w", apperror.ErrPersistence, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update game state: %w", apperror.ErrPersistence, err)
	}

	if rowsAffected == 0 {
		return that.appendConflict(ctx, tx, event)
	}

	switch event.Kind {
	case entity.EventPlayerJoined:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO players (game_id, seat_id, mark, seq) VALUES (?, ?, ?, ?)`,
			event.GameID, int(event.Seat), event.Mark.String(), event.Seq)
	case entity.EventMovePlayed:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO moves (game_id, seat_id, x, y, seq) VALUES (?, ?, ?, ?, ?)`,
			event.GameID, int(event.Seat), event.X, event.Y, event.Seq)
	}
	if err != nil {
		return fmt.Errorf("%w: insert %s: %w", apperror.ErrPersistence, event.Kind, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit append: %w", apperror.ErrPersistence, err)
	}

	return nil
}

// appendConflict explains why the guarded update matched no row.
func (that *sqliteMoveLog) appendConflict(ctx context.Context, tx *sql.Tx, event entity.Event) error {
	var count int64

	err := tx.QueryRowContext(ctx, `SELECT event_count FROM games WHERE id = ?`, event.GameID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id %d", apperror.ErrGameNotFound, event.GameID)
	}
	if err != nil {
		return fmt.Errorf("%w: read event count: %w", apperror.ErrPersistence, err)
	}

	return fmt.Errorf("%w: %w: game %d expects seq %d, got %d",
		apperror.ErrPersistence, apperror.ErrStaleAppend, event.GameID, count, event.Seq)
}

func (that *sqliteMoveLog) AllEvents(ctx context.Context, gameID int64) ([]entity.Event, error) {
	var exists bool
	err := that.conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = ?)`, gameID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: find game: %w", apperror.ErrPersistence, err)
	}

	if !exists {
		return nil, nil
	}

	rows, err := that.conn.QueryContext(ctx, `
		SELECT seq, kind, seat_id, mark, x, y FROM (
			SELECT seq, 'player_joined' AS kind, seat_id, mark, 0 AS x, 0 AS y
			FROM players WHERE game_id = ?
			UNION ALL
			SELECT seq, 'move_played' AS kind, seat_id, '' AS mark, x, y
			FROM moves WHERE game_id = ?
		)
		ORDER BY seq`, gameID, gameID)
	if err != nil {
		return nil, fmt.Errorf("%w: query events: %w", apperror.ErrPersistence, err)
	}
	defer rows.Close()

	events := []entity.Event{entity.NewGameReset(gameID)}
	for rows.Next() {
		var (
			kind, mark string
			seat       int
		)

		event := entity.Event{GameID: gameID}
		if err = rows.Scan(&event.Seq, &kind, &seat, &mark, &event.X, &event.Y); err != nil {
			return nil, fmt.Errorf("%w: scan event: %w", apperror.ErrPersistence, err)
		}

		event.Kind = entity.EventKind(kind)
		event.Seat = entity.Seat(seat)
		if event.Mark, err = entity.ParseMark(mark); err != nil {
			return nil, fmt.Errorf("%w: event %d: %w", apperror.ErrCorruptLog, event.Seq, err)
		}

		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read events: %w", apperror.ErrPersistence, err)
	}

	return events, nil
}

func (that *sqliteMoveLog) LatestGameID(ctx context.Context) (int64, bool, error) {
	var id sql.NullInt64

	if err := that.conn.QueryRowContext(ctx, `SELECT MAX(id) FROM games`).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("%w: find latest game: %w", apperror.ErrPersistence, err)
	}

	return id.Int64, id.Valid, nil
}

func (that *sqliteMoveLog) Reset(ctx context.Context, gameID int64) (int64, error) {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin reset: %w", apperror.ErrPersistence, err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	// players and moves go with their game (ON DELETE CASCADE)
	if gameID != 0 {
		if _, err = tx.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, gameID); err != nil {
			return 0, fmt.Errorf("%w: delete game %d: %w", apperror.ErrPersistence, gameID, err)
		}
	}

	result, err := tx.ExecContext(ctx, `INSERT INTO games DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("%w: create game: %w", apperror.ErrPersistence, err)
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: read new game id: %w", apperror.ErrPersistence, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit reset: %w", apperror.ErrPersistence, err)
	}

	return newID, nil
}

func (that *sqliteMoveLog) Projection(ctx context.Context, gameID int64) (entity.Projection, error) {
	var (
		started, draw bool
		winner, turn  int
	)

	err := that.conn.QueryRowContext(ctx,
		`SELECT started, winner_seat, is_draw, turn FROM games WHERE id = ?`, gameID).
		Scan(&started, &winner, &draw, &turn)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Projection{}, fmt.Errorf("%w: id %d", apperror.ErrGameNotFound, gameID)
	}
	if err != nil {
		return entity.Projection{}, fmt.Errorf("%w: read game state: %w", apperror.ErrPersistence, err)
	}

	return entity.Projection{
		Started: started,
		Winner:  entity.Seat(winner),
		IsDraw:  draw,
		Turn:    entity.Seat(turn),
	}, nil
}
