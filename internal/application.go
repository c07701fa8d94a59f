package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-replay/internal/config"
	"github.com/rocketscienceinc/tictactoe-replay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-replay/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-replay/internal/usecase"
)

// RunFunc is handed a manager that has already been restored from the move log.
type RunFunc func(ctx context.Context, manager *usecase.GameManager) error

// RunApp - opens the configured move log, restores the latest game and runs fn against it.
// A failed restore aborts before fn is called.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config, fn RunFunc) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	moveLog, closeStorage, err := openMoveLog(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeStorage(); err != nil {
			log.Error("could not close storage", "driver", conf.Storage.Driver, "error", err)
		}
	}()

	manager := usecase.NewGameManager(logger, moveLog)

	snapshot, err := manager.Restore(ctx)
	if err != nil {
		return fmt.Errorf("could not restore game: %w", err)
	}

	log.Debug("move log ready", "driver", conf.Storage.Driver, "gameID", snapshot.ID)

	return fn(ctx, manager)
}

func openMoveLog(ctx context.Context, conf *config.Config) (repository.MoveLog, func() error, error) {
	switch conf.Storage.Driver {
	case config.DriverRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisMoveLog(redisStorage.Connection, conf.Redis.KeyPrefix), redisStorage.Close, nil

	case config.DriverSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(ctx, conf.SQLiteStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		return repository.NewSQLiteMoveLog(sqliteStorage.Connection), sqliteStorage.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

// NewLogger - builds the JSON logger for the configured level.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var slogLevel slog.Level

	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel}))
}
