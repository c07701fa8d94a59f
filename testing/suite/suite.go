package suite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-replay/internal/repository/storage"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	ctx context.Context
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return ctx, &Suite{
		T:      t,
		Logger: logger,
		ctx:    ctx,
	}
}

// SQLite opens a fresh move log database in a temporary directory.
func (that *Suite) SQLite() *sql.DB {
	that.Helper()

	return that.SQLiteAt(filepath.Join(that.TempDir(), "tictactoe.db"))
}

// SQLiteAt opens the move log database at path. Every call returns its own connection, so
// opening one path twice behaves like two processes sharing the file.
func (that *Suite) SQLiteAt(path string) *sql.DB {
	that.Helper()

	st, err := storage.NewSQLiteStorage(that.ctx, path)
	if err != nil {
		that.Fatalf("could not open sqlite storage: %v", err)
	}

	that.Cleanup(func() {
		_ = st.Close()
	})

	return st.Connection
}

// Redis starts a throwaway redis container. The test is skipped when no docker daemon is reachable.
func (that *Suite) Redis() *redis.Client {
	that.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		that.Skipf("could not connect to docker: %v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		that.Skipf("docker is not available: %v", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
		Env:        []string{},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		that.Fatalf("could not start resource: %v", err)
	}

	// never returns error
	_ = resource.Expire(expireDuration) // Tell docker to hard kill the container in 120 seconds

	redisHost := resource.GetHostPort(redisPort)

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	pool.MaxWait = maxWaitDuration

	var redisClient *redis.Client
	if err = pool.Retry(func() error {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisHost,
		})
		return redisClient.Ping(that.ctx).Err()
	}); err != nil {
		if err = pool.Purge(resource); err != nil {
			that.Fatalf("could not purge resource: %v", err)
		}

		that.Fatalf("could not connect to redis: %v", err)
	}

	if err = redisClient.FlushDB(that.ctx).Err(); err != nil {
		that.Fatalf("could not flush database: %v", err)
	}

	that.Cleanup(func() {
		_ = redisClient.Close()

		if err := pool.Purge(resource); err != nil {
			that.Errorf("could not purge resource: %v", err)
		}
	})

	return redisClient
}
