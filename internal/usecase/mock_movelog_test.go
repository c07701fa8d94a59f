package usecase

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-replay/internal/entity"
	"github.com/stretchr/testify/mock"
)

type mockMoveLog struct {
	mock.Mock
}

func (that *mockMoveLog) Append(ctx context.Context, event entity.Event, projection entity.Projection) error {
	args := that.Called(ctx, event, projection)
	return args.Error(0)
}

func (that *mockMoveLog) AllEvents(ctx context.Context, gameID int64) ([]entity.Event, error) {
	args := that.Called(ctx, gameID)

	events, _ := args.Get(0).([]entity.Event)

	return events, args.Error(1)
}

func (that *mockMoveLog) LatestGameID(ctx context.Context) (int64, bool, error) {
	args := that.Called(ctx)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (that *mockMoveLog) Reset(ctx context.Context, gameID int64) (int64, error) {
	args := that.Called(ctx, gameID)
	return args.Get(0).(int64), args.Error(1)
}

func (that *mockMoveLog) Projection(ctx context.Context, gameID int64) (entity.Projection, error) {
	args := that.Called(ctx, gameID)
	return args.Get(0).(entity.Projection), args.Error(1)
}
