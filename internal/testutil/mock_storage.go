//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/sokoban-online/internal/server/storage"
)

// MockLeaderboard 排行榜 mock
type MockLeaderboard struct {
	mock.Mock
}

func (m *MockLeaderboard) RecordSolve(ctx context.Context, userID string, levelID, moves int) error {
	args := m.Called(ctx, userID, levelID, moves)
	return args.Error(0)
}

func (m *MockLeaderboard) GetPlayerStats(ctx context.Context, userID string) (*storage.PlayerStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.PlayerStats), args.Error(1)
}

func (m *MockLeaderboard) GetPlayerRank(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLeaderboard) GetLeaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.LeaderboardEntry), args.Error(1)
}
