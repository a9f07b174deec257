package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/server/storage"
	"github.com/palemoky/sokoban-online/internal/testutil"
)

func TestHandleGetStats(t *testing.T) {
	t.Parallel()

	lb := new(testutil.MockLeaderboard)
	lb.On("GetPlayerStats", mock.Anything, "Alice").Return(&storage.PlayerStats{
		UserID: "Alice", Solved: 3, Moves: 40, LevelsSolved: []int{0, 2},
	}, nil)
	lb.On("GetPlayerRank", mock.Anything, "Alice").Return(int64(2), nil)

	h, _, _ := newTestHandler(t, HandlerDeps{Leaderboard: lb})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, &protocol.Message{Type: protocol.MsgGetStats})

	payload, err := codec.ParsePayload[protocol.StatsResultPayload](c.LastMessage())
	require.NoError(t, err)
	assert.Equal(t, protocol.StatsResultPayload{
		UserID: "Alice", Solved: 3, Moves: 40, LevelsSolved: []int{0, 2}, Rank: 2,
	}, *payload)
	lb.AssertExpectations(t)
}

func TestHandleGetStats_OtherUserWithoutRecord(t *testing.T) {
	t.Parallel()

	lb := new(testutil.MockLeaderboard)
	lb.On("GetPlayerStats", mock.Anything, "bob").Return(nil, nil)

	h, _, _ := newTestHandler(t, HandlerDeps{Leaderboard: lb})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, codec.MustNewMessage(protocol.MsgGetStats, protocol.GetStatsPayload{UserID: "bob"}))

	payload, err := codec.ParsePayload[protocol.StatsResultPayload](c.LastMessage())
	require.NoError(t, err)
	assert.Equal(t, "bob", payload.UserID)
	assert.Zero(t, payload.Solved)
	assert.Empty(t, payload.LevelsSolved)
	lb.AssertNotCalled(t, "GetPlayerRank", mock.Anything, mock.Anything)
}

func TestHandleGetStats_StoreError(t *testing.T) {
	t.Parallel()

	lb := new(testutil.MockLeaderboard)
	lb.On("GetPlayerStats", mock.Anything, "Alice").Return(nil, errors.New("redis down"))

	h, _, _ := newTestHandler(t, HandlerDeps{Leaderboard: lb})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, &protocol.Message{Type: protocol.MsgGetStats})
	assert.Equal(t, protocol.ErrCodeUnknown, errorCode(t, c.LastMessage()))
}

func TestHandleGetLeaderboard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{name: "default", limit: 0, wantLimit: defaultLeaderboardLimit},
		{name: "custom", limit: 5, wantLimit: 5},
		{name: "too large", limit: 500, wantLimit: defaultLeaderboardLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lb := new(testutil.MockLeaderboard)
			lb.On("GetLeaderboard", mock.Anything, tt.wantLimit).Return([]storage.LeaderboardEntry{
				{Rank: 1, UserID: "alice", Solved: 4, Moves: 90},
			}, nil)

			h, _, _ := newTestHandler(t, HandlerDeps{Leaderboard: lb})
			c := testutil.NewSimpleClient("c1", "Alice")

			h.Handle(c, codec.MustNewMessage(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: tt.limit}))

			payload, err := codec.ParsePayload[protocol.LeaderboardResultPayload](c.LastMessage())
			require.NoError(t, err)
			assert.Equal(t, []protocol.LeaderboardEntry{{Rank: 1, UserID: "alice", Solved: 4, Moves: 90}}, payload.Entries)
			lb.AssertExpectations(t)
		})
	}
}

func TestHandleGetLeaderboard_NoStore(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t, HandlerDeps{})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, &protocol.Message{Type: protocol.MsgGetLeaderboard})

	payload, err := codec.ParsePayload[protocol.LeaderboardResultPayload](c.LastMessage())
	require.NoError(t, err)
	assert.Empty(t, payload.Entries)
}
