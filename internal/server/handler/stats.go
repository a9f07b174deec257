package handler

import (
	"context"
	"time"

	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/types"
)

const (
	queryTimeout            = 3 * time.Second
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
)

// --- 排行榜处理 ---

// handleGetStats 获取个人统计，未指定 user_id 时查询自己的昵称
func (h *Handler) handleGetStats(client types.ClientInterface, msg *protocol.Message) {
	userID := client.GetName()
	if payload, err := codec.ParsePayload[protocol.GetStatsPayload](msg); err == nil && payload.UserID != "" {
		userID = payload.UserID
	}

	result := protocol.StatsResultPayload{UserID: userID, LevelsSolved: []int{}}
	if h.leaderboard == nil {
		client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, result))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	stats, err := h.leaderboard.GetPlayerStats(ctx, userID)
	if err != nil {
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取统计失败"))
		return
	}
	if stats != nil {
		result.Solved = stats.Solved
		result.Moves = stats.Moves
		result.LevelsSolved = stats.LevelsSolved
		if rank, err := h.leaderboard.GetPlayerRank(ctx, userID); err == nil && rank > 0 {
			result.Rank = int(rank)
		}
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, result))
}

// handleGetLeaderboard 获取排行榜
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	limit := defaultLeaderboardLimit
	if payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg); err == nil &&
		payload.Limit > 0 && payload.Limit <= maxLeaderboardLimit {
		limit = payload.Limit
	}

	entries := make([]protocol.LeaderboardEntry, 0)
	if h.leaderboard != nil {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()

		list, err := h.leaderboard.GetLeaderboard(ctx, limit)
		if err != nil {
			client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, "获取排行榜失败"))
			return
		}
		for _, e := range list {
			entries = append(entries, protocol.LeaderboardEntry{
				Rank:   e.Rank,
				UserID: e.UserID,
				Solved: e.Solved,
				Moves:  e.Moves,
			})
		}
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Entries: entries,
	}))
}
