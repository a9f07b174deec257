package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	playerStatsKey   = "player:stats:"
	leaderboardKey   = "leaderboard:solved"
	dailyLeaderboard = "leaderboard:daily:"
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	UserID string `json:"user_id"`

	Solved       int   `json:"solved"`        // 完成关卡次数
	Moves        int   `json:"moves"`         // 完成时累计的有效移动数
	LevelsSolved []int `json:"levels_solved"` // 完成过的关卡（去重、升序）

	LastSolvedAt int64 `json:"last_solved_at"`
	CreatedAt    int64 `json:"created_at"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Solved int    `json:"solved"`
	Moves  int    `json:"moves"`
}

// LeaderboardManager 排行榜管理器
type LeaderboardManager struct {
	redis *redis.Client
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client}
}

// Enabled 是否连接了 Redis
func (lm *LeaderboardManager) Enabled() bool {
	return lm != nil && lm.redis != nil
}

// GetPlayerStats 获取玩家统计，未记录过时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, userID string) (*PlayerStats, error) {
	if !lm.Enabled() {
		return nil, nil
	}

	data, err := lm.redis.Get(ctx, playerStatsKey+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("反序列化玩家统计失败: %w", err)
	}
	return &stats, nil
}

func (lm *LeaderboardManager) savePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+stats.UserID, data, 0).Err()
}

// RecordSolve 记录一次关卡完成
func (lm *LeaderboardManager) RecordSolve(ctx context.Context, userID string, levelID, moves int) error {
	if !lm.Enabled() {
		return nil
	}

	stats, err := lm.GetPlayerStats(ctx, userID)
	if err != nil {
		return err
	}
	now := time.Now()
	if stats == nil {
		stats = &PlayerStats{UserID: userID, CreatedAt: now.Unix()}
	}

	stats.Solved++
	stats.Moves += moves
	stats.LastSolvedAt = now.Unix()
	if _, found := slices.BinarySearch(stats.LevelsSolved, levelID); !found {
		stats.LevelsSolved = append(stats.LevelsSolved, levelID)
		slices.Sort(stats.LevelsSolved)
	}

	if err := lm.savePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lm.updateLeaderboard(ctx, stats, now)
}

func (lm *LeaderboardManager) updateLeaderboard(ctx context.Context, stats *PlayerStats, now time.Time) error {
	if err := lm.redis.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(stats.Solved),
		Member: stats.UserID,
	}).Err(); err != nil {
		return err
	}

	// 每日排行榜按当日完成次数累加
	dailyKey := dailyLeaderboard + now.Format("2006-01-02")
	if err := lm.redis.ZIncrBy(ctx, dailyKey, 1, stats.UserID).Err(); err != nil {
		return err
	}
	// 设置过期时间（2天）
	lm.redis.Expire(ctx, dailyKey, 48*time.Hour)

	return nil
}

// GetLeaderboard 获取总排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if !lm.Enabled() || limit <= 0 {
		return nil, nil
	}

	results, err := lm.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		userID, ok := result.Member.(string)
		if !ok {
			continue
		}

		entry := LeaderboardEntry{
			Rank:   i + 1,
			UserID: userID,
			Solved: int(result.Score),
		}
		if stats, err := lm.GetPlayerStats(ctx, userID); err == nil && stats != nil {
			entry.Moves = stats.Moves
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetPlayerRank 获取玩家排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, userID string) (int64, error) {
	if !lm.Enabled() {
		return -1, nil
	}

	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil // 未上榜
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
