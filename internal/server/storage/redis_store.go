package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"
	roomIndexKey  = "rooms:index"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间目录数据（用于 Redis 序列化）
//
// 只写镜像：服务重启后不会从这里恢复房间。
type RoomData struct {
	RoomID      string         `json:"room_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	LevelID     int            `json:"level_id"`
	State       string         `json:"state"`
	Enabled     bool           `json:"enabled"`
	OwnerID     string         `json:"owner_id,omitempty"`
	Members     []MemberData   `json:"members"`
	Blocks      []PositionData `json:"blocks"`
	AllPlayers  int            `json:"all_players"`
	CreatedAt   int64          `json:"created_at"`
}

// MemberData 成员数据
type MemberData struct {
	UserID  string `json:"user_id"`
	Slot    int    `json:"slot"`
	IsOwner bool   `json:"is_owner"`
}

// PositionData 坐标
type PositionData struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RedisStore Redis 存储
//
// client 为 nil 时所有操作都是空操作，便于单机运行和测试。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Enabled 是否连接了 Redis
func (rs *RedisStore) Enabled() bool {
	return rs != nil && rs.client != nil
}

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, roomID string, data *RoomData) error {
	if !rs.Enabled() || data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, roomKeyPrefix+roomID, jsonData, roomExpiration)
	pipe.ZAdd(ctx, roomIndexKey, redis.Z{Score: float64(data.CreatedAt), Member: roomID})
	_, err = pipe.Exec(ctx)
	return err
}

// LoadRoom 从 Redis 加载房间，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string) (*RoomData, error) {
	if !rs.Enabled() {
		return nil, nil
	}

	data, err := rs.client.Get(ctx, roomKeyPrefix+roomID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	if !rs.Enabled() {
		return nil
	}

	pipe := rs.client.TxPipeline()
	pipe.Del(ctx, roomKeyPrefix+roomID)
	pipe.ZRem(ctx, roomIndexKey, roomID)
	_, err := pipe.Exec(ctx)
	return err
}

// GetAllRoomIDs 按创建时间获取所有房间 ID
func (rs *RedisStore) GetAllRoomIDs(ctx context.Context) ([]string, error) {
	if !rs.Enabled() {
		return nil, nil
	}
	return rs.client.ZRange(ctx, roomIndexKey, 0, -1).Result()
}

// SetRoomExpiration 设置房间过期时间
func (rs *RedisStore) SetRoomExpiration(ctx context.Context, roomID string, expiration time.Duration) error {
	if !rs.Enabled() {
		return nil
	}
	return rs.client.Expire(ctx, roomKeyPrefix+roomID, expiration).Err()
}

// Ping 检查 Redis 连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	if !rs.Enabled() {
		return nil
	}
	return rs.client.Ping(ctx).Err()
}
