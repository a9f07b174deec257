package room

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/server/storage"
)

const storeTimeout = 3 * time.Second

// toRoomDataLocked 将 Room 转换为可序列化的 RoomData
func (r *Room) toRoomDataLocked() *storage.RoomData {
	data := &storage.RoomData{
		RoomID:      r.ID,
		Name:        r.Name,
		Description: r.Description,
		LevelID:     r.LevelID,
		State:       string(r.stateLocked()),
		Enabled:     r.enabled,
		OwnerID:     r.ownerUserIDLocked(),
		Members:     make([]storage.MemberData, 0, len(r.participants)),
		AllPlayers:  r.slotCount,
		CreatedAt:   r.CreatedAt.Unix(),
	}

	for _, m := range r.membersLocked() {
		data.Members = append(data.Members, storage.MemberData{
			UserID:  m.UserID,
			Slot:    m.Slot,
			IsOwner: m.IsOwner,
		})
	}
	for _, p := range r.board.BlockList() {
		data.Blocks = append(data.Blocks, storage.PositionData{X: p.X, Y: p.Y})
	}

	return data
}

// storeQueue 单个房间的 Redis 写入队列，按入队顺序串行执行
//
// 入队发生在房间锁内，因此快照与删除的落地顺序和房间状态变化的顺序一致。
type storeQueue struct {
	mu      sync.Mutex
	pending []func(context.Context)
	running bool
}

func (q *storeQueue) push(op func(context.Context)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, op)
	if !q.running {
		q.running = true
		go q.drain()
	}
}

func (q *storeQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		op := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		op(ctx)
		cancel()
	}
}

// saveRoomLocked 在锁内生成快照，异步写入 Redis；已删除的房间不再写入
func (rm *RoomManager) saveRoomLocked(room *Room) {
	if !rm.redisStore.Enabled() || room.destroyed {
		return
	}
	data := room.toRoomDataLocked()
	room.store.push(func(ctx context.Context) {
		if err := rm.redisStore.SaveRoom(ctx, data.RoomID, data); err != nil {
			log.Warnf("⚠️  保存房间 %s 失败: %v", data.RoomID, err)
		}
	})
}

// deleteRoomDataLocked 排在该房间所有待写快照之后删除
func (rm *RoomManager) deleteRoomDataLocked(room *Room) {
	if !rm.redisStore.Enabled() {
		return
	}
	roomID := room.ID
	room.store.push(func(ctx context.Context) {
		if err := rm.redisStore.DeleteRoom(ctx, roomID); err != nil {
			log.Warnf("⚠️  删除房间 %s 失败: %v", roomID, err)
		}
	})
}
