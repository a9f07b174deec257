package room

import (
	"slices"
	"sync"
	"time"

	"github.com/palemoky/sokoban-online/internal/game/board"
	"github.com/palemoky/sokoban-online/internal/game/level"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/convert"
	"github.com/palemoky/sokoban-online/internal/server/storage"
	"github.com/palemoky/sokoban-online/internal/types"
)

// DefaultOwnerGrace 房间失去房主后的默认删除宽限期
const DefaultOwnerGrace = 5 * time.Second

// Participant 房间成员
type Participant struct {
	Client types.ClientInterface
	UserID string
	Slot   int // 控制的玩家槽位
	Moves  int // 本局被接受的移动数
}

// Room 游戏房间
//
// 除 ID 等创建后不变的字段外，所有状态只能在持有 mu 时访问。
type Room struct {
	ID          string
	Name        string
	Description string
	LevelID     int
	CreatedAt   time.Time

	rows         []string     // 原始关卡，重置时重新解析
	board        *board.Board // 权威棋盘
	slotCount    int
	freeSlots    []int                   // 空闲槽位（升序）
	participants map[string]*Participant // connectionID -> 成员
	owner        string                  // 房主 connectionID，空表示无房主
	enabled      bool                    // 槽位首次占满后置为 true，不会复位
	solved       bool                    // 上一次检查时是否已完成，用于只记录一次统计
	destroyed    bool

	graceSeq      uint64 // 每次安排删除自增，过期回调据此判断是否仍然有效
	graceTimer    *time.Timer
	graceDeadline time.Time

	store storeQueue // Redis 镜像写入

	mu sync.Mutex
}

// RoomManager 房间管理器（房间注册表）
//
// 加锁顺序固定为 rm.mu → room.mu，持有 room.mu 时不会再获取 rm.mu。
type RoomManager struct {
	levels     level.Loader
	redisStore *storage.RedisStore
	stats      types.StatsRecorder
	lobby      types.Broadcaster
	ownerGrace time.Duration

	rooms map[string]*Room
	mu    sync.RWMutex
}

// ManagerDeps 房间管理器依赖
type ManagerDeps struct {
	Levels     level.Loader
	RedisStore *storage.RedisStore // 可为 nil
	Stats      types.StatsRecorder // 可为 nil
	Lobby      types.Broadcaster   // 可为 nil
	OwnerGrace time.Duration       // <= 0 时使用 DefaultOwnerGrace
}

// NewRoomManager 创建房间管理器
func NewRoomManager(deps ManagerDeps) *RoomManager {
	grace := deps.OwnerGrace
	if grace <= 0 {
		grace = DefaultOwnerGrace
	}
	return &RoomManager{
		levels:     deps.Levels,
		redisStore: deps.RedisStore,
		stats:      deps.Stats,
		lobby:      deps.Lobby,
		ownerGrace: grace,
		rooms:      make(map[string]*Room),
	}
}

// --- 只读访问 ---

// Enabled 是否已开放（所有槽位曾被占满）
func (r *Room) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// OwnerID 当前房主的 connectionID，无房主时为空
func (r *Room) OwnerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// FreeSlots 空闲槽位副本
func (r *Room) FreeSlots() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.freeSlots)
}

// ParticipantCount 当前成员数
func (r *Room) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// Participant 获取成员信息副本
func (r *Room) Participant(connID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[connID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// GraceDeadline 计划删除时间，未安排时为零值
func (r *Room) GraceDeadline() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.graceDeadline
}

// Blocks 当前箱子坐标
func (r *Room) Blocks() []board.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.BlockList()
}

// Players 当前玩家角色
func (r *Room) Players() []board.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.board.PlayerList()
}

// ListItem 房间列表项
func (r *Room) ListItem() protocol.RoomListItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listItemLocked()
}

func (r *Room) listItemLocked() protocol.RoomListItem {
	return protocol.RoomListItem{
		RoomID:      r.ID,
		RoomName:    r.Name,
		Description: r.Description,
		LevelID:     r.LevelID,
		PlayersIn:   len(r.participants),
		AllPlayers:  r.slotCount,
	}
}

// membersLocked 按槽位排序的成员列表
func (r *Room) membersLocked() []protocol.MemberInfo {
	members := make([]protocol.MemberInfo, 0, len(r.participants))
	for id, p := range r.participants {
		members = append(members, protocol.MemberInfo{
			UserID:  p.UserID,
			Slot:    p.Slot,
			IsOwner: id == r.owner,
		})
	}
	slices.SortFunc(members, func(a, b protocol.MemberInfo) int { return a.Slot - b.Slot })
	return members
}

// ownerUserIDLocked 房主的 userID
func (r *Room) ownerUserIDLocked() string {
	if p, ok := r.participants[r.owner]; ok {
		return p.UserID
	}
	return ""
}

// gameStateLocked 构建发给指定成员的完整状态
func (r *Room) gameStateLocked(connID string) protocol.GameStatePayload {
	slot := -1
	if p, ok := r.participants[connID]; ok {
		slot = p.Slot
	}
	return protocol.GameStatePayload{
		RoomID:      r.ID,
		LevelID:     r.LevelID,
		Slot:        slot,
		OwnerID:     r.owner,
		OwnerUserID: r.ownerUserIDLocked(),
		Enabled:     r.enabled,
		Width:       r.board.Width,
		Height:      r.board.Height,
		Walls:       convert.PositionsToInfos(r.board.WallList()),
		Goals:       convert.PositionsToInfos(r.board.GoalList()),
		Blocks:      convert.PositionsToInfos(r.board.BlockList()),
		Players:     convert.PlayersToStates(r.board.PlayerList()),
		Members:     r.membersLocked(),
	}
}

// releaseSlotLocked 归还槽位并保持升序
func (r *Room) releaseSlotLocked(slot int) {
	i, _ := slices.BinarySearch(r.freeSlots, slot)
	r.freeSlots = slices.Insert(r.freeSlots, i, slot)
}

// lowestParticipantLocked 编号最小的成员，用于确定性地移交房主
func (r *Room) lowestParticipantLocked() string {
	ids := make([]string, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ""
	}
	return slices.Min(ids)
}

// stopGraceLocked 取消已安排的删除
func (r *Room) stopGraceLocked() {
	if r.graceTimer != nil {
		r.graceTimer.Stop()
		r.graceTimer = nil
	}
	r.graceDeadline = time.Time{}
}
