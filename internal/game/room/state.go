package room

import "github.com/palemoky/sokoban-online/internal/game/rule"

// RoomState 房间状态
type RoomState string

const (
	RoomStateForming        RoomState = "forming"         // 还有空闲槽位，尚未开放
	RoomStateActive         RoomState = "active"          // 所有槽位曾被占满（单向开关）
	RoomStateSolved         RoomState = "solved"          // 所有箱子在目标点上（派生状态，重置后消失）
	RoomStateOwnerlessGrace RoomState = "ownerless_grace" // 无房主，等待删除
	RoomStateDestroyed      RoomState = "destroyed"       // 已从注册表移除
)

// State 当前房间状态
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Room) stateLocked() RoomState {
	switch {
	case r.destroyed:
		return RoomStateDestroyed
	case r.owner == "":
		return RoomStateOwnerlessGrace
	case rule.Solved(r.board):
		return RoomStateSolved
	case r.enabled:
		return RoomStateActive
	default:
		return RoomStateForming
	}
}
