package room

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// scheduleDeletionLocked 房间失去房主后安排延迟删除
//
// 回调触发时重新检查条件：房间仍在注册表中、是同一个实例、仍然没有房主，
// 并且这次安排没有被更新的安排取代。任一条件不满足则什么都不做。
func (rm *RoomManager) scheduleDeletionLocked(room *Room) {
	room.stopGraceLocked()

	room.graceSeq++
	seq := room.graceSeq
	room.graceDeadline = time.Now().Add(rm.ownerGrace)
	room.graceTimer = time.AfterFunc(rm.ownerGrace, func() {
		rm.expireGrace(room, seq)
	})

	log.Printf("⏳ 房间 %s 已无房主，%v 后删除", room.ID, rm.ownerGrace)
}

// expireGrace 宽限期结束
func (rm *RoomManager) expireGrace(room *Room, seq uint64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.rooms[room.ID] != room {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.destroyed || room.owner != "" || room.graceSeq != seq {
		log.Debugf("房间 %s 的删除已取消", room.ID)
		return
	}

	delete(rm.rooms, room.ID)
	room.graceTimer = nil
	rm.destroyLocked(room)
}

// Shutdown 停止所有删除定时器
func (rm *RoomManager) Shutdown() {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	for _, room := range rm.rooms {
		room.mu.Lock()
		room.stopGraceLocked()
		room.mu.Unlock()
	}
}
