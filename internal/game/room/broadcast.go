package room

import (
	"github.com/palemoky/sokoban-online/internal/protocol"
)

// Broadcast 广播消息给房间内所有成员
func (r *Room) Broadcast(msg *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(msg)
}

// broadcastLocked 调用方需持有 r.mu，保证同一房间内所有成员收到的顺序一致
func (r *Room) broadcastLocked(msg *protocol.Message) {
	for _, p := range r.participants {
		p.Client.SendMessage(msg)
	}
}

// broadcastExceptLocked 广播消息给除指定成员外的所有成员
func (r *Room) broadcastExceptLocked(excludeID string, msg *protocol.Message) {
	for id, p := range r.participants {
		if id != excludeID {
			p.Client.SendMessage(msg)
		}
	}
}

// broadcastLobby 通知所有在线连接
func (rm *RoomManager) broadcastLobby(msg *protocol.Message) {
	if rm.lobby != nil {
		rm.lobby.BroadcastToLobby(msg)
	}
}
