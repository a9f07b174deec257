package types

import (
	"context"

	"github.com/palemoky/sokoban-online/internal/protocol"
)

// ServerInterface 处理器需要的服务器能力，handler 包不直接依赖 server 包
type ServerInterface interface {
	Broadcaster
	IsMaintenanceMode() bool
	GetOnlineCount() int
}

// Broadcaster 向所有在线连接广播（房间目录变化）
type Broadcaster interface {
	BroadcastToLobby(msg *protocol.Message)
}

// ClientInterface 定义客户端接口
type ClientInterface interface {
	GetID() string
	GetName() string
	GetRoom() string
	SetRoom(roomID string)
	SendMessage(msg *protocol.Message)
	Close()
}

// ChatLimiter 聊天速率限制器接口
type ChatLimiter interface {
	AllowChat(clientID string) (allowed bool, reason string)
	RemoveClient(clientID string)
}

// StatsRecorder 记录关卡完成统计
type StatsRecorder interface {
	RecordSolve(ctx context.Context, userID string, levelID, moves int) error
}
