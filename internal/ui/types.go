package ui

import (
	"github.com/palemoky/sokoban-online/internal/protocol"
)

// Phase 当前界面
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseLobby
	PhaseCreateRoom
	PhaseJoinRoom
	PhaseRoom
	PhaseLeaderboard
	PhaseStats
)

// NotificationType 通知类型
type NotificationType int

const (
	NotifyError        NotificationType = iota // 错误信息（临时）
	NotifyInfo                                 // 普通提示（临时）
	NotifyReconnecting                         // 重连中（持久）
)

// Notification 顶部通知
type Notification struct {
	Message   string
	Type      NotificationType
	Temporary bool // 3 秒后自动消失
}

// --- Tea Messages ---

// ServerMessage 服务端消息
type ServerMessage struct {
	Msg *protocol.Message
}

// ConnectedMsg 连接成功
type ConnectedMsg struct{}

// ConnectionErrorMsg 连接失败或断开
type ConnectionErrorMsg struct {
	Err error
}

// ReconnectSuccessMsg 重连成功
type ReconnectSuccessMsg struct{}

// relistenMsg 重连期间稍后重新监听消息
type relistenMsg struct{}

// clearNotificationMsg 清除临时通知
type clearNotificationMsg struct {
	Type NotificationType
}
