package apperrors

import (
	"github.com/palemoky/sokoban-online/internal/protocol"
)

// GameError 游戏错误（房间和关卡共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound   = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull       = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom      = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrLevelNotFound  = &GameError{Code: protocol.ErrCodeLevelNotFound, Message: "关卡不存在"}
	ErrInvalidLevel   = &GameError{Code: protocol.ErrCodeInvalidLevel, Message: "关卡格式无效"}
	ErrGameNotEnabled = &GameError{Code: protocol.ErrCodeGameNotEnabled, Message: "玩家尚未到齐"}
	ErrUnknownAction  = &GameError{Code: protocol.ErrCodeUnknownAction, Message: "未知动作"}
	ErrMaintenance    = &GameError{Code: protocol.ErrCodeServerMaintenance, Message: "服务器维护中"}
)
