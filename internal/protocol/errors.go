package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeRoomNotFound      = 2001
	ErrCodeRoomFull          = 2002
	ErrCodeNotInRoom         = 2003
	ErrCodeLevelNotFound     = 2004
	ErrCodeInvalidLevel      = 2005
	ErrCodeGameNotEnabled    = 3001
	ErrCodeUnknownAction     = 3002
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeRoomFull:          "房间已满",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeLevelNotFound:     "关卡不存在",
	ErrCodeInvalidLevel:      "关卡格式无效",
	ErrCodeGameNotEnabled:    "玩家尚未到齐",
	ErrCodeUnknownAction:     "未知动作",
	ErrCodeServerMaintenance: "服务器维护中",
}
