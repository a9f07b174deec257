package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	RoomName    string `json:"room_name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=256"`
	LevelID     int    `json:"level_id" validate:"gte=0"`
	UserID      string `json:"user_id" validate:"max=64"` // 为空时使用连接昵称
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID string `json:"room_id" validate:"required"`
	UserID string `json:"user_id" validate:"max=64"`
}

// ExecuteActionPayload 执行动作请求
//
// Blocks/Players 是客户端本地预测执行该动作之后的状态。
type ExecuteActionPayload struct {
	Action  string         `json:"action" validate:"required"`
	Blocks  []PositionInfo `json:"blocks"`
	Players []PlayerState  `json:"players"`
}

// GetStatsPayload 获取统计请求
type GetStatsPayload struct {
	UserID string `json:"user_id"` // 为空时查询自己
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Limit int `json:"limit"` // 默认 10，最大 50
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
	UserName     string `json:"user_name"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// OnlineCountPayload 在线人数
type OnlineCountPayload struct {
	Count int `json:"count"`
}

// RoomCreatedPayload 新房间通知（发给所有连接）
type RoomCreatedPayload struct {
	Room RoomListItem `json:"room"`
}

// PlayersInUpdatedPayload 房间人数变化（发给所有连接）
type PlayersInUpdatedPayload struct {
	RoomID     string `json:"room_id"`
	PlayersIn  int    `json:"players_in"`
	AllPlayers int    `json:"all_players"`
}

// RoomDeletedPayload 房间删除通知
type RoomDeletedPayload struct {
	RoomID string `json:"room_id"`
}

// GameStatePayload 完整房间状态（发给创建者/加入者）
type GameStatePayload struct {
	RoomID      string         `json:"room_id"`
	LevelID     int            `json:"level_id"`
	Slot        int            `json:"slot"`          // 自己控制的槽位
	OwnerID     string         `json:"owner_id"`      // 房主 connectionID，与 owner_changed 一致
	OwnerUserID string         `json:"owner_user_id"` // 房主 userID
	Enabled     bool           `json:"enabled"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Walls       []PositionInfo `json:"walls"`
	Goals       []PositionInfo `json:"goals"`
	Blocks      []PositionInfo `json:"blocks"`
	Players     []PlayerState  `json:"players"`
	Members     []MemberInfo   `json:"members"`
}

// PlayerJoinedPayload 其他玩家加入通知
type PlayerJoinedPayload struct {
	UserID string      `json:"user_id"`
	Player PlayerState `json:"player"`
}

// PlayerLeftPayload 玩家离开通知
type PlayerLeftPayload struct {
	UserID string `json:"user_id"`
	Slot   int    `json:"slot"`
}

// OwnerChangedPayload 房主变更通知
type OwnerChangedPayload struct {
	RoomID  string `json:"room_id"`
	OwnerID string `json:"owner_id"`
	UserID  string `json:"user_id"`
}

// GameEnabledPayload 游戏可开始通知
type GameEnabledPayload struct {
	RoomID string `json:"room_id"`
}

// ActionResultPayload 动作执行结果
//
// 未同步时附带权威状态，客户端必须以此覆盖本地状态。
type ActionResultPayload struct {
	Action       string         `json:"action"`
	Synchronized bool           `json:"synchronized"`
	Blocks       []PositionInfo `json:"blocks,omitempty"`
	Players      []PlayerState  `json:"players,omitempty"`
}

// MoveAppliedPayload 其他玩家的动作（不会发给执行者本人）
type MoveAppliedPayload struct {
	RoomID   string         `json:"room_id"`
	Action   string         `json:"action"`
	PlayerID int            `json:"player_id"`
	Blocks   []PositionInfo `json:"blocks"`
	Players  []PlayerState  `json:"players"`
}

// SolvedPayload 关卡完成通知
type SolvedPayload struct {
	RoomID string `json:"room_id"`
}

// RestartedPayload 关卡重置通知
type RestartedPayload struct {
	RoomID  string         `json:"room_id"`
	Blocks  []PositionInfo `json:"blocks"`
	Players []PlayerState  `json:"players"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatsResultPayload 个人统计结果
type StatsResultPayload struct {
	UserID       string `json:"user_id"`
	Solved       int    `json:"solved"`        // 完成关卡次数
	Moves        int    `json:"moves"`         // 被接受的移动总数
	LevelsSolved []int  `json:"levels_solved"` // 完成过的关卡
	Rank         int    `json:"rank"`
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Solved int    `json:"solved"`
	Moves  int    `json:"moves"`
}

// RoomListResultPayload 房间列表结果
type RoomListResultPayload struct {
	Rooms []RoomListItem `json:"rooms"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name"`
	Description string `json:"description"`
	LevelID     int    `json:"level_id"`
	PlayersIn   int    `json:"players_in"`
	AllPlayers  int    `json:"all_players"`
}

// LevelListResultPayload 关卡列表结果
type LevelListResultPayload struct {
	Levels []LevelInfo `json:"levels"`
}

// LevelInfo 关卡信息
type LevelInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// ChatPayload 聊天消息
type ChatPayload struct {
	SenderID string `json:"sender_id,omitempty"` // 发送者 userID (服务端填充)
	Content  string `json:"content" validate:"required,max=500"`
	Time     int64  `json:"time,omitempty"`      // 发送时间 (服务端填充)
	IsSystem bool   `json:"is_system,omitempty"` // 是否是系统消息
}

// --- 通用数据结构 ---

// PositionInfo 坐标
type PositionInfo struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PlayerState 棋盘上的玩家角色
type PlayerState struct {
	ID       int          `json:"id"`
	Position PositionInfo `json:"position"`
	Color    string       `json:"color,omitempty"`
}

// MemberInfo 房间成员
type MemberInfo struct {
	UserID  string `json:"user_id"`
	Slot    int    `json:"slot"`
	IsOwner bool   `json:"is_owner"`
}
