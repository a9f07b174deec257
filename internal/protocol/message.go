package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间

	// 游戏操作
	MsgExecuteAction MessageType = "execute_action" // 执行动作
	MsgRestart       MessageType = "restart"        // 重新开始

	// 信息查询
	MsgGetRoomList    MessageType = "get_room_list"    // 获取房间列表
	MsgGetLevelList   MessageType = "get_level_list"   // 获取关卡列表
	MsgGetStats       MessageType = "get_stats"        // 获取个人统计
	MsgGetLeaderboard MessageType = "get_leaderboard"  // 获取排行榜
	MsgGetOnlineCount MessageType = "get_online_count" // 获取在线人数
	MsgChat           MessageType = "chat"             // 聊天消息
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected   MessageType = "connected"    // 连接成功
	MsgPong        MessageType = "pong"         // 心跳 pong
	MsgOnlineCount MessageType = "online_count" // 在线人数

	// 房间相关（大厅广播）
	MsgRoomCreated      MessageType = "room_created"       // 新房间
	MsgPlayersInUpdated MessageType = "players_in_updated" // 房间人数变化
	MsgRoomDeleted      MessageType = "room_deleted"       // 房间被删除

	// 房间相关（房间内）
	MsgGameState    MessageType = "game_state"    // 完整棋盘状态（创建者/加入者）
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开
	MsgOwnerChanged MessageType = "owner_changed" // 房主变更
	MsgGameEnabled  MessageType = "game_enabled"  // 所有槽位已占满

	// 游戏流程
	MsgActionResult MessageType = "action_result" // 动作执行结果（仅发给执行者）
	MsgMoveApplied  MessageType = "move_applied"  // 其他玩家的动作
	MsgSolved       MessageType = "solved"        // 关卡完成
	MsgRestarted    MessageType = "restarted"     // 关卡重置

	// 信息查询
	MsgRoomListResult    MessageType = "room_list_result"   // 房间列表结果
	MsgLevelListResult   MessageType = "level_list_result"  // 关卡列表结果
	MsgStatsResult       MessageType = "stats_result"       // 个人统计结果
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果

	// 错误
	MsgError MessageType = "error" // 错误消息
)
