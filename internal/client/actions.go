package client

import (
	"time"

	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
)

// Ping 发送心跳
func (c *Client) Ping() error {
	msg := codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	})
	return c.SendMessage(msg)
}

// CreateRoom 创建房间，userID 为空时服务端使用连接昵称
func (c *Client) CreateRoom(name, description string, levelID int, userID string) error {
	msg := codec.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		RoomName:    name,
		Description: description,
		LevelID:     levelID,
		UserID:      userID,
	})
	return c.SendMessage(msg)
}

// JoinRoom 加入房间
func (c *Client) JoinRoom(roomID, userID string) error {
	msg := codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomID: roomID,
		UserID: userID,
	})
	return c.SendMessage(msg)
}

// LeaveRoom 离开房间
func (c *Client) LeaveRoom() error {
	c.reconnect.rememberRoom("")
	return c.SendMessage(&protocol.Message{Type: protocol.MsgLeaveRoom})
}

// ExecuteAction 提交动作以及本地预测后的状态
func (c *Client) ExecuteAction(claim protocol.ExecuteActionPayload) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgExecuteAction, claim))
}

// Restart 重置关卡
func (c *Client) Restart() error {
	return c.SendMessage(&protocol.Message{Type: protocol.MsgRestart})
}

// Chat 发送聊天消息
func (c *Client) Chat(content string) error {
	msg := codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Content: content})
	return c.SendMessage(msg)
}

// GetRoomList 获取房间列表
func (c *Client) GetRoomList() error {
	return c.SendMessage(&protocol.Message{Type: protocol.MsgGetRoomList})
}

// GetLevelList 获取关卡列表
func (c *Client) GetLevelList() error {
	return c.SendMessage(&protocol.Message{Type: protocol.MsgGetLevelList})
}

// GetOnlineCount 获取在线人数
func (c *Client) GetOnlineCount() error {
	return c.SendMessage(&protocol.Message{Type: protocol.MsgGetOnlineCount})
}

// GetStats 获取统计，userID 为空时查询自己
func (c *Client) GetStats(userID string) error {
	msg := codec.MustNewMessage(protocol.MsgGetStats, protocol.GetStatsPayload{UserID: userID})
	return c.SendMessage(msg)
}

// GetLeaderboard 获取排行榜
func (c *Client) GetLeaderboard(limit int) error {
	msg := codec.MustNewMessage(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{Limit: limit})
	return c.SendMessage(msg)
}
