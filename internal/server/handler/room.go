package handler

import (
	"github.com/palemoky/sokoban-online/internal/game/room"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/types"
)

// handleCreateRoom 处理创建房间，成功后房间管理器会推送 game_state
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.rejectInMaintenance(client, "服务器维护中，暂停创建房间") {
		return
	}

	payload, ok := parsePayload[protocol.CreateRoomPayload](h, client, msg)
	if !ok {
		return
	}

	_, err := h.roomManager.CreateRoom(client, room.CreateRoomRequest{
		Name:        payload.RoomName,
		Description: payload.Description,
		LevelID:     payload.LevelID,
		UserID:      payload.UserID,
	})
	if err != nil {
		sendError(client, err)
	}
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.rejectInMaintenance(client, "服务器维护中，暂停加入房间") {
		return
	}

	payload, ok := parsePayload[protocol.JoinRoomPayload](h, client, msg)
	if !ok {
		return
	}

	if _, err := h.roomManager.JoinRoom(client, payload.RoomID, payload.UserID); err != nil {
		sendError(client, err)
	}
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	h.roomManager.LeaveRoom(client)
}

// handleGetRoomList 获取房间列表
func (h *Handler) handleGetRoomList(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomListResult, protocol.RoomListResultPayload{
		Rooms: h.roomManager.GetRoomList(),
	}))
}

// handleGetLevelList 获取关卡列表
func (h *Handler) handleGetLevelList(client types.ClientInterface) {
	levels := make([]protocol.LevelInfo, 0)
	if h.levels != nil {
		for _, info := range h.levels.List() {
			levels = append(levels, protocol.LevelInfo{
				ID:      info.ID,
				Name:    info.Name,
				Players: info.Players,
				Width:   info.Width,
				Height:  info.Height,
			})
		}
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgLevelListResult, protocol.LevelListResultPayload{
		Levels: levels,
	}))
}
