package handler

import (
	"time"

	"github.com/palemoky/sokoban-online/internal/apperrors"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/types"
)

// handleChat 处理房间聊天
func (h *Handler) handleChat(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parsePayload[protocol.ChatPayload](h, client, msg)
	if !ok {
		return
	}

	if h.chatLimiter != nil {
		if allowed, reason := h.chatLimiter.AllowChat(client.GetID()); !allowed {
			client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, reason))
			return
		}
	}

	roomID := client.GetRoom()
	if roomID == "" {
		sendError(client, apperrors.ErrNotInRoom)
		return
	}
	r := h.roomManager.GetRoom(roomID)
	if r == nil {
		sendError(client, apperrors.ErrRoomNotFound)
		return
	}

	senderID := client.GetName()
	if p, ok := r.Participant(client.GetID()); ok {
		senderID = p.UserID
	}

	r.Broadcast(codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{
		SenderID: senderID,
		Content:  payload.Content,
		Time:     time.Now().Unix(),
	}))
}
