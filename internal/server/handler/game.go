package handler

import (
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/convert"
	"github.com/palemoky/sokoban-online/internal/types"
)

// handleExecuteAction 处理动作请求
//
// 结果（action_result / move_applied / solved）由房间在锁内发出。
func (h *Handler) handleExecuteAction(client types.ClientInterface, msg *protocol.Message) {
	payload, ok := parsePayload[protocol.ExecuteActionPayload](h, client, msg)
	if !ok {
		return
	}

	_, err := h.roomManager.ExecuteAction(client, client.GetRoom(), payload.Action,
		convert.InfosToPositions(payload.Blocks), convert.StatesToPositions(payload.Players))
	if err != nil {
		sendError(client, err)
	}
}

// handleRestart 处理重新开始
func (h *Handler) handleRestart(client types.ClientInterface) {
	if err := h.roomManager.Restart(client, client.GetRoom()); err != nil {
		sendError(client, err)
	}
}
