package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/apperrors"
	"github.com/palemoky/sokoban-online/internal/game/level"
	"github.com/palemoky/sokoban-online/internal/game/room"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/server/storage"
	"github.com/palemoky/sokoban-online/internal/types"
)

// LevelCatalog 关卡目录
type LevelCatalog interface {
	List() []level.Info
}

// Leaderboard 统计查询
type Leaderboard interface {
	GetPlayerStats(ctx context.Context, userID string) (*storage.PlayerStats, error)
	GetPlayerRank(ctx context.Context, userID string) (int64, error)
	GetLeaderboard(ctx context.Context, limit int) ([]storage.LeaderboardEntry, error)
}

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	RoomManager *room.RoomManager
	Levels      LevelCatalog
	ChatLimiter types.ChatLimiter
	Leaderboard Leaderboard
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	roomManager *room.RoomManager
	levels      LevelCatalog
	chatLimiter types.ChatLimiter
	leaderboard Leaderboard
	validate    *validator.Validate
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		roomManager: deps.RoomManager,
		levels:      deps.Levels,
		chatLimiter: deps.ChatLimiter,
		leaderboard: deps.Leaderboard,
		validate:    validator.New(),
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },

		// 游戏操作
		protocol.MsgExecuteAction: h.handleExecuteAction,
		protocol.MsgRestart:       func(c types.ClientInterface, _ *protocol.Message) { h.handleRestart(c) },

		// 信息查询
		protocol.MsgGetStats:       h.handleGetStats,
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
		protocol.MsgGetRoomList:    func(c types.ClientInterface, _ *protocol.Message) { h.handleGetRoomList(c) },
		protocol.MsgGetLevelList:   func(c types.ClientInterface, _ *protocol.Message) { h.handleGetLevelList(c) },
		protocol.MsgGetOnlineCount: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetOnlineCount(c) },
		protocol.MsgChat:           h.handleChat,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Warnf("⚠️  未知消息类型: '%s' (来自玩家: %s, ID: %s, Payload长度=%d bytes)",
		msg.Type, client.GetName(), client.GetID(), len(msg.Payload))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// parsePayload 解析并校验请求，失败时已回复错误
func parsePayload[T any](h *Handler, client types.ClientInterface, msg *protocol.Message) (*T, bool) {
	payload, err := codec.ParsePayload[T](msg)
	if err != nil {
		client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return nil, false
	}
	if err := h.validate.Struct(payload); err != nil {
		log.Debugf("请求校验失败 (%s): %v", msg.Type, err)
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidMsg, err.Error()))
		return nil, false
	}
	return payload, true
}

// sendError 将领域错误转换为错误消息
func sendError(client types.ClientInterface, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(codec.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
		return
	}
	log.Errorf("处理请求失败 (玩家 %s): %v", client.GetID(), err)
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

// rejectInMaintenance 维护模式下拒绝请求
func (h *Handler) rejectInMaintenance(client types.ClientInterface, text string) bool {
	if h.server == nil || !h.server.IsMaintenanceMode() {
		return false
	}
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeServerMaintenance, text))
	return true
}
