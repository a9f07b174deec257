package server

import (
	"encoding/json"
	"net/http"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	if s.IsMaintenanceMode() {
		log.Infof("🔧 维护模式，拒绝新连接: %s", clientIP)
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制，连接关闭后释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warnf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}
	release := func() { <-s.semaphore }

	if !s.ipFilter.IsAllowed(clientIP) {
		release()
		log.Warnf("🚫 IP %s 被过滤器拒绝", clientIP)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !s.originChecker.Check(r) {
		release()
		log.Warnf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		release()
		log.Warnf("🚫 IP %s 请求过于频繁", clientIP)
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		release()
		log.Warnf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		ConnectionID: client.ID,
		UserName:     client.Name,
	}))

	log.Infof("✅ 玩家 %s (%s) 已连接", client.Name, client.ID)

	go func() {
		defer release()
		client.ReadPump()
	}()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleRoomList 房间列表
func (s *Server) handleRoomList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, protocol.RoomListResultPayload{Rooms: s.roomManager.GetRoomList()})
}

// handleRoomDetail 单个房间摘要
func (s *Server) handleRoomDetail(w http.ResponseWriter, r *http.Request) {
	room := s.roomManager.GetRoom(way.Param(r.Context(), "id"))
	if room == nil {
		writeJSON(w, http.StatusNotFound, protocol.ErrorPayload{
			Code:    protocol.ErrCodeRoomNotFound,
			Message: protocol.ErrorMessages[protocol.ErrCodeRoomNotFound],
		})
		return
	}
	writeJSON(w, http.StatusOK, room.ListItem())
}

// handleLevelList 关卡列表
func (s *Server) handleLevelList(w http.ResponseWriter, _ *http.Request) {
	levels := make([]protocol.LevelInfo, 0)
	if s.levels != nil {
		for _, info := range s.levels.List() {
			levels = append(levels, protocol.LevelInfo{
				ID: info.ID, Name: info.Name, Players: info.Players, Width: info.Width, Height: info.Height,
			})
		}
	}
	writeJSON(w, http.StatusOK, protocol.LevelListResultPayload{Levels: levels})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debugf("写入响应失败: %v", err)
	}
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		log.Infof("❌ 玩家 %s (%s) 已断开", client.Name, client.ID)
	}
}
