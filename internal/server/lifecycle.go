package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
)

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.WithFields(log.Fields{
			"online":     s.GetOnlineCount(),
			"rooms":      s.roomManager.RoomCount(),
			"active":     s.roomManager.GetActiveRoomsCount(),
			"goroutines": runtime.NumGoroutine(),
			"conns":      fmt.Sprintf("%d/%d", len(s.semaphore), s.maxConnections),
			"mem_mb":     fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024),
		}).Info("📊 [监控]")
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接、创建和加入房间
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.BroadcastToLobby(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeServerMaintenance,
		Message: "👷🏻‍♂️ 维护模式：暂停新的房间",
	}))

	log.Info("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 等待进行中的房间结束后关闭服务器，最多等待 timeout
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.config.Game.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.roomManager.GetActiveRoomsCount()
		if active == 0 {
			log.Info("✅ 所有房间已结束")
			break
		}
		log.Infof("⏳ 等待 %d 个房间结束...", active)
		<-ticker.C
	}

	if active := s.roomManager.GetActiveRoomsCount(); active > 0 {
		log.Warnf("⚠️ 超时，仍有 %d 个房间进行中，强制关闭", active)
	}

	s.BroadcastToLobby(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeServerMaintenance,
		Message: "🚧 服务器即将停机维护！",
	}))

	s.sendShutdownNotification()
	s.Shutdown()
}

// sendShutdownNotification 通知外部 webhook（SHUTDOWN_WEBHOOK_URL）
func (s *Server) sendShutdownNotification() {
	url := os.Getenv("SHUTDOWN_WEBHOOK_URL")
	if url == "" {
		return
	}

	body, _ := json.Marshal(map[string]string{"text": "推箱子服务器已优雅关闭，开始升级吧！"})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Warnf("创建通知请求失败: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if secret := os.Getenv("SHUTDOWN_WEBHOOK_SECRET"); secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Warnf("发送通知失败: %v", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		log.Info("🔔 已发送关闭通知")
	} else {
		log.Warnf("通知响应异常: %d", resp.StatusCode)
	}
}

// Shutdown 关闭所有连接、停止房间定时器并断开 Redis
func (s *Server) Shutdown() {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.httpServer.Shutdown(ctx)
		cancel()
	}

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	s.roomManager.Shutdown()

	if s.redis != nil {
		_ = s.redis.Close()
	}

	log.Info("服务器已关闭")
}
