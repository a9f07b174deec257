package client

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// 最大重连次数
	maxReconnectAttempts = 5
	// 重连间隔
	reconnectInterval = 2 * time.Second
)

// reconnectState 断线重连状态
//
// 服务端没有会话恢复，重连后以相同 userID 重新加入上次的房间；
// 房主宽限期内回来还能接管房间。
type reconnectState struct {
	mu       sync.Mutex
	enabled  bool
	active   bool
	roomID   string
	userID   string
	interval time.Duration
}

// EnableReconnect 开启自动重连，userID 用于重新加入房间
func (c *Client) EnableReconnect(userID string) {
	c.reconnect.mu.Lock()
	defer c.reconnect.mu.Unlock()
	c.reconnect.enabled = true
	c.reconnect.userID = userID
}

func (r *reconnectState) disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

func (r *reconnectState) rememberRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomID = roomID
}

func (r *reconnectState) forgetRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roomID == roomID {
		r.roomID = ""
	}
}

// begin 判断是否应开始重连
func (r *reconnectState) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled || r.active {
		return false
	}
	r.active = true
	return true
}

func (r *reconnectState) end() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
}

func (r *reconnectState) snapshot() (roomID, userID string, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	interval = r.interval
	if interval == 0 {
		interval = reconnectInterval
	}
	return r.roomID, r.userID, interval
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	c.reconnect.mu.Lock()
	defer c.reconnect.mu.Unlock()
	return c.reconnect.active
}

// handleReadExit 读协程退出：已关闭的连接不再重连
func (c *Client) handleReadExit(done chan struct{}) {
	select {
	case <-done:
		c.notifyClose()
		return
	default:
	}

	if c.reconnect.begin() {
		go c.tryReconnect()
		return
	}
	c.Close()
	c.notifyClose()
}

func (c *Client) notifyClose() {
	if c.OnClose != nil {
		c.OnClose()
	}
}

// tryReconnect 尝试重连并重新加入房间
func (c *Client) tryReconnect() {
	defer c.reconnect.end()

	roomID, userID, interval := c.reconnect.snapshot()
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		log.Infof("🔄 尝试重连 (%d/%d)...", attempt, maxReconnectAttempts)
		time.Sleep(interval)

		conn, err := dial(c.ServerURL)
		if err != nil {
			log.Warnf("重连失败: %v", err)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		// 旧写协程随旧 done 退出
		close(c.done)
		c.conn = conn
		c.send = make(chan []byte, sendBufferSize)
		c.done = make(chan struct{})
		send, done := c.send, c.done
		c.mu.Unlock()

		go c.readPump(conn, done)
		go c.writePump(conn, send, done)

		if roomID != "" {
			if err := c.JoinRoom(roomID, userID); err != nil {
				log.Warnf("重新加入房间失败: %v", err)
			}
		}

		log.Info("✅ 重连成功")
		if c.OnReconnect != nil {
			c.OnReconnect()
		}
		return
	}

	log.Warn("❌ 重连失败，已达最大尝试次数")
	c.Close()
	c.notifyClose()
}

// ReconnectRoom 重连后会重新加入的房间
func (c *Client) ReconnectRoom() string {
	roomID, _, _ := c.reconnect.snapshot()
	return roomID
}
