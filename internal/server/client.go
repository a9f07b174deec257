package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/logger"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/types"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 8192

	// 发送缓冲
	sendBufferSize = 256

	// 超速警告次数上限，超过后断开
	maxRateWarnings = 5
)

// frame 待发送的帧
type frame struct {
	kind int // websocket.TextMessage / websocket.BinaryMessage
	data []byte
}

// Client 代表一个 WebSocket 连接
type Client struct {
	ID   string // 连接 ID（UUIDv7，按连接时间递增）
	Name string // 随机昵称
	IP   string

	server *Server
	conn   *websocket.Conn
	send   chan frame

	// 回复使用最近一次收到的帧格式
	format atomic.Int32

	mu     sync.RWMutex
	roomID string
	closed bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		ID:     uuid.Must(uuid.NewV7()).String(),
		Name:   GenerateNickname(),
		server: s,
		conn:   conn,
		send:   make(chan frame, sendBufferSize),
	}
}

// ReadPump 从 WebSocket 读取消息
func (c *Client) ReadPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debugf("读取错误: %v", err)
			}
			return
		}

		format := codec.FormatJSON
		if kind == websocket.BinaryMessage {
			format = codec.FormatProtobuf
		}
		c.format.Store(int32(format))

		allowed, warning := c.server.messageLimiter.AllowMessage(c.ID)
		if !allowed {
			log.Warnf("⚠️ 客户端 %s (IP: %s) 消息过于频繁", c.Name, c.IP)
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
			if c.server.messageLimiter.GetWarningCount(c.ID) > maxRateWarnings {
				log.Warnf("🚫 客户端 %s 因多次超速被断开连接", c.Name)
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "请求过于频繁，请放慢速度"))
		}

		msg, err := codec.Decode(data, format)
		if err != nil {
			log.Debugf("消息解析错误: %v", err)
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.dispatch(c, msg)
	}
}

// dispatch 处理完毕后将消息归还对象池，处理器不会在返回后持有消息
func (s *Server) dispatch(client types.ClientInterface, msg *protocol.Message) {
	defer codec.PutMessage(msg)
	s.handler.Handle(client, msg)
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(f.kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 按连接当前的帧格式发送消息
func (c *Client) SendMessage(msg *protocol.Message) {
	format := codec.Format(c.format.Load())
	data, err := codec.Encode(msg, format)
	if err != nil {
		log.Errorf("消息编码错误: %v", err)
		return
	}
	kind := websocket.TextMessage
	if format == codec.FormatProtobuf {
		kind = websocket.BinaryMessage
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- frame{kind: kind, data: data}:
	default:
		// 慢消费者：异步关闭，避免在持有房间锁时阻塞
		log.Warnf("客户端 %s 发送缓冲区已满", c.ID)
		go c.Close()
	}
}

// handleDisconnect 处理断开连接
func (c *Client) handleDisconnect() {
	c.server.roomManager.LeaveRoom(c)
	c.server.messageLimiter.RemoveClient(c.ID)
	c.server.chatLimiter.RemoveClient(c.ID)
	c.server.unregisterClient(c)
	c.Close()
}

// Close 关闭发送通道，WritePump 随后关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) GetID() string   { return c.ID }
func (c *Client) GetName() string { return c.Name }

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}
