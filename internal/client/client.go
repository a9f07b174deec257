package client

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/logger"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 心跳检测间隔
	heartbeatInterval = 5 * time.Second

	sendBufferSize = 256
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
	ErrTimeout    = errors.New("receive timeout")
)

// Client WebSocket 客户端
type Client struct {
	ServerURL string
	Format    codec.Format // 发送使用的帧格式，服务端会按同一格式回复

	conn    *websocket.Conn
	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	ConnectionID string
	UserName     string

	latency atomic.Int64

	// 回调（在读协程中调用）
	OnMessage       func(*protocol.Message)
	OnError         func(error)
	OnClose         func()
	OnReconnect     func()
	OnLatencyUpdate func(int64)

	mu     sync.RWMutex
	closed bool

	reconnect reconnectState
}

// NewClient 创建客户端
func NewClient(serverURL string) *Client {
	return &Client{
		ServerURL: serverURL,
		send:      make(chan []byte, sendBufferSize),
		receive:   make(chan *protocol.Message, sendBufferSize),
		done:      make(chan struct{}),
	}
}

// Connect 连接服务器
func (c *Client) Connect() error {
	conn, err := dial(c.ServerURL)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	send, done := c.send, c.done
	c.mu.Unlock()

	go c.readPump(conn, done)
	go c.writePump(conn, send, done)
	return nil
}

func dial(url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// readPump 从服务器读取消息
func (c *Client) readPump(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.handleReadExit(done)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && c.OnError != nil {
				c.OnError(err)
			}
			return
		}

		format := codec.FormatJSON
		if kind == websocket.BinaryMessage {
			format = codec.FormatProtobuf
		}
		msg, err := codec.Decode(data, format)
		if err != nil {
			log.Debugf("消息解析错误: %v", err)
			continue
		}

		c.processMessage(msg)

		select {
		case c.receive <- msg:
		default:
		}
	}
}

// processMessage 处理连接相关的消息，然后交给回调
func (c *Client) processMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgConnected:
		if payload, err := codec.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
			c.mu.Lock()
			c.ConnectionID = payload.ConnectionID
			c.UserName = payload.UserName
			c.mu.Unlock()
		}
	case protocol.MsgPong:
		if payload, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
			latency := time.Now().UnixMilli() - payload.ClientTimestamp
			c.latency.Store(latency)
			if c.OnLatencyUpdate != nil {
				c.OnLatencyUpdate(latency)
			}
		}
	case protocol.MsgGameState:
		if payload, err := codec.ParsePayload[protocol.GameStatePayload](msg); err == nil {
			c.reconnect.rememberRoom(payload.RoomID)
		}
	case protocol.MsgRoomDeleted:
		if payload, err := codec.ParsePayload[protocol.RoomDeletedPayload](msg); err == nil {
			c.reconnect.forgetRoom(payload.RoomID)
		}
	}

	if c.OnMessage != nil {
		c.OnMessage(msg)
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump(conn *websocket.Conn, send chan []byte, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	kind := websocket.TextMessage
	if c.Format == codec.FormatProtobuf {
		kind = websocket.BinaryMessage
	}

	for {
		select {
		case message := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(kind, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	data, err := codec.Encode(msg, c.Format)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Receive 接收消息（阻塞）
func (c *Client) Receive() (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-c.doneChan():
		return nil, ErrClosed
	}
}

// ReceiveWithTimeout 带超时接收消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	case <-c.doneChan():
		return nil, ErrClosed
	}
}

func (c *Client) doneChan() chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.done
}

// Close 关闭连接，不再重连
func (c *Client) Close() {
	c.reconnect.disable()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

// StartHeartbeat 启动心跳（用于测量延迟）
func (c *Client) StartHeartbeat() {
	done := c.doneChan()
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.IsConnected() {
					_ = c.Ping()
				}
			case <-done:
				return
			}
		}
	}()
}

// Latency 最近一次测得的延迟（毫秒）
func (c *Client) Latency() int64 {
	return c.latency.Load()
}
