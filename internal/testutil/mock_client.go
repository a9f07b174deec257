//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/sokoban-online/internal/protocol"
)

// MockClient 实现 types.ClientInterface 的 mock
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) GetRoom() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockClient) SetRoom(roomID string) {
	m.Called(roomID)
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.Called(msg)
}

func (m *MockClient) Close() {
	m.Called()
}

// SimpleClient 简单的 mock 客户端，不使用 testify，记录收到的消息
//
// 房间的宽限定时器在独立 goroutine 中广播，所以这里加锁。
type SimpleClient struct {
	ID   string
	Name string

	mu       sync.Mutex
	roomID   string
	messages []*protocol.Message
	closed   bool
}

// NewSimpleClient 创建简单客户端
func NewSimpleClient(id, name string) *SimpleClient {
	return &SimpleClient{ID: id, Name: name}
}

func (m *SimpleClient) GetID() string   { return m.ID }
func (m *SimpleClient) GetName() string { return m.Name }

func (m *SimpleClient) GetRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

func (m *SimpleClient) SetRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomID = roomID
}

func (m *SimpleClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *SimpleClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// IsClosed 是否已关闭
func (m *SimpleClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SentMessages 返回收到的所有消息副本
func (m *SimpleClient) SentMessages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*protocol.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// MessagesOfType 返回指定类型的消息
func (m *SimpleClient) MessagesOfType(t protocol.MessageType) []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*protocol.Message
	for _, msg := range m.messages {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

// Types 按顺序返回收到的消息类型
func (m *SimpleClient) Types() []protocol.MessageType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]protocol.MessageType, len(m.messages))
	for i, msg := range m.messages {
		out[i] = msg.Type
	}
	return out
}

// LastMessage 返回最后一条消息，没有时返回 nil
func (m *SimpleClient) LastMessage() *protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// Reset 清空已记录的消息
func (m *SimpleClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
