//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/sokoban-online/internal/protocol"
)

// MockServer 实现 types.ServerInterface 的 mock
type MockServer struct {
	mock.Mock
}

func (m *MockServer) IsMaintenanceMode() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockServer) GetOnlineCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockServer) BroadcastToLobby(msg *protocol.Message) {
	m.Called(msg)
}

// RecordingLobby 记录大厅广播的 types.Broadcaster
type RecordingLobby struct {
	mu       sync.Mutex
	messages []*protocol.Message
}

func (l *RecordingLobby) BroadcastToLobby(msg *protocol.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

// MessagesOfType 返回指定类型的广播
func (l *RecordingLobby) MessagesOfType(t protocol.MessageType) []*protocol.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*protocol.Message
	for _, msg := range l.messages {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}
