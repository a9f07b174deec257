package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/sokoban-online/internal/client"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/sound"
)

const (
	maxChatHistory    = 8
	notificationDelay = 3 * time.Second
	leaderboardLimit  = 10
)

// Options 客户端启动参数
type Options struct {
	ServerURL string
	UserID    string       // 为空时使用服务端分配的昵称
	Format    codec.Format // 线上帧格式
	Sound     bool
}

// Model 客户端主模型
type Model struct {
	client *client.Client
	phase  Phase

	userID   string
	userName string
	latency  int64

	reconnectChan chan tea.Msg
	notifications map[NotificationType]*Notification

	// 大厅
	rooms        []protocol.RoomListItem
	selectedRoom int
	levels       []protocol.LevelInfo
	onlineCount  int
	leaderboard  []protocol.LeaderboardEntry
	stats        *protocol.StatsResultPayload

	// 房间
	game        *client.GameState
	chatHistory []string
	chatting    bool
	celebrated  bool

	input     textinput.Model
	chatInput textinput.Model

	sound        *sound.SoundManager
	soundEnabled bool

	width  int
	height int
}

// NewModel 创建客户端模型
func NewModel(opts Options) *Model {
	ti := textinput.New()
	ti.CharLimit = 80
	ti.Width = 40

	ci := textinput.New()
	ci.Placeholder = "说点什么..."
	ci.CharLimit = 200
	ci.Width = 40

	c := client.NewClient(opts.ServerURL)
	c.Format = opts.Format
	reconnectChan := make(chan tea.Msg, 10)

	m := &Model{
		client:        c,
		phase:         PhaseConnecting,
		userID:        opts.UserID,
		reconnectChan: reconnectChan,
		notifications: make(map[NotificationType]*Notification),
		game:          client.NewGameState(),
		input:         ti,
		chatInput:     ci,
		sound:         sound.NewSoundManager(),
		soundEnabled:  opts.Sound,
	}

	c.OnReconnect = func() {
		select {
		case reconnectChan <- ReconnectSuccessMsg{}:
		default:
		}
	}
	c.OnLatencyUpdate = func(ms int64) {
		select {
		case reconnectChan <- latencyMsg(ms):
		default:
		}
	}

	return m
}

type latencyMsg int64

func (m *Model) Init() tea.Cmd {
	if m.soundEnabled {
		go func() {
			_ = m.sound.Init()
		}()
	}

	return tea.Batch(
		m.connectToServer(),
		textinput.Blink,
		m.listenForEvents(),
	)
}

func (m *Model) connectToServer() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Connect(); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

func (m *Model) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.client.Receive()
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ServerMessage{Msg: msg}
	}
}

// listenForEvents 客户端回调转发的事件
func (m *Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		return <-m.reconnectChan
	}
}

func clearAfter(t NotificationType) tea.Cmd {
	return tea.Tick(notificationDelay, func(time.Time) tea.Msg {
		return clearNotificationMsg{Type: t}
	})
}

// notify 设置通知，临时通知会在稍后清除
func (m *Model) notify(t NotificationType, message string, temporary bool) tea.Cmd {
	m.notifications[t] = &Notification{Message: message, Type: t, Temporary: temporary}
	if temporary {
		return clearAfter(t)
	}
	return nil
}

// currentNotification 按优先级返回通知
func (m *Model) currentNotification() *Notification {
	for _, t := range []NotificationType{NotifyError, NotifyReconnecting, NotifyInfo} {
		if n, ok := m.notifications[t]; ok {
			return n
		}
	}
	return nil
}

func (m *Model) playSound(name string) {
	if m.soundEnabled {
		m.sound.Play(name)
	}
}

// enterLobby 回到大厅并刷新列表
func (m *Model) enterLobby() {
	m.phase = PhaseLobby
	m.chatting = false
	m.chatHistory = nil
	m.game.Reset()
	m.input.Reset()
	m.input.Blur()
	m.chatInput.Blur()
	_ = m.client.GetRoomList()
	_ = m.client.GetLevelList()
	_ = m.client.GetOnlineCount()
}

// Update 处理 tea 消息
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ConnectedMsg:
		m.client.StartHeartbeat()
		cmds = append(cmds, m.listenForMessages())

	case ConnectionErrorMsg:
		if m.client.IsReconnecting() {
			cmds = append(cmds,
				m.notify(NotifyReconnecting, "🔄 连接断开，正在重连...", false),
				tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg { return relistenMsg{} }),
			)
			break
		}
		if m.phase == PhaseConnecting {
			m.notify(NotifyError, fmt.Sprintf("无法连接到服务器: %v\n\n按 ESC 退出", msg.Err), false)
		} else {
			m.notify(NotifyError, "连接已断开，按 ESC 退出", false)
		}

	case relistenMsg:
		if m.client.IsReconnecting() {
			cmds = append(cmds, tea.Tick(500*time.Millisecond, func(time.Time) tea.Msg { return relistenMsg{} }))
		} else if m.client.IsConnected() {
			cmds = append(cmds, m.listenForMessages())
		} else {
			delete(m.notifications, NotifyReconnecting)
			m.notify(NotifyError, "❌ 重连失败，按 Ctrl+C 退出", false)
		}

	case ReconnectSuccessMsg:
		delete(m.notifications, NotifyReconnecting)
		cmds = append(cmds, m.notify(NotifyInfo, "✅ 重连成功！", true), m.listenForEvents())

	case latencyMsg:
		m.latency = int64(msg)
		cmds = append(cmds, m.listenForEvents())

	case clearNotificationMsg:
		if n, ok := m.notifications[msg.Type]; ok && n.Temporary {
			delete(m.notifications, msg.Type)
		}

	case ServerMessage:
		cmds = append(cmds, m.handleServerMessage(msg.Msg))
		if m.client.IsConnected() {
			cmds = append(cmds, m.listenForMessages())
		}

	case tea.KeyMsg:
		handled, cmd := m.handleKey(msg)
		cmds = append(cmds, cmd)
		if handled {
			return m, tea.Batch(cmds...)
		}
	}

	var cmd tea.Cmd
	if m.chatting {
		m.chatInput, cmd = m.chatInput.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Close 退出时释放连接与音频
func (m *Model) Close() {
	m.client.Close()
	m.sound.Close()
}
