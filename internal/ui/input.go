package ui

import (
	"errors"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/sokoban-online/internal/client"
	"github.com/palemoky/sokoban-online/internal/game/rule"
	"github.com/palemoky/sokoban-online/internal/sound"
)

// moveKeys 方向键与 WASD
var moveKeys = map[string]string{
	"up": "up", "w": "up",
	"down": "down", "s": "down",
	"left": "left", "a": "left",
	"right": "right", "d": "right",
}

// handleKey 处理按键，返回是否已处理（已处理的按键不再交给输入框）
func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.Close()
		return true, tea.Quit
	}

	switch m.phase {
	case PhaseConnecting:
		if msg.Type == tea.KeyEsc {
			m.Close()
			return true, tea.Quit
		}
		return true, nil
	case PhaseLobby:
		return m.handleLobbyKey(msg)
	case PhaseCreateRoom, PhaseJoinRoom:
		return m.handleFormKey(msg)
	case PhaseRoom:
		if m.chatting {
			return m.handleChatKey(msg)
		}
		return m.handleRoomKey(msg)
	case PhaseLeaderboard, PhaseStats:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			m.phase = PhaseLobby
		}
		return true, nil
	}
	return false, nil
}

func (m *Model) handleLobbyKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.Close()
		return true, tea.Quit
	case "up", "k":
		if m.selectedRoom > 0 {
			m.selectedRoom--
		}
	case "down", "j":
		if m.selectedRoom < len(m.rooms)-1 {
			m.selectedRoom++
		}
	case "enter":
		if len(m.rooms) > 0 {
			_ = m.client.JoinRoom(m.rooms[m.selectedRoom].RoomID, m.userID)
		}
	case "c":
		m.openForm(PhaseCreateRoom, "关卡号 房间名，如: 1 一起推")
	case "i":
		m.openForm(PhaseJoinRoom, "输入房间号")
	case "r":
		_ = m.client.GetRoomList()
		_ = m.client.GetLevelList()
		_ = m.client.GetOnlineCount()
	case "l":
		m.phase = PhaseLeaderboard
		_ = m.client.GetLeaderboard(leaderboardLimit)
	case "p":
		m.phase = PhaseStats
		_ = m.client.GetStats(m.userID)
	}
	return true, nil
}

func (m *Model) openForm(phase Phase, placeholder string) {
	m.phase = phase
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.Focus()
}

// handleFormKey 创建/加入房间的输入框
func (m *Model) handleFormKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.phase = PhaseLobby
		return true, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return true, nil
		}
		if m.phase == PhaseJoinRoom {
			_ = m.client.JoinRoom(value, m.userID)
		} else {
			levelID, name, err := parseCreateInput(value, m.userName)
			if err != nil {
				return true, m.notify(NotifyError, "格式: 关卡号 房间名", true)
			}
			_ = m.client.CreateRoom(name, "", levelID, m.userID)
		}
		m.input.Reset()
		return true, nil
	}
	return false, nil
}

// parseCreateInput 解析 "关卡号 [房间名]"
func parseCreateInput(value, userName string) (int, string, error) {
	fields := strings.Fields(value)
	levelID, err := strconv.Atoi(fields[0])
	if err != nil || levelID < 0 {
		return 0, "", errors.New("invalid level id")
	}
	name := strings.Join(fields[1:], " ")
	if name == "" {
		name = userName + " 的仓库"
	}
	return levelID, name, nil
}

func (m *Model) handleRoomKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()
	if action, ok := moveKeys[key]; ok {
		return true, m.move(action)
	}

	switch key {
	case "esc", "q":
		_ = m.client.LeaveRoom()
		m.enterLobby()
	case "r":
		_ = m.client.Restart()
	case "t", "enter":
		m.chatting = true
		m.chatInput.Reset()
		m.chatInput.Focus()
	}
	return true, nil
}

// move 本地预测后提交动作
func (m *Model) move(action string) tea.Cmd {
	claim, result, err := m.game.Predict(action)
	switch {
	case errors.Is(err, client.ErrNotEnabled):
		return m.notify(NotifyInfo, "⏳ 玩家尚未到齐", true)
	case err != nil:
		return nil
	}

	switch {
	case !result.Applied:
		m.playSound(sound.Bump)
	case pushedBlock(result):
		m.playSound(sound.Push)
	default:
		m.playSound(sound.Step)
	}

	_ = m.client.ExecuteAction(claim)
	return nil
}

func pushedBlock(result rule.Result) bool {
	for _, c := range result.Changes {
		if c.Kind == rule.KindBlock {
			return true
		}
	}
	return false
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.chatting = false
		m.chatInput.Blur()
		return true, nil
	case tea.KeyEnter:
		if content := strings.TrimSpace(m.chatInput.Value()); content != "" {
			_ = m.client.Chat(content)
		}
		m.chatting = false
		m.chatInput.Reset()
		m.chatInput.Blur()
		return true, nil
	}
	return false, nil
}
