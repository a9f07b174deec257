package ui

import (
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/sound"
)

// handleServerMessage 处理服务端消息
func (m *Model) handleServerMessage(msg *protocol.Message) tea.Cmd {
	switch msg.Type {
	case protocol.MsgConnected:
		return handle(msg, m.onConnected)
	case protocol.MsgPong:
		// 延迟由客户端回调更新
	case protocol.MsgOnlineCount:
		return handle(msg, func(p *protocol.OnlineCountPayload) tea.Cmd {
			m.onlineCount = p.Count
			return nil
		})
	case protocol.MsgRoomListResult:
		return handle(msg, func(p *protocol.RoomListResultPayload) tea.Cmd {
			m.rooms = p.Rooms
			m.clampSelection()
			return nil
		})
	case protocol.MsgLevelListResult:
		return handle(msg, func(p *protocol.LevelListResultPayload) tea.Cmd {
			m.levels = p.Levels
			return nil
		})
	case protocol.MsgRoomCreated:
		return handle(msg, m.onRoomCreated)
	case protocol.MsgPlayersInUpdated:
		return handle(msg, m.onPlayersInUpdated)
	case protocol.MsgRoomDeleted:
		return handle(msg, m.onRoomDeleted)
	case protocol.MsgGameState:
		return handle(msg, m.onGameState)
	case protocol.MsgPlayerJoined:
		return handle(msg, func(p *protocol.PlayerJoinedPayload) tea.Cmd {
			m.game.ApplyPlayerJoined(p)
			m.addChat(fmt.Sprintf("📥 %s 加入了房间", p.UserID))
			m.playSound(sound.Join)
			return nil
		})
	case protocol.MsgPlayerLeft:
		return handle(msg, func(p *protocol.PlayerLeftPayload) tea.Cmd {
			m.game.ApplyPlayerLeft(p)
			m.addChat(fmt.Sprintf("📤 %s 离开了房间", p.UserID))
			return nil
		})
	case protocol.MsgOwnerChanged:
		return handle(msg, func(p *protocol.OwnerChangedPayload) tea.Cmd {
			m.game.ApplyOwnerChanged(p)
			m.addChat(fmt.Sprintf("👑 %s 成为房主", p.UserID))
			return nil
		})
	case protocol.MsgGameEnabled:
		return handle(msg, func(p *protocol.GameEnabledPayload) tea.Cmd {
			m.game.ApplyGameEnabled(p)
			return m.notify(NotifyInfo, "🎮 玩家已到齐，开始推箱子！", true)
		})
	case protocol.MsgActionResult:
		return handle(msg, func(p *protocol.ActionResultPayload) tea.Cmd {
			if m.game.ApplyActionResult(p) {
				m.playSound(sound.Bump)
				return m.notify(NotifyInfo, "↩️ 已与服务器同步", true)
			}
			return nil
		})
	case protocol.MsgMoveApplied:
		return handle(msg, func(p *protocol.MoveAppliedPayload) tea.Cmd {
			m.game.ApplyMoveApplied(p)
			return nil
		})
	case protocol.MsgSolved:
		return handle(msg, func(p *protocol.SolvedPayload) tea.Cmd {
			m.game.ApplySolved(p)
			// 完成后的每步移动都会再收到 solved，只庆祝一次
			if m.celebrated {
				return nil
			}
			m.celebrated = true
			m.playSound(sound.Solved)
			return m.notify(NotifyInfo, "🎉 关卡完成！按 R 重新开始", true)
		})
	case protocol.MsgRestarted:
		return handle(msg, func(p *protocol.RestartedPayload) tea.Cmd {
			m.game.ApplyRestarted(p)
			m.celebrated = false
			return m.notify(NotifyInfo, "🔁 关卡已重置", true)
		})
	case protocol.MsgChat:
		return handle(msg, func(p *protocol.ChatPayload) tea.Cmd {
			m.addChat(fmt.Sprintf("[%s] %s: %s", time.UnixMilli(p.Time).Format("15:04"), p.SenderID, p.Content))
			return nil
		})
	case protocol.MsgStatsResult:
		return handle(msg, func(p *protocol.StatsResultPayload) tea.Cmd {
			m.stats = p
			return nil
		})
	case protocol.MsgLeaderboardResult:
		return handle(msg, func(p *protocol.LeaderboardResultPayload) tea.Cmd {
			m.leaderboard = p.Entries
			return nil
		})
	case protocol.MsgError:
		return handle(msg, m.onError)
	default:
		log.Debugf("未处理的消息类型: %s", msg.Type)
	}
	return nil
}

// handle 解析 payload 后交给处理函数
func handle[T any](msg *protocol.Message, fn func(*T) tea.Cmd) tea.Cmd {
	payload, err := codec.ParsePayload[T](msg)
	if err != nil {
		log.Debugf("解析 %s 失败: %v", msg.Type, err)
		return nil
	}
	return fn(payload)
}

func (m *Model) onConnected(p *protocol.ConnectedPayload) tea.Cmd {
	m.userName = p.UserName
	if m.userID == "" {
		m.userID = p.UserName
	}
	// 断线后以同一 userID 重新加入房间
	m.client.EnableReconnect(m.userID)
	delete(m.notifications, NotifyError)

	if m.phase == PhaseConnecting {
		m.enterLobby()
	}
	return nil
}

func (m *Model) onRoomCreated(p *protocol.RoomCreatedPayload) tea.Cmd {
	idx := slices.IndexFunc(m.rooms, func(r protocol.RoomListItem) bool { return r.RoomID == p.Room.RoomID })
	if idx >= 0 {
		m.rooms[idx] = p.Room
	} else {
		m.rooms = append(m.rooms, p.Room)
	}
	return nil
}

func (m *Model) onPlayersInUpdated(p *protocol.PlayersInUpdatedPayload) tea.Cmd {
	for i := range m.rooms {
		if m.rooms[i].RoomID == p.RoomID {
			m.rooms[i].PlayersIn = p.PlayersIn
			m.rooms[i].AllPlayers = p.AllPlayers
		}
	}
	return nil
}

func (m *Model) onRoomDeleted(p *protocol.RoomDeletedPayload) tea.Cmd {
	m.rooms = slices.DeleteFunc(m.rooms, func(r protocol.RoomListItem) bool { return r.RoomID == p.RoomID })
	m.clampSelection()

	if m.phase == PhaseRoom && m.game.RoomID == p.RoomID {
		m.enterLobby()
		return m.notify(NotifyError, "房间已被删除", true)
	}
	return nil
}

func (m *Model) onGameState(p *protocol.GameStatePayload) tea.Cmd {
	m.game.ApplyGameState(p)
	m.celebrated = m.game.Solved
	m.phase = PhaseRoom
	m.input.Blur()
	m.chatting = false
	if !p.Enabled {
		return m.notify(NotifyInfo, "⏳ 等待其他玩家加入...", false)
	}
	delete(m.notifications, NotifyInfo)
	return nil
}

func (m *Model) onError(p *protocol.ErrorPayload) tea.Cmd {
	text := p.Message
	if text == "" {
		text = protocol.ErrorMessages[p.Code]
	}
	return m.notify(NotifyError, fmt.Sprintf("⚠️ %s", text), true)
}

func (m *Model) addChat(line string) {
	m.chatHistory = append(m.chatHistory, line)
	if len(m.chatHistory) > maxChatHistory {
		m.chatHistory = m.chatHistory[len(m.chatHistory)-maxChatHistory:]
	}
}

func (m *Model) clampSelection() {
	if m.selectedRoom >= len(m.rooms) {
		m.selectedRoom = len(m.rooms) - 1
	}
	if m.selectedRoom < 0 {
		m.selectedRoom = 0
	}
}
