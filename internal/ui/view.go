package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/sokoban-online/internal/game/board"
)

// View 渲染界面
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string
	switch m.phase {
	case PhaseConnecting:
		content = m.connectingView()
	case PhaseLobby, PhaseCreateRoom, PhaseJoinRoom:
		content = m.lobbyView()
	case PhaseRoom:
		content = m.roomView()
	case PhaseLeaderboard:
		content = m.leaderboardView()
	case PhaseStats:
		content = m.statsView()
	}

	if n := m.currentNotification(); n != nil && m.phase != PhaseConnecting {
		content = renderNotification(n) + "\n\n" + content
	}
	return docStyle.Render(content)
}

func renderNotification(n *Notification) string {
	if n.Type == NotifyError {
		return errorStyle.Render(n.Message)
	}
	return infoStyle.Render(n.Message)
}

func (m *Model) connectingView() string {
	text := "正在连接服务器..."
	if n, ok := m.notifications[NotifyError]; ok {
		text = errorStyle.Render(n.Message)
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
}

func (m *Model) header() string {
	status := fmt.Sprintf("👤 %s  🌐 在线 %d", m.userName, m.onlineCount)
	if m.latency > 0 {
		status += fmt.Sprintf("  📶 %dms", m.latency)
	}
	return titleStyle.Render("📦 推箱子联机版") + "   " + dimStyle.Render(status)
}

func (m *Model) lobbyView() string {
	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n\n")

	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(m.roomListView()),
		"  ",
		boxStyle.Render(m.levelListView()),
	))

	switch m.phase {
	case PhaseCreateRoom:
		sb.WriteString(promptStyle.Render("\n创建房间: " + m.input.View()))
	case PhaseJoinRoom:
		sb.WriteString(promptStyle.Render("\n加入房间: " + m.input.View()))
	default:
		sb.WriteString(promptStyle.Render(dimStyle.Render(
			"\n↑/↓ 选择  Enter 加入  C 创建  I 输入房间号  R 刷新  L 排行榜  P 我的战绩  Q 退出")))
	}
	return sb.String()
}

func (m *Model) roomListView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("🏠 房间列表"))
	sb.WriteString("\n")
	if len(m.rooms) == 0 {
		sb.WriteString(dimStyle.Render("暂无房间，按 C 创建一个"))
		return sb.String()
	}
	for i, r := range m.rooms {
		line := fmt.Sprintf("%s  %-16s 关卡 %d  %d/%d", r.RoomID, r.RoomName, r.LevelID, r.PlayersIn, r.AllPlayers)
		if i == m.selectedRoom {
			sb.WriteString(selectedStyle.Render("▶ " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Model) levelListView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("🧩 关卡"))
	for _, l := range m.levels {
		fmt.Fprintf(&sb, "\n%2d  %-14s 👥%d  %dx%d", l.ID, l.Name, l.Players, l.Width, l.Height)
	}
	return sb.String()
}

func (m *Model) roomView() string {
	gs := m.game
	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n\n")

	status := fmt.Sprintf("房间 %s  关卡 %d  步数 %d", gs.RoomID, gs.LevelID, gs.Moves)
	switch {
	case gs.Solved:
		status += "  " + solvedStyle.Render("✔ 已完成")
	case !gs.Enabled:
		status += "  " + dimStyle.Render("等待玩家...")
	}
	sb.WriteString(status)
	sb.WriteString("\n")

	side := m.membersView()
	if len(m.chatHistory) > 0 {
		side += "\n\n" + strings.Join(m.chatHistory, "\n")
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		boxStyle.Render(RenderBoard(gs.Board, gs.Slot)),
		"  ",
		boxStyle.Render(side),
	))

	if m.chatting {
		sb.WriteString(promptStyle.Render("\n💬 " + m.chatInput.View()))
	} else {
		sb.WriteString(promptStyle.Render(dimStyle.Render("\n方向键/WASD 移动  R 重新开始  T 聊天  Q 离开房间")))
	}
	return sb.String()
}

func (m *Model) membersView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("👥 玩家"))
	for _, member := range m.game.Members {
		color := board.ColorForSlot(member.Slot)
		name := playerStyle(color, member.Slot == m.game.Slot).Render(fmt.Sprintf("%d %s", member.Slot, member.UserID))
		if member.IsOwner {
			name += " 👑"
		}
		sb.WriteString("\n" + name)
	}
	return sb.String()
}

// RenderBoard 渲染棋盘，self 为自己的槽位
func RenderBoard(b *board.Board, self int) string {
	if b == nil {
		return ""
	}

	var sb strings.Builder
	for y := range b.Height {
		for x := range b.Width {
			sb.WriteString(renderCell(b, board.Position{X: x, Y: y}, self))
		}
		if y < b.Height-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func renderCell(b *board.Board, p board.Position, self int) string {
	switch {
	case b.IsWall(p):
		return wallStyle.Render(cellWall)
	case b.IsBlock(p) && b.IsGoal(p):
		return blockOnGoalStyle.Render(cellBlockOnGoal)
	case b.IsBlock(p):
		return blockStyle.Render(cellBlock)
	}
	if player := b.PlayerAt(p); player != nil {
		return playerStyle(player.Color, player.ID == self).Render(fmt.Sprintf("%2d", player.ID))
	}
	if b.IsGoal(p) {
		return goalStyle.Render(cellGoal)
	}
	return cellFloor
}

func (m *Model) leaderboardView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("🏆 排行榜"))
	sb.WriteString("\n")
	if len(m.leaderboard) == 0 {
		sb.WriteString(dimStyle.Render("暂无数据"))
	}
	for _, e := range m.leaderboard {
		fmt.Fprintf(&sb, "\n%2d. %-20s 完成 %d  步数 %d", e.Rank, e.UserID, e.Solved, e.Moves)
	}
	sb.WriteString(promptStyle.Render(dimStyle.Render("\n按 ESC 返回大厅")))
	return boxStyle.Render(sb.String())
}

func (m *Model) statsView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("📊 我的战绩"))
	sb.WriteString("\n")
	if m.stats == nil {
		sb.WriteString(dimStyle.Render("加载中..."))
	} else {
		fmt.Fprintf(&sb, "\n玩家: %s\n完成次数: %d\n总步数: %d\n完成关卡: %v", m.stats.UserID, m.stats.Solved, m.stats.Moves, m.stats.LevelsSolved)
		if m.stats.Rank > 0 {
			fmt.Fprintf(&sb, "\n排名: %d", m.stats.Rank)
		}
	}
	sb.WriteString(promptStyle.Render(dimStyle.Render("\n按 ESC 返回大厅")))
	return boxStyle.Render(sb.String())
}
