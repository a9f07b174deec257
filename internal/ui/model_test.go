package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sokoban-online/internal/game/board"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel(Options{ServerURL: "ws://127.0.0.1:1/ws"})
	t.Cleanup(m.Close)
	m.width, m.height = 120, 40
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		ConnectionID: "c1",
		UserName:     "勤劳的搬运工",
	}))
	return m
}

func sideBySideState(enabled bool) protocol.GameStatePayload {
	var walls []protocol.PositionInfo
	for x := range 7 {
		walls = append(walls, protocol.PositionInfo{X: x, Y: 0}, protocol.PositionInfo{X: x, Y: 2})
	}
	walls = append(walls, protocol.PositionInfo{X: 0, Y: 1}, protocol.PositionInfo{X: 6, Y: 1})
	return protocol.GameStatePayload{
		RoomID:  "r1",
		LevelID: 1,
		Slot:    0,
		OwnerID: "c1",
		Enabled: enabled,
		Width:   7,
		Height:  3,
		Walls:   walls,
		Goals:   []protocol.PositionInfo{{X: 3, Y: 1}},
		Blocks:  []protocol.PositionInfo{{X: 2, Y: 1}},
		Players: []protocol.PlayerState{
			{ID: 0, Position: protocol.PositionInfo{X: 1, Y: 1}},
			{ID: 1, Position: protocol.PositionInfo{X: 5, Y: 1}},
		},
		Members: []protocol.MemberInfo{{UserID: "勤劳的搬运工", Slot: 0, IsOwner: true}},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ConnectedEntersLobby(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, PhaseLobby, m.phase)
	assert.Equal(t, "勤劳的搬运工", m.userName)
	assert.Equal(t, "勤劳的搬运工", m.userID)
}

func TestModel_ExplicitUserIDKept(t *testing.T) {
	m := NewModel(Options{ServerURL: "ws://127.0.0.1:1/ws", UserID: "alice"})
	t.Cleanup(m.Close)
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{UserName: "x"}))
	assert.Equal(t, "alice", m.userID)
}

func TestModel_RoomDirectory(t *testing.T) {
	m := newTestModel(t)

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgRoomListResult, protocol.RoomListResultPayload{
		Rooms: []protocol.RoomListItem{
			{RoomID: "r1", RoomName: "one", AllPlayers: 2, PlayersIn: 1},
			{RoomID: "r2", RoomName: "two", AllPlayers: 1, PlayersIn: 1},
		},
	}))
	require.Len(t, m.rooms, 2)

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		Room: protocol.RoomListItem{RoomID: "r3", RoomName: "three", AllPlayers: 3},
	}))
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgPlayersInUpdated, protocol.PlayersInUpdatedPayload{
		RoomID: "r1", PlayersIn: 2, AllPlayers: 2,
	}))
	assert.Len(t, m.rooms, 3)
	assert.Equal(t, 2, m.rooms[0].PlayersIn)

	m.Update(key("down"))
	m.Update(key("down"))
	m.Update(key("down"))
	assert.Equal(t, 2, m.selectedRoom)

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgRoomDeleted, protocol.RoomDeletedPayload{RoomID: "r3"}))
	assert.Len(t, m.rooms, 2)
	assert.Equal(t, 1, m.selectedRoom)

	view := m.View()
	assert.Contains(t, view, "one")
	assert.NotContains(t, view, "three")
}

func TestModel_CreateRoomForm(t *testing.T) {
	m := newTestModel(t)

	m.Update(key("c"))
	assert.Equal(t, PhaseCreateRoom, m.phase)

	m.Update(key("abc"))
	m.Update(key("enter"))
	assert.Contains(t, m.currentNotification().Message, "关卡号")

	m.Update(key("esc"))
	assert.Equal(t, PhaseLobby, m.phase)
}

func TestParseCreateInput(t *testing.T) {
	tests := []struct {
		input     string
		wantLevel int
		wantName  string
		wantErr   bool
	}{
		{input: "1 一起推", wantLevel: 1, wantName: "一起推"},
		{input: "0", wantLevel: 0, wantName: "bob 的仓库"},
		{input: "2  big   room ", wantLevel: 2, wantName: "big room"},
		{input: "x room", wantErr: true},
		{input: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, name, err := parseCreateInput(tt.input, "bob")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestModel_PlayFlow(t *testing.T) {
	m := newTestModel(t)

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgGameState, sideBySideState(false)))
	require.Equal(t, PhaseRoom, m.phase)
	assert.Contains(t, m.currentNotification().Message, "等待")

	// 未满员时不移动
	m.Update(key("right"))
	assert.Equal(t, board.Position{X: 1, Y: 1}, m.game.Board.Players[0].Position)

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		UserID: "bob", Player: protocol.PlayerState{ID: 1},
	}))
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgGameEnabled, protocol.GameEnabledPayload{RoomID: "r1"}))
	assert.True(t, m.game.Enabled)
	assert.Len(t, m.chatHistory, 1)

	m.Update(key("d"))
	assert.Equal(t, board.Position{X: 2, Y: 1}, m.game.Board.Players[0].Position)
	assert.True(t, m.game.Solved)

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgActionResult, protocol.ActionResultPayload{
		Action: "right", Synchronized: true,
	}))
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgSolved, protocol.SolvedPayload{RoomID: "r1"}))
	assert.True(t, m.celebrated)
	assert.Contains(t, m.View(), "已完成")

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgRestarted, protocol.RestartedPayload{
		RoomID:  "r1",
		Blocks:  []protocol.PositionInfo{{X: 2, Y: 1}},
		Players: sideBySideState(true).Players,
	}))
	assert.False(t, m.celebrated)
	assert.False(t, m.game.Solved)
}

func TestModel_ResyncOnRejectedClaim(t *testing.T) {
	m := newTestModel(t)
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgGameState, sideBySideState(true)))

	m.Update(key("right"))
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgActionResult, protocol.ActionResultPayload{
		Action:  "right",
		Blocks:  []protocol.PositionInfo{{X: 2, Y: 1}},
		Players: sideBySideState(true).Players,
	}))

	assert.Equal(t, 1, m.game.Resyncs)
	assert.Equal(t, board.Position{X: 1, Y: 1}, m.game.Board.Players[0].Position)
	assert.Contains(t, m.currentNotification().Message, "同步")
}

func TestModel_RoomDeletedReturnsToLobby(t *testing.T) {
	m := newTestModel(t)
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgGameState, sideBySideState(true)))

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgRoomDeleted, protocol.RoomDeletedPayload{RoomID: "r1"}))
	assert.Equal(t, PhaseLobby, m.phase)
	assert.False(t, m.game.InRoom())
	assert.Equal(t, NotifyError, m.currentNotification().Type)
}

func TestModel_ChatAndErrors(t *testing.T) {
	m := newTestModel(t)
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgGameState, sideBySideState(true)))

	m.Update(key("t"))
	assert.True(t, m.chatting)
	m.Update(key("hi"))
	assert.Equal(t, "hi", m.chatInput.Value())
	m.Update(key("enter"))
	assert.False(t, m.chatting)

	m.handleServerMessage(codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{
		SenderID: "bob", Content: "推这边", Time: 1,
	}))
	require.NotEmpty(t, m.chatHistory)
	assert.Contains(t, m.chatHistory[len(m.chatHistory)-1], "bob: 推这边")

	m.handleServerMessage(codec.NewErrorMessage(protocol.ErrCodeRoomFull))
	assert.Contains(t, m.currentNotification().Message, "房间已满")

	m.Update(clearNotificationMsg{Type: NotifyError})
	assert.NotContains(t, m.notifications, NotifyError)

	m.Update(key("q"))
	assert.Equal(t, PhaseLobby, m.phase)
}

func TestModel_StatsAndLeaderboard(t *testing.T) {
	m := newTestModel(t)

	m.Update(key("l"))
	assert.Equal(t, PhaseLeaderboard, m.phase)
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Entries: []protocol.LeaderboardEntry{{Rank: 1, UserID: "alice", Solved: 3, Moves: 42}},
	}))
	assert.Contains(t, m.View(), "alice")
	m.Update(key("esc"))
	assert.Equal(t, PhaseLobby, m.phase)

	m.Update(key("p"))
	assert.Equal(t, PhaseStats, m.phase)
	m.handleServerMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
		UserID: "勤劳的搬运工", Solved: 2, Rank: 5, LevelsSolved: []int{0, 1},
	}))
	assert.Contains(t, m.View(), "排名: 5")
}
