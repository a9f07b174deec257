package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sokoban-online/internal/game/level"
	"github.com/palemoky/sokoban-online/internal/game/room"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/testutil"
)

var testLevels = room.StaticLoader{
	0: {"#####", "#0$.#", "#####"},
	1: {"#######", "#0$. 1#", "#######"},
}

type stubCatalog []level.Info

func (c stubCatalog) List() []level.Info { return c }

// newTestHandler 使用真实的房间管理器
func newTestHandler(t *testing.T, deps HandlerDeps) (*Handler, *room.RoomManager, *testutil.RecordingLobby) {
	t.Helper()
	lobby := &testutil.RecordingLobby{}
	rm := room.NewRoomManager(room.ManagerDeps{Levels: testLevels, Lobby: lobby, OwnerGrace: time.Hour})
	t.Cleanup(rm.Shutdown)

	deps.RoomManager = rm
	if deps.Server == nil {
		server := new(testutil.MockServer)
		server.On("IsMaintenanceMode").Return(false).Maybe()
		deps.Server = server
	}
	return NewHandler(deps), rm, lobby
}

func errorCode(t *testing.T, msg *protocol.Message) int {
	t.Helper()
	require.NotNil(t, msg)
	require.Equal(t, protocol.MsgError, msg.Type)
	payload, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	return payload.Code
}

func TestHandle_UnknownType(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t, HandlerDeps{})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, &protocol.Message{Type: "teleport"})
	assert.Equal(t, protocol.ErrCodeInvalidMsg, errorCode(t, c.LastMessage()))
}

func TestHandle_Ping(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t, HandlerDeps{})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{Timestamp: 42}))

	pong, err := codec.ParsePayload[protocol.PongPayload](c.LastMessage())
	require.NoError(t, err)
	assert.Equal(t, int64(42), pong.ClientTimestamp)
	assert.Positive(t, pong.ServerTimestamp)
}

func TestHandle_CreateRoom(t *testing.T) {
	t.Parallel()

	h, rm, lobby := newTestHandler(t, HandlerDeps{})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, codec.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{
		RoomName: "push", LevelID: 1, UserID: "alice",
	}))

	require.NotEmpty(t, c.GetRoom())
	assert.NotNil(t, rm.GetRoom(c.GetRoom()))
	assert.Len(t, c.MessagesOfType(protocol.MsgGameState), 1)
	assert.Len(t, lobby.MessagesOfType(protocol.MsgRoomCreated), 1)
}

func TestHandle_CreateRoom_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  any
		wantCode int
	}{
		{name: "missing name", payload: protocol.CreateRoomPayload{LevelID: 1}, wantCode: protocol.ErrCodeInvalidMsg},
		{name: "negative level", payload: protocol.CreateRoomPayload{RoomName: "x", LevelID: -1}, wantCode: protocol.ErrCodeInvalidMsg},
		{name: "unknown level", payload: protocol.CreateRoomPayload{RoomName: "x", LevelID: 7}, wantCode: protocol.ErrCodeLevelNotFound},
		{name: "bad json", payload: nil, wantCode: protocol.ErrCodeInvalidMsg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, rm, _ := newTestHandler(t, HandlerDeps{})
			c := testutil.NewSimpleClient("c1", "Alice")

			msg := codec.MustNewMessage(protocol.MsgCreateRoom, tt.payload)
			if tt.payload == nil {
				msg.Payload = []byte(`{"room_name":`)
			}
			h.Handle(c, msg)

			assert.Equal(t, tt.wantCode, errorCode(t, c.LastMessage()))
			assert.Zero(t, rm.RoomCount())
		})
	}
}

func TestHandle_Maintenance(t *testing.T) {
	t.Parallel()

	server := new(testutil.MockServer)
	server.On("IsMaintenanceMode").Return(true)
	h, rm, _ := newTestHandler(t, HandlerDeps{Server: server})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, codec.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomName: "x"}))
	assert.Equal(t, protocol.ErrCodeServerMaintenance, errorCode(t, c.LastMessage()))

	h.Handle(c, codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "abc"}))
	assert.Equal(t, protocol.ErrCodeServerMaintenance, errorCode(t, c.LastMessage()))
	assert.Zero(t, rm.RoomCount())
}

func TestHandle_JoinRoomErrors(t *testing.T) {
	t.Parallel()

	h, rm, _ := newTestHandler(t, HandlerDeps{})
	owner := testutil.NewSimpleClient("c1", "Alice")
	r, err := rm.CreateRoom(owner, room.CreateRoomRequest{Name: "solo", LevelID: 0})
	require.NoError(t, err)

	c := testutil.NewSimpleClient("c2", "Bob")
	h.Handle(c, codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: "missing"}))
	assert.Equal(t, protocol.ErrCodeRoomNotFound, errorCode(t, c.LastMessage()))

	h.Handle(c, codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: r.ID}))
	assert.Equal(t, protocol.ErrCodeRoomFull, errorCode(t, c.LastMessage()))

	h.Handle(c, codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{}))
	assert.Equal(t, protocol.ErrCodeInvalidMsg, errorCode(t, c.LastMessage()))
	assert.Empty(t, c.GetRoom())
}

func TestHandle_PlayFlow(t *testing.T) {
	t.Parallel()

	h, rm, _ := newTestHandler(t, HandlerDeps{})
	a := testutil.NewSimpleClient("c1", "Alice")
	b := testutil.NewSimpleClient("c2", "Bob")

	h.Handle(a, codec.MustNewMessage(protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomName: "duo", LevelID: 1}))
	roomID := a.GetRoom()

	// 人未到齐
	h.Handle(a, codec.MustNewMessage(protocol.MsgExecuteAction, protocol.ExecuteActionPayload{Action: "right"}))
	assert.Equal(t, protocol.ErrCodeGameNotEnabled, errorCode(t, a.LastMessage()))

	h.Handle(b, codec.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: roomID}))
	require.Equal(t, roomID, b.GetRoom())
	require.True(t, rm.GetRoom(roomID).Enabled())

	h.Handle(a, codec.MustNewMessage(protocol.MsgExecuteAction, protocol.ExecuteActionPayload{
		Action:  "right",
		Blocks:  []protocol.PositionInfo{{X: 3, Y: 1}},
		Players: []protocol.PlayerState{{ID: 0, Position: protocol.PositionInfo{X: 2, Y: 1}}, {ID: 1, Position: protocol.PositionInfo{X: 5, Y: 1}}},
	}))

	results := a.MessagesOfType(protocol.MsgActionResult)
	require.Len(t, results, 1)
	result, err := codec.ParsePayload[protocol.ActionResultPayload](results[0])
	require.NoError(t, err)
	assert.True(t, result.Synchronized)
	assert.Len(t, b.MessagesOfType(protocol.MsgMoveApplied), 1)
	assert.Len(t, b.MessagesOfType(protocol.MsgSolved), 1)

	h.Handle(b, codec.MustNewMessage(protocol.MsgExecuteAction, protocol.ExecuteActionPayload{Action: "fly"}))
	assert.Equal(t, protocol.ErrCodeUnknownAction, errorCode(t, b.LastMessage()))

	h.Handle(b, &protocol.Message{Type: protocol.MsgRestart})
	assert.Len(t, a.MessagesOfType(protocol.MsgRestarted), 1)

	h.Handle(b, &protocol.Message{Type: protocol.MsgLeaveRoom})
	assert.Empty(t, b.GetRoom())
	assert.Equal(t, 1, rm.GetRoom(roomID).ParticipantCount())
}

func TestHandle_RestartOutsideRoom(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t, HandlerDeps{})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, &protocol.Message{Type: protocol.MsgRestart})
	assert.Equal(t, protocol.ErrCodeNotInRoom, errorCode(t, c.LastMessage()))
}

func TestHandle_RoomAndLevelLists(t *testing.T) {
	t.Parallel()

	catalog := stubCatalog{{ID: 0, Name: "first", Players: 1, Width: 5, Height: 3}}
	h, rm, _ := newTestHandler(t, HandlerDeps{Levels: catalog})
	c := testutil.NewSimpleClient("c1", "Alice")
	_, err := rm.CreateRoom(testutil.NewSimpleClient("c9", "Zed"), room.CreateRoomRequest{Name: "open", LevelID: 1})
	require.NoError(t, err)

	h.Handle(c, &protocol.Message{Type: protocol.MsgGetRoomList})
	rooms, err := codec.ParsePayload[protocol.RoomListResultPayload](c.LastMessage())
	require.NoError(t, err)
	require.Len(t, rooms.Rooms, 1)
	assert.Equal(t, "open", rooms.Rooms[0].RoomName)
	assert.Equal(t, 1, rooms.Rooms[0].PlayersIn)
	assert.Equal(t, 2, rooms.Rooms[0].AllPlayers)

	h.Handle(c, &protocol.Message{Type: protocol.MsgGetLevelList})
	levels, err := codec.ParsePayload[protocol.LevelListResultPayload](c.LastMessage())
	require.NoError(t, err)
	assert.Equal(t, []protocol.LevelInfo{{ID: 0, Name: "first", Players: 1, Width: 5, Height: 3}}, levels.Levels)
}

func TestHandle_OnlineCount(t *testing.T) {
	t.Parallel()

	server := new(testutil.MockServer)
	server.On("GetOnlineCount").Return(7)
	h, _, _ := newTestHandler(t, HandlerDeps{Server: server})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, &protocol.Message{Type: protocol.MsgGetOnlineCount})
	payload, err := codec.ParsePayload[protocol.OnlineCountPayload](c.LastMessage())
	require.NoError(t, err)
	assert.Equal(t, 7, payload.Count)
	server.AssertExpectations(t)
}

func TestHandle_ChatRequiresRoom(t *testing.T) {
	t.Parallel()

	limiter := new(testutil.MockChatLimiter)
	limiter.On("AllowChat", "c1").Return(true, "")
	h, _, _ := newTestHandler(t, HandlerDeps{ChatLimiter: limiter})
	c := testutil.NewSimpleClient("c1", "Alice")

	h.Handle(c, codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Content: "hi"}))
	assert.Equal(t, protocol.ErrCodeNotInRoom, errorCode(t, c.LastMessage()))
	limiter.AssertExpectations(t)
}

func TestHandle_ChatRateLimited(t *testing.T) {
	t.Parallel()

	limiter := new(testutil.MockChatLimiter)
	limiter.On("AllowChat", "c1").Return(false, "太快了")
	h, _, _ := newTestHandler(t, HandlerDeps{ChatLimiter: limiter})

	client := new(testutil.MockClient)
	client.On("GetID").Return("c1")
	client.On("SendMessage", mock.MatchedBy(func(msg *protocol.Message) bool {
		return msg.Type == protocol.MsgError
	})).Return()

	h.Handle(client, codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Content: "spam"}))

	client.AssertExpectations(t)
	limiter.AssertExpectations(t)
}

func TestHandle_ChatBroadcastsToRoom(t *testing.T) {
	t.Parallel()

	h, rm, _ := newTestHandler(t, HandlerDeps{})
	a := testutil.NewSimpleClient("c1", "Alice")
	b := testutil.NewSimpleClient("c2", "Bob")
	r, err := rm.CreateRoom(a, room.CreateRoomRequest{Name: "duo", LevelID: 1, UserID: "alice"})
	require.NoError(t, err)
	_, err = rm.JoinRoom(b, r.ID, "bob")
	require.NoError(t, err)

	h.Handle(a, codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{Content: "push left", SenderID: "mallory"}))

	for _, c := range []*testutil.SimpleClient{a, b} {
		chats := c.MessagesOfType(protocol.MsgChat)
		require.Len(t, chats, 1)
		payload, err := codec.ParsePayload[protocol.ChatPayload](chats[0])
		require.NoError(t, err)
		assert.Equal(t, "alice", payload.SenderID)
		assert.Equal(t, "push left", payload.Content)
	}

	h.Handle(a, codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{}))
	assert.Equal(t, protocol.ErrCodeInvalidMsg, errorCode(t, a.LastMessage()))
}
