package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sokoban-online/internal/config"
	"github.com/palemoky/sokoban-online/internal/game/level"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/testutil"
)

func newTestServer(t *testing.T, rdb *redis.Client) (*Server, *httptest.Server) {
	t.Helper()
	pack, err := level.Default()
	require.NoError(t, err)

	s := NewServer(config.Default(), Options{Levels: pack, Redis: rdb})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		s.roomManager.Shutdown()
	})
	return s, ts
}

// wsConn 测试用 WebSocket 客户端
type wsConn struct {
	t      *testing.T
	conn   *websocket.Conn
	format codec.Format
}

func dial(t *testing.T, ts *httptest.Server, format codec.Format) *wsConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return &wsConn{t: t, conn: conn, format: format}
}

func (c *wsConn) send(msgType protocol.MessageType, payload any) {
	c.t.Helper()
	data, err := codec.Encode(codec.MustNewMessage(msgType, payload), c.format)
	require.NoError(c.t, err)
	kind := websocket.TextMessage
	if c.format == codec.FormatProtobuf {
		kind = websocket.BinaryMessage
	}
	require.NoError(c.t, c.conn.WriteMessage(kind, data))
}

// expect 读取直到出现指定类型的消息
func (c *wsConn) expect(msgType protocol.MessageType) *protocol.Message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		kind, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", msgType)

		format := codec.FormatJSON
		if kind == websocket.BinaryMessage {
			format = codec.FormatProtobuf
		}
		msg, err := codec.Decode(data, format)
		require.NoError(c.t, err)
		if msg.Type == msgType {
			if msgType != protocol.MsgConnected {
				assert.Equal(c.t, c.format, format, "reply frame kind follows the latest inbound frame")
			}
			return msg
		}
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocket_CreateJoinPlayOverBothFormats(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s, ts := newTestServer(t, rdb)

	alice := dial(t, ts, codec.FormatJSON)
	connected, err := codec.ParsePayload[protocol.ConnectedPayload](alice.expect(protocol.MsgConnected))
	require.NoError(t, err)
	assert.NotEmpty(t, connected.ConnectionID)
	assert.NotEmpty(t, connected.UserName)

	alice.send(protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomName: "duo", LevelID: 1, UserID: "alice"})
	state, err := codec.ParsePayload[protocol.GameStatePayload](alice.expect(protocol.MsgGameState))
	require.NoError(t, err)
	assert.Equal(t, 0, state.Slot)
	assert.False(t, state.Enabled)
	assert.Equal(t, connected.ConnectionID, state.OwnerID)
	assert.Equal(t, "alice", state.OwnerUserID)

	bob := dial(t, ts, codec.FormatProtobuf)
	bob.expect(protocol.MsgConnected)
	bob.send(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: state.RoomID, UserID: "bob"})
	bobState, err := codec.ParsePayload[protocol.GameStatePayload](bob.expect(protocol.MsgGameState))
	require.NoError(t, err)
	assert.Equal(t, 1, bobState.Slot)

	alice.expect(protocol.MsgPlayerJoined)
	alice.expect(protocol.MsgGameEnabled)
	bob.expect(protocol.MsgGameEnabled)

	// 槽位 1 向左移动
	bob.send(protocol.MsgExecuteAction, protocol.ExecuteActionPayload{Action: "left"})
	result, err := codec.ParsePayload[protocol.ActionResultPayload](bob.expect(protocol.MsgActionResult))
	require.NoError(t, err)
	assert.Equal(t, "left", result.Action)
	assert.False(t, result.Synchronized)
	assert.NotEmpty(t, result.Players)

	moved, err := codec.ParsePayload[protocol.MoveAppliedPayload](alice.expect(protocol.MsgMoveApplied))
	require.NoError(t, err)
	assert.Equal(t, 1, moved.PlayerID)

	// 房间镜像写入 Redis
	assert.Eventually(t, func() bool {
		return mr.Exists("room:" + state.RoomID)
	}, time.Second, 10*time.Millisecond)

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var list protocol.RoomListResultPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, 2, list.Rooms[0].PlayersIn)

	assert.Equal(t, 2, s.GetOnlineCount())
}

func TestWebSocket_DisconnectTransfersOwner(t *testing.T) {
	t.Parallel()

	s, ts := newTestServer(t, nil)

	alice := dial(t, ts, codec.FormatJSON)
	alice.expect(protocol.MsgConnected)
	alice.send(protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomName: "duo", LevelID: 1})
	state, err := codec.ParsePayload[protocol.GameStatePayload](alice.expect(protocol.MsgGameState))
	require.NoError(t, err)

	bob := dial(t, ts, codec.FormatJSON)
	bob.expect(protocol.MsgConnected)
	bob.send(protocol.MsgJoinRoom, protocol.JoinRoomPayload{RoomID: state.RoomID})
	bob.expect(protocol.MsgGameState)

	require.NoError(t, alice.conn.Close())

	changed, err := codec.ParsePayload[protocol.OwnerChangedPayload](bob.expect(protocol.MsgOwnerChanged))
	require.NoError(t, err)
	assert.Equal(t, state.RoomID, changed.RoomID)
	bob.expect(protocol.MsgPlayersInUpdated)

	assert.Eventually(t, func() bool { return s.GetOnlineCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebSocket_InvalidFrame(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)
	c := dial(t, ts, codec.FormatJSON)
	c.expect(protocol.MsgConnected)

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	payload, err := codec.ParsePayload[protocol.ErrorPayload](c.expect(protocol.MsgError))
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, payload.Code)
}

func TestWebSocket_MaintenanceRejectsConnections(t *testing.T) {
	t.Parallel()

	s, ts := newTestServer(t, nil)
	s.EnterMaintenanceMode()
	assert.True(t, s.IsMaintenanceMode())

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRoomDetailAndLevels(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/rooms/missing")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/levels")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var levels protocol.LevelListResultPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&levels))
	assert.NotEmpty(t, levels.Levels)
	assert.Equal(t, 0, levels.Levels[0].ID)
}

func TestNewServer_WithoutLevelsUsesBuiltinPack(t *testing.T) {
	t.Parallel()

	s := NewServer(config.Default(), Options{})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		s.roomManager.Shutdown()
	})
	require.NotNil(t, s.levels)

	c := dial(t, ts, codec.FormatJSON)
	c.expect(protocol.MsgConnected)
	c.send(protocol.MsgCreateRoom, protocol.CreateRoomPayload{RoomName: "builtin", LevelID: 1})
	state, err := codec.ParsePayload[protocol.GameStatePayload](c.expect(protocol.MsgGameState))
	require.NoError(t, err)
	assert.Equal(t, 1, state.LevelID)
}

func TestDispatch_ReturnsMessageToPool(t *testing.T) {
	t.Parallel()

	s := NewServer(config.Default(), Options{})
	t.Cleanup(s.roomManager.Shutdown)
	c := testutil.NewSimpleClient("c1", "Alice")

	msg, err := codec.Decode([]byte(`{"type":"get_online_count"}`), codec.FormatJSON)
	require.NoError(t, err)
	s.dispatch(c, msg)

	assert.Len(t, c.MessagesOfType(protocol.MsgOnlineCount), 1)
	assert.Empty(t, msg.Type, "处理完的消息已清空并归还")
	assert.Nil(t, msg.Payload)
}
