package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/sokoban-online/internal/apperrors"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/testutil"
)

func TestOwnerLeaves_TransfersThenDeletesAfterGrace(t *testing.T) {
	t.Parallel()

	grace := 50 * time.Millisecond
	rm, lobby := newTestManager(t, grace)
	c1 := testutil.NewSimpleClient("c1", "Alice")
	c2 := testutil.NewSimpleClient("c2", "Bob")

	room := createRoom(t, rm, c1, 1)
	_, err := rm.JoinRoom(c2, room.ID, "bob")
	require.NoError(t, err)

	// 房主断开，房主移交给剩下的成员
	rm.LeaveRoom(c1)
	assert.Equal(t, "c2", room.OwnerID())
	assert.NotNil(t, rm.GetRoom(room.ID))
	assert.True(t, room.GraceDeadline().IsZero())

	changed := c2.MessagesOfType(protocol.MsgOwnerChanged)
	require.Len(t, changed, 1)
	payload, err := codec.ParsePayload[protocol.OwnerChangedPayload](changed[0])
	require.NoError(t, err)
	assert.Equal(t, "c2", payload.OwnerID)
	assert.Equal(t, "bob", payload.UserID)

	// 最后一个成员断开，进入宽限期
	before := time.Now()
	rm.LeaveRoom(c2)
	assert.Equal(t, RoomStateOwnerlessGrace, room.State())
	assert.NotNil(t, rm.GetRoom(room.ID))
	assert.False(t, room.GraceDeadline().Before(before.Add(grace)))

	assert.Eventually(t, func() bool {
		return rm.GetRoom(room.ID) == nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, RoomStateDestroyed, room.State())

	deleted := lobby.MessagesOfType(protocol.MsgRoomDeleted)
	require.Len(t, deleted, 1)
	deletedPayload, err := codec.ParsePayload[protocol.RoomDeletedPayload](deleted[0])
	require.NoError(t, err)
	assert.Equal(t, room.ID, deletedPayload.RoomID)

	_, err = rm.JoinRoom(c2, room.ID, "bob")
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
}

func TestOwnerLeaves_LowestConnectionIDBecomesOwner(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, time.Hour)
	owner := testutil.NewSimpleClient("c3", "Carol")
	b := testutil.NewSimpleClient("c2", "Bob")
	a := testutil.NewSimpleClient("c1", "Alice")

	room := createRoom(t, rm, owner, 3)
	_, err := rm.JoinRoom(b, room.ID, "bob")
	require.NoError(t, err)
	_, err = rm.JoinRoom(a, room.ID, "alice")
	require.NoError(t, err)

	rm.LeaveRoom(owner)
	assert.Equal(t, "c1", room.OwnerID())
}

func TestOwnerID_SameMeaningInStateAndHandOff(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, time.Minute)
	c1 := testutil.NewSimpleClient("c1", "Alice")
	c2 := testutil.NewSimpleClient("c2", "Bob")
	c3 := testutil.NewSimpleClient("c3", "Carol")

	room := createRoom(t, rm, c1, 1)
	_, err := rm.JoinRoom(c2, room.ID, "bob")
	require.NoError(t, err)

	joined, err := codec.ParsePayload[protocol.GameStatePayload](c2.MessagesOfType(protocol.MsgGameState)[0])
	require.NoError(t, err)
	assert.Equal(t, "c1", joined.OwnerID)
	assert.Equal(t, "Alice", joined.OwnerUserID)

	rm.LeaveRoom(c1)
	changed, err := codec.ParsePayload[protocol.OwnerChangedPayload](c2.MessagesOfType(protocol.MsgOwnerChanged)[0])
	require.NoError(t, err)

	_, err = rm.JoinRoom(c3, room.ID, "carol")
	require.NoError(t, err)
	late, err := codec.ParsePayload[protocol.GameStatePayload](c3.MessagesOfType(protocol.MsgGameState)[0])
	require.NoError(t, err)

	assert.Equal(t, changed.OwnerID, late.OwnerID)
	assert.Equal(t, changed.UserID, late.OwnerUserID)
	assert.Equal(t, room.OwnerID(), late.OwnerID)
}

func TestGrace_ReclaimedOwnerCancelsDeletion(t *testing.T) {
	t.Parallel()

	grace := 150 * time.Millisecond
	rm, lobby := newTestManager(t, grace)
	c1 := testutil.NewSimpleClient("c1", "Alice")
	c2 := testutil.NewSimpleClient("c2", "Bob")

	room := createRoom(t, rm, c1, 1)
	rm.LeaveRoom(c1)
	require.Equal(t, RoomStateOwnerlessGrace, room.State())

	_, err := rm.JoinRoom(c2, room.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "c2", room.OwnerID())
	assert.Len(t, c2.MessagesOfType(protocol.MsgOwnerChanged), 1)
	assert.True(t, room.GraceDeadline().IsZero())

	time.Sleep(3 * grace)
	assert.Same(t, room, rm.GetRoom(room.ID))
	assert.Equal(t, RoomStateForming, room.State())
	assert.Empty(t, lobby.MessagesOfType(protocol.MsgRoomDeleted))
}

func TestExpireGrace_RechecksAtFireTime(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, time.Hour)
	c1 := testutil.NewSimpleClient("c1", "Alice")
	c2 := testutil.NewSimpleClient("c2", "Bob")

	room := createRoom(t, rm, c1, 1)
	rm.LeaveRoom(c1)

	room.mu.Lock()
	firstSeq := room.graceSeq
	room.mu.Unlock()

	// 宽限期内有人接管，旧回调触发时不删除
	_, err := rm.JoinRoom(c2, room.ID, "bob")
	require.NoError(t, err)
	rm.expireGrace(room, firstSeq)
	assert.Same(t, room, rm.GetRoom(room.ID))

	// 再次失去房主，旧回调同样无效
	rm.LeaveRoom(c2)
	rm.expireGrace(room, firstSeq)
	assert.Same(t, room, rm.GetRoom(room.ID))

	room.mu.Lock()
	currentSeq := room.graceSeq
	room.mu.Unlock()
	require.NotEqual(t, firstSeq, currentSeq)

	rm.expireGrace(room, currentSeq)
	assert.Nil(t, rm.GetRoom(room.ID))

	// 重复触发不会出错
	assert.NotPanics(t, func() { rm.expireGrace(room, currentSeq) })
}

func TestExpireGrace_DifferentInstanceWithSameID(t *testing.T) {
	t.Parallel()

	rm, _ := newTestManager(t, time.Hour)
	c1 := testutil.NewSimpleClient("c1", "Alice")

	room := createRoom(t, rm, c1, 1)
	rm.LeaveRoom(c1)
	room.mu.Lock()
	seq := room.graceSeq
	room.mu.Unlock()

	stale := &Room{ID: room.ID, board: room.board, participants: map[string]*Participant{}, graceSeq: seq}
	rm.expireGrace(stale, seq)
	assert.Same(t, room, rm.GetRoom(room.ID))
}

func TestDeleteRoom(t *testing.T) {
	t.Parallel()

	rm, lobby := newTestManager(t, time.Hour)
	c1 := testutil.NewSimpleClient("c1", "Alice")
	c2 := testutil.NewSimpleClient("c2", "Bob")

	room := createRoom(t, rm, c1, 1)
	_, err := rm.JoinRoom(c2, room.ID, "bob")
	require.NoError(t, err)

	assert.True(t, rm.DeleteRoom(room.ID))
	assert.False(t, rm.DeleteRoom(room.ID))

	assert.Nil(t, rm.GetRoom(room.ID))
	assert.Empty(t, c1.GetRoom())
	assert.Empty(t, c2.GetRoom())
	assert.Len(t, c1.MessagesOfType(protocol.MsgRoomDeleted), 1)
	assert.Len(t, c2.MessagesOfType(protocol.MsgRoomDeleted), 1)
	assert.Len(t, lobby.MessagesOfType(protocol.MsgRoomDeleted), 1)

	// 过期请求软失败
	_, err = rm.ExecuteAction(c1, room.ID, "right", nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)
	assert.ErrorIs(t, rm.Restart(c1, room.ID), apperrors.ErrRoomNotFound)
	assert.NotPanics(t, func() { rm.LeaveRoom(c1) })
}
