package room

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/apperrors"
	"github.com/palemoky/sokoban-online/internal/game/board"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/protocol/convert"
	"github.com/palemoky/sokoban-online/internal/types"
)

// CreateRoomRequest 创建房间参数
type CreateRoomRequest struct {
	Name        string
	Description string
	LevelID     int
	UserID      string // 为空时使用连接昵称
}

// CreateRoom 创建房间，创建者占用第一个槽位并成为房主
func (rm *RoomManager) CreateRoom(client types.ClientInterface, req CreateRoomRequest) (*Room, error) {
	if rm.levels == nil {
		return nil, apperrors.ErrLevelNotFound
	}
	rows, err := rm.levels.Level(req.LevelID)
	if err != nil {
		return nil, err
	}
	b, err := board.Decode(rows)
	if err != nil {
		log.Warnf("⚠️  关卡 %d 解析失败: %v", req.LevelID, err)
		return nil, apperrors.ErrInvalidLevel
	}

	// 离开之前的房间
	rm.LeaveRoom(client)

	room := &Room{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Description:  req.Description,
		LevelID:      req.LevelID,
		CreatedAt:    time.Now(),
		rows:         rows,
		board:        b,
		freeSlots:    b.SlotIDs(),
		participants: make(map[string]*Participant),
	}
	room.slotCount = len(room.freeSlots)

	rm.mu.Lock()
	rm.rooms[room.ID] = room
	room.mu.Lock()
	rm.mu.Unlock()
	defer room.mu.Unlock()

	room.addParticipantLocked(client, userIDOrName(req.UserID, client))
	room.owner = client.GetID()

	log.Printf("🏠 房间 %s (%s) 已创建，关卡 %d，玩家 %s", room.ID, room.Name, room.LevelID, client.GetName())

	client.SendMessage(codec.MustNewMessage(protocol.MsgGameState, room.gameStateLocked(client.GetID())))
	rm.broadcastLobby(codec.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		Room: room.listItemLocked(),
	}))
	rm.enableIfFullLocked(room)
	rm.saveRoomLocked(room)

	return room, nil
}

// JoinRoom 加入房间
//
// 房间已被删除时返回 ErrRoomNotFound，没有空闲槽位时返回 ErrRoomFull。
// 成功后才会离开之前所在的房间。
func (rm *RoomManager) JoinRoom(client types.ClientInterface, roomID, userID string) (*Room, error) {
	previous := client.GetRoom()

	rm.mu.RLock()
	room, exists := rm.rooms[roomID]
	if !exists {
		rm.mu.RUnlock()
		return nil, apperrors.ErrRoomNotFound
	}
	room.mu.Lock()
	rm.mu.RUnlock()

	if room.destroyed {
		room.mu.Unlock()
		return nil, apperrors.ErrRoomNotFound
	}

	if _, already := room.participants[client.GetID()]; already {
		client.SendMessage(codec.MustNewMessage(protocol.MsgGameState, room.gameStateLocked(client.GetID())))
		room.mu.Unlock()
		return room, nil
	}

	if len(room.freeSlots) == 0 {
		room.mu.Unlock()
		return nil, apperrors.ErrRoomFull
	}

	p := room.addParticipantLocked(client, userIDOrName(userID, client))

	promoted := room.owner == ""
	if promoted {
		room.owner = client.GetID()
		room.stopGraceLocked()
		log.Printf("👑 玩家 %s 接管房间 %s，取消删除", client.GetName(), roomID)
	}

	log.Printf("👤 玩家 %s 加入房间 %s (槽位 %d)", client.GetName(), roomID, p.Slot)

	client.SendMessage(codec.MustNewMessage(protocol.MsgGameState, room.gameStateLocked(client.GetID())))
	room.broadcastExceptLocked(client.GetID(), codec.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		UserID: p.UserID,
		Player: convert.PlayerToState(*room.board.Players[p.Slot]),
	}))
	if promoted {
		room.broadcastLocked(codec.MustNewMessage(protocol.MsgOwnerChanged, protocol.OwnerChangedPayload{
			RoomID:  roomID,
			OwnerID: client.GetID(),
			UserID:  p.UserID,
		}))
	}
	rm.broadcastLobby(codec.MustNewMessage(protocol.MsgPlayersInUpdated, playersInLocked(room)))
	rm.enableIfFullLocked(room)
	rm.saveRoomLocked(room)
	room.mu.Unlock()

	if previous != "" && previous != roomID {
		rm.leave(client, previous)
	}

	return room, nil
}

// LeaveRoom 离开当前房间（主动离开、断线或加入其他房间）
func (rm *RoomManager) LeaveRoom(client types.ClientInterface) {
	roomID := client.GetRoom()
	if roomID == "" {
		return
	}
	rm.leave(client, roomID)
}

func (rm *RoomManager) leave(client types.ClientInterface, roomID string) {
	rm.mu.RLock()
	room, exists := rm.rooms[roomID]
	if !exists {
		rm.mu.RUnlock()
		clearRoom(client, roomID)
		return
	}
	room.mu.Lock()
	rm.mu.RUnlock()
	defer room.mu.Unlock()

	id := client.GetID()
	p, exists := room.participants[id]
	if !exists {
		clearRoom(client, roomID)
		return
	}

	delete(room.participants, id)
	room.releaseSlotLocked(p.Slot)
	clearRoom(client, roomID)

	log.Printf("👋 玩家 %s 离开房间 %s (槽位 %d)", client.GetName(), roomID, p.Slot)

	room.broadcastLocked(codec.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		UserID: p.UserID,
		Slot:   p.Slot,
	}))

	if room.owner == id {
		if next := room.lowestParticipantLocked(); next != "" {
			room.owner = next
			nextUser := room.participants[next].UserID
			log.Printf("👑 房间 %s 房主移交给 %s", roomID, nextUser)
			room.broadcastLocked(codec.MustNewMessage(protocol.MsgOwnerChanged, protocol.OwnerChangedPayload{
				RoomID:  roomID,
				OwnerID: next,
				UserID:  nextUser,
			}))
		} else {
			room.owner = ""
			rm.scheduleDeletionLocked(room)
		}
	}

	rm.broadcastLobby(codec.MustNewMessage(protocol.MsgPlayersInUpdated, playersInLocked(room)))
	rm.saveRoomLocked(room)
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(roomID string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[roomID]
}

// DeleteRoom 立即删除房间，成员被移出
func (rm *RoomManager) DeleteRoom(roomID string) bool {
	rm.mu.Lock()
	room, exists := rm.rooms[roomID]
	if !exists {
		rm.mu.Unlock()
		return false
	}
	room.mu.Lock()
	delete(rm.rooms, roomID)
	rm.mu.Unlock()
	defer room.mu.Unlock()

	rm.destroyLocked(room)
	return true
}

// destroyLocked 调用方需持有 room.mu，且房间已从注册表移除
func (rm *RoomManager) destroyLocked(room *Room) {
	room.destroyed = true
	room.stopGraceLocked()

	msg := codec.MustNewMessage(protocol.MsgRoomDeleted, protocol.RoomDeletedPayload{RoomID: room.ID})
	room.broadcastLocked(msg)
	for _, p := range room.participants {
		clearRoom(p.Client, room.ID)
	}
	room.participants = make(map[string]*Participant)

	rm.broadcastLobby(msg)
	rm.deleteRoomDataLocked(room)

	log.Printf("🏠 房间 %s 已删除", room.ID)
}

// GetRoomList 获取房间列表（按创建时间排序）
func (rm *RoomManager) GetRoomList() []protocol.RoomListItem {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	rooms := make([]*Room, 0, len(rm.rooms))
	for _, room := range rm.rooms {
		rooms = append(rooms, room)
	}
	slices.SortFunc(rooms, func(a, b *Room) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	items := make([]protocol.RoomListItem, 0, len(rooms))
	for _, room := range rooms {
		items = append(items, room.ListItem())
	}
	return items
}

// GetActiveRoomsCount 获取有成员且游戏进行中的房间数量
func (rm *RoomManager) GetActiveRoomsCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		room.mu.Lock()
		if len(room.participants) > 0 && room.stateLocked() == RoomStateActive {
			count++
		}
		room.mu.Unlock()
	}
	return count
}

// RoomCount 注册表中的房间数量
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// addParticipantLocked 占用第一个空闲槽位，调用方需确认有空闲槽位
func (r *Room) addParticipantLocked(client types.ClientInterface, userID string) *Participant {
	slot := r.freeSlots[0]
	r.freeSlots = r.freeSlots[1:]

	p := &Participant{Client: client, UserID: userID, Slot: slot}
	r.participants[client.GetID()] = p
	client.SetRoom(r.ID)
	return p
}

// enableIfFullLocked 槽位首次占满时开放房间，只会触发一次
func (rm *RoomManager) enableIfFullLocked(room *Room) {
	if room.enabled || len(room.freeSlots) > 0 {
		return
	}
	room.enabled = true
	log.Printf("🎮 房间 %s 玩家已到齐", room.ID)
	room.broadcastLocked(codec.MustNewMessage(protocol.MsgGameEnabled, protocol.GameEnabledPayload{RoomID: room.ID}))
}

func playersInLocked(room *Room) protocol.PlayersInUpdatedPayload {
	return protocol.PlayersInUpdatedPayload{
		RoomID:     room.ID,
		PlayersIn:  len(room.participants),
		AllPlayers: room.slotCount,
	}
}

func userIDOrName(userID string, client types.ClientInterface) string {
	if userID != "" {
		return userID
	}
	return client.GetName()
}

// clearRoom 仅当客户端仍记录在该房间时清空
func clearRoom(client types.ClientInterface, roomID string) {
	if client.GetRoom() == roomID {
		client.SetRoom("")
	}
}
