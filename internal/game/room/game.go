package room

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/apperrors"
	"github.com/palemoky/sokoban-online/internal/game/board"
	"github.com/palemoky/sokoban-online/internal/game/rule"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/protocol/convert"
	"github.com/palemoky/sokoban-online/internal/types"
)

// ActionResult 动作执行结果
//
// 被拒绝或与客户端预测不一致时 Synchronized 为 false，并附带权威状态。
type ActionResult struct {
	Applied      bool
	Reason       rule.RejectReason
	Synchronized bool
	Solved       bool
	Blocks       []board.Position
	Players      []board.Player
}

// Payload 转换为发给执行者的消息
func (r *ActionResult) Payload(action string) protocol.ActionResultPayload {
	payload := protocol.ActionResultPayload{
		Action:       action,
		Synchronized: r.Synchronized,
	}
	if !r.Synchronized {
		payload.Blocks = convert.PositionsToInfos(r.Blocks)
		payload.Players = convert.PlayersToStates(r.Players)
	}
	return payload
}

// lookupMember 查找房间并加锁，成功时调用方负责解锁
func (rm *RoomManager) lookupMember(client types.ClientInterface, roomID string) (*Room, *Participant, error) {
	if roomID == "" {
		return nil, nil, apperrors.ErrNotInRoom
	}

	rm.mu.RLock()
	room, exists := rm.rooms[roomID]
	if !exists {
		rm.mu.RUnlock()
		return nil, nil, apperrors.ErrRoomNotFound
	}
	room.mu.Lock()
	rm.mu.RUnlock()

	if room.destroyed {
		room.mu.Unlock()
		return nil, nil, apperrors.ErrRoomNotFound
	}
	p, ok := room.participants[client.GetID()]
	if !ok {
		room.mu.Unlock()
		return nil, nil, apperrors.ErrNotInRoom
	}
	return room, p, nil
}

// ExecuteAction 校验并执行客户端提交的动作
//
// claimedBlocks/claimedPlayers 是客户端执行该动作后的本地状态。结果会发给执行者，
// 被接受的动作随后广播给其他成员，完成关卡时再向全房间发送 solved。
// 以上消息都在房间锁内发出，所有成员看到的顺序与权威执行顺序一致。
//
// 除房间不存在 (ErrRoomNotFound)、不在房间 (ErrNotInRoom) 外，服务端还会拒绝
// 无法解析的动作 (ErrUnknownAction) 和人数未满时的动作 (ErrGameNotEnabled)，
// 不依赖客户端自行等待满员。
func (rm *RoomManager) ExecuteAction(client types.ClientInterface, roomID, action string,
	claimedBlocks []board.Position, claimedPlayers map[int]board.Position,
) (*ActionResult, error) {
	dir, err := board.ParseDirection(action)
	if err != nil {
		return nil, apperrors.ErrUnknownAction
	}

	room, p, err := rm.lookupMember(client, roomID)
	if err != nil {
		return nil, err
	}
	defer room.mu.Unlock()

	if !room.enabled {
		return nil, apperrors.ErrGameNotEnabled
	}

	res := rule.ApplyAction(room.board, p.Slot, dir)
	if !res.Applied {
		log.Debugf("🚫 房间 %s 槽位 %d 动作 %s 被拒绝: %s", room.ID, p.Slot, dir, res.Reason)
		result := &ActionResult{
			Reason:  res.Reason,
			Solved:  rule.Solved(room.board),
			Blocks:  room.board.BlockList(),
			Players: room.board.PlayerList(),
		}
		client.SendMessage(codec.MustNewMessage(protocol.MsgActionResult, result.Payload(dir.Name)))
		return result, nil
	}

	p.Moves++
	result := &ActionResult{
		Applied:      true,
		Synchronized: rule.Synchronized(room.board, claimedBlocks, claimedPlayers),
		Solved:       rule.Solved(room.board),
		Blocks:       room.board.BlockList(),
		Players:      room.board.PlayerList(),
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgActionResult, result.Payload(dir.Name)))

	blocks := convert.PositionsToInfos(result.Blocks)
	players := convert.PlayersToStates(result.Players)
	room.broadcastExceptLocked(client.GetID(), codec.MustNewMessage(protocol.MsgMoveApplied, protocol.MoveAppliedPayload{
		RoomID:   room.ID,
		Action:   dir.Name,
		PlayerID: p.Slot,
		Blocks:   blocks,
		Players:  players,
	}))

	if result.Solved {
		room.broadcastLocked(codec.MustNewMessage(protocol.MsgSolved, protocol.SolvedPayload{RoomID: room.ID}))
		if !room.solved {
			log.Printf("🏆 房间 %s 完成关卡 %d", room.ID, room.LevelID)
			rm.recordSolveLocked(room)
		}
	}
	room.solved = result.Solved

	return result, nil
}

// Restart 重新解析原始关卡，重置箱子和玩家位置，成员和槽位保持不变
func (rm *RoomManager) Restart(client types.ClientInterface, roomID string) error {
	room, _, err := rm.lookupMember(client, roomID)
	if err != nil {
		return err
	}
	defer room.mu.Unlock()

	fresh, err := board.Decode(room.rows)
	if err != nil {
		return apperrors.ErrInvalidLevel
	}
	room.board.ResetDynamic(fresh)
	room.solved = false
	for _, p := range room.participants {
		p.Moves = 0
	}

	log.Printf("🔄 房间 %s 已重置 (由 %s 发起)", room.ID, client.GetName())

	room.broadcastLocked(codec.MustNewMessage(protocol.MsgRestarted, protocol.RestartedPayload{
		RoomID:  room.ID,
		Blocks:  convert.PositionsToInfos(room.board.BlockList()),
		Players: convert.PlayersToStates(room.board.PlayerList()),
	}))
	rm.saveRoomLocked(room)
	return nil
}

// recordSolveLocked 为所有成员异步记录完成统计
func (rm *RoomManager) recordSolveLocked(room *Room) {
	if rm.stats == nil {
		return
	}

	type solver struct {
		userID string
		moves  int
	}
	solvers := make([]solver, 0, len(room.participants))
	for _, p := range room.participants {
		solvers = append(solvers, solver{userID: p.UserID, moves: p.Moves})
	}
	levelID := room.LevelID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		for _, s := range solvers {
			if err := rm.stats.RecordSolve(ctx, s.userID, levelID, s.moves); err != nil {
				log.Warnf("⚠️  记录玩家 %s 完成统计失败: %v", s.userID, err)
			}
		}
	}()
}
