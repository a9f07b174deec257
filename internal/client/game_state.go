package client

import (
	"errors"
	"slices"

	"github.com/palemoky/sokoban-online/internal/game/board"
	"github.com/palemoky/sokoban-online/internal/game/rule"
	"github.com/palemoky/sokoban-online/internal/protocol"
	"github.com/palemoky/sokoban-online/internal/protocol/convert"
)

var (
	ErrNoBoard    = errors.New("not in a room")
	ErrNotEnabled = errors.New("waiting for players")
)

// GameState 客户端本地的房间状态
//
// 自己的动作先在本地执行（预测），再连同预测结果提交给服务端；
// 服务端判定不一致时以权威状态覆盖本地。
type GameState struct {
	RoomID      string
	LevelID     int
	Slot        int
	OwnerID     string // 房主 connectionID
	OwnerUserID string
	Enabled     bool
	Solved      bool
	Members     []protocol.MemberInfo

	Board *board.Board

	Moves        int // 本局自己被接受的移动数
	Resyncs      int // 被服务端纠正的次数
	LastRejected bool
}

// NewGameState 创建空状态
func NewGameState() *GameState {
	return &GameState{Slot: -1}
}

// InRoom 是否在房间内
func (gs *GameState) InRoom() bool {
	return gs.RoomID != "" && gs.Board != nil
}

// Reset 离开房间后清空
func (gs *GameState) Reset() {
	*gs = *NewGameState()
}

// ApplyGameState 使用完整房间状态初始化
func (gs *GameState) ApplyGameState(p *protocol.GameStatePayload) {
	b := board.New()
	b.Width, b.Height = p.Width, p.Height
	for _, w := range convert.InfosToPositions(p.Walls) {
		b.Walls[w] = struct{}{}
	}
	for _, g := range convert.InfosToPositions(p.Goals) {
		b.Goals[g] = struct{}{}
	}
	setDynamic(b, p.Blocks, p.Players)

	gs.RoomID = p.RoomID
	gs.LevelID = p.LevelID
	gs.Slot = p.Slot
	gs.OwnerID = p.OwnerID
	gs.OwnerUserID = p.OwnerUserID
	gs.Enabled = p.Enabled
	gs.Members = slices.Clone(p.Members)
	gs.Board = b
	gs.Solved = rule.Solved(b)
	gs.Moves = 0
	gs.LastRejected = false
}

// setDynamic 覆盖箱子与玩家位置
func setDynamic(b *board.Board, blocks []protocol.PositionInfo, players []protocol.PlayerState) {
	b.Blocks = make(map[board.Position]struct{}, len(blocks))
	for _, pos := range convert.InfosToPositions(blocks) {
		b.Blocks[pos] = struct{}{}
	}
	b.Players = make(map[int]*board.Player, len(players))
	for _, s := range players {
		color := s.Color
		if color == "" {
			color = board.ColorForSlot(s.ID)
		}
		b.Players[s.ID] = &board.Player{ID: s.ID, Position: convert.InfoToPosition(s.Position), Color: color}
	}
}

// Predict 在本地执行自己的动作，返回需要提交的请求
//
// 本地判定被拒绝时仍然提交（服务端可能持有不同的状态），此时声称的状态即当前状态。
func (gs *GameState) Predict(action string) (protocol.ExecuteActionPayload, rule.Result, error) {
	if !gs.InRoom() {
		return protocol.ExecuteActionPayload{}, rule.Result{}, ErrNoBoard
	}
	if !gs.Enabled {
		return protocol.ExecuteActionPayload{}, rule.Result{}, ErrNotEnabled
	}
	dir, err := board.ParseDirection(action)
	if err != nil {
		return protocol.ExecuteActionPayload{}, rule.Result{}, err
	}

	result := rule.ApplyAction(gs.Board, gs.Slot, dir)
	gs.LastRejected = !result.Applied
	if result.Applied {
		gs.Moves++
		gs.Solved = rule.Solved(gs.Board)
	}

	return protocol.ExecuteActionPayload{
		Action:  dir.Name,
		Blocks:  convert.PositionsToInfos(gs.Board.BlockList()),
		Players: convert.PlayersToStates(gs.Board.PlayerList()),
	}, result, nil
}

// ApplyActionResult 处理自己动作的判定结果，返回是否发生了纠正
func (gs *GameState) ApplyActionResult(p *protocol.ActionResultPayload) bool {
	if p.Synchronized || !gs.InRoom() {
		return false
	}
	setDynamic(gs.Board, p.Blocks, p.Players)
	gs.Solved = rule.Solved(gs.Board)
	gs.Resyncs++
	return true
}

// ApplyMoveApplied 其他玩家的动作，直接采用服务端状态
func (gs *GameState) ApplyMoveApplied(p *protocol.MoveAppliedPayload) {
	if !gs.InRoom() || p.RoomID != gs.RoomID {
		return
	}
	setDynamic(gs.Board, p.Blocks, p.Players)
	gs.Solved = rule.Solved(gs.Board)
}

// ApplyRestarted 关卡重置
func (gs *GameState) ApplyRestarted(p *protocol.RestartedPayload) {
	if !gs.InRoom() || p.RoomID != gs.RoomID {
		return
	}
	setDynamic(gs.Board, p.Blocks, p.Players)
	gs.Solved = false
	gs.Moves = 0
	gs.LastRejected = false
}

// ApplyPlayerJoined 其他玩家加入
func (gs *GameState) ApplyPlayerJoined(p *protocol.PlayerJoinedPayload) {
	gs.Members = append(gs.Members, protocol.MemberInfo{UserID: p.UserID, Slot: p.Player.ID})
}

// ApplyPlayerLeft 玩家离开，角色留在棋盘上
func (gs *GameState) ApplyPlayerLeft(p *protocol.PlayerLeftPayload) {
	gs.Members = slices.DeleteFunc(gs.Members, func(m protocol.MemberInfo) bool {
		return m.Slot == p.Slot
	})
}

// ApplyOwnerChanged 房主变更
func (gs *GameState) ApplyOwnerChanged(p *protocol.OwnerChangedPayload) {
	if p.RoomID != gs.RoomID {
		return
	}
	gs.OwnerID = p.OwnerID
	gs.OwnerUserID = p.UserID
	for i := range gs.Members {
		gs.Members[i].IsOwner = gs.Members[i].UserID == p.UserID
	}
}

// ApplyGameEnabled 房间已满员
func (gs *GameState) ApplyGameEnabled(p *protocol.GameEnabledPayload) {
	if p.RoomID == gs.RoomID {
		gs.Enabled = true
	}
}

// ApplySolved 关卡完成
func (gs *GameState) ApplySolved(p *protocol.SolvedPayload) {
	if p.RoomID == gs.RoomID {
		gs.Solved = true
	}
}
