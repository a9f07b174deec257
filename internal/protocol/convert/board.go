package convert

import (
	"github.com/palemoky/sokoban-online/internal/game/board"
	"github.com/palemoky/sokoban-online/internal/protocol"
)

// PositionToInfo 将 board.Position 转换为 protocol.PositionInfo
func PositionToInfo(p board.Position) protocol.PositionInfo {
	return protocol.PositionInfo{X: p.X, Y: p.Y}
}

// PositionsToInfos 将 []board.Position 转换为 []protocol.PositionInfo
func PositionsToInfos(positions []board.Position) []protocol.PositionInfo {
	infos := make([]protocol.PositionInfo, len(positions))
	for i, p := range positions {
		infos[i] = PositionToInfo(p)
	}
	return infos
}

// InfoToPosition 将 protocol.PositionInfo 转换为 board.Position
func InfoToPosition(info protocol.PositionInfo) board.Position {
	return board.Position{X: info.X, Y: info.Y}
}

// InfosToPositions 将 []protocol.PositionInfo 转换为 []board.Position
func InfosToPositions(infos []protocol.PositionInfo) []board.Position {
	positions := make([]board.Position, len(infos))
	for i, info := range infos {
		positions[i] = InfoToPosition(info)
	}
	return positions
}

// PlayerToState 将 board.Player 转换为 protocol.PlayerState
func PlayerToState(p board.Player) protocol.PlayerState {
	return protocol.PlayerState{
		ID:       p.ID,
		Position: PositionToInfo(p.Position),
		Color:    p.Color,
	}
}

// PlayersToStates 将 []board.Player 转换为 []protocol.PlayerState
func PlayersToStates(players []board.Player) []protocol.PlayerState {
	states := make([]protocol.PlayerState, len(players))
	for i, p := range players {
		states[i] = PlayerToState(p)
	}
	return states
}

// StatesToPositions 将客户端上报的玩家列表转换为槽位 → 坐标映射
//
// 同一槽位重复出现时以最后一个为准。
func StatesToPositions(states []protocol.PlayerState) map[int]board.Position {
	positions := make(map[int]board.Position, len(states))
	for _, s := range states {
		positions[s.ID] = InfoToPosition(s.Position)
	}
	return positions
}
