package rule

import (
	"github.com/palemoky/sokoban-online/internal/game/board"
)

// RejectReason 动作被拒绝的原因
type RejectReason int

const (
	ReasonNone          RejectReason = iota
	ReasonBlockedByWall              // 前方是墙
	ReasonPushBlocked                // 被推动的箱子或玩家无处可去
	ReasonUnknownPlayer              // 槽位不存在
)

var reasonNames = map[RejectReason]string{
	ReasonNone:          "none",
	ReasonBlockedByWall: "blocked_by_wall",
	ReasonPushBlocked:   "push_blocked",
	ReasonUnknownPlayer: "unknown_player",
}

func (r RejectReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// EntityKind 发生移动的实体类型
type EntityKind string

const (
	KindPlayer EntityKind = "player"
	KindBlock  EntityKind = "block"
)

// Change 一次动作中单个实体的位移
type Change struct {
	Kind EntityKind     `json:"kind"`
	ID   int            `json:"id"` // 玩家槽位号，箱子为 -1
	From board.Position `json:"from"`
	To   board.Position `json:"to"`
}

// Result 动作执行结果
type Result struct {
	Applied bool
	Reason  RejectReason
	Changes []Change
}

func rejected(reason RejectReason) Result {
	return Result{Reason: reason}
}

// ApplyAction 校验并执行一步移动
//
// 每步至多推动一个障碍物（一个箱子或一个其他玩家），被推动的对象前方必须为空。
// 被拒绝时棋盘保持不变。
func ApplyAction(b *board.Board, slot int, dir board.Direction) Result {
	actor, ok := b.Players[slot]
	if !ok {
		return rejected(ReasonUnknownPlayer)
	}

	next := actor.Position.Add(dir)
	if b.IsWall(next) {
		return rejected(ReasonBlockedByWall)
	}

	var changes []Change

	if b.IsBlock(next) {
		pushedTo := next.Add(dir)
		if b.IsOccupied(pushedTo) {
			return rejected(ReasonPushBlocked)
		}
		delete(b.Blocks, next)
		b.Blocks[pushedTo] = struct{}{}
		changes = append(changes, Change{Kind: KindBlock, ID: -1, From: next, To: pushedTo})
	} else if other := b.PlayerAt(next); other != nil {
		shovedTo := next.Add(dir)
		if b.IsOccupied(shovedTo) {
			return rejected(ReasonPushBlocked)
		}
		other.Position = shovedTo
		changes = append(changes, Change{Kind: KindPlayer, ID: other.ID, From: next, To: shovedTo})
	}

	from := actor.Position
	actor.Position = next
	changes = append([]Change{{Kind: KindPlayer, ID: actor.ID, From: from, To: next}}, changes...)

	return Result{Applied: true, Changes: changes}
}

// Solved 所有箱子都在目标点上
func Solved(b *board.Board) bool {
	for p := range b.Blocks {
		if !b.IsGoal(p) {
			return false
		}
	}
	return true
}

// Synchronized 比较权威棋盘与客户端声称的状态
//
// 权威棋盘的每个箱子都必须出现在 blocks 中，每个玩家的坐标必须与 players 中对应槽位完全一致。
func Synchronized(b *board.Board, blocks []board.Position, players map[int]board.Position) bool {
	claimed := make(map[board.Position]struct{}, len(blocks))
	for _, p := range blocks {
		claimed[p] = struct{}{}
	}
	for p := range b.Blocks {
		if _, ok := claimed[p]; !ok {
			return false
		}
	}

	for id, player := range b.Players {
		pos, ok := players[id]
		if !ok || pos != player.Position {
			return false
		}
	}
	return true
}
