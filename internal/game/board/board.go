package board

import (
	"fmt"
	"sort"
)

// Position 棋盘坐标，x 向右递增，y 向下递增
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add 返回沿方向移动一步后的坐标
func (p Position) Add(d Direction) Position {
	return Position{X: p.X + d.DX, Y: p.Y + d.DY}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Player 棋盘上的玩家角色，ID 即槽位号
type Player struct {
	ID       int      `json:"id"`
	Position Position `json:"position"`
	Color    string   `json:"color"`
}

// playerColors 按槽位号分配的颜色
var playerColors = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#fabebe", "#008080",
}

// ColorForSlot 返回槽位对应的颜色
func ColorForSlot(slot int) string {
	if slot < 0 {
		return playerColors[0]
	}
	return playerColors[slot%len(playerColors)]
}

// Board 一局推箱子的完整状态
//
// Walls 与 Goals 在房间生命周期内不变；Blocks 只会移动，数量恒定。
type Board struct {
	Walls   map[Position]struct{}
	Goals   map[Position]struct{}
	Blocks  map[Position]struct{}
	Players map[int]*Player
	Width   int
	Height  int
}

// New 创建空棋盘
func New() *Board {
	return &Board{
		Walls:   make(map[Position]struct{}),
		Goals:   make(map[Position]struct{}),
		Blocks:  make(map[Position]struct{}),
		Players: make(map[int]*Player),
	}
}

// IsWall 判断坐标是否为墙
func (b *Board) IsWall(p Position) bool {
	_, ok := b.Walls[p]
	return ok
}

// IsGoal 判断坐标是否为目标点
func (b *Board) IsGoal(p Position) bool {
	_, ok := b.Goals[p]
	return ok
}

// IsBlock 判断坐标上是否有箱子
func (b *Board) IsBlock(p Position) bool {
	_, ok := b.Blocks[p]
	return ok
}

// PlayerAt 返回站在该坐标上的玩家，没有则返回 nil
func (b *Board) PlayerAt(p Position) *Player {
	for _, player := range b.Players {
		if player.Position == p {
			return player
		}
	}
	return nil
}

// IsOccupied 坐标上是否有墙、箱子或玩家
func (b *Board) IsOccupied(p Position) bool {
	return b.IsWall(p) || b.IsBlock(p) || b.PlayerAt(p) != nil
}

// SlotIDs 按升序返回所有槽位号
func (b *Board) SlotIDs() []int {
	ids := make([]int, 0, len(b.Players))
	for id := range b.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// BlockList 返回排序后的箱子坐标
func (b *Board) BlockList() []Position {
	return sortedPositions(b.Blocks)
}

// WallList 返回排序后的墙坐标
func (b *Board) WallList() []Position {
	return sortedPositions(b.Walls)
}

// GoalList 返回排序后的目标点坐标
func (b *Board) GoalList() []Position {
	return sortedPositions(b.Goals)
}

// PlayerList 按槽位号返回玩家副本
func (b *Board) PlayerList() []Player {
	players := make([]Player, 0, len(b.Players))
	for _, id := range b.SlotIDs() {
		players = append(players, *b.Players[id])
	}
	return players
}

// PlayerPositions 返回槽位号到坐标的映射
func (b *Board) PlayerPositions() map[int]Position {
	positions := make(map[int]Position, len(b.Players))
	for id, p := range b.Players {
		positions[id] = p.Position
	}
	return positions
}

// Clone 深拷贝棋盘
func (b *Board) Clone() *Board {
	c := &Board{
		Walls:   copySet(b.Walls),
		Goals:   copySet(b.Goals),
		Blocks:  copySet(b.Blocks),
		Players: make(map[int]*Player, len(b.Players)),
		Width:   b.Width,
		Height:  b.Height,
	}
	for id, p := range b.Players {
		player := *p
		c.Players[id] = &player
	}
	return c
}

// Equal 比较两个棋盘的全部实体
func (b *Board) Equal(o *Board) bool {
	if !setEqual(b.Walls, o.Walls) || !setEqual(b.Goals, o.Goals) || !setEqual(b.Blocks, o.Blocks) {
		return false
	}
	if len(b.Players) != len(o.Players) {
		return false
	}
	for id, p := range b.Players {
		q, ok := o.Players[id]
		if !ok || *p != *q {
			return false
		}
	}
	return true
}

// ResetDynamic 用另一棋盘的箱子和玩家位置覆盖当前棋盘，墙和目标点保持不变
func (b *Board) ResetDynamic(src *Board) {
	b.Blocks = copySet(src.Blocks)
	for id, p := range src.Players {
		if cur, ok := b.Players[id]; ok {
			cur.Position = p.Position
			continue
		}
		player := *p
		b.Players[id] = &player
	}
}

func sortedPositions(set map[Position]struct{}) []Position {
	list := make([]Position, 0, len(set))
	for p := range set {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Y != list[j].Y {
			return list[i].Y < list[j].Y
		}
		return list[i].X < list[j].X
	})
	return list
}

func copySet(set map[Position]struct{}) map[Position]struct{} {
	c := make(map[Position]struct{}, len(set))
	for p := range set {
		c[p] = struct{}{}
	}
	return c
}

func setEqual(a, b map[Position]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for p := range a {
		if _, ok := b[p]; !ok {
			return false
		}
	}
	return true
}
