package board

import (
	"errors"
	"fmt"
)

// 关卡字符
const (
	GlyphGoal        = '.'
	GlyphWall        = '#'
	GlyphBlock       = '$'
	GlyphBlockOnGoal = '*'
)

var (
	// ErrEmptyLevel 关卡没有任何行
	ErrEmptyLevel = errors.New("level is empty")
	// ErrNoPlayers 关卡中没有玩家起点
	ErrNoPlayers = errors.New("level has no player start")
	// ErrDuplicatePlayer 同一玩家编号出现多次
	ErrDuplicatePlayer = errors.New("duplicate player start")
	// ErrOverlap 两个非目标点实体位于同一格
	ErrOverlap = errors.New("overlapping entities")
)

// Decode 将关卡字符网格解析为棋盘
//
// 自上而下、自左向右扫描，相同输入永远得到相同棋盘。空格及未知字符视为地板。
func Decode(rows []string) (*Board, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyLevel
	}

	b := New()
	b.Height = len(rows)

	occupied := make(map[Position]rune)
	place := func(p Position, glyph rune) error {
		if prev, ok := occupied[p]; ok {
			return fmt.Errorf("%w: %q and %q at %s", ErrOverlap, prev, glyph, p)
		}
		occupied[p] = glyph
		return nil
	}

	for y, row := range rows {
		x := 0
		for _, glyph := range row {
			p := Position{X: x, Y: y}
			switch {
			case glyph == GlyphGoal:
				b.Goals[p] = struct{}{}
			case glyph == GlyphWall:
				if err := place(p, glyph); err != nil {
					return nil, err
				}
				b.Walls[p] = struct{}{}
			case glyph == GlyphBlock:
				if err := place(p, glyph); err != nil {
					return nil, err
				}
				b.Blocks[p] = struct{}{}
			case glyph == GlyphBlockOnGoal:
				if err := place(p, glyph); err != nil {
					return nil, err
				}
				b.Blocks[p] = struct{}{}
				b.Goals[p] = struct{}{}
			case glyph >= '0' && glyph <= '9':
				slot := int(glyph - '0')
				if _, dup := b.Players[slot]; dup {
					return nil, fmt.Errorf("%w: %d", ErrDuplicatePlayer, slot)
				}
				if err := place(p, glyph); err != nil {
					return nil, err
				}
				b.Players[slot] = &Player{ID: slot, Position: p, Color: ColorForSlot(slot)}
			}
			x++
		}
		if x > b.Width {
			b.Width = x
		}
	}

	if len(b.Players) == 0 {
		return nil, ErrNoPlayers
	}
	return b, nil
}
