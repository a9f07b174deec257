package board

import (
	"errors"
	"strings"
)

// ErrUnknownDirection 动作名不在四个方向之内
var ErrUnknownDirection = errors.New("unknown direction")

// Direction 单步移动方向
type Direction struct {
	Name string
	DX   int
	DY   int
}

var (
	Up    = Direction{Name: "up", DX: 0, DY: -1}
	Down  = Direction{Name: "down", DX: 0, DY: 1}
	Left  = Direction{Name: "left", DX: -1, DY: 0}
	Right = Direction{Name: "right", DX: 1, DY: 0}
)

// directions 动作词表，固定四个
var directions = map[string]Direction{
	Up.Name:    Up,
	Down.Name:  Down,
	Left.Name:  Left,
	Right.Name: Right,
}

// ParseDirection 解析动作名（大小写不敏感）
func ParseDirection(name string) (Direction, error) {
	d, ok := directions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Direction{}, ErrUnknownDirection
	}
	return d, nil
}

func (d Direction) String() string {
	return d.Name
}
