//go:build !production

package room

import (
	"slices"

	"github.com/palemoky/sokoban-online/internal/apperrors"
)

// StaticLoader 测试用关卡加载器
type StaticLoader map[int][]string

// Level 实现 level.Loader
func (l StaticLoader) Level(id int) ([]string, error) {
	rows, ok := l[id]
	if !ok {
		return nil, apperrors.ErrLevelNotFound
	}
	return slices.Clone(rows), nil
}
