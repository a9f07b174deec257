package level

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/palemoky/sokoban-online/internal/apperrors"
	"github.com/palemoky/sokoban-online/internal/game/board"
)

//go:embed levels.yaml
var defaultPack []byte

// Loader 按关卡编号提供字符网格
type Loader interface {
	Level(id int) ([]string, error)
}

// Level 关卡定义
type Level struct {
	ID   int      `yaml:"id"`
	Name string   `yaml:"name"`
	Rows []string `yaml:"rows"`
}

// Info 关卡摘要（用于关卡列表）
type Info struct {
	ID      int
	Name    string
	Players int
	Width   int
	Height  int
}

// Pack 关卡包
type Pack struct {
	levels map[int]*Level
	infos  []Info
}

type packFile struct {
	Levels []*Level `yaml:"levels"`
}

// Default 加载内置关卡包
func Default() (*Pack, error) {
	return Parse(defaultPack)
}

// Load 从 YAML 文件加载关卡包
func Load(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse 解析关卡包，每个关卡都必须能解码为合法棋盘
func Parse(data []byte) (*Pack, error) {
	var f packFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析关卡文件失败: %w", err)
	}

	p := &Pack{levels: make(map[int]*Level, len(f.Levels))}
	for _, lv := range f.Levels {
		if _, dup := p.levels[lv.ID]; dup {
			return nil, fmt.Errorf("关卡 %d 重复定义", lv.ID)
		}
		b, err := board.Decode(lv.Rows)
		if err != nil {
			return nil, fmt.Errorf("关卡 %d 无效: %w", lv.ID, err)
		}
		p.levels[lv.ID] = lv
		p.infos = append(p.infos, Info{
			ID:      lv.ID,
			Name:    lv.Name,
			Players: len(b.Players),
			Width:   b.Width,
			Height:  b.Height,
		})
	}
	sort.Slice(p.infos, func(i, j int) bool { return p.infos[i].ID < p.infos[j].ID })

	return p, nil
}

// Level 返回关卡字符网格的副本
func (p *Pack) Level(id int) ([]string, error) {
	lv, ok := p.levels[id]
	if !ok {
		return nil, apperrors.ErrLevelNotFound
	}
	return append([]string(nil), lv.Rows...), nil
}

// List 按编号返回所有关卡摘要
func (p *Pack) List() []Info {
	return append([]Info(nil), p.infos...)
}
