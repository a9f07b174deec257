package server

import "math/rand/v2"

// 昵称词库
var (
	adjectives = []string{
		"勇敢的", "聪明的", "快乐的", "神秘的", "酷炫的",
		"优雅的", "机智的", "沉稳的", "活泼的", "淡定的",
		"执着的", "耐心的", "灵巧的", "倔强的", "迷糊的",
	}

	nouns = []string{
		"搬运工", "仓库管理员", "叉车司机", "推箱人", "码头工",
		"熊猫", "企鹅", "考拉", "柴犬", "仓鼠",
		"松鼠", "浣熊", "水獭", "羊驼", "刺猬",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	return adjectives[rand.IntN(len(adjectives))] + nouns[rand.IntN(len(nouns))]
}
