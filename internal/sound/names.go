// Package sound 客户端音效
package sound

// 音效名，assets/sounds 下同名的 mp3/wav 文件会覆盖内置音效
const (
	Step   = "step"
	Push   = "push"
	Bump   = "bump"
	Join   = "join"
	Solved = "solved"
)

// tone 内置音效：依次播放的音符
type tone struct {
	freqs    []float64
	duration int // 每个音符的毫秒数
}

var builtinTones = map[string]tone{
	Step:   {freqs: []float64{660}, duration: 25},
	Push:   {freqs: []float64{220, 330}, duration: 45},
	Bump:   {freqs: []float64{110}, duration: 70},
	Join:   {freqs: []float64{523.25, 659.25}, duration: 80},
	Solved: {freqs: []float64{523.25, 659.25, 783.99, 1046.5}, duration: 120},
}
