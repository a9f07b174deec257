//go:build ci

package sound

// SoundManager CI 环境没有音频设备，所有调用均为空操作
type SoundManager struct{}

func NewSoundManager() *SoundManager { return &SoundManager{} }

// Init 不初始化扬声器
func (*SoundManager) Init() error { return nil }

func (*SoundManager) Play(string) {}

func (*SoundManager) Close() {}
