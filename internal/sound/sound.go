//go:build !ci

package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	log "github.com/sirupsen/logrus"
)

const sampleRate = beep.SampleRate(44100)

// 统一的立体声格式
var standardFormat = beep.Format{
	SampleRate:  sampleRate,
	NumChannels: 2,
	Precision:   4,
}

type SoundManager struct {
	mu      sync.RWMutex
	buffers map[string]*beep.Buffer
	enabled bool
}

func NewSoundManager() *SoundManager {
	return &SoundManager{
		buffers: make(map[string]*beep.Buffer),
	}
}

func (sm *SoundManager) Init() error {
	// 较小的缓冲区降低延迟
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/20)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	if err := sm.synthesize(); err != nil {
		return err
	}
	if err := sm.loadSoundFiles("assets/sounds"); err != nil {
		log.Debugf("加载音效文件失败: %v", err)
	}

	sm.mu.Lock()
	sm.enabled = true
	sm.mu.Unlock()
	return nil
}

// synthesize 生成内置音效
func (sm *SoundManager) synthesize() error {
	for name, t := range builtinTones {
		buffer, err := renderTone(t)
		if err != nil {
			return fmt.Errorf("failed to synthesize %s: %w", name, err)
		}
		sm.mu.Lock()
		sm.buffers[name] = buffer
		sm.mu.Unlock()
	}
	return nil
}

func renderTone(t tone) (*beep.Buffer, error) {
	notes := make([]beep.Streamer, 0, len(t.freqs))
	n := sampleRate.N(time.Duration(t.duration) * time.Millisecond)
	for _, freq := range t.freqs {
		sine, err := generators.SineTone(sampleRate, freq)
		if err != nil {
			return nil, err
		}
		notes = append(notes, beep.Take(n, sine))
	}

	quiet := &effects.Volume{
		Streamer: beep.Seq(notes...),
		Base:     2,
		Volume:   -2.5,
	}

	buffer := beep.NewBuffer(standardFormat)
	buffer.Append(quiet)
	return buffer, nil
}

// loadSoundFiles 加载目录下的 mp3/wav，目录不存在时忽略
func (sm *SoundManager) loadSoundFiles(soundDir string) error {
	files, err := os.ReadDir(soundDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read sound directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".mp3" && ext != ".wav" {
			continue
		}
		baseName := strings.TrimSuffix(name, filepath.Ext(name))

		if err := sm.loadSoundFile(filepath.Join(soundDir, name), baseName, ext); err != nil {
			log.Debugf("跳过音效文件 %s: %v", name, err)
		}
	}
	return nil
}

// loadSoundFile 加载单个音效文件
func (sm *SoundManager) loadSoundFile(path, baseName, ext string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	}
	if err != nil {
		return err
	}
	defer func() { _ = streamer.Close() }()

	var resampled beep.Streamer = streamer
	if format.SampleRate != sampleRate {
		resampled = beep.Resample(4, format.SampleRate, sampleRate, streamer)
	}

	buffer := beep.NewBuffer(standardFormat)
	buffer.Append(resampled)

	sm.mu.Lock()
	sm.buffers[baseName] = buffer
	sm.mu.Unlock()
	return nil
}

func (sm *SoundManager) Play(name string) {
	sm.mu.RLock()
	buffer, ok := sm.buffers[name]
	enabled := sm.enabled
	sm.mu.RUnlock()

	if !enabled || !ok {
		return
	}
	speaker.Play(buffer.Streamer(0, buffer.Len()))
}

func (sm *SoundManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.enabled = false
}
