package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/config"
)

// maxLogSize 超过该大小的日志文件在启动时轮转
const maxLogSize = 10 * 1024 * 1024

var (
	logFile *os.File
	logPath string
)

// Init 按配置初始化 logrus
func Init(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	}

	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return nil
	}

	out, err := openLogFile(cfg.File)
	if err != nil {
		return err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, out))
	log.Infof("📝 日志文件: %s", logPath)
	return nil
}

// openLogFile 打开日志文件，过大时先备份
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if info, err := os.Stat(path); err == nil && info.Size() > maxLogSize {
		backup := fmt.Sprintf("%s.%d", path, time.Now().Unix())
		_ = os.Rename(path, backup)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	logPath = path
	return f, nil
}

// Close 关闭日志文件
func Close() {
	if logFile != nil {
		log.SetOutput(os.Stdout)
		_ = logFile.Close()
		logFile = nil
	}
}

// LogPanic 记录 panic 及堆栈
func LogPanic(r any) {
	log.WithField("stack", string(debug.Stack())).Errorf("💥 panic: %v", r)
}

// GetLogPath 当前日志文件路径
func GetLogPath() string {
	return logPath
}
