package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/protocol/codec"
	"github.com/palemoky/sokoban-online/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:1780", "服务器地址")
	userID := flag.String("user", "", "玩家 ID（为空时使用服务器分配的昵称）")
	binary := flag.Bool("protobuf", false, "使用 protobuf 二进制帧")
	mute := flag.Bool("mute", false, "关闭音效")
	logFile := flag.String("log", "", "日志文件（默认不输出，避免干扰界面）")
	flag.Parse()

	log.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "打开日志文件失败: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
	}

	format := codec.FormatJSON
	if *binary {
		format = codec.FormatProtobuf
	}

	model := ui.NewModel(ui.Options{
		ServerURL: fmt.Sprintf("ws://%s/ws", *serverAddr),
		UserID:    *userID,
		Format:    format,
		Sound:     !*mute,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "启动客户端时出错: %v\n", err)
		os.Exit(1)
	}
}
