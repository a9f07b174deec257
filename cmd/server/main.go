package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/config"
	"github.com/palemoky/sokoban-online/internal/game/level"
	"github.com/palemoky/sokoban-online/internal/logger"
	"github.com/palemoky/sokoban-online/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	levelsPath := flag.String("levels", "", "关卡包路径（覆盖配置）")
	noRedis := flag.Bool("no-redis", false, "不连接 Redis")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warnf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}
	if *levelsPath != "" {
		cfg.Game.LevelsFile = *levelsPath
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logger.Close()

	pack, err := loadLevels(cfg.Game.LevelsFile)
	if err != nil {
		log.Fatalf("加载关卡失败: %v", err)
	}
	log.Infof("🧩 已加载 %d 个关卡", len(pack.List()))

	var rdb *redis.Client
	if !*noRedis && cfg.Redis.Addr != "" {
		rdb = connectRedis(cfg.Redis)
	}

	srv := server.NewServer(cfg, server.Options{Levels: pack, Redis: rdb})

	// SIGINT 立即关闭，SIGTERM 等待进行中的房间
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		sig := <-quit
		log.Infof("收到信号 %v，正在关闭服务器...", sig)
		if sig == syscall.SIGTERM {
			srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
		} else {
			srv.Shutdown()
		}
	}()

	log.Info("📦 推箱子服务器启动中...")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("服务器启动失败: %v", err)
	}
	<-done
}

func loadLevels(path string) (*level.Pack, error) {
	if path == "" {
		return level.Default()
	}
	return level.Load(path)
}

// connectRedis 连接失败时返回 nil，房间仍在内存中运行
func connectRedis(cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("⚠️ Redis 连接失败，房间镜像与统计已禁用: %v", err)
		_ = rdb.Close()
		return nil
	}
	log.Infof("🗄️ 已连接 Redis %s", cfg.Addr)
	return rdb
}
