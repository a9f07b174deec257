package server

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/palemoky/sokoban-online/internal/config"
	"github.com/palemoky/sokoban-online/internal/game/level"
	"github.com/palemoky/sokoban-online/internal/game/room"
	"github.com/palemoky/sokoban-online/internal/server/handler"
	"github.com/palemoky/sokoban-online/internal/server/storage"
)

// Options 服务器外部依赖
type Options struct {
	Levels *level.Pack
	Redis  *redis.Client // 为 nil 时不镜像房间、不记录统计
}

// Server WebSocket 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client
	redisStore  *storage.RedisStore
	leaderboard *storage.LeaderboardManager
	levels      *level.Pack
	roomManager *room.RoomManager
	clients     map[string]*Client
	clientsMu   sync.RWMutex
	handler     *handler.Handler
	upgrader    websocket.Upgrader

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	chatLimiter    *ChatRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	httpServer *http.Server
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, opts Options) *Server {
	if opts.Levels == nil {
		pack, err := level.Default()
		if err != nil {
			log.Errorf("内置关卡解析失败: %v", err)
		} else {
			opts.Levels = pack
		}
	}

	s := &Server{
		config:      cfg,
		redis:       opts.Redis,
		redisStore:  storage.NewRedisStore(opts.Redis),
		leaderboard: storage.NewLeaderboardManager(opts.Redis),
		levels:      opts.Levels,
		clients:     make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		chatLimiter: NewChatRateLimiter(
			cfg.Security.ChatLimit.MaxPerSecond,
			cfg.Security.ChatLimit.MaxPerMinute,
			cfg.Security.ChatLimit.CooldownDuration(),
		),
		ipFilter:       NewIPFilter(),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源已在 handleWebSocket 中校验
		CheckOrigin: func(*http.Request) bool { return true },
	}

	deps := room.ManagerDeps{
		RedisStore: s.redisStore,
		Lobby:      s,
		OwnerGrace: cfg.Game.OwnerGraceDuration(),
	}
	if opts.Levels != nil {
		deps.Levels = opts.Levels
	}
	if s.leaderboard.Enabled() {
		deps.Stats = s.leaderboard
	}
	s.roomManager = room.NewRoomManager(deps)

	hdeps := handler.HandlerDeps{
		Server:      s,
		RoomManager: s.roomManager,
		ChatLimiter: s.chatLimiter,
	}
	if opts.Levels != nil {
		hdeps.Levels = opts.Levels
	}
	if s.leaderboard.Enabled() {
		hdeps.Leaderboard = s.leaderboard
	}
	s.handler = handler.NewHandler(hdeps)

	log.Infof("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 聊天限制=%d/s, 最大连接数=%d",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond,
		cfg.Security.ChatLimit.MaxPerSecond, cfg.Server.MaxConnections)

	return s
}

// Router HTTP 路由
func (s *Server) Router() http.Handler {
	router := way.NewRouter()
	router.HandleFunc(http.MethodGet, "/ws", s.handleWebSocket)
	router.HandleFunc(http.MethodGet, "/health", s.handleHealth)
	router.HandleFunc(http.MethodGet, "/rooms", s.handleRoomList)
	router.HandleFunc(http.MethodGet, "/rooms/:id", s.handleRoomDetail)
	router.HandleFunc(http.MethodGet, "/levels", s.handleLevelList)
	return router
}

// Start 启动服务器，阻塞直到关闭
func (s *Server) Start() error {
	addr := s.config.Server.Addr()

	go s.monitorStats()

	log.Infof("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// RoomManager 房间管理器
func (s *Server) RoomManager() *room.RoomManager {
	return s.roomManager
}
