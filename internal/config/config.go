package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultMaxConnections = 10000
	defaultRedisAddr      = "localhost:6379"

	defaultOwnerGraceSeconds     = 5
	defaultShutdownTimeout       = 30 // 分钟
	defaultShutdownCheckInterval = 5  // 秒

	defaultRatePerSecond    = 10
	defaultRatePerMinute    = 60
	defaultBanDuration      = 60 // 秒
	defaultMessagePerSecond = 20
	defaultChatPerSecond    = 1
	defaultChatPerMinute    = 20
	defaultChatCooldown     = 5 // 秒

	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host" validate:"required"`
	Port           int    `yaml:"port" validate:"min=1,max=65535"`
	MaxConnections int    `yaml:"max_connections" validate:"min=1"`
}

// RedisConfig Redis 配置，Addr 为空时不连接 Redis
type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0,max=15"`
}

// GameConfig 游戏配置
type GameConfig struct {
	OwnerGraceSeconds     int    `yaml:"owner_grace_seconds" validate:"min=1,max=600"` // 无房主房间的删除宽限期（秒）
	LevelsFile            string `yaml:"levels_file"`                                  // 关卡包路径，为空时使用内置关卡
	ShutdownTimeout       int    `yaml:"shutdown_timeout" validate:"min=1"`            // 优雅关闭最长等待（分钟）
	ShutdownCheckInterval int    `yaml:"shutdown_check_interval" validate:"min=1"`     // 优雅关闭检查间隔（秒）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins" validate:"min=1"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
	ChatLimit      ChatLimitConfig    `yaml:"chat_limit"`
}

// RateLimitConfig 连接速率限制（按 IP）
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" validate:"min=1"`
	MaxPerMinute int `yaml:"max_per_minute" validate:"min=1"`
	BanDuration  int `yaml:"ban_duration" validate:"min=0"` // 秒
}

// MessageLimitConfig 消息速率限制（按连接）
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" validate:"min=1"`
}

// ChatLimitConfig 聊天速率限制
type ChatLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" validate:"min=1"`
	MaxPerMinute int `yaml:"max_per_minute" validate:"min=1"`
	Cooldown     int `yaml:"cooldown" validate:"min=0"` // 触发限制后的冷却时间（秒）
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file"` // 为空时输出到标准输出
}

// OwnerGraceDuration 返回无房主删除宽限期
func (c *GameConfig) OwnerGraceDuration() time.Duration {
	return time.Duration(c.OwnerGraceSeconds) * time.Second
}

// ShutdownTimeoutDuration 返回优雅关闭最长等待时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

// ShutdownCheckIntervalDuration 返回优雅关闭检查间隔
func (c *GameConfig) ShutdownCheckIntervalDuration() time.Duration {
	return time.Duration(c.ShutdownCheckInterval) * time.Second
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// CooldownDuration 返回聊天冷却时长
func (c *ChatLimitConfig) CooldownDuration() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

// Load 加载配置文件，缺省字段使用默认值，环境变量优先于文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg
}

// applyDefaults 设置默认值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}

	if c.Game.OwnerGraceSeconds == 0 {
		c.Game.OwnerGraceSeconds = defaultOwnerGraceSeconds
	}
	if c.Game.ShutdownTimeout == 0 {
		c.Game.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Game.ShutdownCheckInterval == 0 {
		c.Game.ShutdownCheckInterval = defaultShutdownCheckInterval
	}

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	rl := &c.Security.RateLimit
	if rl.MaxPerSecond == 0 {
		rl.MaxPerSecond = defaultRatePerSecond
	}
	if rl.MaxPerMinute == 0 {
		rl.MaxPerMinute = defaultRatePerMinute
	}
	if rl.BanDuration == 0 {
		rl.BanDuration = defaultBanDuration
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = defaultMessagePerSecond
	}
	cl := &c.Security.ChatLimit
	if cl.MaxPerSecond == 0 {
		cl.MaxPerSecond = defaultChatPerSecond
	}
	if cl.MaxPerMinute == 0 {
		cl.MaxPerMinute = defaultChatPerMinute
	}
	if cl.Cooldown == 0 {
		cl.Cooldown = defaultChatCooldown
	}

	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}

// applyEnv 使用环境变量覆盖配置（容器部署时使用）
func (c *Config) applyEnv() {
	envString("SERVER_HOST", &c.Server.Host)
	envInt("SERVER_PORT", &c.Server.Port)
	envInt("SERVER_MAX_CONNECTIONS", &c.Server.MaxConnections)
	envString("REDIS_ADDR", &c.Redis.Addr)
	envString("REDIS_PASSWORD", &c.Redis.Password)
	envInt("REDIS_DB", &c.Redis.DB)
	envInt("GAME_OWNER_GRACE_SECONDS", &c.Game.OwnerGraceSeconds)
	envString("GAME_LEVELS_FILE", &c.Game.LevelsFile)
	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)
	envString("LOG_FILE", &c.Log.File)

	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		origins := make([]string, 0)
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			c.Security.AllowedOrigins = origins
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
