package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// windowLimiter 秒级 + 分钟级两个令牌桶
type windowLimiter struct {
	second   *rate.Limiter
	minute   *rate.Limiter
	lastSeen time.Time
}

func newWindowLimiter(perSecond, perMinute int) *windowLimiter {
	return &windowLimiter{
		second: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		minute: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// allow 先查秒级，秒级拒绝时不消耗分钟配额
func (w *windowLimiter) allow(now time.Time) (secondOK, minuteOK bool) {
	w.lastSeen = now
	if !w.second.AllowN(now, 1) {
		return false, true
	}
	return true, w.minute.AllowN(now, 1)
}

// RateLimiter 按 IP 的连接速率限制器
type RateLimiter struct {
	requests map[string]*ipRate
	mu       sync.Mutex

	maxPerSecond    int
	maxPerMinute    int
	banDuration     time.Duration
	cleanupInterval time.Duration
}

type ipRate struct {
	*windowLimiter
	bannedUntil time.Time
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests:        make(map[string]*ipRate),
		maxPerSecond:    maxPerSecond,
		maxPerMinute:    maxPerMinute,
		banDuration:     banDuration,
		cleanupInterval: 5 * time.Minute,
	}

	go rl.cleanup()

	return rl
}

// Allow 检查是否允许请求，超限后封禁 banDuration
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	r, ok := rl.requests[ip]
	if !ok {
		r = &ipRate{windowLimiter: newWindowLimiter(rl.maxPerSecond, rl.maxPerMinute)}
		rl.requests[ip] = r
	}

	if now.Before(r.bannedUntil) {
		return false
	}

	secondOK, minuteOK := r.allow(now)
	if !secondOK || !minuteOK {
		r.bannedUntil = now.Add(rl.banDuration)
		log.Warnf("⚠️ IP %s 因请求过于频繁被暂时封禁 %v", ip, rl.banDuration)
		return false
	}
	return true
}

// IsBanned 检查 IP 是否被封禁
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	r, ok := rl.requests[ip]
	if !ok {
		return false
	}
	return time.Now().Before(r.bannedUntil)
}

// cleanup 清理 10 分钟无请求且未封禁的记录
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, r := range rl.requests {
			if now.Sub(r.lastSeen) > 10*time.Minute && now.After(r.bannedUntil) {
				delete(rl.requests, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器，"*" 表示允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(origin)] = true
	}

	return oc
}

// Check 检查来源是否允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// 非浏览器客户端
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- IP 白名单/黑名单 ---

// IPFilter IP 过滤器
type IPFilter struct {
	whitelist map[string]bool
	blacklist map[string]bool
	mu        sync.RWMutex
}

// NewIPFilter 创建 IP 过滤器
func NewIPFilter() *IPFilter {
	return &IPFilter{
		whitelist: make(map[string]bool),
		blacklist: make(map[string]bool),
	}
}

// AddToWhitelist 添加到白名单
func (f *IPFilter) AddToWhitelist(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.whitelist[ip] = true
}

// AddToBlacklist 添加到黑名单
func (f *IPFilter) AddToBlacklist(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist[ip] = true
}

// RemoveFromBlacklist 从黑名单移除
func (f *IPFilter) RemoveFromBlacklist(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blacklist, ip)
}

// IsAllowed 检查 IP 是否允许，黑名单优先
func (f *IPFilter) IsAllowed(ip string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.blacklist[ip] {
		return false
	}
	if len(f.whitelist) > 0 && !f.whitelist[ip] {
		return false
	}
	return true
}

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- 消息速率限制 ---

// MessageRateLimiter 已连接客户端的消息速率限制器
type MessageRateLimiter struct {
	limits map[string]*messageRate
	mu     sync.Mutex

	maxPerSecond     int
	warningThreshold int
}

type messageRate struct {
	limiter  *rate.Limiter
	warnings int
}

// NewMessageRateLimiter 创建消息速率限制器
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		limits:           make(map[string]*messageRate),
		maxPerSecond:     maxPerSecond,
		warningThreshold: maxPerSecond / 2,
	}
}

// AllowMessage 检查是否允许消息；剩余令牌低于一半时附带警告
func (ml *MessageRateLimiter) AllowMessage(clientID string) (allowed bool, warning bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	mr, ok := ml.limits[clientID]
	if !ok {
		mr = &messageRate{limiter: rate.NewLimiter(rate.Limit(ml.maxPerSecond), ml.maxPerSecond)}
		ml.limits[clientID] = mr
	}

	now := time.Now()
	if !mr.limiter.AllowN(now, 1) {
		mr.warnings++
		return false, true
	}

	used := float64(ml.maxPerSecond) - mr.limiter.TokensAt(now)
	return true, used > float64(ml.warningThreshold)
}

// GetWarningCount 获取超限次数
func (ml *MessageRateLimiter) GetWarningCount(clientID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if mr, ok := ml.limits[clientID]; ok {
		return mr.warnings
	}
	return 0
}

// RemoveClient 移除客户端记录
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.limits, clientID)
}

// --- 聊天速率限制 ---

// ChatRateLimiter 聊天速率限制器，超限后进入冷却
type ChatRateLimiter struct {
	limits map[string]*chatRate
	mu     sync.Mutex

	maxPerSecond int
	maxPerMinute int
	cooldown     time.Duration
}

type chatRate struct {
	*windowLimiter
	cooldownUntil time.Time
}

// NewChatRateLimiter 创建聊天速率限制器
func NewChatRateLimiter(maxPerSecond, maxPerMinute int, cooldown time.Duration) *ChatRateLimiter {
	return &ChatRateLimiter{
		limits:       make(map[string]*chatRate),
		maxPerSecond: maxPerSecond,
		maxPerMinute: maxPerMinute,
		cooldown:     cooldown,
	}
}

// AllowChat 检查是否允许发送聊天，拒绝时返回提示
func (cl *ChatRateLimiter) AllowChat(clientID string) (allowed bool, reason string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	cr, ok := cl.limits[clientID]
	if !ok {
		cr = &chatRate{windowLimiter: newWindowLimiter(cl.maxPerSecond, cl.maxPerMinute)}
		cl.limits[clientID] = cr
	}

	if now.Before(cr.cooldownUntil) {
		remaining := cr.cooldownUntil.Sub(now).Round(time.Second)
		return false, "箱子还在冷却，" + remaining.String() + " 后再说吧"
	}

	secondOK, minuteOK := cr.allow(now)
	switch {
	case !secondOK:
		cr.cooldownUntil = now.Add(cl.cooldown)
		return false, "发言太快了，先推会儿箱子"
	case !minuteOK:
		cr.cooldownUntil = now.Add(cl.cooldown)
		return false, "这一分钟说得够多了，休息一下"
	}
	return true, ""
}

// RemoveClient 移除客户端记录
func (cl *ChatRateLimiter) RemoveClient(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	delete(cl.limits, clientID)
}
