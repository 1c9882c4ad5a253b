package rest

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	actorKey = "actor"
)

// Identity читает пользователя из заголовков шлюза аутентификации.
// Заголовкам доверяем: проверка токена выполняется до сервиса.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := parseInt64(c.GetHeader(HeaderUserID))
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"details": "missing or invalid " + HeaderUserID + " header",
			})
			return
		}

		role := model.Role(c.GetHeader(HeaderUserRole))
		if role != model.RoleClient && role != model.RolePractitioner {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"details": "invalid or missing " + HeaderUserRole + " header, expected 'client' or 'practitioner'",
			})
			return
		}

		c.Set(actorKey, model.Actor{UserID: userID, Role: role})
		c.Next()
	}
}

// RequireRole пропускает только пользователей с указанной ролью
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actorFrom(c).Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"details": "operation requires role " + string(role),
			})
			return
		}
		c.Next()
	}
}

// RequestLogger пишет в лог каждый запрос
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func actorFrom(c *gin.Context) model.Actor {
	actor, _ := c.MustGet(actorKey).(model.Actor)
	return actor
}

func parseInt64(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

// rateLimiterCapacity сколько пользователей помнит ограничитель;
// давно не приходившие вытесняются и начинают с полным запасом
const rateLimiterCapacity = 10000

// rateLimiter хранит лимитеры последних активных пользователей
type rateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *lru.Cache[int64, *rate.Limiter]
}

func newRateLimiter(perMinute, burst, capacity int) *rateLimiter {
	if capacity <= 0 {
		capacity = rateLimiterCapacity
	}
	// lru.New возвращает ошибку только для capacity <= 0
	cache, _ := lru.New[int64, *rate.Limiter](capacity)

	return &rateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		limiters: cache,
	}
}

func (l *rateLimiter) get(userID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(userID)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(userID, limiter)
	}
	return limiter
}

// RateLimit ограничивает частоту запросов одного пользователя.
// Должен стоять после Identity.
func RateLimit(perMinute, burst int, logger *zap.Logger) gin.HandlerFunc {
	limiter := newRateLimiter(perMinute, burst, rateLimiterCapacity)

	return func(c *gin.Context) {
		actor := actorFrom(c)
		if !limiter.get(actor.UserID).Allow() {
			logger.Warn("Rate limit exceeded", zap.Int64("user_id", actor.UserID))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"details": "too many requests, try again later",
			})
			return
		}
		c.Next()
	}
}
