package rest

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"go.uber.org/zap"
)

// RouterConfig настройки HTTP слоя
type RouterConfig struct {
	AllowOrigins []string
	// RateLimit запросов в минуту на пользователя; 0 отключает ограничение
	RateLimit int
	RateBurst int
}

// NewRouter регистрирует маршруты API
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	if len(cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowOrigins,
			AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", HeaderUserID, HeaderUserRole},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/healthz", h.Health)

	api := router.Group("/api/v1", Identity())
	if cfg.RateLimit > 0 {
		api.Use(RateLimit(cfg.RateLimit, cfg.RateBurst, logger))
	}

	practitioner := api.Group("/slots", RequireRole(model.RolePractitioner))
	practitioner.POST("", h.CreateSlot)
	practitioner.GET("", h.ListSlots)
	practitioner.DELETE("/:id", h.DeleteSlot)

	api.GET("/practitioners/:id/free-slots", h.ListFreeSlots)

	api.POST("/sessions", RequireRole(model.RoleClient), h.BookSession)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.CancelSession)

	return router
}
