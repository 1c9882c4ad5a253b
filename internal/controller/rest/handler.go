package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type SlotService interface {
	CreateSlot(ctx context.Context, practitionerID int64, start time.Time) (*model.Slot, error)
	ListSlots(ctx context.Context, practitionerID int64, since time.Time) ([]*model.SlotView, error)
	ListFreeSlots(ctx context.Context, practitionerID int64, since time.Time) ([]*model.Slot, error)
	DeleteSlot(ctx context.Context, practitionerID int64, slotID uuid.UUID) error
}

type BookingService interface {
	Book(ctx context.Context, clientID int64, slotID uuid.UUID) (*model.Session, error)
	GetSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Session, error)
}

type CancellationService interface {
	Cancel(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.RefundDecision, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	slots        SlotService
	booking      BookingService
	cancellation CancellationService
	health       HealthChecker
	logger       *zap.Logger
}

func NewHandler(
	slots SlotService,
	booking BookingService,
	cancellation CancellationService,
	health HealthChecker,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		slots:        slots,
		booking:      booking,
		cancellation: cancellation,
		health:       health,
		logger:       logger,
	}
}

type createSlotRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
}

type bookRequest struct {
	SlotID uuid.UUID `json:"slot_id" binding:"required"`
}

// CreateSlot POST /api/v1/slots
func (h *Handler) CreateSlot(c *gin.Context) {
	var input createSlotRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "details": err.Error()})
		return
	}

	slot, err := h.slots.CreateSlot(c.Request.Context(), actorFrom(c).UserID, input.StartTime)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, slot)
}

// ListSlots GET /api/v1/slots?since=YYYY-MM-DD
func (h *Handler) ListSlots(c *gin.Context) {
	since, ok := parseSince(c)
	if !ok {
		return
	}

	views, err := h.slots.ListSlots(c.Request.Context(), actorFrom(c).UserID, since)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if views == nil {
		views = []*model.SlotView{}
	}
	c.JSON(http.StatusOK, views)
}

// DeleteSlot DELETE /api/v1/slots/:id
func (h *Handler) DeleteSlot(c *gin.Context) {
	slotID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.slots.DeleteSlot(c.Request.Context(), actorFrom(c).UserID, slotID); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFreeSlots GET /api/v1/practitioners/:id/free-slots?since=YYYY-MM-DD
func (h *Handler) ListFreeSlots(c *gin.Context) {
	practitionerID, err := parseInt64(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "details": err.Error()})
		return
	}

	since, ok := parseSince(c)
	if !ok {
		return
	}

	slots, err := h.slots.ListFreeSlots(c.Request.Context(), practitionerID, since)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if slots == nil {
		slots = []*model.Slot{}
	}
	c.JSON(http.StatusOK, slots)
}

// BookSession POST /api/v1/sessions
func (h *Handler) BookSession(c *gin.Context) {
	var input bookRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "details": err.Error()})
		return
	}

	session, err := h.booking.Book(c.Request.Context(), actorFrom(c).UserID, input.SlotID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	sessionID, ok := parseID(c)
	if !ok {
		return
	}

	session, err := h.booking.GetSession(c.Request.Context(), actorFrom(c), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CancelSession DELETE /api/v1/sessions/:id
func (h *Handler) CancelSession(c *gin.Context) {
	sessionID, ok := parseID(c)
	if !ok {
		return
	}

	decision, err := h.cancellation.Cancel(c.Request.Context(), actorFrom(c), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// Health GET /healthz
func (h *Handler) Health(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "details": err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

// parseSince читает дату since; без параметра используется начало текущего дня (UTC)
func parseSince(c *gin.Context) (time.Time, bool) {
	raw := c.Query("since")
	if raw == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), true
	}

	since, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_since", "details": "since must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return since, true
}
