package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSessionDuration продолжительность сессии по умолчанию
const DefaultSessionDuration = 50 * time.Minute

type Slot struct {
	ID             uuid.UUID `json:"id"`
	PractitionerID int64     `json:"practitioner_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"` // всегда StartTime + длительность сессии
	IsFree         bool      `json:"is_free"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewSlot создаёт свободный слот с вычисленным временем окончания
func NewSlot(practitionerID int64, start time.Time, duration time.Duration) *Slot {
	return &Slot{
		ID:             uuid.New(),
		PractitionerID: practitionerID,
		StartTime:      start,
		EndTime:        start.Add(duration),
		IsFree:         true,
	}
}

// Overlaps проверяет пересечение полуинтервалов [start, end)
func (s *Slot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && start.Before(s.EndTime)
}

// SlotView слот в календаре специалиста вместе с краткой информацией о сессии
type SlotView struct {
	Slot
	SessionID        *uuid.UUID `json:"session_id,omitempty"`
	ClientID         *int64     `json:"client_id,omitempty"`
	PractitionerLink *string    `json:"href,omitempty"`
}
