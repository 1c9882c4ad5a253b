package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusUnpaid SessionStatus = "unpaid" // Требуется оплата
	SessionStatusPaid   SessionStatus = "paid"   // Оплачена
)

type Session struct {
	ID                      uuid.UUID     `json:"id"`
	ClientID                int64         `json:"client_id"`
	SlotID                  uuid.UUID     `json:"slot_id"`
	Price                   int           `json:"price"` // фиксируется в момент записи
	Status                  SessionStatus `json:"status"`
	ClientMeetingLink       *string       `json:"client_meeting_link"`       // nil до получения ссылок
	PractitionerMeetingLink *string       `json:"practitioner_meeting_link"` // nil до получения ссылок
	CreatedAt               time.Time     `json:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at"`

	// Дополнительные поля для удобства (не из таблицы sessions)
	Slot *Slot `json:"slot,omitempty"`
}

// HasLinks сообщает, получены ли ссылки на встречу
func (s *Session) HasLinks() bool {
	return s.ClientMeetingLink != nil && s.PractitionerMeetingLink != nil
}

// RefundDecision решение о возврате оплаты при отмене сессии
type RefundDecision struct {
	Granted    bool   `json:"granted"`
	LateCancel bool   `json:"late_cancel"`
	Message    string `json:"details"`
}
