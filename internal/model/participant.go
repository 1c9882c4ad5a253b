package model

type Role string

const (
	RoleClient       Role = "client"
	RolePractitioner Role = "practitioner"
)

// Actor пользователь, от имени которого выполняется операция.
// Идентичность и роль уже проверены внешним провайдером аутентификации.
type Actor struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

func (a Actor) IsPractitioner() bool {
	return a.Role == RolePractitioner
}

// Participant контактные данные участника сессии для уведомлений
type Participant struct {
	UserID         int64  `json:"user_id"`
	Role           Role   `json:"role"`
	FirstName      string `json:"first_name"`
	Email          string `json:"email"`
	TelegramChatID *int64 `json:"telegram_chat_id"` // nil если Telegram не привязан
	Locale         string `json:"locale"`
}

// PractitionerService услуга специалиста с ценой
type PractitionerService struct {
	ID             int64  `json:"id"`
	PractitionerID int64  `json:"practitioner_id"`
	Title          string `json:"title"`
	Price          int    `json:"price"` // в рублях
}
