package model

// TemplateKind идентификатор шаблона уведомления
type TemplateKind string

const (
	TemplateSessionCreatedClient         TemplateKind = "session_created_client"
	TemplateSessionCreatedPractitioner   TemplateKind = "session_created_practitioner"
	TemplateSessionCancelledClient       TemplateKind = "session_cancelled_client"
	TemplateSessionCancelledPractitioner TemplateKind = "session_cancelled_practitioner"
)

// Ключи контекста уведомлений
const (
	NotifyKeySessionID        = "session_id"
	NotifyKeyStartTime        = "start_time"
	NotifyKeyClientLink       = "client_link"
	NotifyKeyPractitionerLink = "practitioner_link"
	NotifyKeyInitiator        = "initiator"
	NotifyKeyLateCancel       = "late_cancel"
	NotifyKeyRefundGranted    = "refund_granted"
)
