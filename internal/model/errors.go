package model

import "errors"

// ErrorKind класс ошибки, определяет поведение вызывающей стороны
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindConflict            ErrorKind = "conflict"
	KindNotFound            ErrorKind = "not_found"
	KindAuthorization       ErrorKind = "authorization"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindInternal            ErrorKind = "internal"
)

// Error доменная ошибка. Сравнение через errors.Is выполняется по коду.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrPastStartTime   = newError(KindValidation, "past_start_time", "slot start time is in the past")
	ErrOverlapConflict = newError(KindValidation, "overlap_conflict", "slot overlaps another slot of the practitioner")
	ErrSlotInPast      = newError(KindValidation, "slot_in_past", "slot is in the past")

	// ErrConcurrentOverlap тот же код, что и ErrOverlapConflict, но пересечение
	// обнаружено ограничением в БД при гонке создания слотов
	ErrConcurrentOverlap      = newError(KindConflict, "overlap_conflict", "slot overlaps a concurrently created slot")
	ErrSlotAlreadyBooked      = newError(KindConflict, "slot_already_booked", "slot is already booked")
	ErrClientHasActiveSession = newError(KindConflict, "client_has_active_session", "client already has an upcoming session")

	ErrSlotNotFound    = newError(KindNotFound, "slot_not_found", "slot not found")
	ErrSessionNotFound = newError(KindNotFound, "session_not_found", "session not found")
	ErrPriceNotFound   = newError(KindNotFound, "price_not_found", "practitioner has no priced service")

	ErrNotParticipant = newError(KindAuthorization, "not_participant", "actor is not a participant of the session")
	ErrNotOwner       = newError(KindAuthorization, "not_owner", "slot does not belong to practitioner")

	ErrProvisioningUnavailable = newError(KindUpstreamUnavailable, "provisioning_unavailable", "meeting provisioning is unavailable")
)

// KindOf возвращает класс ошибки; для не доменных ошибок KindInternal
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf возвращает код доменной ошибки или пустую строку
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
