package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Ключи сообщений
const (
	RefundClientLateKey        = "refund.client_late"
	RefundClientOnTimeKey      = "refund.client_on_time"
	RefundPractitionerKey      = "refund.practitioner"
	GreetingKey                = "notify.greeting"
	LinkPendingKey             = "notify.link_pending"
	CreatedSubjectKey          = "notify.session_created.subject"
	CreatedClientBodyKey       = "notify.session_created_client.body"
	CreatedPractitionerBodyKey = "notify.session_created_practitioner.body"
	CancelledSubjectKey        = "notify.session_cancelled.subject"
	CancelledByYouKey          = "notify.session_cancelled.by_you"
	CancelledByClientKey       = "notify.session_cancelled.by_client"
	CancelledByPractitionerKey = "notify.session_cancelled.by_practitioner"
	RefundGrantedNoteKey       = "notify.refund.granted"
	RefundWithheldNoteKey      = "notify.refund.withheld"
)

var supportedTags = []language.Tag{
	language.Russian,
	language.English,
}

var tagMatcher = language.NewMatcher(supportedTags)

// Default язык по умолчанию
func Default() language.Tag {
	return language.Russian
}

// Resolve подбирает поддерживаемый язык; пустая или неизвестная локаль даёт fallback
func Resolve(locale string, fallback language.Tag) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return fallback
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return fallback
	}

	_, index, confidence := tagMatcher.Match(tag)
	if confidence == language.No {
		return fallback
	}
	return supportedTags[index]
}

// Printer возвращает принтер сообщений для локали
func Printer(locale string, fallback language.Tag) *message.Printer {
	return message.NewPrinter(Resolve(locale, fallback))
}
