package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/services-psychologists-psychotherapists/backend/internal/i18n"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const startTimeLayout = "02.01.2006 15:04"

// Message готовый к отправке текст уведомления
type Message struct {
	Subject string
	Body    string
}

// Renderer формирует текст уведомления на языке получателя
type Renderer struct {
	fallback language.Tag
	location *time.Location
}

func NewRenderer(fallback language.Tag, location *time.Location) *Renderer {
	if location == nil {
		location = time.UTC
	}
	return &Renderer{fallback: fallback, location: location}
}

// Render возвращает сообщение по шаблону kind. Отсутствующие ссылки заменяются
// текстом о том, что ссылка придёт позже.
func (r *Renderer) Render(kind model.TemplateKind, data map[string]any, recipient model.Participant) (Message, error) {
	printer := i18n.Printer(recipient.Locale, r.fallback)
	start := r.startTime(data)

	var subject, text string
	switch kind {
	case model.TemplateSessionCreatedClient:
		subject = printer.Sprintf(i18n.CreatedSubjectKey, start)
		text = printer.Sprintf(i18n.CreatedClientBodyKey, start, link(printer, data, model.NotifyKeyClientLink))
	case model.TemplateSessionCreatedPractitioner:
		subject = printer.Sprintf(i18n.CreatedSubjectKey, start)
		text = printer.Sprintf(i18n.CreatedPractitionerBodyKey, start, link(printer, data, model.NotifyKeyPractitionerLink))
	case model.TemplateSessionCancelledClient, model.TemplateSessionCancelledPractitioner:
		subject = printer.Sprintf(i18n.CancelledSubjectKey, start)
		text = printer.Sprintf(cancelledKey(kind, data), start) + "\n" + refundNote(printer, data)
	default:
		return Message{}, fmt.Errorf("unknown notification template %q", kind)
	}

	body := text
	if name := strings.TrimSpace(recipient.FirstName); name != "" {
		body = printer.Sprintf(i18n.GreetingKey, name) + "\n\n" + text
	}

	return Message{Subject: subject, Body: body}, nil
}

func (r *Renderer) startTime(data map[string]any) string {
	start, ok := data[model.NotifyKeyStartTime].(time.Time)
	if !ok {
		return ""
	}
	return start.In(r.location).Format(startTimeLayout)
}

func link(printer *message.Printer, data map[string]any, key string) string {
	if value, ok := data[key].(string); ok && value != "" {
		return value
	}
	return printer.Sprintf(i18n.LinkPendingKey)
}

func cancelledKey(kind model.TemplateKind, data map[string]any) string {
	initiator, _ := data[model.NotifyKeyInitiator].(string)

	switch {
	case kind == model.TemplateSessionCancelledClient && initiator == string(model.RoleClient):
		return i18n.CancelledByYouKey
	case kind == model.TemplateSessionCancelledClient:
		return i18n.CancelledByPractitionerKey
	case initiator == string(model.RolePractitioner):
		return i18n.CancelledByYouKey
	default:
		return i18n.CancelledByClientKey
	}
}

func refundNote(printer *message.Printer, data map[string]any) string {
	if granted, _ := data[model.NotifyKeyRefundGranted].(bool); granted {
		return printer.Sprintf(i18n.RefundGrantedNoteKey)
	}
	return printer.Sprintf(i18n.RefundWithheldNoteKey)
}
