package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	// Refunds
	message.SetString(lang, RefundClientLateKey, "You cancelled less than %d hours before the start, so the payment is not refunded.")
	message.SetString(lang, RefundClientOnTimeKey, "The payment will be returned within 7 days.")
	message.SetString(lang, RefundPractitionerKey, "The session was cancelled; the client will get a full refund.")

	// Notifications
	message.SetString(lang, GreetingKey, "Hello, %s!")
	message.SetString(lang, LinkPendingKey, "The meeting link will be sent separately.")
	message.SetString(lang, CreatedSubjectKey, "Session booked for %s")
	message.SetString(lang, CreatedClientBodyKey, "You are booked for a session at %s. Join link: %s")
	message.SetString(lang, CreatedPractitionerBodyKey, "A client booked your session at %s. Start link: %s")
	message.SetString(lang, CancelledSubjectKey, "Session at %s cancelled")
	message.SetString(lang, CancelledByYouKey, "You cancelled the session at %s.")
	message.SetString(lang, CancelledByClientKey, "The client cancelled the session at %s.")
	message.SetString(lang, CancelledByPractitionerKey, "The practitioner cancelled the session at %s.")
	message.SetString(lang, RefundGrantedNoteKey, "The payment will be refunded.")
	message.SetString(lang, RefundWithheldNoteKey, "The cancellation was late, the payment is not refunded.")
}
