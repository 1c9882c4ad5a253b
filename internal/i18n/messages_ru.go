package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Russian

	// Возврат оплаты
	message.SetString(lang, RefundClientLateKey, "Вы отменили позднее чем за %d ч. до начала, поэтому оплата не возвращается.")
	message.SetString(lang, RefundClientOnTimeKey, "Оплата вернется в течение 7 дней.")
	message.SetString(lang, RefundPractitionerKey, "Сессия отменена специалистом, клиенту будет возвращена полная стоимость.")

	// Уведомления
	message.SetString(lang, GreetingKey, "Здравствуйте, %s!")
	message.SetString(lang, LinkPendingKey, "Ссылка на встречу придёт отдельно.")
	message.SetString(lang, CreatedSubjectKey, "Запись на сессию %s")
	message.SetString(lang, CreatedClientBodyKey, "Вы записаны на сессию %s. Ссылка для подключения: %s")
	message.SetString(lang, CreatedPractitionerBodyKey, "К вам записались на сессию %s. Ссылка для начала встречи: %s")
	message.SetString(lang, CancelledSubjectKey, "Сессия %s отменена")
	message.SetString(lang, CancelledByYouKey, "Вы отменили сессию %s.")
	message.SetString(lang, CancelledByClientKey, "Клиент отменил сессию %s.")
	message.SetString(lang, CancelledByPractitionerKey, "Специалист отменил сессию %s.")
	message.SetString(lang, RefundGrantedNoteKey, "Оплата будет возвращена.")
	message.SetString(lang, RefundWithheldNoteKey, "Отмена поздняя, оплата не возвращается.")
}
