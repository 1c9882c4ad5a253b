package service

import (
	"time"

	"github.com/services-psychologists-psychotherapists/backend/internal/i18n"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RefundPolicy решает, возвращается ли оплата при отмене сессии
type RefundPolicy struct {
	NonPenaltyPeriod time.Duration
	Locale           language.Tag
}

func NewRefundPolicy(nonPenaltyPeriod time.Duration, locale language.Tag) RefundPolicy {
	return RefundPolicy{NonPenaltyPeriod: nonPenaltyPeriod, Locale: locale}
}

// Decide вычисляет решение о возврате. Отмена специалистом всегда с полным
// возвратом, отмена клиентом позднее NonPenaltyPeriod до начала без возврата.
func (p RefundPolicy) Decide(initiator model.Role, start, now time.Time) model.RefundDecision {
	printer := message.NewPrinter(p.Locale)

	if initiator == model.RolePractitioner {
		return model.RefundDecision{
			Granted: true,
			Message: printer.Sprintf(i18n.RefundPractitionerKey),
		}
	}

	if start.Sub(now) < p.NonPenaltyPeriod {
		return model.RefundDecision{
			Granted:    false,
			LateCancel: true,
			Message:    printer.Sprintf(i18n.RefundClientLateKey, int(p.NonPenaltyPeriod.Hours())),
		}
	}

	return model.RefundDecision{
		Granted: true,
		Message: printer.Sprintf(i18n.RefundClientOnTimeKey),
	}
}
