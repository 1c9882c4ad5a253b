package notify

import (
	"context"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"go.uber.org/zap"
)

// Sender канал доставки уведомлений
type Sender interface {
	Name() string
	// Supports сообщает, есть ли у получателя адрес для этого канала
	Supports(recipient model.Participant) bool
	Send(ctx context.Context, recipient model.Participant, msg Message) error
}

// Dispatcher рендерит уведомление и отправляет его во все доступные каналы.
// Ошибки только логируются, повторных попыток нет.
type Dispatcher struct {
	renderer *Renderer
	senders  []Sender
	logger   *zap.Logger
}

func NewDispatcher(renderer *Renderer, logger *zap.Logger, senders ...Sender) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		senders:  senders,
		logger:   logger,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, kind model.TemplateKind, data map[string]any, recipients []model.Participant) {
	for _, recipient := range recipients {
		msg, err := d.renderer.Render(kind, data, recipient)
		if err != nil {
			d.logger.Error("Failed to render notification",
				zap.String("template", string(kind)),
				zap.Error(err),
			)
			continue
		}

		delivered := 0
		for _, sender := range d.senders {
			if !sender.Supports(recipient) {
				continue
			}

			if err := sender.Send(ctx, recipient, msg); err != nil {
				d.logger.Error("Notification delivery failed",
					zap.String("template", string(kind)),
					zap.String("channel", sender.Name()),
					zap.Int64("user_id", recipient.UserID),
					zap.Error(err),
				)
				continue
			}
			delivered++
		}

		if delivered == 0 {
			d.logger.Warn("Notification not delivered",
				zap.String("template", string(kind)),
				zap.Int64("user_id", recipient.UserID),
			)
			continue
		}

		d.logger.Info("Notification sent",
			zap.String("template", string(kind)),
			zap.Int64("user_id", recipient.UserID),
			zap.Int("channels", delivered),
		)
	}
}
