package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository"
	"github.com/services-psychologists-psychotherapists/backend/internal/worker"
	"go.uber.org/zap"
)

// Runner выполняет задачу вне критического пути и не ждёт её завершения
type Runner interface {
	Submit(name string, task worker.Task) bool
}

// MeetingProvisioner выдаёт пару ссылок на видеовстречу.
// Недоступность внешнего API возвращается как model.ErrProvisioningUnavailable.
type MeetingProvisioner interface {
	Provision(ctx context.Context, start time.Time, duration time.Duration) (clientLink, practitionerLink string, err error)
}

// NotificationDispatcher отправляет уведомления; ошибки доставки не возвращаются
type NotificationDispatcher interface {
	Notify(ctx context.Context, kind model.TemplateKind, data map[string]any, recipients []model.Participant)
}

// CancelledSession данные отменённой сессии для уведомлений
type CancelledSession struct {
	SessionID      uuid.UUID
	ClientID       int64
	PractitionerID int64
	StartTime      time.Time
	Initiator      model.Role
	Decision       model.RefundDecision
}

// Pipeline побочные эффекты после коммита: ссылки на встречу и уведомления
type Pipeline struct {
	runner      Runner
	sessions    repository.SessionStore
	provisioner MeetingProvisioner
	notifier    NotificationDispatcher
	directory   repository.ParticipantDirectory
	duration    time.Duration
	logger      *zap.Logger
}

func NewPipeline(
	runner Runner,
	sessions repository.SessionStore,
	provisioner MeetingProvisioner,
	notifier NotificationDispatcher,
	directory repository.ParticipantDirectory,
	duration time.Duration,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		runner:      runner,
		sessions:    sessions,
		provisioner: provisioner,
		notifier:    notifier,
		directory:   directory,
		duration:    duration,
		logger:      logger,
	}
}

// SessionBooked запрашивает ссылки на встречу, сохраняет их и уведомляет
// участников. Уведомление отправляется и без ссылок.
func (p *Pipeline) SessionBooked(session model.Session, slot model.Slot) {
	p.runner.Submit("session_booked:"+session.ID.String(), func(ctx context.Context) error {
		clientLink, practitionerLink := p.provision(ctx, session, slot)

		data := map[string]any{
			model.NotifyKeySessionID: session.ID.String(),
			model.NotifyKeyStartTime: slot.StartTime,
		}
		if clientLink != "" {
			data[model.NotifyKeyClientLink] = clientLink
			data[model.NotifyKeyPractitionerLink] = practitionerLink
		}

		p.notify(ctx, model.TemplateSessionCreatedClient, data, session.ClientID, model.RoleClient)
		p.notify(ctx, model.TemplateSessionCreatedPractitioner, data, slot.PractitionerID, model.RolePractitioner)
		return nil
	})
}

// SessionCancelled уведомляет обоих участников об отмене и решении о возврате
func (p *Pipeline) SessionCancelled(cancelled CancelledSession) {
	p.runner.Submit("session_cancelled:"+cancelled.SessionID.String(), func(ctx context.Context) error {
		data := map[string]any{
			model.NotifyKeySessionID:     cancelled.SessionID.String(),
			model.NotifyKeyStartTime:     cancelled.StartTime,
			model.NotifyKeyInitiator:     string(cancelled.Initiator),
			model.NotifyKeyLateCancel:    cancelled.Decision.LateCancel,
			model.NotifyKeyRefundGranted: cancelled.Decision.Granted,
		}

		p.notify(ctx, model.TemplateSessionCancelledClient, data, cancelled.ClientID, model.RoleClient)
		p.notify(ctx, model.TemplateSessionCancelledPractitioner, data, cancelled.PractitionerID, model.RolePractitioner)
		return nil
	})
}

func (p *Pipeline) provision(ctx context.Context, session model.Session, slot model.Slot) (string, string) {
	clientLink, practitionerLink, err := p.provisioner.Provision(ctx, slot.StartTime, p.duration)
	if err != nil {
		p.logger.Warn("Meeting provisioning failed",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
		return "", ""
	}

	if err := p.sessions.UpdateLinks(ctx, session.ID, clientLink, practitionerLink); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			p.logger.Warn("Session cancelled before meeting links were saved",
				zap.String("session_id", session.ID.String()),
			)
			return "", ""
		}
		p.logger.Error("Failed to save meeting links",
			zap.String("session_id", session.ID.String()),
			zap.Error(err),
		)
	}

	p.logger.Info("Meeting provisioned", zap.String("session_id", session.ID.String()))

	return clientLink, practitionerLink
}

func (p *Pipeline) notify(ctx context.Context, kind model.TemplateKind, data map[string]any, userID int64, role model.Role) {
	participant, err := p.directory.GetParticipant(ctx, userID, role)
	if err != nil {
		p.logger.Error("Failed to load participant",
			zap.Int64("user_id", userID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return
	}

	if participant == nil {
		p.logger.Warn("Participant not found, notification skipped",
			zap.Int64("user_id", userID),
			zap.String("role", string(role)),
			zap.String("template", string(kind)),
		)
		return
	}

	p.notifier.Notify(ctx, kind, data, []model.Participant{*participant})
}
