package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository"
	"go.uber.org/zap"
)

type CancellationService struct {
	store    repository.Transactor
	policy   RefundPolicy
	pipeline *Pipeline
	clock    Clock
	logger   *zap.Logger
}

func NewCancellationService(
	store repository.Transactor,
	policy RefundPolicy,
	pipeline *Pipeline,
	clock Clock,
	logger *zap.Logger,
) *CancellationService {
	return &CancellationService{
		store:    store,
		policy:   policy,
		pipeline: pipeline,
		clock:    clock,
		logger:   logger,
	}
}

// Cancel отменяет сессию по запросу клиента или специалиста: освобождает слот,
// удаляет сессию и возвращает решение о возврате оплаты
func (s *CancellationService) Cancel(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.RefundDecision, error) {
	var (
		decision  model.RefundDecision
		cancelled CancelledSession
	)

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		// Сначала слот, затем сессия: в том же порядке блокируют Book и DeleteSlot
		current, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return err
		}

		if current == nil {
			return model.ErrSessionNotFound
		}

		if _, err := tx.Slots().GetByIDForUpdate(ctx, current.SlotID); err != nil {
			return err
		}

		// Повторная отмена или удаление слота видны только после блокировки
		session, err := tx.Sessions().GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		if session == nil || session.Slot == nil || session.SlotID != current.SlotID {
			return model.ErrSessionNotFound
		}

		if !isParticipant(actor, session) {
			return model.ErrNotParticipant
		}

		decision = s.policy.Decide(actor.Role, session.Slot.StartTime, s.clock.Now())

		if err := tx.Slots().MarkFree(ctx, session.SlotID); err != nil {
			return err
		}

		if err := tx.Sessions().Delete(ctx, session.ID); err != nil {
			return err
		}

		cancelled = CancelledSession{
			SessionID:      session.ID,
			ClientID:       session.ClientID,
			PractitionerID: session.Slot.PractitionerID,
			StartTime:      session.Slot.StartTime,
			Initiator:      actor.Role,
			Decision:       decision,
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel session: %w", err)
	}

	s.logger.Info("Session canceled",
		zap.String("session_id", sessionID.String()),
		zap.Int64("actor_id", actor.UserID),
		zap.String("initiator", string(actor.Role)),
		zap.Bool("late_cancel", decision.LateCancel),
		zap.Bool("refund_granted", decision.Granted),
	)

	s.pipeline.SessionCancelled(cancelled)

	return &decision, nil
}
