package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository"
	"go.uber.org/zap"
)

type SlotService struct {
	store          repository.Transactor
	validator      OverlapValidator
	policy         RefundPolicy
	pipeline       *Pipeline
	clock          Clock
	calendarWindow time.Duration
	logger         *zap.Logger
}

func NewSlotService(
	store repository.Transactor,
	validator OverlapValidator,
	policy RefundPolicy,
	pipeline *Pipeline,
	clock Clock,
	calendarWindow time.Duration,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		store:          store,
		validator:      validator,
		policy:         policy,
		pipeline:       pipeline,
		clock:          clock,
		calendarWindow: calendarWindow,
		logger:         logger,
	}
}

// CreateSlot создаёт свободный слот специалиста. Проверка пересечений и вставка
// выполняются под блокировкой расписания специалиста.
func (s *SlotService) CreateSlot(ctx context.Context, practitionerID int64, start time.Time) (*model.Slot, error) {
	slot := model.NewSlot(practitionerID, start, s.validator.Duration)

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Lock(ctx, repository.PractitionerLockKey(practitionerID)); err != nil {
			return err
		}

		existing, err := tx.Slots().ListOverlapping(ctx, practitionerID, slot.StartTime, slot.EndTime)
		if err != nil {
			return err
		}

		if err := s.validator.Validate(s.clock.Now(), slot.StartTime, existing); err != nil {
			return err
		}

		return tx.Slots().Create(ctx, slot)
	})
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.Int64("practitioner_id", practitionerID),
		zap.Time("start_time", slot.StartTime),
	)

	return slot, nil
}

// ListSlots возвращает календарь специалиста: будущие слоты с since по since+окно,
// занятые слоты содержат данные сессии
func (s *SlotService) ListSlots(ctx context.Context, practitionerID int64, since time.Time) ([]*model.SlotView, error) {
	from := since
	if now := s.clock.Now(); now.After(from) {
		from = now
	}

	views, err := s.store.Slots().ListCalendar(ctx, practitionerID, from, since.Add(s.calendarWindow))
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return views, nil
}

// ListFreeSlots возвращает свободные слоты, которые начинаются в будущем и не раньше since
func (s *SlotService) ListFreeSlots(ctx context.Context, practitionerID int64, since time.Time) ([]*model.Slot, error) {
	after := s.clock.Now()
	// ListFree отбирает start_time > after, а since включается в выборку
	if edge := since.Add(-time.Nanosecond); edge.After(after) {
		after = edge
	}

	slots, err := s.store.Slots().ListFree(ctx, practitionerID, after)
	if err != nil {
		return nil, fmt.Errorf("list free slots: %w", err)
	}
	return slots, nil
}

// DeleteSlot удаляет слот. Занятый слот удаляется вместе с сессией,
// участники получают уведомление об отмене с полным возвратом.
func (s *SlotService) DeleteSlot(ctx context.Context, practitionerID int64, slotID uuid.UUID) error {
	var cancelled *CancelledSession

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		slot, err := tx.Slots().GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}

		if slot == nil {
			return model.ErrSlotNotFound
		}

		if slot.PractitionerID != practitionerID {
			return model.ErrNotOwner
		}

		if !slot.IsFree {
			session, err := tx.Sessions().GetBySlotID(ctx, slotID)
			if err != nil {
				return err
			}

			if session != nil {
				if err := tx.Sessions().Delete(ctx, session.ID); err != nil {
					return err
				}

				cancelled = &CancelledSession{
					SessionID:      session.ID,
					ClientID:       session.ClientID,
					PractitionerID: slot.PractitionerID,
					StartTime:      slot.StartTime,
					Initiator:      model.RolePractitioner,
					Decision:       s.policy.Decide(model.RolePractitioner, slot.StartTime, s.clock.Now()),
				}
			}
		}

		return tx.Slots().Delete(ctx, slotID)
	})
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	s.logger.Info("Slot deleted",
		zap.String("slot_id", slotID.String()),
		zap.Int64("practitioner_id", practitionerID),
		zap.Bool("had_session", cancelled != nil),
	)

	if cancelled != nil {
		s.pipeline.SessionCancelled(*cancelled)
	}

	return nil
}
