package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository"
	"go.uber.org/zap"
)

type BookingService struct {
	store    repository.Transactor
	pipeline *Pipeline
	clock    Clock
	logger   *zap.Logger
}

func NewBookingService(
	store repository.Transactor,
	pipeline *Pipeline,
	clock Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		store:    store,
		pipeline: pipeline,
		clock:    clock,
		logger:   logger,
	}
}

// Book записывает клиента на свободный слот. Сессия возвращается сразу после
// коммита, ссылки на встречу заполняются позже.
func (s *BookingService) Book(ctx context.Context, clientID int64, slotID uuid.UUID) (*model.Session, error) {
	var session *model.Session

	err := s.store.InTx(ctx, func(ctx context.Context, tx repository.Store) error {
		// Записи одного клиента выполняются по очереди
		if err := tx.Lock(ctx, repository.ClientLockKey(clientID)); err != nil {
			return err
		}

		slot, err := tx.Slots().GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}

		if slot == nil {
			return model.ErrSlotNotFound
		}

		if !slot.IsFree {
			return model.ErrSlotAlreadyBooked
		}

		now := s.clock.Now()
		if !slot.StartTime.After(now) {
			return model.ErrSlotInPast
		}

		hasActive, err := tx.Sessions().HasUpcomingForClient(ctx, clientID, now)
		if err != nil {
			return err
		}

		if hasActive {
			return model.ErrClientHasActiveSession
		}

		price, err := tx.Prices().PriceFor(ctx, slot.PractitionerID)
		if err != nil {
			return err
		}

		if err := tx.Slots().MarkBooked(ctx, slotID); err != nil {
			return err
		}
		slot.IsFree = false

		// Оплата подтверждена до записи
		session = &model.Session{
			ID:       uuid.New(),
			ClientID: clientID,
			SlotID:   slotID,
			Price:    price,
			Status:   model.SessionStatusPaid,
		}

		if err := tx.Sessions().Create(ctx, session); err != nil {
			return err
		}
		session.Slot = slot

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("book slot: %w", err)
	}

	s.logger.Info("Session booked",
		zap.String("session_id", session.ID.String()),
		zap.String("slot_id", slotID.String()),
		zap.Int64("client_id", clientID),
		zap.Int64("practitioner_id", session.Slot.PractitionerID),
		zap.Int("price", session.Price),
	)

	s.pipeline.SessionBooked(*session, *session.Slot)

	return session, nil
}

// GetSession возвращает сессию участнику; ссылки появляются после ответа сервиса видеосвязи
func (s *BookingService) GetSession(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.store.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session == nil {
		return nil, model.ErrSessionNotFound
	}

	if !isParticipant(actor, session) {
		return nil, model.ErrNotParticipant
	}

	return session, nil
}

func isParticipant(actor model.Actor, session *model.Session) bool {
	if actor.IsPractitioner() {
		return session.Slot != nil && session.Slot.PractitionerID == actor.UserID
	}
	return actor.Role == model.RoleClient && session.ClientID == actor.UserID
}
