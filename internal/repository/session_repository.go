package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository/base"
)

const constraintSessionSlot = "sessions_slot_id_key"

const sessionWithSlotColumns = `
	s.id, s.client_id, s.slot_id, s.price, s.status,
	s.client_meeting_link, s.practitioner_meeting_link, s.created_at, s.updated_at,
	sl.id, sl.practitioner_id, sl.start_time, sl.end_time, sl.is_free, sl.created_at
`

type SessionRepository struct {
	db base.DBTX
}

func NewSessionRepository(db base.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create создаёт новую сессию
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (id, client_id, slot_id, price, status, client_meeting_link, practitioner_meeting_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		session.ID,
		session.ClientID,
		session.SlotID,
		session.Price,
		session.Status,
		session.ClientMeetingLink,
		session.PractitionerMeetingLink,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err, constraintSessionSlot) {
			return model.ErrSlotAlreadyBooked
		}
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID получает сессию вместе со слотом
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionWithSlotColumns + `
		FROM sessions s
		JOIN slots sl ON sl.id = s.slot_id
		WHERE s.id = $1
	`

	session, err := scanSessionWithSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return session, nil
}

// GetByIDForUpdate получает сессию и блокирует её строку и строку слота
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionWithSlotColumns + `
		FROM sessions s
		JOIN slots sl ON sl.id = s.slot_id
		WHERE s.id = $1
		FOR UPDATE
	`

	session, err := scanSessionWithSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session for update: %w", err)
	}

	return session, nil
}

// GetBySlotID получает сессию, занимающую слот
func (r *SessionRepository) GetBySlotID(ctx context.Context, slotID uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionWithSlotColumns + `
		FROM sessions s
		JOIN slots sl ON sl.id = s.slot_id
		WHERE s.slot_id = $1
	`

	session, err := scanSessionWithSlot(r.db.QueryRow(ctx, query, slotID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by slot: %w", err)
	}

	return session, nil
}

// HasUpcomingForClient проверяет, есть ли у клиента предстоящая сессия
func (r *SessionRepository) HasUpcomingForClient(ctx context.Context, clientID int64, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM sessions s
			JOIN slots sl ON sl.id = s.slot_id
			WHERE s.client_id = $1 AND sl.start_time >= $2
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, clientID, now).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check upcoming session: %w", err)
	}

	return exists, nil
}

// UpdateLinks сохраняет ссылки на встречу
func (r *SessionRepository) UpdateLinks(ctx context.Context, id uuid.UUID, clientLink, practitionerLink string) error {
	query := `
		UPDATE sessions
		SET client_meeting_link = $1, practitioner_meeting_link = $2, updated_at = NOW()
		WHERE id = $3
	`

	affected, err := base.ExecAffected(ctx, r.db, query, clientLink, practitionerLink, id)
	if err != nil {
		return fmt.Errorf("update session links: %w", err)
	}

	if affected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// Delete удаляет сессию
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := base.ExecAffected(ctx, r.db, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if affected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

func scanSessionWithSlot(row pgx.Row) (*model.Session, error) {
	var session model.Session
	var slot model.Slot
	err := row.Scan(
		&session.ID,
		&session.ClientID,
		&session.SlotID,
		&session.Price,
		&session.Status,
		&session.ClientMeetingLink,
		&session.PractitionerMeetingLink,
		&session.CreatedAt,
		&session.UpdatedAt,
		&slot.ID,
		&slot.PractitionerID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsFree,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Slot = &slot
	return &session, nil
}
