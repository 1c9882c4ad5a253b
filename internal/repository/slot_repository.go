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

const (
	constraintSlotStart   = "slots_practitioner_start_key"
	constraintSlotOverlap = "slots_no_overlap"
)

const slotColumns = `id, practitioner_id, start_time, end_time, is_free, created_at`

type SlotRepository struct {
	db base.DBTX
}

func NewSlotRepository(db base.DBTX) *SlotRepository {
	return &SlotRepository{db: db}
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (id, practitioner_id, start_time, end_time, is_free)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.ID,
		slot.PractitionerID,
		slot.StartTime,
		slot.EndTime,
		slot.IsFree,
	).Scan(&slot.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err, constraintSlotStart) || base.IsExclusionViolation(err, constraintSlotOverlap) {
			return model.ErrConcurrentOverlap
		}
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает слот по ID и блокирует строку
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1 FOR UPDATE`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot for update: %w", err)
	}

	return slot, nil
}

// ListOverlapping получает слоты специалиста, пересекающие интервал [start, end)
func (r *SlotRepository) ListOverlapping(ctx context.Context, practitionerID int64, start, end time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE practitioner_id = $1
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`

	return r.list(ctx, "list overlapping slots", query, practitionerID, start, end)
}

// ListCalendar получает слоты специалиста за период вместе с данными сессий
func (r *SlotRepository) ListCalendar(ctx context.Context, practitionerID int64, from, to time.Time) ([]*model.SlotView, error) {
	query := `
		SELECT sl.id, sl.practitioner_id, sl.start_time, sl.end_time, sl.is_free, sl.created_at,
		       s.id, s.client_id, s.practitioner_meeting_link
		FROM slots sl
		LEFT JOIN sessions s ON s.slot_id = sl.id
		WHERE sl.practitioner_id = $1
		  AND sl.start_time >= $2
		  AND sl.start_time <= $3
		ORDER BY sl.start_time
	`

	rows, err := r.db.Query(ctx, query, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list calendar: %w", err)
	}
	defer rows.Close()

	var views []*model.SlotView
	for rows.Next() {
		var view model.SlotView
		err := rows.Scan(
			&view.ID,
			&view.PractitionerID,
			&view.StartTime,
			&view.EndTime,
			&view.IsFree,
			&view.CreatedAt,
			&view.SessionID,
			&view.ClientID,
			&view.PractitionerLink,
		)
		if err != nil {
			return nil, fmt.Errorf("scan calendar slot: %w", err)
		}
		views = append(views, &view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list calendar: %w", err)
	}

	return views, nil
}

// ListFree получает свободные слоты специалиста, начинающиеся после указанного момента
func (r *SlotRepository) ListFree(ctx context.Context, practitionerID int64, after time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE practitioner_id = $1
		  AND is_free
		  AND start_time > $2
		ORDER BY start_time
	`

	return r.list(ctx, "list free slots", query, practitionerID, after)
}

// MarkBooked занимает слот, если он ещё свободен
func (r *SlotRepository) MarkBooked(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET is_free = FALSE
		WHERE id = $1 AND is_free
	`

	affected, err := base.ExecAffected(ctx, r.db, query, id)
	if err != nil {
		return fmt.Errorf("book slot: %w", err)
	}

	if affected == 0 {
		return model.ErrSlotAlreadyBooked
	}

	return nil
}

// MarkFree освобождает слот
func (r *SlotRepository) MarkFree(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET is_free = TRUE
		WHERE id = $1
	`

	affected, err := base.ExecAffected(ctx, r.db, query, id)
	if err != nil {
		return fmt.Errorf("free slot: %w", err)
	}

	if affected == 0 {
		return model.ErrSlotNotFound
	}

	return nil
}

// Delete удаляет слот (сессия удаляется каскадом)
func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := base.ExecAffected(ctx, r.db, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if affected == 0 {
		return model.ErrSlotNotFound
	}

	return nil
}

func (r *SlotRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Slot, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
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
	return &slot, nil
}
