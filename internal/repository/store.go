package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
)

// Get* методы возвращают (nil, nil), если запись не найдена.

// SlotStore хранилище окон записи
type SlotStore interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// GetByIDForUpdate блокирует строку слота до конца транзакции
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// ListOverlapping возвращает слоты специалиста, пересекающие [start, end)
	ListOverlapping(ctx context.Context, practitionerID int64, start, end time.Time) ([]*model.Slot, error)
	// ListCalendar возвращает слоты с from <= start_time <= to вместе с данными сессии
	ListCalendar(ctx context.Context, practitionerID int64, from, to time.Time) ([]*model.SlotView, error)
	// ListFree возвращает свободные слоты с start_time > after
	ListFree(ctx context.Context, practitionerID int64, after time.Time) ([]*model.Slot, error)
	// MarkBooked переводит свободный слот в занятый; model.ErrSlotAlreadyBooked если слот уже занят
	MarkBooked(ctx context.Context, id uuid.UUID) error
	MarkFree(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionStore хранилище сессий
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	// GetByID возвращает сессию с заполненным полем Slot
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	// GetByIDForUpdate блокирует сессию и её слот до конца транзакции
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Session, error)
	GetBySlotID(ctx context.Context, slotID uuid.UUID) (*model.Session, error)
	// HasUpcomingForClient проверяет наличие у клиента сессии со start_time >= now
	HasUpcomingForClient(ctx context.Context, clientID int64, now time.Time) (bool, error)
	UpdateLinks(ctx context.Context, id uuid.UUID, clientLink, practitionerLink string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store набор хранилищ, работающих в одной области видимости (пул или транзакция)
type Store interface {
	Slots() SlotStore
	Sessions() SessionStore
	Prices() PriceCatalog
	// Lock берёт эксклюзивную блокировку по ключу до конца транзакции.
	// Вне InTx блокировка снимается сразу.
	Lock(ctx context.Context, key string) error
}

// Transactor выполняет функцию атомарно. Ошибка fn откатывает все изменения.
type Transactor interface {
	Store
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}

// PriceCatalog источник цены услуги специалиста
type PriceCatalog interface {
	// PriceFor возвращает текущую цену; model.ErrPriceNotFound если услуг нет
	PriceFor(ctx context.Context, practitionerID int64) (int, error)
}

// ParticipantDirectory источник контактных данных участников
type ParticipantDirectory interface {
	GetParticipant(ctx context.Context, userID int64, role model.Role) (*model.Participant, error)
}

// PractitionerLockKey ключ блокировки расписания специалиста
func PractitionerLockKey(practitionerID int64) string {
	return "practitioner:" + strconv.FormatInt(practitionerID, 10)
}

// ClientLockKey ключ блокировки записей клиента
func ClientLockKey(clientID int64) string {
	return "client:" + strconv.FormatInt(clientID, 10)
}
