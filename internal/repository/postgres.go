package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository/base"
)

// PostgresStore реализация Transactor поверх пула pgx
type PostgresStore struct {
	pool *pgxpool.Pool
	pgStore
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		pgStore: newPGStore(pool),
	}
}

// InTx выполняет fn в транзакции READ COMMITTED. Гонки разрешаются
// блокировками строк (FOR UPDATE) и advisory-блокировками через Lock.
func (s *PostgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	// Начинаем транзакцию
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, newPGStore(tx)); err != nil {
		return err
	}

	// Коммитим транзакцию
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Ping проверяет соединение с БД
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type pgStore struct {
	db       base.DBTX
	slots    *SlotRepository
	sessions *SessionRepository
	prices   *ServiceRepository
}

func newPGStore(db base.DBTX) pgStore {
	return pgStore{
		db:       db,
		slots:    NewSlotRepository(db),
		sessions: NewSessionRepository(db),
		prices:   NewServiceRepository(db),
	}
}

func (s pgStore) Slots() SlotStore {
	return s.slots
}

func (s pgStore) Sessions() SessionStore {
	return s.sessions
}

// Prices внутри InTx читает цены через соединение транзакции
func (s pgStore) Prices() PriceCatalog {
	return s.prices
}

// Lock берёт транзакционную advisory-блокировку по хешу ключа
func (s pgStore) Lock(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return nil
}
