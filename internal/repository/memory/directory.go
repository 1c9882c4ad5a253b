package memory

import (
	"context"
	"sync"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
)

// Directory справочник цен и участников в памяти
type Directory struct {
	mu           sync.RWMutex
	defaultPrice int
	prices       map[int64]int
	participants map[int64]model.Participant
}

// NewDirectory создаёт справочник; defaultPrice > 0 используется для
// специалистов без явно заданной цены
func NewDirectory(defaultPrice int) *Directory {
	return &Directory{
		defaultPrice: defaultPrice,
		prices:       make(map[int64]int),
		participants: make(map[int64]model.Participant),
	}
}

func (d *Directory) SetPrice(practitionerID int64, price int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prices[practitionerID] = price
}

func (d *Directory) AddParticipant(p model.Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants[p.UserID] = p
}

func (d *Directory) PriceFor(_ context.Context, practitionerID int64) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if price, ok := d.prices[practitionerID]; ok {
		return price, nil
	}
	if d.defaultPrice > 0 {
		return d.defaultPrice, nil
	}
	return 0, model.ErrPriceNotFound
}

func (d *Directory) GetParticipant(_ context.Context, userID int64, role model.Role) (*model.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.participants[userID]
	if !ok {
		return nil, nil
	}
	p.Role = role
	return &p, nil
}
