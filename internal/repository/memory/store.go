package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository"
)

// Store хранилище в памяти процесса. Транзакции сериализуются одним мьютексом
// и применяются к копии данных, которая подменяет оригинал только при успехе.
type Store struct {
	mu     sync.Mutex
	data   *state
	prices repository.PriceCatalog
}

type state struct {
	slots    map[uuid.UUID]model.Slot
	sessions map[uuid.UUID]model.Session
}

// NewStore создаёт пустое хранилище; цены берутся из prices
func NewStore(prices repository.PriceCatalog) *Store {
	return &Store{
		data: &state{
			slots:    make(map[uuid.UUID]model.Slot),
			sessions: make(map[uuid.UUID]model.Session),
		},
		prices: prices,
	}
}

func (s *Store) Slots() repository.SlotStore {
	return slotStore{scope{store: s}}
}

func (s *Store) Sessions() repository.SessionStore {
	return sessionStore{scope{store: s}}
}

func (s *Store) Prices() repository.PriceCatalog {
	return s.prices
}

// Lock ничего не делает: InTx уже выполняется под общим мьютексом
func (s *Store) Lock(context.Context, string) error {
	return nil
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, txStore{scope{store: s, tx: snapshot}}); err != nil {
		return err
	}

	s.data = snapshot
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (st *state) clone() *state {
	c := &state{
		slots:    make(map[uuid.UUID]model.Slot, len(st.slots)),
		sessions: make(map[uuid.UUID]model.Session, len(st.sessions)),
	}
	for id, slot := range st.slots {
		c.slots[id] = slot
	}
	for id, session := range st.sessions {
		c.sessions[id] = session
	}
	return c
}

// scope определяет, с какими данными работают хранилища: с транзакционной
// копией (tx != nil) или с основными данными под мьютексом
type scope struct {
	store *Store
	tx    *state
}

func (sc scope) do(fn func(st *state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.data)
}

type txStore struct {
	scope
}

func (t txStore) Slots() repository.SlotStore {
	return slotStore{t.scope}
}

func (t txStore) Sessions() repository.SessionStore {
	return sessionStore{t.scope}
}

func (t txStore) Prices() repository.PriceCatalog {
	return t.store.prices
}

func (t txStore) Lock(context.Context, string) error {
	return nil
}

type slotStore struct {
	scope
}

func (s slotStore) Create(_ context.Context, slot *model.Slot) error {
	return s.do(func(st *state) error {
		for _, existing := range st.slots {
			if existing.PractitionerID != slot.PractitionerID {
				continue
			}
			if existing.StartTime.Equal(slot.StartTime) || existing.Overlaps(slot.StartTime, slot.EndTime) {
				return model.ErrConcurrentOverlap
			}
		}
		slot.CreatedAt = time.Now()
		st.slots[slot.ID] = *slot
		return nil
	})
}

func (s slotStore) GetByID(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	var found *model.Slot
	err := s.do(func(st *state) error {
		if slot, ok := st.slots[id]; ok {
			found = &slot
		}
		return nil
	})
	return found, err
}

func (s slotStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return s.GetByID(ctx, id)
}

func (s slotStore) ListOverlapping(_ context.Context, practitionerID int64, start, end time.Time) ([]*model.Slot, error) {
	return s.filter(func(slot model.Slot) bool {
		return slot.PractitionerID == practitionerID && slot.Overlaps(start, end)
	})
}

func (s slotStore) ListCalendar(_ context.Context, practitionerID int64, from, to time.Time) ([]*model.SlotView, error) {
	var views []*model.SlotView
	err := s.do(func(st *state) error {
		bySlot := make(map[uuid.UUID]model.Session, len(st.sessions))
		for _, session := range st.sessions {
			bySlot[session.SlotID] = session
		}

		for _, slot := range st.slots {
			if slot.PractitionerID != practitionerID || slot.StartTime.Before(from) || slot.StartTime.After(to) {
				continue
			}
			view := &model.SlotView{Slot: slot}
			if session, ok := bySlot[slot.ID]; ok {
				sessionID, clientID := session.ID, session.ClientID
				view.SessionID = &sessionID
				view.ClientID = &clientID
				view.PractitionerLink = session.PractitionerMeetingLink
			}
			views = append(views, view)
		}
		return nil
	})

	sort.Slice(views, func(i, j int) bool {
		return views[i].StartTime.Before(views[j].StartTime)
	})
	return views, err
}

func (s slotStore) ListFree(_ context.Context, practitionerID int64, after time.Time) ([]*model.Slot, error) {
	return s.filter(func(slot model.Slot) bool {
		return slot.PractitionerID == practitionerID && slot.IsFree && slot.StartTime.After(after)
	})
}

func (s slotStore) MarkBooked(_ context.Context, id uuid.UUID) error {
	return s.do(func(st *state) error {
		slot, ok := st.slots[id]
		if !ok || !slot.IsFree {
			return model.ErrSlotAlreadyBooked
		}
		slot.IsFree = false
		st.slots[id] = slot
		return nil
	})
}

func (s slotStore) MarkFree(_ context.Context, id uuid.UUID) error {
	return s.do(func(st *state) error {
		slot, ok := st.slots[id]
		if !ok {
			return model.ErrSlotNotFound
		}
		slot.IsFree = true
		st.slots[id] = slot
		return nil
	})
}

func (s slotStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.do(func(st *state) error {
		if _, ok := st.slots[id]; !ok {
			return model.ErrSlotNotFound
		}
		delete(st.slots, id)
		// ON DELETE CASCADE
		for sessionID, session := range st.sessions {
			if session.SlotID == id {
				delete(st.sessions, sessionID)
			}
		}
		return nil
	})
}

func (s slotStore) filter(match func(slot model.Slot) bool) ([]*model.Slot, error) {
	var slots []*model.Slot
	err := s.do(func(st *state) error {
		for _, slot := range st.slots {
			if match(slot) {
				slot := slot
				slots = append(slots, &slot)
			}
		}
		return nil
	})

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
	return slots, err
}

type sessionStore struct {
	scope
}

func (s sessionStore) Create(_ context.Context, session *model.Session) error {
	return s.do(func(st *state) error {
		if _, ok := st.slots[session.SlotID]; !ok {
			return model.ErrSlotNotFound
		}
		for _, existing := range st.sessions {
			if existing.SlotID == session.SlotID {
				return model.ErrSlotAlreadyBooked
			}
		}
		now := time.Now()
		session.CreatedAt = now
		session.UpdatedAt = now

		stored := *session
		stored.Slot = nil
		st.sessions[session.ID] = stored
		return nil
	})
}

func (s sessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	var found *model.Session
	err := s.do(func(st *state) error {
		if session, ok := st.sessions[id]; ok {
			found = withSlot(st, session)
		}
		return nil
	})
	return found, err
}

func (s sessionStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return s.GetByID(ctx, id)
}

func (s sessionStore) GetBySlotID(_ context.Context, slotID uuid.UUID) (*model.Session, error) {
	var found *model.Session
	err := s.do(func(st *state) error {
		for _, session := range st.sessions {
			if session.SlotID == slotID {
				found = withSlot(st, session)
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s sessionStore) HasUpcomingForClient(_ context.Context, clientID int64, now time.Time) (bool, error) {
	var exists bool
	err := s.do(func(st *state) error {
		for _, session := range st.sessions {
			if session.ClientID != clientID {
				continue
			}
			if slot, ok := st.slots[session.SlotID]; ok && !slot.StartTime.Before(now) {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

func (s sessionStore) UpdateLinks(_ context.Context, id uuid.UUID, clientLink, practitionerLink string) error {
	return s.do(func(st *state) error {
		session, ok := st.sessions[id]
		if !ok {
			return model.ErrSessionNotFound
		}
		session.ClientMeetingLink = &clientLink
		session.PractitionerMeetingLink = &practitionerLink
		session.UpdatedAt = time.Now()
		st.sessions[id] = session
		return nil
	})
}

func (s sessionStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.do(func(st *state) error {
		if _, ok := st.sessions[id]; !ok {
			return model.ErrSessionNotFound
		}
		delete(st.sessions, id)
		return nil
	})
}

func withSlot(st *state, session model.Session) *model.Session {
	if slot, ok := st.slots[session.SlotID]; ok {
		session.Slot = &slot
	}
	return &session
}
