package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSlotRejectsOverlap(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first := env.mustCreateSlot(t, practitionerID, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	assert.True(t, first.IsFree)
	assert.Equal(t, first.StartTime.Add(50*time.Minute), first.EndTime)

	_, err := env.slots.CreateSlot(ctx, practitionerID, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC))
	require.ErrorIs(t, err, model.ErrOverlapConflict)
	assert.Equal(t, model.KindValidation, model.KindOf(err))

	// соседний слот и слот другого специалиста не пересекаются
	env.mustCreateSlot(t, practitionerID, time.Date(2025, 3, 10, 9, 50, 0, 0, time.UTC))
	env.mustCreateSlot(t, otherPractID, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC))
}

func TestCreateSlotRejectsPastStart(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.slots.CreateSlot(context.Background(), practitionerID, baseTime.Add(-time.Hour))
	require.ErrorIs(t, err, model.ErrPastStartTime)
}

func TestCreatedSlotsNeverOverlap(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		start := baseTime.Add(time.Hour).Add(time.Duration(rng.Intn(24*6)) * 10 * time.Minute)

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.slots.CreateSlot(ctx, practitionerID, start)
		}()
	}
	wg.Wait()

	views, err := env.slots.ListSlots(ctx, practitionerID, baseTime)
	require.NoError(t, err)
	require.NotEmpty(t, views)

	for i := range views {
		for j := i + 1; j < len(views); j++ {
			assert.False(t, views[i].Overlaps(views[j].StartTime, views[j].EndTime),
				"slots %s and %s overlap", views[i].StartTime, views[j].StartTime)
		}
	}
}

func TestListSlotsCalendarWindow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	inside := env.mustCreateSlot(t, practitionerID, baseTime.Add(24*time.Hour))
	env.mustCreateSlot(t, practitionerID, baseTime.Add(15*24*time.Hour))
	free := env.mustCreateSlot(t, practitionerID, baseTime.Add(48*time.Hour))
	session := env.mustBook(t, clientID, inside)

	views, err := env.slots.ListSlots(ctx, practitionerID, baseTime)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, inside.ID, views[0].ID)
	assert.False(t, views[0].IsFree)
	require.NotNil(t, views[0].SessionID)
	assert.Equal(t, session.ID, *views[0].SessionID)
	require.NotNil(t, views[0].ClientID)
	assert.Equal(t, clientID, *views[0].ClientID)

	assert.Equal(t, free.ID, views[1].ID)
	assert.Nil(t, views[1].SessionID)
}

func TestListSlotsHidesPastSlots(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	earlier := env.mustCreateSlot(t, practitionerID, baseTime.Add(time.Hour))
	upcoming := env.mustCreateSlot(t, practitionerID, baseTime.Add(24*time.Hour))

	env.clock.Set(baseTime.Add(2 * time.Hour))
	midnight := baseTime.Truncate(24 * time.Hour)

	views, err := env.slots.ListSlots(ctx, practitionerID, midnight)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, upcoming.ID, views[0].ID)
	assert.NotEqual(t, earlier.ID, views[0].ID)
}

func TestListFreeSlots(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	booked := env.mustCreateSlot(t, practitionerID, baseTime.Add(2*time.Hour))
	early := env.mustCreateSlot(t, practitionerID, baseTime.Add(3*time.Hour))
	late := env.mustCreateSlot(t, practitionerID, baseTime.Add(72*time.Hour))
	env.mustBook(t, clientID, booked)

	slots, err := env.slots.ListFreeSlots(ctx, practitionerID, baseTime.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, early.ID, slots[0].ID)
	assert.Equal(t, late.ID, slots[1].ID)

	// since включается в выборку
	slots, err = env.slots.ListFreeSlots(ctx, practitionerID, late.StartTime)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, late.ID, slots[0].ID)

	// прошедшие слоты не возвращаются
	env.clock.Set(baseTime.Add(4 * time.Hour))
	slots, err = env.slots.ListFreeSlots(ctx, practitionerID, baseTime)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, late.ID, slots[0].ID)
}

func TestDeleteFreeSlot(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	slot := env.mustCreateSlot(t, practitionerID, baseTime.Add(24*time.Hour))

	require.ErrorIs(t, env.slots.DeleteSlot(ctx, otherPractID, slot.ID), model.ErrNotOwner)
	require.ErrorIs(t, env.slots.DeleteSlot(ctx, practitionerID, uuid.New()), model.ErrSlotNotFound)

	require.NoError(t, env.slots.DeleteSlot(ctx, practitionerID, slot.ID))
	require.ErrorIs(t, env.slots.DeleteSlot(ctx, practitionerID, slot.ID), model.ErrSlotNotFound)

	env.drain(t)
	assert.Empty(t, env.notifier.byKind(model.TemplateSessionCancelledClient))
}

func TestDeleteOccupiedSlotCancelsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	slot := env.mustCreateSlot(t, practitionerID, baseTime.Add(2*time.Hour))
	session := env.mustBook(t, clientID, slot)

	require.NoError(t, env.slots.DeleteSlot(ctx, practitionerID, slot.ID))

	stored, err := env.store.Sessions().GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	env.drain(t)

	for _, kind := range []model.TemplateKind{model.TemplateSessionCancelledClient, model.TemplateSessionCancelledPractitioner} {
		sent := env.notifier.byKind(kind)
		require.Len(t, sent, 1, kind)
		assert.Equal(t, string(model.RolePractitioner), sent[0].data[model.NotifyKeyInitiator])
		assert.Equal(t, true, sent[0].data[model.NotifyKeyRefundGranted])
		assert.Equal(t, false, sent[0].data[model.NotifyKeyLateCancel])
	}
}
