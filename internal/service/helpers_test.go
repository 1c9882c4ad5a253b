package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/services-psychologists-psychotherapists/backend/internal/model"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository/memory"
	"github.com/services-psychologists-psychotherapists/backend/internal/worker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	practitionerID int64 = 1
	otherPractID   int64 = 2
	clientID       int64 = 100
	otherClientID  int64 = 101
	testPrice            = 3500
)

var baseTime = time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeProvisioner struct {
	mu      sync.Mutex
	err     error
	release chan struct{}
	calls   int
}

func (p *fakeProvisioner) Provision(ctx context.Context, start time.Time, duration time.Duration) (string, string, error) {
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return "", "", ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if p.err != nil {
		return "", "", p.err
	}
	return "https://zoom.test/j/1", "https://zoom.test/s/1", nil
}

type notification struct {
	kind       model.TemplateKind
	data       map[string]any
	recipients []model.Participant
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, kind model.TemplateKind, data map[string]any, recipients []model.Participant) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind: kind, data: data, recipients: recipients})
}

func (n *recordingNotifier) byKind(kind model.TemplateKind) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []notification
	for _, sent := range n.sent {
		if sent.kind == kind {
			out = append(out, sent)
		}
	}
	return out
}

type testEnv struct {
	clock        *fixedClock
	store        *memory.Store
	directory    *memory.Directory
	provisioner  *fakeProvisioner
	notifier     *recordingNotifier
	pool         *worker.Pool
	slots        *SlotService
	booking      *BookingService
	cancellation *CancellationService
}

func newTestEnv(t *testing.T, logger *zap.Logger) *testEnv {
	t.Helper()

	if logger == nil {
		logger = zap.NewNop()
	}

	env := &testEnv{
		clock:       &fixedClock{now: baseTime},
		directory:   memory.NewDirectory(0),
		provisioner: &fakeProvisioner{},
		notifier:    &recordingNotifier{},
		pool:        worker.NewPool(2, 64, logger),
	}

	env.store = memory.NewStore(env.directory)

	env.directory.SetPrice(practitionerID, testPrice)
	env.directory.SetPrice(otherPractID, testPrice)
	for _, id := range []int64{practitionerID, otherPractID, clientID, otherClientID} {
		env.directory.AddParticipant(model.Participant{UserID: id, FirstName: "User", Email: "user@example.com"})
	}

	env.pool.Start(context.Background())
	t.Cleanup(func() {
		_ = env.pool.Stop(context.Background())
	})

	duration := model.DefaultSessionDuration
	policy := NewRefundPolicy(12*time.Hour, language.English)
	pipeline := NewPipeline(env.pool, env.store.Sessions(), env.provisioner, env.notifier, env.directory, duration, logger)

	env.slots = NewSlotService(env.store, NewOverlapValidator(duration), policy, pipeline, env.clock, 14*24*time.Hour, logger)
	env.booking = NewBookingService(env.store, pipeline, env.clock, logger)
	env.cancellation = NewCancellationService(env.store, policy, pipeline, env.clock, logger)

	return env
}

// drain дожидается выполнения всех побочных эффектов
func (e *testEnv) drain(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.pool.Stop(ctx))
}

func (e *testEnv) mustCreateSlot(t *testing.T, practitioner int64, start time.Time) *model.Slot {
	t.Helper()

	slot, err := e.slots.CreateSlot(context.Background(), practitioner, start)
	require.NoError(t, err)
	return slot
}

func (e *testEnv) mustBook(t *testing.T, client int64, slot *model.Slot) *model.Session {
	t.Helper()

	session, err := e.booking.Book(context.Background(), client, slot.ID)
	require.NoError(t, err)
	return session
}

var errUpstream = errors.New("zoom answered 503")
