package dispatcher_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/FlyinPancake/nag/internal/channel"
	"github.com/FlyinPancake/nag/internal/dispatcher"
	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
)

type fakeEventRepo struct{ events map[string]*domain.NotificationEvent }

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.NotificationEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return e, nil
}

type fakeChoreRepo struct{ chores map[string]*domain.Chore }

func (f *fakeChoreRepo) Create(context.Context, *domain.Chore) (*domain.Chore, error) { return nil, nil }
func (f *fakeChoreRepo) GetByID(_ context.Context, id string) (*domain.Chore, error) {
	c, ok := f.chores[id]
	if !ok {
		return nil, domain.ErrChoreNotFound
	}
	return c, nil
}
func (f *fakeChoreRepo) Update(context.Context, *domain.Chore) (*domain.Chore, error) { return nil, nil }
func (f *fakeChoreRepo) Delete(context.Context, string) error                        { return nil }
func (f *fakeChoreRepo) List(context.Context, repository.ListChoresInput) ([]*domain.Chore, error) {
	return nil, nil
}
func (f *fakeChoreRepo) ListAllScheduled(context.Context) ([]*domain.Chore, error) { return nil, nil }
func (f *fakeChoreRepo) SetTags(context.Context, string, []string) error          { return nil }
func (f *fakeChoreRepo) TagsForChore(context.Context, string) ([]*domain.Tag, error) {
	return nil, nil
}

type fakeDeliveryRepo struct {
	claim    []*domain.NotificationDelivery
	attempts []string
	failed   []string
	parked   []string
	delivered []string
}

func (f *fakeDeliveryRepo) ClaimEligible(context.Context, time.Time, int, int) ([]*domain.NotificationDelivery, error) {
	claimed := f.claim
	f.claim = nil
	return claimed, nil
}
func (f *fakeDeliveryRepo) MarkAttempting(_ context.Context, id string, _ time.Time) error {
	f.attempts = append(f.attempts, id)
	return nil
}
func (f *fakeDeliveryRepo) MarkDelivered(_ context.Context, id string, _ time.Time) error {
	f.delivered = append(f.delivered, id)
	return nil
}
func (f *fakeDeliveryRepo) MarkFailed(_ context.Context, id string, _ string, park bool, _ int) error {
	f.failed = append(f.failed, id)
	if park {
		f.parked = append(f.parked, id)
	}
	return nil
}

type fakeChannel struct {
	name string
	err  error
}

func (f *fakeChannel) Name() string { return f.name }
func (f *fakeChannel) Send(context.Context, string, string, string, channel.ActionHint) error {
	return f.err
}
func (f *fakeChannel) VerifyCallback(*http.Request) (channel.CallbackPayload, error) {
	return channel.CallbackPayload{}, nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func setup(t *testing.T, ch channel.Channel) (*fakeEventRepo, *fakeChoreRepo, *fakeDeliveryRepo, *dispatcher.Dispatcher) {
	t.Helper()
	events := &fakeEventRepo{events: map[string]*domain.NotificationEvent{
		"evt-1": {ID: "evt-1", ChoreID: "chore-1", Title: "Water the plants", Body: "due now"},
	}}
	chores := &fakeChoreRepo{chores: map[string]*domain.Chore{
		"chore-1": {ID: "chore-1", Name: "Water the plants"},
	}}
	deliveries := &fakeDeliveryRepo{
		claim: []*domain.NotificationDelivery{
			{ID: "del-1", EventID: "evt-1", Channel: "telegram", Status: domain.DeliveryPending},
		},
	}
	d := dispatcher.New(events, chores, deliveries, map[string]channel.Channel{"telegram": ch}, 20*time.Millisecond, 10, 5, testLogger())
	return events, chores, deliveries, d
}

func TestDispatcher_SuccessfulSendMarksDelivered(t *testing.T) {
	_, _, deliveries, d := setup(t, &fakeChannel{name: "telegram"})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	waitForCondition(t, func() bool { return len(deliveries.delivered) == 1 })
	cancel()

	if len(deliveries.failed) != 0 {
		t.Errorf("expected no failures, got %v", deliveries.failed)
	}
}

func TestDispatcher_TransientFailureRetriesNotParked(t *testing.T) {
	_, _, deliveries, d := setup(t, &fakeChannel{name: "telegram", err: errors.New("timeout")})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	waitForCondition(t, func() bool { return len(deliveries.failed) == 1 })
	cancel()

	if len(deliveries.parked) != 0 {
		t.Errorf("expected transient failure to not be parked, got %v", deliveries.parked)
	}
}

func TestDispatcher_PermanentFailureParks(t *testing.T) {
	_, _, deliveries, d := setup(t, &fakeChannel{name: "telegram", err: &channel.PermanentError{Err: errors.New("rejected")}})

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	waitForCondition(t, func() bool { return len(deliveries.parked) == 1 })
	cancel()
}

func TestDispatcher_UnknownChannelParks(t *testing.T) {
	events := &fakeEventRepo{events: map[string]*domain.NotificationEvent{
		"evt-1": {ID: "evt-1", ChoreID: "chore-1", Title: "x", Body: "y"},
	}}
	chores := &fakeChoreRepo{chores: map[string]*domain.Chore{"chore-1": {ID: "chore-1"}}}
	deliveries := &fakeDeliveryRepo{claim: []*domain.NotificationDelivery{
		{ID: "del-1", EventID: "evt-1", Channel: "sms", Status: domain.DeliveryPending},
	}}
	d := dispatcher.New(events, chores, deliveries, map[string]channel.Channel{"telegram": &fakeChannel{}}, 20*time.Millisecond, 10, 5, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)
	waitForCondition(t, func() bool { return len(deliveries.parked) == 1 })
	cancel()
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
