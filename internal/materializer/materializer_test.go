package materializer_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/materializer"
	"github.com/FlyinPancake/nag/internal/repository"
)

type fakeChoreRepo struct {
	scheduled []*domain.Chore
}

func (f *fakeChoreRepo) Create(context.Context, *domain.Chore) (*domain.Chore, error) { return nil, nil }
func (f *fakeChoreRepo) GetByID(context.Context, string) (*domain.Chore, error)       { return nil, nil }
func (f *fakeChoreRepo) Update(context.Context, *domain.Chore) (*domain.Chore, error) { return nil, nil }
func (f *fakeChoreRepo) Delete(context.Context, string) error                        { return nil }
func (f *fakeChoreRepo) List(context.Context, repository.ListChoresInput) ([]*domain.Chore, error) {
	return nil, nil
}
func (f *fakeChoreRepo) ListAllScheduled(context.Context) ([]*domain.Chore, error) { return f.scheduled, nil }
func (f *fakeChoreRepo) SetTags(context.Context, string, []string) error          { return nil }
func (f *fakeChoreRepo) TagsForChore(context.Context, string) ([]*domain.Tag, error) {
	return nil, nil
}

type fakeCompletionRepo struct {
	last map[string]*domain.Completion
}

func (f *fakeCompletionRepo) Create(context.Context, *domain.Completion) (*domain.Completion, error) {
	return nil, nil
}
func (f *fakeCompletionRepo) Delete(context.Context, string) error { return nil }
func (f *fakeCompletionRepo) List(context.Context, repository.ListCompletionsInput) ([]*domain.Completion, error) {
	return nil, nil
}
func (f *fakeCompletionRepo) LastForChore(context.Context, string) (*domain.Completion, error) {
	return nil, nil
}
func (f *fakeCompletionRepo) LastForChores(_ context.Context, ids []string) (map[string]*domain.Completion, error) {
	out := make(map[string]*domain.Completion)
	for _, id := range ids {
		if c, ok := f.last[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type fakeMaterializeRepo struct {
	mu       sync.Mutex
	inserted []*domain.NotificationEvent
	seen     map[string]bool
}

func (f *fakeMaterializeRepo) MaterializeDue(_ context.Context, e *domain.NotificationEvent, _ []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := e.ChoreID + "|" + string(e.EventType) + "|" + e.DueAt.String()
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	f.inserted = append(f.inserted, e)
	return true, nil
}

func (f *fakeMaterializeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestMaterializer_MaterializesDueChoreOnce(t *testing.T) {
	now := time.Now().UTC()
	chore := &domain.Chore{
		ID:          "chore-1",
		Name:        "Water the plants",
		Description: "living room pots",
		Schedule:    domain.Schedule{Kind: domain.ScheduleCron, CronExpr: "* * * * *"},
		CreatedAt:   now.Add(-time.Hour),
	}
	chores := &fakeChoreRepo{scheduled: []*domain.Chore{chore}}
	completions := &fakeCompletionRepo{last: map[string]*domain.Completion{}}
	mat := &fakeMaterializeRepo{}

	m := materializer.New(chores, completions, mat, []string{"telegram"}, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	waitForCondition(t, func() bool { return mat.count() >= 1 })
	time.Sleep(30 * time.Millisecond) // let a couple more ticks pass
	cancel()

	if mat.count() != 1 {
		t.Fatalf("expected exactly one materialized event despite repeated ticks, got %d", mat.count())
	}
}

func TestMaterializer_SkipsUpcomingChore(t *testing.T) {
	now := time.Now().UTC()
	chore := &domain.Chore{
		ID:        "chore-future",
		Name:      "Rotate tires",
		Schedule:  domain.Schedule{Kind: domain.ScheduleInterval, IntervalDays: 180},
		CreatedAt: now,
	}
	chores := &fakeChoreRepo{scheduled: []*domain.Chore{chore}}
	completions := &fakeCompletionRepo{last: map[string]*domain.Completion{}}
	mat := &fakeMaterializeRepo{}

	m := materializer.New(chores, completions, mat, []string{"telegram"}, 10*time.Millisecond, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	time.Sleep(40 * time.Millisecond)
	cancel()

	if mat.count() != 0 {
		t.Fatalf("expected no materialization for a not-yet-due chore, got %d", mat.count())
	}
}

func TestMaterializer_SkipsInvalidScheduleWithoutPanicking(t *testing.T) {
	broken := &domain.Chore{
		ID:        "chore-broken",
		Name:      "Broken",
		Schedule:  domain.Schedule{Kind: domain.ScheduleCron, CronExpr: "not a cron"},
		CreatedAt: time.Now().UTC(),
	}
	chores := &fakeChoreRepo{scheduled: []*domain.Chore{broken}}
	completions := &fakeCompletionRepo{last: map[string]*domain.Completion{}}
	mat := &fakeMaterializeRepo{}

	m := materializer.New(chores, completions, mat, []string{"telegram"}, 10*time.Millisecond, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	time.Sleep(40 * time.Millisecond)
	cancel()

	if mat.count() != 0 {
		t.Fatalf("expected invalid-schedule chore to never materialize, got %d", mat.count())
	}
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
