package callback_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FlyinPancake/nag/internal/callback"
	"github.com/FlyinPancake/nag/internal/channel"
	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/repository"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeChannel struct {
	payload channel.CallbackPayload
	err     error
}

func (f *fakeChannel) Name() string { return "fake" }
func (f *fakeChannel) Send(context.Context, string, string, string, channel.ActionHint) error {
	return nil
}
func (f *fakeChannel) VerifyCallback(*http.Request) (channel.CallbackPayload, error) {
	return f.payload, f.err
}

type fakeEventRepo struct {
	events map[string]*domain.NotificationEvent
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.NotificationEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return e, nil
}

type fakeCompletionRepo struct {
	created []*domain.Completion
	err     error
}

func (f *fakeCompletionRepo) Create(_ context.Context, c *domain.Completion) (*domain.Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, c)
	return c, nil
}
func (f *fakeCompletionRepo) Delete(context.Context, string) error { return nil }
func (f *fakeCompletionRepo) List(context.Context, repository.ListCompletionsInput) ([]*domain.Completion, error) {
	return nil, nil
}
func (f *fakeCompletionRepo) LastForChore(context.Context, string) (*domain.Completion, error) {
	return nil, nil
}
func (f *fakeCompletionRepo) LastForChores(context.Context, []string) (map[string]*domain.Completion, error) {
	return nil, nil
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestEngine(ch channel.Channel, events *fakeEventRepo, completions *fakeCompletionRepo) *gin.Engine {
	ing := callback.New(ch, events, completions, testLogger())
	r := gin.New()
	r.POST("/callbacks/fake", ing.Handle)
	return r
}

func TestHandle_VerificationFailureReturns401(t *testing.T) {
	ch := &fakeChannel{err: errors.New("bad secret")}
	r := newTestEngine(ch, &fakeEventRepo{}, &fakeCompletionRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/callbacks/fake", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestHandle_UnknownEventReturns200Idempotent(t *testing.T) {
	ch := &fakeChannel{payload: channel.CallbackPayload{EventID: "missing", ChoreID: "chore-1"}}
	completions := &fakeCompletionRepo{}
	r := newTestEngine(ch, &fakeEventRepo{events: map[string]*domain.NotificationEvent{}}, completions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/callbacks/fake", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for already-processed/expired event", w.Code)
	}
	if len(completions.created) != 0 {
		t.Errorf("expected no completion to be recorded for an unknown event")
	}
}

func TestHandle_KnownEventRecordsCompletion(t *testing.T) {
	ch := &fakeChannel{payload: channel.CallbackPayload{EventID: "evt-1", ChoreID: "chore-1"}}
	events := &fakeEventRepo{events: map[string]*domain.NotificationEvent{
		"evt-1": {ID: "evt-1", ChoreID: "chore-1"},
	}}
	completions := &fakeCompletionRepo{}
	r := newTestEngine(ch, events, completions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/callbacks/fake", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(completions.created) != 1 || completions.created[0].ChoreID != "chore-1" {
		t.Fatalf("expected one completion for chore-1, got %+v", completions.created)
	}
}

func TestHandle_CompletionInsertErrorReturns500(t *testing.T) {
	ch := &fakeChannel{payload: channel.CallbackPayload{EventID: "evt-1", ChoreID: "chore-1"}}
	events := &fakeEventRepo{events: map[string]*domain.NotificationEvent{
		"evt-1": {ID: "evt-1", ChoreID: "chore-1"},
	}}
	completions := &fakeCompletionRepo{err: errors.New("db down")}
	r := newTestEngine(ch, events, completions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/callbacks/fake", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
