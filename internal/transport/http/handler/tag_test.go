package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/FlyinPancake/nag/internal/domain"
	"github.com/FlyinPancake/nag/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
)

type fakeTagRepo struct {
	byID   map[string]*domain.Tag
	byName map[string]bool
}

func (f *fakeTagRepo) Create(_ context.Context, t *domain.Tag) (*domain.Tag, error) {
	if f.byName[t.Name] {
		return nil, domain.ErrTagNameConflict
	}
	t.ID = "tag-1"
	if f.byID == nil {
		f.byID = map[string]*domain.Tag{}
	}
	f.byID[t.ID] = t
	return t, nil
}

func (f *fakeTagRepo) GetByID(_ context.Context, id string) (*domain.Tag, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrTagNotFound
	}
	return t, nil
}

func (f *fakeTagRepo) Update(_ context.Context, t *domain.Tag) (*domain.Tag, error) {
	if _, ok := f.byID[t.ID]; !ok {
		return nil, domain.ErrTagNotFound
	}
	if f.byName[t.Name] {
		return nil, domain.ErrTagNameConflict
	}
	f.byID[t.ID] = t
	return t, nil
}

func (f *fakeTagRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrTagNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTagRepo) List(context.Context) ([]*domain.Tag, error) {
	var out []*domain.Tag
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out, nil
}

func newTagEngine(tags *fakeTagRepo) *gin.Engine {
	h := handler.NewTagHandler(tags, testLogger())
	r := gin.New()
	r.POST("/tags", h.Create)
	r.PUT("/tags/:id", h.Update)
	r.DELETE("/tags/:id", h.Delete)
	r.GET("/tags", h.List)
	return r
}

func TestTagCreate_ValidReturns201(t *testing.T) {
	r := newTagEngine(&fakeTagRepo{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tags", strings.NewReader(`{"name":"home"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestTagCreate_DuplicateNameReturns409(t *testing.T) {
	r := newTagEngine(&fakeTagRepo{byName: map[string]bool{"home": true}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tags", strings.NewReader(`{"name":"home"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestTagUpdate_UnknownTagReturns404(t *testing.T) {
	r := newTagEngine(&fakeTagRepo{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/tags/missing", strings.NewReader(`{"name":"home"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestTagDelete_RemovesKnownTag(t *testing.T) {
	tags := &fakeTagRepo{byID: map[string]*domain.Tag{"t1": {ID: "t1", Name: "home"}}}
	r := newTagEngine(tags)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/tags/t1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if _, ok := tags.byID["t1"]; ok {
		t.Error("expected tag to be deleted")
	}
}

func TestTagDelete_UnknownTagReturns404(t *testing.T) {
	r := newTagEngine(&fakeTagRepo{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/tags/missing", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestTagList_ReturnsAllTags(t *testing.T) {
	tags := &fakeTagRepo{byID: map[string]*domain.Tag{
		"t1": {ID: "t1", Name: "home"},
		"t2": {ID: "t2", Name: "car"},
	}}
	r := newTagEngine(tags)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tags", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", w.Code, w.Body.String())
	}
}
