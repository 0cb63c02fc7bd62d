package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teampulse/internal/checkin"
	"github.com/hitoshi/teampulse/internal/model"
)

type mockAdminService struct {
	listFn           func(ctx context.Context, page, pageSize int) (*checkin.CheckinPage, error)
	updateFn         func(ctx context.Context, id string, input checkin.SubmitInput) (*model.CheckIn, error)
	deleteFn         func(ctx context.Context, id string) error
	recalculateAllFn func(ctx context.Context) (int64, error)
}

func (m *mockAdminService) List(ctx context.Context, page, pageSize int) (*checkin.CheckinPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, page, pageSize)
	}
	return &checkin.CheckinPage{}, nil
}

func (m *mockAdminService) Update(ctx context.Context, id string, input checkin.SubmitInput) (*model.CheckIn, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, input)
	}
	return &model.CheckIn{}, nil
}

func (m *mockAdminService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockAdminService) RecalculateAll(ctx context.Context) (int64, error) {
	if m.recalculateAllFn != nil {
		return m.recalculateAllFn(ctx)
	}
	return 0, nil
}

func adminRouter(h *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Put("/api/admin/checkins/{id}", h.UpdateCheckin)
	return r
}

func TestAdminHandler_UpdateCheckin_MissingAnswersRejected(t *testing.T) {
	called := false
	service := &mockAdminService{
		updateFn: func(ctx context.Context, id string, input checkin.SubmitInput) (*model.CheckIn, error) {
			called = true
			return &model.CheckIn{}, nil
		},
	}

	router := adminRouter(NewAdminHandler(service))

	// 部分的なボディでは残りの回答をゼロ値として上書きしない
	body := `{"workload":2,"stress":3}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/checkins/c-1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("service should not be called when answers are missing")
	}
}

func TestAdminHandler_UpdateCheckin_FullBody(t *testing.T) {
	var got checkin.SubmitInput
	service := &mockAdminService{
		updateFn: func(ctx context.Context, id string, input checkin.SubmitInput) (*model.CheckIn, error) {
			got = input
			return &model.CheckIn{ID: id, Workload: input.Workload}, nil
		},
	}

	router := adminRouter(NewAdminHandler(service))

	body := `{"workload":1,"stress":2,"sleep":3,"engagement":4,"recovery":0}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/checkins/c-1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	want := checkin.SubmitInput{Workload: 1, Stress: 2, Sleep: 3, Engagement: 4, Recovery: 0}
	if got != want {
		t.Errorf("input = %+v, want %+v", got, want)
	}
}
