package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/teampulse/internal/model"
)

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func TestSessionMiddleware_InjectsUserIDAndRole(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id != "sess-1" {
				t.Errorf("session id = %q, want %q", id, "sess-1")
			}
			return &model.Session{ID: id, UserID: "user-1", Role: model.RoleManager}, nil
		},
	}

	var gotUserID string
	var gotRole model.Role
	handler := NewSessionMiddleware(finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		gotRole, _ = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user-1" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-1")
	}
	if gotRole != model.RoleManager {
		t.Errorf("role = %q, want %q", gotRole, model.RoleManager)
	}
}

func TestSessionMiddleware_MissingCookie(t *testing.T) {
	handler := NewSessionMiddleware(&mockSessionFinder{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSessionMiddleware_UnknownOrExpiredSession(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil // 期限切れまたは未存在
		},
	}

	handler := NewSessionMiddleware(finder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "expired"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRoleMiddleware_AllowsListedRoles(t *testing.T) {
	tests := []struct {
		name       string
		role       model.Role
		wantStatus int
	}{
		{"adminは許可", model.RoleAdmin, http.StatusOK},
		{"managerは許可", model.RoleManager, http.StatusOK},
		{"hrは拒否", model.RoleHR, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewRequireRoleMiddleware(model.RoleAdmin, model.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			ctx := ContextWithUserID(req.Context(), "user-1")
			ctx = ContextWithRole(ctx, tt.role)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req.WithContext(ctx))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireRoleMiddleware_NoRoleInContext(t *testing.T) {
	handler := NewRequireRoleMiddleware(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestScopeFromContext(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-1")
	ctx = ContextWithRole(ctx, model.RoleHR)

	scope, err := ScopeFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if scope.UserID != "user-1" || scope.Role != model.RoleHR {
		t.Errorf("scope = %+v, want user-1/hr", scope)
	}

	if _, err := ScopeFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context, got nil")
	}
}
