package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teampulse/internal/middleware"
	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/token"
)

// TokenServiceInterface はトークンハンドラーが必要とするサービスインターフェース。
type TokenServiceInterface interface {
	Issue(ctx context.Context, teamID string, scope model.Scope, expiresInDays *int, createdBy string) (*token.IssuedToken, error)
	List(ctx context.Context, teamID string, scope model.Scope) ([]token.TokenInfo, error)
	Revoke(ctx context.Context, tokenID string, scope model.Scope) error
}

// TokenHandler はチェックイントークン管理のHTTPハンドラー。
type TokenHandler struct {
	service TokenServiceInterface
}

// NewTokenHandler はTokenHandlerを生成する。
func NewTokenHandler(service TokenServiceInterface) *TokenHandler {
	return &TokenHandler{service: service}
}

// issueTokenRequest はトークン発行リクエストのボディ。
type issueTokenRequest struct {
	ExpiresInDays *int `json:"expires_in_days"`
}

// issuedTokenResponse はトークン発行のAPIレスポンス。
type issuedTokenResponse struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"`
	CheckinURL string     `json:"checkin_url"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// tokenInfoResponse はトークン一覧の1項目のAPIレスポンス。
type tokenInfoResponse struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"`
	CheckinURL string     `json:"checkin_url"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedBy  *string    `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UsageCount int        `json:"usage_count"`
}

// Issue は新しいチェックイントークンを発行する。
// POST /api/teams/{teamID}/token
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	scope, err := middleware.ScopeFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	teamID := chi.URLParam(r, "teamID")

	var req issueTokenRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeInvalidRequestBody(w)
			return
		}
	}

	issued, err := h.service.Issue(r.Context(), teamID, scope, req.ExpiresInDays, scope.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, issuedTokenResponse{
		ID:         issued.ID,
		Token:      issued.Token,
		CheckinURL: issued.CheckinURL,
		ExpiresAt:  issued.ExpiresAt,
		CreatedAt:  issued.CreatedAt,
	})
}

// List はチームのトークン一覧を返す。
// GET /api/teams/{teamID}/tokens
func (h *TokenHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := middleware.ScopeFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	teamID := chi.URLParam(r, "teamID")

	tokens, err := h.service.List(r.Context(), teamID, scope)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]tokenInfoResponse, 0, len(tokens))
	for _, t := range tokens {
		items = append(items, tokenInfoResponse{
			ID:         t.ID,
			Token:      t.Token,
			CheckinURL: t.CheckinURL,
			Status:     string(t.Status),
			ExpiresAt:  t.ExpiresAt,
			CreatedBy:  t.CreatedBy,
			CreatedAt:  t.CreatedAt,
			UsageCount: t.UsageCount,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"tokens": items})
}

// Revoke はトークンを取り消す。
// DELETE /api/tokens/{tokenID}
func (h *TokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	scope, err := middleware.ScopeFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	tokenID := chi.URLParam(r, "tokenID")

	if err := h.service.Revoke(r.Context(), tokenID, scope); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// unauthorizedError は401の統一エラーを返す。
func unauthorizedError() *model.APIError {
	return &model.APIError{
		Code:     model.ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}
