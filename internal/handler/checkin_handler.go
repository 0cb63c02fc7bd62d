package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teampulse/internal/checkin"
	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/token"
)

// CheckinServiceInterface はチェックインハンドラーが必要とするサービスインターフェース。
type CheckinServiceInterface interface {
	// Verify はトークンを検証し、フォーム表示用のチーム情報を返す。
	Verify(ctx context.Context, tokenString string) (*checkin.TokenContext, error)
	// Submit はチェックインを受け付ける。
	Submit(ctx context.Context, tokenString string, input checkin.SubmitInput) (*checkin.SubmitResult, error)
}

// TeamTokenResolverInterface はチームコードからアクティブトークンを引くインターフェース。
type TeamTokenResolverInterface interface {
	ResolveTeamToken(ctx context.Context, teamCode string) (*token.TeamTokenInfo, error)
}

// CheckinHandler は匿名チェックインの公開HTTPハンドラー。
type CheckinHandler struct {
	service  CheckinServiceInterface
	resolver TeamTokenResolverInterface
}

// NewCheckinHandler はCheckinHandlerを生成する。
func NewCheckinHandler(service CheckinServiceInterface, resolver TeamTokenResolverInterface) *CheckinHandler {
	return &CheckinHandler{service: service, resolver: resolver}
}

// verifyResponse はトークン検証のAPIレスポンス。
type verifyResponse struct {
	Valid     bool       `json:"valid"`
	TeamCode  string     `json:"team_code"`
	TeamName  string     `json:"team_name"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// checkinAnswersRequest は5項目の回答を受け取るリクエストボディ。
// ポインタで受けることで、欠けている回答とゼロ値の回答を区別する。
type checkinAnswersRequest struct {
	Workload   *int `json:"workload"`
	Stress     *int `json:"stress"`
	Sleep      *int `json:"sleep"`
	Engagement *int `json:"engagement"`
	Recovery   *int `json:"recovery"`
}

// toSubmitInput は全回答が揃っているか検証してSubmitInputに変換する。
func (req *checkinAnswersRequest) toSubmitInput() (checkin.SubmitInput, error) {
	var missing []string
	for _, f := range []struct {
		name  string
		value *int
	}{
		{"workload", req.Workload},
		{"stress", req.Stress},
		{"sleep", req.Sleep},
		{"engagement", req.Engagement},
		{"recovery", req.Recovery},
	} {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return checkin.SubmitInput{}, model.NewInvalidInputError(
			"回答が不足しています: " + strings.Join(missing, ", "))
	}

	return checkin.SubmitInput{
		Workload:   *req.Workload,
		Stress:     *req.Stress,
		Sleep:      *req.Sleep,
		Engagement: *req.Engagement,
		Recovery:   *req.Recovery,
	}, nil
}

// submitResponse はチェックイン受付のAPIレスポンス。
type submitResponse struct {
	Message     string    `json:"message"`
	Score       float64   `json:"score"`
	RiskLevel   string    `json:"risk_level"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// teamTokenResponse はチームコード経由のトークン参照レスポンス。
type teamTokenResponse struct {
	Token      string     `json:"token"`
	CheckinURL string     `json:"checkin_url"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// Verify はチェックイントークンを検証する。
// GET /api/public/checkin/{token}
func (h *CheckinHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tokenString := chi.URLParam(r, "token")

	tc, err := h.service.Verify(r.Context(), tokenString)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Valid:     true,
		TeamCode:  tc.TeamCode,
		TeamName:  tc.TeamName,
		ExpiresAt: tc.ExpiresAt,
	})
}

// ByTeam はチームコードに対する最新のアクティブトークンを返す。
// GET /api/public/checkin/by-team/{teamCode}
func (h *CheckinHandler) ByTeam(w http.ResponseWriter, r *http.Request) {
	teamCode := chi.URLParam(r, "teamCode")

	info, err := h.resolver.ResolveTeamToken(r.Context(), teamCode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, teamTokenResponse{
		Token:      info.Token,
		CheckinURL: info.CheckinURL,
		ExpiresAt:  info.ExpiresAt,
	})
}

// Submit は匿名チェックインの提出を処理する。
// POST /api/public/checkin/{token}
func (h *CheckinHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tokenString := chi.URLParam(r, "token")

	var req checkinAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	input, err := req.toSubmitInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Submit(r.Context(), tokenString, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Message:     "チェックインを受け付けました。ご回答ありがとうございます。",
		Score:       result.Score,
		RiskLevel:   string(result.RiskLevel),
		SubmittedAt: result.SubmittedAt,
	})
}
