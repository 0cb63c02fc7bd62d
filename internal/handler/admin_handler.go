package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teampulse/internal/checkin"
	"github.com/hitoshi/teampulse/internal/model"
)

// AdminServiceInterface は管理ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	List(ctx context.Context, page, pageSize int) (*checkin.CheckinPage, error)
	Update(ctx context.Context, id string, input checkin.SubmitInput) (*model.CheckIn, error)
	Delete(ctx context.Context, id string) error
	RecalculateAll(ctx context.Context) (int64, error)
}

// AdminHandler はチェックイン管理メンテナンスのHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// checkinResponse はチェックイン1件分のAPIレスポンス。
type checkinResponse struct {
	ID           string    `json:"id"`
	TeamID       string    `json:"team_id"`
	Workload     int       `json:"workload"`
	Stress       int       `json:"stress"`
	Sleep        int       `json:"sleep"`
	Engagement   int       `json:"engagement"`
	Recovery     int       `json:"recovery"`
	BurnoutScore float64   `json:"burnout_score"`
	RiskLevel    string    `json:"risk_level"`
	WeekNumber   int       `json:"week_number"`
	MonthNumber  int       `json:"month_number"`
	Year         int       `json:"year"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// checkinPageResponse はチェックイン一覧のAPIレスポンス。
type checkinPageResponse struct {
	Checkins   []checkinResponse `json:"checkins"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// recalculateResponse は一括再計算のAPIレスポンス。
type recalculateResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// ListCheckins はチェックイン一覧を返す。
// GET /api/admin/checkins?page=&pageSize=
func (h *AdminHandler) ListCheckins(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))

	result, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	checkins := make([]checkinResponse, 0, len(result.Checkins))
	for _, c := range result.Checkins {
		checkins = append(checkins, toCheckinResponse(c))
	}

	writeJSON(w, http.StatusOK, checkinPageResponse{
		Checkins:   checkins,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// UpdateCheckin はチェックインの回答値を修正する。
// PUT /api/admin/checkins/{id}
func (h *AdminHandler) UpdateCheckin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

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

	updated, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCheckinResponse(updated))
}

// DeleteCheckin はチェックインを削除する。
// DELETE /api/admin/checkins/{id}
func (h *AdminHandler) DeleteCheckin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Recalculate は全チェックインのスコアを一括再計算する。
// POST /api/admin/maintenance/recalculate-burnout
func (h *AdminHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.RecalculateAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recalculateResponse{
		Message: "バーンアウトスコアを再計算しました。",
		Updated: updated,
	})
}

// toCheckinResponse はmodel.CheckInからAPIレスポンスに変換する。
// token_usedは管理UIにも出さない（提出経路の特定を避ける）。
func toCheckinResponse(c *model.CheckIn) checkinResponse {
	return checkinResponse{
		ID:           c.ID,
		TeamID:       c.TeamID,
		Workload:     c.Workload,
		Stress:       c.Stress,
		Sleep:        c.Sleep,
		Engagement:   c.Engagement,
		Recovery:     c.Recovery,
		BurnoutScore: c.BurnoutScore,
		RiskLevel:    string(c.RiskLevel),
		WeekNumber:   c.WeekNumber,
		MonthNumber:  c.MonthNumber,
		Year:         c.Year,
		SubmittedAt:  c.SubmittedAt,
	}
}
