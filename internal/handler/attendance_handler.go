package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teampulse/internal/analytics"
	"github.com/hitoshi/teampulse/internal/attendance"
	"github.com/hitoshi/teampulse/internal/middleware"
	"github.com/hitoshi/teampulse/internal/model"
)

// ReconcilerInterface は勤怠アップロードハンドラーが必要とするサービスインターフェース。
type ReconcilerInterface interface {
	Reconcile(ctx context.Context, rows []attendance.Row, scope model.Scope, uploadedBy string) (*attendance.Summary, error)
}

// AttendanceStatsInterface は勤怠統計のサービスインターフェース。
type AttendanceStatsInterface interface {
	TeamStats(ctx context.Context, teamID string, scope model.Scope, start, end time.Time) (*attendance.StatsResult, error)
}

// AttendanceHandler は勤怠アップロード・統計のHTTPハンドラー。
type AttendanceHandler struct {
	reconciler    ReconcilerInterface
	stats         AttendanceStatsInterface
	maxUploadSize int64
	now           func() time.Time
}

// NewAttendanceHandler はAttendanceHandlerを生成する。
func NewAttendanceHandler(reconciler ReconcilerInterface, stats AttendanceStatsInterface, maxUploadSize int64) *AttendanceHandler {
	return &AttendanceHandler{
		reconciler:    reconciler,
		stats:         stats,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
	}
}

// uploadSummaryResponse はアップロード受理のAPIレスポンス。
type uploadSummaryResponse struct {
	Message     string `json:"message"`
	TotalRows   int    `json:"total_rows"`
	TeamsInFile int    `json:"teams_in_file"`
	Inserted    int    `json:"inserted"`
	Updated     int    `json:"updated"`
	Skipped     int    `json:"skipped"`
}

// statsResponse は勤怠統計のAPIレスポンス。
type statsResponse struct {
	TotalRecords    int     `json:"total_records"`
	UniqueEmployees int     `json:"unique_employees"`
	DaysCovered     int     `json:"days_covered"`
	PresentCount    int     `json:"present_count"`
	AbsentCount     int     `json:"absent_count"`
	LeaveCount      int     `json:"leave_count"`
	SickCount       int     `json:"sick_count"`
	AbsenceRate     float64 `json:"absence_rate"`
}

// Upload は勤怠ファイルのアップロードを処理する。
// POST /api/attendance/upload（multipart/form-data、フィールド名 "file"）
//
// ファイルは一時ファイルに保存してから解析し、レスポンスの成否に
// かかわらず処理後に削除する。
func (h *AttendanceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	scope, err := middleware.ScopeFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyOrUnparseableError("ファイルサイズが上限を超えているか、multipart形式が不正です"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyOrUnparseableError("fileフィールドが見つかりません"))
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "attendance-upload-*")
	if err != nil {
		slog.Error("一時ファイルの作成に失敗しました", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		slog.Error("一時ファイルへの書き込みに失敗しました", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}
	tmp.Close()

	rows, err := attendance.ParseFile(tmpPath, header.Filename)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summary, err := h.reconciler.Reconcile(r.Context(), rows, scope, scope.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadSummaryResponse{
		Message:     "勤怠データを取り込みました。",
		TotalRows:   summary.TotalRows,
		TeamsInFile: summary.TeamsInFile,
		Inserted:    summary.Inserted,
		Updated:     summary.Updated,
		Skipped:     summary.Skipped,
	})
}

// Template はアップロードファイルの列仕様とサンプルを返す。
// GET /api/attendance/template
func (h *AttendanceHandler) Template(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, attendance.BuildTemplate())
}

// Stats はチームの勤怠統計を返す。
// GET /api/attendance/team/{teamID}/stats
func (h *AttendanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	scope, err := middleware.ScopeFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	teamID := chi.URLParam(r, "teamID")
	query := r.URL.Query()

	start, end, err := analytics.ResolveWindow(query.Get("period"), query.Get("startDate"), query.Get("endDate"), h.now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	stats, err := h.stats.TeamStats(r.Context(), teamID, scope, start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalRecords:    stats.TotalRecords,
		UniqueEmployees: stats.UniqueEmployees,
		DaysCovered:     stats.DaysCovered,
		PresentCount:    stats.PresentCount,
		AbsentCount:     stats.AbsentCount,
		LeaveCount:      stats.LeaveCount,
		SickCount:       stats.SickCount,
		AbsenceRate:     stats.AbsenceRate,
	})
}
