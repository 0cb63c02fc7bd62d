package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/teampulse/internal/analytics"
	"github.com/hitoshi/teampulse/internal/middleware"
	"github.com/hitoshi/teampulse/internal/model"
)

// AggregatorInterface はダッシュボードハンドラーが必要とする集計インターフェース。
type AggregatorInterface interface {
	TeamOverview(ctx context.Context, teamID string, scope model.Scope, start, end time.Time, interval string) (*analytics.OverviewResult, error)
	DailyActivity(ctx context.Context, teamID string, scope model.Scope, start, end time.Time) ([]analytics.ActivityPoint, error)
	Organization(ctx context.Context, start, end time.Time, interval string) (*analytics.OrgResult, error)
}

// CorrelatorInterface は相関分析のインターフェース。
type CorrelatorInterface interface {
	Correlate(ctx context.Context, teamID string, scope model.Scope, start, end time.Time) (*analytics.CorrelationResult, error)
}

// DashboardHandler はダッシュボード集計のHTTPハンドラー。
type DashboardHandler struct {
	aggregator AggregatorInterface
	correlator CorrelatorInterface
	now        func() time.Time
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(aggregator AggregatorInterface, correlator CorrelatorInterface) *DashboardHandler {
	return &DashboardHandler{
		aggregator: aggregator,
		correlator: correlator,
		now:        time.Now,
	}
}

// riskBucketResponse はリスク分布1バケット分のAPIレスポンス。
type riskBucketResponse struct {
	RiskLevel string  `json:"risk_level"`
	Count     int     `json:"count"`
	AvgScore  float64 `json:"avg_score"`
}

// trendPointResponse はトレンド1バケット分のAPIレスポンス。
type trendPointResponse struct {
	Year         int     `json:"year"`
	Period       int     `json:"period"`
	AvgScore     float64 `json:"avg_score"`
	CheckinCount int     `json:"checkin_count"`
}

// overviewResponse はチーム概況のAPIレスポンス。
type overviewResponse struct {
	TeamID           string               `json:"team_id"`
	TeamCode         string               `json:"team_code"`
	TeamName         string               `json:"team_name"`
	AverageBurnout   float64              `json:"average_burnout"`
	RiskLevel        string               `json:"risk_level"`
	TotalCheckins    int                  `json:"total_checkins"`
	ActiveDays       int                  `json:"active_days"`
	RiskDistribution []riskBucketResponse `json:"risk_distribution"`
	Trend            []trendPointResponse `json:"trend"`
	TrendInterval    string               `json:"trend_interval"`
}

// correlationPointResponse は相関系列の1週分のAPIレスポンス。
type correlationPointResponse struct {
	WeekStart         string   `json:"week_start"`
	AbsenceRate       *float64 `json:"absence_rate"`
	AttendanceRecords int      `json:"attendance_records"`
	AvgBurnout        *float64 `json:"avg_burnout"`
	CheckinCount      int      `json:"checkin_count"`
}

// correlationResponse は相関分析のAPIレスポンス。
// coefficientはデータ不足・分散0のときnull（0とは区別される）。
type correlationResponse struct {
	Points         []correlationPointResponse `json:"points"`
	Coefficient    *float64                   `json:"coefficient"`
	PointCount     int                        `json:"point_count"`
	Interpretation string                     `json:"interpretation"`
}

// Overview はチームの概況・リスク分布・トレンドを返す。
// GET /api/dashboard/team/{teamID}/overview
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
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

	overview, err := h.aggregator.TeamOverview(r.Context(), teamID, scope, start, end, query.Get("interval"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOverviewResponse(overview))
}

// Correlation は週次の欠勤率×バーンアウトの相関分析を返す。
// GET /api/dashboard/team/{teamID}/correlation
func (h *DashboardHandler) Correlation(w http.ResponseWriter, r *http.Request) {
	scope, err := middleware.ScopeFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, unauthorizedError())
		return
	}

	teamID := chi.URLParam(r, "teamID")
	query := r.URL.Query()

	// 相関分析は週次系列が必要なため、既定の期間を12週間に広げる
	startDate, endDate := query.Get("startDate"), query.Get("endDate")
	var start, end time.Time
	if startDate != "" || endDate != "" {
		start, end, err = analytics.ResolveWindow("", startDate, endDate, h.now())
		if err != nil {
			handleServiceError(w, err)
			return
		}
	} else {
		end = h.now()
		start = end.AddDate(0, 0, -12*7)
	}

	result, err := h.correlator.Correlate(r.Context(), teamID, scope, start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	points := make([]correlationPointResponse, 0, len(result.Points))
	for _, p := range result.Points {
		points = append(points, correlationPointResponse{
			WeekStart:         p.WeekStart,
			AbsenceRate:       p.AbsenceRate,
			AttendanceRecords: p.AttendanceRecords,
			AvgBurnout:        p.AvgBurnout,
			CheckinCount:      p.CheckinCount,
		})
	}

	writeJSON(w, http.StatusOK, correlationResponse{
		Points:         points,
		Coefficient:    result.Coefficient,
		PointCount:     result.PointCount,
		Interpretation: result.Interpretation,
	})
}

// Activity はチームの日別アクティビティを返す。
// GET /api/dashboard/team/{teamID}/activity
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
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

	points, err := h.aggregator.DailyActivity(r.Context(), teamID, scope, start, end)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"activity": points})
}

// teamSummaryResponse は組織ダッシュボードのチーム1件分のAPIレスポンス。
type teamSummaryResponse struct {
	TeamID        string     `json:"team_id"`
	TeamCode      string     `json:"team_code"`
	TeamName      string     `json:"team_name"`
	AvgScore      *float64   `json:"avg_score"`
	RiskLevel     *string    `json:"risk_level"`
	CheckinCount  int        `json:"checkin_count"`
	LastCheckinAt *time.Time `json:"last_checkin_at"`
}

// orgResponse は組織ダッシュボードのAPIレスポンス。
type orgResponse struct {
	TotalTeams     int                   `json:"total_teams"`
	TotalEmployees int                   `json:"total_employees"`
	TotalCheckins  int                   `json:"total_checkins"`
	AverageBurnout float64               `json:"average_burnout"`
	RiskBuckets    []riskBucketResponse  `json:"risk_buckets"`
	Teams          []teamSummaryResponse `json:"teams"`
	AtRiskTeams    []teamSummaryResponse `json:"at_risk_teams"`
	Trend          []trendPointResponse  `json:"trend"`
	TrendInterval  string                `json:"trend_interval"`
}

// Organization は組織全体のダッシュボードを返す。
// GET /api/dashboard/organization
func (h *DashboardHandler) Organization(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start, end, err := analytics.ResolveWindow(query.Get("period"), query.Get("startDate"), query.Get("endDate"), h.now())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.aggregator.Organization(r.Context(), start, end, query.Get("interval"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrgResponse(result))
}

// --- 変換ヘルパー ---

func toOverviewResponse(o *analytics.OverviewResult) overviewResponse {
	dist := make([]riskBucketResponse, 0, len(o.RiskDistribution))
	for _, b := range o.RiskDistribution {
		dist = append(dist, riskBucketResponse{
			RiskLevel: string(b.RiskLevel),
			Count:     b.Count,
			AvgScore:  b.AvgScore,
		})
	}

	return overviewResponse{
		TeamID:           o.TeamID,
		TeamCode:         o.TeamCode,
		TeamName:         o.TeamName,
		AverageBurnout:   o.AverageBurnout,
		RiskLevel:        string(o.RiskLevel),
		TotalCheckins:    o.TotalCheckins,
		ActiveDays:       o.ActiveDays,
		RiskDistribution: dist,
		Trend:            toTrendResponse(o.Trend),
		TrendInterval:    o.TrendInterval,
	}
}

func toTrendResponse(trend []analytics.TrendPoint) []trendPointResponse {
	points := make([]trendPointResponse, 0, len(trend))
	for _, p := range trend {
		points = append(points, trendPointResponse{
			Year:         p.Year,
			Period:       p.Period,
			AvgScore:     p.AvgScore,
			CheckinCount: p.CheckinCount,
		})
	}
	return points
}

func toOrgResponse(o *analytics.OrgResult) orgResponse {
	buckets := make([]riskBucketResponse, 0, len(o.RiskBuckets))
	for _, b := range o.RiskBuckets {
		buckets = append(buckets, riskBucketResponse{
			RiskLevel: string(b.RiskLevel),
			Count:     b.Count,
			AvgScore:  b.AvgScore,
		})
	}

	return orgResponse{
		TotalTeams:     o.TotalTeams,
		TotalEmployees: o.TotalEmployees,
		TotalCheckins:  o.TotalCheckins,
		AverageBurnout: o.AverageBurnout,
		RiskBuckets:    buckets,
		Teams:          toTeamSummaryResponses(o.Teams),
		AtRiskTeams:    toTeamSummaryResponses(o.AtRiskTeams),
		Trend:          toTrendResponse(o.Trend),
		TrendInterval:  o.TrendInterval,
	}
}

func toTeamSummaryResponses(teams []analytics.TeamSummary) []teamSummaryResponse {
	result := make([]teamSummaryResponse, 0, len(teams))
	for _, t := range teams {
		var level *string
		if t.RiskLevel != nil {
			s := string(*t.RiskLevel)
			level = &s
		}
		result = append(result, teamSummaryResponse{
			TeamID:        t.TeamID,
			TeamCode:      t.TeamCode,
			TeamName:      t.TeamName,
			AvgScore:      t.AvgScore,
			RiskLevel:     level,
			CheckinCount:  t.CheckinCount,
			LastCheckinAt: t.LastCheckinAt,
		})
	}
	return result
}
