package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/teampulse/internal/metrics"
	"github.com/hitoshi/teampulse/internal/middleware"
	"github.com/hitoshi/teampulse/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           *metrics.Collector
	Gatherer          prometheus.Gatherer

	// ヘルスチェック
	DB *sql.DB

	// サービス
	CheckinService    CheckinServiceInterface
	TeamTokenResolver TeamTokenResolverInterface
	TokenService      TokenServiceInterface
	Reconciler        ReconcilerInterface
	AttendanceStats   AttendanceStatsInterface
	Aggregator        AggregatorInterface
	Correlator        CorrelatorInterface
	AdminService      AdminServiceInterface

	// アップロードサイズ上限（バイト）
	MaxUploadSize int64
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → (公開: チェックインIPレート制限 / 認証: Session → 役割 → 一般レート制限)
//
// /health と /metrics はCORS・認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Metrics))

	checkinHandler := NewCheckinHandler(deps.CheckinService, deps.TeamTokenResolver)
	tokenHandler := NewTokenHandler(deps.TokenService)
	attendanceHandler := NewAttendanceHandler(deps.Reconciler, deps.AttendanceStats, deps.MaxUploadSize)
	dashboardHandler := NewDashboardHandler(deps.Aggregator, deps.Correlator)
	adminHandler := NewAdminHandler(deps.AdminService)

	// --- インフラルート ---

	r.Get("/health", newHealthHandler(deps.DB))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- CORS配下のAPIルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

		// 公開チェックインルート（認証なし、IPキーのレート制限）
		r.Route("/api/public/checkin", func(r chi.Router) {
			r.Use(deps.RateLimiter.CheckinMiddleware())

			r.Get("/by-team/{teamCode}", checkinHandler.ByTeam)
			r.Get("/{token}", checkinHandler.Verify)
			r.Post("/{token}", checkinHandler.Submit)
		})

		// 認証が必要なルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			// 勤怠
			r.Route("/api/attendance", func(r chi.Router) {
				r.With(middleware.NewRequireRoleMiddleware(model.RoleAdmin, model.RoleManager)).
					Post("/upload", attendanceHandler.Upload)
				r.Get("/template", attendanceHandler.Template)
				r.Get("/team/{teamID}/stats", attendanceHandler.Stats)
			})

			// ダッシュボード
			r.Route("/api/dashboard", func(r chi.Router) {
				r.Route("/team/{teamID}", func(r chi.Router) {
					r.Get("/overview", dashboardHandler.Overview)
					r.Get("/correlation", dashboardHandler.Correlation)
					r.Get("/activity", dashboardHandler.Activity)
				})
				r.With(middleware.NewRequireRoleMiddleware(model.RoleAdmin, model.RoleHR)).
					Get("/organization", dashboardHandler.Organization)
			})

			// トークン管理
			r.Group(func(r chi.Router) {
				r.Use(middleware.NewRequireRoleMiddleware(model.RoleAdmin, model.RoleManager))

				r.Post("/api/teams/{teamID}/token", tokenHandler.Issue)
				r.Get("/api/teams/{teamID}/tokens", tokenHandler.List)
				r.Delete("/api/tokens/{tokenID}", tokenHandler.Revoke)
			})

			// チェックイン管理メンテナンス
			r.Route("/api/admin", func(r chi.Router) {
				r.Use(middleware.NewRequireRoleMiddleware(model.RoleAdmin))

				r.Get("/checkins", adminHandler.ListCheckins)
				r.Put("/checkins/{id}", adminHandler.UpdateCheckin)
				r.Delete("/checkins/{id}", adminHandler.DeleteCheckin)
				r.Post("/maintenance/recalculate-burnout", adminHandler.Recalculate)
			})
		})
	})

	return r
}

// newHealthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"reason": "database unreachable",
				})
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
