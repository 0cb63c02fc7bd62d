package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
)

// PostgresAnalyticsRepo はPostgreSQLを使用したダッシュボード集計リポジトリ。
// 各クエリはバケット集計のみを行い、相関係数等の計算はanalyticsパッケージが担う。
type PostgresAnalyticsRepo struct {
	db *sql.DB
}

// NewPostgresAnalyticsRepo はPostgresAnalyticsRepoを生成する。
func NewPostgresAnalyticsRepo(db *sql.DB) *PostgresAnalyticsRepo {
	return &PostgresAnalyticsRepo{db: db}
}

// Overview は期間内のチェックイン概況を返す。
func (r *PostgresAnalyticsRepo) Overview(ctx context.Context, teamID string, start, end time.Time) (*OverviewRow, error) {
	row := &OverviewRow{}
	var avg sql.NullFloat64

	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(burnout_score), COUNT(*), COUNT(DISTINCT DATE(submitted_at))
		 FROM check_ins
		 WHERE team_id = $1 AND submitted_at >= $2 AND submitted_at <= $3`,
		teamID, start, end,
	).Scan(&avg, &row.TotalCheckins, &row.ActiveDays)
	if err != nil {
		return nil, fmt.Errorf("チーム概況の取得に失敗しました: %w", err)
	}

	if avg.Valid {
		row.AverageBurnout = avg.Float64
	}

	return row, nil
}

// RiskDistribution は期間内のリスクレベル別集計を重症度順で返す。
// 0件のレベルは行として現れない。
func (r *PostgresAnalyticsRepo) RiskDistribution(ctx context.Context, teamID string, start, end time.Time) ([]RiskDistRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT risk_level, COUNT(*), AVG(burnout_score)
		 FROM check_ins
		 WHERE team_id = $1 AND submitted_at >= $2 AND submitted_at <= $3
		 GROUP BY risk_level
		 ORDER BY CASE risk_level
			WHEN 'low' THEN 1
			WHEN 'moderate' THEN 2
			WHEN 'high' THEN 3
			WHEN 'critical' THEN 4
		 END`,
		teamID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("リスク分布の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanRiskDistRows(rows)
}

// TrendByWeek は週次トレンドを(year, week_number)降順で最大limit件返す。
// 直近Nバケットを取るために降順で読み、昇順への並べ替えはサービス側が行う。
func (r *PostgresAnalyticsRepo) TrendByWeek(ctx context.Context, teamID string, limit int) ([]TrendRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT year, week_number, AVG(burnout_score), COUNT(*)
		 FROM check_ins
		 WHERE team_id = $1
		 GROUP BY year, week_number
		 ORDER BY year DESC, week_number DESC
		 LIMIT $2`,
		teamID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("週次トレンドの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTrendRows(rows)
}

// TrendByMonth は月次トレンドを(year, month_number)降順で最大limit件返す。
func (r *PostgresAnalyticsRepo) TrendByMonth(ctx context.Context, teamID string, limit int) ([]TrendRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT year, month_number, AVG(burnout_score), COUNT(*)
		 FROM check_ins
		 WHERE team_id = $1
		 GROUP BY year, month_number
		 ORDER BY year DESC, month_number DESC
		 LIMIT $2`,
		teamID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("月次トレンドの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTrendRows(rows)
}

// DailyActivity は期間内の日別チェックイン集計を日付昇順で返す。
func (r *PostgresAnalyticsRepo) DailyActivity(ctx context.Context, teamID string, start, end time.Time) ([]ActivityRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE(submitted_at), COUNT(*), AVG(burnout_score)
		 FROM check_ins
		 WHERE team_id = $1 AND submitted_at >= $2 AND submitted_at <= $3
		 GROUP BY DATE(submitted_at)
		 ORDER BY DATE(submitted_at) ASC`,
		teamID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("日別アクティビティの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []ActivityRow
	for rows.Next() {
		var row ActivityRow
		if err := rows.Scan(&row.Date, &row.Count, &row.AvgScore); err != nil {
			return nil, fmt.Errorf("日別アクティビティ行の読み取りに失敗しました: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("日別アクティビティの走査に失敗しました: %w", err)
	}

	return result, nil
}

// WeeklyAbsence は期間内の勤怠レコードをISO週開始日でバケットした欠勤集計を返す。
// date_truncの週はISO準拠（月曜始まり）であり、エンジン側のWeekStartと一致する。
func (r *PostgresAnalyticsRepo) WeeklyAbsence(ctx context.Context, teamID string, start, end time.Time) ([]AbsenceBucket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			DATE_TRUNC('week', date)::date AS week_start,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Absent')
		 FROM attendance
		 WHERE team_id = $1 AND date >= $2 AND date <= $3
		 GROUP BY 1
		 ORDER BY 1 ASC`,
		teamID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("週次欠勤集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []AbsenceBucket
	for rows.Next() {
		var b AbsenceBucket
		if err := rows.Scan(&b.WeekStart, &b.TotalRecords, &b.AbsentCount); err != nil {
			return nil, fmt.Errorf("週次欠勤行の読み取りに失敗しました: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("週次欠勤集計の走査に失敗しました: %w", err)
	}

	return result, nil
}

// WeeklyBurnout は期間内のチェックインをISO週開始日でバケットした平均スコアを返す。
func (r *PostgresAnalyticsRepo) WeeklyBurnout(ctx context.Context, teamID string, start, end time.Time) ([]BurnoutBucket, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			DATE_TRUNC('week', submitted_at)::date AS week_start,
			AVG(burnout_score),
			COUNT(*)
		 FROM check_ins
		 WHERE team_id = $1 AND submitted_at >= $2 AND submitted_at <= $3
		 GROUP BY 1
		 ORDER BY 1 ASC`,
		teamID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("週次バーンアウト集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []BurnoutBucket
	for rows.Next() {
		var b BurnoutBucket
		if err := rows.Scan(&b.WeekStart, &b.AvgScore, &b.CheckinCount); err != nil {
			return nil, fmt.Errorf("週次バーンアウト行の読み取りに失敗しました: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("週次バーンアウト集計の走査に失敗しました: %w", err)
	}

	return result, nil
}

// TeamSummaries は全アクティブチームの期間内サマリーを平均スコア降順で返す。
// チェックインのないチームも（AvgScore=nilで）含める。
func (r *PostgresAnalyticsRepo) TeamSummaries(ctx context.Context, start, end time.Time) ([]TeamSummaryRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT
			t.id, t.team_code, t.team_name,
			stats.avg_burnout, COALESCE(stats.checkin_count, 0), stats.last_checkin_at
		 FROM teams t
		 LEFT JOIN LATERAL (
			SELECT
				AVG(c.burnout_score) AS avg_burnout,
				COUNT(*)::int AS checkin_count,
				MAX(c.submitted_at) AS last_checkin_at
			FROM check_ins c
			WHERE c.team_id = t.id AND c.submitted_at >= $1 AND c.submitted_at <= $2
		 ) stats ON TRUE
		 WHERE t.is_active = TRUE
		 ORDER BY COALESCE(stats.avg_burnout, 0) DESC, t.team_name ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("チームサマリーの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var result []TeamSummaryRow
	for rows.Next() {
		var row TeamSummaryRow
		var avg sql.NullFloat64
		var last sql.NullTime

		if err := rows.Scan(&row.TeamID, &row.TeamCode, &row.TeamName, &avg, &row.CheckinCount, &last); err != nil {
			return nil, fmt.Errorf("チームサマリー行の読み取りに失敗しました: %w", err)
		}

		if avg.Valid {
			row.AvgScore = &avg.Float64
		}
		if last.Valid {
			row.LastCheckinAt = &last.Time
		}

		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("チームサマリーの走査に失敗しました: %w", err)
	}

	return result, nil
}

// OrgTrendByWeek は全アクティブチーム横断の週次トレンドを降順で最大limit件返す。
func (r *PostgresAnalyticsRepo) OrgTrendByWeek(ctx context.Context, limit int) ([]TrendRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.year, c.week_number, AVG(c.burnout_score), COUNT(*)
		 FROM check_ins c
		 JOIN teams t ON t.id = c.team_id
		 WHERE t.is_active = TRUE
		 GROUP BY c.year, c.week_number
		 ORDER BY c.year DESC, c.week_number DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("組織週次トレンドの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTrendRows(rows)
}

// OrgTrendByMonth は全アクティブチーム横断の月次トレンドを降順で最大limit件返す。
func (r *PostgresAnalyticsRepo) OrgTrendByMonth(ctx context.Context, limit int) ([]TrendRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.year, c.month_number, AVG(c.burnout_score), COUNT(*)
		 FROM check_ins c
		 JOIN teams t ON t.id = c.team_id
		 WHERE t.is_active = TRUE
		 GROUP BY c.year, c.month_number
		 ORDER BY c.year DESC, c.month_number DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("組織月次トレンドの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanTrendRows(rows)
}

// OrgEmployeeCount は勤怠データ上の組織全体の従業員数を返す。
func (r *PostgresAnalyticsRepo) OrgEmployeeCount(ctx context.Context) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT a.employee_id)
		 FROM attendance a
		 JOIN teams t ON t.id = a.team_id
		 WHERE t.is_active = TRUE AND TRIM(a.employee_id) <> ''`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("従業員数の取得に失敗しました: %w", err)
	}

	return count, nil
}

// scanTrendRows はトレンド集計の行セットを読み取る。
func scanTrendRows(rows *sql.Rows) ([]TrendRow, error) {
	var result []TrendRow
	for rows.Next() {
		var row TrendRow
		if err := rows.Scan(&row.Year, &row.Period, &row.AvgScore, &row.Count); err != nil {
			return nil, fmt.Errorf("トレンド行の読み取りに失敗しました: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("トレンド集計の走査に失敗しました: %w", err)
	}
	return result, nil
}

// scanRiskDistRows はリスク分布の行セットを読み取る。
func scanRiskDistRows(rows *sql.Rows) ([]RiskDistRow, error) {
	var result []RiskDistRow
	for rows.Next() {
		var row RiskDistRow
		var level string
		if err := rows.Scan(&level, &row.Count, &row.AvgScore); err != nil {
			return nil, fmt.Errorf("リスク分布行の読み取りに失敗しました: %w", err)
		}
		row.RiskLevel = model.RiskLevel(level)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リスク分布の走査に失敗しました: %w", err)
	}
	return result, nil
}
