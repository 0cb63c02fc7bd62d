package analytics

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
	"github.com/hitoshi/teampulse/internal/scoring"
)

// RiskBucket はリスクレベル1つ分の分布。0件のレベルも必ず含まれる。
type RiskBucket struct {
	RiskLevel model.RiskLevel
	Count     int
	AvgScore  float64
}

// TrendPoint は期間バケット1つ分のトレンド。
// PeriodはintervalがweekならISO週番号、monthなら暦月。
type TrendPoint struct {
	Year         int
	Period       int
	AvgScore     float64
	CheckinCount int
}

// OverviewResult はチームダッシュボードの概況。
type OverviewResult struct {
	TeamID           string
	TeamCode         string
	TeamName         string
	AverageBurnout   float64
	RiskLevel        model.RiskLevel
	TotalCheckins    int
	ActiveDays       int
	RiskDistribution []RiskBucket
	Trend            []TrendPoint
	TrendInterval    string
}

// ActivityPoint は日別アクティビティ1日分。
type ActivityPoint struct {
	Date     string // YYYY-MM-DD
	Count    int
	AvgScore float64
}

// Aggregator はチームスコープのダッシュボード集計を提供する。
// SQL側はバケット集計のみを行い、固定順序の補完・並べ替え・丸めは
// すべてここで行う。
type Aggregator struct {
	teamRepo      repository.TeamRepository
	analyticsRepo repository.AnalyticsRepository
	trendPeriods  int
	logger        *slog.Logger
}

// NewAggregator はAggregatorを生成する。trendPeriodsはトレンドのバケット数。
func NewAggregator(teamRepo repository.TeamRepository, analyticsRepo repository.AnalyticsRepository, trendPeriods int, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		teamRepo:      teamRepo,
		analyticsRepo: analyticsRepo,
		trendPeriods:  trendPeriods,
		logger:        logger,
	}
}

// TeamOverview はチームの概況・リスク分布・トレンドをまとめて返す。
// チームにアクセスできない場合は存在しない場合と同じエラーを返す。
func (a *Aggregator) TeamOverview(ctx context.Context, teamID string, scope model.Scope, start, end time.Time, interval string) (*OverviewResult, error) {
	if interval == "" {
		interval = PeriodWeek
	}
	if interval != PeriodWeek && interval != PeriodMonth {
		return nil, model.NewInvalidPeriodError(interval)
	}

	team, err := a.teamRepo.FindAccessible(ctx, teamID, scope)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, model.NewTeamNotFoundError()
	}

	overview, err := a.analyticsRepo.Overview(ctx, team.ID, start, end)
	if err != nil {
		return nil, err
	}

	distRows, err := a.analyticsRepo.RiskDistribution(ctx, team.ID, start, end)
	if err != nil {
		return nil, err
	}

	trend, err := a.trend(ctx, team.ID, interval)
	if err != nil {
		return nil, err
	}

	avg := roundTo2(overview.AverageBurnout)

	return &OverviewResult{
		TeamID:           team.ID,
		TeamCode:         team.TeamCode,
		TeamName:         team.TeamName,
		AverageBurnout:   avg,
		RiskLevel:        scoring.Classify(avg),
		TotalCheckins:    overview.TotalCheckins,
		ActiveDays:       overview.ActiveDays,
		RiskDistribution: fillDistribution(distRows),
		Trend:            trend,
		TrendInterval:    interval,
	}, nil
}

// DailyActivity はチームの日別チェックイン件数と平均スコアを日付昇順で返す。
func (a *Aggregator) DailyActivity(ctx context.Context, teamID string, scope model.Scope, start, end time.Time) ([]ActivityPoint, error) {
	team, err := a.teamRepo.FindAccessible(ctx, teamID, scope)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, model.NewTeamNotFoundError()
	}

	rows, err := a.analyticsRepo.DailyActivity(ctx, team.ID, start, end)
	if err != nil {
		return nil, err
	}

	points := make([]ActivityPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, ActivityPoint{
			Date:     row.Date.Format("2006-01-02"),
			Count:    row.Count,
			AvgScore: roundTo2(row.AvgScore),
		})
	}

	return points, nil
}

// trend は直近trendPeriods件のトレンドを古い順で返す。
func (a *Aggregator) trend(ctx context.Context, teamID, interval string) ([]TrendPoint, error) {
	var rows []repository.TrendRow
	var err error

	if interval == PeriodMonth {
		rows, err = a.analyticsRepo.TrendByMonth(ctx, teamID, a.trendPeriods)
	} else {
		rows, err = a.analyticsRepo.TrendByWeek(ctx, teamID, a.trendPeriods)
	}
	if err != nil {
		return nil, err
	}

	return toAscendingTrend(rows), nil
}

// toAscendingTrend は降順で取得した直近バケットを古い順に並べ替える。
func toAscendingTrend(rows []repository.TrendRow) []TrendPoint {
	points := make([]TrendPoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		points = append(points, TrendPoint{
			Year:         rows[i].Year,
			Period:       rows[i].Period,
			AvgScore:     roundTo2(rows[i].AvgScore),
			CheckinCount: rows[i].Count,
		})
	}
	return points
}

// fillDistribution は集計結果を重症度順の固定4バケットに補完する。
// 0件のレベルもCount=0の行として必ず現れる。
func fillDistribution(rows []repository.RiskDistRow) []RiskBucket {
	byLevel := make(map[model.RiskLevel]repository.RiskDistRow, len(rows))
	for _, row := range rows {
		byLevel[row.RiskLevel] = row
	}

	buckets := make([]RiskBucket, 0, len(model.RiskLevelsBySeverity))
	for _, level := range model.RiskLevelsBySeverity {
		bucket := RiskBucket{RiskLevel: level}
		if row, ok := byLevel[level]; ok {
			bucket.Count = row.Count
			bucket.AvgScore = roundTo2(row.AvgScore)
		}
		buckets = append(buckets, bucket)
	}

	return buckets
}

// roundTo2 は小数2桁への四捨五入を行う。
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundTo1 は小数1桁への四捨五入を行う。
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
