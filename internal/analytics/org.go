package analytics

import (
	"context"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
	"github.com/hitoshi/teampulse/internal/scoring"
)

// atRiskThreshold はこのスコアを超える平均を持つチームを要注意として扱う。
// リスク分類のhigh帯域の下限と一致する。
const atRiskThreshold = 60

// TeamSummary は組織ダッシュボードのチーム1件分のサマリー。
// 期間内にチェックインがないチームはAvgScore・RiskLevel・LastCheckinAtがnil。
type TeamSummary struct {
	TeamID        string
	TeamCode      string
	TeamName      string
	AvgScore      *float64
	RiskLevel     *model.RiskLevel
	CheckinCount  int
	LastCheckinAt *time.Time
}

// OrgResult は組織全体のダッシュボード。
type OrgResult struct {
	TotalTeams     int
	TotalEmployees int
	TotalCheckins  int
	AverageBurnout float64 // 全チェックインの加重平均。0件のときは0
	RiskBuckets    []RiskBucket
	Teams          []TeamSummary
	AtRiskTeams    []TeamSummary
	Trend          []TrendPoint
	TrendInterval  string
}

// Organization は全アクティブチーム横断の組織ダッシュボードを返す。
// チーム一覧は期間内の平均スコアが高い順（データのないチームは末尾）。
func (a *Aggregator) Organization(ctx context.Context, start, end time.Time, interval string) (*OrgResult, error) {
	if interval == "" {
		interval = PeriodWeek
	}
	if interval != PeriodWeek && interval != PeriodMonth {
		return nil, model.NewInvalidPeriodError(interval)
	}

	rows, err := a.analyticsRepo.TeamSummaries(ctx, start, end)
	if err != nil {
		return nil, err
	}

	teams := make([]TeamSummary, 0, len(rows))
	var atRisk []TeamSummary
	var weightedSum float64
	var totalCheckins int
	riskCounts := make(map[model.RiskLevel]int)

	for _, row := range rows {
		summary := TeamSummary{
			TeamID:        row.TeamID,
			TeamCode:      row.TeamCode,
			TeamName:      row.TeamName,
			CheckinCount:  row.CheckinCount,
			LastCheckinAt: row.LastCheckinAt,
		}

		if row.AvgScore != nil {
			avg := roundTo2(*row.AvgScore)
			level := scoring.Classify(avg)
			summary.AvgScore = &avg
			summary.RiskLevel = &level

			weightedSum += *row.AvgScore * float64(row.CheckinCount)
			totalCheckins += row.CheckinCount
			riskCounts[level]++

			if avg > atRiskThreshold {
				atRisk = append(atRisk, summary)
			}
		}

		teams = append(teams, summary)
	}

	employeeCount, err := a.analyticsRepo.OrgEmployeeCount(ctx)
	if err != nil {
		return nil, err
	}

	trend, err := a.orgTrend(ctx, interval)
	if err != nil {
		return nil, err
	}

	var orgAvg float64
	if totalCheckins > 0 {
		orgAvg = roundTo2(weightedSum / float64(totalCheckins))
	}

	buckets := make([]RiskBucket, 0, len(model.RiskLevelsBySeverity))
	for _, level := range model.RiskLevelsBySeverity {
		buckets = append(buckets, RiskBucket{RiskLevel: level, Count: riskCounts[level]})
	}

	return &OrgResult{
		TotalTeams:     len(teams),
		TotalEmployees: employeeCount,
		TotalCheckins:  totalCheckins,
		AverageBurnout: orgAvg,
		RiskBuckets:    buckets,
		Teams:          teams,
		AtRiskTeams:    atRisk,
		Trend:          trend,
		TrendInterval:  interval,
	}, nil
}

// orgTrend は組織横断の直近トレンドを古い順で返す。
func (a *Aggregator) orgTrend(ctx context.Context, interval string) ([]TrendPoint, error) {
	var rows []repository.TrendRow
	var err error

	if interval == PeriodMonth {
		rows, err = a.analyticsRepo.OrgTrendByMonth(ctx, a.trendPeriods)
	} else {
		rows, err = a.analyticsRepo.OrgTrendByWeek(ctx, a.trendPeriods)
	}
	if err != nil {
		return nil, err
	}

	return toAscendingTrend(rows), nil
}
