// Package analytics はダッシュボード集計と欠勤×バーンアウト相関を提供する。
package analytics

import (
	"fmt"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
)

// 期間指定のキーワード。
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// ResolveWindow はクエリパラメータから集計期間を解決する。
//
// startDateとendDateが両方指定された場合はその範囲（endDateの終端まで）を使う。
// 片方だけの指定は不正。どちらもない場合はperiodで決まる直近期間
// （week=7日、month=30日）を使い、無指定はweekと同じ。
func ResolveWindow(period, startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	if startDate != "" || endDate != "" {
		if startDate == "" || endDate == "" {
			return time.Time{}, time.Time{}, model.NewInvalidPeriodError("startDateとendDateは両方指定してください")
		}

		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewInvalidPeriodError(fmt.Sprintf("startDate: %s", startDate))
		}
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, model.NewInvalidPeriodError(fmt.Sprintf("endDate: %s", endDate))
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, model.NewInvalidPeriodError("endDateはstartDate以降の日付を指定してください")
		}

		// endDateの日全体を含める
		end = end.AddDate(0, 0, 1).Add(-time.Second)

		return start, end, nil
	}

	switch period {
	case "", PeriodWeek:
		return now.AddDate(0, 0, -7), now, nil
	case PeriodMonth:
		return now.AddDate(0, 0, -30), now, nil
	default:
		return time.Time{}, time.Time{}, model.NewInvalidPeriodError(period)
	}
}
