package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
)

// correlationWeeks は相関系列として返す最大週数。
const correlationWeeks = 12

// CorrelationPoint はISO週1つ分の欠勤率とバーンアウトの組。
// 片側のデータしかない週はもう片方がnilになる（表示系列は外部結合）。
type CorrelationPoint struct {
	WeekStart         string // YYYY-MM-DD（ISO週の月曜日）
	AbsenceRate       *float64
	AttendanceRecords int
	AvgBurnout        *float64
	CheckinCount      int
}

// CorrelationResult は欠勤×バーンアウト相関の分析結果。
// Coefficientは両側のデータが揃った週が2未満、またはどちらかの系列の
// 分散が0の場合にnilとなる。0（無相関）とは区別される。
type CorrelationResult struct {
	Points         []CorrelationPoint
	Coefficient    *float64
	PointCount     int // 相関係数の計算に使った週数（内部結合後）
	Interpretation string
}

// CorrelationEngine は週次の欠勤率とチームの週次平均バーンアウトスコアの
// ピアソン相関を計算する。相関係数はSQLではなくここで計算する。
type CorrelationEngine struct {
	teamRepo      repository.TeamRepository
	analyticsRepo repository.AnalyticsRepository
	logger        *slog.Logger
}

// NewCorrelationEngine はCorrelationEngineを生成する。
func NewCorrelationEngine(teamRepo repository.TeamRepository, analyticsRepo repository.AnalyticsRepository, logger *slog.Logger) *CorrelationEngine {
	return &CorrelationEngine{teamRepo: teamRepo, analyticsRepo: analyticsRepo, logger: logger}
}

// Correlate は期間内の週次系列を外部結合した表示用ポイントと、
// 両側が揃った週のみで計算したピアソン相関係数を返す。
func (e *CorrelationEngine) Correlate(ctx context.Context, teamID string, scope model.Scope, start, end time.Time) (*CorrelationResult, error) {
	team, err := e.teamRepo.FindAccessible(ctx, teamID, scope)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, model.NewTeamNotFoundError()
	}

	absence, err := e.analyticsRepo.WeeklyAbsence(ctx, team.ID, start, end)
	if err != nil {
		return nil, err
	}

	burnout, err := e.analyticsRepo.WeeklyBurnout(ctx, team.ID, start, end)
	if err != nil {
		return nil, err
	}

	points := joinWeekly(absence, burnout)

	var xs, ys []float64
	for _, p := range points {
		if p.AbsenceRate != nil && p.AvgBurnout != nil {
			xs = append(xs, *p.AbsenceRate)
			ys = append(ys, *p.AvgBurnout)
		}
	}

	r := pearson(xs, ys)

	return &CorrelationResult{
		Points:         points,
		Coefficient:    r,
		PointCount:     len(xs),
		Interpretation: interpret(r),
	}, nil
}

// joinWeekly は週開始日をキーに2つの系列を外部結合し、
// 直近correlationWeeks週分を古い順で返す。
func joinWeekly(absence []repository.AbsenceBucket, burnout []repository.BurnoutBucket) []CorrelationPoint {
	byWeek := make(map[string]*CorrelationPoint)

	for _, b := range absence {
		key := b.WeekStart.Format("2006-01-02")
		rate := 0.0
		if b.TotalRecords > 0 {
			rate = roundTo1(float64(b.AbsentCount) / float64(b.TotalRecords) * 100)
		}
		byWeek[key] = &CorrelationPoint{
			WeekStart:         key,
			AbsenceRate:       &rate,
			AttendanceRecords: b.TotalRecords,
		}
	}

	for _, b := range burnout {
		key := b.WeekStart.Format("2006-01-02")
		avg := roundTo2(b.AvgScore)

		point, ok := byWeek[key]
		if !ok {
			point = &CorrelationPoint{WeekStart: key}
			byWeek[key] = point
		}
		point.AvgBurnout = &avg
		point.CheckinCount = b.CheckinCount
	}

	keys := make([]string, 0, len(byWeek))
	for key := range byWeek {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if len(keys) > correlationWeeks {
		keys = keys[len(keys)-correlationWeeks:]
	}

	points := make([]CorrelationPoint, 0, len(keys))
	for _, key := range keys {
		points = append(points, *byWeek[key])
	}

	return points
}

// pearson はピアソンの積率相関係数を計算する。
// データ点が2未満、またはどちらかの系列の分散が0の場合はnilを返す。
// 欠測・未定義を0（無相関）と混同しないためにポインタで返す。
func pearson(xs, ys []float64) *float64 {
	n := len(xs)
	if n < 2 {
		return nil
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return nil
	}

	r := cov / (math.Sqrt(varX) * math.Sqrt(varY))
	return &r
}

// interpret は相関係数の強さと方向の説明文を返す。
func interpret(r *float64) string {
	if r == nil {
		return "相関係数を計算するには週次データが不足しています。"
	}

	abs := *r
	direction := "正"
	if abs < 0 {
		abs = -abs
		direction = "負"
	}

	switch {
	case abs >= 0.7:
		return "欠勤率とバーンアウトスコアの間に強い" + direction + "の相関があります。"
	case abs >= 0.4:
		return "欠勤率とバーンアウトスコアの間に中程度の" + direction + "の相関があります。"
	case abs >= 0.2:
		return "欠勤率とバーンアウトスコアの間に弱い" + direction + "の相関があります。"
	default:
		return "欠勤率とバーンアウトスコアの間に明確な相関は見られません。"
	}
}
