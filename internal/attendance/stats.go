package attendance

import (
	"context"
	"math"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
)

// StatsResult は期間内の勤怠統計を表す。
type StatsResult struct {
	TotalRecords    int
	UniqueEmployees int
	DaysCovered     int
	PresentCount    int
	AbsentCount     int
	LeaveCount      int
	SickCount       int
	AbsenceRate     float64 // 欠勤率（%、小数1桁）。レコード0件のときは0
}

// StatsService はチームの勤怠統計を提供する。
type StatsService struct {
	teamRepo       repository.TeamRepository
	attendanceRepo repository.AttendanceRepository
}

// NewStatsService はStatsServiceを生成する。
func NewStatsService(teamRepo repository.TeamRepository, attendanceRepo repository.AttendanceRepository) *StatsService {
	return &StatsService{teamRepo: teamRepo, attendanceRepo: attendanceRepo}
}

// TeamStats は指定チームの期間内勤怠統計を返す。
// チームにアクセスできない場合は存在しない場合と同じエラーを返す。
func (s *StatsService) TeamStats(ctx context.Context, teamID string, scope model.Scope, start, end time.Time) (*StatsResult, error) {
	team, err := s.teamRepo.FindAccessible(ctx, teamID, scope)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, model.NewTeamNotFoundError()
	}

	stats, err := s.attendanceRepo.Stats(ctx, team.ID, start, end)
	if err != nil {
		return nil, err
	}

	result := &StatsResult{
		TotalRecords:    stats.TotalRecords,
		UniqueEmployees: stats.UniqueEmployees,
		DaysCovered:     stats.DaysCovered,
		PresentCount:    stats.PresentCount,
		AbsentCount:     stats.AbsentCount,
		LeaveCount:      stats.LeaveCount,
		SickCount:       stats.SickCount,
	}

	if stats.TotalRecords > 0 {
		result.AbsenceRate = roundTo1(float64(stats.AbsentCount) / float64(stats.TotalRecords) * 100)
	}

	return result, nil
}

// roundTo1 は小数1桁への四捨五入を行う。
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
