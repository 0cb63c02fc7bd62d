package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/teampulse/internal/model"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const pgUniqueViolation = "23505"

// PostgresAttendanceRepo はPostgreSQLを使用した勤怠リポジトリ。
type PostgresAttendanceRepo struct {
	db *sql.DB
}

// NewPostgresAttendanceRepo はPostgresAttendanceRepoを生成する。
func NewPostgresAttendanceRepo(db *sql.DB) *PostgresAttendanceRepo {
	return &PostgresAttendanceRepo{db: db}
}

// Upsert は(team_id, employee_id, date)の複合キーでレコードをUPSERTする。
// 挿入か更新かはPostgreSQLのシステムカラムxmaxで判定する（xmax = 0なら新規挿入）。
// ON CONFLICTが拾えない並行トランザクションとの一意制約競合は
// OutcomeSkippedとして返し、呼び出し側のバッチ処理を中断させない。
func (r *PostgresAttendanceRepo) Upsert(ctx context.Context, record *model.AttendanceRecord) (UpsertOutcome, error) {
	var inserted bool

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO attendance (id, team_id, employee_id, date, status, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (team_id, employee_id, date)
		 DO UPDATE SET status = EXCLUDED.status, uploaded_by = EXCLUDED.uploaded_by
		 RETURNING (xmax = 0) AS inserted`,
		record.ID, record.TeamID, record.EmployeeID, record.Date, record.Status,
		nullString(record.UploadedBy),
	).Scan(&inserted)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return OutcomeSkipped, nil
		}
		return 0, fmt.Errorf("勤怠レコードのUPSERTに失敗しました: %w", err)
	}

	if inserted {
		return OutcomeInserted, nil
	}
	return OutcomeUpdated, nil
}

// Stats は期間内の勤怠統計を返す。
func (r *PostgresAttendanceRepo) Stats(ctx context.Context, teamID string, start, end time.Time) (*AttendanceStats, error) {
	stats := &AttendanceStats{}

	err := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COUNT(DISTINCT employee_id),
			COUNT(DISTINCT date),
			COUNT(*) FILTER (WHERE status = 'Present'),
			COUNT(*) FILTER (WHERE status = 'Absent'),
			COUNT(*) FILTER (WHERE status = 'Leave'),
			COUNT(*) FILTER (WHERE status = 'Sick')
		 FROM attendance
		 WHERE team_id = $1 AND date >= $2 AND date <= $3`,
		teamID, start, end,
	).Scan(
		&stats.TotalRecords, &stats.UniqueEmployees, &stats.DaysCovered,
		&stats.PresentCount, &stats.AbsentCount, &stats.LeaveCount, &stats.SickCount,
	)
	if err != nil {
		return nil, fmt.Errorf("勤怠統計の取得に失敗しました: %w", err)
	}

	return stats, nil
}
