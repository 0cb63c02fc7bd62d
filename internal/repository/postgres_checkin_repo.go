package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/teampulse/internal/model"
)

// PostgresCheckinRepo はPostgreSQLを使用したチェックインリポジトリ。
type PostgresCheckinRepo struct {
	db *sql.DB
}

// NewPostgresCheckinRepo はPostgresCheckinRepoを生成する。
func NewPostgresCheckinRepo(db *sql.DB) *PostgresCheckinRepo {
	return &PostgresCheckinRepo{db: db}
}

// Create はチェックインを作成する。
// 回答者を特定できる値を保存しないことがこのテーブルの不変条件であり、
// INSERTのカラムはモデルのフィールドと厳密に一致させる。
func (r *PostgresCheckinRepo) Create(ctx context.Context, checkin *model.CheckIn) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO check_ins
		 (id, team_id, token_used, workload, stress, sleep, engagement, recovery,
		  burnout_score, risk_level, week_number, month_number, year, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		checkin.ID, checkin.TeamID, checkin.TokenUsed,
		checkin.Workload, checkin.Stress, checkin.Sleep, checkin.Engagement, checkin.Recovery,
		checkin.BurnoutScore, checkin.RiskLevel,
		checkin.WeekNumber, checkin.MonthNumber, checkin.Year, checkin.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("チェックインの保存に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのチェックインを取得する。見つからない場合はnilを返す。
func (r *PostgresCheckinRepo) FindByID(ctx context.Context, id string) (*model.CheckIn, error) {
	checkin := &model.CheckIn{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, team_id, token_used, workload, stress, sleep, engagement, recovery,
		        burnout_score, risk_level, week_number, month_number, year, submitted_at
		 FROM check_ins WHERE id = $1`,
		id,
	).Scan(
		&checkin.ID, &checkin.TeamID, &checkin.TokenUsed,
		&checkin.Workload, &checkin.Stress, &checkin.Sleep, &checkin.Engagement, &checkin.Recovery,
		&checkin.BurnoutScore, &checkin.RiskLevel,
		&checkin.WeekNumber, &checkin.MonthNumber, &checkin.Year, &checkin.SubmittedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("チェックインの取得に失敗しました: %w", err)
	}

	return checkin, nil
}

// List はチェックイン一覧を提出日時降順・ページネーション付きで返す。
func (r *PostgresCheckinRepo) List(ctx context.Context, limit, offset int) ([]*model.CheckIn, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM check_ins`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("チェックイン総数の取得に失敗しました: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, team_id, token_used, workload, stress, sleep, engagement, recovery,
		        burnout_score, risk_level, week_number, month_number, year, submitted_at
		 FROM check_ins
		 ORDER BY submitted_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("チェックイン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var checkins []*model.CheckIn
	for rows.Next() {
		checkin := &model.CheckIn{}
		if err := rows.Scan(
			&checkin.ID, &checkin.TeamID, &checkin.TokenUsed,
			&checkin.Workload, &checkin.Stress, &checkin.Sleep, &checkin.Engagement, &checkin.Recovery,
			&checkin.BurnoutScore, &checkin.RiskLevel,
			&checkin.WeekNumber, &checkin.MonthNumber, &checkin.Year, &checkin.SubmittedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("チェックイン行の読み取りに失敗しました: %w", err)
		}
		checkins = append(checkins, checkin)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("チェックイン一覧の走査に失敗しました: %w", err)
	}

	return checkins, total, nil
}

// Update は回答値と再計算済みスコア・リスクレベルを上書きする。
func (r *PostgresCheckinRepo) Update(ctx context.Context, checkin *model.CheckIn) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE check_ins
		 SET workload = $1, stress = $2, sleep = $3, engagement = $4, recovery = $5,
		     burnout_score = $6, risk_level = $7
		 WHERE id = $8`,
		checkin.Workload, checkin.Stress, checkin.Sleep, checkin.Engagement, checkin.Recovery,
		checkin.BurnoutScore, checkin.RiskLevel, checkin.ID,
	)
	if err != nil {
		return fmt.Errorf("チェックインの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのチェックインを削除する。
func (r *PostgresCheckinRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM check_ins WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("チェックインの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// RecalculateAll は全チェックインのスコアとリスクレベルを生回答から再計算する。
// スコア式と分類境界はscoringパッケージと同一でなければならない。
// 単一のUPDATE文で実行するため、途中失敗による部分適用は起こらない。
func (r *PostgresCheckinRepo) RecalculateAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		WITH computed AS (
			SELECT
				id,
				ROUND(((((4 - workload) + stress + (4 - sleep) + (4 - engagement) + (4 - recovery)) / 20.0) * 100)::numeric, 2) AS score
			FROM check_ins
		)
		UPDATE check_ins c
		SET
			burnout_score = computed.score,
			risk_level = CASE
				WHEN computed.score <= 30 THEN 'low'
				WHEN computed.score <= 60 THEN 'moderate'
				WHEN computed.score <= 80 THEN 'high'
				ELSE 'critical'
			END
		FROM computed
		WHERE c.id = computed.id`,
	)
	if err != nil {
		return 0, fmt.Errorf("バーンアウトスコアの一括再計算に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("再計算件数の取得に失敗しました: %w", err)
	}

	return affected, nil
}
