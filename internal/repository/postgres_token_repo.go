package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したチェックイントークンリポジトリ。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// FindByTokenWithTeam はトークン文字列でトークンと所属チームを取得する。
// 有効性の判定（is_active、期限、チームのアクティブ状態）は行わず、
// TokenGateが毎回評価する。トークンが存在しない場合は(nil, nil, nil)。
func (r *PostgresTokenRepo) FindByTokenWithTeam(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
	tok := &model.CheckinToken{}
	team := &model.Team{}
	var expiresAt sql.NullTime
	var createdBy, managerID sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT tt.id, tt.token, tt.team_id, tt.is_active, tt.expires_at, tt.created_by, tt.created_at,
		        t.id, t.team_code, t.team_name, t.manager_id, t.is_active
		 FROM team_tokens tt
		 JOIN teams t ON t.id = tt.team_id
		 WHERE tt.token = $1`,
		token,
	).Scan(
		&tok.ID, &tok.Token, &tok.TeamID, &tok.IsActive, &expiresAt, &createdBy, &tok.CreatedAt,
		&team.ID, &team.TeamCode, &team.TeamName, &managerID, &team.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("トークンの取得に失敗しました: %w", err)
	}

	if expiresAt.Valid {
		tok.ExpiresAt = &expiresAt.Time
	}
	if createdBy.Valid {
		tok.CreatedBy = &createdBy.String
	}
	if managerID.Valid {
		team.ManagerID = &managerID.String
	}

	return tok, team, nil
}

// FindLatestActiveTokenByTeamCode はチームコードに対する最新のアクティブトークンを返す。
func (r *PostgresTokenRepo) FindLatestActiveTokenByTeamCode(ctx context.Context, teamCode string, now time.Time) (*model.CheckinToken, error) {
	tok := &model.CheckinToken{}
	var expiresAt sql.NullTime
	var createdBy sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT tt.id, tt.token, tt.team_id, tt.is_active, tt.expires_at, tt.created_by, tt.created_at
		 FROM team_tokens tt
		 JOIN teams t ON t.id = tt.team_id
		 WHERE t.team_code = $1
		   AND t.is_active = TRUE
		   AND tt.is_active = TRUE
		   AND (tt.expires_at IS NULL OR tt.expires_at > $2)
		 ORDER BY tt.created_at DESC
		 LIMIT 1`,
		teamCode, now,
	).Scan(&tok.ID, &tok.Token, &tok.TeamID, &tok.IsActive, &expiresAt, &createdBy, &tok.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アクティブトークンの検索に失敗しました: %w", err)
	}

	if expiresAt.Valid {
		tok.ExpiresAt = &expiresAt.Time
	}
	if createdBy.Valid {
		tok.CreatedBy = &createdBy.String
	}

	return tok, nil
}

// Create はトークンを作成する。
func (r *PostgresTokenRepo) Create(ctx context.Context, token *model.CheckinToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO team_tokens (id, token, team_id, is_active, expires_at, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		token.ID, token.Token, token.TeamID, token.IsActive,
		nullTime(token.ExpiresAt), nullString(token.CreatedBy), token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("トークンの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのトークンを取得する。見つからない場合はnilを返す。
func (r *PostgresTokenRepo) FindByID(ctx context.Context, tokenID string) (*model.CheckinToken, error) {
	tok := &model.CheckinToken{}
	var expiresAt sql.NullTime
	var createdBy sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, team_id, is_active, expires_at, created_by, created_at
		 FROM team_tokens WHERE id = $1`,
		tokenID,
	).Scan(&tok.ID, &tok.Token, &tok.TeamID, &tok.IsActive, &expiresAt, &createdBy, &tok.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("トークンの取得に失敗しました: %w", err)
	}

	if expiresAt.Valid {
		tok.ExpiresAt = &expiresAt.Time
	}
	if createdBy.Valid {
		tok.CreatedBy = &createdBy.String
	}

	return tok, nil
}

// ListByTeam はチームのトークン一覧を使用回数付きで新しい順に返す。
func (r *PostgresTokenRepo) ListByTeam(ctx context.Context, teamID string) ([]TokenWithUsage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tt.id, tt.token, tt.team_id, tt.is_active, tt.expires_at, tt.created_by, tt.created_at,
		        (SELECT COUNT(*) FROM check_ins c WHERE c.token_used = tt.token) AS usage_count
		 FROM team_tokens tt
		 WHERE tt.team_id = $1
		 ORDER BY tt.created_at DESC`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("トークン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tokens []TokenWithUsage
	for rows.Next() {
		var tw TokenWithUsage
		var expiresAt sql.NullTime
		var createdBy sql.NullString

		if err := rows.Scan(
			&tw.ID, &tw.Token, &tw.TeamID, &tw.IsActive, &expiresAt, &createdBy, &tw.CreatedAt,
			&tw.UsageCount,
		); err != nil {
			return nil, fmt.Errorf("トークン行の読み取りに失敗しました: %w", err)
		}

		if expiresAt.Valid {
			tw.ExpiresAt = &expiresAt.Time
		}
		if createdBy.Valid {
			tw.CreatedBy = &createdBy.String
		}

		tokens = append(tokens, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("トークン一覧の走査に失敗しました: %w", err)
	}

	return tokens, nil
}

// Deactivate はトークンを無効化する。activeへ戻す経路は提供しない。
func (r *PostgresTokenRepo) Deactivate(ctx context.Context, tokenID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE team_tokens SET is_active = FALSE WHERE id = $1`,
		tokenID,
	)
	if err != nil {
		return false, fmt.Errorf("トークンの無効化に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("無効化件数の取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// nullTime は*time.Timeをsql.NullTimeに変換する。
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString は*stringをsql.NullStringに変換する。
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
