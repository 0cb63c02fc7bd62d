package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/teampulse/internal/model"
)

// PostgresTeamRepo はPostgreSQLを使用したチーム参照リポジトリ。
type PostgresTeamRepo struct {
	db *sql.DB
}

// NewPostgresTeamRepo はPostgresTeamRepoを生成する。
func NewPostgresTeamRepo(db *sql.DB) *PostgresTeamRepo {
	return &PostgresTeamRepo{db: db}
}

// FindAccessible は指定IDのアクティブなチームをスコープ検証付きで取得する。
// managerスコープの場合はmanager_idの一致も要求する。
// 未存在・非アクティブ・権限なしはいずれもnilを返し、呼び出し側で区別できない。
func (r *PostgresTeamRepo) FindAccessible(ctx context.Context, teamID string, scope model.Scope) (*model.Team, error) {
	query := `SELECT id, team_code, team_name, manager_id, is_active
	          FROM teams
	          WHERE id = $1 AND is_active = TRUE`
	args := []interface{}{teamID}

	if !scope.AllTeams() {
		query += ` AND manager_id = $2`
		args = append(args, scope.UserID)
	}

	team := &model.Team{}
	var managerID sql.NullString

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&team.ID, &team.TeamCode, &team.TeamName, &managerID, &team.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("チームの取得に失敗しました: %w", err)
	}

	if managerID.Valid {
		team.ManagerID = &managerID.String
	}

	return team, nil
}

// ResolveActiveCodes はチームコード群をアクティブなチームへ解決する。
// 解決できなかったコードはマップに含まれず、呼び出し側がエラーとして報告する。
func (r *PostgresTeamRepo) ResolveActiveCodes(ctx context.Context, codes []string, scope model.Scope) (map[string]string, error) {
	if len(codes) == 0 {
		return map[string]string{}, nil
	}

	query := `SELECT id, team_code FROM teams WHERE team_code = ANY($1) AND is_active = TRUE`
	args := []interface{}{pq.Array(codes)}

	if !scope.AllTeams() {
		query += ` AND manager_id = $2`
		args = append(args, scope.UserID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("チームコードの解決に失敗しました: %w", err)
	}
	defer rows.Close()

	resolved := make(map[string]string)
	for rows.Next() {
		var id, code string
		if err := rows.Scan(&id, &code); err != nil {
			return nil, fmt.Errorf("チームコードの読み取りに失敗しました: %w", err)
		}
		resolved[code] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("チームコードの走査に失敗しました: %w", err)
	}

	return resolved, nil
}
