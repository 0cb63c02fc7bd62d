package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
)

// TokenStatus はトークンの表示用ステータス。
type TokenStatus string

const (
	StatusActive  TokenStatus = "active"
	StatusExpired TokenStatus = "expired"
	StatusRevoked TokenStatus = "revoked"
)

// IssuedToken は発行結果を表す。
type IssuedToken struct {
	ID         string
	Token      string
	CheckinURL string
	ExpiresAt  *time.Time
	CreatedAt  time.Time
}

// TokenInfo はトークン一覧の1項目を表す。
type TokenInfo struct {
	ID         string
	Token      string
	CheckinURL string
	Status     TokenStatus
	ExpiresAt  *time.Time
	CreatedBy  *string
	CreatedAt  time.Time
	UsageCount int
}

// TeamTokenInfo はチームコード経由の公開トークン参照の結果を表す。
type TeamTokenInfo struct {
	Token      string
	CheckinURL string
	ExpiresAt  *time.Time
}

// Service はチェックイントークンの発行・一覧・取り消しを提供する。
// トークンの状態遷移は active → expired（期限経過で自動）と
// active → revoked（取り消し、終端）のみで、activeへ戻す操作はない。
type Service struct {
	tokenRepo repository.TokenRepository
	teamRepo  repository.TeamRepository
	baseURL   string
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceを生成する。baseURLはチェックインURLの組み立てに使う。
func NewService(tokenRepo repository.TokenRepository, teamRepo repository.TeamRepository, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		tokenRepo: tokenRepo,
		teamRepo:  teamRepo,
		baseURL:   baseURL,
		logger:    logger,
		now:       time.Now,
	}
}

// Issue は指定チームの新しいチェックイントークンを発行する。
// expiresInDaysがnilの場合は無期限。既存トークンは無効化せず併存させる。
func (s *Service) Issue(ctx context.Context, teamID string, scope model.Scope, expiresInDays *int, createdBy string) (*IssuedToken, error) {
	team, err := s.teamRepo.FindAccessible(ctx, teamID, scope)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, model.NewTeamNotFoundError()
	}

	now := s.now()

	var expiresAt *time.Time
	if expiresInDays != nil {
		if *expiresInDays <= 0 {
			return nil, model.NewInvalidInputError("expiresInDays は1以上の整数である必要があります")
		}
		t := now.AddDate(0, 0, *expiresInDays)
		expiresAt = &t
	}

	tok := &model.CheckinToken{
		ID:        uuid.New().String(),
		Token:     uuid.New().String(),
		TeamID:    team.ID,
		IsActive:  true,
		ExpiresAt: expiresAt,
		CreatedBy: &createdBy,
		CreatedAt: now,
	}

	if err := s.tokenRepo.Create(ctx, tok); err != nil {
		return nil, err
	}

	s.logger.Info("チェックイントークンを発行しました",
		"token_id", tok.ID, "team_id", team.ID, "created_by", createdBy,
		"expires_at", expiresAt)

	return &IssuedToken{
		ID:         tok.ID,
		Token:      tok.Token,
		CheckinURL: s.checkinURL(tok.Token),
		ExpiresAt:  tok.ExpiresAt,
		CreatedAt:  tok.CreatedAt,
	}, nil
}

// List は指定チームのトークン一覧を使用回数・ステータス付きで返す。
func (s *Service) List(ctx context.Context, teamID string, scope model.Scope) ([]TokenInfo, error) {
	team, err := s.teamRepo.FindAccessible(ctx, teamID, scope)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, model.NewTeamNotFoundError()
	}

	rows, err := s.tokenRepo.ListByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]TokenInfo, 0, len(rows))
	for _, row := range rows {
		result = append(result, TokenInfo{
			ID:         row.ID,
			Token:      row.Token,
			CheckinURL: s.checkinURL(row.Token),
			Status:     statusOf(&row.CheckinToken, now),
			ExpiresAt:  row.ExpiresAt,
			CreatedBy:  row.CreatedBy,
			CreatedAt:  row.CreatedAt,
			UsageCount: row.UsageCount,
		})
	}

	return result, nil
}

// Revoke はトークンを取り消す。所属チームにアクセスできない場合は
// トークンが存在しない場合と同じエラーを返す。
func (s *Service) Revoke(ctx context.Context, tokenID string, scope model.Scope) error {
	tok, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if tok == nil {
		return model.NewTokenNotFoundError(tokenID)
	}

	team, err := s.teamRepo.FindAccessible(ctx, tok.TeamID, scope)
	if err != nil {
		return err
	}
	if team == nil {
		return model.NewTokenNotFoundError(tokenID)
	}

	found, err := s.tokenRepo.Deactivate(ctx, tok.ID)
	if err != nil {
		return err
	}
	if !found {
		return model.NewTokenNotFoundError(tokenID)
	}

	s.logger.Info("チェックイントークンを取り消しました",
		"token_id", tok.ID, "team_id", tok.TeamID, "revoked_by", scope.UserID)

	return nil
}

// ResolveTeamToken はチームコードに対する最新のアクティブトークンを返す。
// 公開エンドポイント用であり、チームの存在有無を問わず
// 有効なトークンがなければ同一の無効トークンエラーを返す。
func (s *Service) ResolveTeamToken(ctx context.Context, teamCode string) (*TeamTokenInfo, error) {
	tok, err := s.tokenRepo.FindLatestActiveTokenByTeamCode(ctx, teamCode, s.now())
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, model.NewTokenInvalidError()
	}

	return &TeamTokenInfo{
		Token:      tok.Token,
		CheckinURL: s.checkinURL(tok.Token),
		ExpiresAt:  tok.ExpiresAt,
	}, nil
}

// checkinURL はフロントエンドのチェックインページURLを組み立てる。
func (s *Service) checkinURL(token string) string {
	return fmt.Sprintf("%s/checkin/%s", s.baseURL, token)
}

// statusOf はトークンの表示用ステータスを判定する。
// 取り消し済みは期限切れより優先する。
func statusOf(tok *model.CheckinToken, now time.Time) TokenStatus {
	if !tok.IsActive {
		return StatusRevoked
	}
	if tok.ExpiresAt != nil && !tok.ExpiresAt.After(now) {
		return StatusExpired
	}
	return StatusActive
}
