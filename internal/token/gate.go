// Package token はチェックイントークンの検証と発行を提供する。
package token

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
)

// Gate は公開チェックインエンドポイントの前段でトークンを検証する。
// 検証はキャッシュせず、毎回の提出で評価する。取り消しの反映を
// 遅延させないためで、発行済みトークンの状態変更は次の提出から即座に効く。
type Gate struct {
	tokenRepo repository.TokenRepository
	logger    *slog.Logger
}

// NewGate はGateを生成する。
func NewGate(tokenRepo repository.TokenRepository, logger *slog.Logger) *Gate {
	return &Gate{tokenRepo: tokenRepo, logger: logger}
}

// Validate はトークン文字列を検証し、通過した場合のみトークンと所属チームを返す。
//
// 通過条件は次の4つすべて:
//   - トークンが存在する
//   - トークンが取り消されていない（is_active）
//   - 所属チームがアクティブ
//   - 期限が未設定、または期限がnowより後（ちょうどnowは失効扱い）
//
// どの条件で落ちても呼び出し元には同一の無効トークンエラーを返す。
// 失敗理由はログにのみ記録し、レスポンスから列挙攻撃の手掛かりを与えない。
func (g *Gate) Validate(ctx context.Context, tokenString string, now time.Time) (*model.CheckinToken, *model.Team, error) {
	tok, team, err := g.tokenRepo.FindByTokenWithTeam(ctx, tokenString)
	if err != nil {
		return nil, nil, err
	}

	if tok == nil {
		g.logger.Warn("トークン検証失敗", "reason", "not_found")
		return nil, nil, model.NewTokenInvalidError()
	}
	if !tok.IsActive {
		g.logger.Warn("トークン検証失敗", "reason", "revoked", "token_id", tok.ID)
		return nil, nil, model.NewTokenInvalidError()
	}
	if !team.IsActive {
		g.logger.Warn("トークン検証失敗", "reason", "team_inactive", "token_id", tok.ID, "team_id", team.ID)
		return nil, nil, model.NewTokenInvalidError()
	}
	if tok.ExpiresAt != nil && !tok.ExpiresAt.After(now) {
		g.logger.Warn("トークン検証失敗", "reason", "expired", "token_id", tok.ID)
		return nil, nil, model.NewTokenInvalidError()
	}

	return tok, team, nil
}
