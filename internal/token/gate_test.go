package token

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
)

// --- モック定義 ---

type mockTokenRepository struct {
	findByTokenWithTeamFn             func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error)
	findLatestActiveTokenByTeamCodeFn func(ctx context.Context, teamCode string, now time.Time) (*model.CheckinToken, error)
	createFn                          func(ctx context.Context, token *model.CheckinToken) error
	findByIDFn                        func(ctx context.Context, tokenID string) (*model.CheckinToken, error)
	listByTeamFn                      func(ctx context.Context, teamID string) ([]repository.TokenWithUsage, error)
	deactivateFn                      func(ctx context.Context, tokenID string) (bool, error)
}

func (m *mockTokenRepository) FindByTokenWithTeam(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
	if m.findByTokenWithTeamFn != nil {
		return m.findByTokenWithTeamFn(ctx, token)
	}
	return nil, nil, nil
}

func (m *mockTokenRepository) FindLatestActiveTokenByTeamCode(ctx context.Context, teamCode string, now time.Time) (*model.CheckinToken, error) {
	if m.findLatestActiveTokenByTeamCodeFn != nil {
		return m.findLatestActiveTokenByTeamCodeFn(ctx, teamCode, now)
	}
	return nil, nil
}

func (m *mockTokenRepository) Create(ctx context.Context, token *model.CheckinToken) error {
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepository) FindByID(ctx context.Context, tokenID string) (*model.CheckinToken, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, tokenID)
	}
	return nil, nil
}

func (m *mockTokenRepository) ListByTeam(ctx context.Context, teamID string) ([]repository.TokenWithUsage, error) {
	if m.listByTeamFn != nil {
		return m.listByTeamFn(ctx, teamID)
	}
	return nil, nil
}

func (m *mockTokenRepository) Deactivate(ctx context.Context, tokenID string) (bool, error) {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, tokenID)
	}
	return false, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- テスト ---

func validTokenAndTeam(expiresAt *time.Time) (*model.CheckinToken, *model.Team) {
	return &model.CheckinToken{
			ID:        "tok-1",
			Token:     "abc-token",
			TeamID:    "team-1",
			IsActive:  true,
			ExpiresAt: expiresAt,
		}, &model.Team{
			ID:       "team-1",
			TeamCode: "ENG-01",
			TeamName: "エンジニアリング",
			IsActive: true,
		}
}

func TestGate_Validate_ValidToken(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	expires := now.Add(24 * time.Hour)

	repo := &mockTokenRepository{
		findByTokenWithTeamFn: func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
			tok, team := validTokenAndTeam(&expires)
			return tok, team, nil
		},
	}

	gate := NewGate(repo, testLogger())

	tok, team, err := gate.Validate(context.Background(), "abc-token", now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tok.ID != "tok-1" {
		t.Errorf("token ID = %q, want %q", tok.ID, "tok-1")
	}
	if team.ID != "team-1" {
		t.Errorf("team ID = %q, want %q", team.ID, "team-1")
	}
}

func TestGate_Validate_NoExpiryIsValid(t *testing.T) {
	repo := &mockTokenRepository{
		findByTokenWithTeamFn: func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
			tok, team := validTokenAndTeam(nil)
			return tok, team, nil
		},
	}

	gate := NewGate(repo, testLogger())

	// 期限なしトークンはいつまでも有効
	farFuture := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, _, err := gate.Validate(context.Background(), "abc-token", farFuture); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestGate_Validate_AllFailuresReturnSameError(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)

	tests := []struct {
		name string
		fn   func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error)
	}{
		{
			"トークンが存在しない",
			func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
				return nil, nil, nil
			},
		},
		{
			"トークンが取り消し済み",
			func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
				tok, team := validTokenAndTeam(nil)
				tok.IsActive = false
				return tok, team, nil
			},
		},
		{
			"チームが非アクティブ",
			func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
				tok, team := validTokenAndTeam(nil)
				team.IsActive = false
				return tok, team, nil
			},
		},
		{
			"期限切れ",
			func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
				tok, team := validTokenAndTeam(&past)
				return tok, team, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(&mockTokenRepository{findByTokenWithTeamFn: tt.fn}, testLogger())

			_, _, err := gate.Validate(context.Background(), "abc-token", now)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("expected *model.APIError, got %T", err)
			}
			// どの失敗理由でも同一のコード・メッセージ（列挙攻撃対策）
			if apiErr.Code != model.ErrCodeTokenInvalid {
				t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeTokenInvalid)
			}
		})
	}
}

func TestGate_Validate_ExpiryBoundary(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	// ちょうどnowに期限が切れる場合は無効
	exactly := now
	repo := &mockTokenRepository{
		findByTokenWithTeamFn: func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
			tok, team := validTokenAndTeam(&exactly)
			return tok, team, nil
		},
	}
	gate := NewGate(repo, testLogger())
	if _, _, err := gate.Validate(context.Background(), "abc-token", now); err == nil {
		t.Error("expected error for token expiring exactly now, got nil")
	}

	// 期限が1秒後なら有効
	oneSecLater := now.Add(time.Second)
	repo2 := &mockTokenRepository{
		findByTokenWithTeamFn: func(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error) {
			tok, team := validTokenAndTeam(&oneSecLater)
			return tok, team, nil
		},
	}
	gate2 := NewGate(repo2, testLogger())
	if _, _, err := gate2.Validate(context.Background(), "abc-token", now); err != nil {
		t.Errorf("expected no error for token expiring 1s later, got %v", err)
	}
}
