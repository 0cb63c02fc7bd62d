// Package checkin は匿名チェックインの受付と管理メンテナンスを提供する。
package checkin

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
	"github.com/hitoshi/teampulse/internal/scoring"
	"github.com/hitoshi/teampulse/internal/token"
)

// MetricsRecorder は受付処理が発行するメトリクスのインターフェース。
type MetricsRecorder interface {
	CheckinSubmitted(riskLevel string)
}

// SubmitInput は5つのLikert回答を表す。
type SubmitInput struct {
	Workload   int `json:"workload"`
	Stress     int `json:"stress"`
	Sleep      int `json:"sleep"`
	Engagement int `json:"engagement"`
	Recovery   int `json:"recovery"`
}

// SubmitResult は受付結果を表す。回答者を特定できる情報は含まない。
type SubmitResult struct {
	Score       float64
	RiskLevel   model.RiskLevel
	SubmittedAt time.Time
}

// TokenContext はトークン検証で開示してよい最小限のチーム情報。
type TokenContext struct {
	TeamCode  string
	TeamName  string
	ExpiresAt *time.Time
}

// Ingestion はトークン検証→スコア算出→期間インデックス→永続化の
// チェックイン受付パイプラインを実装する。
type Ingestion struct {
	gate        *token.Gate
	checkinRepo repository.CheckinRepository
	metrics     MetricsRecorder
	logger      *slog.Logger
	now         func() time.Time
}

// NewIngestion はIngestionを生成する。
func NewIngestion(gate *token.Gate, checkinRepo repository.CheckinRepository, metrics MetricsRecorder, logger *slog.Logger) *Ingestion {
	return &Ingestion{
		gate:        gate,
		checkinRepo: checkinRepo,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Verify はトークンを検証し、チェックインフォーム表示用のチーム情報を返す。
// 検証に失敗した場合は理由を問わず同一の無効トークンエラーを返す。
func (s *Ingestion) Verify(ctx context.Context, tokenString string) (*TokenContext, error) {
	tok, team, err := s.gate.Validate(ctx, tokenString, s.now())
	if err != nil {
		return nil, err
	}

	return &TokenContext{
		TeamCode:  team.TeamCode,
		TeamName:  team.TeamName,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// Submit はチェックインを受け付ける。
// トークン検証が先、回答検証が後の順で評価するため、無効トークンでの
// 提出は回答の内容を見る前に拒否される。保存されるレコードには
// 回答者を識別できる値を一切含めない。
func (s *Ingestion) Submit(ctx context.Context, tokenString string, input SubmitInput) (*SubmitResult, error) {
	now := s.now()

	tok, team, err := s.gate.Validate(ctx, tokenString, now)
	if err != nil {
		return nil, err
	}

	result, err := scoring.Calculate(input.Workload, input.Stress, input.Sleep, input.Engagement, input.Recovery)
	if err != nil {
		return nil, err
	}

	period := scoring.PeriodOf(now)

	record := &model.CheckIn{
		ID:           uuid.New().String(),
		TeamID:       team.ID,
		TokenUsed:    tok.Token,
		Workload:     input.Workload,
		Stress:       input.Stress,
		Sleep:        input.Sleep,
		Engagement:   input.Engagement,
		Recovery:     input.Recovery,
		BurnoutScore: result.Score,
		RiskLevel:    result.RiskLevel,
		WeekNumber:   period.WeekNumber,
		MonthNumber:  period.MonthNumber,
		Year:         period.Year,
		SubmittedAt:  now,
	}

	if err := s.checkinRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.metrics.CheckinSubmitted(string(result.RiskLevel))
	s.logger.Info("チェックインを受け付けました",
		"team_id", team.ID, "risk_level", result.RiskLevel,
		"week_number", period.WeekNumber, "year", period.Year)

	return &SubmitResult{
		Score:       result.Score,
		RiskLevel:   result.RiskLevel,
		SubmittedAt: now,
	}, nil
}
