package checkin

import (
	"context"
	"log/slog"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
	"github.com/hitoshi/teampulse/internal/scoring"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// CheckinPage はページネーション付きのチェックイン一覧。
type CheckinPage struct {
	Checkins   []*model.CheckIn
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Admin はチェックインの管理メンテナンス操作を提供する。
// 通常の受付経路とは独立した、管理者専用の修正経路。
type Admin struct {
	checkinRepo repository.CheckinRepository
	logger      *slog.Logger
}

// NewAdmin はAdminを生成する。
func NewAdmin(checkinRepo repository.CheckinRepository, logger *slog.Logger) *Admin {
	return &Admin{checkinRepo: checkinRepo, logger: logger}
}

// List はチェックイン一覧を提出日時降順で返す。
// pageは1始まり。不正な値はデフォルトに丸める。
func (a *Admin) List(ctx context.Context, page, pageSize int) (*CheckinPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	checkins, total, err := a.checkinRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize

	return &CheckinPage{
		Checkins:   checkins,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update は指定チェックインの回答値を差し替え、スコアとリスクレベルを
// 同じ算出式で再計算して保存する。期間インデックスと提出日時は変更しない。
func (a *Admin) Update(ctx context.Context, id string, input SubmitInput) (*model.CheckIn, error) {
	record, err := a.checkinRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, model.NewCheckinNotFoundError(id)
	}

	result, err := scoring.Calculate(input.Workload, input.Stress, input.Sleep, input.Engagement, input.Recovery)
	if err != nil {
		return nil, err
	}

	record.Workload = input.Workload
	record.Stress = input.Stress
	record.Sleep = input.Sleep
	record.Engagement = input.Engagement
	record.Recovery = input.Recovery
	record.BurnoutScore = result.Score
	record.RiskLevel = result.RiskLevel

	if err := a.checkinRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	a.logger.Info("チェックインを修正しました", "checkin_id", id, "risk_level", result.RiskLevel)

	return record, nil
}

// Delete は指定チェックインを削除する。
func (a *Admin) Delete(ctx context.Context, id string) error {
	found, err := a.checkinRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return model.NewCheckinNotFoundError(id)
	}

	a.logger.Info("チェックインを削除しました", "checkin_id", id)
	return nil
}

// RecalculateAll は全チェックインのスコアとリスクレベルを生回答から
// 一括で再計算する。算出式の変更をデータへ反映するための運用操作で、
// 単一のSQL文で実行されるため部分適用は起こらない。
func (a *Admin) RecalculateAll(ctx context.Context) (int64, error) {
	updated, err := a.checkinRepo.RecalculateAll(ctx)
	if err != nil {
		return 0, err
	}

	a.logger.Info("バーンアウトスコアを一括再計算しました", "updated", updated)
	return updated, nil
}
