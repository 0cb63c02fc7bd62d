package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
)

func TestAdmin_List_ClampsPagination(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantLimit    int
		wantOffset   int
		wantPage     int
		wantPageSize int
	}{
		{"通常のページ指定", 2, 20, 20, 20, 2, 20},
		{"ページ0は1に丸める", 0, 20, 20, 0, 1, 20},
		{"負のページは1に丸める", -5, 20, 20, 0, 1, 20},
		{"サイズ0はデフォルト", 1, 0, 50, 0, 1, 50},
		{"サイズ上限超過は200に丸める", 1, 1000, 200, 0, 1, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit, gotOffset int
			repo := &mockCheckinRepository{
				listFn: func(ctx context.Context, limit, offset int) ([]*model.CheckIn, int, error) {
					gotLimit = limit
					gotOffset = offset
					return nil, 0, nil
				},
			}

			admin := NewAdmin(repo, testLogger())

			page, err := admin.List(context.Background(), tt.page, tt.pageSize)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
				t.Errorf("limit/offset = %d/%d, want %d/%d", gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
			}
			if page.Page != tt.wantPage || page.PageSize != tt.wantPageSize {
				t.Errorf("page/pageSize = %d/%d, want %d/%d", page.Page, page.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestAdmin_List_ComputesTotalPages(t *testing.T) {
	repo := &mockCheckinRepository{
		listFn: func(ctx context.Context, limit, offset int) ([]*model.CheckIn, int, error) {
			return []*model.CheckIn{}, 101, nil
		},
	}

	admin := NewAdmin(repo, testLogger())

	page, err := admin.List(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Total != 101 {
		t.Errorf("total = %d, want 101", page.Total)
	}
	// 101件 ÷ 50件/ページ → 3ページ（端数切り上げ）
	if page.TotalPages != 3 {
		t.Errorf("totalPages = %d, want 3", page.TotalPages)
	}
}

func TestAdmin_Update_RecomputesScore(t *testing.T) {
	submittedAt := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	var updated *model.CheckIn

	repo := &mockCheckinRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.CheckIn, error) {
			return &model.CheckIn{
				ID: id, TeamID: "team-1",
				Workload: 2, Stress: 2, Sleep: 2, Engagement: 2, Recovery: 2,
				BurnoutScore: 50, RiskLevel: model.RiskModerate,
				WeekNumber: 35, MonthNumber: 8, Year: 2026,
				SubmittedAt: submittedAt,
			}, nil
		},
		updateFn: func(ctx context.Context, checkin *model.CheckIn) error {
			updated = checkin
			return nil
		},
	}

	admin := NewAdmin(repo, testLogger())

	record, err := admin.Update(context.Background(), "ci-1", SubmitInput{
		Workload: 0, Stress: 4, Sleep: 0, Engagement: 0, Recovery: 0,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if record.BurnoutScore != 100 {
		t.Errorf("burnoutScore = %v, want 100", record.BurnoutScore)
	}
	if record.RiskLevel != model.RiskCritical {
		t.Errorf("riskLevel = %v, want critical", record.RiskLevel)
	}
	// 期間インデックスと提出日時は元のまま
	if record.WeekNumber != 35 || record.MonthNumber != 8 || record.Year != 2026 {
		t.Errorf("period changed: week=%d month=%d year=%d", record.WeekNumber, record.MonthNumber, record.Year)
	}
	if !record.SubmittedAt.Equal(submittedAt) {
		t.Errorf("submittedAt = %v, want %v", record.SubmittedAt, submittedAt)
	}
	if updated == nil {
		t.Fatal("expected record to be persisted")
	}
}

func TestAdmin_Update_NotFound(t *testing.T) {
	repo := &mockCheckinRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.CheckIn, error) {
			return nil, nil
		},
	}

	admin := NewAdmin(repo, testLogger())

	_, err := admin.Update(context.Background(), "missing", SubmitInput{Workload: 2, Stress: 2, Sleep: 2, Engagement: 2, Recovery: 2})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeCheckinNotFound {
		t.Errorf("expected CHECKIN_NOT_FOUND error, got %v", err)
	}
}

func TestAdmin_Update_RejectsInvalidAnswers(t *testing.T) {
	persisted := false
	repo := &mockCheckinRepository{
		findByIDFn: func(ctx context.Context, id string) (*model.CheckIn, error) {
			return &model.CheckIn{ID: id}, nil
		},
		updateFn: func(ctx context.Context, checkin *model.CheckIn) error {
			persisted = true
			return nil
		},
	}

	admin := NewAdmin(repo, testLogger())

	_, err := admin.Update(context.Background(), "ci-1", SubmitInput{Workload: 5})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT error, got %v", err)
	}
	if persisted {
		t.Error("record should not be persisted for invalid answers")
	}
}

func TestAdmin_Delete_NotFound(t *testing.T) {
	repo := &mockCheckinRepository{
		deleteFn: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}

	admin := NewAdmin(repo, testLogger())

	err := admin.Delete(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeCheckinNotFound {
		t.Errorf("expected CHECKIN_NOT_FOUND error, got %v", err)
	}
}

func TestAdmin_RecalculateAll_ReturnsUpdatedCount(t *testing.T) {
	repo := &mockCheckinRepository{
		recalculateAllFn: func(ctx context.Context) (int64, error) {
			return 42, nil
		},
	}

	admin := NewAdmin(repo, testLogger())

	updated, err := admin.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated != 42 {
		t.Errorf("updated = %d, want 42", updated)
	}
}
