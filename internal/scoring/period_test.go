package scoring

import (
	"testing"
	"time"
)

func TestPeriodOf_MidYear(t *testing.T) {
	// 2024-06-15（土）はISO週24
	p := PeriodOf(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC))

	if p.WeekNumber != 24 {
		t.Errorf("weekNumber = %d, want 24", p.WeekNumber)
	}
	if p.MonthNumber != 6 {
		t.Errorf("monthNumber = %d, want 6", p.MonthNumber)
	}
	if p.Year != 2024 {
		t.Errorf("year = %d, want 2024", p.Year)
	}
}

func TestPeriodOf_YearEndCrossover(t *testing.T) {
	// 2024-12-30（月）はISO的には2025年の週1に属するが、
	// 保存される年は暦年の2024のまま
	p := PeriodOf(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC))

	if p.WeekNumber != 1 {
		t.Errorf("weekNumber = %d, want 1", p.WeekNumber)
	}
	if p.Year != 2024 {
		t.Errorf("year = %d, want 2024 (calendar year)", p.Year)
	}
	if p.MonthNumber != 12 {
		t.Errorf("monthNumber = %d, want 12", p.MonthNumber)
	}
}

func TestPeriodOf_NewYearInPreviousISOWeek(t *testing.T) {
	// 2021-01-01（金）はISO的には2020年の週53に属する
	p := PeriodOf(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))

	if p.WeekNumber != 53 {
		t.Errorf("weekNumber = %d, want 53", p.WeekNumber)
	}
	if p.Year != 2021 {
		t.Errorf("year = %d, want 2021 (calendar year)", p.Year)
	}
	if p.MonthNumber != 1 {
		t.Errorf("monthNumber = %d, want 1", p.MonthNumber)
	}
}

func TestWeekStart_ReturnsMonday(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"月曜日はその日自身",
			time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC),
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			"水曜日は同じ週の月曜日",
			time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			"日曜日は前の月曜日（週の末尾）",
			time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC),
			time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			"月をまたぐ週",
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("WeekStart(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWeekStart_TruncatesTime(t *testing.T) {
	got := WeekStart(time.Date(2026, 8, 27, 18, 45, 12, 999, time.UTC))
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Errorf("WeekStart did not truncate time: %v", got)
	}
}
