package scoring

import (
	"testing"

	"github.com/hitoshi/teampulse/internal/model"
)

func TestCalculate_BestAndWorstCase(t *testing.T) {
	// 全回答が最良（リスク成分0）
	best, err := Calculate(4, 0, 4, 4, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if best.Score != 0 {
		t.Errorf("score = %v, want 0", best.Score)
	}
	if best.RiskLevel != model.RiskLow {
		t.Errorf("riskLevel = %v, want low", best.RiskLevel)
	}

	// 全回答が最悪（リスク成分20）
	worst, err := Calculate(0, 4, 0, 0, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if worst.Score != 100 {
		t.Errorf("score = %v, want 100", worst.Score)
	}
	if worst.RiskLevel != model.RiskCritical {
		t.Errorf("riskLevel = %v, want critical", worst.RiskLevel)
	}
}

func TestCalculate_MidScale(t *testing.T) {
	// 全回答2 → リスク合計10 → スコア50
	result, err := Calculate(2, 2, 2, 2, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Score != 50 {
		t.Errorf("score = %v, want 50", result.Score)
	}
	if result.RiskLevel != model.RiskModerate {
		t.Errorf("riskLevel = %v, want moderate", result.RiskLevel)
	}
}

func TestCalculate_ProtectiveDirectionInversion(t *testing.T) {
	// workloadだけが悪い場合とstressだけが悪い場合でスコアが一致する
	// （保護的尺度の反転が効いている）
	a, err := Calculate(0, 0, 4, 4, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, err := Calculate(4, 4, 4, 4, 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if a.Score != b.Score {
		t.Errorf("score mismatch: workload-worst=%v stress-worst=%v", a.Score, b.Score)
	}
	if a.Score != 20 {
		t.Errorf("score = %v, want 20", a.Score)
	}
}

func TestCalculate_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name                                           string
		workload, stress, sleep, engagement, recovery int
	}{
		{"workloadが負", -1, 0, 0, 0, 0},
		{"workloadが5", 5, 0, 0, 0, 0},
		{"stressが5", 0, 5, 0, 0, 0},
		{"sleepが負", 0, 0, -2, 0, 0},
		{"engagementが5", 0, 0, 0, 5, 0},
		{"recoveryが負", 0, 0, 0, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.workload, tt.stress, tt.sleep, tt.engagement, tt.recovery)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("expected *model.APIError, got %T", err)
			}
			if apiErr.Code != model.ErrCodeInvalidInput {
				t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeInvalidInput)
			}
		})
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	first, err := Calculate(1, 3, 2, 1, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := Calculate(1, 3, 2, 1, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if again.Score != first.Score || again.RiskLevel != first.RiskLevel {
			t.Fatalf("result changed between runs: %+v vs %+v", again, first)
		}
	}
}

func TestClassify_BandBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  model.RiskLevel
	}{
		{0, model.RiskLow},
		{30.00, model.RiskLow},      // ちょうど30はlow
		{30.01, model.RiskModerate}, // 境界は下側のバンドに閉じる
		{60.00, model.RiskModerate},
		{60.01, model.RiskHigh},
		{80.00, model.RiskHigh},
		{80.01, model.RiskCritical},
		{100, model.RiskCritical},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestCalculate_ScoreMonotonicInStress(t *testing.T) {
	// stressを上げるとスコアは単調非減少
	prev := -1.0
	for stress := 0; stress <= 4; stress++ {
		result, err := Calculate(2, stress, 2, 2, 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Score < prev {
			t.Errorf("score decreased: stress=%d score=%v prev=%v", stress, result.Score, prev)
		}
		prev = result.Score
	}
}
