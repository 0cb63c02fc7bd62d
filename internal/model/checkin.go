// Package model はドメインモデルを定義する。
package model

import "time"

// RiskLevel はバーンアウトスコアの序数分類を表す。
type RiskLevel string

const (
	// RiskLow はスコア30.00以下。
	RiskLow RiskLevel = "low"
	// RiskModerate はスコア30.01〜60.00。
	RiskModerate RiskLevel = "moderate"
	// RiskHigh はスコア60.01〜80.00。
	RiskHigh RiskLevel = "high"
	// RiskCritical はスコア80.01以上。
	RiskCritical RiskLevel = "critical"
)

// RiskLevelsBySeverity は重症度の昇順（low→critical）の固定順序。
// 分布系レスポンスはゼロ件のレベルも含めてこの順序で返す。
var RiskLevelsBySeverity = []RiskLevel{RiskLow, RiskModerate, RiskHigh, RiskCritical}

// CheckIn は1件の匿名バーンアウト・チェックイン回答を表す。
// 回答者を特定できるフィールド（IPアドレス、ユーザーID等）は設計上持たない。
// token_usedはチーム単位の提出トークンであり、個人の識別子ではない。
type CheckIn struct {
	ID           string
	TeamID       string
	TokenUsed    string
	Workload     int // 業務量の手応え（0-4、高いほど良い）
	Stress       int // ストレス（0-4、高いほど悪い）
	Sleep        int // 睡眠の質（0-4、高いほど良い）
	Engagement   int // 仕事への関与（0-4、高いほど良い）
	Recovery     int // 回復感（0-4、高いほど良い）
	BurnoutScore float64
	RiskLevel    RiskLevel
	WeekNumber   int // ISO週番号（1-53）
	MonthNumber  int // 暦月（1-12）
	Year         int // 暦年
	SubmittedAt  time.Time
}
