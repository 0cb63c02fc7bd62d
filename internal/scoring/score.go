// Package scoring はバーンアウトスコアの算出と期間インデックスの純粋関数を提供する。
package scoring

import (
	"fmt"
	"math"

	"github.com/hitoshi/teampulse/internal/model"
)

// answerMax は各回答の上限値。回答は0〜answerMaxの整数。
const answerMax = 4

// riskSumMax はリスク成分合計の最大値（5問 × 4）。
const riskSumMax = 20

// Result はスコア算出の結果を表す。
type Result struct {
	Score     float64 // 0〜100、小数2桁
	RiskLevel model.RiskLevel
}

// Calculate は5つのLikert回答からバーンアウトスコアとリスクレベルを算出する。
//
// 回答はすべて0〜4だが「方向」が揃っていない点に注意。
// workload・sleep・engagement・recoveryは保護的尺度（高いほど良い）のため
// 4-値でリスク成分に反転し、stressはそのままリスク成分として使う。
//
// リスク合計（0〜20）を0〜100に正規化し、小数2桁へ丸める。
// 決定的な純粋関数であり、保存済みの生回答に対して何度でも再実行できる。
func Calculate(workload, stress, sleep, engagement, recovery int) (Result, error) {
	for _, v := range []struct {
		name  string
		value int
	}{
		{"workload", workload},
		{"stress", stress},
		{"sleep", sleep},
		{"engagement", engagement},
		{"recovery", recovery},
	} {
		if v.value < 0 || v.value > answerMax {
			return Result{}, model.NewInvalidInputError(
				fmt.Sprintf("%s は0〜%dの整数である必要があります（指定値: %d）", v.name, answerMax, v.value))
		}
	}

	sum := (answerMax - workload) + stress + (answerMax - sleep) + (answerMax - engagement) + (answerMax - recovery)

	score := roundTo2(float64(sum) / riskSumMax * 100)

	return Result{
		Score:     score,
		RiskLevel: Classify(score),
	}, nil
}

// Classify はスコアをリスクレベルに分類する。
// 境界は下側のバンドに閉じる: ちょうど30.00はlow、ちょうど60.00はmoderate。
func Classify(score float64) model.RiskLevel {
	switch {
	case score <= 30:
		return model.RiskLow
	case score <= 60:
		return model.RiskModerate
	case score <= 80:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}

// roundTo2 は小数2桁への四捨五入を行う。
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
