package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // エラーメッセージ
	Category string   // カテゴリ: auth, validation, upload, analytics, system
	Action   string   // ユーザー向け対処方法
	Details  []string // 行単位エラー等の列挙可能な詳細（省略可）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeEmptyOrUnparseable = "EMPTY_OR_UNPARSEABLE"
	ErrCodeUploadValidation   = "UPLOAD_VALIDATION"
	ErrCodeTeamNotFound       = "TEAM_NOT_FOUND"
	ErrCodeCheckinNotFound    = "CHECKIN_NOT_FOUND"
	ErrCodeTokenNotFound      = "TOKEN_NOT_FOUND"
	ErrCodeInvalidPeriod      = "INVALID_PERIOD"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidInputError はスコアリング入力の検証エラーを生成する。
// 範囲外の値は黙ってクランプせず、必ず拒否する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "5つの回答はそれぞれ0〜4の整数で指定してください。",
	}
}

// NewTokenInvalidError はトークン検証失敗エラーを生成する。
// 不存在・失効・取り消し・チーム無効のどの理由でも同一のエラーを返し、
// トークンの列挙攻撃に対して原因を漏らさない。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "無効または期限切れのトークンです。",
		Category: "auth",
		Action:   "チームの管理者に新しいチェックインリンクを発行してもらってください。",
	}
}

// NewEmptyOrUnparseableError は空または解析不能なアップロードファイルのエラーを生成する。
func NewEmptyOrUnparseableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeEmptyOrUnparseable,
		Message:  fmt.Sprintf("ファイルを読み取れませんでした: %s", reason),
		Category: "upload",
		Action:   "CSVまたはExcel形式で、ヘッダー行とデータ行を含むファイルをアップロードしてください。",
	}
}

// NewUploadValidationError は勤怠アップロードのバッチ検証エラーを生成する。
// 行単位エラーとチーム解決エラーをまとめて保持し、1件でもあればバッチ全体を拒否する。
func NewUploadValidationError(details []string) *APIError {
	return &APIError{
		Code:     ErrCodeUploadValidation,
		Message:  fmt.Sprintf("検証エラーが%d件あります。", len(details)),
		Category: "upload",
		Action:   "エラー一覧の各行を修正してから再度アップロードしてください。",
		Details:  details,
	}
}

// NewTeamNotFoundError はチーム未検出エラーを生成する。
// 存在しない場合と権限がない場合を区別せず、存在の漏洩を防ぐ。
func NewTeamNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTeamNotFound,
		Message:  "チームが見つからないか、アクセス権がありません。",
		Category: "analytics",
		Action:   "チームIDを確認してください。",
	}
}

// NewCheckinNotFoundError はチェックイン未検出エラーを生成する。
func NewCheckinNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCheckinNotFound,
		Message:  fmt.Sprintf("指定されたチェックインが見つかりません: %s", id),
		Category: "validation",
		Action:   "チェックインIDを確認してください。",
	}
}

// NewTokenNotFoundError はトークン未検出エラーを生成する。
// 管理系API（取り消し等）用であり、公開エンドポイントでは使わない。
func NewTokenNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeTokenNotFound,
		Message:  fmt.Sprintf("指定されたトークンが見つかりません: %s", id),
		Category: "validation",
		Action:   "トークンIDを確認してください。",
	}
}

// NewInvalidPeriodError は無効な期間指定エラーを生成する。
func NewInvalidPeriodError(period string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPeriod,
		Message:  fmt.Sprintf("無効な期間指定です: %s", period),
		Category: "validation",
		Action:   "periodにはweekまたはmonthを指定するか、startDateとendDateを両方指定してください。",
	}
}
