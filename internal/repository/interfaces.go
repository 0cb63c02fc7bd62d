// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/teampulse/internal/model"
)

// SessionRepository はセッションデータの読み取りインターフェース。
// セッションの発行・破棄は認証側コンポーネントの責務であり、本システムは検証のみ行う。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れまたは未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// TeamRepository はチーム参照の永続化インターフェース。
// チームのCRUDは管轄外のため、アクセス制御付きの読み取りのみ提供する。
type TeamRepository interface {
	// FindAccessible は指定IDのアクティブなチームをスコープ検証付きで取得する。
	// 未存在・非アクティブ・権限なしのいずれの場合もnilを返す（存在を漏らさない）。
	FindAccessible(ctx context.Context, teamID string, scope model.Scope) (*model.Team, error)

	// ResolveActiveCodes はチームコード群をアクティブなチームへ解決し、コード→チームIDのマップを返す。
	// managerスコープの場合はmanager_idが一致するチームのみ解決される。
	// 解決できなかったコードはマップに含まれない。
	ResolveActiveCodes(ctx context.Context, codes []string, scope model.Scope) (map[string]string, error)
}

// TokenRepository はチェックイントークンの永続化インターフェース。
type TokenRepository interface {
	// FindByTokenWithTeam はトークン文字列でトークンと所属チームを取得する。
	// トークンが存在しない場合は(nil, nil, nil)を返す。有効性判定は呼び出し側で行う。
	FindByTokenWithTeam(ctx context.Context, token string) (*model.CheckinToken, *model.Team, error)

	// FindLatestActiveTokenByTeamCode はチームコードに対する最新のアクティブトークンを返す。
	// 有効なトークンが存在しない場合はnilを返す。
	FindLatestActiveTokenByTeamCode(ctx context.Context, teamCode string, now time.Time) (*model.CheckinToken, error)

	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.CheckinToken) error

	// FindByID は指定IDのトークンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, tokenID string) (*model.CheckinToken, error)

	// ListByTeam はチームのトークン一覧を使用回数付きで新しい順に返す。
	ListByTeam(ctx context.Context, teamID string) ([]TokenWithUsage, error)

	// Deactivate はトークンを無効化する（取り消し、終端状態）。
	// 対象が存在した場合はtrueを返す。
	Deactivate(ctx context.Context, tokenID string) (bool, error)
}

// CheckinRepository はチェックインデータの永続化インターフェース。
type CheckinRepository interface {
	// Create はチェックインを作成する。CheckinIngestionからのみ呼ばれる。
	Create(ctx context.Context, checkin *model.CheckIn) error

	// FindByID は指定IDのチェックインを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CheckIn, error)

	// List はチェックイン一覧を提出日時降順・ページネーション付きで返す。
	// 戻り値の2つ目は総件数。
	List(ctx context.Context, limit, offset int) ([]*model.CheckIn, int, error)

	// Update は回答値と再計算済みスコア・リスクレベルを上書きする。
	// 管理者による明示的な修正経路でのみ使用する。
	Update(ctx context.Context, checkin *model.CheckIn) error

	// Delete は指定IDのチェックインを削除する。対象が存在した場合はtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// RecalculateAll は全チェックインのburnout_scoreとrisk_levelを
	// 保存済みの生回答から単一のSQL文で再計算する。
	// 単一文のため部分適用は起こらず、失敗時は全体がロールバックされる。
	// 戻り値は更新行数。
	RecalculateAll(ctx context.Context) (int64, error)
}

// UpsertOutcome は勤怠レコード1件のUPSERT結果を表す。
type UpsertOutcome int

const (
	// OutcomeInserted は新規キーへの挿入。
	OutcomeInserted UpsertOutcome = iota
	// OutcomeUpdated は既存キーの上書き（last-write-wins）。
	OutcomeUpdated
	// OutcomeSkipped は並行アップロードとの一意制約競合によるスキップ。
	// 同一データの同時アップロードでは起こりうる良性の結果であり、エラーではない。
	OutcomeSkipped
)

// AttendanceRepository は勤怠データの永続化インターフェース。
type AttendanceRepository interface {
	// Upsert は(team_id, employee_id, date)の複合キーでレコードをUPSERTする。
	// キー衝突時はstatusとuploaded_byを上書きしOutcomeUpdatedを返す。
	// 並行アップロードとの一意制約競合はOutcomeSkippedとして返す。
	Upsert(ctx context.Context, record *model.AttendanceRecord) (UpsertOutcome, error)

	// Stats は期間内の勤怠統計（総数、従業員数、日数、区分別内訳）を返す。
	Stats(ctx context.Context, teamID string, start, end time.Time) (*AttendanceStats, error)
}

// AnalyticsRepository はダッシュボード用のバケット集計クエリを提供する。
// SQLは集計とグルーピングのみを行い、相関係数などのアルゴリズムはエンジン側で計算する。
type AnalyticsRepository interface {
	// Overview は期間内のチェックイン概況を返す。
	Overview(ctx context.Context, teamID string, start, end time.Time) (*OverviewRow, error)

	// RiskDistribution は期間内のリスクレベル別件数と平均スコアを返す。
	// 0件のレベルは含まれない（固定順序の補完はサービス側で行う）。
	RiskDistribution(ctx context.Context, teamID string, start, end time.Time) ([]RiskDistRow, error)

	// TrendByWeek は週次トレンドを(year, week_number)降順で最大limit件返す。
	TrendByWeek(ctx context.Context, teamID string, limit int) ([]TrendRow, error)

	// TrendByMonth は月次トレンドを(year, month_number)降順で最大limit件返す。
	TrendByMonth(ctx context.Context, teamID string, limit int) ([]TrendRow, error)

	// DailyActivity は期間内の日別チェックイン件数と平均スコアを日付昇順で返す。
	DailyActivity(ctx context.Context, teamID string, start, end time.Time) ([]ActivityRow, error)

	// WeeklyAbsence は期間内の勤怠レコードを週開始日でバケットした欠勤集計を返す。
	WeeklyAbsence(ctx context.Context, teamID string, start, end time.Time) ([]AbsenceBucket, error)

	// WeeklyBurnout は期間内のチェックインを週開始日でバケットした平均スコアを返す。
	WeeklyBurnout(ctx context.Context, teamID string, start, end time.Time) ([]BurnoutBucket, error)

	// TeamSummaries は全アクティブチームの期間内サマリーを平均スコア降順で返す。
	TeamSummaries(ctx context.Context, start, end time.Time) ([]TeamSummaryRow, error)

	// OrgTrendByWeek は全アクティブチーム横断の週次トレンドを降順で最大limit件返す。
	OrgTrendByWeek(ctx context.Context, limit int) ([]TrendRow, error)

	// OrgTrendByMonth は全アクティブチーム横断の月次トレンドを降順で最大limit件返す。
	OrgTrendByMonth(ctx context.Context, limit int) ([]TrendRow, error)

	// OrgEmployeeCount は勤怠データ上の組織全体の従業員数（distinct employee_id）を返す。
	OrgEmployeeCount(ctx context.Context) (int, error)
}

// TokenWithUsage はトークンと使用回数（token_usedの一致件数）を結合した構造体。
type TokenWithUsage struct {
	model.CheckinToken
	UsageCount int
}

// OverviewRow はチーム概況の集計結果。
type OverviewRow struct {
	AverageBurnout float64 // チェックイン0件のときは0
	TotalCheckins  int
	ActiveDays     int
}

// RiskDistRow はリスクレベル別の集計結果。
type RiskDistRow struct {
	RiskLevel model.RiskLevel
	Count     int
	AvgScore  float64
}

// TrendRow は期間バケット1つ分のトレンド集計結果。
// PeriodはTrendByWeekでは週番号、TrendByMonthでは月番号。
type TrendRow struct {
	Year     int
	Period   int
	AvgScore float64
	Count    int
}

// ActivityRow は日別アクティビティの集計結果。
type ActivityRow struct {
	Date     time.Time
	Count    int
	AvgScore float64
}

// AbsenceBucket はISO週開始日でバケットした勤怠集計。
type AbsenceBucket struct {
	WeekStart    time.Time
	TotalRecords int
	AbsentCount  int
}

// BurnoutBucket はISO週開始日でバケットしたチェックイン集計。
type BurnoutBucket struct {
	WeekStart    time.Time
	AvgScore     float64
	CheckinCount int
}

// TeamSummaryRow は組織ダッシュボード用のチーム別サマリー。
// チェックインが1件もない期間はAvgScoreとLastCheckinAtがnilになる。
type TeamSummaryRow struct {
	TeamID        string
	TeamCode      string
	TeamName      string
	AvgScore      *float64
	CheckinCount  int
	LastCheckinAt *time.Time
}

// AttendanceStats は勤怠統計の集計結果。
type AttendanceStats struct {
	TotalRecords    int
	UniqueEmployees int
	DaysCovered     int
	PresentCount    int
	AbsentCount     int
	LeaveCount      int
	SickCount       int
}
