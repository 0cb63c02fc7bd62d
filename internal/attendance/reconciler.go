package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/teampulse/internal/model"
	"github.com/hitoshi/teampulse/internal/repository"
)

// MetricsRecorder は取り込み処理が発行するメトリクスのインターフェース。
type MetricsRecorder interface {
	UploadBatchProcessed(result string)
	AttendanceRowUpserted(outcome string)
}

// dateLayouts は勤怠ファイルで受理する日付形式。
// Excelの既定の表示形式（m/d/yy）も受け付ける。
var dateLayouts = []string{"2006-1-2", "2006/1/2", "1/2/06"}

// Summary は受理されたバッチの取り込み結果を表す。
type Summary struct {
	TotalRows   int
	TeamsInFile int
	Inserted    int
	Updated     int
	Skipped     int
}

// validatedRow は行単位検証を通過した1行分の値。
type validatedRow struct {
	rowNum     int
	teamCode   string
	employeeID string
	date       time.Time
	status     model.AttendanceStatus
}

// Reconciler は勤怠ファイルの検証・チーム解決・UPSERT取り込みを実装する。
//
// 検証境界は全件一括: 1行でも検証エラーまたは未解決のチームコードが
// あればバッチ全体を拒否し、データベースには一切書き込まない。
// 検証を通過した後のUPSERTは行ごとに順次実行され、並行アップロードとの
// 一意制約競合はスキップとして数える（良性、エラーではない）。
type Reconciler struct {
	teamRepo       repository.TeamRepository
	attendanceRepo repository.AttendanceRepository
	metrics        MetricsRecorder
	logger         *slog.Logger
}

// NewReconciler はReconcilerを生成する。
func NewReconciler(teamRepo repository.TeamRepository, attendanceRepo repository.AttendanceRepository, metrics MetricsRecorder, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		teamRepo:       teamRepo,
		attendanceRepo: attendanceRepo,
		metrics:        metrics,
		logger:         logger,
	}
}

// Reconcile は解析済みの行を検証し、全件通過した場合のみUPSERTで取り込む。
// チームコードはscope内のアクティブチームに対してのみ解決される。
// managerが自分の管轄外のチームコードを含むファイルをアップロードした場合、
// そのコードは「存在しない」場合と同じエラーになる。
func (r *Reconciler) Reconcile(ctx context.Context, rows []Row, scope model.Scope, uploadedBy string) (*Summary, error) {
	var errs []string
	var valid []validatedRow

	for _, row := range rows {
		vr, rowErrs := validateRow(row)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		valid = append(valid, vr)
	}

	codes := uniqueTeamCodes(valid)

	resolved, err := r.teamRepo.ResolveActiveCodes(ctx, codes, scope)
	if err != nil {
		return nil, err
	}

	for _, vr := range valid {
		if _, ok := resolved[vr.teamCode]; !ok {
			errs = append(errs, fmt.Sprintf("行%d: チームコード「%s」が存在しないか、アクセスできません", vr.rowNum, vr.teamCode))
		}
	}

	if len(errs) > 0 {
		r.metrics.UploadBatchProcessed("rejected")
		r.logger.Warn("勤怠アップロードを拒否しました",
			"total_rows", len(rows), "error_count", len(errs), "uploaded_by", uploadedBy)
		return nil, model.NewUploadValidationError(errs)
	}

	summary := &Summary{
		TotalRows:   len(valid),
		TeamsInFile: len(codes),
	}

	for _, vr := range valid {
		record := &model.AttendanceRecord{
			ID:         uuid.New().String(),
			TeamID:     resolved[vr.teamCode],
			EmployeeID: vr.employeeID,
			Date:       vr.date,
			Status:     vr.status,
			UploadedBy: &uploadedBy,
		}

		outcome, err := r.attendanceRepo.Upsert(ctx, record)
		if err != nil {
			return nil, err
		}

		switch outcome {
		case repository.OutcomeInserted:
			summary.Inserted++
			r.metrics.AttendanceRowUpserted("inserted")
		case repository.OutcomeUpdated:
			summary.Updated++
			r.metrics.AttendanceRowUpserted("updated")
		case repository.OutcomeSkipped:
			summary.Skipped++
			r.metrics.AttendanceRowUpserted("skipped")
		}
	}

	r.metrics.UploadBatchProcessed("accepted")
	r.logger.Info("勤怠アップロードを取り込みました",
		"total_rows", summary.TotalRows, "teams", summary.TeamsInFile,
		"inserted", summary.Inserted, "updated", summary.Updated, "skipped", summary.Skipped,
		"uploaded_by", uploadedBy)

	return summary, nil
}

// validateRow は1行分の検証を行う。エラーは1行につき複数返しうる。
func validateRow(row Row) (validatedRow, []string) {
	var errs []string

	employeeID := row.Fields["employee_id"]
	if employeeID == "" {
		errs = append(errs, fmt.Sprintf("行%d: employee_idが空です", row.RowNum))
	}

	rawDate := row.Fields["date"]
	var date time.Time
	if rawDate == "" {
		errs = append(errs, fmt.Sprintf("行%d: dateが空です", row.RowNum))
	} else {
		parsed, ok := parseDate(rawDate)
		if !ok {
			errs = append(errs, fmt.Sprintf("行%d: dateの形式が不正です（YYYY-MM-DD形式で指定してください）: %s", row.RowNum, rawDate))
		}
		date = parsed
	}

	rawStatus := row.Fields["status"]
	if !model.IsValidAttendanceStatus(rawStatus) {
		errs = append(errs, fmt.Sprintf("行%d: statusはPresent / Absent / Leave / Sickのいずれかで指定してください: %s", row.RowNum, rawStatus))
	}

	// 正規の列名はteam_id（値はチームコード）。旧形式のteam_codeも別名として受理する。
	rawTeam := row.Fields["team_id"]
	if rawTeam == "" {
		rawTeam = row.Fields["team_code"]
	}
	teamCode := strings.ToUpper(rawTeam)
	if teamCode == "" {
		errs = append(errs, fmt.Sprintf("行%d: team_idが空です", row.RowNum))
	}

	if len(errs) > 0 {
		return validatedRow{}, errs
	}

	return validatedRow{
		rowNum:     row.RowNum,
		teamCode:   teamCode,
		employeeID: employeeID,
		date:       date,
		status:     model.AttendanceStatus(rawStatus),
	}, nil
}

// parseDate は受理可能な形式で日付を解析し、UTCの日付精度に正規化する。
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// uniqueTeamCodes は検証済み行から重複のないチームコード一覧を安定順序で返す。
func uniqueTeamCodes(rows []validatedRow) []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, vr := range rows {
		if _, ok := seen[vr.teamCode]; !ok {
			seen[vr.teamCode] = struct{}{}
			codes = append(codes, vr.teamCode)
		}
	}
	sort.Strings(codes)
	return codes
}
