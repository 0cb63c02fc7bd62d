package attendance

// TemplateColumn はアップロードファイルの列仕様を表す。
type TemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// TemplateRow はサンプルデータ1行分。JSONのキーは期待するヘッダー名と一致する。
type TemplateRow struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	TeamID     string `json:"team_id"`
}

// Template はアップロードUI向けの列仕様とサンプルデータを表す。
type Template struct {
	Columns    []TemplateColumn `json:"columns"`
	SampleRows []TemplateRow    `json:"sample_rows"`
}

// BuildTemplate はアップロードテンプレートを返す。
// ヘッダー名は正規化後の形で示すが、空白区切りや大文字でも受理される。
func BuildTemplate() Template {
	return Template{
		Columns: []TemplateColumn{
			{Name: "employee_id", Description: "従業員識別子（社員番号など任意の文字列）", Example: "EMP-1024"},
			{Name: "date", Description: "対象日（YYYY-MM-DD形式）", Example: "2026-08-24"},
			{Name: "status", Description: "勤怠区分: Present / Absent / Leave / Sick", Example: "Present"},
			{Name: "team_id", Description: "チームコード（大文字小文字は区別しない）", Example: "ENG-01"},
		},
		SampleRows: []TemplateRow{
			{EmployeeID: "EMP-1024", Date: "2026-08-24", Status: "Present", TeamID: "ENG-01"},
			{EmployeeID: "EMP-1025", Date: "2026-08-24", Status: "Sick", TeamID: "ENG-01"},
			{EmployeeID: "EMP-2048", Date: "2026-08-24", Status: "Absent", TeamID: "SALES-02"},
		},
	}
}
