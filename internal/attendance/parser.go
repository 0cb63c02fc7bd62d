// Package attendance は勤怠ファイルの解析・検証・取り込みを提供する。
package attendance

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hitoshi/teampulse/internal/model"
)

// headerSeparators はヘッダー正規化で"_"に畳む空白・アンダースコアの連続。
var headerSeparators = regexp.MustCompile(`[\s_]+`)

// Row はファイル1行分の、正規化済みヘッダー名→セル値のマップ。
// RowNumはファイル上の行番号（ヘッダー行を1行目として数える）で、
// 空行を除去してもエラーメッセージの行番号は元のファイルと一致する。
type Row struct {
	RowNum int
	Fields map[string]string
}

// ParseFile は勤怠ファイルを解析し、ヘッダー正規化と空行除去を行った行の列を返す。
// 拡張子でCSVとExcelを判別する。解析不能・ヘッダーのみ・データ0行は
// いずれも読み取り不能エラーとして扱う。
func ParseFile(path, filename string) ([]Row, error) {
	var raw [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		raw, err = readCSV(path)
	case ".xlsx", ".xls":
		raw, err = readExcel(path)
	default:
		return nil, model.NewEmptyOrUnparseableError("未対応のファイル形式です（.csv / .xlsx / .xls のみ）")
	}
	if err != nil {
		return nil, err
	}

	if len(raw) < 2 {
		return nil, model.NewEmptyOrUnparseableError("データ行がありません")
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = normalizeHeader(h)
	}

	var rows []Row
	for i, record := range raw[1:] {
		if isBlankRow(record) {
			continue
		}

		fields := make(map[string]string, len(headers))
		for j, h := range headers {
			if h == "" {
				continue
			}
			if j < len(record) {
				fields[h] = strings.TrimSpace(record[j])
			} else {
				fields[h] = ""
			}
		}

		rows = append(rows, Row{RowNum: i + 2, Fields: fields})
	}

	if len(rows) == 0 {
		return nil, model.NewEmptyOrUnparseableError("データ行がありません")
	}

	return rows, nil
}

// readCSV はCSVファイルを読み込む。列数の不一致は行単位検証に委ねるため許容する。
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewEmptyOrUnparseableError("ファイルを開けませんでした")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, model.NewEmptyOrUnparseableError("CSVとして解析できませんでした")
	}

	return records, nil
}

// readExcel はExcelファイルの先頭シートを読み込む。
func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, model.NewEmptyOrUnparseableError("Excelファイルとして解析できませんでした")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, model.NewEmptyOrUnparseableError("シートが見つかりません")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, model.NewEmptyOrUnparseableError("シートを読み取れませんでした")
	}

	return rows, nil
}

// normalizeHeader はヘッダー名を正規化する: 小文字化、前後の空白除去、
// 空白・アンダースコアの連続を"_"1つに置換。"Employee ID"も"employee_id"も
// 同じ列として扱える。
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return headerSeparators.ReplaceAllString(h, "_")
}

// isBlankRow は全セルが空白のみの行かを判定する。
func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
