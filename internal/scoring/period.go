package scoring

import "time"

// Period はトレンド集計用の期間インデックスを表す。
// WeekNumberはISO-8601週番号、MonthNumber/Yearは同一時刻の暦月・暦年。
// Yearは意図的にISO年ではなく暦年を使う: 12月31日がISO週1に属する場合でも
// 保存される年は12月31日の年であり、集計キー（year, week_number）は
// 過去データと整合した安定バケットになる。
type Period struct {
	WeekNumber  int // 1〜53
	MonthNumber int // 1〜12
	Year        int
}

// PeriodOf は指定時刻の期間インデックスを算出する。
// ISO-8601週ルール（週は月曜始まり、週1はその年最初の木曜日を含む週）に従う。
// 年末年始のクロスオーバー（例: 12月29日が翌年の週1になる）もtime.ISOWeekが処理する。
func PeriodOf(t time.Time) Period {
	_, week := t.ISOWeek()
	return Period{
		WeekNumber:  week,
		MonthNumber: int(t.Month()),
		Year:        t.Year(),
	}
}

// WeekStart は指定時刻が属するISO週の開始日（月曜日）を日付精度で返す。
// 週次バケットの結合キーとして使用する。
func WeekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(t.Weekday())
	if weekday == 0 { // 日曜日
		weekday = 7
	}
	return t.AddDate(0, 0, -(weekday - 1))
}
