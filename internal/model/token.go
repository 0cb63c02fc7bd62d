package model

import "time"

// CheckinToken はチーム単位の匿名チェックイン提出を許可するケイパビリティを表す。
// 状態遷移: active → expired（expires_at経過で自動）または → revoked（is_active=false、終端）。
// activeへ戻る遷移は存在しない。
type CheckinToken struct {
	ID        string
	Token     string
	TeamID    string
	IsActive  bool
	ExpiresAt *time.Time // nullは無期限
	CreatedBy *string
	CreatedAt time.Time
}

// Team はチェックインと勤怠の帰属先チームを表す。
// チーム自体のCRUDは本システムの管轄外であり、参照のみ行う。
// is_active=falseのチームはすべての操作から不可視として扱う。
type Team struct {
	ID        string
	TeamCode  string
	TeamName  string
	ManagerID *string
	IsActive  bool
}
