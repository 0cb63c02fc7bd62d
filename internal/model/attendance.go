package model

import "time"

// AttendanceStatus は1日の勤怠区分を表す。
type AttendanceStatus string

const (
	// StatusPresent は出勤。
	StatusPresent AttendanceStatus = "Present"
	// StatusAbsent は欠勤。
	StatusAbsent AttendanceStatus = "Absent"
	// StatusLeave は休暇。
	StatusLeave AttendanceStatus = "Leave"
	// StatusSick は病欠。
	StatusSick AttendanceStatus = "Sick"
)

// ValidAttendanceStatuses はアップロードで受理する勤怠区分の一覧。
var ValidAttendanceStatuses = []AttendanceStatus{StatusPresent, StatusAbsent, StatusLeave, StatusSick}

// IsValidAttendanceStatus はstatusが受理可能な勤怠区分かを判定する。
// 大文字小文字は区別する（"present" は不正値として扱う）。
func IsValidAttendanceStatus(status string) bool {
	for _, s := range ValidAttendanceStatuses {
		if string(s) == status {
			return true
		}
	}
	return false
}

// AttendanceRecord は従業員1人・1日分の勤怠事実を表す。
// (team_id, employee_id, date) で一意であり、再アップロードはstatusを上書きする。
// employee_idは自由記述の識別子であり、ユーザーアカウントとは紐付かない。
type AttendanceRecord struct {
	ID         string
	TeamID     string
	EmployeeID string
	Date       time.Time
	Status     AttendanceStatus
	UploadedBy *string // アップロード者。アカウント削除後はnullになりうる
	CreatedAt  time.Time
}
