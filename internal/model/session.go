package model

import "time"

// Role は認証済みユーザーの役割を表す。
// ユーザー管理・認証情報の発行は外部コラボレーターの責務であり、
// 本システムはセッションに載った役割を消費するだけ。
type Role string

const (
	// RoleAdmin は全操作が可能な管理者。
	RoleAdmin Role = "admin"
	// RoleManager は自分が管理するチームに限定されたマネージャー。
	RoleManager Role = "manager"
	// RoleHR は全チームの分析を閲覧できる人事担当。
	RoleHR Role = "hr"
)

// Session は認証済みユーザーのセッションを表す。
type Session struct {
	ID        string
	UserID    string
	Role      Role
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Scope はチームスコープ付きクエリの呼び出し元情報を表す。
// managerの場合はmanager_idが一致するチームのみ解決できる。
type Scope struct {
	UserID string
	Role   Role
}

// AllTeams はこのスコープが全アクティブチームへアクセスできるかを返す。
func (s Scope) AllTeams() bool {
	return s.Role == RoleAdmin || s.Role == RoleHR
}
