// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/teampulse/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// roleContextKey はリクエストコンテキストに役割を格納するためのキー。
var roleContextKey = contextKey("role")

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 有効性を検証するミドルウェアを返す。
// 認証済みユーザーIDと役割をリクエストコンテキストに注入する。
// 未認証リクエストには401 Unauthorizedを返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w)
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("セッションの検索に失敗しました",
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w)
				return
			}
			if session == nil {
				writeUnauthorized(w)
				return
			}

			ctx := ContextWithUserID(r.Context(), session.UserID)
			ctx = ContextWithRole(ctx, session.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRequireRoleMiddleware は指定された役割のいずれかを持つリクエストのみを
// 通過させるミドルウェアを返す。セッションミドルウェアの後に配置する。
func NewRequireRoleMiddleware(roles ...model.Role) func(next http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, err := RoleFromContext(r.Context())
			if err != nil {
				writeUnauthorized(w)
				return
			}

			if _, ok := allowed[role]; !ok {
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:     model.ErrCodeForbidden,
					Message:  "この操作を行う権限がありません。",
					Category: "auth",
					Action:   "必要な権限について管理者に確認してください。",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized は401の統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     model.ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	})
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// RoleFromContext はリクエストコンテキストから役割を取得する。
func RoleFromContext(ctx context.Context) (model.Role, error) {
	role, ok := ctx.Value(roleContextKey).(model.Role)
	if !ok || role == "" {
		return "", fmt.Errorf("role not found in context")
	}
	return role, nil
}

// ScopeFromContext はリクエストコンテキストからチームスコープを組み立てる。
func ScopeFromContext(ctx context.Context) (model.Scope, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return model.Scope{}, err
	}
	role, err := RoleFromContext(ctx)
	if err != nil {
		return model.Scope{}, err
	}
	return model.Scope{UserID: userID, Role: role}, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithRole はコンテキストに役割を注入する。
func ContextWithRole(ctx context.Context, role model.Role) context.Context {
	return context.WithValue(ctx, roleContextKey, role)
}
