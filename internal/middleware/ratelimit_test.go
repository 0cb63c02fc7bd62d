package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/teampulse/internal/model"
)

func testConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    2,
		CheckinRate:     rate.Limit(1),
		CheckinBurst:    2,
		CleanupInterval: time.Hour,
	}
}

func TestNewRateLimiterConfig_ConvertsPerMinute(t *testing.T) {
	config := NewRateLimiterConfig(60, 10)

	if config.GeneralRate != rate.Limit(1) {
		t.Errorf("generalRate = %v, want 1 req/sec", config.GeneralRate)
	}
	if config.GeneralBurst != 60 {
		t.Errorf("generalBurst = %d, want 60", config.GeneralBurst)
	}
	if config.CheckinBurst != 10 {
		t.Errorf("checkinBurst = %d, want 10", config.CheckinBurst)
	}
}

func TestGeneralMiddleware_LimitsPerUser(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		ctx := ContextWithUserID(req.Context(), userID)
		ctx = ContextWithRole(ctx, model.RoleAdmin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec.Code
	}

	// バースト2まで許可、3回目で制限
	if got := send("user-1"); got != http.StatusOK {
		t.Errorf("request 1: status = %d, want 200", got)
	}
	if got := send("user-1"); got != http.StatusOK {
		t.Errorf("request 2: status = %d, want 200", got)
	}
	if got := send("user-1"); got != http.StatusTooManyRequests {
		t.Errorf("request 3: status = %d, want 429", got)
	}

	// 別ユーザーは独立したバケット
	if got := send("user-2"); got != http.StatusOK {
		t.Errorf("other user: status = %d, want 200", got)
	}
}

func TestGeneralMiddleware_RequiresUserID(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCheckinMiddleware_KeyedByClientIP(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	handler := rl.CheckinMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/public/checkin/tok", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	send("10.0.0.1:1234")
	send("10.0.0.1:5678") // 同一IP・別ポートは同じバケット
	if got := send("10.0.0.1:9999"); got != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", got)
	}

	if got := send("10.0.0.2:1234"); got != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", got)
	}
}

func TestCheckinMiddleware_RateLimitResponseHasRetryAfter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		CheckinRate:     rate.Limit(0.5),
		CheckinBurst:    1,
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    1,
		CleanupInterval: time.Hour,
	})
	defer rl.Stop()

	handler := rl.CheckinMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/public/checkin/tok", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	// 0.5 req/sec → 補充まで2秒
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want %q", got, "2")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"RemoteAddrのホスト部", "192.168.1.10:5432", "", "192.168.1.10"},
		{"X-Forwarded-Forの先頭", "10.0.0.1:80", "203.0.113.5, 70.41.3.18", "203.0.113.5"},
		{"X-Forwarded-Forの空白除去", "10.0.0.1:80", "  203.0.113.5  ", "203.0.113.5"},
		{"ポートなしRemoteAddr", "192.168.1.10", "", "192.168.1.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}

			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	config := testConfig()
	config.CleanupInterval = 10 * time.Millisecond

	rl := NewRateLimiter(config)
	defer rl.Stop()

	rl.getOrCreate(&rl.generalMu, rl.generalLimiters, "user-1", config.GeneralRate, config.GeneralBurst)

	// 最終アクセスをTTL超過まで過去に戻す
	rl.generalMu.Lock()
	rl.generalLimiters["user-1"].lastAccess = time.Now().Add(-time.Hour)
	rl.generalMu.Unlock()

	rl.cleanup()

	if got := rl.GeneralLimiterCount(); got != 0 {
		t.Errorf("limiter count = %d, want 0 after cleanup", got)
	}
}
