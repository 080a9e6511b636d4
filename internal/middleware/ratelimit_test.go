package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/takeda/miniblog/internal/model"
)

func testRateLimiterConfig(burst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    burst,
		AuthRate:        rate.Limit(1.0 / 60.0),
		AuthBurst:       burst,
		CleanupInterval: time.Hour,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestGeneralMiddleware_AllowsWithinBurst はバースト内のリクエストが通過することを検証する。
func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req = req.WithContext(ContextWithClaims(req.Context(), &model.TokenClaims{UserID: "user-1"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}
}

// TestGeneralMiddleware_RejectsOverBurst はバースト超過で429が返ることを検証する。
func TestGeneralMiddleware_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	var lastRec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req = req.WithContext(ContextWithClaims(req.Context(), &model.TokenClaims{UserID: "user-1"}))
		lastRec = httptest.NewRecorder()
		handler.ServeHTTP(lastRec, req)
	}

	if lastRec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", lastRec.Code, http.StatusTooManyRequests)
	}
	if lastRec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

// TestGeneralMiddleware_SeparateUsersIndependent はユーザーごとに独立した制限であることを検証する。
func TestGeneralMiddleware_SeparateUsersIndependent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	// user-1のバーストを使い切る
	req1 := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req1 = req1.WithContext(ContextWithClaims(req1.Context(), &model.TokenClaims{UserID: "user-1"}))
	handler.ServeHTTP(httptest.NewRecorder(), req1)

	// user-2は影響を受けない
	req2 := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req2 = req2.WithContext(ContextWithClaims(req2.Context(), &model.TokenClaims{UserID: "user-2"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req2)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", got)
	}
}

// TestGeneralMiddleware_RequiresClaims はクレームなしのリクエストが拒否されることを検証する。
func TestGeneralMiddleware_RequiresClaims(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestAuthMiddleware_LimitsByClientIP は認証エンドポイントがIP単位で制限されることを検証する。
func TestAuthMiddleware_LimitsByClientIP(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.AuthMiddleware()(okHandler())

	// 同一IPの2回目は拒否される
	req1 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req1.RemoteAddr = "192.0.2.1:50000"
	handler.ServeHTTP(httptest.NewRecorder(), req1)

	req2 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req2.RemoteAddr = "192.0.2.1:50001"
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)

	if rec2.Code != http.StatusTooManyRequests {
		t.Errorf("same IP second request: status = %d, want %d", rec2.Code, http.StatusTooManyRequests)
	}

	// 別IPは独立
	req3 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req3.RemoteAddr = "192.0.2.2:50000"
	rec3 := httptest.NewRecorder()
	handler.ServeHTTP(rec3, req3)

	if rec3.Code != http.StatusOK {
		t.Errorf("different IP: status = %d, want %d", rec3.Code, http.StatusOK)
	}
	if got := rl.AuthLimiterCount(); got != 2 {
		t.Errorf("AuthLimiterCount() = %d, want 2", got)
	}
}

// TestRateLimiter_CleanupRemovesStaleEntries は期限切れエントリが削除されることを検証する。
func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	cfg := testRateLimiterConfig(10)
	cfg.CleanupInterval = 10 * time.Millisecond
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "192.0.2.1:50000"
	rl.AuthMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	if got := rl.AuthLimiterCount(); got != 1 {
		t.Fatalf("AuthLimiterCount() = %d, want 1", got)
	}

	// TTL（CleanupIntervalの2倍）経過後のクリーンアップを待つ
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.AuthLimiterCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("AuthLimiterCount() = %d after cleanup deadline, want 0", rl.AuthLimiterCount())
}
