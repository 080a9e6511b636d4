package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/takeda/miniblog/internal/middleware"
	"github.com/takeda/miniblog/internal/model"
)

// --- モック ---

type mockAuthService struct {
	signupFn func(ctx context.Context, username, password string) (string, error)
	loginFn  func(ctx context.Context, username, password string) (string, error)
}

func (m *mockAuthService) Signup(ctx context.Context, username, password string) (string, error) {
	return m.signupFn(ctx, username, password)
}
func (m *mockAuthService) Login(ctx context.Context, username, password string) (string, error) {
	return m.loginFn(ctx, username, password)
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v\nraw: %s", err, rec.Body.String())
	}
	return body
}

func credentialsBody(username, password string) *strings.Reader {
	b, _ := json.Marshal(map[string]string{"username": username, "password": password})
	return strings.NewReader(string(b))
}

// --- Signup ---

// TestAuthHandler_Signup_Returns201WithToken は登録成功で201とトークンが返ることを検証する。
func TestAuthHandler_Signup_Returns201WithToken(t *testing.T) {
	svc := &mockAuthService{
		signupFn: func(ctx context.Context, username, password string) (string, error) {
			if username != "takeda" || password != "password123" {
				t.Errorf("credentials = %q/%q, want takeda/password123", username, password)
			}
			return "issued-token", nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", credentialsBody("takeda", "password123"))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Token != "issued-token" {
		t.Errorf("token = %q, want %q", body.Token, "issued-token")
	}
}

// TestAuthHandler_Signup_InvalidBody は不正・空ボディがサービスに到達せず400になることを検証する。
func TestAuthHandler_Signup_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "不正なJSON", body: "{not json"},
		{name: "ユーザー名なし", body: `{"password":"password123"}`},
		{name: "パスワードなし", body: `{"username":"takeda"}`},
		{name: "空白のみのユーザー名", body: `{"username":"   ","password":"password123"}`},
		{name: "空ボディ", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svcCalled := false
			svc := &mockAuthService{
				signupFn: func(ctx context.Context, username, password string) (string, error) {
					svcCalled = true
					return "", nil
				},
			}
			h := NewAuthHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Signup(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if svcCalled {
				t.Error("service should not be called for invalid body")
			}

			body := decodeErrorResponse(t, rec)
			if body.Code != model.ErrCodeEmptyCredentials {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeEmptyCredentials)
			}
		})
	}
}

// TestAuthHandler_Signup_UsernameTaken_Returns409 は重複ユーザー名で409が返ることを検証する。
func TestAuthHandler_Signup_UsernameTaken_Returns409(t *testing.T) {
	svc := &mockAuthService{
		signupFn: func(ctx context.Context, username, password string) (string, error) {
			return "", model.NewUsernameTakenError(username)
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", credentialsBody("takeda", "password123"))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	body := decodeErrorResponse(t, rec)
	if body.Code != model.ErrCodeUsernameTaken {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUsernameTaken)
	}
}

// TestAuthHandler_Signup_InternalError_Returns500 は想定外エラーが500に丸められることを検証する。
func TestAuthHandler_Signup_InternalError_Returns500(t *testing.T) {
	svc := &mockAuthService{
		signupFn: func(ctx context.Context, username, password string) (string, error) {
			return "", errors.New("db connection lost")
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", credentialsBody("takeda", "password123"))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	body := decodeErrorResponse(t, rec)
	if body.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", body.Code, "INTERNAL_ERROR")
	}
	if strings.Contains(body.Message, "db connection lost") {
		t.Error("internal error details must not leak to the response")
	}
}

// --- Login ---

// TestAuthHandler_Login_Returns200WithToken はログイン成功で200とトークンが返ることを検証する。
func TestAuthHandler_Login_Returns200WithToken(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, error) {
			return "issued-token", nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", credentialsBody("takeda", "password123"))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Token != "issued-token" {
		t.Errorf("token = %q, want %q", body.Token, "issued-token")
	}
}

// TestAuthHandler_Login_UnknownUser_Returns404 は未知ユーザーで404が返ることを検証する。
func TestAuthHandler_Login_UnknownUser_Returns404(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, error) {
			return "", model.NewUserNotFoundError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", credentialsBody("unknown", "password123"))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	body := decodeErrorResponse(t, rec)
	if body.Code != model.ErrCodeUserNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUserNotFound)
	}
}

// TestAuthHandler_Login_WrongPassword_Returns400 はパスワード不一致で400が返ることを検証する。
func TestAuthHandler_Login_WrongPassword_Returns400(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, error) {
			return "", model.NewWrongPasswordError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", credentialsBody("takeda", "wrong"))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	body := decodeErrorResponse(t, rec)
	if body.Code != model.ErrCodeWrongPassword {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeWrongPassword)
	}
}
