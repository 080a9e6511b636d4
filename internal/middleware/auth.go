// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/takeda/miniblog/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimsContextKey はリクエストコンテキストにトークンクレームを格納するためのキー。
var claimsContextKey = contextKey("token_claims")

// TokenVerifier はベアラートークンの検証に必要なインターフェース。
// auth.TokenManagerの部分集合として定義する。
type TokenVerifier interface {
	Verify(tokenString string) (*model.TokenClaims, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのベアラートークンを検証し、
// デコード済みクレームをリクエストコンテキストに注入するミドルウェアを返す。
// トークンの欠落・形式不正・署名不正・期限切れはいずれも
// 400 Bad RequestのINVALID_TOKENとして応答する。401は使わない。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーから "Bearer <token>" を取り出す
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidTokenError())
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidTokenError())
				return
			}

			// 2. トークンの署名と有効期限を検証
			claims, err := verifier.Verify(parts[1])
			if err != nil {
				WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidTokenError())
				return
			}

			// 3. 認証済みクレームをコンテキストに注入
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext はリクエストコンテキストからトークンクレームを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ClaimsFromContext(ctx context.Context) (*model.TokenClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(*model.TokenClaims)
	if !ok || claims == nil || claims.UserID == "" {
		return nil, fmt.Errorf("token claims not found in context")
	}
	return claims, nil
}

// ContextWithClaims はコンテキストにトークンクレームを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaims(ctx context.Context, claims *model.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
