// Package auth はパスワード認証とトークン発行・検証を提供する。
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/takeda/miniblog/internal/model"
)

// TokenManager はHS256署名のJWTを発行・検証する。
// 署名鍵は構築時に1回注入し、呼び出しごとに環境変数を参照しない。
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

// NewTokenManager はTokenManagerを生成する。
// durationが0の場合は有効期限なしのトークンを発行する。
func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		duration: duration,
	}
}

// Issue はユーザーIDとユーザー名を含むトークンを発行する。
func (m *TokenManager) Issue(userID, username string) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"id":       userID,
		"username": username,
		"iat":      now.Unix(),
	}
	if m.duration > 0 {
		claims["exp"] = now.Add(m.duration).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify はトークンを検証し、デコード済みクレームを返す。
// 署名不正・期限切れ・形式不正はいずれもINVALID_TOKENエラーとして返す。
func (m *TokenManager) Verify(tokenString string) (*model.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, model.NewInvalidTokenError()
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.NewInvalidTokenError()
	}

	userID, ok1 := claims["id"].(string)
	username, ok2 := claims["username"].(string)
	if !ok1 || !ok2 || userID == "" {
		return nil, model.NewInvalidTokenError()
	}

	return &model.TokenClaims{
		UserID:   userID,
		Username: username,
	}, nil
}
