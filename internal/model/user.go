package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、平文パスワードは保持しない。
// ユーザー名は大文字小文字を区別し、作成時に一意性が強制される。
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenClaims は発行済み認証トークンのデコード結果を表す。
// 少なくともユーザーIDとユーザー名を含む。
type TokenClaims struct {
	UserID   string
	Username string
}
