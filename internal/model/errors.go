// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, post, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEmptyCredentials = "EMPTY_CREDENTIALS"
	ErrCodeUsernameTaken    = "USERNAME_TAKEN"
	ErrCodeUserNotFound     = "USER_NOT_FOUND"
	ErrCodeWrongPassword    = "WRONG_PASSWORD"
	ErrCodeInvalidToken     = "INVALID_TOKEN"
	ErrCodeEmptyPostFields  = "EMPTY_POST_FIELDS"
	ErrCodeNoPostsFound     = "NO_POSTS_FOUND"
)

// NewEmptyCredentialsError はユーザー名またはパスワードが空の場合のエラーを生成する。
func NewEmptyCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyCredentials,
		Message:  "ユーザー名とパスワードは空にできません。",
		Category: "validation",
		Action:   "ユーザー名とパスワードの両方を入力してください。",
	}
}

// NewUsernameTakenError はユーザー名が既に使われている場合のエラーを生成する。
func NewUsernameTakenError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  fmt.Sprintf("ユーザー名は既に使われています: %s", username),
		Category: "auth",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
// 資格情報の探り打ちを避けるため、メッセージではユーザー名の存在有無を明かさない。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。",
	}
}

// NewWrongPasswordError はパスワードが一致しない場合のエラーを生成する。
func NewWrongPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongPassword,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidTokenError はトークンが無効または欠落している場合のエラーを生成する。
// 欠落・期限切れ・署名不正は区別せず、同一のエラーとして扱う。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "トークンが無効または指定されていません。",
		Category: "auth",
		Action:   "再度ログインしてトークンを取得し直してください。",
	}
}

// NewEmptyPostFieldsError はタイトルまたは本文が空の場合のエラーを生成する。
func NewEmptyPostFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyPostFields,
		Message:  "タイトルと本文は必須です。",
		Category: "validation",
		Action:   "タイトルと本文の両方を入力してください。",
	}
}

// NewNoPostsFoundError は条件に合致する投稿が存在しない場合のエラーを生成する。
// 未読の投稿が無い状態は空リストの成功応答ではなくこのエラーとして表現する。
func NewNoPostsFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNoPostsFound,
		Message:  "投稿が見つかりません。",
		Category: "post",
		Action:   "新しい投稿が作成されるのを待つか、投稿を作成してください。",
	}
}
