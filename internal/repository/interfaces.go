// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/takeda/miniblog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	// ユーザー名は大文字小文字を区別する。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名が既に存在する場合はUSERNAME_TAKENエラーを返す。
	Create(ctx context.Context, user *model.User) error
}

// PostRepository は投稿データの永続化インターフェース。
// 一覧系の操作は「選択と閲覧記録」を同一トランザクションで実行する。
type PostRepository interface {
	// Create は投稿を作成する。viewsは0で初期化される。
	Create(ctx context.Context, post *model.Post) error

	// ListUnseenAndMark は指定ユーザーが未閲覧かつ他人が作者である投稿の一覧を返し、
	// 返した各投稿について閲覧記録の追加とviewsのインクリメントを同一トランザクションで行う。
	// 戻り値は変更適用前のスナップショット（インクリメント前のviews、記録前のviewed_by）。
	// 閲覧記録はUNIQUE(post_id, user_id)制約によって冪等であり、
	// インクリメントは記録が実際に挿入された場合にのみ行われるため、
	// 同一ユーザーの並行読み取りでviewsが二重加算されることはない。
	ListUnseenAndMark(ctx context.Context, viewerID string) ([]model.PostWithViewers, error)

	// ListByAuthorAndMark は指定作者の全投稿を閲覧状態に関わらず返し、
	// ListUnseenAndMarkと同じ閲覧記録の副作用を作者自身を閲覧者として適用する。
	ListByAuthorAndMark(ctx context.Context, authorID string) ([]model.PostWithViewers, error)
}
