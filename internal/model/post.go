package model

import "time"

// Post は投稿を表す。
// ViewsとViewedByはフィード取得時の閲覧記録によってのみ変化し、
// 投稿本体（タイトル・本文・作者）は作成後に変更されない。
type Post struct {
	ID        string
	AuthorID  string
	Title     string
	Content   string
	Views     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostWithViewers は投稿と作者名・閲覧者IDの集合を結合したモデル。
// post_viewsテーブルとLEFT JOINして取得される。
// 一覧取得のレスポンスには閲覧記録を適用する前のスナップショットが使われる。
type PostWithViewers struct {
	Post
	AuthorName string
	ViewedBy   []string
}
