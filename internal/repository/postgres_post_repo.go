package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/takeda/miniblog/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// unseenPostsQuery は未閲覧投稿の選択クエリ。
// 作者が本人でなく、かつpost_viewsに閲覧者の記録がない投稿を、
// 作者名と既存の閲覧者ID集合付きで返す。
const unseenPostsQuery = `
	SELECT p.id, p.author_id, u.username, p.title, p.content, p.views, p.created_at, p.updated_at,
	       COALESCE(ARRAY_AGG(v.user_id) FILTER (WHERE v.user_id IS NOT NULL), '{}') AS viewed_by
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_views v ON v.post_id = p.id
	WHERE p.author_id <> $1
	  AND NOT EXISTS (
	      SELECT 1 FROM post_views pv WHERE pv.post_id = p.id AND pv.user_id = $1
	  )
	GROUP BY p.id, u.username
	ORDER BY p.created_at`

// authoredPostsQuery は作者本人の投稿の選択クエリ。閲覧状態では絞り込まない。
const authoredPostsQuery = `
	SELECT p.id, p.author_id, u.username, p.title, p.content, p.views, p.created_at, p.updated_at,
	       COALESCE(ARRAY_AGG(v.user_id) FILTER (WHERE v.user_id IS NOT NULL), '{}') AS viewed_by
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN post_views v ON v.post_id = p.id
	WHERE p.author_id = $1
	GROUP BY p.id, u.username
	ORDER BY p.created_at`

// Create は投稿を作成する。viewsは0で初期化される。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, title, content, views, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 0, $5, $6)`,
		post.ID, post.AuthorID, post.Title, post.Content, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// ListUnseenAndMark は未閲覧投稿の一覧を返し、閲覧記録を同一トランザクションで適用する。
// 戻り値は変更適用前のスナップショット。
func (r *PostgresPostRepo) ListUnseenAndMark(ctx context.Context, viewerID string) ([]model.PostWithViewers, error) {
	return r.listAndMark(ctx, unseenPostsQuery, viewerID)
}

// ListByAuthorAndMark は作者本人の投稿一覧を返し、作者自身を閲覧者として
// ListUnseenAndMarkと同じ閲覧記録を適用する。
func (r *PostgresPostRepo) ListByAuthorAndMark(ctx context.Context, authorID string) ([]model.PostWithViewers, error) {
	return r.listAndMark(ctx, authoredPostsQuery, authorID)
}

// listAndMark は選択クエリの実行と閲覧記録の適用を単一トランザクションで行う。
// 閲覧記録はINSERT ... ON CONFLICT DO NOTHINGで冪等に挿入し、
// 実際に行が挿入された場合にのみviewsをインクリメントする。
// UNIQUE(post_id, user_id)制約により、同一(投稿, 閲覧者)の並行読み取りでも
// インクリメントは1回しか起こらない。
func (r *PostgresPostRepo) listAndMark(ctx context.Context, query, subjectID string) ([]model.PostWithViewers, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}

	var posts []model.PostWithViewers
	for rows.Next() {
		var p model.PostWithViewers
		var viewedBy []string
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Content,
			&p.Views, &p.CreatedAt, &p.UpdatedAt,
			pq.Array(&viewedBy),
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.ViewedBy = viewedBy
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}
	rows.Close()

	now := time.Now().UTC()
	for _, p := range posts {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO post_views (id, post_id, user_id, viewed_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (post_id, user_id) DO NOTHING`,
			uuid.New().String(), p.ID, subjectID, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to record post view: %w", err)
		}

		inserted, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if inserted == 0 {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET views = views + 1, updated_at = $2 WHERE id = $1`,
			p.ID, now,
		); err != nil {
			return nil, fmt.Errorf("failed to increment views: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
