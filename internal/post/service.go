// Package post は投稿の作成と可視性判定のドメインロジックを提供する。
//
// 可視性のルール: 投稿は、閲覧者のフィード読み取りに含まれた瞬間に
// その閲覧者にとって恒久的に「閲覧済み」となる。閲覧済みを取り消す操作は存在しない。
package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/takeda/miniblog/internal/model"
	"github.com/takeda/miniblog/internal/repository"
	"github.com/takeda/miniblog/internal/security"
)

// MetricsRecorder は投稿系メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordPostCreated()
	RecordViewsMarked(count int)
}

// Service は投稿の作成・一覧取得のサービス層。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(postRepo repository.PostRepository, sanitizer security.ContentSanitizerService, metrics MetricsRecorder) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Create は投稿を作成する。
// タイトル・本文が空白のみの場合はEMPTY_POST_FIELDSを返し、何も永続化しない。
// 本文は保存前にサニタイズされる。タイトル・本文の重複は許容される。
func (s *Service) Create(ctx context.Context, authorID, title, content string) (*model.Post, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, model.NewEmptyPostFieldsError()
	}

	now := time.Now().UTC()
	p := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Title:     s.sanitizer.SanitizeTitle(title),
		Content:   s.sanitizer.SanitizeContent(content),
		Views:     0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// サニタイズで全てが除去された場合も空投稿として扱う
	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Content) == "" {
		return nil, model.NewEmptyPostFieldsError()
	}

	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPostCreated()
	}

	return p, nil
}

// ListUnseen は閲覧者がまだ見ていない他人の投稿の一覧を返す。
// 返された各投稿には閲覧記録とviewsのインクリメントが適用される（Repositoryが
// 同一トランザクションで行う）。戻り値は適用前のスナップショット。
// 該当する投稿がない場合はNO_POSTS_FOUNDを返す。空の成功は返さない。
func (s *Service) ListUnseen(ctx context.Context, viewerID string) ([]model.PostWithViewers, error) {
	posts, err := s.postRepo.ListUnseenAndMark(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unseen posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, model.NewNoPostsFoundError()
	}

	if s.metrics != nil {
		s.metrics.RecordViewsMarked(len(posts))
	}

	return posts, nil
}

// ListAuthored は作者本人の投稿一覧を閲覧状態に関わらず返す。
// ListUnseenと同じ閲覧記録の副作用が作者自身を閲覧者として適用される。
// つまり作者が自分の一覧を取得すると自投稿のviewsが増え、viewedByに本人が加わる。
// 未読一覧と作者一覧は同一の更新経路を共有する。
// 投稿がない場合はNO_POSTS_FOUNDを返す。
func (s *Service) ListAuthored(ctx context.Context, authorID string) ([]model.PostWithViewers, error) {
	posts, err := s.postRepo.ListByAuthorAndMark(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list authored posts: %w", err)
	}
	if len(posts) == 0 {
		return nil, model.NewNoPostsFoundError()
	}

	// 自己閲覧のうち実際に記録された分だけがカウントされる
	if s.metrics != nil {
		marked := 0
		for _, p := range posts {
			if !containsViewer(p.ViewedBy, authorID) {
				marked++
			}
		}
		if marked > 0 {
			s.metrics.RecordViewsMarked(marked)
		}
	}

	return posts, nil
}

func containsViewer(viewers []string, id string) bool {
	for _, v := range viewers {
		if v == id {
			return true
		}
	}
	return false
}
