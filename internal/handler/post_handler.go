package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/takeda/miniblog/internal/middleware"
	"github.com/takeda/miniblog/internal/model"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, authorID, title, content string) (*model.Post, error)
	// ListUnseen は閲覧者が未閲覧の他人の投稿一覧を返し、閲覧記録を適用する。
	ListUnseen(ctx context.Context, viewerID string) ([]model.PostWithViewers, error)
	// ListAuthored は作者本人の投稿一覧を返し、同じ閲覧記録を適用する。
	ListAuthored(ctx context.Context, authorID string) ([]model.PostWithViewers, error)
}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// createPostRequest は投稿作成リクエストのボディ。
type createPostRequest struct {
	Title   string `json:"title" validate:"required,notblank"`
	Content string `json:"content" validate:"required,notblank"`
}

// postAuthorResponse は投稿レスポンス内の作者情報。
type postAuthorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// postResponse は投稿のAPIレスポンス。
// 一覧取得ではViewsとViewedByは閲覧記録適用前の値を返す。
type postResponse struct {
	ID        string             `json:"id"`
	Author    postAuthorResponse `json:"author"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Views     int                `json:"views"`
	ViewedBy  []string           `json:"viewed_by"`
	CreatedAt time.Time          `json:"created_at"`
}

// postListResponse は投稿一覧のレスポンス。
type postListResponse struct {
	Posts []postResponse `json:"posts"`
}

// createPostResponse は投稿作成のレスポンス。
type createPostResponse struct {
	Post postResponse `json:"post"`
}

// ListUnseen は未閲覧投稿のフィードを取得する。
// GET /posts
// 返された各投稿は閲覧済みとなり、viewsがインクリメントされる。
// レスポンスには適用前のスナップショットが入る。
func (h *PostHandler) ListUnseen(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidTokenError())
		return
	}

	posts, err := h.service.ListUnseen(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostListResponse(posts))
}

// ListAuthored はログインユーザー自身の投稿一覧を取得する。
// GET /posts/user
func (h *PostHandler) ListAuthored(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidTokenError())
		return
	}

	posts, err := h.service.ListAuthored(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPostListResponse(posts))
}

// Create は投稿作成を処理する。
// POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidTokenError())
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyPostFieldsError())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewEmptyPostFieldsError())
		return
	}

	created, err := h.service.Create(r.Context(), claims.UserID, req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createPostResponse{
		Post: postResponse{
			ID:        created.ID,
			Author:    postAuthorResponse{ID: claims.UserID, Username: claims.Username},
			Title:     created.Title,
			Content:   created.Content,
			Views:     created.Views,
			ViewedBy:  []string{},
			CreatedAt: created.CreatedAt,
		},
	})
}

// --- ヘルパー関数 ---

// toPostListResponse はmodel.PostWithViewersのスライスからAPIレスポンスに変換する。
func toPostListResponse(posts []model.PostWithViewers) postListResponse {
	resp := postListResponse{Posts: make([]postResponse, 0, len(posts))}
	for _, p := range posts {
		viewedBy := p.ViewedBy
		if viewedBy == nil {
			viewedBy = []string{}
		}
		resp.Posts = append(resp.Posts, postResponse{
			ID:        p.ID,
			Author:    postAuthorResponse{ID: p.AuthorID, Username: p.AuthorName},
			Title:     p.Title,
			Content:   p.Content,
			Views:     p.Views,
			ViewedBy:  viewedBy,
			CreatedAt: p.CreatedAt,
		})
	}
	return resp
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// ドメインエラー（APIError）はそのまま伝搬し、それ以外は詳細をログに記録した上で
// 500 INTERNAL_ERRORに丸める（元のエラー種別は境界で破棄される）。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
// トークン不正は401ではなく400として扱う。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEmptyCredentials, model.ErrCodeEmptyPostFields,
		model.ErrCodeWrongPassword, model.ErrCodeInvalidToken:
		return http.StatusBadRequest
	case model.ErrCodeUsernameTaken:
		return http.StatusConflict
	case model.ErrCodeUserNotFound, model.ErrCodeNoPostsFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
