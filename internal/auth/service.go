package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/takeda/miniblog/internal/model"
	"github.com/takeda/miniblog/internal/repository"
)

// MetricsRecorder は認証系メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordSignup()
	RecordLogin(success bool)
}

// Service は認証に関するビジネスロジックを提供する。
// パスワードはbcryptハッシュとしてのみ保存し、照合は一方向の検証関数で行う。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenManager
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(userRepo repository.UserRepository, tokens *TokenManager, metrics MetricsRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		metrics:  metrics,
	}
}

// Signup は新規ユーザーを登録し、トークンを発行する。
// ユーザー名・パスワードが空白のみの場合はEMPTY_CREDENTIALS、
// ユーザー名が既に存在する場合はUSERNAME_TAKENを返す。
// 一意性はアプリケーション層の事前確認とDBのUNIQUE制約の両方で守られる。
func (s *Service) Signup(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return "", model.NewEmptyCredentialsError()
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to check username availability: %w", err)
	}
	if existing != nil {
		return "", model.NewUsernameTakenError(username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 事前確認の後に同名ユーザーが作成される競合はUNIQUE制約で検出され、
	// RepositoryがUSERNAME_TAKENとして返す。
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSignup()
	}

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
	)

	return token, nil
}

// Login は資格情報を検証し、トークンを発行する。
// ユーザーが存在しない場合はUSER_NOT_FOUND、
// パスワードが一致しない場合はWRONG_PASSWORDを返す。
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return "", model.NewEmptyCredentialsError()
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordLogin(false)
		return "", model.NewUserNotFoundError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLogin(false)
		return "", model.NewWrongPasswordError()
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.recordLogin(true)

	return token, nil
}

func (s *Service) recordLogin(success bool) {
	if s.metrics != nil {
		s.metrics.RecordLogin(success)
	}
}
