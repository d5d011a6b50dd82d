// Package user はアカウント管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/devlink/internal/model"
	"github.com/hitoshi/devlink/internal/repository"
)

// TokenIssuer はサインアップ/サインイン時のトークン発行インターフェース。
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// SignupInput はサインアップの入力を表す。
type SignupInput struct {
	Name        string
	Username    string
	Email       string
	Password    string
	AccountType string
}

// AuthResult は認証成功時の結果（ユーザーと発行済みトークン）を表す。
type AuthResult struct {
	User  *model.User
	Token string
}

// Service はアカウント管理のサービス層。
// サインアップ、サインイン、プロフィール取得・更新を提供する。
type Service struct {
	userRepo repository.UserRepository
	issuer   TokenIssuer
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, issuer TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Signup は新規ユーザーを登録し、トークンを発行する。
// メールアドレスが登録済みの場合はEMAIL_TAKENエラーを返す。
// パスワードはbcryptでハッシュ化して保存し、平文は保持しない。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.Username = strings.TrimSpace(input.Username)

	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, model.NewValidationError("name, email, password are required")
	}

	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("メールアドレスの重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	username, err := s.resolveUsername(ctx, input.Username, input.Email)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	newUser := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		AccountType:  input.AccountType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	token, err := s.issuer.Issue(newUser.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("new user signed up",
		slog.String("user_id", newUser.ID),
		slog.String("username", newUser.Username),
	)

	return &AuthResult{User: newUser, Token: token}, nil
}

// Signin はメールアドレスとパスワードで認証し、トークンを発行する。
// メールアドレス未登録とパスワード不一致は区別せず、
// 同一のINVALID_CREDENTIALSエラーを返す。
func (s *Service) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, model.NewValidationError("email, password are required")
	}

	found, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if found == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.issuer.Issue(found.ID)
	if err != nil {
		return nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}

	slog.Info("user signed in", slog.String("user_id", found.ID))

	return &AuthResult{User: found, Token: token}, nil
}

// GetByUsername はユーザー名でプロフィールを取得する。
func (s *Service) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	found, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if found == nil {
		return nil, model.NewUserNotFoundError()
	}
	return found, nil
}

// GetByID はIDでユーザーを取得する。認証済みユーザー自身の情報取得に使う。
func (s *Service) GetByID(ctx context.Context, id string) (*model.User, error) {
	found, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if found == nil {
		return nil, model.NewUserNotFoundError()
	}
	return found, nil
}

// UpdateProfile はプロフィールを部分更新する。
// updateのnilフィールドは変更せず、既存の値を維持する。
func (s *Service) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (*model.User, error) {
	updated, err := s.userRepo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("profile updated", slog.String("user_id", userID))

	return updated, nil
}

// resolveUsername は利用可能なユーザー名を決定する。
// 指定があれば重複チェックのみ行い、なければメールアドレスの
// ローカル部から導出する（衝突時はuuid断片を付加）。
func (s *Service) resolveUsername(ctx context.Context, requested, email string) (string, error) {
	if requested != "" {
		taken, err := s.userRepo.FindByUsername(ctx, requested)
		if err != nil {
			return "", fmt.Errorf("ユーザー名の重複確認に失敗しました: %w", err)
		}
		if taken != nil {
			return "", model.NewValidationError("username is already taken")
		}
		return requested, nil
	}

	base := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		base = email[:at]
	}

	taken, err := s.userRepo.FindByUsername(ctx, base)
	if err != nil {
		return "", fmt.Errorf("ユーザー名の重複確認に失敗しました: %w", err)
	}
	if taken == nil {
		return base, nil
	}
	return base + "-" + uuid.New().String()[:8], nil
}
