// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/devlink/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はプロフィールを部分更新する。
	// updateのnilフィールドは変更せず、既存の値を維持する。
	// 更新後のユーザーを返す。見つからない場合はnilを返す。
	UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error)
}

// ChatRepository はチャットメッセージの永続化インターフェース。
// メッセージは追記専用であり、更新・削除操作は提供しない。
type ChatRepository interface {
	// Append はチャットメッセージを1件永続化し、保存されたレコードを返す。
	Append(ctx context.Context, senderID, receiverID, message string, at time.Time) (*model.ChatMessage, error)

	// ListBetween は2ユーザー間の直近limit件のメッセージを
	// created_at昇順（古い順）で返す。
	ListBetween(ctx context.Context, userA, userB string, limit int) ([]*model.ChatMessage, error)

	// RecentCounterparts は指定ユーザーの相手ごとの最新メッセージサマリーを
	// 最終メッセージの新しい順で返す。
	RecentCounterparts(ctx context.Context, userID string) ([]model.RecentChat, error)
}

// MessageAppender はリレーエンジンが必要とする永続化操作の部分集合。
// ChatRepositoryの部分集合として定義する。
type MessageAppender interface {
	Append(ctx context.Context, senderID, receiverID, message string, at time.Time) (*model.ChatMessage, error)
}
