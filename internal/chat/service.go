// Package chat はチャット履歴の取得機能を提供する。
package chat

import (
	"context"
	"fmt"

	"github.com/hitoshi/devlink/internal/model"
	"github.com/hitoshi/devlink/internal/repository"
)

// 履歴取得の件数制限。
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Service はチャット履歴のサービス層。
// メッセージの書き込みはリレーエンジンが行い、ここでは読み取りのみ提供する。
type Service struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		chatRepo: chatRepo,
		userRepo: userRepo,
	}
}

// History は自分と相手の2者間の直近limit件のメッセージを
// 古い順で返す。limitが0以下の場合はデフォルト値を使用する。
func (s *Service) History(ctx context.Context, userID, counterpartID string, limit int) ([]*model.ChatMessage, error) {
	if counterpartID == "" {
		return nil, model.NewValidationError("counterpart user ID is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	counterpart, err := s.userRepo.FindByID(ctx, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("相手ユーザーの取得に失敗しました: %w", err)
	}
	if counterpart == nil {
		return nil, model.NewUserNotFoundError()
	}

	messages, err := s.chatRepo.ListBetween(ctx, userID, counterpartID, limit)
	if err != nil {
		return nil, fmt.Errorf("チャット履歴の取得に失敗しました: %w", err)
	}
	return messages, nil
}

// RecentChats は自分がメッセージを交わした相手ごとの最新メッセージサマリーを
// 最終メッセージの新しい順で返す。
func (s *Service) RecentChats(ctx context.Context, userID string) ([]model.RecentChat, error) {
	recents, err := s.chatRepo.RecentCounterparts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("最近のチャット一覧の取得に失敗しました: %w", err)
	}
	return recents, nil
}
