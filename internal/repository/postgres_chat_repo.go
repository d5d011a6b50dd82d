package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/devlink/internal/model"
)

// PostgresChatRepo はPostgreSQLを使用したチャットメッセージリポジトリ。
// メッセージは追記専用であり、UPDATE/DELETEは発行しない。
type PostgresChatRepo struct {
	db *sql.DB
}

// NewPostgresChatRepo はPostgresChatRepoを生成する。
func NewPostgresChatRepo(db *sql.DB) *PostgresChatRepo {
	return &PostgresChatRepo{db: db}
}

// Append はチャットメッセージを1件永続化し、保存されたレコードを返す。
// IDはこのメソッド内で採番する。
func (r *PostgresChatRepo) Append(ctx context.Context, senderID, receiverID, message string, at time.Time) (*model.ChatMessage, error) {
	msg := &model.ChatMessage{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
		CreatedAt:  at,
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chats (id, sender_id, receiver_id, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Message, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append chat message: %w", err)
	}

	return msg, nil
}

// ListBetween は2ユーザー間の直近limit件のメッセージをcreated_at昇順で返す。
// 内側のサブクエリで新しい順にlimit件を切り出し、外側で時系列に並べ直す。
func (r *PostgresChatRepo) ListBetween(ctx context.Context, userA, userB string, limit int) ([]*model.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, message, created_at
		 FROM (
		     SELECT id, sender_id, receiver_id, message, created_at
		     FROM chats
		     WHERE (sender_id = $1 AND receiver_id = $2)
		        OR (sender_id = $2 AND receiver_id = $1)
		     ORDER BY created_at DESC
		     LIMIT $3
		 ) recent
		 ORDER BY created_at ASC`,
		userA, userB, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.ChatMessage
	for rows.Next() {
		msg := &model.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Message, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	return messages, nil
}

// RecentCounterparts は指定ユーザーの相手ごとの最新メッセージサマリーを
// 最終メッセージの新しい順で返す。
func (r *PostgresChatRepo) RecentCounterparts(ctx context.Context, userID string) ([]model.RecentChat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT counterpart_id, name, message, created_at
		 FROM (
		     SELECT DISTINCT ON (c.counterpart_id)
		         c.counterpart_id, u.name, c.message, c.created_at
		     FROM (
		         SELECT
		             CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS counterpart_id,
		             message, created_at
		         FROM chats
		         WHERE sender_id = $1 OR receiver_id = $1
		     ) c
		     JOIN users u ON u.id = c.counterpart_id
		     ORDER BY c.counterpart_id, c.created_at DESC
		 ) latest
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent counterparts: %w", err)
	}
	defer rows.Close()

	var chats []model.RecentChat
	for rows.Next() {
		var rc model.RecentChat
		if err := rows.Scan(&rc.CounterpartID, &rc.CounterpartName, &rc.LastMessage, &rc.LastMessageAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent chat: %w", err)
		}
		chats = append(chats, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recent chats: %w", err)
	}

	return chats, nil
}

// compile-time interface check
var _ ChatRepository = (*PostgresChatRepo)(nil)
var _ MessageAppender = (*PostgresChatRepo)(nil)
