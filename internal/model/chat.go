package model

import "time"

// ChatMessage は2ユーザー間の1件のチャットメッセージを表す。
// 保存後はイミュータブルであり、このサブシステムからは削除・編集されない。
type ChatMessage struct {
	ID         string
	SenderID   string
	ReceiverID string
	Message    string
	CreatedAt  time.Time
}

// RecentChat は相手ユーザーごとの最新メッセージのサマリーを表す。
// チャット履歴から都度導出される読み取り専用のビューであり、永続化しない。
type RecentChat struct {
	CounterpartID   string
	CounterpartName string
	LastMessage     string
	LastMessageAt   time.Time
}
