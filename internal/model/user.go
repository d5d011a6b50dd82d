// Package model はドメインモデルを定義する。
package model

import "time"

// User はプラットフォーム利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、平文パスワードは保持しない。
type User struct {
	ID           string
	Username     string
	Name         string
	Email        string
	PasswordHash string
	AccountType  string
	About        string
	Location     string
	ResponseTime string
	Skills       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate はプロフィール更新の入力を表す。
// nilフィールドは変更せず、既存の値を維持する部分更新を行う。
type ProfileUpdate struct {
	Name         *string
	About        *string
	Location     *string
	ResponseTime *string
	Skills       []string
}
