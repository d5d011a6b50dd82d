package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/devlink/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ProfileUpdateのnilフィールドが部分更新として解釈される前提の検証
// （DB接続なしでモデルの意味のみ確認）
func TestProfileUpdate_NilFieldsMeanNoChange(t *testing.T) {
	name := "Taro"
	update := model.ProfileUpdate{Name: &name}

	if update.Name == nil || *update.Name != "Taro" {
		t.Errorf("Name = %v, want %q", update.Name, "Taro")
	}
	if update.About != nil {
		t.Error("About should remain nil when not updated")
	}
	if update.Location != nil {
		t.Error("Location should remain nil when not updated")
	}
	if update.ResponseTime != nil {
		t.Error("ResponseTime should remain nil when not updated")
	}
	if update.Skills != nil {
		t.Error("Skills should remain nil when not updated")
	}
}

// skillsOrNullはnilと空スライスを区別してバインドすることを検証
func TestSkillsOrNull(t *testing.T) {
	if got := skillsOrNull(nil); got != nil {
		t.Errorf("skillsOrNull(nil) = %v, want nil", got)
	}
	if got := skillsOrNull([]string{}); got == nil {
		t.Error("skillsOrNull([]) should bind an empty array, not NULL")
	}
	if got := skillsOrNull([]string{"go"}); got == nil {
		t.Error("skillsOrNull([go]) should bind an array")
	}
}

// Userモデルのタイムスタンプ整合性の前提を検証
func TestUser_TimestampsSetOnCreate(t *testing.T) {
	now := time.Now()
	user := &model.User{
		ID:        "user-id-1",
		Username:  "taro",
		Name:      "Taro",
		Email:     "taro@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v, want equal at creation", user.CreatedAt, user.UpdatedAt)
	}
}
