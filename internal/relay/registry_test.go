package relay

import "testing"

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	c := &Client{userID: "user-a"}

	r.Register("user-a", c)

	got, ok := r.Lookup("user-a")
	if !ok {
		t.Fatal("expected lookup to find registered connection")
	}
	if got != c {
		t.Error("lookup returned a different connection")
	}
}

func TestRegistry_Lookup_AbsentIdentity(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup("nobody"); ok {
		t.Error("expected lookup of absent identity to return false")
	}
}

// 同一IDの再登録は既存エントリを置き換え、最新の接続のみが到達可能になる
func TestRegistry_Register_ReplacesExistingEntry(t *testing.T) {
	r := NewRegistry()
	first := &Client{userID: "user-a"}
	second := &Client{userID: "user-a"}

	r.Register("user-a", first)
	r.Register("user-a", second)

	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}

	got, ok := r.Lookup("user-a")
	if !ok {
		t.Fatal("expected lookup to find connection")
	}
	if got != second {
		t.Error("expected lookup to return the newest connection")
	}
}

func TestRegistry_Remove_Idempotent(t *testing.T) {
	r := NewRegistry()
	c := &Client{userID: "user-a"}

	r.Register("user-a", c)
	r.Remove("user-a")
	// 2回目のRemoveはエラーにもpanicにもならない
	r.Remove("user-a")

	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
}

// 再接続後に古い接続のclose処理が走っても、新しいエントリは削除されない
func TestRegistry_RemoveIfCurrent_GuardsNewerConnection(t *testing.T) {
	r := NewRegistry()
	first := &Client{userID: "user-a"}
	second := &Client{userID: "user-a"}

	r.Register("user-a", first)
	// 1本目のcloseイベントが届く前に再接続
	r.Register("user-a", second)

	if removed := r.RemoveIfCurrent("user-a", first); removed {
		t.Error("expected RemoveIfCurrent with stale connection to be a no-op")
	}

	got, ok := r.Lookup("user-a")
	if !ok {
		t.Fatal("expected newer connection to remain registered")
	}
	if got != second {
		t.Error("expected lookup to return the newer connection")
	}
}

func TestRegistry_RemoveIfCurrent_RemovesMatchingConnection(t *testing.T) {
	r := NewRegistry()
	c := &Client{userID: "user-a"}

	r.Register("user-a", c)

	if removed := r.RemoveIfCurrent("user-a", c); !removed {
		t.Error("expected RemoveIfCurrent with current connection to remove the entry")
	}
	if _, ok := r.Lookup("user-a"); ok {
		t.Error("expected entry to be removed")
	}

	// 同じ接続での2回目の呼び出しは冪等
	if removed := r.RemoveIfCurrent("user-a", c); removed {
		t.Error("expected second RemoveIfCurrent to be a no-op")
	}
}

func TestRegistry_Count(t *testing.T) {
	r := NewRegistry()

	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}

	r.Register("user-a", &Client{userID: "user-a"})
	r.Register("user-b", &Client{userID: "user-b"})

	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}
}
