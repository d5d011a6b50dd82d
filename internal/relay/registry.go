// Package relay はWebSocketチャットリレーを提供する。
//
// リレーは接続をトークン検証で認証し、オンラインユーザーのレジストリを
// 維持し、受信したチャットイベントを永続化したうえで、受信者が接続中
// であれば即時転送する。
package relay

import "sync"

// Registry は認証済みユーザーIDとアクティブな接続の対応を保持する。
// 1ユーザーIDにつき保持される接続は常に最大1本であり、同一IDの再登録は
// 既存エントリを置き換える（置き換えられた接続は明示的には閉じない）。
// 1プロセスにつき1インスタンスを生成し、全接続ハンドラーに注入する。
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Client
}

// NewRegistry はRegistryを生成する。
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Client),
	}
}

// Register は指定ユーザーIDのエントリを挿入または置換する。
func (r *Registry) Register(identity string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[identity] = c
}

// Lookup は指定ユーザーIDの接続を返す。未接続の場合は(nil, false)を返す。
func (r *Registry) Lookup(identity string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[identity]
	return c, ok
}

// Remove は指定ユーザーIDのエントリを削除する。
// 存在しないIDの削除は何もしない（冪等）。
func (r *Registry) Remove(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, identity)
}

// RemoveIfCurrent は現在のエントリが指定の接続そのものである場合に限り削除する。
// 古い接続のclose処理が、再接続後の新しいエントリを誤って削除することを防ぐ。
// 削除した場合はtrueを返す。
func (r *Registry) RemoveIfCurrent(identity string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[identity]; ok && current == c {
		delete(r.conns, identity)
		return true
	}
	return false
}

// Count は現在登録されている接続数を返す。メトリクスおよびテスト用。
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
