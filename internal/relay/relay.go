package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hitoshi/devlink/internal/repository"
)

// eventTypeChat はチャット送信イベントのtype値。
// これ以外のtype値を持つイベントは無視する。
const eventTypeChat = "chat"

// TokenVerifier は接続認証に必要なトークン検証のインターフェース。
type TokenVerifier interface {
	// Verify はトークン文字列を検証し、ユーザーIDを返す。
	Verify(tokenString string) (string, error)
}

// Sanitizer はメッセージ本文のサニタイズに必要なインターフェース。
// security.MessageSanitizerServiceの部分集合として定義する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder はリレーが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	ConnectionOpened()
	ConnectionClosed()
	AuthFailure()
	MessagePersisted()
	PersistFailure()
	MessageForwarded()
	DeliveryMiss()
	EventDropped()
}

// Config はリレーエンジンの動作設定。
type Config struct {
	// AppendTimeout は1件の永続化呼び出しに許容する時間。
	AppendTimeout time.Duration
	// SendBuffer は接続ごとの転送キュー容量。
	SendBuffer int
	// MaxMessageSize は受信フレームの最大バイト数。
	MaxMessageSize int64
}

// DefaultConfig はリレーのデフォルト設定を返す。
func DefaultConfig() Config {
	return Config{
		AppendTimeout:  5 * time.Second,
		SendBuffer:     256,
		MaxMessageSize: 4096,
	}
}

// Relay はWebSocketチャットリレーエンジン。
// 接続の認証・登録、チャットイベントの永続化、受信者への即時転送を行う。
type Relay struct {
	verifier  TokenVerifier
	registry  *Registry
	store     repository.MessageAppender
	sanitizer Sanitizer
	metrics   MetricsRecorder
	config    Config
	upgrader  websocket.Upgrader
}

// NewRelay はRelayを生成する。
// checkOriginは許可するOriginヘッダーの検証関数。nilの場合は全Originを許可する
// （トークン検証が接続の認可を担うため、Origin検証は多層防御の位置づけ）。
func NewRelay(
	verifier TokenVerifier,
	registry *Registry,
	store repository.MessageAppender,
	sanitizer Sanitizer,
	metrics MetricsRecorder,
	config Config,
	checkOrigin func(r *http.Request) bool,
) *Relay {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Relay{
		verifier:  verifier,
		registry:  registry,
		store:     store,
		sanitizer: sanitizer,
		metrics:   metrics,
		config:    config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// --- ワイヤ形式 ---

// flexibleID はJSONの数値と文字列の両方を受け付けるID型。
// 既存クライアントはreceiverIdを数値で送るため、双方を文字列に正規化する。
type flexibleID string

// UnmarshalJSON は文字列または数値をIDとして読み込む。
func (f *flexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// String はID文字列を返す。
func (f flexibleID) String() string { return string(f) }

// chatEvent は受信するチャット送信イベントのワイヤ形式。
type chatEvent struct {
	Type       string     `json:"type"`
	ReceiverID flexibleID `json:"receiverId"`
	Message    string     `json:"message"`
}

// forwardEvent は受信者へ転送するペイロードのワイヤ形式。
type forwardEvent struct {
	Message    string `json:"message"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// ServeWS はWebSocketハンドシェイクを処理する。
// GET /ws?token=<token>
//
// トークン検証に失敗した接続はアップグレードせずに401で拒否する。
// 検証に成功した場合のみレジストリに登録し、イベント処理を開始する。
func (rl *Relay) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")

	identity, err := rl.verifier.Verify(tokenString)
	if err != nil {
		rl.metrics.AuthFailure()
		slog.Warn("websocket authentication failed",
			slog.String("remote_addr", r.RemoteAddr),
		)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := rl.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgradeが失敗した場合はUpgrade自身がエラーレスポンスを書き込む
		slog.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		return
	}

	client := newClient(conn, identity, rl.config.SendBuffer)
	rl.registry.Register(identity, client)
	rl.metrics.ConnectionOpened()

	slog.Info("websocket connected",
		slog.String("user_id", identity),
		slog.Int("online", rl.registry.Count()),
	)

	go client.writePump()
	rl.readLoop(client)
}

// readLoop は接続からのイベントを受信順に処理する。
// トランスポートのcloseまたはプロトコルエラーで終了し、
// 自身が現在のエントリである場合に限りレジストリから登録を解除する。
func (rl *Relay) readLoop(client *Client) {
	defer func() {
		rl.registry.RemoveIfCurrent(client.userID, client)
		client.close()
		rl.metrics.ConnectionClosed()

		slog.Info("websocket disconnected",
			slog.String("user_id", client.userID),
			slog.Int("online", rl.registry.Count()),
		)
	}()

	client.prepareRead(rl.config.MaxMessageSize)

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				slog.Warn("websocket read error",
					slog.String("user_id", client.userID),
					slog.String("error", err.Error()),
				)
			}
			return
		}

		rl.handleEvent(client, raw)
	}
}

// handleEvent は1件の受信イベントを処理する。
//
// チャット送信イベントは、検証 → 永続化 → （受信者が接続中なら）転送の
// 順で処理する。永続化に失敗したイベントは転送せずに破棄する（再試行しない）。
// 受信者が未接続の場合、メッセージは履歴としてのみ取得可能になる。
func (rl *Relay) handleEvent(sender *Client, raw []byte) {
	var ev chatEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		rl.metrics.EventDropped()
		slog.Debug("dropping undecodable event",
			slog.String("user_id", sender.userID),
		)
		return
	}

	// 認識できないtypeは本仕様の範囲外のため無視する
	if ev.Type != eventTypeChat {
		return
	}

	receiverID := ev.ReceiverID.String()
	message := rl.sanitizer.Sanitize(ev.Message)
	if receiverID == "" || message == "" {
		rl.metrics.EventDropped()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rl.config.AppendTimeout)
	defer cancel()

	stored, err := rl.store.Append(ctx, sender.userID, receiverID, message, time.Now())
	if err != nil {
		rl.metrics.PersistFailure()
		slog.Error("failed to persist chat message",
			slog.String("sender_id", sender.userID),
			slog.String("receiver_id", receiverID),
			slog.String("error", err.Error()),
		)
		return
	}
	rl.metrics.MessagePersisted()

	target, ok := rl.registry.Lookup(receiverID)
	if !ok {
		rl.metrics.DeliveryMiss()
		return
	}

	payload, err := json.Marshal(forwardEvent{
		Message:    stored.Message,
		SenderID:   sender.userID,
		ReceiverID: receiverID,
	})
	if err != nil {
		slog.Error("failed to marshal forward payload",
			slog.String("error", err.Error()),
		)
		return
	}

	if target.enqueue(payload) {
		rl.metrics.MessageForwarded()
	} else {
		slog.Warn("receiver send buffer full; dropping live forward",
			slog.String("receiver_id", receiverID),
		)
	}
}

// Shutdown はレジストリ上の全接続を閉じる。
// グレースフルシャットダウン時にHTTPサーバー停止後に呼び出す。
func (rl *Relay) Shutdown() {
	rl.registry.mu.Lock()
	clients := make([]*Client, 0, len(rl.registry.conns))
	for _, c := range rl.registry.conns {
		clients = append(clients, c)
	}
	rl.registry.conns = make(map[string]*Client)
	rl.registry.mu.Unlock()

	for _, c := range clients {
		c.close()
	}

	slog.Info("relay shutdown completed", slog.Int("closed_connections", len(clients)))
}
