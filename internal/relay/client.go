package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait は1回の書き込みに許容する時間。
	writeWait = 10 * time.Second
	// pongWait はpong応答を待つ時間。これを超えると接続を切断する。
	pongWait = 60 * time.Second
	// pingPeriod はping送信間隔。pongWaitより短くすること。
	pingPeriod = 54 * time.Second
)

// Client は認証済みの1本のWebSocket接続を表す。
// 接続はちょうど1つのユーザーIDに束縛され、そのソケットの生存期間中
// 束縛は変わらない。
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string

	closeOnce sync.Once
	done      chan struct{}
}

// newClient はClientを生成する。sendBufferは転送キューの容量。
func newClient(conn *websocket.Conn, userID string, sendBuffer int) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		done:   make(chan struct{}),
	}
}

// UserID はこの接続に束縛されたユーザーIDを返す。
func (c *Client) UserID() string {
	return c.userID
}

// enqueue は転送ペイロードを送信キューに積む。
// ベストエフォートであり、キューが満杯または接続が終了済みの場合は
// falseを返してペイロードを破棄する（ブロックしない）。
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close は接続を終了する。複数回呼んでも安全。
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			slog.Debug("error closing websocket connection",
				slog.String("user_id", c.userID),
				slog.String("error", err.Error()),
			)
		}
	})
}

// prepareRead は読み取り側のデッドラインとpongハンドラーを設定する。
func (c *Client) prepareRead(maxMessageSize int64) {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline",
			slog.String("user_id", c.userID),
			slog.String("error", err.Error()),
		)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// writePump は送信キューのペイロードをソケットに書き込み、
// 定期的にpingを送信して接続を維持する。
// 接続ごとに1つのゴルーチンで実行すること。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			// close処理側が接続を閉じるため、closeフレームの送信のみ試みる
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return

		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("failed to write message",
					slog.String("user_id", c.userID),
					slog.String("error", err.Error()),
				)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
