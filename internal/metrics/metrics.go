// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はリレーの運用メトリクスを収集するPrometheus実装。
// relay.MetricsRecorderを満たす。
type Collector struct {
	connections     prometheus.Gauge
	authFailures    prometheus.Counter
	persisted       prometheus.Counter
	persistFailures prometheus.Counter
	forwarded       prometheus.Counter
	deliveryMisses  prometheus.Counter
	droppedEvents   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "devlink_relay_connections",
			Help: "現在登録されているWebSocket接続数",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devlink_relay_auth_failures_total",
			Help: "トークン検証失敗により拒否された接続の合計数",
		}),
		persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devlink_relay_messages_persisted_total",
			Help: "永続化に成功したチャットメッセージの合計数",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devlink_relay_persist_failures_total",
			Help: "永続化に失敗し破棄されたチャットメッセージの合計数",
		}),
		forwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devlink_relay_messages_forwarded_total",
			Help: "接続中の受信者へ転送されたメッセージの合計数",
		}),
		deliveryMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devlink_relay_delivery_miss_total",
			Help: "受信者が未接続のため転送されなかったメッセージの合計数",
		}),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devlink_relay_dropped_events_total",
			Help: "不正なフォーマットのため破棄された受信イベントの合計数",
		}),
	}

	reg.MustRegister(
		c.connections,
		c.authFailures,
		c.persisted,
		c.persistFailures,
		c.forwarded,
		c.deliveryMisses,
		c.droppedEvents,
	)

	return c
}

// ConnectionOpened は接続の登録を記録する。
func (c *Collector) ConnectionOpened() {
	c.connections.Inc()
}

// ConnectionClosed は接続の解除を記録する。
func (c *Collector) ConnectionClosed() {
	c.connections.Dec()
}

// AuthFailure はトークン検証失敗による接続拒否を記録する。
func (c *Collector) AuthFailure() {
	c.authFailures.Inc()
}

// MessagePersisted はメッセージの永続化成功を記録する。
func (c *Collector) MessagePersisted() {
	c.persisted.Inc()
}

// PersistFailure はメッセージの永続化失敗を記録する。
func (c *Collector) PersistFailure() {
	c.persistFailures.Inc()
}

// MessageForwarded は受信者への転送成功を記録する。
func (c *Collector) MessageForwarded() {
	c.forwarded.Inc()
}

// DeliveryMiss は受信者未接続による転送スキップを記録する。
func (c *Collector) DeliveryMiss() {
	c.deliveryMisses.Inc()
}

// EventDropped は不正イベントの破棄を記録する。
func (c *Collector) EventDropped() {
	c.droppedEvents.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
