// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証系・投稿系のドメインカウンタとHTTPステータスカウンタを保持する。
type Collector struct {
	signups     prometheus.Counter
	logins      *prometheus.CounterVec
	postsTotal  prometheus.Counter
	viewsMarked prometheus.Counter
	httpStatus  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "miniblog_signups_total",
			Help: "ユーザー登録の合計数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "miniblog_logins_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		postsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "miniblog_posts_created_total",
			Help: "作成された投稿の合計数",
		}),
		viewsMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "miniblog_post_views_marked_total",
			Help: "記録された投稿閲覧の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "miniblog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.signups,
		c.logins,
		c.postsTotal,
		c.viewsMarked,
		c.httpStatus,
	)

	return c
}

// RecordSignup はユーザー登録を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordPostCreated は投稿作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postsTotal.Inc()
}

// RecordViewsMarked は記録された閲覧数を加算する。
func (c *Collector) RecordViewsMarked(count int) {
	c.viewsMarked.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
