// Package metrics collects Prometheus metrics for the auth state core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels shared by the counters below.
const (
	ResultOK           = "ok"
	ResultRemoteFailed = "remote_failed"
	ResultSkipped      = "skipped"

	RehydrationRestored = "restored"
	RehydrationEmpty    = "empty"
	RehydrationHealed   = "healed"
	RehydrationStale    = "stale_dropped"
)

// Collector registers and updates the core's counters. It satisfies the
// Recorder interfaces of the store and codec packages.
type Collector struct {
	signOut         *prometheus.CounterVec
	presence        *prometheus.CounterVec
	rehydration     *prometheus.CounterVec
	cookieWriteFail *prometheus.CounterVec
}

// NewCollector creates the collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authstate_sign_out_total",
			Help: "Sign-out attempts by remote outcome (local teardown always completes).",
		}, []string{"result"}),
		presence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authstate_presence_update_total",
			Help: "Presence updates by outcome.",
		}, []string{"result"}),
		rehydration: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authstate_rehydration_total",
			Help: "Store rehydrations by outcome.",
		}, []string{"result"}),
		cookieWriteFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authstate_cookie_write_failure_total",
			Help: "Cookie writes dropped by the jar, per cookie name.",
		}, []string{"cookie"}),
	}

	reg.MustRegister(c.signOut, c.presence, c.rehydration, c.cookieWriteFail)
	return c
}

// RecordSignOut counts a sign-out attempt.
func (c *Collector) RecordSignOut(result string) {
	c.signOut.WithLabelValues(result).Inc()
}

// RecordPresenceUpdate counts a presence update.
func (c *Collector) RecordPresenceUpdate(result string) {
	c.presence.WithLabelValues(result).Inc()
}

// RecordRehydration counts a rehydration outcome.
func (c *Collector) RecordRehydration(result string) {
	c.rehydration.WithLabelValues(result).Inc()
}

// RecordCookieWriteFailure counts a dropped cookie write.
func (c *Collector) RecordCookieWriteFailure(name string) {
	c.cookieWriteFail.WithLabelValues(name).Inc()
}
