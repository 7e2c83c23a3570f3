// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package watcher

import "github.com/prometheus/client_golang/prometheus"

const namespace = "gnss_watch"

// Metrics counts what a watcher does. A nil *Metrics records nothing.
type Metrics struct {
	fixes          *prometheus.CounterVec
	events         *prometheus.CounterVec
	pollErrors     prometheus.Counter
	listenerPanics prometheus.Counter
	status         prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_total",
			Help:      "Fixes read from the provider, by validation result.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Notifications raised to listeners, by event.",
		}, []string{"event"}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Poll cycles that failed.",
		}),
		listenerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listener_panics_total",
			Help:      "Listener callbacks that panicked.",
		}),
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "status",
			Help:      "Current watcher status (0 disabled, 1 initializing, 2 no data, 3 ready).",
		}),
	}

	reg.MustRegister(m.fixes, m.events, m.pollErrors, m.listenerPanics, m.status)
	return m
}

func (m *Metrics) fix(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.fixes.WithLabelValues(result).Inc()
}

func (m *Metrics) event(name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name).Inc()
}

func (m *Metrics) pollError() {
	if m == nil {
		return
	}
	m.pollErrors.Inc()
}

func (m *Metrics) listenerPanic() {
	if m == nil {
		return
	}
	m.listenerPanics.Inc()
}

func (m *Metrics) setStatus(s Status) {
	if m == nil {
		return
	}
	m.status.Set(float64(s))
}
