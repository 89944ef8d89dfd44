// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/slscore/slscore/lib/settings"
)

const namespace = "slscore"

// Ticket lookup sources, used as the "source" label.
const (
	sourceLive  = "live"
	sourceCache = "cache"
	sourceNone  = "none"
)

type metrics struct {
	reloads          *prometheus.CounterVec
	sectionFallbacks *prometheus.GaugeVec
	decisions        *prometheus.CounterVec
	ticketLookups    *prometheus.CounterVec
	ticketMismatches prometheus.Counter
	forcedApps       prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Configuration loads by outcome.",
		}, []string{"result"}),
		sectionFallbacks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "config_section_fallback",
			Help:      "1 for each configuration key that did not load cleanly in the current snapshot.",
		}, []string{"key", "status"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Exclusion decisions by deciding rule.",
		}, []string{"rule", "exclude"}),
		ticketLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_lookups_total",
			Help:      "Ticket resolutions by where the ticket came from.",
		}, []string{"source"}),
		ticketMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_replacements_total",
			Help:      "Live tickets that differed from the previously observed ticket for the same app.",
		}),
		forcedApps: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forced_apps",
			Help:      "Number of apps forced owned at runtime.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		m.reloads, m.sectionFallbacks, m.decisions,
		m.ticketLookups, m.ticketMismatches, m.forcedApps,
	} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observeReport records one load. The fallback gauge is rebuilt so it
// describes the current snapshot only.
func (m *metrics) observeReport(report *settings.Report) {
	switch {
	case report.Document != nil:
		m.reloads.WithLabelValues("document_error").Inc()
	case !report.OK():
		m.reloads.WithLabelValues("partial").Inc()
	default:
		m.reloads.WithLabelValues("ok").Inc()
	}

	m.sectionFallbacks.Reset()
	for _, result := range report.Fallbacks() {
		m.sectionFallbacks.WithLabelValues(result.Key, result.Status.String()).Set(1)
	}
}

func (m *metrics) observeDecision(rule string, exclude bool) {
	m.decisions.WithLabelValues(rule, strconv.FormatBool(exclude)).Inc()
}
