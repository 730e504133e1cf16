/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import "github.com/prometheus/client_golang/prometheus"

// ringMetrics Prometheus 指标，仅在 WithMetrics 时创建
type ringMetrics struct {
	writes  prometheus.Counter
	reads   prometheus.Counter
	peeks   prometheus.Counter
	empties prometheus.Counter
	lapped  prometheus.Counter
	lap     prometheus.Gauge
	writeAt prometheus.Gauge
}

func newRingMetrics(reg prometheus.Registerer, name string) (*ringMetrics, error) {
	labels := prometheus.Labels{"ring": name}
	counter := func(n, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "lapring",
			Name:        n,
			Help:        help,
			ConstLabels: labels,
		})
	}
	gauge := func(n, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "lapring",
			Name:        n,
			Help:        help,
			ConstLabels: labels,
		})
	}
	m := &ringMetrics{
		writes:  counter("writes_total", "Total number of committed writes"),
		reads:   counter("reads_total", "Total number of successful reads"),
		peeks:   counter("peeks_total", "Total number of successful peeks"),
		empties: counter("empty_total", "Total number of reads that found no unread data"),
		lapped:  counter("lapped_total", "Total number of reads that found the reader lapped"),
		lap:     gauge("lap", "Number of times the write position has wrapped"),
		writeAt: gauge("write_position", "Current write position"),
	}
	for _, c := range []prometheus.Collector{m.writes, m.reads, m.peeks, m.empties, m.lapped, m.lap, m.writeAt} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ringMetrics) recordWrite(at int, lap uint64) {
	m.writes.Inc()
	m.writeAt.Set(float64(at))
	m.lap.Set(float64(lap))
}
