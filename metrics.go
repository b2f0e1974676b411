/*
 * metrics.go, part of gobasis.
 *
 * Copyright 2026 The gobasis Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package basis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts the records seen by Storage.Update.
type Metrics struct {
	Records *prometheus.CounterVec
	Updates *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them in reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gobasis_records_total",
			Help: "Records given to a storage, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Updates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gobasis_updates_total",
			Help: "Calls to Update, by kind.",
		}, []string{"kind"}),
	}
}

func (M *Metrics) observe(kind string, s Stats) {
	if M == nil {
		return
	}
	M.Updates.WithLabelValues(kind).Inc()
	M.Records.WithLabelValues(kind, "parsed").Add(float64(s.Parsed))
	M.Records.WithLabelValues(kind, "unavailable").Add(float64(s.Unavailable))
	M.Records.WithLabelValues(kind, "dropped").Add(float64(s.Dropped))
	M.Records.WithLabelValues(kind, "inserted").Add(float64(s.Inserted))
}
