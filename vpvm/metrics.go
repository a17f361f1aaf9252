// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vpvm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = Name

type metrics struct {
	committed  prometheus.Counter
	rolledBack *prometheus.CounterVec
	verdicts   *prometheus.CounterVec
	gasUsed    prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "txs_committed",
			Help:      "Number of committed transactions",
		}),
		rolledBack: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "txs_rolled_back",
			Help:      "Number of rolled back transactions, by failing status and error kind",
		}, []string{"failed_in", "kind"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vp_verdicts",
			Help:      "Number of validity predicate runs, by outcome",
		}, []string{"accepted"}),
		gasUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "tx_gas_used",
			Help:      "Gas used per transaction, execution and validation combined",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 10),
		}),
	}
}

func (m *metrics) register(r prometheus.Registerer) error {
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.committed),
		r.Register(m.rolledBack),
		r.Register(m.verdicts),
		r.Register(m.gasUsed),
	)
	return errs.Err
}

func (m *metrics) observe(res *Result) {
	m.gasUsed.Observe(float64(res.GasUsed))
	for _, v := range res.Verdicts {
		if v.Accepted {
			m.verdicts.WithLabelValues("true").Inc()
		} else {
			m.verdicts.WithLabelValues("false").Inc()
		}
	}
	if res.Committed() {
		m.committed.Inc()
		return
	}
	m.rolledBack.WithLabelValues(res.FailedIn.String(), res.Kind).Inc()
}
