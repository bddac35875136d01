package dewiktionary

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes import progress as prometheus counters.
//
// A nil *Metrics is valid and counts nothing.
type Metrics struct {
	Pages       prometheus.Counter
	Declensions prometheus.Counter
	Malformed   prometheus.Counter
}

// NewMetrics creates the import counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dewiktionary",
			Name:      "pages_total",
			Help:      "Pages read from the dump.",
		}),
		Declensions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dewiktionary",
			Name:      "declensions_total",
			Help:      "Declension tables stored.",
		}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dewiktionary",
			Name:      "malformed_total",
			Help:      "Pages with a declension template that could not be read.",
		}),
	}
	reg.MustRegister(m.Pages, m.Declensions, m.Malformed)
	return m
}

func (m *Metrics) page() {
	if m != nil {
		m.Pages.Inc()
	}
}

func (m *Metrics) matched() {
	if m != nil {
		m.Declensions.Inc()
	}
}

func (m *Metrics) malformed() {
	if m != nil {
		m.Malformed.Inc()
	}
}
