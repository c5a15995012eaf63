package infra

import (
	"context"

	"storefront-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore expõe as decisões do rate limit como contadores
// Prometheus, para quem prefere scraping a consultar o Redis.
//
// Identidade não vira label de propósito: cardinalidade de IP hasheado
// explodiria a série. Só outcome e rota.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer) (*PrometheusStatsStore, error) {
	s := &PrometheusStatsStore{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limit decisions, partitioned by outcome and route.",
		}, []string{"outcome", "route"}),
	}
	if err := reg.Register(s.decisions); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	outcome := "denied"
	if ev.Allowed {
		outcome = "allowed"
	}
	s.decisions.WithLabelValues(outcome, ev.Method+" "+ev.Path).Inc()
	return nil
}
