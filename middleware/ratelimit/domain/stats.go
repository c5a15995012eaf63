package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Path são strings
// genéricas e podem ser usadas para web, gRPC, etc.
//
// HashedKey é a identidade JÁ hasheada pelo adapter. Nunca grave IP cru
// em log ou storage de estatística.
type StatsEvent struct {
	HashedKey string
	Allowed   bool

	Method string
	Path   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do rate limit.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// O middleware deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
