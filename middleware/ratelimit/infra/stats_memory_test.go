package infra

import (
	"context"
	"testing"

	"storefront-gateway/middleware/ratelimit/domain"
)

func TestMemoryStatsStore_CountsByOutcomeAndRoute(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{HashedKey: "h1", Allowed: true, Method: "POST", Path: "/v1/payments"})
	_ = s.Record(ctx, domain.StatsEvent{HashedKey: "h1", Allowed: true, Method: "POST", Path: "/v1/payments"})
	_ = s.Record(ctx, domain.StatsEvent{HashedKey: "h2", Allowed: false, Method: "POST", Path: "/v1/payments"})

	total := s.Total()
	if total.Allowed != 2 || total.Denied != 1 {
		t.Fatalf("unexpected totals: %+v", total)
	}

	route := s.ByRoute()["POST /v1/payments"]
	if route.Allowed != 2 || route.Denied != 1 {
		t.Fatalf("unexpected route counters: %+v", route)
	}

	if got := s.ByKey()["h1"]; got.Allowed != 2 {
		t.Fatalf("unexpected key counters for h1: %+v", got)
	}
	if got := s.ByKey()["h2"]; got.Denied != 1 {
		t.Fatalf("unexpected key counters for h2: %+v", got)
	}
}

func TestMemoryStatsStore_KeysNotTrackedByDefault(t *testing.T) {
	s := NewMemoryStatsStore()

	_ = s.Record(context.Background(), domain.StatsEvent{HashedKey: "h1", Allowed: true})

	if got := len(s.ByKey()); got != 0 {
		t.Fatalf("expected no per-key tracking by default, got %d", got)
	}
}
