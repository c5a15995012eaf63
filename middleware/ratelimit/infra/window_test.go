package infra

import (
	"testing"
	"time"

	"storefront-gateway/middleware/ratelimit/domain"
)

func TestWindowStore_AllowsUpToLimitThenBlocks(t *testing.T) {
	s := NewWindowStore(time.Minute, 10, WithCleanupEvery(0))
	defer s.Destroy()

	key := domain.Key("1.2.3.4")
	for i := 1; i <= 10; i++ {
		dec := s.Check(key)
		if !dec.Allowed {
			t.Fatalf("expected call %d to be allowed", i)
		}
		if dec.Remaining != 10-i {
			t.Fatalf("expected remaining=%d after call %d, got %d", 10-i, i, dec.Remaining)
		}
	}

	// 11ª dentro da mesma janela: bloqueia com RetryAfter dentro do intervalo
	dec := s.Check(key)
	if dec.Allowed {
		t.Fatalf("expected call 11 to be blocked")
	}
	if dec.RetryAfter <= 0 || dec.RetryAfter > time.Minute {
		t.Fatalf("expected RetryAfter in (0, 1m], got %s", dec.RetryAfter)
	}
}

func TestWindowStore_WindowExpiryResetsCount(t *testing.T) {
	s := NewWindowStore(20*time.Millisecond, 1, WithCleanupEvery(0))
	defer s.Destroy()

	key := domain.Key("k")
	if dec := s.Check(key); !dec.Allowed {
		t.Fatalf("expected first call to be allowed")
	}
	if dec := s.Check(key); dec.Allowed {
		t.Fatalf("expected second call in same window to be blocked")
	}

	time.Sleep(30 * time.Millisecond)

	dec := s.Check(key)
	if !dec.Allowed {
		t.Fatalf("expected call after window expiry to be allowed")
	}
	if dec.Remaining != 0 {
		// limit=1 e count resetou para 1 => remaining 0
		t.Fatalf("expected remaining=0 in fresh window, got %d", dec.Remaining)
	}
}

func TestWindowStore_KeysAreIndependent(t *testing.T) {
	s := NewWindowStore(time.Minute, 1, WithCleanupEvery(0))
	defer s.Destroy()

	if dec := s.Check(domain.Key("a")); !dec.Allowed {
		t.Fatalf("expected key a to be allowed")
	}
	if dec := s.Check(domain.Key("b")); !dec.Allowed {
		t.Fatalf("expected key b to be allowed")
	}
	if dec := s.Check(domain.Key("a")); dec.Allowed {
		t.Fatalf("expected key a to be blocked")
	}
}

func TestWindowStore_RemainingDoesNotConsume(t *testing.T) {
	s := NewWindowStore(time.Minute, 3, WithCleanupEvery(0))
	defer s.Destroy()

	key := domain.Key("k")
	if got := s.Remaining(key); got != 3 {
		t.Fatalf("expected remaining=3 before any call, got %d", got)
	}

	s.Check(key)
	if got := s.Remaining(key); got != 2 {
		t.Fatalf("expected remaining=2 after one call, got %d", got)
	}
	// Remaining não muda estado
	if got := s.Remaining(key); got != 2 {
		t.Fatalf("expected remaining to stay 2, got %d", got)
	}
}

func TestWindowStore_ResetAfterDecreasesAndNeverNegative(t *testing.T) {
	s := NewWindowStore(50*time.Millisecond, 1, WithCleanupEvery(0))
	defer s.Destroy()

	key := domain.Key("k")
	if got := s.ResetAfter(key); got != 0 {
		t.Fatalf("expected ResetAfter=0 without entry, got %s", got)
	}

	s.Check(key)
	first := s.ResetAfter(key)
	if first <= 0 || first > 50*time.Millisecond {
		t.Fatalf("expected ResetAfter in (0, 50ms], got %s", first)
	}

	time.Sleep(10 * time.Millisecond)
	second := s.ResetAfter(key)
	if second > first {
		t.Fatalf("expected ResetAfter to decrease: first=%s second=%s", first, second)
	}

	time.Sleep(60 * time.Millisecond)
	if got := s.ResetAfter(key); got != 0 {
		t.Fatalf("expected ResetAfter=0 after expiry, got %s", got)
	}
}

func TestWindowStore_EvictsOldestWhenOverCapacity(t *testing.T) {
	s := NewWindowStore(time.Minute, 5, WithMaxTracked(2), WithCleanupEvery(0))
	defer s.Destroy()

	s.Check(domain.Key("old"))
	time.Sleep(2 * time.Millisecond)
	s.Check(domain.Key("mid"))
	time.Sleep(2 * time.Millisecond)
	s.Check(domain.Key("new"))

	if got := s.Len(); got != 2 {
		t.Fatalf("expected 2 tracked identities after eviction, got %d", got)
	}
	// a mais antiga saiu: um novo Check de "old" enxerga janela cheia
	if got := s.Remaining(domain.Key("old")); got != 5 {
		t.Fatalf("expected evicted key to see a fresh window, got remaining=%d", got)
	}
}

func TestWindowStore_CleanupRemovesExpiredWindows(t *testing.T) {
	s := NewWindowStore(5*time.Millisecond, 1, WithCleanupEvery(0))
	defer s.Destroy()

	s.Check(domain.Key("k1"))
	s.Check(domain.Key("k2"))
	time.Sleep(10 * time.Millisecond)

	s.Cleanup()

	if got := s.Len(); got != 0 {
		t.Fatalf("expected all expired windows to be swept, got %d", got)
	}
}

func TestWindowStore_DestroyClearsState(t *testing.T) {
	s := NewWindowStore(time.Minute, 1)
	s.Check(domain.Key("k"))

	s.Destroy()

	if got := s.Len(); got != 0 {
		t.Fatalf("expected empty store after Destroy, got %d", got)
	}
	// Destroy duas vezes não pode entrar em pânico
	s.Destroy()
}
