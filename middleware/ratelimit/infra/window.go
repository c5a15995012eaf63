package infra

import (
	"sync"
	"time"

	"storefront-gateway/middleware/ratelimit/domain"
)

// WindowStore é uma implementação de domain.WindowStore baseada em
// janela fixa por chave, com memória limitada de duas formas:
//
//   - capacidade: ao exceder maxTracked chaves, a entrada com a janela
//     mais antiga é descartada (aproximação de least-recently-active);
//   - janitor: varredura periódica remove janelas já expiradas,
//     independente do volume de requisições.
type WindowStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry

	interval     time.Duration
	limit        int
	maxTracked   int
	cleanupEvery time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

type windowEntry struct {
	count       int
	windowStart time.Time
}

type WindowOption func(*WindowStore)

// WithMaxTracked limita quantas identidades distintas ficam em memória.
func WithMaxTracked(n int) WindowOption {
	return func(s *WindowStore) {
		if n >= 1 {
			s.maxTracked = n
		}
	}
}

// WithCleanupEvery ajusta a cadência do janitor. Zero desliga.
func WithCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

const defaultMaxTracked = 500

// NewWindowStore cria um store de janela fixa.
// interval deve ser > 0 e limit >= 1; valores fora disso caem no default
// (60s / 10), que é o perfil do endpoint de pagamento.
func NewWindowStore(interval time.Duration, limit int, opts ...WindowOption) *WindowStore {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if limit < 1 {
		limit = 10
	}

	s := &WindowStore{
		entries:    make(map[string]*windowEntry),
		interval:   interval,
		limit:      limit,
		maxTracked: defaultMaxTracked,
		done:       make(chan struct{}),
	}
	// cadência padrão: min(2×interval, 60s)
	s.cleanupEvery = 2 * interval
	if s.cleanupEvery > time.Minute {
		s.cleanupEvery = time.Minute
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) Interval() time.Duration { return s.interval }
func (s *WindowStore) Limit() int              { return s.limit }

// Check implementa domain.WindowStore.
func (s *WindowStore) Check(key domain.Key) domain.Decision {
	now := time.Now()
	k := string(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[k]
	if !ok || now.Sub(ent.windowStart) > s.interval {
		// janela nova (ou expirada): contador volta a zero
		ent = &windowEntry{windowStart: now}
		s.entries[k] = ent
	}

	if ent.count >= s.limit {
		retry := ent.windowStart.Add(s.interval).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return domain.Decision{Allowed: false, Remaining: 0, RetryAfter: retry}
	}

	ent.count++
	if len(s.entries) > s.maxTracked {
		s.evictOldestLocked(k)
	}
	return domain.Decision{Allowed: true, Remaining: s.limit - ent.count}
}

// Remaining implementa domain.WindowStore. Não consome vaga: uma janela
// expirada é reportada como cheia de novo (limit), sem gravar nada.
func (s *WindowStore) Remaining(key domain.Key) int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[string(key)]
	if !ok || now.Sub(ent.windowStart) > s.interval {
		return s.limit
	}
	if ent.count >= s.limit {
		return 0
	}
	return s.limit - ent.count
}

// ResetAfter implementa domain.WindowStore.
func (s *WindowStore) ResetAfter(key domain.Key) time.Duration {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[string(key)]
	if !ok {
		return 0
	}
	d := ent.windowStart.Add(s.interval).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// evictOldestLocked descarta a entrada com windowStart mais antigo,
// poupando a chave que acabou de ser tocada. Chamar com s.mu travado.
func (s *WindowStore) evictOldestLocked(keep string) {
	var oldestKey string
	var oldest time.Time
	for k, ent := range s.entries {
		if k == keep {
			continue
		}
		if oldestKey == "" || ent.windowStart.Before(oldest) {
			oldestKey = k
			oldest = ent.windowStart
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

// Cleanup remove todas as janelas já expiradas.
func (s *WindowStore) Cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if now.Sub(ent.windowStart) > s.interval {
			delete(s.entries, k)
		}
	}
}

// Len informa quantas identidades estão sendo rastreadas (para testes/stats).
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor inicia uma goroutine que remove janelas expiradas
// periodicamente. Pare cancelando o contexto ou chamando Destroy.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// Destroy para o janitor e zera o estado. Usado em shutdown e testes.
func (s *WindowStore) Destroy() {
	s.stopOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*windowEntry)
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
type DoneContext interface {
	Done() <-chan struct{}
}
