package infra

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// LocalStore é o fallback em memória do cache: um mapa protegido por
// mutex com expiração por entrada e varredura periódica.
//
// Ele pertence exclusivamente ao serviço de cache do processo — nada
// fora daqui muta as entradas.
type LocalStore struct {
	mu      sync.Mutex
	entries map[string]localEntry

	sweepEvery time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

type localEntry struct {
	data      json.RawMessage
	expiresAt time.Time
}

type LocalOption func(*LocalStore)

// WithSweepEvery ajusta a cadência da varredura. Zero desliga o janitor.
func WithSweepEvery(d time.Duration) LocalOption {
	return func(s *LocalStore) { s.sweepEvery = d }
}

func NewLocalStore(opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		entries:    make(map[string]localEntry),
		sweepEvery: time.Minute,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get devolve o payload se a entrada existe e ainda não venceu.
// Entrada vencida é tratada como miss; quem remove de fato é o Sweep.
func (s *LocalStore) Get(key string) (json.RawMessage, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || !now.Before(ent.expiresAt) {
		return nil, false
	}
	return ent.data, true
}

// Set grava (ou sobrescreve) a entrada com o TTL dado.
func (s *LocalStore) Set(key string, data json.RawMessage, ttl time.Duration) {
	exp := time.Now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = localEntry{data: data, expiresAt: exp}
}

func (s *LocalStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// ClearPrefix remove todas as entradas cuja chave começa com o prefixo
// (namespace + ":"). Devolve quantas saíram.
func (s *LocalStore) ClearPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

func (s *LocalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep remove todas as entradas vencidas, independente de acesso.
func (s *LocalStore) Sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if !now.Before(ent.expiresAt) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor inicia a varredura periódica. Pare cancelando o contexto
// ou chamando Destroy.
func (s *LocalStore) StartJanitor(ctx DoneContext) {
	if s.sweepEvery <= 0 {
		return
	}

	t := time.NewTicker(s.sweepEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}

// Destroy para o janitor e descarta tudo.
func (s *LocalStore) Destroy() {
	s.stopOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]localEntry)
}

// DoneContext é o mínimo necessário para aceitar context.Context sem importar context aqui.
type DoneContext interface {
	Done() <-chan struct{}
}
