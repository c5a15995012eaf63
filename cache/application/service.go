package application

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"strconv"
	"sync"
	"time"

	"storefront-gateway/cache/domain"
	"storefront-gateway/cache/infra"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Service é o cache em duas camadas do storefront.
//
// Política de leitura: tenta o remoto enquanto ele é considerado
// disponível; qualquer erro remoto (que não seja miss) derruba a flag e
// a operação segue para o store local. A flag só volta para true via
// sonda explícita (Ping), nunca por uma escrita oportunista — isso evita
// ficar pingue-pongueando entre stores no meio de uma operação.
//
// A sonda é limitada por um rate.Limiter: com o Redis fora, no máximo
// uma requisição por intervalo paga o custo do Ping; as demais vão
// direto para o local.
type Service struct {
	remote domain.RemoteStore
	local  *infra.LocalStore

	defaultTTL   time.Duration
	probeTimeout time.Duration

	mu        sync.Mutex
	available bool
	probe     *rate.Limiter

	sf singleflight.Group
}

type Option func(*Service)

// WithDefaultTTL troca o TTL aplicado quando a chamada não traz um.
func WithDefaultTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultTTL = d
		}
	}
}

// WithLocalStore injeta o store local. Passar nil desliga o fallback:
// com o remoto fora, get vira miss e set devolve false.
func WithLocalStore(ls *infra.LocalStore) Option {
	return func(s *Service) { s.local = ls }
}

// WithProbeEvery ajusta o intervalo mínimo entre sondas de recuperação.
func WithProbeEvery(d time.Duration) Option {
	return func(s *Service) { s.probe = rate.NewLimiter(rate.Every(d), 1) }
}

// WithProbeTimeout ajusta o deadline do Ping de sonda.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

const (
	defaultTTL          = time.Hour
	defaultProbeEvery   = 5 * time.Second
	defaultProbeTimeout = time.Second
)

// New cria o serviço. remote pode ser nil (modo só-local, útil em dev).
func New(remote domain.RemoteStore, opts ...Option) *Service {
	s := &Service{
		remote:       remote,
		local:        infra.NewLocalStore(),
		defaultTTL:   defaultTTL,
		probeTimeout: defaultProbeTimeout,
		probe:        rate.NewLimiter(rate.Every(defaultProbeEvery), 1),
		available:    remote != nil,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CallOption parametriza uma chamada individual (TTL, namespace).
type CallOption func(*callOptions)

type callOptions struct {
	ttl       time.Duration
	namespace string
}

// WithTTL define o TTL desta escrita.
func WithTTL(d time.Duration) CallOption {
	return func(o *callOptions) { o.ttl = d }
}

// WithNamespace agrupa a chave sob outro namespace (para Clear em bloco).
func WithNamespace(ns string) CallOption {
	return func(o *callOptions) { o.namespace = ns }
}

func (s *Service) callOptions(opts []CallOption) callOptions {
	o := callOptions{ttl: s.defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = s.defaultTTL
	}
	return o
}

// Get busca a chave e desserializa em dest. Devolve false em miss —
// inclusive quando remoto e local estão ambos indisponíveis.
func (s *Service) Get(ctx context.Context, rawKey string, dest any, opts ...CallOption) bool {
	o := s.callOptions(opts)
	key := domain.FormatKey(o.namespace, rawKey)

	if s.remoteUsable(ctx) {
		raw, err := s.remote.Get(ctx, key)
		switch {
		case err == nil:
			var env domain.Entry
			if json.Unmarshal([]byte(raw), &env) == nil {
				if env.Expired(time.Now()) {
					// remoto sem TTL nativo configurado: o envelope manda
					if _, delErr := s.remote.Del(ctx, key); delErr != nil {
						s.markUnavailable(delErr)
					}
				} else if json.Unmarshal(env.Data, dest) == nil {
					return true
				}
			}
			// envelope corrompido: trata como miss
		case errors.Is(err, domain.ErrNotFound):
			// miss remoto não é falha; só cai para o local
		default:
			s.markUnavailable(err)
		}
	}

	if s.local != nil {
		if data, ok := s.local.Get(key); ok {
			return json.Unmarshal(data, dest) == nil
		}
	}
	return false
}

// Set serializa v e grava. Devolve true se pelo menos um dos caminhos
// (remoto ou local) aceitou a escrita.
func (s *Service) Set(ctx context.Context, rawKey string, v any, opts ...CallOption) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: set %q: payload not serializable: %v", rawKey, err)
		return false
	}

	o := s.callOptions(opts)
	key := domain.FormatKey(o.namespace, rawKey)

	ok := false
	if s.remoteUsable(ctx) {
		env := domain.NewEntry(data, time.Now(), o.ttl)
		payload, _ := json.Marshal(env)
		if err := s.remote.Set(ctx, key, string(payload), o.ttl); err != nil {
			s.markUnavailable(err)
		} else {
			ok = true
		}
	}

	// o local recebe a escrita mesmo com o remoto saudável: é ele que
	// segura a leitura se o remoto cair logo depois
	if s.local != nil {
		s.local.Set(key, data, o.ttl)
		ok = true
	}
	return ok
}

// Delete remove a chave dos dois stores. Devolve true quando a operação
// como um todo não falhou (remoto ok, remoto já sabidamente fora, ou
// sem remoto).
func (s *Service) Delete(ctx context.Context, rawKey string, opts ...CallOption) bool {
	o := s.callOptions(opts)
	key := domain.FormatKey(o.namespace, rawKey)

	ok := true
	if s.remote != nil && s.isAvailable() {
		if _, err := s.remote.Del(ctx, key); err != nil {
			s.markUnavailable(err)
			ok = false
		}
	}
	if s.local != nil {
		s.local.Delete(key)
	}
	return ok
}

// Clear despeja o namespace inteiro: no remoto via pattern namespace:*,
// no local por prefixo. Namespace vazio é o default.
func (s *Service) Clear(ctx context.Context, namespace string) bool {
	if namespace == "" {
		namespace = domain.DefaultNamespace
	}

	ok := true
	if s.remote != nil && s.isAvailable() {
		keys, err := s.remote.Keys(ctx, namespace+":*")
		if err != nil {
			s.markUnavailable(err)
			ok = false
		} else if len(keys) > 0 {
			if _, err := s.remote.Del(ctx, keys...); err != nil {
				s.markUnavailable(err)
				ok = false
			}
		}
	}
	if s.local != nil {
		s.local.ClearPrefix(namespace + ":")
	}
	return ok
}

// GetOrLoad devolve a chave do cache ou executa o loader uma única vez
// (voos concorrentes da mesma chave compartilham a execução) e grava o
// resultado com o TTL da chamada.
func (s *Service) GetOrLoad(ctx context.Context, rawKey string, dest any, loader func(ctx context.Context) (any, error), opts ...CallOption) error {
	if s.Get(ctx, rawKey, dest, opts...) {
		return nil
	}

	o := s.callOptions(opts)
	key := domain.FormatKey(o.namespace, rawKey)

	v, err, _ := s.sf.Do(key, func() (any, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, rawKey, v, opts...)
		return v, nil
	})
	if err != nil {
		return err
	}

	// mesma moeda de serialização do cache
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

var keyspaceKeys = regexp.MustCompile(`keys=(\d+)`)

// Stats tira a fotografia de introspecção do serviço.
func (s *Service) Stats(ctx context.Context) domain.Stats {
	st := domain.Stats{RemoteAvailable: s.remote != nil && s.isAvailable()}
	if s.local != nil {
		st.LocalSize = s.local.Len()
	}

	if st.RemoteAvailable {
		info, err := s.remote.Info(ctx, "keyspace")
		if err != nil {
			s.markUnavailable(err)
			st.RemoteAvailable = false
			return st
		}
		var total int64
		found := false
		for _, m := range keyspaceKeys.FindAllStringSubmatch(info, -1) {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				total += n
				found = true
			}
		}
		if found {
			st.RemoteSize = &total
		}
	}
	return st
}

// StartJanitor liga a varredura do store local.
func (s *Service) StartJanitor(ctx infra.DoneContext) {
	if s.local != nil {
		s.local.StartJanitor(ctx)
	}
}

// Destroy encerra o serviço (janitor + estado local).
func (s *Service) Destroy() {
	if s.local != nil {
		s.local.Destroy()
	}
}

func (s *Service) isAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available
}

func (s *Service) markUnavailable(err error) {
	s.mu.Lock()
	was := s.available
	s.available = false
	s.mu.Unlock()

	if was {
		log.Printf("cache: remote store degraded, falling back to local: %v", err)
	}
}

// remoteUsable decide se esta operação pode falar com o remoto. Com a
// flag em false, no máximo uma chamada por intervalo de sonda paga um
// Ping curto; as demais vão direto para o fallback.
func (s *Service) remoteUsable(ctx context.Context) bool {
	if s.remote == nil {
		return false
	}
	if s.isAvailable() {
		return true
	}
	if !s.probe.Allow() {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()
	if err := s.remote.Ping(probeCtx); err != nil {
		return false
	}

	s.mu.Lock()
	s.available = true
	s.mu.Unlock()
	log.Printf("cache: remote store recovered")
	return true
}
