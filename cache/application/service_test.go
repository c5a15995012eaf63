package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront-gateway/cache/domain"
)

// fakeRemote simula o store compartilhado: um mapa com uma chave de
// falha geral. Ignora TTL nativo de propósito — é assim que o teste do
// envelope defensivo força uma entrada vencida a continuar no remoto.
type fakeRemote struct {
	mu      sync.Mutex
	data    map[string]string
	fail    bool
	pingErr bool
	gets    int
}

var errRemoteDown = errors.New("connection refused")

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string]string)}
}

func (f *fakeRemote) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
	f.pingErr = fail
}

func (f *fakeRemote) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.fail {
		return "", errRemoteDown
	}
	v, ok := f.data[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (f *fakeRemote) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errRemoteDown
	}
	f.data[key] = value
	return nil
}

func (f *fakeRemote) Del(_ context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errRemoteDown
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRemote) Keys(_ context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errRemoteDown
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeRemote) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pingErr {
		return errRemoteDown
	}
	return nil
}

func (f *fakeRemote) Info(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errRemoteDown
	}
	return fmt.Sprintf("# Keyspace\r\ndb0:keys=%d,expires=0,avg_ttl=0\r\n", len(f.data)), nil
}

func (f *fakeRemote) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeRemote) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

type product struct {
	Name string `json:"name"`
}

func TestService_SetGetRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote)
	defer svc.Destroy()
	ctx := context.Background()

	if !svc.Set(ctx, "product:abc", product{Name: "Knife"}) {
		t.Fatalf("expected set to succeed")
	}
	// chave final = namespace default + ":" + chave crua
	if !remote.has("app:cache:product:abc") {
		t.Fatalf("expected remote write under app:cache:product:abc")
	}

	var got product
	if !svc.Get(ctx, "product:abc", &got) {
		t.Fatalf("expected hit")
	}
	if got.Name != "Knife" {
		t.Fatalf("expected Knife, got %q", got.Name)
	}
}

func TestService_EnvelopeExpiryEnforcedOnRemoteRead(t *testing.T) {
	// sem fallback local, para isolar o caminho remoto
	remote := newFakeRemote()
	svc := New(remote, WithLocalStore(nil))
	defer svc.Destroy()
	ctx := context.Background()

	svc.Set(ctx, "k", 1, WithTTL(5*time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	// o fake ignora TTL nativo: a entrada ainda está lá, mas o envelope
	// venceu e a leitura tem que tratar como miss
	var got int
	if svc.Get(ctx, "k", &got) {
		t.Fatalf("expected expired envelope to be a miss")
	}
	if remote.has("app:cache:k") {
		t.Fatalf("expected defensive delete of the expired entry")
	}
}

func TestService_LocalExpiry(t *testing.T) {
	svc := New(nil) // só local
	defer svc.Destroy()
	ctx := context.Background()

	svc.Set(ctx, "k", product{Name: "Knife"}, WithTTL(5*time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	var got product
	if svc.Get(ctx, "k", &got) {
		t.Fatalf("expected miss after TTL")
	}
}

func TestService_DegradesToLocalWhenRemoteFails(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote, WithProbeEvery(time.Hour))
	defer svc.Destroy()
	ctx := context.Background()

	remote.setFail(true)

	if !svc.Set(ctx, "k", product{Name: "Knife"}) {
		t.Fatalf("expected set to succeed via local fallback")
	}
	var got product
	if !svc.Get(ctx, "k", &got) || got.Name != "Knife" {
		t.Fatalf("expected hit via local fallback, got %+v", got)
	}

	if st := svc.Stats(ctx); st.RemoteAvailable {
		t.Fatalf("expected remoteAvailable=false after failure")
	}
}

func TestService_UnavailableRemoteIsNotHammered(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote, WithProbeEvery(time.Hour))
	defer svc.Destroy()
	ctx := context.Background()

	remote.setFail(true)
	var got int
	svc.Get(ctx, "k", &got) // derruba a flag

	before := remote.getCount()
	for i := 0; i < 20; i++ {
		svc.Get(ctx, "k", &got)
	}
	// flag em false + sonda de 1h: nenhuma das 20 chamadas toca o remoto
	if after := remote.getCount(); after != before {
		t.Fatalf("expected no remote calls while degraded, got %d extra", after-before)
	}
}

func TestService_RecoversViaProbe(t *testing.T) {
	remote := newFakeRemote()
	// sonda sempre liberada: qualquer operação pode tentar o Ping
	svc := New(remote, WithProbeEvery(0))
	defer svc.Destroy()
	ctx := context.Background()

	remote.setFail(true)
	var got int
	svc.Get(ctx, "k", &got) // degrada

	remote.setFail(false)

	if !svc.Set(ctx, "k2", 2) {
		t.Fatalf("expected set to succeed")
	}
	if !remote.has("app:cache:k2") {
		t.Fatalf("expected write to reach the recovered remote")
	}
	if st := svc.Stats(ctx); !st.RemoteAvailable {
		t.Fatalf("expected remoteAvailable=true after probe recovery")
	}
}

func TestService_NamespaceIsolationAndClear(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote)
	defer svc.Destroy()
	ctx := context.Background()

	svc.Set(ctx, "a", 1, WithNamespace("ns1"))
	svc.Set(ctx, "a", 2, WithNamespace("ns2"))

	var v1, v2 int
	if !svc.Get(ctx, "a", &v1, WithNamespace("ns1")) || v1 != 1 {
		t.Fatalf("expected ns1:a=1, got %d", v1)
	}
	if !svc.Get(ctx, "a", &v2, WithNamespace("ns2")) || v2 != 2 {
		t.Fatalf("expected ns2:a=2, got %d", v2)
	}

	if !svc.Clear(ctx, "ns1") {
		t.Fatalf("expected clear to succeed")
	}
	if svc.Get(ctx, "a", &v1, WithNamespace("ns1")) {
		t.Fatalf("expected ns1:a to be gone after clear")
	}
	if !svc.Get(ctx, "a", &v2, WithNamespace("ns2")) {
		t.Fatalf("expected ns2:a to survive clear of ns1")
	}
}

func TestService_ClearDefaultNamespaceLeavesOthers(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote)
	defer svc.Destroy()
	ctx := context.Background()

	svc.Set(ctx, "k1", 1)
	svc.Set(ctx, "k2", 2)
	svc.Set(ctx, "k3", 3)
	svc.Set(ctx, "other", 4, WithNamespace("payments"))

	svc.Clear(ctx, "app:cache")

	var v int
	for _, k := range []string{"k1", "k2", "k3"} {
		if svc.Get(ctx, k, &v) {
			t.Fatalf("expected %s to be cleared", k)
		}
	}
	if !svc.Get(ctx, "other", &v, WithNamespace("payments")) || v != 4 {
		t.Fatalf("expected payments:other to survive, got %d", v)
	}
}

func TestService_DeleteSemantics(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote, WithProbeEvery(time.Hour))
	defer svc.Destroy()
	ctx := context.Background()

	svc.Set(ctx, "k", 1)
	if !svc.Delete(ctx, "k") {
		t.Fatalf("expected delete to succeed with healthy remote")
	}
	var v int
	if svc.Get(ctx, "k", &v) {
		t.Fatalf("expected miss after delete")
	}

	svc.Set(ctx, "k2", 2)
	remote.setFail(true)

	// primeira falha remota: a operação reporta falha e degrada
	if svc.Delete(ctx, "k2") {
		t.Fatalf("expected delete to report failure on remote error")
	}
	// remoto já sabidamente fora: delete é local e não-falho
	if !svc.Delete(ctx, "k2") {
		t.Fatalf("expected delete to succeed while remote is known-unavailable")
	}
}

func TestService_StatsParsesRemoteKeyCount(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote)
	defer svc.Destroy()
	ctx := context.Background()

	svc.Set(ctx, "k1", 1)
	svc.Set(ctx, "k2", 2)

	st := svc.Stats(ctx)
	if !st.RemoteAvailable {
		t.Fatalf("expected remoteAvailable=true")
	}
	if st.LocalSize != 2 {
		t.Fatalf("expected localSize=2, got %d", st.LocalSize)
	}
	if st.RemoteSize == nil || *st.RemoteSize != 2 {
		t.Fatalf("expected remoteSize=2, got %v", st.RemoteSize)
	}
}

func TestService_GetOrLoadCachesLoaderResult(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote)
	defer svc.Destroy()
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return product{Name: "Knife"}, nil
	}

	var got product
	if err := svc.GetOrLoad(ctx, "product:abc", &got, loader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Knife" {
		t.Fatalf("expected loaded value, got %+v", got)
	}

	if err := svc.GetOrLoad(ctx, "product:abc", &got, loader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loads != 1 {
		t.Fatalf("expected loader to run once, ran %d times", loads)
	}
}

func TestService_GetOrLoadPropagatesLoaderError(t *testing.T) {
	svc := New(nil)
	defer svc.Destroy()

	wantErr := errors.New("origin down")
	var got product
	err := svc.GetOrLoad(context.Background(), "k", &got, func(context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestService_NoFallbackAndRemoteDownMeansFailure(t *testing.T) {
	remote := newFakeRemote()
	svc := New(remote, WithLocalStore(nil), WithProbeEvery(time.Hour))
	defer svc.Destroy()
	ctx := context.Background()

	remote.setFail(true)

	if svc.Set(ctx, "k", 1) {
		t.Fatalf("expected set=false with remote down and no fallback")
	}
	var v int
	if svc.Get(ctx, "k", &v) {
		t.Fatalf("expected miss with remote down and no fallback")
	}
}
