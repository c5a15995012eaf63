package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DefaultNamespace prefixa toda chave que não pede um namespace próprio.
const DefaultNamespace = "app:cache"

// FormatKey monta a chave final como namespace + ":" + chave crua.
// Namespace vazio cai no DefaultNamespace.
func FormatKey(namespace, raw string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":" + raw
}

// Entry é o envelope gravado no store remoto. O payload vai serializado
// em Data; StoredAt/ExpiresAt são epoch em milissegundos.
//
// O Redis já expira a chave sozinho (TTL nativo), mas o ExpiresAt do
// envelope é validado de novo na leitura: se alguém popular o store sem
// TTL nativo, a entrada velha ainda é tratada como miss.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	StoredAt  int64           `json:"storedAt"`
	ExpiresAt int64           `json:"expiresAt"`
}

// NewEntry monta o envelope de uma escrita feita agora.
func NewEntry(data json.RawMessage, now time.Time, ttl time.Duration) Entry {
	return Entry{
		Data:      data,
		StoredAt:  now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}
}

// Expired informa se o envelope já venceu no instante dado.
func (e Entry) Expired(now time.Time) bool {
	return now.UnixMilli() >= e.ExpiresAt
}

// ErrNotFound é o miss do store remoto. Não é falha: só diz que a chave
// não está lá. Qualquer outro erro derruba a disponibilidade do remoto.
var ErrNotFound = errors.New("cache: key not found")

// RemoteStore é a superfície mínima que o serviço consome do store
// compartilhado. Qualquer key-value com TTL nativo satisfaz.
//
// Contrato de erro: Get devolve ErrNotFound em miss; os demais erros de
// qualquer método significam "remoto indisponível" para o serviço.
type RemoteStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
	Info(ctx context.Context, section string) (string, error)
}

// Stats é a fotografia de introspecção do serviço.
type Stats struct {
	RemoteAvailable bool `json:"remoteAvailable"`
	LocalSize       int  `json:"localSize"`
	// RemoteSize é best-effort (parse do INFO keyspace); nil quando o
	// remoto está fora ou o parse falhou.
	RemoteSize *int64 `json:"remoteSize,omitempty"`
}
