package infra

import (
	"context"
	"encoding/json"
	"time"

	cacheapp "storefront-gateway/cache/application"
	"storefront-gateway/payment/domain"
	"storefront-gateway/secure"
)

// resultsNamespace agrupa os desfechos de cobrança para eviction em
// bloco (cache.Clear("payments")).
const resultsNamespace = "payments"

// ChargeResultCache é o ResultStore do checkout sobre o cache em
// camadas. Best-effort por natureza: miss aqui só significa que o
// pedido vai ao processador de novo.
//
// Com Key configurada, o desfecho vai cifrado para o cache — o Redis é
// compartilhado com outras cargas e não deve enxergar dados de cobrança
// em claro.
type ChargeResultCache struct {
	Cache *cacheapp.Service
	TTL   time.Duration
	Key   []byte
}

func (c *ChargeResultCache) Lookup(ctx context.Context, orderID string) (domain.ChargeResult, bool) {
	var res domain.ChargeResult

	if len(c.Key) == 0 {
		ok := c.Cache.Get(ctx, "order:"+orderID, &res, cacheapp.WithNamespace(resultsNamespace))
		return res, ok
	}

	var sealed string
	if !c.Cache.Get(ctx, "order:"+orderID, &sealed, cacheapp.WithNamespace(resultsNamespace)) {
		return domain.ChargeResult{}, false
	}
	plain, err := secure.Decrypt(c.Key, sealed)
	if err != nil {
		return domain.ChargeResult{}, false
	}
	if json.Unmarshal([]byte(plain), &res) != nil {
		return domain.ChargeResult{}, false
	}
	return res, true
}

func (c *ChargeResultCache) Save(ctx context.Context, orderID string, res domain.ChargeResult) {
	opts := []cacheapp.CallOption{cacheapp.WithNamespace(resultsNamespace)}
	if c.TTL > 0 {
		opts = append(opts, cacheapp.WithTTL(c.TTL))
	}

	if len(c.Key) == 0 {
		c.Cache.Set(ctx, "order:"+orderID, res, opts...)
		return
	}

	plain, err := json.Marshal(res)
	if err != nil {
		return
	}
	sealed, err := secure.Encrypt(c.Key, string(plain))
	if err != nil {
		return
	}
	c.Cache.Set(ctx, "order:"+orderID, sealed, opts...)
}
