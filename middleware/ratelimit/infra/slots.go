package infra

import (
	"context"

	"storefront-gateway/middleware/ratelimit/domain"
)

type slotPool struct {
	sem chan struct{}
}

// NewSlotPool cria um pool simples baseado em channel com capacidade `max`.
// É o que segura o número de cobranças em voo no gateway de pagamento.
func NewSlotPool(max int) domain.SlotPool {
	return &slotPool{sem: make(chan struct{}, max)}
}

func (p *slotPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return func() { <-p.sem }, true
	case <-ctx.Done():
		return nil, false
	}
}
