package application

import (
	"storefront-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.WindowStore
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	return s.Store.Check(key)
}

// Err converte uma decisão negada em domain.LimitError, para chamadores
// que preferem o fluxo de erro (ex: camada de aplicação do pagamento).
func Err(dec domain.Decision) error {
	if dec.Allowed {
		return nil
	}
	return &domain.LimitError{ResetAfter: dec.RetryAfter}
}
