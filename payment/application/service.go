package application

import (
	"context"
	"strings"

	"storefront-gateway/payment/domain"
)

// Gateway é o processador externo. Uma chamada = uma tentativa; retry é
// problema do cliente, nunca daqui.
type Gateway interface {
	Sale(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error)
}

// ResultStore guarda o desfecho de pedidos já cobrados, para replay
// idempotente quando o mesmo orderId chega de novo.
type ResultStore interface {
	Lookup(ctx context.Context, orderID string) (domain.ChargeResult, bool)
	Save(ctx context.Context, orderID string, res domain.ChargeResult)
}

// Service concentra o caso de uso de cobrança. Não sabe nada de HTTP.
type Service struct {
	Gateway Gateway
	Results ResultStore
}

// Charge valida, resolve idempotência e submete a venda.
//
// Erros possíveis: *domain.ValidationError, *domain.DeclinedError,
// *domain.GatewayError.
func (s Service) Charge(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error) {
	req = normalize(req)

	if err := Validate(req); err != nil {
		return domain.ChargeResult{}, err
	}

	// replay: pedido já aprovado devolve o mesmo resultado sem nova
	// tentativa no processador
	if req.OrderID != "" && s.Results != nil {
		if res, ok := s.Results.Lookup(ctx, req.OrderID); ok {
			return res, nil
		}
	}

	res, err := s.Gateway.Sale(ctx, req)
	if err != nil {
		return domain.ChargeResult{}, err
	}

	if res.Approved && req.OrderID != "" && s.Results != nil {
		s.Results.Save(ctx, req.OrderID, res)
	}
	return res, nil
}

func normalize(req domain.ChargeRequest) domain.ChargeRequest {
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.PaymentToken = strings.TrimSpace(req.PaymentToken)
	req.Email = strings.TrimSpace(req.Email)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = "USD"
	}
	return req
}
