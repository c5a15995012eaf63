package ratelimit

import (
	"net/http"
	"time"

	"storefront-gateway/middleware/ratelimit/application"
	"storefront-gateway/middleware/ratelimit/infra"
)

type InFlightOptions struct {
	// Max é o teto de requisições simultâneas atravessando o handler.
	// Zero ou negativo desliga o middleware.
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// InFlightMiddleware segura o número de requisições em voo. No storefront
// ele fica na frente do endpoint de pagamento, para o processador externo
// não receber uma rajada maior do que aguenta.
func InFlightMiddleware(opts InFlightOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.AdmissionService{
		Pool:           infra.NewSlotPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				writeError(w, opts.RejectStatus, "overloaded", "too many requests in flight, retry later")
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
