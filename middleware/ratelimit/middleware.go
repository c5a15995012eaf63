package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"storefront-gateway/middleware/ratelimit/application"
	"storefront-gateway/middleware/ratelimit/domain"
)

type KeyFunc func(r *http.Request) string

type Options struct {
	Store domain.WindowStore
	Stats domain.StatsStore
	KeyFn KeyFunc
	// KeyHeader é o header de proxy confiável (ex: CF-Connecting-IP).
	// Tem precedência sobre X-Forwarded-For.
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	AddRateLimitHeaders bool
}

// limitInfo é o que o store precisa expor para preencher o header
// X-RateLimit-Limit. O WindowStore de infra satisfaz.
type limitInfo interface {
	Limit() int
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if len(parts) > 0 {
					ip := strings.TrimSpace(parts[0])
					if ip != "" {
						return ip
					}
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	svc := application.Service{Store: opts.Store}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			dec := svc.Decide(domain.Key(key))

			if opts.AddRateLimitHeaders {
				// identidade sai só hasheada, nunca o IP cru
				w.Header().Set("X-RateLimit-Key", HashKey(key))
				if li, ok := opts.Store.(limitInfo); ok {
					w.Header().Set("X-RateLimit-Limit", formatInt(li.Limit()))
				}
				w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
			}

			if opts.Stats != nil {
				_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
					HashedKey: HashKey(key),
					Allowed:   dec.Allowed,
					Method:    r.Method,
					Path:      r.URL.Path,
					At:        time.Now(),
				})
			}

			if !dec.Allowed {
				w.Header().Set("Retry-After", retryAfterSeconds(dec.RetryAfter))
				writeError(w, opts.RejectStatus, "rate_limited", "too many requests, retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
