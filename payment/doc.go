// Package payment expõe o endpoint HTTP de cobrança do storefront e a
// tradução da taxonomia de erros para status/JSON:
//
//   - validação          → 400 {"error":{"code":"validation",...}}
//   - recusa do emissor  → 400 {"error":{"code":"gateway_declined",...}}
//   - processador fora   → 502 {"error":{"code":"gateway_error",...}}
//
// Rate limit (429) e teto de requisições em voo (503) ficam nos
// middlewares de middleware/ratelimit, encadeados em cmd/gateway.
package payment
