// Package ratelimit fornece adapters HTTP (net/http) para rate limit de
// janela fixa e para limite de requisições em voo.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa, pool de vagas, stats), detalhes de infraestrutura
//   - ratelimit (este pacote): middlewares HTTP + wiring/extração de chave + tradução para status/headers
//
// Fluxo no storefront:
//
//  1. Extrai a identidade do cliente (header confiável/XFF/IP)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 com Retry-After (rate limit) ou 503 (em voo)
//  4. Se permitido, chama o próximo handler (ex: endpoint de pagamento)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o
// comportamento, como RATE_INTERVAL, RATE_LIMIT, RATE_MAX_TOKENS e
// MAX_INFLIGHT.
package ratelimit
