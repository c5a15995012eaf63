// Package cache (e seus subpacotes) implementa o cache em duas camadas
// do storefront: Redis compartilhado na frente, mapa local do processo
// como fallback transparente quando o Redis cai.
//
// Camadas, no mesmo espírito de middleware/ratelimit:
//
//   - domain: envelope de entrada, contrato do store remoto, stats
//   - application: o serviço em camadas (get/set/delete/clear, máquina
//     de estado de disponibilidade, sondas de recuperação, GetOrLoad)
//   - infra: store local com TTL + adapter go-redis
//
// O cache é assumidamente advisory: um miss sempre pode ser resolvido
// recomputando na origem. Por isso nenhum erro do Redis sobe para o
// chamador — erro vira transição para modo degradado.
package cache
