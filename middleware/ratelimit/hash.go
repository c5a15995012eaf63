package ratelimit

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// HashKey reduz uma identidade (IP, API key) a um hash curto e estável.
// É o que vai para logs e stats no lugar do valor cru — IP inteiro não
// pode aparecer em nenhum log ou métrica.
func HashKey(key string) string {
	return strconv.FormatUint(xxhash.Sum64String(key), 16)
}
