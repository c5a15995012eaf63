// Package domain contém os contratos do cache em camadas,
// sem dependência de go-redis ou de serialização concreta do chamador.
package domain
