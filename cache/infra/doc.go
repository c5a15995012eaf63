// Package infra contém os stores concretos do cache: o mapa local com
// TTL e janitor, e o adapter go-redis do store remoto.
package infra
