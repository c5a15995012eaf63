// Package domain contém as regras e contratos do rate limit,
// sem dependência de net/http ou de storage concreto.
package domain
