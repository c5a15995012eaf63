// Package application contém os casos de uso do rate limit
// (decisão allow/deny e admissão por vaga), sem conhecer net/http.
package application
