// Package infra contém as implementações concretas do rate limit:
// store de janela fixa em memória, pool de vagas e stores de estatística.
package infra
