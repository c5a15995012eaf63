// Package infra contém os adapters do pagamento: o cliente
// form-encoded do processador e o ResultStore sobre o cache em camadas.
package infra
