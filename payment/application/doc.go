// Package application contém o caso de uso de cobrança: validação,
// idempotência por pedido e exatamente uma tentativa no processador.
package application
