// Package domain contém o modelo de cobrança do checkout e a taxonomia
// de erros que o endpoint traduz para HTTP.
package domain
