// Package application contém o serviço de cache em camadas: a política
// remoto-primeiro com fallback local e a máquina de estado de
// disponibilidade do store remoto.
package application
