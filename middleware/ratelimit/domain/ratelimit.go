package domain

// Camada de domínio do rate limit.
//
// O algoritmo aqui é janela fixa: cada identidade tem um contador e o
// início da janela corrente. Quando a janela expira, o contador volta a
// zero. É uma aproximação aceitável de sliding window para proteger
// endpoints sensíveis (ex: pagamento).

import (
	"fmt"
	"time"
)

// Key identifica quem está sendo limitado (ex: IP, API key, usuário).
type Key string

// Decision é o resultado de uma checagem de rate limit.
type Decision struct {
	Allowed bool
	// Remaining é quantas requisições ainda cabem na janela corrente.
	Remaining int
	// RetryAfter é quanto falta para a janela resetar. Só é relevante
	// quando Allowed=false; quando permitido, é 0.
	RetryAfter time.Duration
}

// WindowStore mantém o estado de janela por chave.
//
// A implementação deve garantir que Check (ler-e-incrementar) seja
// atômico por instância: duas requisições concorrentes da mesma chave
// nunca podem observar o mesmo contador.
type WindowStore interface {
	// Check consome uma vaga da janela corrente da chave (criando/
	// resetando a janela se necessário) e devolve a decisão.
	Check(Key) Decision
	// Remaining informa quantas vagas restam sem consumir nenhuma.
	Remaining(Key) int
	// ResetAfter informa quanto falta para a janela da chave resetar.
	// Zero quando não há janela ativa.
	ResetAfter(Key) time.Duration
}

// LimitError representa o estouro de limite para chamadores que usam o
// limiter fora do middleware HTTP (ex: camada de aplicação do checkout).
type LimitError struct {
	// ResetAfter é quanto o cliente deve esperar antes de tentar de novo.
	ResetAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.ResetAfter)
}
