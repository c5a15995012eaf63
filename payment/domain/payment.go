package domain

import "fmt"

// ChargeRequest é uma venda (sale) a ser submetida ao processador.
// PaymentToken vem do iframe/SDK do processador — número de cartão cru
// nunca passa por aqui.
type ChargeRequest struct {
	OrderID     string  `json:"orderId"`
	Description string  `json:"orderDescription"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`

	PaymentToken string `json:"paymentToken"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// ChargeResult é a resposta normalizada do processador.
type ChargeResult struct {
	Approved      bool   `json:"approved"`
	TransactionID string `json:"transactionId"`
	AuthCode      string `json:"authCode"`
	AVSResponse   string `json:"avsResponse"`
	ResponseText  string `json:"responseText"`
}

// ValidationError é dado malformado do chamador. Nunca é retentado.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DeclinedError: o processador respondeu e recusou. Carrega o motivo
// verbatim para o cliente; distinto de GatewayError.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return "payment declined: " + e.Reason
}

// GatewayError: processador inalcançável ou resposta não-2xx. O cliente
// vê 502; retry (se houver) é decisão dele.
type GatewayError struct {
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway error: %v", e.Err)
	}
	return fmt.Sprintf("payment gateway error: status %d", e.Status)
}

func (e *GatewayError) Unwrap() error { return e.Err }
