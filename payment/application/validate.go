package application

import (
	"regexp"
	"strings"

	"storefront-gateway/payment/domain"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	nonDigits       = regexp.MustCompile(`\D`)
)

// maxAmount é um sanity check, não uma regra de negócio: pedido acima
// disso é quase certamente input malformado.
const maxAmount = 1_000_000

// Validate checa os campos do checkout. Erro aqui nunca chega ao
// processador e nunca é retentado.
func Validate(req domain.ChargeRequest) error {
	if strings.TrimSpace(req.PaymentToken) == "" {
		return &domain.ValidationError{Field: "paymentToken", Message: "is required"}
	}
	if req.Amount <= 0 {
		return &domain.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if req.Amount > maxAmount {
		return &domain.ValidationError{Field: "amount", Message: "exceeds the maximum accepted value"}
	}
	if req.Currency != "" && !currencyPattern.MatchString(req.Currency) {
		return &domain.ValidationError{Field: "currency", Message: "must be a 3-letter ISO code"}
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		return &domain.ValidationError{Field: "email", Message: "is not a valid address"}
	}
	if req.Phone != "" {
		digits := nonDigits.ReplaceAllString(req.Phone, "")
		if len(digits) < 10 || len(digits) > 15 {
			return &domain.ValidationError{Field: "phone", Message: "must have 10 to 15 digits"}
		}
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return &domain.ValidationError{Field: "firstName", Message: "is required"}
	}
	if strings.TrimSpace(req.LastName) == "" {
		return &domain.ValidationError{Field: "lastName", Message: "is required"}
	}
	return nil
}
