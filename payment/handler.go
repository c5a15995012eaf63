package payment

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"storefront-gateway/payment/application"
	"storefront-gateway/payment/domain"
)

// Handler é o adapter HTTP do caso de uso de cobrança.
type Handler struct {
	Service application.Service
}

func NewHandler(svc application.Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req domain.ChargeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "malformed JSON body")
		return
	}

	res, err := h.Service.Charge(r.Context(), req)
	if err != nil {
		h.writeChargeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(res)
}

func (h *Handler) writeChargeError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var dErr *domain.DeclinedError
	var gErr *domain.GatewayError

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation", vErr.Error())
	case errors.As(err, &dErr):
		// recusa não é falha nossa: 400 com o motivo do processador
		writeError(w, http.StatusBadRequest, "gateway_declined", dErr.Reason)
	case errors.As(err, &gErr):
		// sem detalhe interno no corpo; o log fica com o resto
		log.Printf("payment: gateway failure: %v", err)
		writeError(w, http.StatusBadGateway, "gateway_error", "payment processor unavailable")
	default:
		log.Printf("payment: unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// mesmo formato de corpo de erro dos middlewares do storefront
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: message}})
}
