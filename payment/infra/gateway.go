package infra

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront-gateway/payment/domain"
)

// Client fala o protocolo do processador: POST form-encoded, resposta
// form-encoded. response=1 é aprovado; qualquer outro valor é recusa.
type Client struct {
	URL         string
	SecurityKey string
	HTTPClient  *http.Client
}

func NewClient(gatewayURL, securityKey string) *Client {
	return &Client{
		URL:         gatewayURL,
		SecurityKey: securityKey,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

const approvedCode = "1"

// Sale submete exatamente uma tentativa de venda.
func (c *Client) Sale(ctx context.Context, req domain.ChargeRequest) (domain.ChargeResult, error) {
	form := url.Values{}
	form.Set("type", "sale")
	form.Set("security_key", c.SecurityKey)
	form.Set("payment_token", req.PaymentToken)
	form.Set("amount", strconv.FormatFloat(req.Amount, 'f', 2, 64))
	form.Set("currency", req.Currency)
	form.Set("orderid", req.OrderID)
	form.Set("orderdescription", req.Description)
	form.Set("first_name", req.FirstName)
	form.Set("last_name", req.LastName)
	form.Set("address1", req.Address1)
	form.Set("city", req.City)
	form.Set("state", req.State)
	form.Set("zip", req.Zip)
	form.Set("country", req.Country)
	form.Set("email", req.Email)
	form.Set("phone", req.Phone)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.ChargeResult{}, &domain.GatewayError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return domain.ChargeResult{}, &domain.GatewayError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.ChargeResult{}, &domain.GatewayError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ChargeResult{}, &domain.GatewayError{Status: resp.StatusCode}
	}

	fields, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return domain.ChargeResult{}, &domain.GatewayError{Err: err}
	}

	res := domain.ChargeResult{
		Approved:      fields.Get("response") == approvedCode,
		TransactionID: fields.Get("transactionid"),
		AuthCode:      fields.Get("authcode"),
		AVSResponse:   fields.Get("avsresponse"),
		ResponseText:  fields.Get("responsetext"),
	}
	if !res.Approved {
		reason := res.ResponseText
		if reason == "" {
			reason = "declined by processor"
		}
		// recusa explícita: motivo verbatim, distinto de erro de gateway
		return domain.ChargeResult{}, &domain.DeclinedError{Reason: reason}
	}
	return res, nil
}
