// blingclient/client.go
package blingclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "02/01/2006" // Bling uses DD/MM/YYYY

// Client is a thin authenticated client for the Bling v3 API. Only the
// sales-order read path is exposed.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Bling API client with a fixed request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError reports a non-2xx response from the Bling API, including the raw
// body for diagnostics. StatusCode is zero for transport-level failures.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bling API request failed: %v", e.Err)
	}
	return fmt.Sprintf("bling API returned status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// SalesOrder is one sales order as returned by Bling. Orders are immutable
// once fetched; identity is the order number for the query date. Optional
// fields (customer name, status, notes) are empty strings when Bling omits
// them and are normalized downstream.
type SalesOrder struct {
	Number       string          `json:"number"`
	Date         string          `json:"date"`
	CustomerName string          `json:"customer_name,omitempty"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// salesOrderPayload mirrors the Bling wire format with its nested optional
// objects; toOrder flattens it into a SalesOrder.
type salesOrderPayload struct {
	Numero  json.Number     `json:"numero"`
	Data    string          `json:"data"`
	Total   decimal.Decimal `json:"total"`
	Cliente *struct {
		Nome string `json:"nome"`
	} `json:"cliente"`
	Situacao *struct {
		Descricao string `json:"descricao"`
	} `json:"situacao"`
	Observacoes string `json:"observacoes"`
}

func (p salesOrderPayload) toOrder() SalesOrder {
	o := SalesOrder{
		Number: p.Numero.String(),
		Date:   p.Data,
		Total:  p.Total,
		Notes:  p.Observacoes,
	}
	if p.Cliente != nil {
		o.CustomerName = p.Cliente.Nome
	}
	if p.Situacao != nil {
		o.Status = p.Situacao.Descricao
	}
	return o
}

// SalesQuery describes one page request against the sales-orders endpoint.
type SalesQuery struct {
	StartDate time.Time
	EndDate   time.Time
	Status    string
	Page      int // 1-based
}

// ListSalesOrders fetches one page of sales orders. Within-page order is
// preserved as received. Any non-2xx response yields an *APIError.
func (c *Client) ListSalesOrders(ctx context.Context, accessToken string, query SalesQuery) ([]SalesOrder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pedidos/vendas", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sales request: %w", err)
	}

	q := req.URL.Query()
	q.Set("dataInicial", query.StartDate.Format(dateLayout))
	q.Set("dataFinal", query.EndDate.Format(dateLayout))
	q.Set("situacao", query.Status)
	q.Set("pagina", fmt.Sprintf("%d", query.Page))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Data []salesOrderPayload `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &APIError{Err: fmt.Errorf("failed to parse sales response: %w", err)}
	}

	orders := make([]SalesOrder, 0, len(payload.Data))
	for _, p := range payload.Data {
		orders = append(orders, p.toOrder())
	}
	return orders, nil
}
