// sales/aggregate.go
package sales

import (
	"github.com/shopspring/decimal"

	"github.com/vendadia/blingserver/pkg/blingclient"
)

// placeholder replaces optional fields Bling left empty, so the presentation
// layer never sees an absent value.
const placeholder = "Não informado"

// Row is one normalized sales order ready for display.
type Row struct {
	OrderNumber  string          `json:"order_number"`
	OrderDate    string          `json:"order_date"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	Notes        string          `json:"notes"`
}

// Summary is the aggregated view of a day's sales.
type Summary struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Rows  []Row           `json:"rows"`
}

// Aggregate reduces an ordered sequence of sales orders into a decimal total
// and normalized rows. Pure and deterministic; decimal arithmetic keeps the
// total free of binary floating-point drift.
func Aggregate(orders []blingclient.SalesOrder) Summary {
	summary := Summary{
		Total: decimal.Zero,
		Count: len(orders),
		Rows:  make([]Row, 0, len(orders)),
	}

	for _, order := range orders {
		summary.Total = summary.Total.Add(order.Total)
		summary.Rows = append(summary.Rows, Row{
			OrderNumber:  order.Number,
			OrderDate:    order.Date,
			CustomerName: orPlaceholder(order.CustomerName),
			Total:        order.Total,
			Status:       orPlaceholder(order.Status),
			Notes:        orPlaceholder(order.Notes),
		})
	}

	return summary
}

func orPlaceholder(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}
