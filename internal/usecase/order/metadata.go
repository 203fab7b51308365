package order

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domainOrder "movapp-backend/internal/domain/order"
)

// Stripe caps metadata values at 500 characters.
const (
	maxItemsJSON    = 500
	maxItemsSummary = 480
)

type intentItem struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Currency  string `json:"currency"`
}

func intentItems(o *domainOrder.Order) []intentItem {
	items := make([]intentItem, 0, len(o.Items))
	for _, it := range o.Items {
		sku := it.SKU
		if sku == "" {
			sku = "-"
		}
		items = append(items, intentItem{
			SKU:       sku,
			Name:      strings.Join(strings.Fields(it.Name), " "),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Currency:  o.Currency,
		})
	}
	return items
}

// intentMetadata is the string-only metadata attached to the gateway intent.
// The item list is dropped when it does not fit; the summary is truncated instead.
func intentMetadata(o *domainOrder.Order) map[string]string {
	items := intentItems(o)
	md := map[string]string{
		"order_id":     strconv.FormatUint(o.ID, 10),
		"order_number": o.OrderNumber,
		"items_count":  strconv.Itoa(len(items)),
	}

	if raw, err := json.Marshal(items); err == nil && len(raw) <= maxItemsJSON {
		md["items"] = string(raw)
	}

	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s : %s x %d", it.SKU, it.Name, it.Quantity))
	}
	if summary := truncate(strings.Join(parts, ", "), maxItemsSummary); summary != "" {
		md["items_summary"] = summary
	}
	return md
}

// recordMetadata is the structured copy kept on the payment record.
func recordMetadata(o *domainOrder.Order) map[string]interface{} {
	items := intentItems(o)
	list := make([]interface{}, 0, len(items))
	for _, it := range items {
		list = append(list, map[string]interface{}{
			"sku":        it.SKU,
			"name":       it.Name,
			"quantity":   it.Quantity,
			"unit_price": it.UnitPrice,
			"currency":   it.Currency,
		})
	}
	return map[string]interface{}{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"items":        list,
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
