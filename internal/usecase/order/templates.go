package order

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

const receiptSubject = "Pago recibido - MovApp"

var receiptTemplate = template.Must(template.New("receipt").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto;">
  <h3>Pago recibido</h3>
  <p>Pago por {{.Amount}} {{.Currency}} procesado correctamente.</p>
  <p>Orden: <strong>{{.OrderNumber}}</strong></p>
  <p>Referencia: <strong>{{.Reference}}</strong></p>
</div>`))

func renderReceipt(orderNumber string, amount decimal.Decimal, currency, reference string) (string, error) {
	var buf bytes.Buffer
	err := receiptTemplate.Execute(&buf, map[string]string{
		"Amount":      amount.StringFixed(2),
		"Currency":    strings.ToUpper(currency),
		"OrderNumber": orderNumber,
		"Reference":   reference,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render receipt email: %w", err)
	}
	return buf.String(), nil
}
