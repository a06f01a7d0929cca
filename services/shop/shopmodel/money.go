package shopmodel

import "fmt"

const DefaultCurrency = "UGX"

func FormatAmount(currency string, amount int64) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return fmt.Sprintf("%s %.2f", currency, float64(amount)/100.0)
}
