package order

import "fmt"

const currency = "USD"

// formatAmount renders cents as a decimal amount, 1999 -> "19.99".
func formatAmount(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
