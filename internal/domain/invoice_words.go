package domain

import (
	"fmt"
	"strings"

	"github.com/divan/num2words"
	"github.com/shopspring/decimal"
)

var currencyUnits = map[string][2]string{
	"USD": {"dollars", "cents"},
	"EUR": {"euros", "cents"},
	"GBP": {"pounds", "pence"},
	"LKR": {"rupees", "cents"},
	"INR": {"rupees", "paise"},
	"AED": {"dirhams", "fils"},
}

// AmountInWords spells an amount for printing on invoices, e.g.
// "one thousand two hundred fifty dollars and 40 cents".
func AmountInWords(amount decimal.Decimal, currency string) string {
	amount = amount.Abs().Round(2)
	whole := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(whole)).Mul(hundred).IntPart()

	units, ok := currencyUnits[strings.ToUpper(currency)]
	if !ok {
		units = [2]string{strings.ToUpper(currency), "cents"}
	}

	words := num2words.Convert(int(whole))
	if cents == 0 {
		return fmt.Sprintf("%s %s only", words, units[0])
	}
	return fmt.Sprintf("%s %s and %d %s", words, units[0], cents, units[1])
}
