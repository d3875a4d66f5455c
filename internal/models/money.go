package models

import "github.com/shopspring/decimal"

// supported currencies
const (
	CurrencyEUR = "EUR"
	CurrencyUSD = "USD"
	CurrencyGBP = "GBP"
)

var supportedCurrencies = map[string]struct{}{
	CurrencyEUR: {},
	CurrencyUSD: {},
	CurrencyGBP: {},
}

// IsSupportedCurrency reports whether code is on the currency allow-list
func IsSupportedCurrency(code string) bool {
	_, ok := supportedCurrencies[code]
	return ok
}

// RoundMoney rounds amount to two decimals using round-half-to-even.
// All monetary amounts the engine produces pass through here.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(2)
}
