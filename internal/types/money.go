// README: Common money value object used across modules.
package types

// Money is an amount in the smallest unit of the currency (NT$1 for TWD).
type Money struct {
	Amount   int64
	Currency string
}

// TWD wraps an NT$ amount.
func TWD(amount int64) Money {
	return Money{Amount: amount, Currency: "TWD"}
}
