// README: Common money value object used across modules.
package types

type Money struct {
	Amount   int64
	Currency string
}

// Add returns the sum of m and o. The currency of m wins when o has none.
func (m Money) Add(o Money) Money {
	cur := m.Currency
	if cur == "" {
		cur = o.Currency
	}
	return Money{Amount: m.Amount + o.Amount, Currency: cur}
}

// Times multiplies the amount by n.
func (m Money) Times(n int64) Money {
	return Money{Amount: m.Amount * n, Currency: m.Currency}
}
