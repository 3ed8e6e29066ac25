// README: Catalog entries: a product with its price in the configured region.
package pricing

import "gazflow/internal/types"

type Product struct {
	ID          int64
	Size        string
	Description string
	Price       types.Money
}

// Line is one product and quantity to quote.
type Line struct {
	ProductID int64
	Qty       int
}
