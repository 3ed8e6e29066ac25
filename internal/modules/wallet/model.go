package wallet

import (
	"time"

	"gazflow/internal/types"
)

type Credit struct {
	OrderID   types.ID
	DriverID  types.ID
	Amount    int64
	CreatedAt time.Time
}

// Pending is a delivered order whose driver has not been credited yet.
type Pending struct {
	OrderID  types.ID
	DriverID types.ID
}
