// README: Order aggregate, status definitions and the transition table.
package order

import (
	"time"

	"gazflow/internal/types"
)

type Status string

const (
	StatusNone       Status = ""
	StatusPending    Status = "PENDING"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusArrived    Status = "ARRIVED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusArrived, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ActiveStatuses are the non-terminal statuses.
var ActiveStatuses = []Status{StatusPending, StatusAssigned, StatusInProgress, StatusArrived}

type PaymentMethod string

const PaymentCash PaymentMethod = "CASH"

// Item is one order line: a catalog product and a quantity.
type Item struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

type Order struct {
	ID               types.ID
	ClientID         types.ID
	DriverID         *types.ID
	Status           Status
	StatusVersion    int
	Items            []Item
	TotalAmount      types.Money
	DeliveryFee      types.Money
	PaymentMethod    PaymentMethod
	DeliveryAddress  string
	DeliveryLocation *types.Point
	CreatedAt        time.Time
	UpdatedAt        time.Time
	AssignedAt       *time.Time
	StartedAt        *time.Time
	ArrivedAt        *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     *string
}

// AssignedTo reports whether driverID is the order's driver.
func (o *Order) AssignedTo(driverID types.ID) bool {
	return o.DriverID != nil && *o.DriverID == driverID
}

type Event struct {
	ID         int64
	OrderID    types.ID
	FromStatus Status
	ToStatus   Status
	ActorRole  types.Role
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the order state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusArrived, StatusCancelled},
	StatusArrived:    {StatusDelivered, StatusCancelled},
}

type edge struct{ from, to Status }

// transitionActors lists which roles may trigger each edge. Ownership (the
// order's client, the assigned driver) is checked separately.
var transitionActors = map[edge][]types.Role{
	{StatusNone, StatusPending}:         {types.RoleClient},
	{StatusPending, StatusAssigned}:     {types.RoleAdmin, types.RoleDriver},
	{StatusAssigned, StatusInProgress}:  {types.RoleDriver},
	{StatusInProgress, StatusArrived}:   {types.RoleDriver},
	{StatusArrived, StatusDelivered}:    {types.RoleClient, types.RoleDriver},
	{StatusPending, StatusCancelled}:    {types.RoleClient, types.RoleAdmin},
	{StatusAssigned, StatusCancelled}:   {types.RoleClient, types.RoleAdmin},
	{StatusInProgress, StatusCancelled}: {types.RoleClient, types.RoleAdmin},
	{StatusArrived, StatusCancelled}:    {types.RoleClient, types.RoleAdmin},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// CanActorTransition reports whether role may move an order from -> to.
func CanActorTransition(from, to Status, role types.Role) bool {
	if from != StatusNone && !CanTransition(from, to) {
		return false
	}
	for _, r := range transitionActors[edge{from, to}] {
		if r == role {
			return true
		}
	}
	return false
}

// authorize applies role and ownership rules for actor moving o to status to.
// driverID is the driver being assigned on PENDING -> ASSIGNED.
func authorize(o *Order, to Status, actor types.Actor, driverID types.ID) error {
	if actor.ID == "" || !CanActorTransition(o.Status, to, actor.Role) {
		return ErrForbidden
	}
	switch actor.Role {
	case types.RoleClient:
		if o.ClientID != actor.ID {
			return ErrForbidden
		}
	case types.RoleDriver:
		if to == StatusAssigned {
			if driverID != actor.ID {
				return ErrForbidden
			}
		} else if !o.AssignedTo(actor.ID) {
			return ErrForbidden
		}
	}
	return nil
}
