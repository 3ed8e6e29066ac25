// README: Order service implements the lifecycle state machine, role checks and the delivery credit.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"gazflow/internal/config"
	"gazflow/internal/geo"
	"gazflow/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("order not found")
	ErrConflict     = errors.New("order state conflict")
	ErrActiveOrder  = errors.New("client has active order")
	ErrBadRequest   = errors.New("bad request")
	ErrForbidden    = errors.New("forbidden")
)

// Repository is the persistence surface the service needs.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	// UpdateStatus applies the change only if the row still has status from
	// and version; it reports whether a row was updated.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID, reason *string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	ActiveByClient(ctx context.Context, clientID types.ID) (*Order, error)
	ListByClient(ctx context.Context, clientID types.ID) ([]*Order, error)
	ListForDriver(ctx context.Context, driverID types.ID) ([]*Order, error)
	ListActive(ctx context.Context) ([]*Order, error)
	ListAll(ctx context.Context, limit int) ([]*Order, error)
}

// Pricing looks up unit prices. Unknown products are absent from the result.
type Pricing interface {
	PriceOf(ctx context.Context, productIDs []int64) (map[int64]types.Money, error)
}

// Wallet credits a driver at most once per order.
type Wallet interface {
	CreditOnce(ctx context.Context, driverID, orderID types.ID) (bool, error)
}

// Notifier is told after every persisted change so subscribers can re-fetch.
type Notifier interface {
	OrderChanged(ctx context.Context, clientID types.ID, driverID *types.ID)
}

// EventPublisher ships lifecycle events to an external stream.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value any) error
}

type ServiceDeps struct {
	Store    Repository
	Pricing  Pricing
	Wallet   Wallet
	Notifier Notifier
	Events   EventPublisher
	Config   config.OrderConfig
}

type Service struct {
	store    Repository
	pricing  Pricing
	wallet   Wallet
	notifier Notifier
	events   EventPublisher
	cfg      config.OrderConfig
	now      func() time.Time
}

func NewService(deps ServiceDeps) *Service {
	return &Service{
		store:    deps.Store,
		pricing:  deps.Pricing,
		wallet:   deps.Wallet,
		notifier: deps.Notifier,
		events:   deps.Events,
		cfg:      deps.Config,
		now:      time.Now,
	}
}

type CreateCommand struct {
	Actor            types.Actor
	Items            []Item
	PaymentMethod    PaymentMethod
	DeliveryAddress  string
	DeliveryLocation *types.Point
}

type AssignCommand struct {
	OrderID  types.ID
	DriverID types.ID
	Actor    types.Actor
}

type ActionCommand struct {
	OrderID types.ID
	Actor   types.Actor
}

type CancelCommand struct {
	OrderID types.ID
	Actor   types.Actor
	Reason  string
}

// TransitionCommand is the generic form of every lifecycle move. DriverID is
// only read for ASSIGNED; a driver assigning without one assigns themself.
type TransitionCommand struct {
	OrderID  types.ID
	To       Status
	Actor    types.Actor
	DriverID types.ID
	Reason   string
}

// EventMessage is the payload published for each lifecycle change.
type EventMessage struct {
	OrderID   types.ID   `json:"order_id"`
	ClientID  types.ID   `json:"client_id"`
	DriverID  *types.ID  `json:"driver_id,omitempty"`
	From      Status     `json:"from"`
	To        Status     `json:"to"`
	ActorRole types.Role `json:"actor_role"`
	ActorID   types.ID   `json:"actor_id"`
	Total     int64      `json:"total_amount"`
	At        time.Time  `json:"at"`
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if !cmd.Actor.Is(types.RoleClient) {
		return nil, ErrForbidden
	}
	if err := validateItems(cmd.Items); err != nil {
		return nil, err
	}
	address := strings.TrimSpace(cmd.DeliveryAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: delivery address is required", ErrBadRequest)
	}
	method := cmd.PaymentMethod
	if method == "" {
		method = PaymentCash
	}
	if method != PaymentCash {
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrBadRequest, method)
	}
	var loc *types.Point
	if cmd.DeliveryLocation != nil {
		if !geo.Valid(*cmd.DeliveryLocation) {
			return nil, fmt.Errorf("%w: delivery location out of range", ErrBadRequest)
		}
		p := *cmd.DeliveryLocation
		loc = &p
	}

	if _, err := s.store.ActiveByClient(ctx, cmd.Actor.ID); err == nil {
		return nil, ErrActiveOrder
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	subtotal, err := s.quote(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}
	fee := types.Money{Amount: s.cfg.DeliveryFee, Currency: s.cfg.Currency}

	now := s.now()
	o := &Order{
		ID:               types.ID(uuid.NewString()),
		ClientID:         cmd.Actor.ID,
		Status:           StatusPending,
		Items:            append([]Item(nil), cmd.Items...),
		TotalAmount:      subtotal.Add(fee),
		DeliveryFee:      fee,
		PaymentMethod:    method,
		DeliveryAddress:  address,
		DeliveryLocation: loc,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	s.record(ctx, o, StatusNone, cmd.Actor)
	s.notify(ctx, o)
	return o, nil
}

// Assign is the conditional PENDING -> ASSIGNED write. It succeeds only if the
// order is still pending when the update lands.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*Order, error) {
	if cmd.DriverID == "" {
		return nil, fmt.Errorf("%w: driver id is required", ErrBadRequest)
	}
	driverID := cmd.DriverID
	return s.transition(ctx, cmd.OrderID, StatusAssigned, cmd.Actor, &driverID, nil)
}

func (s *Service) Start(ctx context.Context, cmd ActionCommand) (*Order, error) {
	return s.transition(ctx, cmd.OrderID, StatusInProgress, cmd.Actor, nil, nil)
}

func (s *Service) Arrive(ctx context.Context, cmd ActionCommand) (*Order, error) {
	return s.transition(ctx, cmd.OrderID, StatusArrived, cmd.Actor, nil, nil)
}

// Deliver completes the order and credits the assigned driver once.
func (s *Service) Deliver(ctx context.Context, cmd ActionCommand) (*Order, error) {
	return s.transition(ctx, cmd.OrderID, StatusDelivered, cmd.Actor, nil, nil)
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Order, error) {
	var reason *string
	if r := strings.TrimSpace(cmd.Reason); r != "" {
		reason = &r
	}
	return s.transition(ctx, cmd.OrderID, StatusCancelled, cmd.Actor, nil, reason)
}

func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Order, error) {
	switch cmd.To {
	case StatusAssigned:
		driverID := cmd.DriverID
		if driverID == "" && cmd.Actor.Role == types.RoleDriver {
			driverID = cmd.Actor.ID
		}
		return s.Assign(ctx, AssignCommand{OrderID: cmd.OrderID, DriverID: driverID, Actor: cmd.Actor})
	case StatusInProgress:
		return s.Start(ctx, ActionCommand{OrderID: cmd.OrderID, Actor: cmd.Actor})
	case StatusArrived:
		return s.Arrive(ctx, ActionCommand{OrderID: cmd.OrderID, Actor: cmd.Actor})
	case StatusDelivered:
		return s.Deliver(ctx, ActionCommand{OrderID: cmd.OrderID, Actor: cmd.Actor})
	case StatusCancelled:
		return s.Cancel(ctx, CancelCommand{OrderID: cmd.OrderID, Actor: cmd.Actor, Reason: cmd.Reason})
	case StatusPending:
		return nil, ErrInvalidState
	}
	return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, cmd.To)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

// View returns an order if actor may see it: its client, its driver, any
// driver while it is still pending, or an admin.
func (s *Service) View(ctx context.Context, actor types.Actor, id types.ID) (*Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Is(types.RoleAdmin):
	case actor.Is(types.RoleClient) && o.ClientID == actor.ID:
	case actor.Is(types.RoleDriver) && (o.AssignedTo(actor.ID) || o.Status == StatusPending):
	default:
		return nil, ErrForbidden
	}
	return o, nil
}

// ActiveForClient returns the client's most recent non-terminal order, or
// ErrNotFound.
func (s *Service) ActiveForClient(ctx context.Context, actor types.Actor) (*Order, error) {
	if !actor.Is(types.RoleClient) {
		return nil, ErrForbidden
	}
	return s.store.ActiveByClient(ctx, actor.ID)
}

// HistoryForClient returns all of the client's orders, newest first.
func (s *Service) HistoryForClient(ctx context.Context, actor types.Actor) ([]*Order, error) {
	if !actor.Is(types.RoleClient) {
		return nil, ErrForbidden
	}
	return s.store.ListByClient(ctx, actor.ID)
}

// ListForDriver returns pending orders plus the driver's own orders.
func (s *Service) ListForDriver(ctx context.Context, actor types.Actor) ([]*Order, error) {
	if !actor.Is(types.RoleDriver) {
		return nil, ErrForbidden
	}
	return s.store.ListForDriver(ctx, actor.ID)
}

// ListActive returns every non-terminal order. Admin only.
func (s *Service) ListActive(ctx context.Context, actor types.Actor) ([]*Order, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	return s.store.ListActive(ctx)
}

// ListAll returns the newest orders across all clients. Admin only.
func (s *Service) ListAll(ctx context.Context, actor types.Actor, limit int) ([]*Order, error) {
	if !actor.Is(types.RoleAdmin) {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	return s.store.ListAll(ctx, limit)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status, actor types.Actor, driverID *types.ID, reason *string) (*Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, ErrInvalidState
	}
	var assignee types.ID
	if driverID != nil {
		assignee = *driverID
	}
	if err := authorize(o, to, actor, assignee); err != nil {
		return nil, err
	}

	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, to, o.StatusVersion, driverID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	from := o.Status
	apply(o, to, driverID, reason, s.now())
	s.record(ctx, o, from, actor)
	if to == StatusDelivered {
		s.credit(ctx, o)
	}
	s.notify(ctx, o)
	return o, nil
}

// apply mirrors a successful conditional update onto the in-memory order.
func apply(o *Order, to Status, driverID *types.ID, reason *string, now time.Time) {
	o.Status = to
	o.StatusVersion++
	o.UpdatedAt = now
	if driverID != nil {
		d := *driverID
		o.DriverID = &d
	}
	t := now
	switch to {
	case StatusAssigned:
		o.AssignedAt = &t
	case StatusInProgress:
		o.StartedAt = &t
	case StatusArrived:
		o.ArrivedAt = &t
	case StatusDelivered:
		o.DeliveredAt = &t
	case StatusCancelled:
		o.CancelledAt = &t
		if reason != nil {
			o.CancelReason = reason
		}
	}
}

func (s *Service) quote(ctx context.Context, items []Item) (types.Money, error) {
	total := types.Money{Currency: s.cfg.Currency}
	if s.pricing == nil {
		return total, nil
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	prices, err := s.pricing.PriceOf(ctx, ids)
	if err != nil {
		return types.Money{}, err
	}
	for _, it := range items {
		price, ok := prices[it.ProductID]
		if !ok {
			return types.Money{}, fmt.Errorf("%w: unknown product %d", ErrBadRequest, it.ProductID)
		}
		total = total.Add(price.Times(int64(it.Qty)))
	}
	return total, nil
}

func validateItems(items []Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrBadRequest)
	}
	for _, it := range items {
		if it.ProductID <= 0 {
			return fmt.Errorf("%w: invalid product id %d", ErrBadRequest, it.ProductID)
		}
		if it.Qty <= 0 {
			return fmt.Errorf("%w: invalid quantity %d for product %d", ErrBadRequest, it.Qty, it.ProductID)
		}
	}
	return nil
}

// credit pays the driver for a delivered order. A failure here is repaired by
// the wallet reconciler, so it is logged and not returned.
func (s *Service) credit(ctx context.Context, o *Order) {
	if s.wallet == nil || o.DriverID == nil {
		return
	}
	if _, err := s.wallet.CreditOnce(ctx, *o.DriverID, o.ID); err != nil {
		log.Printf("order %s: wallet credit for driver %s failed: %v", o.ID, *o.DriverID, err)
	}
}

func (s *Service) record(ctx context.Context, o *Order, from Status, actor types.Actor) {
	actorID := actor.ID
	if err := s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: from,
		ToStatus:   o.Status,
		ActorRole:  actor.Role,
		ActorID:    &actorID,
		CreatedAt:  o.UpdatedAt,
	}); err != nil {
		log.Printf("order %s: append event %s->%s: %v", o.ID, from, o.Status, err)
	}
	if s.events == nil {
		return
	}
	msg := EventMessage{
		OrderID:   o.ID,
		ClientID:  o.ClientID,
		DriverID:  o.DriverID,
		From:      from,
		To:        o.Status,
		ActorRole: actor.Role,
		ActorID:   actor.ID,
		Total:     o.TotalAmount.Amount,
		At:        o.UpdatedAt,
	}
	if err := s.events.Publish(ctx, string(o.ID), msg); err != nil {
		log.Printf("order %s: publish event: %v", o.ID, err)
	}
}

func (s *Service) notify(ctx context.Context, o *Order) {
	if s.notifier == nil {
		return
	}
	s.notifier.OrderChanged(ctx, o.ClientID, o.DriverID)
}
