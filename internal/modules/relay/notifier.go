package relay

import (
	"context"
	"log"

	"gazflow/internal/types"
)

// Notifier fans order and profile writes out to the matching subjects.
type Notifier struct {
	hub Hub
}

func NewNotifier(hub Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) OrderChanged(ctx context.Context, clientID types.ID, driverID *types.ID) {
	subjects := []Subject{AllOrders, ClientOrders(clientID)}
	if driverID != nil {
		subjects = append(subjects, DriverOrders(*driverID))
	}
	n.publish(ctx, subjects)
}

func (n *Notifier) ProfileChanged(ctx context.Context, id types.ID, _ types.Role) {
	// Drivers is signalled for every role so a demoted driver drops off too.
	n.publish(ctx, []Subject{Profile(id), Drivers})
}

func (n *Notifier) publish(ctx context.Context, subjects []Subject) {
	if err := n.hub.Notify(context.WithoutCancel(ctx), subjects...); err != nil {
		log.Printf("relay notify %v: %v", subjects, err)
	}
}

// Watch calls refresh once immediately and again after every signal on
// subject, until ctx ends or the subscription closes. The subscription is
// always torn down before Watch returns.
func Watch(ctx context.Context, hub Hub, subject Subject, refresh func(context.Context) error) error {
	sub, err := hub.Subscribe(ctx, subject)
	if err != nil {
		return err
	}
	defer sub.Close()

	if err := refresh(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := refresh(ctx); err != nil {
				return err
			}
		}
	}
}
