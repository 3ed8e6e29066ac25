// README: Client order handlers (create, active, history, confirm, cancel, tracking) and the generic transition.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gazflow/internal/http/middleware"
	"gazflow/internal/modules/order"
	"gazflow/internal/types"
)

type OrderHandler struct {
	orders   OrderService
	dispatch DispatchService
	tracking TrackingService
}

func NewOrderHandler(orders OrderService, dispatch DispatchService, tracking TrackingService) *OrderHandler {
	return &OrderHandler{orders: orders, dispatch: dispatch, tracking: tracking}
}

type createOrderReq struct {
	Items            []order.Item `json:"items"`
	PaymentMethod    string       `json:"payment_method"`
	DeliveryAddress  string       `json:"delivery_address"`
	DeliveryLocation *pointView   `json:"delivery_location"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := order.CreateCommand{
		Actor:           middleware.Caller(c),
		Items:           req.Items,
		PaymentMethod:   order.PaymentMethod(req.PaymentMethod),
		DeliveryAddress: req.DeliveryAddress,
	}
	if req.DeliveryLocation != nil {
		cmd.DeliveryLocation = &types.Point{Lat: req.DeliveryLocation.Lat, Lng: req.DeliveryLocation.Lng}
	}
	o, err := h.orders.Create(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, newOrderView(o))
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.View(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderView(o))
}

// Active answers {"order": null} when the client has nothing in flight.
func (h *OrderHandler) Active(c *gin.Context) {
	o, err := h.orders.ActiveForClient(c.Request.Context(), middleware.Caller(c))
	if errors.Is(err, order.ErrNotFound) {
		writeJSON(c, http.StatusOK, gin.H{"order": nil})
		return
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"order": newOrderView(o)})
}

func (h *OrderHandler) History(c *gin.Context) {
	orders, err := h.orders.HistoryForClient(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderViews(orders))
}

// Confirm is the client acknowledging receipt: ARRIVED -> DELIVERED.
func (h *OrderHandler) Confirm(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Deliver(c.Request.Context(), order.ActionCommand{OrderID: id, Actor: middleware.Caller(c)})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderView(o))
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Cancel serves both the client and admin routes; the order service checks the role.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req cancelReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	o, err := h.orders.Cancel(c.Request.Context(), order.CancelCommand{OrderID: id, Actor: middleware.Caller(c), Reason: req.Reason})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderView(o))
}

func (h *OrderHandler) Tracking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	snap, err := h.tracking.Snapshot(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newSnapshotView(*snap))
}

type transitionReq struct {
	To       order.Status `json:"to"`
	DriverID string       `json:"livreur_id"`
	Reason   string       `json:"reason"`
}

// Transition applies any edge of the lifecycle for the caller. Assignment goes
// through dispatch so the driver's presence is checked.
func (h *OrderHandler) Transition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.To == "" {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	actor := middleware.Caller(c)
	ctx := c.Request.Context()

	var (
		o   *order.Order
		err error
	)
	switch {
	case req.To == order.StatusAssigned && actor.Is(types.RoleDriver):
		o, err = h.dispatch.Accept(ctx, actor, id)
	case req.To == order.StatusAssigned && actor.Is(types.RoleAdmin):
		o, err = h.dispatch.AdminAssign(ctx, actor, id, types.ID(req.DriverID))
	default:
		o, err = h.orders.Transition(ctx, order.TransitionCommand{
			OrderID:  id,
			To:       req.To,
			Actor:    actor,
			DriverID: types.ID(req.DriverID),
			Reason:   req.Reason,
		})
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderView(o))
}
