// README: Driver handlers: order pool, accept, start, arrive, deliver, presence and wallet.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gazflow/internal/http/middleware"
	"gazflow/internal/modules/location"
	"gazflow/internal/modules/order"
	"gazflow/internal/modules/profile"
	"gazflow/internal/types"
)

type DriverHandler struct {
	orders   OrderService
	dispatch DispatchService
	profiles ProfileService
	wallet   WalletService
}

func NewDriverHandler(orders OrderService, dispatch DispatchService, profiles ProfileService, wallet WalletService) *DriverHandler {
	return &DriverHandler{orders: orders, dispatch: dispatch, profiles: profiles, wallet: wallet}
}

// ListOrders returns the pending pool plus the caller's own orders.
func (h *DriverHandler) ListOrders(c *gin.Context) {
	orders, err := h.dispatch.PendingOrders(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderViews(orders))
}

func (h *DriverHandler) Accept(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.dispatch.Accept(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderView(o))
}

func (h *DriverHandler) Start(c *gin.Context) {
	h.step(c, h.orders.Start)
}

func (h *DriverHandler) Arrive(c *gin.Context) {
	h.step(c, h.orders.Arrive)
}

func (h *DriverHandler) Deliver(c *gin.Context) {
	h.step(c, h.orders.Deliver)
}

func (h *DriverHandler) step(c *gin.Context, fn func(ctx context.Context, cmd order.ActionCommand) (*order.Order, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := fn(c.Request.Context(), order.ActionCommand{OrderID: id, Actor: middleware.Caller(c)})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderView(o))
}

// Presence is the Location Reporter's write: online flag plus optional position.
func (h *DriverHandler) Presence(c *gin.Context) {
	var req location.PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		writeError(c, http.StatusBadRequest, "lat and lng must be sent together")
		return
	}
	if !req.Online && req.Lat != nil {
		writeError(c, http.StatusBadRequest, "position is only accepted while online")
		return
	}
	ctx, actor := c.Request.Context(), middleware.Caller(c)
	var (
		p   *profile.Profile
		err error
	)
	if req.Lat != nil {
		p, err = h.profiles.ReportLocation(ctx, actor, types.Point{Lat: *req.Lat, Lng: *req.Lng})
	} else {
		p, err = h.profiles.SetOnline(ctx, actor, req.Online, nil)
	}
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newProfileView(p))
}

func (h *DriverHandler) Wallet(c *gin.Context) {
	actor := middleware.Caller(c)
	s, err := h.wallet.Summary(c.Request.Context(), actor, actor.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newWalletView(s))
}
