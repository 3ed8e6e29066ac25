// README: Admin console handlers: orders, driver selection, assignment, live board, users and dashboard.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gazflow/internal/http/middleware"
	"gazflow/internal/modules/profile"
	"gazflow/internal/types"
)

type AdminHandler struct {
	orders   OrderService
	dispatch DispatchService
	tracking TrackingService
	profiles ProfileService
	wallet   WalletService
	insights InsightsService
}

type AdminDeps struct {
	Orders   OrderService
	Dispatch DispatchService
	Tracking TrackingService
	Profiles ProfileService
	Wallet   WalletService
	Insights InsightsService
}

func NewAdminHandler(deps AdminDeps) *AdminHandler {
	return &AdminHandler{
		orders:   deps.Orders,
		dispatch: deps.Dispatch,
		tracking: deps.Tracking,
		profiles: deps.Profiles,
		wallet:   deps.Wallet,
		insights: deps.Insights,
	}
}

// Orders lists the newest orders, or only non-terminal ones with ?active=true.
func (h *AdminHandler) Orders(c *gin.Context) {
	actor := middleware.Caller(c)
	if c.Query("active") == "true" {
		orders, err := h.orders.ListActive(c.Request.Context(), actor)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, newOrderViews(orders))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orders.ListAll(c.Request.Context(), actor, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderViews(orders))
}

// Drivers lists online drivers. With ?order_id they are ranked by distance to
// the delivery point; adding ?radius_km searches the spatial index instead.
func (h *AdminHandler) Drivers(c *gin.Context) {
	actor := middleware.Caller(c)
	orderID := c.Query("order_id")
	if orderID != "" && !isValidID(orderID) {
		writeError(c, http.StatusBadRequest, "invalid order_id")
		return
	}
	radius := c.Query("radius_km")
	if radius != "" && orderID != "" {
		km, err := strconv.ParseFloat(radius, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid radius_km")
			return
		}
		out, err := h.dispatch.NearbyDrivers(c.Request.Context(), actor, types.ID(orderID), km)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, newCandidateViews(out))
		return
	}
	out, err := h.dispatch.EligibleDrivers(c.Request.Context(), actor, types.ID(orderID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newCandidateViews(out))
}

type assignReq struct {
	DriverID string `json:"livreur_id"`
}

func (h *AdminHandler) Assign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil || !isValidID(req.DriverID) {
		writeError(c, http.StatusBadRequest, "livreur_id is required")
		return
	}
	o, err := h.dispatch.AdminAssign(c.Request.Context(), middleware.Caller(c), id, types.ID(req.DriverID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newOrderView(o))
}

func (h *AdminHandler) Board(c *gin.Context) {
	b, err := h.tracking.Board(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newBoardView(b))
}

// Users lists profiles, optionally filtered with ?role=.
func (h *AdminHandler) Users(c *gin.Context) {
	list, err := h.profiles.List(c.Request.Context(), middleware.Caller(c), types.Role(c.Query("role")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]profileView, 0, len(list))
	for _, p := range list {
		out = append(out, newProfileView(p))
	}
	writeJSON(c, http.StatusOK, out)
}

type roleReq struct {
	Role types.Role `json:"role"`
}

func (h *AdminHandler) SetRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.profiles.SetRole(c.Request.Context(), middleware.Caller(c), id, req.Role)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newProfileView(p))
}

type kycReq struct {
	Status profile.KYCStatus `json:"kyc_status"`
}

func (h *AdminHandler) SetKYC(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req kycReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.profiles.SetKYC(c.Request.Context(), middleware.Caller(c), id, req.Status)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newProfileView(p))
}

func (h *AdminHandler) DriverWallet(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.wallet.Summary(c.Request.Context(), middleware.Caller(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newWalletView(s))
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	d, err := h.insights.Dashboard(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newDashboardView(d))
}
