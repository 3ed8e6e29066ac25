// README: Caller profile and catalog handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gazflow/internal/http/middleware"
)

type ProfileHandler struct {
	profiles ProfileService
	catalog  CatalogService
}

func NewProfileHandler(profiles ProfileService, catalog CatalogService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, catalog: catalog}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	actor := middleware.Caller(c)
	p, err := h.profiles.Get(c.Request.Context(), actor, actor.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newProfileView(p))
}

func (h *ProfileHandler) Catalog(c *gin.Context) {
	products, err := h.catalog.Catalog(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, newProductViews(products))
}
