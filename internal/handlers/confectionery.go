// internal/handlers/confectionery.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/services"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

type ConfectioneryHandler struct {
	confectioneryService *services.ConfectioneryService
}

func NewConfectioneryHandler(confectioneryService *services.ConfectioneryService) *ConfectioneryHandler {
	return &ConfectioneryHandler{
		confectioneryService: confectioneryService,
	}
}

// GET /confectioneries
func (h *ConfectioneryHandler) GetConfectioneries(c *gin.Context) {
	listing, err := h.confectioneryService.ListConfectioneries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// POST /confectioneries
func (h *ConfectioneryHandler) CreateConfectionery(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	confectionery, err := h.confectioneryService.CreateConfectionery(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, confectionery)
}

// GET /confectioneries/:id
func (h *ConfectioneryHandler) GetConfectionery(c *gin.Context) {
	id, ok := parseID(c, "confectionery")
	if !ok {
		return
	}

	confectionery, err := h.confectioneryService.GetConfectionery(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, confectionery)
}

// PUT/PATCH /confectioneries/:id
func (h *ConfectioneryHandler) UpdateConfectionery(c *gin.Context) {
	id, ok := parseID(c, "confectionery")
	if !ok {
		return
	}

	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	confectionery, err := h.confectioneryService.UpdateConfectionery(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, confectionery)
}

// DELETE /confectioneries/:id
func (h *ConfectioneryHandler) DeleteConfectionery(c *gin.Context) {
	id, ok := parseID(c, "confectionery")
	if !ok {
		return
	}

	if err := h.confectioneryService.DeleteConfectionery(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// bindRequest accepts a JSON body or a form post using address[...] keys.
func (h *ConfectioneryHandler) bindRequest(c *gin.Context) (*services.ConfectioneryRequest, bool) {
	var req services.ConfectioneryRequest

	if isJSON(c) {
		if !bindJSON(c, &req, "") {
			return nil, false
		}
		return &req, true
	}

	var errs formErrors
	req.Name = formString(c, "name")
	req.Phone = formString(c, "phone")
	req.Latitude = errs.float(c, "latitude")
	req.Longitude = errs.float(c, "longitude")
	req.HasMap = errs.boolean(c, "has_map")

	address := services.AddressRequest{
		CEP:          formString(c, "address[cep]"),
		Street:       formString(c, "address[street]"),
		Number:       formString(c, "address[number]"),
		Neighborhood: formString(c, "address[neighborhood]"),
		State:        formString(c, "address[state]"),
		City:         formString(c, "address[city]"),
	}
	if address != (services.AddressRequest{}) {
		req.Address = &address
	}

	if len(errs) > 0 {
		respondError(c, apperrors.Validation(errs...))
		return nil, false
	}
	return &req, true
}
