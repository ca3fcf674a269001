// internal/handlers/address.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/confectionery-backend/internal/services"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

type AddressHandler struct {
	postal services.PostalLookup
}

func NewAddressHandler(postal services.PostalLookup) *AddressHandler {
	return &AddressHandler{postal: postal}
}

// GET /address/cep/:cep
func (h *AddressHandler) LookupCEP(c *gin.Context) {
	fields, err := h.postal.Lookup(c.Request.Context(), c.Param("cep"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, fields)
}
