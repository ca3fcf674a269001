// internal/handlers/product.go
package handlers

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/javajoker/confectionery-backend/internal/apperrors"
	"github.com/javajoker/confectionery-backend/internal/i18n"
	"github.com/javajoker/confectionery-backend/internal/services"
	"github.com/javajoker/confectionery-backend/internal/utils"
)

var imageFormKeys = []string{"images[]", "images"}

type ProductHandler struct {
	productService *services.ProductService
	maxImageSize   int64
}

func NewProductHandler(productService *services.ProductService, maxImageSize int64) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		maxImageSize:   maxImageSize,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	// Build search parameters
	searchParams := services.ProductSearchParams{
		PaginationParams: params,
	}

	if idStr := strings.TrimSpace(c.Query("confectionery_id")); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			respondError(c, apperrors.FieldError("confectionery_id", "integer", "confectionery_id must be an integer"))
			return
		}
		confectioneryID := uint(id)
		searchParams.ConfectioneryID = &confectioneryID
	}

	products, total, err := h.productService.SearchProducts(c.Request.Context(), searchParams)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// PUT/PATCH /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// bindRequest accepts a JSON body or a (multipart) form carrying images.
func (h *ProductHandler) bindRequest(c *gin.Context) (*services.ProductRequest, bool) {
	var req services.ProductRequest

	if isJSON(c) {
		if !bindJSON(c, &req, "price") {
			return nil, false
		}
		return &req, true
	}

	var errs formErrors
	req.Name = formString(c, "name")
	req.Description = formString(c, "description")
	req.ConfectioneryID = errs.id(c, "confectionery_id")

	if raw := formString(c, "price"); raw != nil && strings.TrimSpace(*raw) != "" {
		price, err := parsePrice(*raw)
		if err != nil {
			errs = append(errs, utils.ValidationError{Field: "price", Tag: "numeric", Message: "price must be a number"})
		} else {
			req.Price = &price
		}
	}

	if len(errs) > 0 {
		respondError(c, apperrors.Validation(errs...))
		return nil, false
	}

	images, err := h.readImages(c)
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "images"), nil)
		return nil, false
	}
	req.Images = images

	return &req, true
}

// parsePrice accepts "89.90" and the Brazilian "89,90".
func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	return decimal.NewFromString(raw)
}

func (h *ProductHandler) readImages(c *gin.Context) ([]services.ImageFile, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	var images []services.ImageFile
	for _, key := range imageFormKeys {
		for _, header := range form.File[key] {
			image, err := h.readImage(header)
			if err != nil {
				return nil, err
			}
			images = append(images, image)
		}
	}
	return images, nil
}

// readImage reads at most one byte past the size limit so the image store
// can still tell the file is too large.
func (h *ProductHandler) readImage(header *multipart.FileHeader) (services.ImageFile, error) {
	file, err := header.Open()
	if err != nil {
		return services.ImageFile{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		return services.ImageFile{}, err
	}

	return services.ImageFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
