package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/internal/usecase"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ProductRequest — тело запроса на создание/полное обновление продукта.
type ProductRequest struct {
	Name          string      `json:"name"`
	Price         json.Number `json:"price"`
	CategoryID    int64       `json:"categoryId"`
	StockQuantity *int64      `json:"stockQuantity"`
}

// InventoryRequest — тело запроса на замену остатка.
type InventoryRequest struct {
	NewQuantity *int64 `json:"newQuantity"`
}

// StatusRequest — тело запроса на смену статуса.
type StatusRequest struct {
	Status string `json:"status"`
}

// ProductResponse — проекция продукта в ответе API.
type ProductResponse struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Price              string     `json:"price"`
	CategoryID         int64      `json:"categoryId"`
	CategoryName       string     `json:"categoryName"`
	StockQuantity      int64      `json:"stockQuantity"`
	LastStockUpdatedAt *time.Time `json:"lastStockUpdatedAt,omitempty"`
	Status             string     `json:"status"`
}

// InventoryResponse — состояние остатка продукта в ответе API.
type InventoryResponse struct {
	ProductID          int64      `json:"productId"`
	StockQuantity      int64      `json:"stockQuantity"`
	LastStockUpdatedAt *time.Time `json:"lastStockUpdatedAt,omitempty"`
}

// PageResponse — страница результатов поиска с метаданными.
type PageResponse struct {
	Content       []ProductResponse `json:"content"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrCategoryNotFound):
		return http.StatusNotFound, e.ErrCategoryNotFound.Error()
	case errors.Is(err, e.ErrProductNotUsable):
		return http.StatusConflict, e.ErrProductNotUsable.Error()
	case errors.Is(err, e.ErrProductNameRequired):
		return http.StatusBadRequest, e.ErrProductNameRequired.Error()
	case errors.Is(err, e.ErrProductNameTooLong):
		return http.StatusBadRequest, e.ErrProductNameTooLong.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrNegativeStock):
		return http.StatusBadRequest, e.ErrNegativeStock.Error()
	case errors.Is(err, e.ErrPriceRange):
		return http.StatusBadRequest, e.ErrPriceRange.Error()
	case errors.Is(err, e.ErrInvalidStatus):
		return http.StatusBadRequest, e.ErrInvalidStatus.Error()
	case errors.Is(err, e.ErrInvalidSortField):
		return http.StatusBadRequest, e.ErrInvalidSortField.Error()
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parsePriceToCents converts a string like "599.99" or "600" to int64 cents.
// Returns error if:
// - invalid format
// - more than 2 decimal places
// - negative value
// - exceeds reasonable limit (e.g. 10^9 rubles)
func parsePriceToCents(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrMissingFields
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	// Reject negative
	if d.LessThan(decimal.Zero) {
		return 0, e.ErrInvalidPrice
	}

	// Enforce max value (1 billion rub in cents)
	maxPrice := decimal.NewFromInt(1_000_000_000).Mul(decimal.NewFromInt(100))
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	// Check decimal places
	if d.Exponent() < -2 {
		return 0, e.ErrPricePrecision
	}

	// Convert to cents: multiply by 100 and round
	cents := d.Mul(decimal.NewFromInt(100)).Round(0)

	return cents.IntPart(), nil
}

// renderPrice форматирует цену из копеек в строку с двумя знаками после запятой.
func renderPrice(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// parseProductReq переводит тело запроса в usecase-модель, проверяя обязательные поля и формат цены.
func parseProductReq(body *ProductRequest) (*usecase.ProductReq, error) {
	if body.Name == "" || body.Price.String() == "" || body.CategoryID == 0 {
		return nil, e.ErrMissingFields
	}

	priceCents, err := parsePriceToCents(body.Price.String())
	if err != nil {
		return nil, err
	}

	return &usecase.ProductReq{
		Name:          body.Name,
		Price:         priceCents,
		CategoryID:    body.CategoryID,
		StockQuantity: body.StockQuantity,
	}, nil
}

// parseSearchReq собирает фильтры поиска из query-параметров.
// Параметр sort имеет вид "<поле>,<asc|desc>", по умолчанию "id,desc".
func parseSearchReq(r *http.Request) (*usecase.SearchProductsReq, error) {
	q := r.URL.Query()
	req := &usecase.SearchProductsReq{}

	if v := q.Get("keyword"); v != "" {
		req.Keyword = &v
	}

	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, e.ErrStatusBadRequest
		}
		req.CategoryID = &id
	}

	if v := q.Get("minPrice"); v != "" {
		cents, err := parsePriceToCents(v)
		if err != nil {
			return nil, err
		}
		req.MinPrice = &cents
	}

	if v := q.Get("maxPrice"); v != "" {
		cents, err := parsePriceToCents(v)
		if err != nil {
			return nil, err
		}
		req.MaxPrice = &cents
	}

	if v := q.Get("status"); v != "" {
		status, ok := domain.ParseProductStatus(v)
		if !ok {
			return nil, e.ErrInvalidStatus
		}
		req.Status = &status
	}

	if v := q.Get("includeDiscontinued"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return nil, e.ErrStatusBadRequest
		}
		req.IncludeDiscontinued = include
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 0 {
			return nil, e.ErrStatusBadRequest
		}
		req.Page = page
	}

	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return nil, e.ErrStatusBadRequest
		}
		req.PageSize = size
	}

	req.SortField, req.SortAsc = parseSort(q.Get("sort"))

	return req, nil
}

// parseSort разбирает параметр сортировки; направление по умолчанию — убывание.
func parseSort(v string) (field string, asc bool) {
	if v == "" {
		return "", false
	}

	parts := strings.Split(v, ",")
	field = parts[0]
	asc = len(parts) > 1 && strings.EqualFold(parts[1], "asc")
	return field, asc
}

// parseID извлекает идентификатор продукта из пути запроса.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, e.ErrStatusBadRequest
	}

	return id, nil
}

func toProductResponse(res *usecase.ProductRes) ProductResponse {
	return ProductResponse{
		ID:                 res.ID,
		Name:               res.Name,
		Price:              renderPrice(res.Price),
		CategoryID:         res.CategoryID,
		CategoryName:       res.CategoryName,
		StockQuantity:      res.StockQuantity,
		LastStockUpdatedAt: res.LastStockUpdatedAt,
		Status:             string(res.Status),
	}
}

func toInventoryResponse(res *usecase.InventoryRes) InventoryResponse {
	return InventoryResponse{
		ProductID:          res.ProductID,
		StockQuantity:      res.StockQuantity,
		LastStockUpdatedAt: res.LastStockUpdatedAt,
	}
}

func toPageResponse(res *usecase.SearchProductsRes) PageResponse {
	content := make([]ProductResponse, 0, len(res.Products))
	for i := range res.Products {
		content = append(content, toProductResponse(&res.Products[i]))
	}

	return PageResponse{
		Content:       content,
		Page:          res.Page,
		Size:          res.PageSize,
		TotalElements: res.TotalCount,
		TotalPages:    res.TotalPages,
	}
}
