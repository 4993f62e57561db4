package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/pkg/e"
)

func TestParsePriceToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "whole number", input: "600", want: 60000},
		{name: "two decimals", input: "599.99", want: 59999},
		{name: "one decimal", input: "10.5", want: 1050},
		{name: "zero", input: "0", want: 0},
		{name: "empty", input: "", wantErr: e.ErrMissingFields},
		{name: "garbage", input: "abc", wantErr: e.ErrInvalidPrice},
		{name: "negative", input: "-1", wantErr: e.ErrInvalidPrice},
		{name: "three decimals", input: "9.999", wantErr: e.ErrPricePrecision},
		{name: "over limit", input: "100000000001", wantErr: e.ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePriceToCents(tt.input)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("parsePriceToCents(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePriceToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parsePriceToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderPrice(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{59999, "599.99"},
		{60000, "600.00"},
		{5, "0.05"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		if got := renderPrice(tt.cents); got != tt.want {
			t.Errorf("renderPrice(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestParseSearchReq(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/api/v1/products?keyword=phone&categoryId=3&minPrice=10&maxPrice=99.50&status=PAUSED&includeDiscontinued=true&page=2&size=20&sort=price,asc", nil)

	req, err := parseSearchReq(r)
	if err != nil {
		t.Fatalf("parseSearchReq: %v", err)
	}

	if req.Keyword == nil || *req.Keyword != "phone" {
		t.Errorf("keyword = %v, want phone", req.Keyword)
	}
	if req.CategoryID == nil || *req.CategoryID != 3 {
		t.Errorf("categoryId = %v, want 3", req.CategoryID)
	}
	if req.MinPrice == nil || *req.MinPrice != 1000 {
		t.Errorf("minPrice = %v, want 1000", req.MinPrice)
	}
	if req.MaxPrice == nil || *req.MaxPrice != 9950 {
		t.Errorf("maxPrice = %v, want 9950", req.MaxPrice)
	}
	if req.Status == nil || *req.Status != domain.StatusPaused {
		t.Errorf("status = %v, want PAUSED", req.Status)
	}
	if !req.IncludeDiscontinued {
		t.Error("includeDiscontinued = false, want true")
	}
	if req.Page != 2 || req.PageSize != 20 {
		t.Errorf("page/size = %d/%d, want 2/20", req.Page, req.PageSize)
	}
	if req.SortField != "price" || !req.SortAsc {
		t.Errorf("sort = %q asc=%v, want price asc", req.SortField, req.SortAsc)
	}
}

func TestParseSearchReqEmpty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)

	req, err := parseSearchReq(r)
	if err != nil {
		t.Fatalf("parseSearchReq: %v", err)
	}

	if req.Keyword != nil || req.CategoryID != nil || req.MinPrice != nil || req.MaxPrice != nil || req.Status != nil {
		t.Error("expected all filters unset")
	}
	if req.IncludeDiscontinued {
		t.Error("includeDiscontinued must default to false")
	}
	if req.SortField != "" || req.SortAsc {
		t.Errorf("sort must default to empty/desc, got %q asc=%v", req.SortField, req.SortAsc)
	}
}

func TestParseSearchReqInvalid(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "bad categoryId", query: "categoryId=abc"},
		{name: "negative minPrice", query: "minPrice=-5"},
		{name: "unknown status", query: "status=BROKEN"},
		{name: "negative page", query: "page=-1"},
		{name: "zero size", query: "size=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/products?"+tt.query, nil)
			if _, err := parseSearchReq(r); err == nil {
				t.Errorf("parseSearchReq(%q) expected error", tt.query)
			}
		})
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		input     string
		wantField string
		wantAsc   bool
	}{
		{"", "", false},
		{"price", "price", false},
		{"price,asc", "price", true},
		{"price,desc", "price", false},
		{"name,ASC", "name", true},
	}

	for _, tt := range tests {
		field, asc := parseSort(tt.input)
		if field != tt.wantField || asc != tt.wantAsc {
			t.Errorf("parseSort(%q) = %q/%v, want %q/%v", tt.input, field, asc, tt.wantField, tt.wantAsc)
		}
	}
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "product not found", err: e.ProductNotFound(7), wantCode: http.StatusNotFound},
		{name: "category not found", err: e.CategoryNotFound(2), wantCode: http.StatusNotFound},
		{name: "not usable", err: e.ProductNotUsable("PAUSED"), wantCode: http.StatusConflict},
		{name: "negative stock", err: e.ErrNegativeStock, wantCode: http.StatusBadRequest},
		{name: "price range", err: e.ErrPriceRange, wantCode: http.StatusBadRequest},
		{name: "name too long", err: e.ErrProductNameTooLong, wantCode: http.StatusBadRequest},
		{name: "unknown sort", err: e.ErrInvalidSortField, wantCode: http.StatusBadRequest},
		{name: "wrapped", err: e.Wrap("ProductUseCase.GetByID", e.ProductNotFound(7)), wantCode: http.StatusNotFound},
		{name: "opaque", err: e.ErrInternalServerError, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := ToHTTPResponse(tt.err)
			if code != tt.wantCode {
				t.Errorf("ToHTTPResponse(%v) code = %d, want %d", tt.err, code, tt.wantCode)
			}
			if msg == "" {
				t.Error("message must not be empty")
			}
		})
	}
}
