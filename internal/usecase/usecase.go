package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-service/internal/domain"
)

type ProductUC interface {
	Create(ctx context.Context, req *ProductReq) (*ProductRes, error)
	GetByID(ctx context.Context, id int64) (*ProductRes, error)
	Update(ctx context.Context, id int64, req *ProductReq) (*ProductRes, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, req *SearchProductsReq) (*SearchProductsRes, error)
	GetInventory(ctx context.Context, id int64) (*InventoryRes, error)
	UpdateInventory(ctx context.Context, id int64, newQuantity int64) (*InventoryRes, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ProductStatus) (*ProductRes, error)
}
