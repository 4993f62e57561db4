package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/catalog-service/internal/domain"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	UpdateStock(ctx context.Context, id int64, quantity int64, updatedAt time.Time) (*domain.Product, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ProductStatus) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByIDWithCategory(ctx context.Context, id int64) (*ProductWithCategory, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, req *SearchProductsReq) ([]ProductWithCategory, int64, error)
}

type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
}

type CacheRepository interface {
	GetProduct(ctx context.Context, id int64) (*ProductRes, error)
	SetProduct(ctx context.Context, product *ProductRes) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}
