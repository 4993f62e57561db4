package converter

import (
	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/internal/usecase"
)

// ProductConverter преобразует проекцию продукта между usecase и моделью кэша.
type ProductConverter struct{}

func NewProductConverter() ProductConverter {
	return ProductConverter{}
}

func (ProductConverter) ToRedisModel(entity *usecase.ProductRes) *ProductRedisModel {
	return &ProductRedisModel{
		ID:                 entity.ID,
		Name:               entity.Name,
		Price:              entity.Price,
		CategoryID:         entity.CategoryID,
		CategoryName:       entity.CategoryName,
		StockQuantity:      entity.StockQuantity,
		LastStockUpdatedAt: entity.LastStockUpdatedAt,
		Status:             string(entity.Status),
	}
}

func (ProductConverter) ToUseCase(model *ProductRedisModel) *usecase.ProductRes {
	return &usecase.ProductRes{
		ID:                 model.ID,
		Name:               model.Name,
		Price:              model.Price,
		CategoryID:         model.CategoryID,
		CategoryName:       model.CategoryName,
		StockQuantity:      model.StockQuantity,
		LastStockUpdatedAt: model.LastStockUpdatedAt,
		Status:             domain.ProductStatus(model.Status),
	}
}
