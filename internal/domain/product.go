package domain

import "time"

// Product описывает продукт каталога
type Product struct {
	ID                 int64
	Name               string
	Price              int64 // Цена хранится в копейках
	StockQuantity      int64
	LastStockUpdatedAt *time.Time // Заполняется только при изменении остатка
	Status             ProductStatus
	CategoryID         int64
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

func NewProduct(name string, price int64, categoryID int64) *Product {
	return &Product{
		Name:       name,
		Price:      price,
		CategoryID: categoryID,
		Status:     StatusActive,
	}
}
