package converter

import "time"

// ProductRedisModel — JSON-представление проекции продукта в кэше.
type ProductRedisModel struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Price              int64      `json:"price"`
	CategoryID         int64      `json:"category_id"`
	CategoryName       string     `json:"category_name"`
	StockQuantity      int64      `json:"stock_quantity"`
	LastStockUpdatedAt *time.Time `json:"last_stock_updated_at,omitempty"`
	Status             string     `json:"status"`
}
