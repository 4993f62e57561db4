package usecase

import (
	"time"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/google/uuid"
)

// PRODUCT USECASE

// ProductReq — запрос на создание или полное обновление продукта.
// StockQuantity опционально: при наличии остаток перезаписывается с фиксацией времени.
type ProductReq struct {
	Name          string
	Price         int64 // цена в копейках
	CategoryID    int64
	StockQuantity *int64
}

// ProductRes — проекция продукта с денормализованной категорией для внешнего использования.
type ProductRes struct {
	ID                 int64
	Name               string
	Price              int64
	CategoryID         int64
	CategoryName       string
	StockQuantity      int64
	LastStockUpdatedAt *time.Time
	Status             domain.ProductStatus
}

// InventoryRes — состояние остатка одного продукта.
type InventoryRes struct {
	ProductID          int64
	StockQuantity      int64
	LastStockUpdatedAt *time.Time
}

// SearchProductsReq — набор необязательных фильтров поиска с пагинацией и сортировкой.
// Отсутствующий фильтр не накладывает ограничений; присутствующие объединяются по И.
type SearchProductsReq struct {
	Keyword             *string
	CategoryID          *int64
	MinPrice            *int64
	MaxPrice            *int64
	Status              *domain.ProductStatus
	IncludeDiscontinued bool
	Page                int
	PageSize            int
	SortField           string
	SortAsc             bool
}

// SearchProductsRes — страница результатов поиска с метаданными о полном объёме.
type SearchProductsRes struct {
	Products   []ProductRes
	Page       int
	PageSize   int
	TotalCount int64
	TotalPages int
}

// ProductWithCategory — продукт вместе с разрешённой категорией, как его отдают read-пути репозитория.
type ProductWithCategory struct {
	Product  domain.Product
	Category domain.Category
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	ProductCreated          OutboxEventType = "product_created"
	ProductUpdated          OutboxEventType = "product_updated"
	ProductDeleted          OutboxEventType = "product_deleted"
	ProductStatusChanged    OutboxEventType = "product_status_changed"
	ProductInventoryUpdated OutboxEventType = "product_inventory_updated"
)

// OutboxEvent — событие изменения каталога, ожидающее публикации в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// INFRASTRUCTURE

type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

// MAPPERS

// NewProductRes — единая функция проекции продукта и его категории в ответ.
// Используется всеми read- и write-путями, чтобы форма ответа не расходилась.
func NewProductRes(p *domain.Product, c *domain.Category) ProductRes {
	return ProductRes{
		ID:                 p.ID,
		Name:               p.Name,
		Price:              p.Price,
		CategoryID:         c.ID,
		CategoryName:       c.Name,
		StockQuantity:      p.StockQuantity,
		LastStockUpdatedAt: p.LastStockUpdatedAt,
		Status:             p.Status,
	}
}

func NewInventoryRes(p *domain.Product) InventoryRes {
	return InventoryRes{
		ProductID:          p.ID,
		StockQuantity:      p.StockQuantity,
		LastStockUpdatedAt: p.LastStockUpdatedAt,
	}
}

func NewOutboxEvent(eventType OutboxEventType, productID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now(),
	}
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
