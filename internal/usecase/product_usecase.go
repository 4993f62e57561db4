package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/DRSN-tech/catalog-service/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

const (
	maxNameLength = 200

	defaultSortField = "id"
	defaultPageSize  = 10
	maxPageSize      = 100
)

// ProductUseCase реализует бизнес-логику управления каталогом продуктов:
// CRUD, учёт остатков, смену статуса и поиск.
type ProductUseCase struct {
	productRepo  ProductRepository
	categoryRepo CategoryRepository
	outboxRepo   OutboxRepository
	cacheRepo    CacheRepository
	dbPool       transaction.Transactional
	logger       logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		outboxRepo:   outboxRepo,
		cacheRepo:    cacheRepo,
		dbPool:       dbPool,
		logger:       logger,
	}
}

// Create создаёт продукт в статусе ACTIVE, предварительно проверив,
// что категория существует. Запись продукта и outbox-событие фиксируются одной транзакцией.
func (p *ProductUseCase) Create(ctx context.Context, req *ProductReq) (*ProductRes, error) {
	const op = "ProductUseCase.Create"

	var err error
	if err = validateProductReq(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	category, err := p.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product := domain.NewProduct(req.Name, req.Price, category.ID)
	if req.StockQuantity != nil {
		now := time.Now()
		product.StockQuantity = *req.StockQuantity
		product.LastStockUpdatedAt = &now
	}

	product, err = p.productRepo.Create(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = p.appendOutboxEvent(ctx, ProductCreated, product); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	res := NewProductRes(product, category)
	return &res, nil
}

// GetByID возвращает проекцию продукта, предпочитая кэш и добиваясь его фонового наполнения при промахе.
func (p *ProductUseCase) GetByID(ctx context.Context, id int64) (*ProductRes, error) {
	const op = "ProductUseCase.GetByID"

	if cached, err := p.cacheRepo.GetProduct(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	pwc, err := p.productRepo.GetByIDWithCategory(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := NewProductRes(&pwc.Product, &pwc.Category)

	// Фоновое добавление продукта в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProduct(bgCtx, &res); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return &res, nil
}

// Update полностью перезаписывает имя, цену и категорию продукта; остаток — только если передан.
// Операция запрещена для продуктов в статусах PAUSED и DISCONTINUED; статус не меняется.
func (p *ProductUseCase) Update(ctx context.Context, id int64, req *ProductReq) (*ProductRes, error) {
	const op = "ProductUseCase.Update"

	var err error
	if err = validateProductReq(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !product.Status.CanAcceptNewOperations() {
		err = e.ProductNotUsable(string(product.Status))
		return nil, e.Wrap(op, err)
	}

	category, err := p.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product.Name = req.Name
	product.Price = req.Price
	product.CategoryID = category.ID
	if req.StockQuantity != nil {
		now := time.Now()
		product.StockQuantity = *req.StockQuantity
		product.LastStockUpdatedAt = &now
	}

	product, err = p.productRepo.Update(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = p.appendOutboxEvent(ctx, ProductUpdated, product); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx, id)

	res := NewProductRes(product, category)
	return &res, nil
}

// Delete безусловно удаляет продукт: статус жизненного цикла удаление не блокирует.
func (p *ProductUseCase) Delete(ctx context.Context, id int64) error {
	const op = "ProductUseCase.Delete"

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	exists, err := p.productRepo.Exists(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !exists {
		err = e.ProductNotFound(id)
		return e.Wrap(op, err)
	}

	if err = p.appendOutboxEvent(ctx, ProductDeleted, &domain.Product{ID: id}); err != nil {
		return e.Wrap(op, err)
	}

	if err = p.productRepo.Delete(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	p.invalidateCache(ctx, id)

	return nil
}

// Search выполняет поиск по произвольной комбинации фильтров.
// Диапазон цен проверяется до обращения к хранилищу.
func (p *ProductUseCase) Search(ctx context.Context, req *SearchProductsReq) (*SearchProductsRes, error) {
	const op = "ProductUseCase.Search"

	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, e.Wrap(op, e.ErrPriceRange)
	}

	normalizeSearchReq(req)

	products, total, err := p.productRepo.Search(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result := make([]ProductRes, 0, len(products))
	for i := range products {
		result = append(result, NewProductRes(&products[i].Product, &products[i].Category))
	}

	return &SearchProductsRes{
		Products:   result,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalCount: total,
		TotalPages: totalPages(total, req.PageSize),
	}, nil
}

// GetInventory возвращает состояние остатка продукта.
func (p *ProductUseCase) GetInventory(ctx context.Context, id int64) (*InventoryRes, error) {
	const op = "ProductUseCase.GetInventory"

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := NewInventoryRes(product)
	return &res, nil
}

// UpdateInventory заменяет остаток продукта новым значением с фиксацией времени изменения.
// Это перезапись, а не дельта; операция закрыта для PAUSED и DISCONTINUED.
func (p *ProductUseCase) UpdateInventory(ctx context.Context, id int64, newQuantity int64) (*InventoryRes, error) {
	const op = "ProductUseCase.UpdateInventory"

	var err error
	if newQuantity < 0 {
		return nil, e.Wrap(op, e.ErrNegativeStock)
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !product.Status.CanAcceptNewOperations() {
		err = e.ProductNotUsable(string(product.Status))
		return nil, e.Wrap(op, err)
	}

	product, err = p.productRepo.UpdateStock(ctx, id, newQuantity, time.Now())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = p.appendOutboxEvent(ctx, ProductInventoryUpdated, product); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx, id)

	res := NewInventoryRes(product)
	return &res, nil
}

// UpdateStatus перезаписывает статус продукта. Переходы не ограничены:
// продукт в любом статусе может быть переведён в любой другой, поля остатка не затрагиваются.
func (p *ProductUseCase) UpdateStatus(ctx context.Context, id int64, status domain.ProductStatus) (*ProductRes, error) {
	const op = "ProductUseCase.UpdateStatus"

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	pwc, err := p.productRepo.GetByIDWithCategory(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product, err := p.productRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = p.appendOutboxEvent(ctx, ProductStatusChanged, product); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx, id)

	res := NewProductRes(product, &pwc.Category)
	return &res, nil
}

// productChangePayload — JSON-тело outbox-события изменения каталога.
type productChangePayload struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name,omitempty"`
	Price         int64  `json:"price,omitempty"`
	CategoryID    int64  `json:"category_id,omitempty"`
	StockQuantity int64  `json:"stock_quantity"`
	Status        string `json:"status,omitempty"`
	OccurredAt    int64  `json:"occurred_at"`
}

// appendOutboxEvent добавляет событие изменения в outbox внутри текущей транзакции.
func (p *ProductUseCase) appendOutboxEvent(ctx context.Context, eventType OutboxEventType, product *domain.Product) error {
	payload, err := json.Marshal(productChangePayload{
		ProductID:     product.ID,
		Name:          product.Name,
		Price:         product.Price,
		CategoryID:    product.CategoryID,
		StockQuantity: product.StockQuantity,
		Status:        string(product.Status),
		OccurredAt:    time.Now().UnixNano(),
	})
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(eventType, product.ID, payload))
	return err
}

// invalidateCache удаляет устаревшую проекцию продукта из кэша после успешного коммита.
func (p *ProductUseCase) invalidateCache(ctx context.Context, id int64) {
	if err := p.cacheRepo.DeleteProducts(ctx, []int64{id}); err != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", err)
	}
}

// validateProductReq проверяет корректность входных данных запроса на создание/обновление продукта.
func validateProductReq(req *ProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if utf8.RuneCountInString(req.Name) > maxNameLength {
		return e.ErrProductNameTooLong
	}

	if req.Price < 0 {
		return e.ErrInvalidPrice
	}

	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return e.ErrNegativeStock
	}

	return nil
}

// normalizeSearchReq подставляет значения по умолчанию для пагинации и сортировки.
func normalizeSearchReq(req *SearchProductsReq) {
	if req.Page < 0 {
		req.Page = 0
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	if req.SortField == "" {
		req.SortField = defaultSortField
		req.SortAsc = false
	}
}

func totalPages(total int64, pageSize int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
