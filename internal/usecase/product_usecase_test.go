package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/jackc/pgx/v5"
)

// --- фейки ---

type fakeTx struct {
	pgx.Tx
	commits   *int
	rollbacks *int
}

func (t fakeTx) Commit(ctx context.Context) error {
	*t.commits++
	return nil
}

func (t fakeTx) Rollback(ctx context.Context) error {
	*t.rollbacks++
	return nil
}

type fakePool struct {
	begins    int
	commits   int
	rollbacks int
}

func (p *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.BeginTx(ctx, pgx.TxOptions{})
}

func (p *fakePool) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	p.begins++
	return fakeTx{commits: &p.commits, rollbacks: &p.rollbacks}, nil
}

type fakeProductRepo struct {
	mu          sync.Mutex
	products    map[int64]*domain.Product
	categories  map[int64]*domain.Category
	nextID      int64
	updateCalls int
	stockCalls  int
	searchCalls int
}

func newFakeProductRepo(categories map[int64]*domain.Category) *fakeProductRepo {
	return &fakeProductRepo{
		products:   make(map[int64]*domain.Product),
		categories: categories,
	}
}

func (f *fakeProductRepo) Create(_ context.Context, product *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	stored := *product
	stored.ID = f.nextID
	now := time.Now()
	stored.CreatedAt = now
	f.products[stored.ID] = &stored

	cp := stored
	return &cp, nil
}

func (f *fakeProductRepo) Update(_ context.Context, product *domain.Product) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updateCalls++
	if _, ok := f.products[product.ID]; !ok {
		return nil, e.ProductNotFound(product.ID)
	}

	stored := *product
	now := time.Now()
	stored.UpdatedAt = &now
	f.products[stored.ID] = &stored

	cp := stored
	return &cp, nil
}

func (f *fakeProductRepo) UpdateStock(_ context.Context, id int64, quantity int64, updatedAt time.Time) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stockCalls++
	stored, ok := f.products[id]
	if !ok {
		return nil, e.ProductNotFound(id)
	}

	stored.StockQuantity = quantity
	stored.LastStockUpdatedAt = &updatedAt

	cp := *stored
	return &cp, nil
}

func (f *fakeProductRepo) UpdateStatus(_ context.Context, id int64, status domain.ProductStatus) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.products[id]
	if !ok {
		return nil, e.ProductNotFound(id)
	}

	stored.Status = status

	cp := *stored
	return &cp, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.products[id]
	if !ok {
		return nil, e.ProductNotFound(id)
	}

	cp := *stored
	return &cp, nil
}

func (f *fakeProductRepo) GetByIDWithCategory(ctx context.Context, id int64) (*ProductWithCategory, error) {
	product, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	category, ok := f.categories[product.CategoryID]
	if !ok {
		return nil, e.CategoryNotFound(product.CategoryID)
	}

	return &ProductWithCategory{Product: *product, Category: *category}, nil
}

func (f *fakeProductRepo) Exists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.products[id]
	return ok, nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[id]; !ok {
		return e.ProductNotFound(id)
	}

	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) Search(_ context.Context, req *SearchProductsReq) ([]ProductWithCategory, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searchCalls++

	var result []ProductWithCategory
	for _, p := range f.products {
		result = append(result, ProductWithCategory{
			Product:  *p,
			Category: *f.categories[p.CategoryID],
		})
	}

	return result, int64(len(result)), nil
}

type fakeCategoryRepo struct {
	categories map[int64]*domain.Category
}

func (f *fakeCategoryRepo) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, e.CategoryNotFound(id)
	}

	cp := *category
	return &cp, nil
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[int64]*ProductRes
	deleted []int64
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[int64]*ProductRes)}
}

func (f *fakeCacheRepo) GetProduct(_ context.Context, id int64) (*ProductRes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.entries[id], nil
}

func (f *fakeCacheRepo) SetProduct(_ context.Context, product *ProductRes) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *product
	f.entries[product.ID] = &cp
	return nil
}

func (f *fakeCacheRepo) DeleteProducts(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		delete(f.entries, id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *OutboxEvent) (*OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *event
	cp.ID = int64(len(f.events) + 1)
	f.events = append(f.events, &cp)
	return &cp, nil
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	return nil
}

func (f *fakeOutboxRepo) lastEventType() OutboxEventType {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1].EventType
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...any)            {}
func (noopLogger) Infof(format string, args ...any)             {}
func (noopLogger) Warnf(format string, args ...any)             {}
func (noopLogger) Errorf(err error, format string, args ...any) {}

type fixture struct {
	uc     *ProductUseCase
	repo   *fakeProductRepo
	cache  *fakeCacheRepo
	outbox *fakeOutboxRepo
	pool   *fakePool
}

func newFixture() *fixture {
	categories := map[int64]*domain.Category{
		1: {ID: 1, Name: "Электроника"},
		2: {ID: 2, Name: "Книги"},
	}

	repo := newFakeProductRepo(categories)
	cache := newFakeCacheRepo()
	outbox := &fakeOutboxRepo{}
	pool := &fakePool{}

	uc := NewProductUC(
		repo,
		&fakeCategoryRepo{categories: categories},
		outbox,
		cache,
		pool,
		noopLogger{},
	)

	return &fixture{uc: uc, repo: repo, cache: cache, outbox: outbox, pool: pool}
}

func (f *fixture) mustCreate(t *testing.T, stock *int64) *ProductRes {
	t.Helper()

	res, err := f.uc.Create(context.Background(), &ProductReq{
		Name:          "Ноутбук",
		Price:         9999900,
		CategoryID:    1,
		StockQuantity: stock,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return res
}

func ptr[T any](v T) *T { return &v }

// --- тесты ---

func TestCreateProduct(t *testing.T) {
	f := newFixture()

	res := f.mustCreate(t, ptr(int64(5)))

	if res.ID == 0 {
		t.Error("created product must get an id")
	}
	if res.Status != domain.StatusActive {
		t.Errorf("status = %s, want ACTIVE", res.Status)
	}
	if res.StockQuantity != 5 {
		t.Errorf("stockQuantity = %d, want 5", res.StockQuantity)
	}
	if res.LastStockUpdatedAt == nil {
		t.Error("lastStockUpdatedAt must be set when initial stock is provided")
	}
	if res.CategoryName != "Электроника" {
		t.Errorf("categoryName = %q", res.CategoryName)
	}
	if got := f.outbox.lastEventType(); got != ProductCreated {
		t.Errorf("outbox event = %s, want %s", got, ProductCreated)
	}
	if f.pool.commits != 1 {
		t.Errorf("commits = %d, want 1", f.pool.commits)
	}
}

func TestCreateProductWithoutStock(t *testing.T) {
	f := newFixture()

	res := f.mustCreate(t, nil)

	if res.StockQuantity != 0 {
		t.Errorf("stockQuantity = %d, want 0", res.StockQuantity)
	}
	if res.LastStockUpdatedAt != nil {
		t.Error("lastStockUpdatedAt must stay empty until stock is touched")
	}
}

func TestCreateProductUnknownCategory(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Create(context.Background(), &ProductReq{
		Name:       "Ноутбук",
		Price:      100,
		CategoryID: 99,
	})
	if !errors.Is(err, e.ErrCategoryNotFound) {
		t.Fatalf("err = %v, want ErrCategoryNotFound", err)
	}
	if len(f.repo.products) != 0 {
		t.Error("no product must be stored")
	}
	if len(f.outbox.events) != 0 {
		t.Error("no outbox event must be stored")
	}
	if f.pool.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", f.pool.rollbacks)
	}
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture()

	longName := make([]rune, 201)
	for i := range longName {
		longName[i] = 'я'
	}

	tests := []struct {
		name    string
		req     *ProductReq
		wantErr error
	}{
		{name: "empty name", req: &ProductReq{Name: "  ", Price: 100, CategoryID: 1}, wantErr: e.ErrProductNameRequired},
		{name: "name too long", req: &ProductReq{Name: string(longName), Price: 100, CategoryID: 1}, wantErr: e.ErrProductNameTooLong},
		{name: "negative price", req: &ProductReq{Name: "Ноутбук", Price: -1, CategoryID: 1}, wantErr: e.ErrInvalidPrice},
		{name: "negative stock", req: &ProductReq{Name: "Ноутбук", Price: 100, CategoryID: 1, StockQuantity: ptr(int64(-5))}, wantErr: e.ErrNegativeStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Create(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if f.pool.begins != 0 {
		t.Errorf("validation failures must not open transactions, begins = %d", f.pool.begins)
	}
	if len(f.repo.products) != 0 {
		t.Error("no product must be stored")
	}
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, ptr(int64(5)))

	res, err := f.uc.Update(context.Background(), created.ID, &ProductReq{
		Name:       "Ноутбук Pro",
		Price:      19999900,
		CategoryID: 2,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if res.Name != "Ноутбук Pro" || res.Price != 19999900 || res.CategoryID != 2 {
		t.Errorf("unexpected projection: %+v", res)
	}
	if res.StockQuantity != 5 {
		t.Errorf("stockQuantity = %d, want 5 (absent stock must be kept)", res.StockQuantity)
	}
	if got := f.outbox.lastEventType(); got != ProductUpdated {
		t.Errorf("outbox event = %s, want %s", got, ProductUpdated)
	}
}

func TestUpdateBlockedByLifecycle(t *testing.T) {
	for _, status := range []domain.ProductStatus{domain.StatusPaused, domain.StatusDiscontinued} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			created := f.mustCreate(t, nil)

			if _, err := f.uc.UpdateStatus(context.Background(), created.ID, status); err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}

			_, err := f.uc.Update(context.Background(), created.ID, &ProductReq{
				Name:       "Новое имя",
				Price:      100,
				CategoryID: 1,
			})
			if !errors.Is(err, e.ErrProductNotUsable) {
				t.Fatalf("err = %v, want ErrProductNotUsable", err)
			}
			if f.repo.updateCalls != 0 {
				t.Errorf("updateCalls = %d, want 0", f.repo.updateCalls)
			}

			stored, _ := f.repo.GetByID(context.Background(), created.ID)
			if stored.Name != "Ноутбук" {
				t.Errorf("stored name = %q, must stay unchanged", stored.Name)
			}
		})
	}
}

func TestUpdateNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Update(context.Background(), 42, &ProductReq{
		Name:       "Ноутбук",
		Price:      100,
		CategoryID: 1,
	})
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, nil)

	if err := f.uc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := f.outbox.lastEventType(); got != ProductDeleted {
		t.Errorf("outbox event = %s, want %s", got, ProductDeleted)
	}

	err := f.uc.Delete(context.Background(), created.ID)
	if !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("second delete err = %v, want ErrProductNotFound", err)
	}
}

func TestDeleteIgnoresLifecycle(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, nil)

	if _, err := f.uc.UpdateStatus(context.Background(), created.ID, domain.StatusDiscontinued); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if err := f.uc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete must not be blocked by status: %v", err)
	}
}

func TestUpdateInventory(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, ptr(int64(5)))
	before := *created.LastStockUpdatedAt

	res, err := f.uc.UpdateInventory(context.Background(), created.ID, 17)
	if err != nil {
		t.Fatalf("UpdateInventory: %v", err)
	}

	if res.StockQuantity != 17 {
		t.Errorf("stockQuantity = %d, want 17", res.StockQuantity)
	}
	if res.LastStockUpdatedAt == nil || res.LastStockUpdatedAt.Before(before) {
		t.Error("lastStockUpdatedAt must move forward")
	}
	if got := f.outbox.lastEventType(); got != ProductInventoryUpdated {
		t.Errorf("outbox event = %s, want %s", got, ProductInventoryUpdated)
	}
}

func TestUpdateInventoryNegative(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, ptr(int64(5)))
	begins := f.pool.begins

	_, err := f.uc.UpdateInventory(context.Background(), created.ID, -1)
	if !errors.Is(err, e.ErrNegativeStock) {
		t.Fatalf("err = %v, want ErrNegativeStock", err)
	}
	if f.pool.begins != begins {
		t.Error("negative quantity must be rejected before opening a transaction")
	}
	if f.repo.stockCalls != 0 {
		t.Errorf("stockCalls = %d, want 0", f.repo.stockCalls)
	}

	stored, _ := f.repo.GetByID(context.Background(), created.ID)
	if stored.StockQuantity != 5 {
		t.Errorf("stored stock = %d, must stay 5", stored.StockQuantity)
	}
}

func TestUpdateInventoryBlockedByLifecycle(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, ptr(int64(5)))

	if _, err := f.uc.UpdateStatus(context.Background(), created.ID, domain.StatusPaused); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	_, err := f.uc.UpdateInventory(context.Background(), created.ID, 10)
	if !errors.Is(err, e.ErrProductNotUsable) {
		t.Fatalf("err = %v, want ErrProductNotUsable", err)
	}
	if f.repo.stockCalls != 0 {
		t.Errorf("stockCalls = %d, want 0", f.repo.stockCalls)
	}
}

func TestGetInventory(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, ptr(int64(7)))

	res, err := f.uc.GetInventory(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if res.ProductID != created.ID || res.StockQuantity != 7 {
		t.Errorf("unexpected inventory: %+v", res)
	}

	if _, err := f.uc.GetInventory(context.Background(), 42); !errors.Is(err, e.ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}

func TestUpdateStatusUngated(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, ptr(int64(5)))

	// DISCONTINUED не блокирует смену статуса
	if _, err := f.uc.UpdateStatus(context.Background(), created.ID, domain.StatusDiscontinued); err != nil {
		t.Fatalf("UpdateStatus to DISCONTINUED: %v", err)
	}

	res, err := f.uc.UpdateStatus(context.Background(), created.ID, domain.StatusActive)
	if err != nil {
		t.Fatalf("UpdateStatus back to ACTIVE: %v", err)
	}
	if res.Status != domain.StatusActive {
		t.Errorf("status = %s, want ACTIVE", res.Status)
	}
	if res.StockQuantity != 5 {
		t.Errorf("stockQuantity = %d, status change must not touch stock", res.StockQuantity)
	}
	if got := f.outbox.lastEventType(); got != ProductStatusChanged {
		t.Errorf("outbox event = %s, want %s", got, ProductStatusChanged)
	}
}

func TestUpdateStatusIdempotent(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, nil)

	res, err := f.uc.UpdateStatus(context.Background(), created.ID, domain.StatusActive)
	if err != nil {
		t.Fatalf("UpdateStatus to same status: %v", err)
	}
	if res.Status != domain.StatusActive {
		t.Errorf("status = %s, want ACTIVE", res.Status)
	}
}

func TestSearchPriceRangeGuard(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, nil)

	_, err := f.uc.Search(context.Background(), &SearchProductsReq{
		MinPrice: ptr(int64(1000)),
		MaxPrice: ptr(int64(100)),
	})
	if !errors.Is(err, e.ErrPriceRange) {
		t.Fatalf("err = %v, want ErrPriceRange", err)
	}
	if f.repo.searchCalls != 0 {
		t.Errorf("searchCalls = %d, invalid range must not reach the store", f.repo.searchCalls)
	}
}

func TestSearchDefaults(t *testing.T) {
	f := newFixture()
	f.mustCreate(t, nil)

	req := &SearchProductsReq{Page: -1, PageSize: 0}
	res, err := f.uc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if res.Page != 0 || res.PageSize != defaultPageSize {
		t.Errorf("page/size = %d/%d, want 0/%d", res.Page, res.PageSize, defaultPageSize)
	}
	if res.TotalCount != 1 || res.TotalPages != 1 {
		t.Errorf("total = %d/%d pages, want 1/1", res.TotalCount, res.TotalPages)
	}
	if req.PageSize != defaultPageSize {
		t.Errorf("normalized size = %d, want %d", req.PageSize, defaultPageSize)
	}
}

func TestSearchPageSizeCap(t *testing.T) {
	f := newFixture()

	req := &SearchProductsReq{PageSize: 1000}
	if _, err := f.uc.Search(context.Background(), req); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if req.PageSize != maxPageSize {
		t.Errorf("size = %d, want capped to %d", req.PageSize, maxPageSize)
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}

	for _, tt := range tests {
		if got := totalPages(tt.total, tt.size); got != tt.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestGetByIDCacheHit(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, nil)

	f.cache.SetProduct(context.Background(), created)
	f.repo.mu.Lock()
	delete(f.repo.products, created.ID)
	f.repo.mu.Unlock()

	res, err := f.uc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if res.ID != created.ID {
		t.Errorf("id = %d, want %d", res.ID, created.ID)
	}
}

func TestMutationsInvalidateCache(t *testing.T) {
	f := newFixture()
	created := f.mustCreate(t, ptr(int64(5)))

	f.cache.SetProduct(context.Background(), created)

	if _, err := f.uc.UpdateInventory(context.Background(), created.ID, 10); err != nil {
		t.Fatalf("UpdateInventory: %v", err)
	}

	f.cache.mu.Lock()
	_, cached := f.cache.entries[created.ID]
	f.cache.mu.Unlock()
	if cached {
		t.Error("cache entry must be dropped after a mutation")
	}
}
