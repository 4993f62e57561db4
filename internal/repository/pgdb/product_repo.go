package pgdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/catalog-service/internal/usecase"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/DRSN-tech/catalog-service/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = "id, name, price, stock_quantity, last_stock_updated_at, status, category_id, created_at, updated_at"

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create вставляет новый продукт и возвращает запись с присвоенным идентификатором.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (name, price, stock_quantity, last_stock_updated_at, status, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns + `;
	`

	row := tx.QueryRow(ctx, query,
		product.Name,
		product.Price,
		product.StockQuantity,
		product.LastStockUpdatedAt,
		string(product.Status),
		product.CategoryID,
	)

	model, err := scanProduct(row)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// Update перезаписывает имя, цену, категорию и поля остатка продукта.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET name = $2,
			price = $3,
			category_id = $4,
			stock_quantity = $5,
			last_stock_updated_at = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns + `;
	`

	row := tx.QueryRow(ctx, query,
		product.ID,
		product.Name,
		product.Price,
		product.CategoryID,
		product.StockQuantity,
		product.LastStockUpdatedAt,
	)

	model, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ProductNotFound(product.ID))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// UpdateStock заменяет остаток продукта, не затрагивая остальные поля.
func (p *ProductRepo) UpdateStock(ctx context.Context, id int64, quantity int64, updatedAt time.Time) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET stock_quantity = $2,
			last_stock_updated_at = $3,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns + `;
	`

	model, err := scanProduct(tx.QueryRow(ctx, query, id, quantity, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ProductNotFound(id))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// UpdateStatus перезаписывает статус продукта, не затрагивая поля остатка.
func (p *ProductRepo) UpdateStatus(ctx context.Context, id int64, status domain.ProductStatus) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET status = $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns + `;
	`

	model, err := scanProduct(tx.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ProductNotFound(id))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// GetByID возвращает продукт по идентификатору без разрешения категории.
func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := tr.QuerierFromCtx(ctx, p.pool)

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1;`

	model, err := scanProduct(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ProductNotFound(id))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// GetByIDWithCategory возвращает продукт вместе с категорией для read-путей с проекцией.
func (p *ProductRepo) GetByIDWithCategory(ctx context.Context, id int64) (*usecase.ProductWithCategory, error) {
	q := tr.QuerierFromCtx(ctx, p.pool)

	query := `
		SELECT pr.id, pr.name, pr.price, pr.stock_quantity, pr.last_stock_updated_at,
			pr.status, pr.category_id, pr.created_at, pr.updated_at,
			cat.id, cat.name, cat.created_at, cat.updated_at
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = $1;
	`

	var (
		prModel  converter.ProductModel
		catModel converter.CategoryModel
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&prModel.ID, &prModel.Name, &prModel.Price, &prModel.StockQuantity, &prModel.LastStockUpdatedAt,
		&prModel.Status, &prModel.CategoryID, &prModel.CreatedAt, &prModel.UpdatedAt,
		&catModel.ID, &catModel.Name, &catModel.CreatedAt, &catModel.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ProductNotFound(id))
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catConv := converter.NewCategoryConverter()
	return &usecase.ProductWithCategory{
		Product:  *p.conv.ToEntity(&prModel),
		Category: *catConv.ToEntity(&catModel),
	}, nil
}

// Exists проверяет наличие продукта без чтения записи.
func (p *ProductRepo) Exists(ctx context.Context, id int64) (bool, error) {
	q := tr.QuerierFromCtx(ctx, p.pool)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1);`, id).Scan(&exists)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

// Delete безвозвратно удаляет продукт по идентификатору.
func (p *ProductRepo) Delete(ctx context.Context, id int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ProductNotFound(id))
	}

	return nil
}

// Search выполняет динамически собранный поисковый запрос и возвращает
// страницу продуктов с категориями и полное количество совпадений.
func (p *ProductRepo) Search(ctx context.Context, req *usecase.SearchProductsReq) ([]usecase.ProductWithCategory, int64, error) {
	sq, err := buildSearchQuery(req)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	q := tr.QuerierFromCtx(ctx, p.pool)

	var total int64
	countQuery := `SELECT COUNT(*) FROM products pr` + sq.where + `;`
	if err := q.QueryRow(ctx, countQuery, sq.args...).Scan(&total); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	pageQuery := `
		SELECT pr.id, pr.name, pr.price, pr.stock_quantity, pr.last_stock_updated_at,
			pr.status, pr.category_id, pr.created_at, pr.updated_at,
			cat.id, cat.name, cat.created_at, cat.updated_at
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id` +
		sq.where + sq.orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d;", len(sq.args)+1, len(sq.args)+2)

	pageArgs := append(append([]any{}, sq.args...), req.PageSize, req.Page*req.PageSize)

	rows, err := q.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	catConv := converter.NewCategoryConverter()
	result := make([]usecase.ProductWithCategory, 0, req.PageSize)
	for rows.Next() {
		var (
			prModel  converter.ProductModel
			catModel converter.CategoryModel
		)
		if err := rows.Scan(
			&prModel.ID, &prModel.Name, &prModel.Price, &prModel.StockQuantity, &prModel.LastStockUpdatedAt,
			&prModel.Status, &prModel.CategoryID, &prModel.CreatedAt, &prModel.UpdatedAt,
			&catModel.ID, &catModel.Name, &catModel.CreatedAt, &catModel.UpdatedAt,
		); err != nil {
			return nil, 0, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, usecase.ProductWithCategory{
			Product:  *p.conv.ToEntity(&prModel),
			Category: *catConv.ToEntity(&catModel),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, total, nil
}

// sortColumns — допустимые поля сортировки и их колонки в products.
var sortColumns = map[string]string{
	"id":                 "id",
	"name":               "name",
	"price":              "price",
	"stockQuantity":      "stock_quantity",
	"status":             "status",
	"lastStockUpdatedAt": "last_stock_updated_at",
	"createdAt":          "created_at",
}

// searchQuery — собранные части поискового запроса: условия WHERE с аргументами и ORDER BY.
type searchQuery struct {
	where   string
	orderBy string
	args    []any
}

// buildSearchQuery собирает условия из присутствующих фильтров (объединение по И).
// Продукты со статусом DISCONTINUED неявно исключаются, пока не запрошены явно:
// фильтром по статусу либо флагом includeDiscontinued.
func buildSearchQuery(req *usecase.SearchProductsReq) (*searchQuery, error) {
	column, ok := sortColumns[req.SortField]
	if !ok {
		return nil, e.Wrap(req.SortField, e.ErrInvalidSortField)
	}

	var (
		conds []string
		args  []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if req.Keyword != nil {
		add("pr.name ILIKE $%d", "%"+*req.Keyword+"%")
	}

	if req.CategoryID != nil {
		add("pr.category_id = $%d", *req.CategoryID)
	}

	if req.MinPrice != nil {
		add("pr.price >= $%d", *req.MinPrice)
	}

	if req.MaxPrice != nil {
		add("pr.price <= $%d", *req.MaxPrice)
	}

	if req.Status != nil {
		add("pr.status = $%d", string(*req.Status))
	} else if !req.IncludeDiscontinued {
		add("pr.status <> $%d", string(domain.StatusDiscontinued))
	}

	var where string
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	direction := "DESC"
	if req.SortAsc {
		direction = "ASC"
	}

	return &searchQuery{
		where:   where,
		orderBy: fmt.Sprintf(" ORDER BY pr.%s %s", column, direction),
		args:    args,
	}, nil
}

// scanProduct читает одну строку products в модель.
func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var m converter.ProductModel
	err := row.Scan(
		&m.ID, &m.Name, &m.Price, &m.StockQuantity, &m.LastStockUpdatedAt,
		&m.Status, &m.CategoryID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
