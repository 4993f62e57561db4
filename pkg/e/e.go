package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 404 Not Found
	ErrProductNotFound  = fmt.Errorf("product not found")
	ErrCategoryNotFound = fmt.Errorf("category not found")

	// 400 Bad Request
	ErrProductNameRequired = fmt.Errorf("product name is required")
	ErrProductNameTooLong  = fmt.Errorf("product name must not exceed 200 characters")
	ErrInvalidPrice        = fmt.Errorf("invalid price")
	ErrPricePrecision      = fmt.Errorf("price must have at most 2 decimal places")
	ErrNegativeStock       = fmt.Errorf("stock quantity cannot be negative")
	ErrPriceRange          = fmt.Errorf("minPrice must be <= maxPrice")
	ErrInvalidStatus       = fmt.Errorf("unknown product status")
	ErrInvalidSortField    = fmt.Errorf("unknown sort field")
	ErrMissingFields       = fmt.Errorf("missing required fields")
	ErrStatusBadRequest    = fmt.Errorf("bad request")

	// 409 Conflict
	ErrProductNotUsable = fmt.Errorf("new operations are not allowed")

	// 500 Internal Server Error
	ErrInternalServerError  = fmt.Errorf("internal server error")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// ProductNotFound формирует ошибку с идентификатором отсутствующего продукта.
func ProductNotFound(id int64) error {
	return fmt.Errorf("%w: %d", ErrProductNotFound, id)
}

// CategoryNotFound формирует ошибку с идентификатором отсутствующей категории.
func CategoryNotFound(id int64) error {
	return fmt.Errorf("%w: %d", ErrCategoryNotFound, id)
}

// ProductNotUsable формирует ошибку блокировки операции, указывая текущий статус продукта.
func ProductNotUsable(status string) error {
	return fmt.Errorf("product is %s, %w", status, ErrProductNotUsable)
}
