package domain

// ProductStatus описывает статус жизненного цикла продукта.
type ProductStatus string

const (
	StatusActive       ProductStatus = "ACTIVE"
	StatusPaused       ProductStatus = "PAUSED"
	StatusDiscontinued ProductStatus = "DISCONTINUED"
)

// CanAcceptNewOperations сообщает, допускает ли статус изменяющие операции над продуктом.
// Продукты в статусах PAUSED и DISCONTINUED закрыты для изменений;
// смена самого статуса этим правилом не ограничивается.
func (s ProductStatus) CanAcceptNewOperations() bool {
	return s == StatusActive
}

// ParseProductStatus проверяет принадлежность строки к закрытому перечислению статусов.
func ParseProductStatus(v string) (ProductStatus, bool) {
	switch ProductStatus(v) {
	case StatusActive, StatusPaused, StatusDiscontinued:
		return ProductStatus(v), true
	default:
		return "", false
	}
}
