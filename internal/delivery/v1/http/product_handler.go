package http

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/internal/usecase"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/DRSN-tech/catalog-service/pkg/logger"
)

const maxBodySize = 1 << 20

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// createProduct
//
//	@Summary		Создание нового товара
//	@Description	Создает товар в каталоге; при указании остатка фиксирует время его установки
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ProductRequest	true	"Данные товара"
//	@Success		201		{object}	ProductResponse	"Созданный товар"
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		404		{object}	ErrorResponse	"Категория не найдена"
//	@Router			/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, err := p.decodeProductReq(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.Create(r.Context(), req)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(res))
}

// getProduct
//
//	@Summary		Получение товара по идентификатору
//	@Tags			products
//	@Produce		json
//	@Param			id	path		int				true	"Идентификатор товара"
//	@Success		200	{object}	ProductResponse	"Товар"
//	@Failure		404	{object}	ErrorResponse	"Товар не найден"
//	@Router			/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.URL.Path)
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.GetByID(r.Context(), id)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(res))
}

// updateProduct
//
//	@Summary		Полное обновление товара
//	@Description	Заменяет имя, цену и категорию; переданный остаток перезаписывает текущий
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Идентификатор товара"
//	@Param			request	body		ProductRequest	true	"Новые данные товара"
//	@Success		200		{object}	ProductResponse	"Обновленный товар"
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		404		{object}	ErrorResponse	"Товар или категория не найдены"
//	@Failure		409		{object}	ErrorResponse	"Товар не принимает операции"
//	@Router			/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.URL.Path)
		WriteError(w, err)
		return
	}

	req, err := p.decodeProductReq(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.Update(r.Context(), id, req)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(res))
}

// deleteProduct
//
//	@Summary		Удаление товара
//	@Description	Удаляет товар безвозвратно, независимо от его статуса
//	@Tags			products
//	@Produce		json
//	@Param			id	path	int	true	"Идентификатор товара"
//	@Success		204	"Товар удален"
//	@Failure		404	{object}	ErrorResponse	"Товар не найден"
//	@Router			/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.URL.Path)
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.Delete(r.Context(), id); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// searchProducts
//
//	@Summary		Поиск товаров
//	@Description	Фильтрует по подстроке имени, категории, диапазону цен и статусу; снятые с производства товары скрыты, пока не запрошены явно
//	@Tags			products
//	@Produce		json
//	@Param			keyword				query		string			false	"Подстрока имени (без учета регистра)"
//	@Param			categoryId			query		int				false	"Идентификатор категории"
//	@Param			minPrice			query		number			false	"Минимальная цена"
//	@Param			maxPrice			query		number			false	"Максимальная цена"
//	@Param			status				query		string			false	"Статус товара"
//	@Param			includeDiscontinued	query		bool			false	"Показывать снятые с производства"
//	@Param			page				query		int				false	"Номер страницы (с нуля)"
//	@Param			size				query		int				false	"Размер страницы"
//	@Param			sort				query		string			false	"Сортировка вида <поле>,<asc|desc>"
//	@Success		200					{object}	PageResponse	"Страница результатов"
//	@Failure		400					{object}	ErrorResponse	"Некорректные параметры поиска"
//	@Router			/products [get]
func (p *ProductHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchReq(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.URL.RawQuery)
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.Search(r.Context(), req)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toPageResponse(res))
}

// getInventory
//
//	@Summary		Текущий остаток товара
//	@Tags			inventory
//	@Produce		json
//	@Param			id	path		int					true	"Идентификатор товара"
//	@Success		200	{object}	InventoryResponse	"Состояние остатка"
//	@Failure		404	{object}	ErrorResponse		"Товар не найден"
//	@Router			/products/{id}/inventory [get]
func (p *ProductHandler) getInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.URL.Path)
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.GetInventory(r.Context(), id)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toInventoryResponse(res))
}

// updateInventory
//
//	@Summary		Замена остатка товара
//	@Description	Устанавливает новое количество и фиксирует время изменения
//	@Tags			inventory
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Идентификатор товара"
//	@Param			request	body		InventoryRequest	true	"Новое количество"
//	@Success		200		{object}	InventoryResponse	"Обновленный остаток"
//	@Failure		400		{object}	ErrorResponse		"Отрицательное количество"
//	@Failure		404		{object}	ErrorResponse		"Товар не найден"
//	@Failure		409		{object}	ErrorResponse		"Товар не принимает операции"
//	@Router			/products/{id}/inventory [put]
func (p *ProductHandler) updateInventory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.URL.Path)
		WriteError(w, err)
		return
	}

	var body InventoryRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	if body.NewQuantity == nil {
		p.logger.Warnf("%d %s: newQuantity is required", http.StatusBadRequest, e.ErrMissingFields.Error())
		WriteError(w, e.ErrMissingFields)
		return
	}

	res, err := p.productUsecase.UpdateInventory(r.Context(), id, *body.NewQuantity)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toInventoryResponse(res))
}

// updateStatus
//
//	@Summary		Смена статуса товара
//	@Description	Переводит товар в любой из статусов; операция доступна независимо от текущего статуса
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"Идентификатор товара"
//	@Param			request	body		StatusRequest	true	"Новый статус"
//	@Success		200		{object}	ProductResponse	"Товар с новым статусом"
//	@Failure		400		{object}	ErrorResponse	"Неизвестный статус"
//	@Failure		404		{object}	ErrorResponse	"Товар не найден"
//	@Router			/products/{id}/status [put]
func (p *ProductHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.URL.Path)
		WriteError(w, err)
		return
	}

	var body StatusRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	status, ok := domain.ParseProductStatus(body.Status)
	if !ok {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrInvalidStatus.Error(), body.Status)
		WriteError(w, e.ErrInvalidStatus)
		return
	}

	res, err := p.productUsecase.UpdateStatus(r.Context(), id, status)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(res))
}

func (p *ProductHandler) decodeProductReq(w http.ResponseWriter, r *http.Request) (*usecase.ProductReq, error) {
	var body ProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		return nil, err
	}

	req, err := parseProductReq(&body)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		return nil, err
	}

	return req, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	return nil
}
