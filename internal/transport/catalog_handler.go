package transport

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sushi-samurai/internal/collection"
	"sushi-samurai/internal/middleware"
	"sushi-samurai/internal/query"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductRequest is the create/update payload for products
type ProductRequest struct {
	Title       string   `json:"title" validate:"required"`
	Slug        string   `json:"slug" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Description *string  `json:"description"`
	ImageURL    *string  `json:"image_url"`
	CategoryID  *string  `json:"category_id"`
	IsAvailable *bool    `json:"is_available"`
}

// CategoryRequest is the create/update payload for categories
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Slug        string  `json:"slug" validate:"required"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id"`
}

// CatalogHandler serves products and categories
type CatalogHandler struct {
	products   *query.Products
	categories *query.Categories
	logger     *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(products *query.Products, categories *query.Categories, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, categories: categories, logger: logger}
}

// RegisterRoutes registers catalog routes. Reads are public; writes need an
// admin.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/{id}", h.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware, adminMiddleware)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
	})
}

// ListProducts lists products, filtered and paginated from query params.
// A "q" parameter switches to substring search over title and description.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)

	if q := r.URL.Query().Get("q"); q != "" {
		products, err := h.products.Search(r.Context(), q, opts)
		if err != nil {
			h.logger.Error("Product search failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to search products")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, products)
		return
	}

	filters := map[string]any{}
	if categoryID := r.URL.Query().Get("category_id"); categoryID != "" {
		filters["category_id"] = categoryID
	}
	if available := r.URL.Query().Get("available"); available != "" {
		filters["is_available"] = available == "true"
	}
	if len(filters) > 0 {
		opts.Filters = filters
	}

	products, err := h.products.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("Product list failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// GetProduct returns one product by id
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondFetchError(w, h.logger, err, "product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// CreateProduct inserts a product
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	now := time.Now()
	fields := map[string]any{
		"id":           uuid.New(),
		"title":        req.Title,
		"slug":         req.Slug,
		"price":        req.Price,
		"is_available": true,
		"created_at":   now,
		"updated_at":   now,
	}
	if req.IsAvailable != nil {
		fields["is_available"] = *req.IsAvailable
	}
	applyOptional(fields, "description", req.Description)
	applyOptional(fields, "image_url", req.ImageURL)
	applyOptional(fields, "category_id", req.CategoryID)

	product, err := h.products.Create(r.Context(), fields)
	if err != nil {
		h.logger.Error("Product create failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct patches a product
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ProductRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	fields := map[string]any{
		"title": req.Title,
		"slug":  req.Slug,
		"price": req.Price,
	}
	if req.IsAvailable != nil {
		fields["is_available"] = *req.IsAvailable
	}
	applyOptional(fields, "description", req.Description)
	applyOptional(fields, "image_url", req.ImageURL)
	applyOptional(fields, "category_id", req.CategoryID)

	product, err := h.products.Update(r.Context(), id, fields)
	if err != nil {
		respondFetchError(w, h.logger, err, "product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		respondFetchError(w, h.logger, err, "product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories lists categories ordered by name
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	if opts.OrderBy == nil {
		opts.OrderBy = &collection.Order{Column: "name"}
	}
	if parentID := r.URL.Query().Get("parent_id"); parentID != "" {
		opts.Filters = map[string]any{"parent_id": parentID}
	}

	categories, err := h.categories.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("Category list failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// GetCategory returns one category by id
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		respondFetchError(w, h.logger, err, "category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// CreateCategory inserts a category
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	now := time.Now()
	fields := map[string]any{
		"id":         uuid.New(),
		"name":       req.Name,
		"slug":       req.Slug,
		"created_at": now,
		"updated_at": now,
	}
	applyOptional(fields, "description", req.Description)
	applyOptional(fields, "parent_id", req.ParentID)

	category, err := h.categories.Create(r.Context(), fields)
	if err != nil {
		h.logger.Error("Category create failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// UpdateCategory patches a category
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	fields := map[string]any{
		"name": req.Name,
		"slug": req.Slug,
	}
	applyOptional(fields, "description", req.Description)
	applyOptional(fields, "parent_id", req.ParentID)

	category, err := h.categories.Update(r.Context(), id, fields)
	if err != nil {
		respondFetchError(w, h.logger, err, "category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// DeleteCategory removes a category
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		respondFetchError(w, h.logger, err, "category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listOptions builds pagination and ordering from query params.
func listOptions(r *http.Request) collection.ListOptions {
	opts := collection.ListOptions{}
	q := r.URL.Query()

	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		opts.Offset = offset
	}
	if sort := q.Get("sort"); sort != "" {
		opts.OrderBy = &collection.Order{
			Column:     sort,
			Descending: q.Get("order") == "desc",
		}
	}
	return opts
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func applyOptional(fields map[string]any, column string, value *string) {
	if value != nil {
		fields[column] = *value
	}
}

func respondFetchError(w http.ResponseWriter, logger *zap.Logger, err error, entity string) {
	if errors.Is(err, collection.ErrNotFound) {
		middleware.RespondWithError(w, http.StatusNotFound, entity+" not found")
		return
	}
	if errors.Is(err, collection.ErrUnknownColumn) {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Error("Request failed", zap.String("entity", entity), zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "failed to process "+entity)
}
