package http

import (
	"encoding/json"
	"net/http"

	"github.com/notDuyLam/myshop-wp/internal/application"
	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/shopspring/decimal"
)

func (h *Handler) handleQueryProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := parseOptionalInt(q.Get("page"), "page", 1)
	if err != nil {
		h.writeError(w, err)
		return
	}
	pageSize, err := parseOptionalInt(q.Get("page_size"), "page_size", application.DefaultPageSize)
	if err != nil {
		h.writeError(w, err)
		return
	}
	categoryID, err := parseOptionalUint(q.Get("category_id"), "category_id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.svc.Catalog.QueryProducts(r.Context(), domain.ProductQuery{
		Keyword:    q.Get("keyword"),
		CategoryID: categoryID,
		Sort:       domain.ParseProductSort(q.Get("sort")),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type apiProductRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	ImportPrice int    `json:"import_price"`
	Count       int    `json:"count"`
	Description string `json:"description"`
	CategoryID  uint   `json:"category_id"`
}

func (req apiProductRequest) product(id uint) domain.Product {
	return domain.Product{
		ID:          id,
		SKU:         req.SKU,
		Name:        req.Name,
		ImportPrice: req.ImportPrice,
		Count:       req.Count,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.svc.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req apiProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	p, err := h.svc.Catalog.AddProduct(r.Context(), req.product(0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req apiProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	p, err := h.svc.Catalog.UpdateProduct(r.Context(), req.product(id))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleRemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.Catalog.RemoveProduct(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type apiCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req apiCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	c, err := h.svc.Catalog.AddCategory(r.Context(), domain.Category{Name: req.Name, Description: req.Description})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req apiCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	c, err := h.svc.Catalog.UpdateCategory(r.Context(), domain.Category{ID: id, Name: req.Name, Description: req.Description})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.Catalog.RemoveCategory(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type apiOrderItem struct {
	ProductID     uint            `json:"product_id"`
	Quantity      int             `json:"quantity"`
	UnitSalePrice decimal.Decimal `json:"unit_sale_price"`
}

type apiCreateOrderRequest struct {
	Items []apiOrderItem `json:"items"`
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := parseOptionalInt(r.URL.Query().Get("limit"), "limit", application.DefaultOrderListLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	items, err := h.svc.Orders.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req apiCreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	items := make([]application.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, application.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitSalePrice: it.UnitSalePrice})
	}
	order, err := h.svc.Orders.Create(r.Context(), items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	order, err := h.svc.Orders.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type apiOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var req apiOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	order, err := h.svc.Orders.SetStatus(r.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleRemoveOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.svc.Orders.Remove(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type apiDatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

func (c apiDatabaseConfig) config() domain.DatabaseConfig {
	return domain.DatabaseConfig{Host: c.Host, Port: c.Port, Database: c.Database, Username: c.Username, Password: c.Password}
}

func (h *Handler) handleGetDatabaseConfig(w http.ResponseWriter, _ *http.Request) {
	cfg, usable := h.svc.Settings.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"host":         cfg.Host,
		"port":         cfg.Port,
		"database":     cfg.Database,
		"username":     cfg.Username,
		"password_set": cfg.Password != "",
		"usable":       usable,
	})
}

func (h *Handler) handleSaveDatabaseConfig(w http.ResponseWriter, r *http.Request) {
	var req apiDatabaseConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if err := h.svc.Settings.Save(r.Context(), req.config()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleTestDatabaseConfig(w http.ResponseWriter, r *http.Request) {
	var req apiDatabaseConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if err := h.svc.Settings.Test(r.Context(), req.config()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleResetDatabaseConfig(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.Settings.Reset(); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
