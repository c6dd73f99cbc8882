package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/notDuyLam/myshop-wp/internal/adapters/db/sqlstore"
	"github.com/notDuyLam/myshop-wp/internal/adapters/settings"
	"github.com/notDuyLam/myshop-wp/internal/application"
	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type nopTester struct{}

func (nopTester) TestRaw(context.Context, string) (bool, string)      { return false, "unreachable" }
func (nopTester) TestViaStore(context.Context, string) (bool, string) { return false, "unreachable" }

func newTestRouter(t *testing.T, opts Options) nethttp.Handler {
	t.Helper()
	router, _ := newTestRouterWithCredentials(t, opts)
	return router
}

func newTestRouterWithCredentials(t *testing.T, opts Options) (nethttp.Handler, *settings.CredentialStore) {
	t.Helper()
	dir := t.TempDir()
	log := zerolog.Nop()

	sealer, err := settings.LoadOrCreateSealer(filepath.Join(dir, settings.KeyFileName))
	require.NoError(t, err)
	configs := settings.NewConfigStore(filepath.Join(dir, settings.ConfigFileName), sealer, log)
	creds := settings.NewCredentialStore(filepath.Join(dir, settings.SettingsFileName), sealer)

	stores := sqlstore.NewProvider(configs, sqlstore.SQLiteOpener(filepath.Join(dir, "shop.db")), log)
	t.Cleanup(func() { _ = stores.Close() })
	require.NoError(t, stores.MigrateAndSeed(context.Background()))

	opts.Logger = log
	return NewRouter(Services{
		Auth:     application.NewAuthService(creds, application.DefaultBootstrap(), log),
		Catalog:  application.NewCatalogService(stores, log),
		Orders:   application.NewOrderService(stores, log),
		Settings: application.NewSettingsService(configs, nopTester{}, stores, log),
	}, opts), creds
}

type apiClient struct {
	t      *testing.T
	router nethttp.Handler
	token  string
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.1:40000"
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	var obj map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &obj)
	return rec.Code, obj, rec.Body.Bytes()
}

func (c *apiClient) login(username, password string) int {
	c.t.Helper()
	code, body, _ := c.do(nethttp.MethodPost, "/api/auth/login", map[string]string{"username": username, "password": password})
	if code == nethttp.StatusOK {
		c.token, _ = body["token"].(string)
	}
	return code
}

func TestProductsRequireSession(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t, Options{})}

	code, body, _ := c.do(nethttp.MethodGet, "/api/products", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, code)
	assert.Equal(t, "unauthorized", body["error"])

	code, body, _ = c.do(nethttp.MethodGet, "/api/auth/state", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "unprovisioned", body["state"])

	assert.Equal(t, nethttp.StatusUnauthorized, c.login("admin", "wrong"))
	require.Equal(t, nethttp.StatusOK, c.login("admin", "admin123"))
	require.NotEmpty(t, c.token)

	code, _, raw := c.do(nethttp.MethodGet, "/api/products?page=1&page_size=5", nil)
	require.Equal(t, nethttp.StatusOK, code, string(raw))
	var page domain.ProductPage
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, 5, page.PageSize)
	assert.Zero(t, page.TotalPages)

	c.token = "forged"
	code, _, _ = c.do(nethttp.MethodGet, "/api/products", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, code)
}

func TestLoginSetsCookie(t *testing.T) {
	router := newTestRouter(t, Options{})
	req := httptest.NewRequest(nethttp.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"username":"admin","password":"admin123"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req = httptest.NewRequest(nethttp.MethodGet, "/api/categories", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

func TestCatalogAndOrderFlow(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t, Options{})}
	require.Equal(t, nethttp.StatusOK, c.login("admin", "admin123"))

	code, cat, raw := c.do(nethttp.MethodPost, "/api/categories", map[string]string{"name": "Phones"})
	require.Equal(t, nethttp.StatusCreated, code, string(raw))
	categoryID := cat["ID"]

	code, prod, raw := c.do(nethttp.MethodPost, "/api/products", map[string]any{
		"sku": "PH-1", "name": "Phone", "import_price": 1200, "count": 4, "category_id": categoryID,
	})
	require.Equal(t, nethttp.StatusCreated, code, string(raw))
	productID := prod["ID"]

	code, _, raw = c.do(nethttp.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"product_id": productID, "quantity": 2, "unit_sale_price": "1500.50"}},
	})
	require.Equal(t, nethttp.StatusCreated, code, string(raw))
	var order domain.Order
	require.NoError(t, json.Unmarshal(raw, &order))
	assert.Equal(t, 3001, order.FinalPrice)

	code, body, _ := c.do(nethttp.MethodDelete, "/api/products/"+jsonNumber(productID), nil)
	assert.Equal(t, nethttp.StatusConflict, code)
	assert.Equal(t, "Product is referenced by orders", body["error"])

	code, body, _ = c.do(nethttp.MethodDelete, "/api/categories/"+jsonNumber(categoryID), nil)
	assert.Equal(t, nethttp.StatusConflict, code)
	assert.Equal(t, "Category still owns products", body["error"])

	code, _, raw = c.do(nethttp.MethodGet, "/api/products?keyword=ph-&sort=stock", nil)
	require.Equal(t, nethttp.StatusOK, code)
	var page domain.ProductPage
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Phones", page.Items[0].Category.Name)

	code, _, _ = c.do(nethttp.MethodPost, "/api/orders/"+jsonNumber(float64(order.ID))+"/status", map[string]string{"status": "Paid"})
	assert.Equal(t, nethttp.StatusOK, code)
	code, _, _ = c.do(nethttp.MethodPost, "/api/orders/"+jsonNumber(float64(order.ID))+"/status", map[string]string{"status": "Cancelled"})
	assert.Equal(t, nethttp.StatusBadRequest, code)
}

func TestRequestValidation(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t, Options{})}
	require.Equal(t, nethttp.StatusOK, c.login("admin", "admin123"))

	code, _, _ := c.do(nethttp.MethodGet, "/api/products?page_size=0", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)
	code, _, _ = c.do(nethttp.MethodGet, "/api/products?page=0", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)
	code, _, _ = c.do(nethttp.MethodGet, "/api/products?page=two", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)
	code, _, _ = c.do(nethttp.MethodGet, "/api/products/abc", nil)
	assert.Equal(t, nethttp.StatusBadRequest, code)
	code, _, _ = c.do(nethttp.MethodGet, "/api/products/999", nil)
	assert.Equal(t, nethttp.StatusNotFound, code)
}

func TestDatabaseSettingsEndpoints(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t, Options{})}
	require.Equal(t, nethttp.StatusOK, c.login("admin", "admin123"))

	code, body, _ := c.do(nethttp.MethodGet, "/api/settings/database", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, false, body["usable"])
	assert.Equal(t, "localhost", body["host"])

	code, _, _ = c.do(nethttp.MethodPut, "/api/settings/database", map[string]any{"host": "db", "port": 99999, "database": "shop", "username": "u"})
	assert.Equal(t, nethttp.StatusBadRequest, code)

	cfg := map[string]any{"host": "db", "port": 5432, "database": "shop", "username": "u", "password": "pw"}
	code, _, _ = c.do(nethttp.MethodPut, "/api/settings/database", cfg)
	require.Equal(t, nethttp.StatusOK, code)

	code, body, _ = c.do(nethttp.MethodGet, "/api/settings/database", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, true, body["usable"])
	assert.Equal(t, true, body["password_set"])
	assert.NotContains(t, body, "password")

	code, body, _ = c.do(nethttp.MethodPost, "/api/settings/database/test", cfg)
	assert.Equal(t, nethttp.StatusServiceUnavailable, code)
	assert.Contains(t, body["error"], "unreachable")
}

func TestLoginIsRateLimited(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t, Options{LoginRate: rate.Limit(0.001), LoginBurst: 2})}

	assert.Equal(t, nethttp.StatusUnauthorized, c.login("admin", "guess1"))
	assert.Equal(t, nethttp.StatusUnauthorized, c.login("admin", "guess2"))
	assert.Equal(t, nethttp.StatusTooManyRequests, c.login("admin", "admin123"))
}

func TestLogoutEndsSession(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t, Options{})}
	require.Equal(t, nethttp.StatusOK, c.login("admin", "admin123"))

	code, _, _ := c.do(nethttp.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, nethttp.StatusOK, code)

	code, _, _ = c.do(nethttp.MethodGet, "/api/categories", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, code)

	code, body, _ := c.do(nethttp.MethodGet, "/api/auth/state", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "provisioned", body["state"])
}

func TestLogoutElsewhereEndsSession(t *testing.T) {
	router, creds := newTestRouterWithCredentials(t, Options{})
	c := &apiClient{t: t, router: router}
	require.Equal(t, nethttp.StatusOK, c.login("admin", "admin123"))

	code, _, _ := c.do(nethttp.MethodGet, "/api/categories", nil)
	require.Equal(t, nethttp.StatusOK, code)

	// same effect as `myshop auth logout` from another process
	require.NoError(t, creds.SetLoggedIn(false))

	code, _, _ = c.do(nethttp.MethodGet, "/api/categories", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, code)
}

func TestStatusFor(t *testing.T) {
	cases := map[int]error{
		nethttp.StatusBadRequest:          domain.Validation("bad"),
		nethttp.StatusUnauthorized:        domain.InvalidCredentials("no"),
		nethttp.StatusNotFound:            domain.NotFound("gone"),
		nethttp.StatusConflict:            domain.Referenced("used", nil),
		StatusClientClosedRequest:         context.Canceled,
		nethttp.StatusServiceUnavailable:  domain.ConnectionFailure(errors.New("refused")),
		nethttp.StatusInternalServerError: domain.StoreFailure(domain.Referenced("inner", nil)),
	}
	for want, err := range cases {
		assert.Equal(t, want, statusFor(err), "%v", err)
	}
	assert.Equal(t, StatusClientClosedRequest, statusFor(domain.Cancelled(nil)))
	assert.Equal(t, nethttp.StatusInternalServerError, statusFor(errors.New("boom")))
}

func jsonNumber(v any) string {
	f, _ := v.(float64)
	return strconv.FormatUint(uint64(f), 10)
}
