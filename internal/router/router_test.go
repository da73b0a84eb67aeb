package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderhub/internal/access"
	"orderhub/internal/auth"
	"orderhub/internal/config"
	"orderhub/internal/db"
	"orderhub/internal/handler"
	"orderhub/internal/logger"
	"orderhub/internal/repository"
	"orderhub/internal/service"
)

type testApp struct {
	e   *echo.Echo
	jwt *auth.JWTService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gdb, err := db.Open("sqlite://:memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	jwtService, err := auth.NewJWTService(auth.TokenConfig{
		Secret:              "router-test-secret",
		Algorithm:           "HS256",
		AccessTokenLifetime: 30 * time.Minute,
	})
	require.NoError(t, err)

	log := logger.NewNop()
	userRepo := repository.NewUserRepository(gdb)
	userService := service.NewUserService(userRepo, nil)
	authService := service.NewAuthService(userRepo, jwtService, nil, log)
	orderService := service.NewOrderService(repository.NewOrderRepository(gdb), userService, nil, log)

	e := echo.New()
	Register(e, &config.Config{}, log,
		access.NewAuthenticator(jwtService, userService),
		handler.NewAuthHandler(authService, log),
		handler.NewOrderHandler(orderService, log),
	)
	return &testApp{e: e, jwt: jwtService}
}

func (a *testApp) do(t *testing.T, method, target, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) &&
		strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (a *testApp) signupAndLogin(t *testing.T, email string, admin bool, token string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":"n","email":%q,"password":"pw","admin":%t}`, email, admin)
	status, _ := a.do(t, http.MethodPost, "/auth/signup", token, body)
	require.Equal(t, http.StatusCreated, status)

	status, out := a.do(t, http.MethodPost, "/auth/login", "", fmt.Sprintf(`{"email":%q,"password":"pw"}`, email))
	require.Equal(t, http.StatusOK, status)
	return out["access_token"].(string)
}

func TestRouter_PublicRoutes(t *testing.T) {
	app := newTestApp(t)

	status, _ := app.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, out := app.do(t, http.MethodGet, "/auth", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, out["auth"])

	status, _ = app.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_Authentication(t *testing.T) {
	app := newTestApp(t)
	good := app.signupAndLogin(t, "ana@example.com", false, "")

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{"missing token", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"garbage token", "not.a.jwt", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"tampered token", good[:len(good)-2] + "xx", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"valid token", good, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := app.do(t, http.MethodGet, "/orders", tt.token, "")
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, out["code"])
			}
		})
	}

	t.Run("token for unknown user", func(t *testing.T) {
		orphan, err := app.jwt.IssueAccess(999)
		require.NoError(t, err)
		status, out := app.do(t, http.MethodGet, "/auth/refresh", orphan, "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "INVALID_ACCESS", out["code"])
	})

	t.Run("refresh", func(t *testing.T) {
		status, out := app.do(t, http.MethodGet, "/auth/refresh", good, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Bearer", out["token_type"])
		assert.NotEmpty(t, out["access_token"])
	})
}

func TestRouter_SignupAdminBootstrap(t *testing.T) {
	app := newTestApp(t)

	adminToken := app.signupAndLogin(t, "root@example.com", true, "")

	status, out := app.do(t, http.MethodPost, "/auth/signup", "",
		`{"name":"x","email":"second@example.com","password":"pw","admin":true}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "ADMIN_REQUIRED", out["code"])

	userToken := app.signupAndLogin(t, "user@example.com", false, "")
	status, _ = app.do(t, http.MethodPost, "/auth/signup", userToken,
		`{"name":"x","email":"second@example.com","password":"pw","admin":true}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = app.do(t, http.MethodPost, "/auth/signup", adminToken,
		`{"name":"x","email":"second@example.com","password":"pw","admin":true}`)
	assert.Equal(t, http.StatusCreated, status)

	status, out = app.do(t, http.MethodPost, "/auth/signup", "",
		`{"name":"x","email":"second@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "EMAIL_TAKEN", out["code"])

	status, out = app.do(t, http.MethodPost, "/auth/signup", "garbage",
		`{"name":"x","email":"third@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", out["code"])
}

func TestRouter_OrderLifecycle(t *testing.T) {
	app := newTestApp(t)
	adminToken := app.signupAndLogin(t, "root@example.com", true, "")
	ownerToken := app.signupAndLogin(t, "owner@example.com", false, "")
	otherToken := app.signupAndLogin(t, "other@example.com", false, "")

	// users are created in order: root=1, owner=2, other=3
	status, out := app.do(t, http.MethodPost, "/orders/order", ownerToken, `{"user_id":2}`)
	require.Equal(t, http.StatusOK, status)
	orderID := uint(out["order_id"].(float64))

	status, _ = app.do(t, http.MethodPost, "/orders/order", otherToken, `{"user_id":2}`)
	assert.Equal(t, http.StatusForbidden, status)

	status, out = app.do(t, http.MethodPost, fmt.Sprintf("/orders/order/add_item/%d", orderID), ownerToken,
		`{"quantity":3,"flavor":"pepperoni","size":"large","unit_price":2.50}`)
	require.Equal(t, http.StatusOK, status)
	firstItem := uint(out["order_item_id"].(float64))
	assert.Equal(t, "7.5", out["order_price"])

	status, out = app.do(t, http.MethodPost, fmt.Sprintf("/orders/order/add_item/%d", orderID), ownerToken,
		`{"quantity":1,"flavor":"margherita","size":"small","unit_price":"10.00"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "17.5", out["order_price"])

	status, _ = app.do(t, http.MethodGet, fmt.Sprintf("/orders/order/%d", orderID), otherToken, "")
	assert.Equal(t, http.StatusForbidden, status)

	status, out = app.do(t, http.MethodPost, fmt.Sprintf("/orders/order/remove_item/%d", firstItem), ownerToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["order_itens"], 1)

	status, out = app.do(t, http.MethodGet, fmt.Sprintf("/orders/order/%d", orderID), adminToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), out["qnt_order_itens"])

	status, _ = app.do(t, http.MethodGet, "/orders/list", ownerToken, "")
	assert.Equal(t, http.StatusForbidden, status)
	status, out = app.do(t, http.MethodGet, "/orders/list", adminToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, out["orders_list"], 1)

	status, out = app.do(t, http.MethodPost, fmt.Sprintf("/orders/order/complete/%d", orderID), ownerToken, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, fmt.Sprintf("Order %d completed successfully.", orderID), out["response"])

	status, out = app.do(t, http.MethodPost, fmt.Sprintf("/orders/order/cancel/%d", orderID), adminToken, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", out["code"])

	status, _ = app.do(t, http.MethodGet, "/orders/order/4040", ownerToken, "")
	assert.Equal(t, http.StatusBadRequest, status)
}
