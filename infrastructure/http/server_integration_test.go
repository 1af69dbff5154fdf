package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/uptrace/bun"

	"miragepos/frontend/login"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/notify"
	"miragepos/infrastructure/rbac"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

type integrationEnv struct {
	server *httptest.Server
	db     *sqlite.DB
	srv    *Server
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if err := login.UpsertUserPasswordHash(context.Background(), db, "admin", rbac.RoleAdmin, "Admin123!Mirage"); err != nil {
		t.Fatalf("seed admin user: %v", err)
	}
	if err := login.UpsertUserPasswordHash(context.Background(), db, "cashier", rbac.RoleStaff, "Cashier123!Mirage"); err != nil {
		t.Fatalf("seed staff user: %v", err)
	}

	sessionCache := cache.NewUserSessionCache()
	rbacCache := cache.NewRbacRolesCache()
	rbacSvc := rbac.New(rbacCache)

	s := NewServer("127.0.0.1:0", db, sessionCache, rbacSvc, rbacCache, notify.NewHub(), Options{
		AdminUsername: "admin",
		AdminPassword: "Admin123!Mirage",
	})
	ts := httptest.NewServer(s.Handler())
	env := &integrationEnv{server: ts, db: db, srv: s}
	t.Cleanup(func() {
		env.server.Close()
		_ = env.db.Close()
	})

	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, baseURL, path string, data url.Values) *http.Response {
	t.Helper()
	if data == nil {
		data = url.Values{}
	}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	resp, err := client.PostForm(baseURL+path, data)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func sendJSON(t *testing.T, client *http.Client, baseURL, method, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal %s body: %v", path, err)
	}
	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := csrfToken(t, client, baseURL); token != "" {
		req.Header.Set("X-CSRF-Token", token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("%s %s: expected %d, got %d: %s", resp.Request.Method, resp.Request.URL.Path, want, resp.StatusCode, body)
	}
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == "X-CSRF-Token" {
			return c.Value
		}
	}
	return ""
}

func loginAs(t *testing.T, client *http.Client, baseURL, username, password string) {
	t.Helper()

	resp := get(t, client, baseURL, "/login")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected login page 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postForm(t, client, baseURL, "/login", url.Values{
		"username": {username},
		"password": {password},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected login 303, got %d", resp.StatusCode)
	}
	if location := resp.Header.Get("Location"); location != login.HomePath {
		t.Fatalf("unexpected login redirect: %s", location)
	}
	_ = resp.Body.Close()
}

func stockOf(t *testing.T, db *sqlite.DB, productID int64) int64 {
	t.Helper()
	var stock int64
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT stock FROM products WHERE id = ?`, productID).Scan(ctx, &stock)
	})
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

func TestHealthAndRootRedirect(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/health")
	expectStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	resp = get(t, client, env.server.URL, "/")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	_ = resp.Body.Close()
}

func TestAPIRequiresSession(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/tasker/api/products")
	expectStatus(t, resp, http.StatusUnauthorized)
	_ = resp.Body.Close()
}

func TestWrongPasswordRedirectsBackToLogin(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/login")
	_ = resp.Body.Close()
	resp = postForm(t, client, env.server.URL, "/login", url.Values{
		"username": {"admin"},
		"password": {"nope"},
	})
	if resp.StatusCode != http.StatusSeeOther || !strings.HasPrefix(resp.Header.Get("Location"), "/login?error=") {
		t.Fatalf("expected redirect to login with error, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	_ = resp.Body.Close()
}

func TestUnsafeRequestWithoutCSRFTokenIsRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "cashier", "Cashier123!Mirage")

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/tasker/api/products", strings.NewReader(`{"name":"Lamp"}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	expectStatus(t, resp, http.StatusForbidden)
	_ = resp.Body.Close()
}

func TestCheckoutFlowTakesStockAndNumbersInvoice(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "cashier", "Cashier123!Mirage")
	base := env.server.URL

	resp := sendJSON(t, client, base, http.MethodPost, "/tasker/api/products", map[string]any{
		"name": "Brass Lamp", "category": "Brass", "costPrice": 500, "retailPrice": 1000, "wholesalePrice": 800, "stock": 10,
	})
	expectStatus(t, resp, http.StatusCreated)
	var product models.Product
	decode(t, resp, &product)
	if product.Vendor != "General" {
		t.Fatalf("expected default vendor, got %q", product.Vendor)
	}

	resp = get(t, client, base, "/tasker/api/sales/next-invoice")
	expectStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	cart := map[string]any{
		"priceType": "retail",
		"lines": []map[string]any{{
			"productId": product.ID, "name": product.Name, "qty": 3,
			"costPrice": product.CostPrice, "retailPrice": product.RetailPrice, "wholesalePrice": product.WholesalePrice,
		}},
	}
	resp = sendJSON(t, client, base, http.MethodPost, "/tasker/api/sales", map[string]any{
		"cart":  cart,
		"input": map[string]any{"customerName": "Nimal", "discountType": "fixed", "discountValue": 100},
	})
	expectStatus(t, resp, http.StatusCreated)
	var sale models.Sale
	decode(t, resp, &sale)
	if !strings.HasPrefix(sale.InvoiceNo, "INV-") {
		t.Fatalf("unexpected invoice number %q", sale.InvoiceNo)
	}
	if sale.TotalAmount != 2900 {
		t.Fatalf("expected total 2900, got %v", sale.TotalAmount)
	}
	if got := stockOf(t, env.db, product.ID); got != 7 {
		t.Fatalf("expected stock 7, got %d", got)
	}

	resp = get(t, client, base, "/tasker/api/sales/"+strconv.FormatInt(sale.ID, 10)+"/invoice.pdf")
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected pdf, got %q", ct)
	}
	_ = resp.Body.Close()

	resp = sendJSON(t, client, base, http.MethodDelete, "/tasker/api/sales/"+strconv.FormatInt(sale.ID, 10), nil)
	expectStatus(t, resp, http.StatusNoContent)
	_ = resp.Body.Close()
	if got := stockOf(t, env.db, product.ID); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}
}

func TestCheckoutWithMissingProductRollsBack(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "cashier", "Cashier123!Mirage")
	base := env.server.URL

	resp := sendJSON(t, client, base, http.MethodPost, "/tasker/api/products", map[string]any{
		"name": "Wooden Mask", "costPrice": 200, "retailPrice": 450, "wholesalePrice": 350, "stock": 5,
	})
	expectStatus(t, resp, http.StatusCreated)
	var product models.Product
	decode(t, resp, &product)

	resp = sendJSON(t, client, base, http.MethodPost, "/tasker/api/sales", map[string]any{
		"cart": map[string]any{
			"priceType": "retail",
			"lines": []map[string]any{
				{"productId": product.ID, "name": product.Name, "qty": 2, "retailPrice": 450},
				{"productId": 9999, "name": "Ghost", "qty": 1, "retailPrice": 10},
			},
		},
		"input": map[string]any{},
	})
	expectStatus(t, resp, http.StatusNotFound)
	_ = resp.Body.Close()
	if got := stockOf(t, env.db, product.ID); got != 5 {
		t.Fatalf("expected stock untouched after rollback, got %d", got)
	}

	resp = get(t, client, base, "/tasker/api/sales/next-invoice")
	expectStatus(t, resp, http.StatusOK)
	var next map[string]string
	decode(t, resp, &next)
	if !strings.HasSuffix(next["invoiceNo"], "-0001") {
		t.Fatalf("expected counter untouched, next is %q", next["invoiceNo"])
	}
}

func TestPriceBelowCostNeedsConfirmation(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "cashier", "Cashier123!Mirage")
	base := env.server.URL

	body := map[string]any{"name": "Cheap Bowl", "costPrice": 300, "retailPrice": 250, "stock": 4}
	resp := sendJSON(t, client, base, http.MethodPost, "/tasker/api/products", body)
	expectStatus(t, resp, http.StatusConflict)
	var problem map[string]any
	decode(t, resp, &problem)
	if problem["field"] != "retailPrice" {
		t.Fatalf("expected retailPrice warning, got %+v", problem)
	}

	body["confirm"] = true
	resp = sendJSON(t, client, base, http.MethodPost, "/tasker/api/products", body)
	expectStatus(t, resp, http.StatusCreated)
	_ = resp.Body.Close()
}

func TestStaffCannotManageUsers(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "cashier", "Cashier123!Mirage")

	resp := get(t, client, env.server.URL, "/tasker/api/users")
	expectStatus(t, resp, http.StatusForbidden)
	_ = resp.Body.Close()

	resp = sendJSON(t, client, env.server.URL, http.MethodPost, "/tasker/api/backup/import", map[string]any{})
	expectStatus(t, resp, http.StatusForbidden)
	_ = resp.Body.Close()

	resp = get(t, client, env.server.URL, "/tasker/api/reports/dashboard")
	expectStatus(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	resp = get(t, client, env.server.URL, "/tasker/api/me")
	expectStatus(t, resp, http.StatusOK)
	var me login.UserView
	decode(t, resp, &me)
	if !slices.Contains(me.Permissions, "PRODUCTS_LIST") || slices.Contains(me.Permissions, "ADMIN_USERS_LIST") {
		t.Fatalf("unexpected staff permissions %v", me.Permissions)
	}
	if slices.Contains(me.Permissions, "BACKUP_EXPORT") {
		t.Fatalf("staff must not be offered the backup export, got %v", me.Permissions)
	}
}

func TestBackupExportIsAdminOnly(t *testing.T) {
	env, staff := setupIntegrationServer(t)
	loginAs(t, staff, env.server.URL, "cashier", "Cashier123!Mirage")

	resp := get(t, staff, env.server.URL, "/tasker/api/backup/export")
	expectStatus(t, resp, http.StatusForbidden)
	_ = resp.Body.Close()

	admin := newHTTPClient(t)
	loginAs(t, admin, env.server.URL, "admin", "Admin123!Mirage")
	resp = get(t, admin, env.server.URL, "/tasker/api/backup/export")
	expectStatus(t, resp, http.StatusOK)
	var snap struct {
		Users []map[string]any `json:"users"`
	}
	decode(t, resp, &snap)
	if len(snap.Users) != 2 {
		t.Fatalf("expected both users in the snapshot, got %d", len(snap.Users))
	}
}

func TestAdminCreatesStaffUser(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "admin", "Admin123!Mirage")

	resp := sendJSON(t, client, env.server.URL, http.MethodPost, "/tasker/api/users", map[string]any{
		"username": "helper", "password": "Helper123!Mirage",
	})
	expectStatus(t, resp, http.StatusCreated)
	var user map[string]any
	decode(t, resp, &user)
	if user["role"] != rbac.RoleStaff {
		t.Fatalf("expected staff role, got %+v", user)
	}

	other := newHTTPClient(t)
	loginAs(t, other, env.server.URL, "helper", "Helper123!Mirage")

	resp = get(t, client, env.server.URL, "/tasker/api/me")
	expectStatus(t, resp, http.StatusOK)
	var me login.UserView
	decode(t, resp, &me)
	resp = sendJSON(t, client, env.server.URL, http.MethodDelete, "/tasker/api/users/"+strconv.FormatInt(me.ID, 10), nil)
	expectStatus(t, resp, http.StatusConflict)
	_ = resp.Body.Close()
}

func TestLogoutDropsSession(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "cashier", "Cashier123!Mirage")

	resp := postForm(t, client, env.server.URL, "/logout", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected logout redirect, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
	if n := env.srv.SessionCache.Len(); n != 0 {
		t.Fatalf("expected no sessions, got %d", n)
	}

	resp = get(t, client, env.server.URL, "/tasker/api/me")
	expectStatus(t, resp, http.StatusUnauthorized)
	_ = resp.Body.Close()
}

func TestMutationBroadcastsRefreshHint(t *testing.T) {
	env, client := setupIntegrationServer(t)
	loginAs(t, client, env.server.URL, "cashier", "Cashier123!Mirage")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hints := env.srv.Notifier.Subscribe(ctx)

	resp := sendJSON(t, client, env.server.URL, http.MethodPost, "/tasker/api/vendors", map[string]any{"name": "Lanka Weaves"})
	expectStatus(t, resp, http.StatusCreated)
	_ = resp.Body.Close()

	select {
	case msg := <-hints:
		if msg != notify.Refresh {
			t.Fatalf("unexpected hint %q", msg)
		}
	default:
		t.Fatalf("expected a refresh hint after a mutation")
	}
}
