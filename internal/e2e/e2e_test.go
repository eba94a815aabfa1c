package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"nhatro/internal/clock"
	"nhatro/internal/config"
	"nhatro/internal/logger"
	"nhatro/internal/migration"
	"nhatro/internal/seed"
	"nhatro/internal/server"
	"nhatro/pkg/db"
)

type testEnv struct {
	app     *fx.App
	server  *server.Server
	db      *gorm.DB
	cfg     config.Config
	baseURL string
	httpSrv *httptest.Server
}

var env *testEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	setDefaultEnv()

	var err error
	env, err = startEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start test environment:", err)
		os.Exit(1)
	}

	code := m.Run()
	env.shutdown()
	os.Exit(code)
}

func startEnv() (*testEnv, error) {
	var (
		srv    *server.Server
		dbConn *gorm.DB
		cfg    config.Config
	)

	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		migration.Module,
		server.Module,
		fx.Populate(&srv, &dbConn, &cfg),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return nil, err
	}

	httpSrv := httptest.NewServer(srv.Engine())

	return &testEnv{
		app:     app,
		server:  srv,
		db:      dbConn,
		cfg:     cfg,
		baseURL: httpSrv.URL,
		httpSrv: httpSrv,
	}, nil
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
	}
}

func setDefaultEnv() {
	setEnvIfEmpty("ENVIRONMENT", "test")
	setEnvIfEmpty("DATABASE_TYPE", "sqlite")
	setEnvIfEmpty("DATABASE_PATH", "file:e2e?mode=memory&cache=shared")
	setEnvIfEmpty("AUTH_COOKIE_SECURE", "false")
	setEnvIfEmpty("BOOTSTRAP_DEFAULT_ADMIN", "true")
	setEnvIfEmpty("LOG_LEVEL", "error")
}

func setEnvIfEmpty(key, value string) {
	if strings.TrimSpace(os.Getenv(key)) != "" {
		return
	}
	_ = os.Setenv(key, value)
}

var dataTables = []string{
	"invoices",
	"room_meter_readings",
	"building_meter_readings",
	"billing_periods",
	"contract_tenants",
	"contracts",
	"tenants",
	"apartments",
	"cost_settings",
	"sessions",
	"users",
}

func resetDatabase(t *testing.T, dbConn *gorm.DB) {
	t.Helper()
	for _, table := range dataTables {
		if err := dbConn.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clear table %s: %v", table, err)
		}
	}
	if err := seed.EnsureCostSettings(dbConn); err != nil {
		t.Fatalf("seed cost settings: %v", err)
	}
	if err := seed.EnsureCurrentPeriod(dbConn); err != nil {
		t.Fatalf("seed current period: %v", err)
	}
	if err := seed.EnsureDefaultAdmin(dbConn, env.cfg.Bootstrap); err != nil {
		t.Fatalf("seed default admin: %v", err)
	}
}

func newHTTPClient() *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func doJSON(t *testing.T, client *http.Client, method, reqURL string, payload any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, reqURL, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, reqURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, raw
}

func loginAdmin(t *testing.T) *http.Client {
	t.Helper()
	client := newHTTPClient()

	req := map[string]any{
		"username": env.cfg.Bootstrap.DefaultAdminUsername,
		"password": env.cfg.Bootstrap.DefaultAdminPassword,
	}
	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/auth/login", req, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d: %s", resp.StatusCode, string(body))
	}

	baseURL, err := url.Parse(env.baseURL)
	if err == nil {
		found := false
		for _, cookie := range client.Jar.Cookies(baseURL) {
			if cookie.Name == "_sid" && strings.TrimSpace(cookie.Value) != "" {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected session cookie after login")
		}
	}

	return client
}

func decodeData(t *testing.T, body []byte, out any) {
	t.Helper()
	payload := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode envelope: %v: %s", err, string(body))
	}
	if err := json.Unmarshal(payload.Data, out); err != nil {
		t.Fatalf("decode data: %v: %s", err, string(payload.Data))
	}
}

func TestE2E_HealthCheck(t *testing.T) {
	resetDatabase(t, env.db)

	resp, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_BootstrapDefaultAdmin(t *testing.T) {
	resetDatabase(t, env.db)

	user := struct {
		ID        int64
		Username  string
		Role      string
		IsDefault bool
	}{}
	if err := env.db.Raw(
		`SELECT id, username, role, is_default FROM users WHERE username = ?`,
		env.cfg.Bootstrap.DefaultAdminUsername,
	).Scan(&user).Error; err != nil {
		t.Fatalf("query admin user: %v", err)
	}
	if user.ID == 0 || !user.IsDefault || user.Role != "admin" {
		t.Fatalf("default admin not seeded: %+v", user)
	}

	client := loginAdmin(t)

	resp, body := doJSON(t, client, http.MethodGet, env.baseURL+"/auth/me", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me failed: %d: %s", resp.StatusCode, string(body))
	}

	me := struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}{}
	decodeData(t, body, &me)
	if me.Role != "admin" {
		t.Fatalf("expected admin role, got %s", me.Role)
	}
}

func TestE2E_FullBillingFlow(t *testing.T) {
	resetDatabase(t, env.db)
	client := loginAdmin(t)

	apartment := struct {
		ID string `json:"id"`
	}{}
	resp, body := doJSON(t, client, http.MethodPost, env.baseURL+"/api/apartments", map[string]any{
		"room_number":  "101",
		"floor":        1,
		"default_rent": 3000000,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create apartment: %d: %s", resp.StatusCode, string(body))
	}
	decodeData(t, body, &apartment)

	tenant := struct {
		ID string `json:"id"`
	}{}
	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/api/tenants", map[string]any{
		"full_name": "Nguyen Van An",
		"phone":     "0901234567",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create tenant: %d: %s", resp.StatusCode, string(body))
	}
	decodeData(t, body, &tenant)

	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/api/contracts", map[string]any{
		"apartment_id": apartment.ID,
		"tenant_ids":   []string{tenant.ID},
		"start_date":   time.Now().UTC().AddDate(0, -1, 0),
		"deposit":      3000000,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create contract: %d: %s", resp.StatusCode, string(body))
	}

	// building meters: single phase 1000 -> 1500, three phase 0 -> 300
	resp, body = doJSON(t, client, http.MethodPut, env.baseURL+"/api/meters/building", map[string]any{
		"phase":    "SINGLE",
		"previous": 1000,
		"current":  1500,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert single phase: %d: %s", resp.StatusCode, string(body))
	}
	resp, body = doJSON(t, client, http.MethodPut, env.baseURL+"/api/meters/building", map[string]any{
		"phase":    "THREE",
		"previous": 0,
		"current":  300,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert three phase: %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, client, http.MethodPut, env.baseURL+"/api/meters/rooms", map[string]any{
		"apartment_id": apartment.ID,
		"previous":     100,
		"current":      150,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert room reading: %d: %s", resp.StatusCode, string(body))
	}

	type generateResult struct {
		Generated int `json:"generated"`
		Skipped   int `json:"skipped"`
		Invoices  []struct {
			ID                string `json:"id"`
			InvoiceNumber     string `json:"invoice_number"`
			Rent              int64  `json:"rent"`
			RoomElectricity   int64  `json:"room_electricity"`
			SharedElectricity int64  `json:"shared_electricity"`
			Water             int64  `json:"water"`
			Internet          int64  `json:"internet"`
			Service           int64  `json:"service"`
			Total             int64  `json:"total"`
			Status            string `json:"status"`
		} `json:"invoices"`
	}

	var preview generateResult
	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/api/billing/preview", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview: %d: %s", resp.StatusCode, string(body))
	}
	decodeData(t, body, &preview)
	if preview.Generated != 1 {
		t.Fatalf("expected 1 previewed invoice, got %d", preview.Generated)
	}

	var result generateResult
	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/api/billing/generate", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("generate: %d: %s", resp.StatusCode, string(body))
	}
	decodeData(t, body, &result)
	if result.Generated != 1 || len(result.Invoices) != 1 {
		t.Fatalf("expected 1 generated invoice, got %+v", result)
	}

	// room usage 50 of building 800: pool 750, one occupant
	inv := result.Invoices[0]
	if inv.Rent != 3000000 {
		t.Fatalf("expected rent 3000000, got %d", inv.Rent)
	}
	if inv.RoomElectricity != 200000 {
		t.Fatalf("expected room electricity 200000, got %d", inv.RoomElectricity)
	}
	if inv.SharedElectricity != 3000000 {
		t.Fatalf("expected shared electricity 3000000, got %d", inv.SharedElectricity)
	}
	if inv.Water != 100000 || inv.Internet != 100000 || inv.Service != 100000 {
		t.Fatalf("unexpected fixed charges: %+v", inv)
	}
	if inv.Total != 6500000 {
		t.Fatalf("expected total 6500000, got %d", inv.Total)
	}
	if inv.Status != "PENDING" {
		t.Fatalf("expected status PENDING, got %s", inv.Status)
	}

	// rerun is a no-op
	var rerun generateResult
	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/api/billing/generate", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("regenerate: %d: %s", resp.StatusCode, string(body))
	}
	decodeData(t, body, &rerun)
	if rerun.Generated != 0 || rerun.Skipped != 1 {
		t.Fatalf("expected rerun to skip, got %+v", rerun)
	}

	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/api/invoices/"+inv.ID+"/pay", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark paid: %d: %s", resp.StatusCode, string(body))
	}
	paid := struct {
		Status string `json:"status"`
	}{}
	decodeData(t, body, &paid)
	if paid.Status != "PAID" {
		t.Fatalf("expected status PAID, got %s", paid.Status)
	}

	resp, body = doJSON(t, client, http.MethodGet, env.baseURL+"/api/invoices/"+inv.ID+"/pdf", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("render pdf: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/pdf") {
		t.Fatalf("expected pdf content type, got %s", ct)
	}
	if len(body) == 0 {
		t.Fatalf("expected pdf bytes")
	}
}

func TestE2E_PeriodRollover(t *testing.T) {
	resetDatabase(t, env.db)
	client := loginAdmin(t)

	period := struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}{}
	resp, body := doJSON(t, client, http.MethodGet, env.baseURL+"/api/meters/period", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get period: %d: %s", resp.StatusCode, string(body))
	}
	decodeData(t, body, &period)

	next := struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}{}
	resp, body = doJSON(t, client, http.MethodPost, env.baseURL+"/api/meters/rollover", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rollover: %d: %s", resp.StatusCode, string(body))
	}
	decodeData(t, body, &next)

	wantMonth, wantYear := period.Month+1, period.Year
	if wantMonth > 12 {
		wantMonth, wantYear = 1, wantYear+1
	}
	if next.Month != wantMonth || next.Year != wantYear {
		t.Fatalf("expected period %d/%d, got %d/%d", wantMonth, wantYear, next.Month, next.Year)
	}
}

func TestE2E_RoleEnforcement(t *testing.T) {
	resetDatabase(t, env.db)
	admin := loginAdmin(t)

	resp, body := doJSON(t, admin, http.MethodPost, env.baseURL+"/api/users", map[string]any{
		"username":     "viewer",
		"password":     "viewer-pass",
		"display_name": "Viewer",
		"role":         "user",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create viewer: %d: %s", resp.StatusCode, string(body))
	}

	viewer := newHTTPClient()
	resp, body = doJSON(t, viewer, http.MethodPost, env.baseURL+"/auth/login", map[string]any{
		"username": "viewer",
		"password": "viewer-pass",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("viewer login: %d: %s", resp.StatusCode, string(body))
	}

	// read allowed
	resp, body = doJSON(t, viewer, http.MethodGet, env.baseURL+"/api/apartments", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("viewer list apartments: %d: %s", resp.StatusCode, string(body))
	}

	// writes denied
	resp, body = doJSON(t, viewer, http.MethodPut, env.baseURL+"/api/settings", map[string]any{
		"electricity_per_kwh": 4500,
	}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer settings update, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = doJSON(t, viewer, http.MethodPost, env.baseURL+"/api/billing/generate", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer billing generate, got %d: %s", resp.StatusCode, string(body))
	}

	// unauthenticated denied outright
	resp, body = doJSON(t, newHTTPClient(), http.MethodGet, env.baseURL+"/api/apartments", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d: %s", resp.StatusCode, string(body))
	}
}
