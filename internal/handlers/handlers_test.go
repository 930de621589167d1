package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
	"restaurant_pos/internal/services"
	"restaurant_pos/internal/testutil"
)

type apiHarness struct {
	db     *gorm.DB
	router *gin.Engine
	user   *models.User
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.OpenDB(t)
	repos := repository.New(db)
	users := services.NewUserService(repos.Users)
	ctrl := services.NewOrderController(repos, services.NewMemorySessionStore(), users, nil, nil, services.DefaultLowStockThreshold)
	return &apiHarness{
		db: db,
		router: NewRouter(RouterDeps{
			Controller: ctrl,
			Inventory:  services.NewInventoryService(repos, services.DefaultLowStockThreshold),
			Users:      users,
		}),
		user: testutil.User(t, db, "till"),
	}
}

// do sends body as JSON and decodes the response into out when out is not nil.
func (a *apiHarness) do(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", fmt.Sprint(a.user.ID))
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s (%d): %v: %s", method, path, w.Code, err, w.Body.String())
		}
	}
	return w.Code
}

func (a *apiHarness) newSession(t *testing.T) services.Session {
	t.Helper()
	var s services.Session
	if code := a.do(t, http.MethodPost, "/api/sessions", nil, &s); code != http.StatusCreated {
		t.Fatalf("create session: %d", code)
	}
	if s.UserID != a.user.ID {
		t.Fatalf("session user %d want %d", s.UserID, a.user.ID)
	}
	return s
}

func TestHealth(t *testing.T) {
	a := newAPIHarness(t)
	var body map[string]string
	if code := a.do(t, http.MethodGet, "/health", nil, &body); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", code, body)
	}
}

func TestCounterSaleOverHTTP(t *testing.T) {
	a := newAPIHarness(t)
	p := testutil.Product(t, a.db, "Burger", "8.50", 10)
	s := a.newSession(t)
	base := "/api/sessions/" + s.ID

	var item services.ItemResult
	if code := a.do(t, http.MethodPost, base+"/items", gin.H{"product_id": p.ID, "quantity": 3}, &item); code != http.StatusOK {
		t.Fatalf("add item: %d", code)
	}
	if item.OrderID == nil || !item.Total.Equal(decimal.RequireFromString("25.5")) {
		t.Fatalf("unexpected item result: %+v", item)
	}

	var errBody map[string]interface{}
	code := a.do(t, http.MethodPost, base+"/pay", gin.H{"payment_method": "cash", "amount_tendered": "20"}, &errBody)
	if code != http.StatusPaymentRequired || errBody["code"] != "insufficient_payment" {
		t.Fatalf("short payment: %d %v", code, errBody)
	}

	var receipt services.Receipt
	if code := a.do(t, http.MethodPost, base+"/pay", gin.H{"payment_method": "cash", "amount_tendered": "30"}, &receipt); code != http.StatusOK {
		t.Fatalf("pay: %d", code)
	}
	if !receipt.Change.Equal(decimal.RequireFromString("4.5")) || !receipt.OrderDeleted || receipt.Sale.UserID != a.user.ID {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if got := testutil.Stock(t, a.db, p.ID); got != 7 {
		t.Fatalf("stock %d want 7", got)
	}
}

func TestInsufficientStockResponse(t *testing.T) {
	a := newAPIHarness(t)
	p := testutil.Product(t, a.db, "Cake", "5.00", 2)
	s := a.newSession(t)

	var body map[string]interface{}
	code := a.do(t, http.MethodPost, "/api/sessions/"+s.ID+"/items", gin.H{"product_id": p.ID, "quantity": 3}, &body)
	if code != http.StatusConflict {
		t.Fatalf("status %d want 409", code)
	}
	if body["code"] != "insufficient_stock" || body["product"] != "Cake" || body["requested"] != float64(3) || body["available"] != float64(2) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestTableFlowOverHTTP(t *testing.T) {
	a := newAPIHarness(t)
	table := testutil.Table(t, a.db, 4)
	p := testutil.Product(t, a.db, "Pasta", "7.00", 10)
	s := a.newSession(t)
	base := "/api/sessions/" + s.ID

	if code := a.do(t, http.MethodPost, base+"/table", gin.H{"table_id": table.ID}, nil); code != http.StatusOK {
		t.Fatalf("select table: %d", code)
	}
	if code := a.do(t, http.MethodPost, base+"/items", gin.H{"product_id": p.ID, "quantity": 2}, nil); code != http.StatusOK {
		t.Fatalf("draft add: %d", code)
	}
	if code := a.do(t, http.MethodPost, base+"/pay", gin.H{"payment_method": "card"}, nil); code != http.StatusConflict {
		t.Fatalf("paying a draft: %d want 409", code)
	}

	var order models.Order
	if code := a.do(t, http.MethodPost, base+"/send", nil, &order); code != http.StatusCreated {
		t.Fatalf("send: %d", code)
	}

	var queue struct {
		Orders []models.Order `json:"orders"`
	}
	if code := a.do(t, http.MethodGet, "/api/kitchen/queue", nil, &queue); code != http.StatusOK || len(queue.Orders) != 1 {
		t.Fatalf("kitchen queue: %d %+v", code, queue)
	}

	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)
	if code := a.do(t, http.MethodPut, orderPath+"/status", gin.H{"status": "ready"}, nil); code != http.StatusConflict {
		t.Fatalf("skipping preparing: %d want 409", code)
	}
	for _, status := range []string{"preparing", "ready"} {
		if code := a.do(t, http.MethodPut, orderPath+"/status", gin.H{"status": status}, nil); code != http.StatusOK {
			t.Fatalf("advance to %s: %d", status, code)
		}
	}

	var receipt services.Receipt
	if code := a.do(t, http.MethodPost, orderPath+"/pay", gin.H{"payment_method": "mpesa"}, &receipt); code != http.StatusOK {
		t.Fatalf("pay: %d", code)
	}
	if receipt.OrderDeleted || receipt.TableID == nil || *receipt.TableID != table.ID {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	var stored models.Order
	if code := a.do(t, http.MethodGet, orderPath, nil, &stored); code != http.StatusOK || stored.Status != models.OrderDelivered {
		t.Fatalf("order after payment: %d %s", code, stored.Status)
	}
	var tableOrders struct {
		Orders []models.Order `json:"orders"`
	}
	a.do(t, http.MethodGet, fmt.Sprintf("/api/tables/%d/orders", table.ID), nil, &tableOrders)
	if len(tableOrders.Orders) != 0 {
		t.Fatalf("table still has active orders: %+v", tableOrders.Orders)
	}
}

func TestUnknownUserHeader(t *testing.T) {
	a := newAPIHarness(t)
	for header, want := range map[string]int{"abc": http.StatusBadRequest, "999": http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
		req.Header.Set("X-User-ID", header)
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("X-User-ID %q: status %d want %d", header, w.Code, want)
		}
	}
}

func TestMissingSessionAndBadRequests(t *testing.T) {
	a := newAPIHarness(t)
	if code := a.do(t, http.MethodGet, "/api/sessions/nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing session: %d", code)
	}
	s := a.newSession(t)
	if code := a.do(t, http.MethodPost, "/api/sessions/"+s.ID+"/items", gin.H{"quantity": 1}, nil); code != http.StatusBadRequest {
		t.Fatalf("missing product id: %d", code)
	}
	if code := a.do(t, http.MethodGet, "/api/orders/abc", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad order id: %d", code)
	}
	if code := a.do(t, http.MethodGet, "/api/orders?status=served", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad status filter: %d", code)
	}
}

func TestStockEndpoints(t *testing.T) {
	a := newAPIHarness(t)
	p := testutil.Product(t, a.db, "Rice", "5.00", 0)

	var entry models.StockEntry
	code := a.do(t, http.MethodPost, "/api/stock/entries", gin.H{"product_id": p.ID, "quantity": 12, "unit_cost": "1.5"}, &entry)
	if code != http.StatusCreated || entry.Quantity != 12 {
		t.Fatalf("record purchase: %d %+v", code, entry)
	}
	if got := testutil.Stock(t, a.db, p.ID); got != 12 {
		t.Fatalf("stock %d want 12", got)
	}

	var list struct {
		Entries []models.StockEntry `json:"entries"`
	}
	if code := a.do(t, http.MethodGet, fmt.Sprintf("/api/stock/entries?product_id=%d", p.ID), nil, &list); code != http.StatusOK || len(list.Entries) != 1 {
		t.Fatalf("list entries: %d %+v", code, list)
	}
}

func TestRateLimit(t *testing.T) {
	if _, err := RateLimit("lots"); err == nil {
		t.Fatalf("expected error for a malformed rate")
	}
	limit, err := RateLimit("1-M")
	if err != nil {
		t.Fatalf("rate limit: %v", err)
	}
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterDeps{RateLimit: limit})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes %v", codes)
	}
}

func TestTableEndpoints(t *testing.T) {
	a := newAPIHarness(t)
	t2 := testutil.Table(t, a.db, 2)
	testutil.Table(t, a.db, 1)

	var list struct {
		Tables []models.Table `json:"tables"`
	}
	if code := a.do(t, http.MethodGet, "/api/tables", nil, &list); code != http.StatusOK || len(list.Tables) != 2 {
		t.Fatalf("list tables: %d %+v", code, list)
	}
	if list.Tables[0].Number != 1 {
		t.Fatalf("tables not ordered by number: %+v", list.Tables)
	}

	path := fmt.Sprintf("/api/tables/%d/status", t2.ID)
	var table models.Table
	if code := a.do(t, http.MethodPut, path, gin.H{"status": "cleaning"}, &table); code != http.StatusOK || table.Status != models.TableCleaning {
		t.Fatalf("set cleaning: %d %+v", code, table)
	}
	if code := a.do(t, http.MethodPut, path, gin.H{"status": "occupied"}, nil); code != http.StatusConflict {
		t.Fatalf("manual occupied: %d want 409", code)
	}
}

func TestZeroQuantityPurchaseIsNoOp(t *testing.T) {
	a := newAPIHarness(t)
	p := testutil.Product(t, a.db, "Rice", "5.00", 4)

	var body map[string]interface{}
	code := a.do(t, http.MethodPost, "/api/stock/entries", gin.H{"product_id": p.ID, "quantity": 0, "unit_cost": "1.5"}, &body)
	if code != http.StatusOK || len(body) != 0 {
		t.Fatalf("zero purchase: %d %v", code, body)
	}
	if got := testutil.Stock(t, a.db, p.ID); got != 4 {
		t.Fatalf("stock %d want 4", got)
	}
	var list struct {
		Entries []models.StockEntry `json:"entries"`
	}
	a.do(t, http.MethodGet, fmt.Sprintf("/api/stock/entries?product_id=%d", p.ID), nil, &list)
	if len(list.Entries) != 0 {
		t.Fatalf("entry recorded for zero purchase: %+v", list.Entries)
	}
}
