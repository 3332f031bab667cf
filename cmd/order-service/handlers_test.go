package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/MikeMC777/multimarket/internal/auth"
	"github.com/MikeMC777/multimarket/internal/cart"
	ord "github.com/MikeMC777/multimarket/internal/order"
)

//
// ---------- STUBS & FAKES ----------
//

// stubRepo implements ord.Repository in memory.
type stubRepo struct {
	mu       sync.Mutex
	orders   map[string]ord.Order
	seq      int
	now      time.Time
	conflict bool // next Update loses the race
}

func newStubRepo(now time.Time) *stubRepo {
	return &stubRepo{orders: map[string]ord.Order{}, seq: 100000, now: now}
}

func (s *stubRepo) Create(_ context.Context, o *ord.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	o.OrderID = strconv.Itoa(s.seq)
	o.CreatedAt, o.UpdatedAt, o.Version = s.now, s.now, 1
	s.orders[o.ID] = *o
	return nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*ord.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ord.ErrNotFound
	}
	return &o, nil
}

func (s *stubRepo) ListByUser(_ context.Context, userID string, _, _ int) ([]ord.Order, error) {
	return s.filter(func(o ord.Order) bool { return o.UserID == userID }), nil
}

func (s *stubRepo) List(_ context.Context, f ord.ListFilter) ([]ord.Order, error) {
	return s.filter(func(o ord.Order) bool { return f.Status == "" || o.Status == f.Status }), nil
}

// filter returns matching orders, newest first.
func (s *stubRepo) filter(keep func(ord.Order) bool) []ord.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ord.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID > out[j].OrderID })
	return out
}

func (s *stubRepo) Stats(context.Context, time.Time) (ord.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := ord.Stats{Total: len(s.orders)}
	for _, o := range s.orders {
		if o.Status == ord.StatusPending {
			st.Pending++
		}
	}
	return st, nil
}

func (s *stubRepo) Update(_ context.Context, o *ord.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok {
		return ord.ErrNotFound
	}
	if s.conflict || cur.Version != o.Version {
		s.conflict = false
		return ord.ErrConflict
	}
	o.Version++
	o.UpdatedAt = s.now
	s.orders[o.ID] = *o
	return nil
}

// memCarts implements cart.Store.
type memCarts struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func (m *memCarts) Get(_ context.Context, userID string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return cart.New(userID), nil
	}
	c.Items = append([]cart.Item(nil), c.Items...)
	return &c, nil
}

func (m *memCarts) Save(_ context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.UserID] = *c
	return nil
}

func (m *memCarts) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *memCarts) ClearIfUnchanged(_ context.Context, userID string, seen time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok && !c.UpdatedAt.Equal(seen) {
		return false, nil
	}
	delete(m.carts, userID)
	return true, nil
}

// fakeUserClient implements userrpc.Validator.
type fakeUserClient struct {
	ok bool
}

func (f *fakeUserClient) ValidateUser(context.Context, string, ...grpc.CallOption) (bool, error) {
	return f.ok, nil
}

// newProductServer serves GET /products/:id like product-service.
func newProductServer(t *testing.T, products ...ord.ProductDTO) *httptest.Server {
	t.Helper()
	byID := map[string]ord.ProductDTO{}
	for _, p := range products {
		byID[p.ID] = p
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		p, ok := byID[path.Base(r.URL.Path)]
		if !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

//
// ---------- HARNESS ----------
//

var (
	t0     = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tokens = auth.NewIssuer("test-secret", time.Hour)
)

type harness struct {
	r     *gin.Engine
	repo  *stubRepo
	carts *memCarts
	svc   *ord.Service
	ext   *ord.Ext
	now   time.Time
}

func newHarness(t *testing.T, userOK bool) *harness {
	t.Helper()
	psrv := newProductServer(t,
		ord.ProductDTO{ID: "kabel", Title: "Kabel 3x2.5", Price: "50,000", Category: "elektr"},
		ord.ProductDTO{ID: "unitaz", Title: "Unitaz", Price: "1,250,000", Category: "santexnika"},
	)
	ext := &ord.Ext{
		HTTP:           &http.Client{Timeout: 2 * time.Second},
		User:           &fakeUserClient{ok: userOK},
		ProductBaseURL: strings.TrimRight(psrv.URL, "/"),
	}
	h := &harness{repo: newStubRepo(t0), carts: &memCarts{carts: map[string]cart.Cart{}}, ext: ext, now: t0}
	h.svc = ord.NewService(ord.Deps{Repo: h.repo, Carts: h.carts, Catalog: ext, Users: ext})
	h.svc.SetClock(func() time.Time { return h.now })

	h.r = gin.New()
	routes(h.r, h.svc, tokens, zap.NewNop())
	return h
}

func token(t *testing.T, uid, role string) string {
	t.Helper()
	tok, err := tokens.Issue(auth.Principal{UID: uid, Email: uid + "@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (h *harness) do(method, target, tok, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

const checkoutBody = `{"fullName":"Aziz Karimov","phone":"90 123 45 67","address":"Toshkent","paymentType":"delivery"}`

// place fills the buyer's cart and checks out, returning the created order.
func (h *harness) place(t *testing.T, tok string, products ...string) ord.View {
	t.Helper()
	for _, p := range products {
		if w := h.do(http.MethodPost, "/cart", tok, `{"product_id":"`+p+`"}`); w.Code != http.StatusOK {
			t.Fatalf("add %s: status=%d body=%s", p, w.Code, w.Body.String())
		}
	}
	w := h.do(http.MethodPost, "/orders", tok, checkoutBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: status=%d body=%s", w.Code, w.Body.String())
	}
	var v ord.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return v
}

//
// ---------- TESTS ----------
//

func TestCart_AddIncreaseAndPricing(t *testing.T) {
	h := newHarness(t, true)
	tok := token(t, "buyer-1", auth.RoleBuyer)

	h.do(http.MethodPost, "/cart", tok, `{"product_id":"unitaz"}`)
	w := h.do(http.MethodPost, "/cart/unitaz/increase", tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v ord.CartView
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	// 2 x 1,250,000 reaches the 12% tier
	if v.Count != 2 || v.Pricing.OriginalTotal != 2_500_000 || v.Pricing.DiscountPercentage != 12 || v.Pricing.Total != 2_200_000 {
		t.Fatalf("unexpected cart view: count=%d pricing=%+v", v.Count, v.Pricing)
	}

	if w := h.do(http.MethodPost, "/cart", tok, `{"product_id":"missing"}`); w.Code != http.StatusNotFound {
		t.Fatalf("want 404 for unknown product, got %d", w.Code)
	}
	if w := h.do(http.MethodDelete, "/cart/kabel", tok, ""); w.Code != http.StatusNotFound {
		t.Fatalf("want 404 removing a product not in cart, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/cart", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 without token, got %d", w.Code)
	}
}

func TestAddToCart_ProductServiceDown(t *testing.T) {
	h := newHarness(t, true)
	tok := token(t, "buyer-1", auth.RoleBuyer)

	down := httptest.NewServer(http.NotFoundHandler())
	h.ext.ProductBaseURL = down.URL
	down.Close()

	if w := h.do(http.MethodPost, "/cart", tok, `{"product_id":"kabel"}`); w.Code != http.StatusBadGateway {
		t.Fatalf("want 502 when product-service is unreachable, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateOrder_HappyPath(t *testing.T) {
	h := newHarness(t, true)
	tok := token(t, "buyer-1", auth.RoleBuyer)

	v := h.place(t, tok, "kabel", "unitaz")
	if v.Status != ord.StatusPending || v.OrderID != "100001" {
		t.Fatalf("unexpected order: status=%s number=%s", v.Status, v.OrderID)
	}
	if v.UserInfo.Phone != "+998901234567" {
		t.Fatalf("phone not normalised: %q", v.UserInfo.Phone)
	}
	if v.OriginalTotal != 1_300_000 || v.DiscountPercentage != 8 || v.Total != 1_196_000 {
		t.Fatalf("totals=%d/%d%%/%d", v.OriginalTotal, v.DiscountPercentage, v.Total)
	}
	if v.PaymentStatus != ord.PaymentCash || v.CancellableFor == nil || *v.CancellableFor != 120 {
		t.Fatalf("unexpected payment/cancel window: %+v", v)
	}
	if len(h.repo.orders) != 1 {
		t.Fatalf("order not persisted")
	}
	if _, ok := h.carts.carts["buyer-1"]; ok {
		t.Fatalf("cart must be cleared after checkout")
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	h := newHarness(t, true)
	tok := token(t, "buyer-1", auth.RoleBuyer)

	if w := h.do(http.MethodPost, "/orders", tok, checkoutBody); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for empty cart, got %d", w.Code)
	}
	h.do(http.MethodPost, "/cart", tok, `{"product_id":"kabel"}`)

	for _, body := range []string{
		`{"fullName":"A","phone":"12345","address":"X","paymentType":"delivery"}`,
		`{"fullName":"A","phone":"901234567","address":"X","paymentType":"bitcoin"}`,
		`{"phone":"901234567","address":"X","paymentType":"cod"}`,
	} {
		if w := h.do(http.MethodPost, "/orders", tok, body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: want 400, got %d", body, w.Code)
		}
	}
	if _, ok := h.carts.carts["buyer-1"]; !ok {
		t.Fatalf("rejected checkout must keep the cart")
	}
}

func TestCreateOrder_UnknownBuyer(t *testing.T) {
	h := newHarness(t, false)
	tok := token(t, "ghost", auth.RoleBuyer)
	h.do(http.MethodPost, "/cart", tok, `{"product_id":"kabel"}`)

	if w := h.do(http.MethodPost, "/orders", tok, checkoutBody); w.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d body=%s", w.Code, w.Body.String())
	}
	if len(h.repo.orders) != 0 {
		t.Fatalf("no order may be stored")
	}
}

func TestGetOrder_NotFoundAndOwnership(t *testing.T) {
	h := newHarness(t, true)
	owner := token(t, "buyer-1", auth.RoleBuyer)
	v := h.place(t, owner, "kabel")

	if w := h.do(http.MethodGet, "/orders/"+uuid.NewString(), owner, ""); w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/orders/"+v.ID, token(t, "buyer-2", auth.RoleBuyer), ""); w.Code != http.StatusForbidden {
		t.Fatalf("want 403 for another buyer, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/orders/"+v.ID, token(t, "admin", auth.RoleAdmin), ""); w.Code != http.StatusOK {
		t.Fatalf("admin must read any order, got %d", w.Code)
	}
}

func TestListMyOrders(t *testing.T) {
	h := newHarness(t, true)
	tok := token(t, "buyer-1", auth.RoleBuyer)
	h.place(t, tok, "kabel")
	h.place(t, token(t, "buyer-2", auth.RoleBuyer), "kabel")
	h.now = t0.Add(30 * time.Second)

	w := h.do(http.MethodGet, "/orders/mine", tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Items []ord.View `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].CancellableFor == nil || *got.Items[0].CancellableFor != 90 {
		t.Fatalf("unexpected list: %s", w.Body.String())
	}
}

func TestBuyerCancel_Window(t *testing.T) {
	h := newHarness(t, true)
	tok := token(t, "buyer-1", auth.RoleBuyer)
	late := h.place(t, tok, "kabel")
	early := h.place(t, tok, "kabel")

	h.now = t0.Add(120 * time.Second)
	w := h.do(http.MethodPost, "/orders/"+early.ID+"/cancel", tok, `{"reason":"changed my mind"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel at 120s: status=%d body=%s", w.Code, w.Body.String())
	}
	if got := h.repo.orders[early.ID]; got.Status != ord.StatusCancelled || got.CancellationReason != "changed my mind" {
		t.Fatalf("unexpected order after cancel: %+v", got)
	}

	h.now = t0.Add(121 * time.Second)
	if w := h.do(http.MethodPost, "/orders/"+late.ID+"/cancel", tok, ""); w.Code != http.StatusForbidden {
		t.Fatalf("want 403 after window, got %d body=%s", w.Code, w.Body.String())
	}
	if h.repo.orders[late.ID].Status != ord.StatusPending {
		t.Fatalf("expired cancel must not mutate")
	}
}

func TestAdminStatus_Flow(t *testing.T) {
	h := newHarness(t, true)
	v := h.place(t, token(t, "buyer-1", auth.RoleBuyer), "kabel")
	admin := token(t, "admin", auth.RoleAdmin)
	target := "/admin/orders/" + v.ID + "/status"

	if w := h.do(http.MethodPut, target, token(t, "buyer-1", auth.RoleBuyer), `{"status":"delivered"}`); w.Code != http.StatusForbidden {
		t.Fatalf("buyer on admin route: want 403, got %d", w.Code)
	}
	if w := h.do(http.MethodPut, target, admin, `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 without status, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/admin/orders/"+v.ID+"/assign", admin, `{"name":"Bekzod"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 without driver phone, got %d", w.Code)
	}
	if w := h.do(http.MethodPut, target, admin, `{"status":"wtf"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: want 400, got %d", w.Code)
	}
	if w := h.do(http.MethodPut, target, admin, `{"status":"delivered"}`); w.Code != http.StatusConflict {
		t.Fatalf("pending -> delivered: want 409, got %d", w.Code)
	}

	w := h.do(http.MethodPut, target, admin, `{"status":"driver_assigned","driver":{"name":"Bekzod","phone":"+998901112233"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("assign: status=%d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodPost, "/admin/orders/"+v.ID+"/deliver", admin, ""); w.Code != http.StatusOK {
		t.Fatalf("deliver: status=%d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodPost, "/admin/orders/"+v.ID+"/cancel", admin, `{"reason":"late"}`); w.Code != http.StatusConflict {
		t.Fatalf("delivered order must reject cancel, got %d", w.Code)
	}
	got := h.repo.orders[v.ID]
	if got.Status != ord.StatusDelivered || got.Driver == nil || got.DeliveredAt == nil {
		t.Fatalf("unexpected final order: %+v", got)
	}
}

func TestAdminCancel_RequiresReason(t *testing.T) {
	h := newHarness(t, true)
	v := h.place(t, token(t, "buyer-1", auth.RoleBuyer), "kabel")
	admin := token(t, "admin", auth.RoleAdmin)

	if w := h.do(http.MethodPost, "/admin/orders/"+v.ID+"/cancel", admin, `{"reason":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 without reason, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/admin/orders/"+v.ID+"/cancel", admin, `{"reason":"out of stock"}`); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestAdmin_ConcurrentUpdateIsConflict(t *testing.T) {
	h := newHarness(t, true)
	v := h.place(t, token(t, "buyer-1", auth.RoleBuyer), "kabel")
	h.repo.conflict = true

	w := h.do(http.MethodPost, "/admin/orders/"+v.ID+"/deliver", token(t, "admin", auth.RoleAdmin), "")
	// pending -> delivered is rejected before the write
	if w.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", w.Code)
	}
	w = h.do(http.MethodPost, "/admin/orders/"+v.ID+"/assign", token(t, "admin", auth.RoleAdmin),
		`{"name":"Bekzod","phone":"+998901112233"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("lost race: want 409, got %d body=%s", w.Code, w.Body.String())
	}
	if h.repo.orders[v.ID].Status != ord.StatusPending {
		t.Fatalf("lost race must not overwrite")
	}
}

func TestAdminListAndStats(t *testing.T) {
	h := newHarness(t, true)
	h.place(t, token(t, "buyer-1", auth.RoleBuyer), "kabel")
	h.place(t, token(t, "buyer-2", auth.RoleBuyer), "unitaz")
	admin := token(t, "admin", auth.RoleAdmin)

	w := h.do(http.MethodGet, "/admin/orders?status=pending", admin, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Items []ord.View `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if len(got.Items) != 2 || got.Items[0].OrderID != "100002" {
		t.Fatalf("want newest first, got %s", w.Body.String())
	}
	if w := h.do(http.MethodGet, "/admin/orders?status=lost", admin, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for unknown status filter, got %d", w.Code)
	}

	w = h.do(http.MethodGet, "/admin/orders/stats", admin, "")
	var st ord.Stats
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Total != 2 || st.Pending != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestMarkPaid(t *testing.T) {
	h := newHarness(t, true)
	tok := token(t, "buyer-1", auth.RoleBuyer)
	h.do(http.MethodPost, "/cart", tok, `{"product_id":"kabel"}`)
	w := h.do(http.MethodPost, "/orders", tok,
		`{"fullName":"Aziz","phone":"+998 90 123 45 67","address":"Toshkent","paymentType":"click"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var v ord.View
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.PaymentStatus != ord.PaymentUnpaid || !v.AwaitingPayment {
		t.Fatalf("prepaid order must await payment: %+v", v)
	}

	w = h.do(http.MethodPost, "/admin/orders/"+v.ID+"/payment", token(t, "admin", auth.RoleAdmin), "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if h.repo.orders[v.ID].PaymentStatus != ord.PaymentPaid {
		t.Fatalf("payment not recorded")
	}
}

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
}
