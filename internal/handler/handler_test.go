package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/mrperfect/storefront/internal/config"
	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
	"github.com/mrperfect/storefront/internal/service"
	"github.com/mrperfect/storefront/internal/utils"
)

const secret = "handler-secret"

// Stubs embed the interface so only the methods a test needs are written.

type stubBookings struct {
	Bookings
	create func(service.Identity, service.BookingRequest) (model.Booking, model.Order, error)
	attach func(uint64, string) (model.Booking, error)
}

func (s *stubBookings) CreateBooking(_ context.Context, who service.Identity, req service.BookingRequest) (model.Booking, model.Order, error) {
	return s.create(who, req)
}

func (s *stubBookings) AttachPaymentQR(_ context.Context, id uint64, path string) (model.Booking, error) {
	return s.attach(id, path)
}

type stubOrders struct {
	Orders
	confirm func(uint64) (service.ConfirmResult, error)
	list    []model.Order
	filter  model.OrderFilter
}

func (s *stubOrders) ConfirmOrder(_ context.Context, id uint64) (service.ConfirmResult, error) {
	return s.confirm(id)
}

func (s *stubOrders) ListAll(_ context.Context, f model.OrderFilter) ([]model.Order, error) {
	s.filter = f
	return s.list, nil
}

type stubReviews struct {
	Reviews
	calls  int
	review model.ProductReview
	err    error
}

func (s *stubReviews) GetReviews(context.Context, uint64) ([]model.ProductReview, error) {
	s.calls++
	return []model.ProductReview{}, nil
}

func (s *stubReviews) SetStatus(_ context.Context, _ uint64, status string) (model.ProductReview, error) {
	s.review.Status = status
	return s.review, s.err
}

func (s *stubReviews) SetReply(_ context.Context, _ uint64, reply string) (model.ProductReview, error) {
	s.review.AdminReply = &reply
	return s.review, s.err
}

func (s *stubReviews) Delete(context.Context, uint64) (model.ProductReview, error) {
	return s.review, s.err
}

// purgeLog records evicted cache paths.
type purgeLog struct {
	paths []string
}

func (p *purgeLog) Purge(_ context.Context, paths ...string) error {
	p.paths = append(p.paths, paths...)
	return nil
}

type stubUsers struct {
	UserStore
	creates int
}

func (s *stubUsers) Create(context.Context, string, string, string, string, int) (uint64, error) {
	s.creates++
	return 0, repository.ErrDuplicate
}

type downDB struct{}

func (downDB) PingContext(context.Context) error { return errors.New("connection refused") }

func token(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, utils.Subject{UserID: id, Role: role, UserName: "asha", Email: "asha@example.com", Phone: "9000000000"}, 5)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok.Token
}

func do(e *echo.Echo, method, target, auth string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestRespondErrStatuses(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ValidationError("size is required"), http.StatusBadRequest},
		{service.ErrEmptyCart, http.StatusBadRequest},
		{service.ErrNotAuthenticated, http.StatusUnauthorized},
		{service.ErrPurchaseRequired, http.StatusForbidden},
		{repository.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("wrap: %w", service.ErrOrderNotFound), http.StatusNotFound},
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrDuplicateReview, http.StatusConflict},
		{fmt.Errorf("%w: pending -> pending", service.ErrInvalidTransition), http.StatusConflict},
		{repository.ErrDuplicate, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		_ = respondErr(c, tc.err)
		if rec.Code != tc.code {
			t.Errorf("%v: code = %d, want %d", tc.err, rec.Code, tc.code)
		}
		if env := decode(t, rec); env.Success {
			t.Errorf("%v: success = true", tc.err)
		}
	}
}

func TestValidationMessageReachesClient(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = respondErr(c, service.ValidationError("size %q is not offered", "XXL"))
	if env := decode(t, rec); env.Message != `size "XXL" is not offered` {
		t.Fatalf("message = %q", env.Message)
	}
}

func TestBookingCreateUsesTokenIdentity(t *testing.T) {
	var who service.Identity
	var got service.BookingRequest
	stub := &stubBookings{create: func(w service.Identity, req service.BookingRequest) (model.Booking, model.Order, error) {
		who, got = w, req
		return model.Booking{ID: 1, BookingID: "BK-123456789", Status: model.BookingPending},
			model.Order{ID: 9, OrderStatus: model.OrderPending}, nil
	}}
	h := NewBookingHandler(stub, t.TempDir())
	e := echo.New()
	e.POST("/bookings", h.Create, middleware.JWTAuth(secret))

	rec := do(e, http.MethodPost, "/bookings", token(t, 7, model.RoleShopper), echo.Map{"productId": 3, "size": "L"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d body=%s", rec.Code, rec.Body.String())
	}
	if who.ID != 7 || who.Email != "asha@example.com" || got.ProductID != 3 || got.Size != "L" {
		t.Fatalf("who=%+v req=%+v", who, got)
	}
	env := decode(t, rec)
	var data struct {
		Booking model.Booking `json:"booking"`
		Order   model.Order   `json:"order"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Booking.BookingID != "BK-123456789" || data.Order.ID != 9 {
		t.Fatalf("data = %+v", data)
	}
}

func TestBookingCreateMapsServiceErrors(t *testing.T) {
	stub := &stubBookings{create: func(service.Identity, service.BookingRequest) (model.Booking, model.Order, error) {
		return model.Booking{}, model.Order{}, service.ErrProductNotFound
	}}
	e := echo.New()
	e.POST("/bookings", NewBookingHandler(stub, "").Create, middleware.JWTAuth(secret))
	rec := do(e, http.MethodPost, "/bookings", token(t, 7, model.RoleShopper), echo.Map{"productId": 99, "size": "M"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
}

func multipartQR(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("qr", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(content)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func uploadQR(t *testing.T, e *echo.Echo, id, filename string) *httptest.ResponseRecorder {
	body, ctype := multipartQR(t, filename, []byte("\x89PNG fake"))
	req := httptest.NewRequest(http.MethodPost, "/bookings/"+id+"/payment-qr", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestUploadPaymentQR(t *testing.T) {
	dir := t.TempDir()
	var stored string
	stub := &stubBookings{attach: func(id uint64, path string) (model.Booking, error) {
		if id == 404 {
			return model.Booking{}, service.ErrBookingNotFound
		}
		stored = path
		return model.Booking{ID: id, Status: model.BookingContacted, PaymentQR: &path}, nil
	}}
	e := echo.New()
	e.POST("/bookings/:id/payment-qr", NewBookingHandler(stub, dir).UploadPaymentQR)

	rec := uploadQR(t, e, "5", "pay.PNG")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(stored, "/uploads/qr/") || !strings.HasSuffix(stored, ".png") {
		t.Fatalf("stored path = %q", stored)
	}
	if _, err := os.Stat(filepath.Join(dir, "qr", filepath.Base(stored))); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	rec = uploadQR(t, e, "404", "pay.png")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown booking code = %d", rec.Code)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "qr"))
	if len(entries) != 1 {
		t.Fatalf("files after failed attach = %d, want 1", len(entries))
	}

	if rec := uploadQR(t, e, "5", "pay.exe"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad extension code = %d", rec.Code)
	}
	if rec := uploadQR(t, e, "abc", "pay.png"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id code = %d", rec.Code)
	}
}

func TestConfirmOrderMessages(t *testing.T) {
	stub := &stubOrders{confirm: func(id uint64) (service.ConfirmResult, error) {
		switch id {
		case 1:
			return service.ConfirmResult{Order: model.Order{ID: 1, OrderStatus: model.OrderConfirmed}}, nil
		case 2:
			return service.ConfirmResult{Order: model.Order{ID: 2, OrderStatus: model.OrderConfirmed}, AlreadyConfirmed: true}, nil
		}
		return service.ConfirmResult{}, service.ErrOrderNotFound
	}}
	e := echo.New()
	e.POST("/orders/confirm", NewOrderHandler(stub).Confirm)

	cases := []struct {
		body any
		code int
		msg  string
	}{
		{echo.Map{"orderId": 1}, http.StatusOK, "Order confirmed"},
		{echo.Map{"orderId": 2}, http.StatusOK, "Order already confirmed"},
		{echo.Map{"orderId": 3}, http.StatusNotFound, "order not found"},
		{echo.Map{}, http.StatusBadRequest, "orderId is required"},
	}
	for _, tc := range cases {
		rec := do(e, http.MethodPost, "/orders/confirm", "", tc.body)
		if rec.Code != tc.code {
			t.Errorf("%v: code = %d, want %d", tc.body, rec.Code, tc.code)
			continue
		}
		if env := decode(t, rec); env.Message != tc.msg {
			t.Errorf("%v: message = %q, want %q", tc.body, env.Message, tc.msg)
		}
	}
}

func TestOrderExportWorkbook(t *testing.T) {
	booking := "BK-654321123"
	stub := &stubOrders{list: []model.Order{{
		ID:            11,
		UserID:        7,
		BookingID:     &booking,
		OrderStatus:   model.OrderPending,
		PaymentMethod: "contact-admin",
		PaymentStatus: "pending",
		TotalAmount:   decimal.RequireFromString("699"),
		Items:         []model.OrderItem{{ProductID: 3, Title: "Linen Shirt", Size: "L", Price: decimal.RequireFromString("699"), Quantity: 1}},
	}}}
	e := echo.New()
	e.GET("/orders/export", NewOrderHandler(stub).Export)

	rec := do(e, http.MethodGet, "/orders/export?status=pending&userId=7", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "orders-") {
		t.Fatalf("content disposition = %q", cd)
	}
	if stub.filter.Status != model.OrderPending || stub.filter.UserID != 7 {
		t.Fatalf("filter = %+v", stub.filter)
	}

	body := rec.Body.Bytes()
	file, err := xlsx.OpenReaderAt(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatal(err)
	}
	sheet := file.Sheet["Orders"]
	if sheet == nil || len(sheet.Rows) != 2 {
		t.Fatalf("sheet = %+v", sheet)
	}
	row := sheet.Rows[1]
	if row.Cells[1].Value != booking || !strings.Contains(row.Cells[7].Value, "Linen Shirt [L] x1") {
		t.Fatalf("row = %q %q", row.Cells[1].Value, row.Cells[7].Value)
	}
}

func TestReviewListForProductRejectsBadID(t *testing.T) {
	stub := &stubReviews{}
	e := echo.New()
	e.GET("/reviews/:productId", NewReviewHandler(stub, nil).ListForProduct)

	if rec := do(e, http.MethodGet, "/reviews/zero", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/reviews/0", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero id code = %d", rec.Code)
	}
	rec := do(e, http.MethodGet, "/reviews/3", "", nil)
	if rec.Code != http.StatusOK || stub.calls != 1 {
		t.Fatalf("code = %d calls = %d", rec.Code, stub.calls)
	}
	if env := decode(t, rec); string(env.Data) != "[]" {
		t.Fatalf("data = %s", env.Data)
	}
}

func TestReviewModerationEvictsCachedListing(t *testing.T) {
	stub := &stubReviews{review: model.ProductReview{ID: 9, ProductID: 3, Status: model.ReviewApproved}}
	purged := &purgeLog{}
	h := NewReviewHandler(stub, purged)
	e := echo.New()
	e.PUT("/reviews/:id/status", h.SetStatus)
	e.PUT("/reviews/:id/reply", h.Reply)
	e.DELETE("/reviews/:id", h.Delete)

	for _, tc := range []struct {
		method, target string
		body           any
	}{
		{http.MethodPut, "/reviews/9/status", echo.Map{"status": model.ReviewRejected}},
		{http.MethodPut, "/reviews/9/reply", echo.Map{"reply": "thanks"}},
		{http.MethodDelete, "/reviews/9", nil},
	} {
		purged.paths = nil
		rec := do(e, tc.method, tc.target, "", tc.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: code = %d", tc.method, tc.target, rec.Code)
		}
		if len(purged.paths) != 1 || purged.paths[0] != "/reviews/3" {
			t.Fatalf("%s %s: purged = %v", tc.method, tc.target, purged.paths)
		}
	}

	stub.err = service.ErrReviewNotFound
	purged.paths = nil
	if rec := do(e, http.MethodDelete, "/reviews/9", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing review code = %d", rec.Code)
	}
	if len(purged.paths) != 0 {
		t.Fatalf("failed delete purged %v", purged.paths)
	}
}

func TestRegisterValidation(t *testing.T) {
	users := &stubUsers{}
	h := NewAuthHandler(config.Config{JWTSecret: secret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}, users, nil)
	e := echo.New()
	e.POST("/auth/register", h.Register)

	for name, tc := range map[string]struct {
		body echo.Map
		code int
	}{
		"missing name":   {echo.Map{"email": "a@b.io", "password": "secret1"}, http.StatusBadRequest},
		"bad email":      {echo.Map{"userName": "asha", "email": "nope", "password": "secret1"}, http.StatusBadRequest},
		"short password": {echo.Map{"userName": "asha", "email": "a@b.io", "password": "12345"}, http.StatusBadRequest},
		"duplicate":      {echo.Map{"userName": "asha", "email": "a@b.io", "password": "secret1"}, http.StatusConflict},
	} {
		if rec := do(e, http.MethodPost, "/auth/register", "", tc.body); rec.Code != tc.code {
			t.Errorf("%s: code = %d, want %d", name, rec.Code, tc.code)
		}
	}
	if users.creates != 1 {
		t.Fatalf("creates = %d, want only the valid request to reach the store", users.creates)
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/down", Health(downDB{}))
	e.GET("/up", Health(nil))
	if rec := do(e, http.MethodGet, "/down", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("down = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/up", "", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("up = %d %q", rec.Code, rec.Body.String())
	}
}
