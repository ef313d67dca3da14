package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/service"
)

// maxQRBytes caps the payment QR upload.
const maxQRBytes = 5 << 20

var qrExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".pdf": true}

// Bookings is what BookingHandler needs from service.BookingService.
type Bookings interface {
	CreateBooking(ctx context.Context, who service.Identity, req service.BookingRequest) (model.Booking, model.Order, error)
	ListMine(ctx context.Context, who service.Identity) ([]model.Booking, error)
	ListAll(ctx context.Context, f model.BookingFilter) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, status string) (model.Booking, error)
	AttachPaymentQR(ctx context.Context, id uint64, path string) (model.Booking, error)
	DeleteByUser(ctx context.Context, who service.Identity, id uint64) (model.Booking, error)
	DeleteByAdmin(ctx context.Context, id uint64) error
}

type BookingHandler struct {
	Bookings  Bookings
	UploadDir string
}

func NewBookingHandler(b Bookings, uploadDir string) *BookingHandler {
	return &BookingHandler{Bookings: b, UploadDir: uploadDir}
}

// Create places a booking and its derived order.
func (h *BookingHandler) Create(c echo.Context) error {
	var req service.BookingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	b, o, err := h.Bookings.CreateBooking(ctx, middleware.IdentityFrom(c), req)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusCreated, "Booking created successfully", echo.Map{"booking": b, "order": o})
}

func (h *BookingHandler) ListMine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Bookings.ListMine(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

// DeleteMine hides a booking from its owner.  The admin still sees it.
func (h *BookingHandler) DeleteMine(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.DeleteByUser(ctx, middleware.IdentityFrom(c), id)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Booking deleted", b)
}

// ListAll is the admin queue.  Soft-deleted bookings are included unless
// includeDeleted=false.
func (h *BookingHandler) ListAll(c echo.Context) error {
	f := model.BookingFilter{
		Status:         strings.ToLower(strings.TrimSpace(c.QueryParam("status"))),
		UserID:         queryUint(c, "userId", 0),
		IncludeDeleted: true,
		Limit:          queryUint(c, "limit", 0),
		Offset:         queryUint(c, "offset", 0),
	}
	if v := c.QueryParam("includeDeleted"); v != "" {
		inc, err := strconv.ParseBool(v)
		if err != nil {
			return fail(c, http.StatusBadRequest, "includeDeleted must be a boolean")
		}
		f.IncludeDeleted = inc
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Bookings.ListAll(ctx, f)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

type bookingStatusReq struct {
	Status string `json:"status"`
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	var req bookingStatusReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Booking status updated", b)
}

// UploadPaymentQR stores the multipart "qr" file under UploadDir/qr and
// attaches its public path to the booking.  The file is removed again when
// the booking cannot take it.
func (h *BookingHandler) UploadPaymentQR(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	fh, err := c.FormFile("qr")
	if err != nil {
		return fail(c, http.StatusBadRequest, "qr file is required")
	}
	if fh.Size > maxQRBytes {
		return fail(c, http.StatusBadRequest, "qr file is too large")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !qrExtensions[ext] {
		return fail(c, http.StatusBadRequest, "qr must be an image or a pdf")
	}

	dir := filepath.Join(h.UploadDir, "qr")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return respondErr(c, err)
	}
	name := uuid.NewString() + ext
	dst := filepath.Join(dir, name)
	if err := saveUpload(fh, dst); err != nil {
		return respondErr(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Bookings.AttachPaymentQR(ctx, id, path.Join("/uploads", "qr", name))
	if err != nil {
		_ = os.Remove(dst)
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Payment QR sent", b)
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(src, maxQRBytes)); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func (h *BookingHandler) Delete(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid booking id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Bookings.DeleteByAdmin(ctx, id); err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Booking deleted", nil)
}
