package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
)

const maxChatMessage = 2000

type ChatStore interface {
	AppendFromUser(ctx context.Context, user model.User, text string) (model.ChatThread, error)
	AppendFromAdmin(ctx context.Context, userID uint64, text string) (model.ChatThread, error)
	GetByUser(ctx context.Context, userID uint64) (model.ChatThread, error)
	List(ctx context.Context) ([]model.ChatThread, error)
	Delete(ctx context.Context, userID uint64) error
}

// ChatHandler serves the shopper/admin support chat.  Each shopper has one
// thread.
type ChatHandler struct {
	Chats ChatStore
}

func NewChatHandler(s ChatStore) *ChatHandler { return &ChatHandler{Chats: s} }

type chatReq struct {
	Message string `json:"message"`
}

func bindMessage(c echo.Context) (string, string) {
	var req chatReq
	if err := c.Bind(&req); err != nil {
		return "", "invalid body"
	}
	msg := strings.TrimSpace(req.Message)
	switch {
	case msg == "":
		return "", "message is required"
	case utf8.RuneCountInString(msg) > maxChatMessage:
		return "", "message is too long"
	}
	return msg, ""
}

func (h *ChatHandler) Send(c echo.Context) error {
	msg, problem := bindMessage(c)
	if problem != "" {
		return fail(c, http.StatusBadRequest, problem)
	}
	who := middleware.IdentityFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Chats.AppendFromUser(ctx, model.User{ID: who.ID, UserName: who.UserName, Email: who.Email}, msg)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusCreated, "Message sent", t)
}

// Mine returns the caller's thread, empty when they never wrote.
func (h *ChatHandler) Mine(c echo.Context) error {
	who := middleware.IdentityFrom(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Chats.GetByUser(ctx, who.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return ok(c, http.StatusOK, model.ChatThread{UserID: who.ID, UserName: who.UserName, Email: who.Email, Messages: []model.ChatMessage{}})
	}
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, t)
}

func (h *ChatHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Chats.List(ctx)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, list)
}

func (h *ChatHandler) Get(c echo.Context) error {
	uid, valid := pathID(c, "userId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Chats.GetByUser(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "chat not found")
	}
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, t)
}

// Reply appends an admin message.  Admins cannot open a thread.
func (h *ChatHandler) Reply(c echo.Context) error {
	uid, valid := pathID(c, "userId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	msg, problem := bindMessage(c)
	if problem != "" {
		return fail(c, http.StatusBadRequest, problem)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Chats.AppendFromAdmin(ctx, uid, msg)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "chat not found")
	}
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusCreated, "Reply sent", t)
}

func (h *ChatHandler) Delete(c echo.Context) error {
	uid, valid := pathID(c, "userId")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Chats.Delete(ctx, uid); errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusNotFound, "chat not found")
	} else if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Chat deleted", nil)
}
