package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mrperfect/storefront/internal/config"
	"github.com/mrperfect/storefront/internal/middleware"
	"github.com/mrperfect/storefront/internal/model"
	"github.com/mrperfect/storefront/internal/repository"
	"github.com/mrperfect/storefront/internal/utils"
)

// UserStore and TokenStore are the parts of repository.UserRepo and
// repository.TokenRepo the auth endpoints use.
type UserStore interface {
	Create(ctx context.Context, userName, email, phone, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64  `json:"id"`
	UserName string  `json:"userName"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// Register creates a shopper account and signs it in.  The role is never
// taken from the body.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.UserName = strings.TrimSpace(req.UserName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.UserName == "" || req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "userName, email and password are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fail(c, http.StatusBadRequest, "invalid email")
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.UserName, req.Email, req.Phone, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, http.StatusConflict, "user name, email or phone already registered")
		}
		return respondErr(c, err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondErr(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusCreated, "Registration successful", resp)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return respondErr(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondErr(c, err)
	}
	return okMsg(c, http.StatusOK, "Logged in successfully", resp)
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	hash, valid := h.refreshHash(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "refreshToken required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.refreshOwner(ctx, hash)
	if err != nil {
		return h.refreshErr(c, err)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return respondErr(c, err)
	}
	resp, err := h.issue(ctx, u)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, resp)
}

// RefreshAccess returns a new access token and leaves the refresh token
// as is.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	hash, valid := h.refreshHash(c)
	if !valid {
		return fail(c, http.StatusBadRequest, "refreshToken required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.refreshOwner(ctx, hash)
	if err != nil {
		return h.refreshErr(c, err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, subjectOf(u), h.Cfg.AccessTTLMin)
	if err != nil {
		return respondErr(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"access": tokenPart{Token: access.Token, Expires: access.Exp}})
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := reqCtx(c)
	defer cancel()

	if raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return h.refreshErr(c, err)
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return respondErr(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return fail(c, http.StatusBadRequest, "provide Authorization header or refreshToken")
	}
	sub, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return fail(c, http.StatusUnauthorized, "invalid token")
	}
	if err := h.Tokens.RevokeAllForUser(ctx, sub.UserID); err != nil {
		return respondErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me echoes the caller as seen by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	who := middleware.IdentityFrom(c)
	return ok(c, http.StatusOK, echo.Map{
		"id":       who.ID,
		"userName": who.UserName,
		"email":    who.Email,
		"phone":    who.Phone,
		"role":     who.Role,
	})
}

func (h *AuthHandler) refreshHash(c echo.Context) (string, bool) {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return "", false
	}
	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return "", false
	}
	return utils.HashRefreshRaw(raw), true
}

func (h *AuthHandler) refreshOwner(ctx context.Context, hash string) (model.User, error) {
	uid, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return model.User{}, err
	}
	return h.Users.GetByID(ctx, uid)
}

// refreshErr reports dead tokens and tokens of deleted users as 401.
func (h *AuthHandler) refreshErr(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, http.StatusUnauthorized, "invalid refresh token")
	}
	return respondErr(c, err)
}

func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, subjectOf(u), h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    userPart{ID: u.ID, UserName: u.UserName, Email: u.Email, Phone: u.Phone, Role: u.Role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

func subjectOf(u model.User) utils.Subject {
	return utils.Subject{UserID: u.ID, Role: u.Role, UserName: u.UserName, Email: u.Email, Phone: u.PhoneOrEmpty()}
}
