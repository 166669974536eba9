package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movies-api/internal/config"
	"github.com/iliyamo/movies-api/internal/utils"
)

// AdminRole is the role claim required by the mutating catalog routes.
const AdminRole = "ADMIN"

// AuthHandler issues admin access tokens.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{Cfg: cfg}
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// Token handles POST /api/auth/token.  The single admin account is taken
// from ADMIN_USERNAME and ADMIN_PASSWORD_HASH.
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "invalid body")
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.String(http.StatusBadRequest, "username/password required")
	}
	if h.Cfg.AdminPasswordHash == "" {
		return c.String(http.StatusUnauthorized, "invalid credentials")
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Cfg.AdminUsername)) == 1
	// always run bcrypt so a wrong username costs the same as a wrong password
	passOK := utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password)
	if !userOK || !passOK {
		return c.String(http.StatusUnauthorized, "invalid credentials")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, AdminRole, h.Cfg.AccessTTLMin)
	if err != nil {
		c.Logger().Errorf("issue access token: %v", err)
		return c.String(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, tokenResp{Token: access.Token, Expires: access.Exp})
}
