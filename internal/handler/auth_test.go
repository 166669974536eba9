package handler

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movies-api/internal/config"
	"github.com/iliyamo/movies-api/internal/utils"
)

func TestAuthToken(t *testing.T) {
	hash, err := utils.HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{
		JWTSecret:         "test-secret",
		AccessTTLMin:      5,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
	}
	e := echo.New()
	e.POST("/api/auth/token", NewAuthHandler(cfg).Token)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"username":`, http.StatusBadRequest},
		{"empty", `{}`, http.StatusBadRequest},
		{"wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized},
		{"wrong user", `{"username":"root","password":"s3cret"}`, http.StatusUnauthorized},
		{"ok", `{"username":"admin","password":"s3cret"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, jsonRequest(http.MethodPost, "/api/auth/token", tt.body))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			resp := decode[tokenResp](t, rec)
			tok, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !tok.Valid {
				t.Fatalf("token invalid: %v", err)
			}
			claims := tok.Claims.(jwt.MapClaims)
			if claims["role"] != AdminRole || claims["sub"] != "admin" {
				t.Errorf("claims = %v", claims)
			}
		})
	}
}

func TestAuthTokenWithoutConfiguredHash(t *testing.T) {
	e := echo.New()
	e.POST("/api/auth/token", NewAuthHandler(config.Config{JWTSecret: "x", AdminUsername: "admin"}).Token)
	rec := do(e, jsonRequest(http.MethodPost, "/api/auth/token", `{"username":"admin","password":""}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty password status = %d, want 400", rec.Code)
	}
	rec = do(e, jsonRequest(http.MethodPost, "/api/auth/token", `{"username":"admin","password":"x"}`))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
