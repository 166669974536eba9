package middleware

// identity.go holds helpers shared across middleware files.

import "github.com/labstack/echo/v4"

// subject returns the authenticated subject stored by JWTAuth, or "anon"
// when the request carried no token.
func subject(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
