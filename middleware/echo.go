package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/roles"
	"github.com/labstack/echo/v4"
)

// UserKey is the echo context key holding the *goSession.AuthenticatedUser of a
// rendered request.
const UserKey = "session_user"

// Echo is [Guard] for labstack/echo.
func Echo(session guard.Session, allowed []roles.Role, opts Options) echo.MiddlewareFunc {
	opts = opts.withDefaults()
	gopts := guard.Options{LoginPath: opts.LoginPath, Homes: opts.Homes}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if session == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "service unavailable")
			}

			req := c.Request()
			d, user := guard.Check(req.Context(), session, allowed, req.URL.RequestURI(), gopts)
			switch d.Action {
			case guard.ActionRender:
				c.SetRequest(req.WithContext(goSession.WithUser(req.Context(), *user)))
				c.Set(UserKey, user)
				return next(c)
			case guard.ActionWait:
				c.Response().Header().Set("Retry-After", retryAfterSeconds(opts.RetryAfter))
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session loading")
			case guard.ActionSubscriptionExpired:
				c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
				c.Response().WriteHeader(http.StatusPaymentRequired)
				return expiredPage.Execute(c.Response(), opts.SignOutPath)
			default:
				return c.Redirect(http.StatusSeeOther, redirectTarget(d))
			}
		}
	}
}
