package middleware

import (
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/roles"
)

// Options configures the guards.
type Options struct {
	// LoginPath defaults to guard.DefaultLoginPath.
	LoginPath string
	// SignOutPath is the single action offered on the subscription-expired page.
	SignOutPath string
	// RetryAfter is advertised while the session is loading.
	RetryAfter time.Duration
	Homes      *roles.Table
}

func (o Options) withDefaults() Options {
	if o.LoginPath == "" {
		o.LoginPath = guard.DefaultLoginPath
	}
	if o.SignOutPath == "" {
		o.SignOutPath = "/logout"
	}
	if o.RetryAfter <= 0 {
		o.RetryAfter = time.Second
	}
	return o
}

var expiredPage = template.Must(template.New("expired").Parse(`<!DOCTYPE html>
<html><head><title>Subscription expired</title></head>
<body>
<h1>Subscription expired</h1>
<p>Your organization's subscription has ended. Contact your administrator to renew it.</p>
<form method="post" action="{{.}}"><button type="submit">Sign out</button></form>
</body></html>
`))

// Guard protects next with a guard open to allowed.
func Guard(session guard.Session, allowed []roles.Role, opts Options) func(http.Handler) http.Handler {
	opts = opts.withDefaults()
	gopts := guard.Options{LoginPath: opts.LoginPath, Homes: opts.Homes}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			d, user := guard.Check(r.Context(), session, allowed, r.URL.RequestURI(), gopts)
			switch d.Action {
			case guard.ActionRender:
				ctx := goSession.WithUser(r.Context(), *user)
				next.ServeHTTP(w, r.WithContext(ctx))
			case guard.ActionWait:
				w.Header().Set("Retry-After", retryAfterSeconds(opts.RetryAfter))
				http.Error(w, "session loading", http.StatusServiceUnavailable)
			case guard.ActionSubscriptionExpired:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusPaymentRequired)
				_ = expiredPage.Execute(w, opts.SignOutPath)
			default:
				http.Redirect(w, r, redirectTarget(d), http.StatusSeeOther)
			}
		})
	}
}

// redirectTarget appends the attempted location to login redirects.
func redirectTarget(d guard.Decision) string {
	if d.Action != guard.ActionRedirectLogin || d.Attempted == "" {
		return d.Location
	}
	return d.Location + "?redirect=" + url.QueryEscape(d.Attempted)
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
