package loggingmw

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/utidosgames/storefront/pkg/logging"
	authmw "github.com/utidosgames/storefront/pkg/middleware/auth"
)

// RequestLogger puts a request-scoped logger into the request context and
// writes one request_completed line per request, tagged with the caller's
// user id and role once the auth middleware has resolved them.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"route", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			status := c.Response().Status
			attrs := []any{
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", c.Response().Size,
			}
			if uid, ok := c.Get(authmw.CtxUserID).(string); ok && uid != "" {
				attrs = append(attrs, "user_id", uid)
			}
			if role, ok := c.Get(authmw.CtxRole).(string); ok && role != "" {
				attrs = append(attrs, "role", role)
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			l.Log(context.Background(), levelFor(status, err), "request_completed", attrs...)
			return nil
		}
	}
}

func levelFor(status int, err error) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case err != nil:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
