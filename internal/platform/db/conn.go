package db

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const DBConnKey contextKey = "db_conn"

// ConnMiddleware acquires one pooled connection per request and carries it on
// the request context, so every repository touched by the request shares it.
// The connection is released when the handler returns.
func ConnMiddleware(pool *pgxpool.Pool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			c.SetRequest(c.Request().WithContext(WithConn(ctx, conn)))
			return next(c)
		}
	}
}

// WithConn returns a copy of ctx carrying conn.
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, DBConnKey, conn)
}

// ConnFromContext retrieves the request-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	if ctx == nil {
		return nil
	}
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// DetachConn hides the request-scoped connection so callers fanning out across
// goroutines draw their own connections from the pool. A pooled connection
// must not be shared between concurrent queries.
func DetachConn(ctx context.Context) context.Context {
	if ConnFromContext(ctx) == nil {
		return ctx
	}
	return context.WithValue(ctx, DBConnKey, (*pgxpool.Conn)(nil))
}
