package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestConnFromContext_Missing(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Errorf("expected nil conn, got %v", conn)
	}
}

func TestConnFromContext_NilContext(t *testing.T) {
	if conn := ConnFromContext(nil); conn != nil {
		t.Errorf("expected nil conn, got %v", conn)
	}
}

func TestConnFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), DBConnKey, "not-a-conn")
	if conn := ConnFromContext(ctx); conn != nil {
		t.Errorf("expected nil conn for wrong type, got %v", conn)
	}
}

func TestDetachConn(t *testing.T) {
	ctx := context.Background()
	if DetachConn(ctx) != ctx {
		t.Error("expected context without a conn to be returned unchanged")
	}

	ctx = WithConn(ctx, &pgxpool.Conn{})
	if ConnFromContext(ctx) == nil {
		t.Fatal("expected conn on context")
	}
	if conn := ConnFromContext(DetachConn(ctx)); conn != nil {
		t.Errorf("expected detached context to carry no conn, got %v", conn)
	}
}
