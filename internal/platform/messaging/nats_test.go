package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")
	if cfg.URL != "nats://localhost:4222" || cfg.Name != "ambugo-server" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.ReconnectWait <= 0 || cfg.ConnectTimeout <= 0 {
		t.Error("expected positive durations")
	}
}

func TestNewClient_Unreachable(t *testing.T) {
	cfg := DefaultConfig("nats://127.0.0.1:1")
	cfg.ConnectTimeout = 200 * time.Millisecond
	if _, err := NewClient(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestClient_PublishWithoutConnection(t *testing.T) {
	c := &Client{}
	if err := c.Publish(context.Background(), SubjectPatientSubmitted, map[string]string{"id": "1"}); err == nil {
		t.Fatal("expected error without connection")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on unconnected client: %v", err)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), SubjectPatientStatus, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
