package natskv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/OnboardForge/internal/port/cache/cachetest"
)

func TestEncodeKey(t *testing.T) {
	if got := encodeKey("case:APP-1"); got != "case.APP-1" {
		t.Errorf("expected case.APP-1, got %s", got)
	}
}

func TestCompliance(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream: %v", err)
	}
	ctx := context.Background()
	c, err := Open(ctx, js, "ONBOARDFORGE_TEST", time.Minute)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = js.DeleteKeyValue(ctx, "ONBOARDFORGE_TEST") })

	cachetest.Run(t, c, nil)
}
