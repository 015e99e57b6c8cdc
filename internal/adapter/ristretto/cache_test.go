package ristretto

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/OnboardForge/internal/port/cache/cachetest"
)

func TestCompliance(t *testing.T) {
	c, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	cachetest.Run(t, c, c.Wait)
}

func TestSetCopiesValue(t *testing.T) {
	c, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)

	buf := []byte("original")
	if err := c.Set(context.Background(), "k", buf, time.Minute); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	buf[0] = 'X'

	got, ok, _ := c.Get(context.Background(), "k")
	if !ok || string(got) != "original" {
		t.Fatalf("expected stored copy to be unaffected, got %q (found=%v)", got, ok)
	}
}
