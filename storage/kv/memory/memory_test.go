package memory

import (
	"context"
	"testing"

	"github.com/trezcool/classportal/storage/kv/kvtest"
)

func TestStorage(t *testing.T) {
	kvtest.Run(t, New())
}

func TestStorage_CopiesPayload(t *testing.T) {
	ctx := context.Background()
	s := New()
	payload := []byte(`[1]`)
	_ = s.Set(ctx, "a", payload)
	payload[1] = '2'

	got, _ := s.Get(ctx, "a")
	if string(got) != `[1]` {
		t.Errorf("Get() = %s, want [1]", got)
	}
	if s.Writes("a") != 1 {
		t.Errorf("Writes() = %d, want 1", s.Writes("a"))
	}
}
