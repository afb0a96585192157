package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/trezcool/classportal/storage/kv/kvtest"
)

func TestStorage(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "file", path: filepath.Join(t.TempDir(), "state.db")},
		{name: "in memory", path: ":memory:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer func() { _ = s.Close() }()
			kvtest.Run(t, s)
		})
	}
}
