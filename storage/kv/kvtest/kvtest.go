// Package kvtest checks that a slot storage honours the store.Storage contract.
package kvtest

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/trezcool/classportal/core/store"
)

// Run exercises s, which must start empty.
func Run(t *testing.T, s store.Storage) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "users"); !errors.Is(err, store.ErrSlotNotFound) {
		t.Fatalf("Get(missing) error = %v, want %v", err, store.ErrSlotNotFound)
	}

	writes := []struct {
		slot    string
		payload []byte
	}{
		{slot: "users", payload: []byte(`[{"id":"1"}]`)},
		{slot: "grades", payload: []byte(`[]`)},
		{slot: "users", payload: []byte(`[{"id":"1"},{"id":"2"}]`)},
	}
	for _, w := range writes {
		if err := s.Set(ctx, w.slot, w.payload); err != nil {
			t.Fatalf("Set(%s) error = %v", w.slot, err)
		}
	}

	got, err := s.Get(ctx, "users")
	if err != nil {
		t.Fatalf("Get(users) error = %v", err)
	}
	if want := []byte(`[{"id":"1"},{"id":"2"}]`); !bytes.Equal(got, want) {
		t.Errorf("Get(users) = %s, want %s", got, want)
	}

	slots, err := s.Slots(ctx)
	if err != nil {
		t.Fatalf("Slots() error = %v", err)
	}
	if want := []string{"grades", "users"}; !reflect.DeepEqual(slots, want) {
		t.Errorf("Slots() = %v, want %v", slots, want)
	}

	if err := s.Delete(ctx, "grades"); err != nil {
		t.Fatalf("Delete(grades) error = %v", err)
	}
	if err := s.Delete(ctx, "grades"); err != nil {
		t.Errorf("Delete(absent) error = %v", err)
	}
	if _, err := s.Get(ctx, "grades"); !errors.Is(err, store.ErrSlotNotFound) {
		t.Errorf("Get(deleted) error = %v, want %v", err, store.ErrSlotNotFound)
	}
}
