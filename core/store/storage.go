// Package store implements the domain store pattern shared by every feature area of the portal:
// an in-memory collection of records mirrored, whole, to a named slot of a key-value Storage.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSlotNotFound is returned by Storage.Get when a slot was never written.
	ErrSlotNotFound = errors.New("storage slot not found")
	// ErrNotFound is returned when no record has the requested identity.
	ErrNotFound = errors.New("record not found")
)

// Storage is a durable key-value storage of named slots, each holding a serialized collection.
type Storage interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Set(ctx context.Context, slot string, payload []byte) error
	Delete(ctx context.Context, slot string) error
	// Slots returns the sorted names of all written slots.
	Slots(ctx context.Context) ([]string, error)
	Close() error
}

// CorruptSlotError is returned when a slot payload cannot be decoded during hydration.
type CorruptSlotError struct {
	Slot string
	Err  error
}

func (e *CorruptSlotError) Error() string {
	return fmt.Sprintf("corrupt storage slot %q: %v", e.Slot, e.Err)
}

func (e *CorruptSlotError) Unwrap() error { return e.Err }
