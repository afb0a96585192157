package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/classportal/core"
)

// Collection holds the records of one slot in memory and rewrites the whole slot after every mutation.
// Reads never touch the Storage; every query scans the in-memory records and returns a fresh slice.
type Collection[T any] struct {
	storage Storage
	slot    string
	key     func(*T) *string
	clone   func(T) T
	newID   func() string

	mu     sync.RWMutex
	items  []T
	loaded bool
}

type Option[T any] func(*Collection[T])

// WithClone sets the deep copy used whenever a record enters or leaves the collection.
// Records holding slices or maps must provide one.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(c *Collection[T]) { c.clone = clone }
}

// WithIDFunc overrides the identity generator (core.NewID by default).
func WithIDFunc[T any](newID func() string) Option[T] {
	return func(c *Collection[T]) { c.newID = newID }
}

// NewCollection returns an empty collection bound to slot. key returns a pointer to the record's identity field.
func NewCollection[T any](storage Storage, slot string, key func(*T) *string, opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		storage: storage,
		slot:    slot,
		key:     key,
		clone:   func(t T) T { return t },
		newID:   core.NewID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collection[T]) Slot() string { return c.slot }

func (c *Collection[T]) id(rec T) string { return *c.key(&rec) }

// Load hydrates the collection from its slot. Only the first call reads the Storage.
// A slot that was never written is an empty collection.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// load hydrates the collection unless it already is. c.mu must be held.
// Mutations call it first so that a write never replaces a slot that was not read.
func (c *Collection[T]) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	data, err := c.storage.Get(ctx, c.slot)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			c.items = nil
			c.loaded = true
			return nil
		}
		return errors.Wrapf(err, "reading slot %s", c.slot)
	}
	var items []T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			return &CorruptSlotError{Slot: c.slot, Err: err}
		}
	}
	c.items = items
	c.loaded = true
	return nil
}

// persist writes next to the slot and, only if that succeeded, makes it the current state.
// c.mu must be held.
func (c *Collection[T]) persist(ctx context.Context, next []T) error {
	if next == nil {
		next = []T{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return errors.Wrapf(err, "encoding slot %s", c.slot)
	}
	if err := c.storage.Set(ctx, c.slot, data); err != nil {
		return errors.Wrapf(err, "writing slot %s", c.slot)
	}
	c.items = next
	return nil
}

func (c *Collection[T]) copyItems(extra int) []T {
	out := make([]T, len(c.items), len(c.items)+extra)
	copy(out, c.items)
	return out
}

// Add assigns a fresh identity to rec, appends it and persists the collection.
func (c *Collection[T]) Add(ctx context.Context, rec T) (T, error) {
	return c.AddUnless(ctx, rec, nil)
}

// AddUnless is Add guarded by conflict, which is called with every stored record while the
// collection is locked. The first error it returns is returned as is and nothing is written.
func (c *Collection[T]) AddUnless(ctx context.Context, rec T, conflict func(T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.load(ctx); err != nil {
		return zero, err
	}
	if err := c.check("", conflict); err != nil {
		return zero, err
	}

	rec = c.clone(rec)
	*c.key(&rec) = c.newID()

	next := append(c.copyItems(1), rec)
	if err := c.persist(ctx, next); err != nil {
		return zero, err
	}
	return c.clone(rec), nil
}

// Update applies patch to a copy of the record with identity id and persists the collection.
// Nothing is written if no record matches; ErrNotFound is returned instead.
// patch must not change the identity.
func (c *Collection[T]) Update(ctx context.Context, id string, patch func(*T)) (T, error) {
	return c.Modify(ctx, id, func(rec *T) error {
		patch(rec)
		return nil
	})
}

// Modify is Update with a patch that may refuse the change: when patch returns an error,
// nothing is written and that error is returned.
func (c *Collection[T]) Modify(ctx context.Context, id string, patch func(*T) error) (T, error) {
	return c.ModifyUnless(ctx, id, nil, patch)
}

// ModifyUnless is Modify guarded by conflict, which is called with every record other than id
// before patch runs, while the collection is locked.
func (c *Collection[T]) ModifyUnless(ctx context.Context, id string, conflict func(T) error, patch func(*T) error) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.load(ctx); err != nil {
		return zero, err
	}
	idx := c.index(id)
	if idx < 0 {
		return zero, ErrNotFound
	}
	if err := c.check(id, conflict); err != nil {
		return zero, err
	}

	rec := c.clone(c.items[idx])
	if err := patch(&rec); err != nil {
		return zero, err
	}
	*c.key(&rec) = id

	next := c.copyItems(0)
	next[idx] = rec
	if err := c.persist(ctx, next); err != nil {
		return zero, err
	}
	return c.clone(rec), nil
}

// check runs conflict against the records other than skipID. c.mu must be held.
func (c *Collection[T]) check(skipID string, conflict func(T) error) error {
	if conflict == nil {
		return nil
	}
	for _, rec := range c.items {
		if skipID != "" && c.id(rec) == skipID {
			continue
		}
		if err := conflict(c.clone(rec)); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the record with identity id and persists the collection.
// It reports whether a record was removed; nothing is written otherwise.
func (c *Collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	n, err := c.deleteWhere(ctx, func(rec T) bool { return c.id(rec) == id })
	return n > 0, err
}

// DeleteWhere removes every record matching pred and returns how many were removed.
func (c *Collection[T]) DeleteWhere(ctx context.Context, pred func(T) bool) (int, error) {
	return c.deleteWhere(ctx, pred)
}

func (c *Collection[T]) deleteWhere(ctx context.Context, pred func(T) bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return 0, err
	}
	next := make([]T, 0, len(c.items))
	for _, rec := range c.items {
		if !pred(rec) {
			next = append(next, rec)
		}
	}
	removed := len(c.items) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := c.persist(ctx, next); err != nil {
		return 0, err
	}
	return removed, nil
}

// index returns the position of the record with identity id, or -1. c.mu must be held.
func (c *Collection[T]) index(id string) int {
	for i := range c.items {
		if c.id(c.items[i]) == id {
			return i
		}
	}
	return -1
}

// Get returns the record with identity id.
func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if idx := c.index(id); idx >= 0 {
		return c.clone(c.items[idx]), nil
	}
	var zero T
	return zero, ErrNotFound
}

// All returns every record, in insertion order.
func (c *Collection[T]) All() []T {
	return c.Filter(func(T) bool { return true })
}

// Filter returns the records matching pred, in insertion order.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0)
	for _, rec := range c.items {
		if pred(rec) {
			out = append(out, c.clone(rec))
		}
	}
	return out
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, rec := range c.items {
		if pred(rec) {
			return c.clone(rec), true
		}
	}
	var zero T
	return zero, false
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
