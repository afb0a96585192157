package metrics

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/classportal/core/store"
)

type instrumentedStorage struct {
	next store.Storage
	m    *Metrics
}

var _ store.Storage = (*instrumentedStorage)(nil)

// InstrumentStorage counts and times every operation of s.
func InstrumentStorage(s store.Storage, m *Metrics) store.Storage {
	return &instrumentedStorage{next: s, m: m}
}

func (s *instrumentedStorage) observe(op, slot string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, store.ErrSlotNotFound):
		result = "miss"
	case err != nil:
		result = "error"
	}
	s.m.storageOps.WithLabelValues(op, slot, result).Inc()
	s.m.storageDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStorage) Get(ctx context.Context, slot string) ([]byte, error) {
	start := time.Now()
	data, err := s.next.Get(ctx, slot)
	s.observe("get", slot, start, err)
	if err == nil {
		s.m.slotBytes.WithLabelValues(slot).Set(float64(len(data)))
	}
	return data, err
}

func (s *instrumentedStorage) Set(ctx context.Context, slot string, payload []byte) error {
	start := time.Now()
	err := s.next.Set(ctx, slot, payload)
	s.observe("set", slot, start, err)
	if err == nil {
		s.m.slotBytes.WithLabelValues(slot).Set(float64(len(payload)))
	}
	return err
}

func (s *instrumentedStorage) Delete(ctx context.Context, slot string) error {
	start := time.Now()
	err := s.next.Delete(ctx, slot)
	s.observe("delete", slot, start, err)
	if err == nil {
		s.m.slotBytes.DeleteLabelValues(slot)
	}
	return err
}

func (s *instrumentedStorage) Slots(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.next.Slots(ctx)
	s.observe("slots", "", start, err)
	return names, err
}

func (s *instrumentedStorage) Close() error { return s.next.Close() }
