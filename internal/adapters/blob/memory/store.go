// Package memory es el backend de objetos in-memory para dev y tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"med-dashboard/internal/ports/blob"
)

type entry struct {
	data []byte
	obj  blob.Object
}

type Store struct {
	mu    sync.RWMutex
	byKey map[string]entry
	now   func() time.Time
}

func New() *Store {
	return &Store{
		byKey: make(map[string]entry),
		now:   time.Now,
	}
}

// NewWithClock permite inyectar el reloj (UploadedAt determinístico en tests).
func NewWithClock(now func() time.Time) *Store {
	s := New()
	s.now = now
	return s
}

func (s *Store) Put(ctx context.Context, key string, data []byte, opts blob.PutOptions) (blob.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, exists := s.byKey[key]
	if !opts.Overwrite && exists {
		return blob.Object{}, blob.ErrPreconditionFailed
	}
	if opts.IfMatch != "" && (!exists || cur.obj.ETag != opts.IfMatch) {
		return blob.Object{}, blob.ErrPreconditionFailed
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	obj := blob.Object{
		Key:        key,
		URL:        "memory://" + key,
		Size:       int64(len(cp)),
		ETag:       blob.ComputeETag(cp),
		UploadedAt: s.now(),
	}
	s.byKey[key] = entry{data: cp, obj: obj}
	return obj, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, blob.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byKey[key]
	if !ok {
		return nil, blob.Object{}, blob.ErrNotFound
	}

	cp := make([]byte, len(e.data))
	copy(cp, e.data)
	return cp, e.obj, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]blob.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]blob.Object, 0)
	for k, e := range s.byKey {
		if strings.HasPrefix(k, prefix) {
			out = append(out, e.obj)
		}
	}

	// Orden estable por key (el caller decide por UploadedAt si le importa).
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})

	return out, nil
}
