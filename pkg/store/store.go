package store

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrMissingKey is returned by Add when the record carries no primary key.
var ErrMissingKey = errors.New("record has no primary key")

// Record is implemented once per entity type. Key returns the primary key,
// Field exposes the named attribute for indexing and filtering. Field names
// are the json tag names of the entity.
type Record interface {
	Key() string
	Field(name string) (any, bool)
}

// Cloner is implemented by records holding slices or maps so the store never
// shares mutable state with callers.
type Cloner[T any] interface {
	Clone() T
}

// Filter selects records whose fields equal every given value. Values must
// have the field's exact Go type: an int never matches a float64 field.
type Filter map[string]any

// Patch is a partial field -> value update, keyed by json field name.
type Patch map[string]any

type bucket = orderedmap.OrderedMap[string, struct{}]

// Store is an in-memory keyed collection of one record type with secondary
// indices and an insertion-ordered capacity ceiling.
//
// A single RWMutex guards the primary map and every index together, so a
// reader never observes a record whose index memberships disagree with its
// field values.
type Store[T Record] struct {
	mu     sync.RWMutex
	logger *slog.Logger

	name     string
	keyField string
	maxItems int
	hooks    []mapstructure.DecodeHookFunc

	data    *orderedmap.OrderedMap[string, T]
	indices map[string]map[any]*bucket
	order   []string // index declaration order
}

// New creates a store with the given options applied.
func New[T Record](opts ...Option) *Store[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[T]{
		logger:   o.logger.With("store", o.name),
		name:     o.name,
		keyField: o.keyField,
		maxItems: o.maxItems,
		hooks:    append(defaultHooks(), o.hooks...),
		data:     orderedmap.New[string, T](),
		indices:  make(map[string]map[any]*bucket),
	}

	for _, field := range o.indexes {
		s.AddIndex(field)
	}

	return s
}

// Name returns the store name used in logs.
func (s *Store[T]) Name() string {
	return s.name
}

// Add inserts rec, replacing any record with the same key. The replaced
// record keeps its original insertion position for eviction purposes.
func (s *Store[T]) Add(rec T) (T, error) {
	key := rec.Key()
	if key == "" {
		var zero T
		return zero, errors.WithMessagef(ErrMissingKey, "add to %s", s.name)
	}

	rec = clone(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.data.Get(key); ok {
		s.unindex(key, old)
	}
	s.data.Set(key, rec)
	s.index(key, rec)
	s.evictLocked()

	return clone(rec), nil
}

// Get returns the record stored under key.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data.Get(key)
	if !ok {
		return rec, false
	}
	return clone(rec), true
}

// GetByIndex returns the records whose field equals value, in the order their
// keys joined the index bucket. Undeclared fields yield an empty result.
func (s *Store[T]) GetByIndex(field string, value any) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indices[field]
	if !ok {
		return []T{}
	}

	v, ok := indexable(value)
	if !ok {
		return []T{}
	}

	b, ok := idx[v]
	if !ok {
		return []T{}
	}

	out := make([]T, 0, b.Len())
	for pair := b.Oldest(); pair != nil; pair = pair.Next() {
		if rec, ok := s.data.Get(pair.Key); ok {
			out = append(out, clone(rec))
		}
	}
	return out
}

// List returns every record in insertion order, restricted to those matching
// all entries of filter when one is given.
func (s *Store[T]) List(filter Filter) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, s.data.Len())
	for pair := s.data.Oldest(); pair != nil; pair = pair.Next() {
		if matches(pair.Value, filter) {
			out = append(out, clone(pair.Value))
		}
	}
	return out
}

// Update applies patch to the record under key. Fields the record does not
// have are ignored, as is any attempt to change the key field. The returned
// bool is false when key is unknown. A patch value that cannot be decoded
// into its field leaves the record untouched and returns an error.
func (s *Store[T]) Update(key string, patch Patch) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.data.Get(key)
	if !ok {
		var zero T
		return zero, false, nil
	}

	next := clone(cur)
	if err := s.decode(patch, &next); err != nil {
		return clone(cur), true, errors.WithMessagef(err, "patch %s/%s", s.name, key)
	}
	if next.Key() != key {
		return clone(cur), true, errors.Errorf("patch %s/%s: primary key cannot change", s.name, key)
	}

	s.unindex(key, cur)
	s.data.Set(key, next)
	s.index(key, next)

	return clone(next), true, nil
}

// Delete removes the record under key and reports whether it existed.
func (s *Store[T]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteLocked(key)
}

// Count returns the number of records held.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.Len()
}

// Clear drops every record and index bucket. Declared indices and the
// capacity ceiling are kept.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = orderedmap.New[string, T]()
	for field := range s.indices {
		s.indices[field] = make(map[any]*bucket)
	}
}

// AddIndex declares a secondary index on field and backfills it from the
// records already held. Declaring an existing index is a no-op.
func (s *Store[T]) AddIndex(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indices[field]; ok {
		return
	}

	idx := make(map[any]*bucket)
	s.indices[field] = idx
	s.order = append(s.order, field)

	for pair := s.data.Oldest(); pair != nil; pair = pair.Next() {
		s.indexField(idx, field, pair.Key, pair.Value)
	}
}

// Indexes returns the declared index fields in declaration order.
func (s *Store[T]) Indexes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.order...)
}

// SetMaxItems changes the capacity ceiling, evicting the oldest records at
// once when the store already holds more than n.
func (s *Store[T]) SetMaxItems(n int) {
	if n < 0 {
		n = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxItems = n
	s.evictLocked()
}

// MaxItems returns the capacity ceiling.
func (s *Store[T]) MaxItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.maxItems
}

func (s *Store[T]) deleteLocked(key string) bool {
	rec, ok := s.data.Get(key)
	if !ok {
		return false
	}

	s.unindex(key, rec)
	s.data.Delete(key)
	return true
}

// evictLocked removes records oldest-first through the regular delete path
// until the count is within the ceiling.
func (s *Store[T]) evictLocked() {
	for s.data.Len() > s.maxItems {
		oldest := s.data.Oldest()
		if oldest == nil {
			return
		}
		s.deleteLocked(oldest.Key)
		s.logger.Debug("evicted record", "key", oldest.Key, "max_items", s.maxItems)
	}
}

func (s *Store[T]) index(key string, rec T) {
	for field, idx := range s.indices {
		s.indexField(idx, field, key, rec)
	}
}

func (s *Store[T]) indexField(idx map[any]*bucket, field, key string, rec T) {
	v, ok := fieldValue(rec, field)
	if !ok {
		return
	}

	b, ok := idx[v]
	if !ok {
		b = orderedmap.New[string, struct{}]()
		idx[v] = b
	}
	b.Set(key, struct{}{})
}

func (s *Store[T]) unindex(key string, rec T) {
	for field, idx := range s.indices {
		v, ok := fieldValue(rec, field)
		if !ok {
			continue
		}

		b, ok := idx[v]
		if !ok {
			continue
		}
		b.Delete(key)

		// empty buckets are dropped
		if b.Len() == 0 {
			delete(idx, v)
		}
	}
}

func (s *Store[T]) decode(patch Patch, target *T) error {
	input := make(map[string]any, len(patch))
	for k, v := range patch {
		if k == s.keyField {
			continue
		}
		// mapstructure skips nil input, so nil clears the field here
		if rv := reflect.ValueOf(v); v == nil || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
			zeroField(reflect.ValueOf(target).Elem(), k)
			continue
		}
		input[k] = v
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     target,
		TagName:    "json",
		ZeroFields: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(s.hooks...),
	})
	if err != nil {
		return errors.Wrap(err, "create decoder")
	}

	return decoder.Decode(input)
}

// zeroField resets the field of struct v whose json name is name.
func zeroField(v reflect.Value, name string) {
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == "" {
			tag = f.Name
		}
		if tag == name {
			v.Field(i).SetZero()
			return
		}
	}
}

func fieldValue[T Record](rec T, field string) (any, bool) {
	v, ok := rec.Field(field)
	if !ok {
		return nil, false
	}
	return indexable(v)
}

// indexable normalises v into a map key. Stringers collapse to their string
// form so typed enums and plain strings address the same bucket.
func indexable(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	if str, ok := v.(fmt.Stringer); ok {
		return str.String(), true
	}
	if !reflect.TypeOf(v).Comparable() {
		return nil, false
	}
	return v, true
}

func matches[T Record](rec T, filter Filter) bool {
	for field, want := range filter {
		got, ok := fieldValue(rec, field)
		if !ok {
			return false
		}
		w, ok := indexable(want)
		if !ok || got != w {
			return false
		}
	}
	return true
}

func clone[T Record](rec T) T {
	if c, ok := any(rec).(Cloner[T]); ok {
		return c.Clone()
	}
	return rec
}
