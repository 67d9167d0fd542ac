package store

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type level string

func (l level) String() string { return string(l) }

type item struct {
	ID        string     `json:"id"`
	Category  string     `json:"category"`
	Status    level      `json:"status"`
	CreatedBy string     `json:"created_by"`
	Budget    float64    `json:"budget"`
	Tags      []string   `json:"tags"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndsAt    *time.Time `json:"ends_at"`
}

func (i item) Key() string { return i.ID }

func (i item) Field(name string) (any, bool) {
	switch name {
	case "id":
		return i.ID, true
	case "category":
		return i.Category, true
	case "status":
		return i.Status, true
	case "created_by":
		return i.CreatedBy, true
	case "budget":
		return i.Budget, true
	case "tags":
		return i.Tags, true
	}
	return nil, false
}

func (i item) Clone() item {
	i.Tags = append([]string(nil), i.Tags...)
	return i
}

func keys(items []item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func newItemStore(opts ...Option) *Store[item] {
	return New[item](append([]Option{WithName("items")}, opts...)...)
}

// assertIndexConsistent checks every declared index against the live records.
func assertIndexConsistent(t *testing.T, s *Store[item]) {
	t.Helper()

	s.mu.RLock()
	defer s.mu.RUnlock()

	for field, idx := range s.indices {
		for pair := s.data.Oldest(); pair != nil; pair = pair.Next() {
			v, ok := fieldValue(pair.Value, field)
			if !ok {
				continue
			}
			b, ok := idx[v]
			require.True(t, ok, "missing bucket %s=%v", field, v)
			_, ok = b.Get(pair.Key)
			require.True(t, ok, "key %s missing from bucket %s=%v", pair.Key, field, v)
		}

		for value, b := range idx {
			require.NotZero(t, b.Len(), "empty bucket %s=%v", field, value)
			for p := b.Oldest(); p != nil; p = p.Next() {
				rec, ok := s.data.Get(p.Key)
				require.True(t, ok, "bucket %s=%v holds deleted key %s", field, value, p.Key)
				v, _ := fieldValue(rec, field)
				require.Equal(t, value, v, "bucket %s=%v holds stale key %s", field, value, p.Key)
			}
		}
	}
}

func TestStore_AddGet(t *testing.T) {
	s := newItemStore(WithIndexes("category"))

	got, err := s.Add(item{ID: "a", Category: "x"})
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "x", rec.Category)

	_, ok = s.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Count())
}

func TestStore_AddMissingKey(t *testing.T) {
	s := newItemStore()

	_, err := s.Add(item{Category: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.Zero(t, s.Count())
}

func TestStore_OverwriteReplacesIndexMemberships(t *testing.T) {
	s := newItemStore(WithIndexes("category"))

	_, err := s.Add(item{ID: "a", Category: "old"})
	require.NoError(t, err)
	_, err = s.Add(item{ID: "a", Category: "new"})
	require.NoError(t, err)

	rec, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", rec.Category)
	assert.Empty(t, s.GetByIndex("category", "old"))
	assert.Equal(t, []string{"a"}, keys(s.GetByIndex("category", "new")))
	assert.Equal(t, 1, s.Count())
	assertIndexConsistent(t, s)
}

func TestStore_AddIndexBackfills(t *testing.T) {
	s := newItemStore()

	for _, it := range []item{
		{ID: "a", Category: "x"},
		{ID: "b", Category: "y"},
		{ID: "c", Category: "x"},
	} {
		_, err := s.Add(it)
		require.NoError(t, err)
	}

	assert.Empty(t, s.GetByIndex("category", "x"), "undeclared index yields nothing")

	s.AddIndex("category")
	assert.Equal(t, []string{"a", "c"}, keys(s.GetByIndex("category", "x")))
	assert.Equal(t, []string{"b"}, keys(s.GetByIndex("category", "y")))

	// idempotent
	s.AddIndex("category")
	assert.Equal(t, []string{"category"}, s.Indexes())
	assert.Equal(t, []string{"a", "c"}, keys(s.GetByIndex("category", "x")))
	assertIndexConsistent(t, s)
}

func TestStore_EvictionOrder(t *testing.T) {
	s := newItemStore(WithMaxItems(2), WithIndexes("category"))

	for _, id := range []string{"A", "B", "C"} {
		_, err := s.Add(item{ID: id, Category: "cat-" + id})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"B", "C"}, keys(s.List(nil)))
	_, ok := s.Get("A")
	assert.False(t, ok)
	assert.Empty(t, s.GetByIndex("category", "cat-A"))
	assertIndexConsistent(t, s)
}

func TestStore_EvictionIgnoresUpdates(t *testing.T) {
	s := newItemStore(WithMaxItems(2))

	_, _ = s.Add(item{ID: "A"})
	_, _ = s.Add(item{ID: "B"})

	_, ok, err := s.Update("A", Patch{"category": "touched"})
	require.NoError(t, err)
	require.True(t, ok)

	// overwrite keeps the original position as well
	_, _ = s.Add(item{ID: "A", Category: "again"})

	_, _ = s.Add(item{ID: "C"})
	assert.Equal(t, []string{"B", "C"}, keys(s.List(nil)))
}

func TestStore_SetMaxItems(t *testing.T) {
	s := newItemStore(WithIndexes("created_by"))

	for i := 0; i < 5; i++ {
		_, err := s.Add(item{ID: fmt.Sprintf("k%d", i), CreatedBy: "u1"})
		require.NoError(t, err)
	}

	s.SetMaxItems(3)
	assert.Equal(t, 3, s.MaxItems())
	assert.Equal(t, []string{"k2", "k3", "k4"}, keys(s.List(nil)))
	assert.Equal(t, []string{"k2", "k3", "k4"}, keys(s.GetByIndex("created_by", "u1")))

	s.SetMaxItems(-1)
	assert.Zero(t, s.Count())
	assert.Empty(t, s.GetByIndex("created_by", "u1"))
	assertIndexConsistent(t, s)
}

func TestStore_ListFilter(t *testing.T) {
	s := newItemStore()

	for _, it := range []item{
		{ID: "1", Status: "active", CreatedBy: "u1"},
		{ID: "2", Status: "active", CreatedBy: "u2"},
		{ID: "3", Status: "paused", CreatedBy: "u1"},
		{ID: "4", Status: "active", CreatedBy: "u1"},
	} {
		_, err := s.Add(it)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "no filter", filter: nil, want: []string{"1", "2", "3", "4"}},
		{name: "empty filter", filter: Filter{}, want: []string{"1", "2", "3", "4"}},
		{name: "and semantics", filter: Filter{"status": "active", "created_by": "u1"}, want: []string{"1", "4"}},
		{name: "typed value", filter: Filter{"status": level("paused")}, want: []string{"3"}},
		{name: "unknown field", filter: Filter{"nope": "x"}, want: []string{}},
		{name: "no match", filter: Filter{"created_by": "u9"}, want: []string{}},
		{name: "non comparable field", filter: Filter{"tags": "x"}, want: []string{}},
		{name: "exact float type", filter: Filter{"budget": 0.0}, want: []string{"1", "2", "3", "4"}},
		{name: "int never matches float field", filter: Filter{"budget": 0}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, keys(s.List(tt.filter))); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStore_Update(t *testing.T) {
	s := newItemStore(WithIndexes("status", "category"))

	_, err := s.Add(item{ID: "a", Status: "draft", Category: "x", Budget: 10})
	require.NoError(t, err)

	t.Run("unknown key", func(t *testing.T) {
		_, ok, err := s.Update("missing", Patch{"status": "active"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("moves index memberships", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		rec, ok, err := s.Update("a", Patch{
			"status":     "active",
			"updated_at": now,
			"unknown":    "ignored",
		})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, level("active"), rec.Status)
		assert.Equal(t, now, rec.UpdatedAt)
		assert.Equal(t, "x", rec.Category)
		assert.Equal(t, 10.0, rec.Budget)

		assert.Empty(t, s.GetByIndex("status", "draft"))
		assert.Equal(t, []string{"a"}, keys(s.GetByIndex("status", "active")))
		assertIndexConsistent(t, s)
	})

	t.Run("string times and pointers", func(t *testing.T) {
		rec, ok, err := s.Update("a", Patch{"updated_at": "2024-06-01T00:00:00Z", "ends_at": "2024-07-01"})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 2024, rec.UpdatedAt.Year())
		require.NotNil(t, rec.EndsAt)
		assert.Equal(t, time.July, rec.EndsAt.Month())

		rec, _, err = s.Update("a", Patch{"ends_at": nil})
		require.NoError(t, err)
		assert.Nil(t, rec.EndsAt)

		stored, _ := s.Get("a")
		assert.Nil(t, stored.EndsAt)
	})

	t.Run("nil clears fields", func(t *testing.T) {
		end := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
		_, _, err := s.Update("a", Patch{"ends_at": end, "tags": []string{"x"}})
		require.NoError(t, err)

		rec, ok, err := s.Update("a", Patch{"ends_at": (*time.Time)(nil), "tags": nil})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Nil(t, rec.EndsAt)
		assert.Nil(t, rec.Tags)
		assert.Equal(t, "x", rec.Category, "untouched fields survive")
	})

	t.Run("key field is never patched", func(t *testing.T) {
		rec, ok, err := s.Update("a", Patch{"id": "b", "category": "y"})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a", rec.ID)
		assert.Equal(t, "y", rec.Category)
		_, ok = s.Get("b")
		assert.False(t, ok)
	})

	t.Run("undecodable patch leaves record intact", func(t *testing.T) {
		_, ok, err := s.Update("a", Patch{"budget": []int{1, 2}, "category": "z"})
		require.Error(t, err)
		assert.True(t, ok)

		rec, _ := s.Get("a")
		assert.Equal(t, "y", rec.Category)
		assert.Empty(t, s.GetByIndex("category", "z"))
		assertIndexConsistent(t, s)
	})
}

func TestStore_Delete(t *testing.T) {
	s := newItemStore(WithIndexes("category"))

	_, _ = s.Add(item{ID: "a", Category: "X"})
	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))

	assert.Empty(t, s.GetByIndex("category", "X"))

	s.mu.RLock()
	_, exists := s.indices["category"]["X"]
	s.mu.RUnlock()
	assert.False(t, exists, "empty bucket must be dropped")
}

func TestStore_Clear(t *testing.T) {
	s := newItemStore(WithMaxItems(7), WithIndexes("category"))

	_, _ = s.Add(item{ID: "a", Category: "X"})
	_, _ = s.Add(item{ID: "b", Category: "Y"})

	s.Clear()
	assert.Zero(t, s.Count())
	assert.Equal(t, 7, s.MaxItems())
	assert.Equal(t, []string{"category"}, s.Indexes())
	assert.Empty(t, s.GetByIndex("category", "X"))

	_, _ = s.Add(item{ID: "c", Category: "X"})
	assert.Equal(t, []string{"c"}, keys(s.GetByIndex("category", "X")))
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := newItemStore(WithIndexes("category"))

	in := item{ID: "a", Category: "X", Tags: []string{"one"}}
	out, err := s.Add(in)
	require.NoError(t, err)

	in.Tags[0] = "mutated-in"
	out.Tags[0] = "mutated-out"
	out.Category = "Y"

	rec, _ := s.Get("a")
	assert.Equal(t, []string{"one"}, rec.Tags)
	assert.Equal(t, "X", rec.Category)
	assert.Len(t, s.GetByIndex("category", "X"), 1)
}

func TestStore_GetByIndexOrder(t *testing.T) {
	s := newItemStore(WithIndexes("category"))

	for _, id := range []string{"c", "a", "b"} {
		_, _ = s.Add(item{ID: id, Category: "X"})
	}
	assert.Equal(t, []string{"c", "a", "b"}, keys(s.GetByIndex("category", "X")))
	assert.Empty(t, s.GetByIndex("category", []string{"X"}))
	assert.Empty(t, s.GetByIndex("missing", "X"))
}

func TestStore_RandomOperationsKeepIndicesConsistent(t *testing.T) {
	s := newItemStore(WithMaxItems(15), WithIndexes("category", "status"))
	rng := rand.New(rand.NewPCG(1, 2))

	categories := []string{"a", "b", "c"}
	statuses := []level{"draft", "active", "paused"}

	for i := 0; i < 2000; i++ {
		key := fmt.Sprintf("k%d", rng.IntN(25))
		switch rng.IntN(4) {
		case 0, 1:
			_, err := s.Add(item{
				ID:       key,
				Category: categories[rng.IntN(len(categories))],
				Status:   statuses[rng.IntN(len(statuses))],
			})
			require.NoError(t, err)
		case 2:
			_, _, err := s.Update(key, Patch{
				"category": categories[rng.IntN(len(categories))],
				"status":   string(statuses[rng.IntN(len(statuses))]),
			})
			require.NoError(t, err)
		case 3:
			s.Delete(key)
		}

		assertIndexConsistent(t, s)
		require.LessOrEqual(t, s.Count(), 15)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := newItemStore(WithMaxItems(50), WithIndexes("category"))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("w%d-%d", w, i%20)
				_, _ = s.Add(item{ID: key, Category: fmt.Sprintf("c%d", i%3)})
				_, _, _ = s.Update(key, Patch{"category": "moved"})
				_ = s.GetByIndex("category", "moved")
				_ = s.List(Filter{"category": "c1"})
				if i%5 == 0 {
					s.Delete(key)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Count(), 50)
	assertIndexConsistent(t, s)
}
