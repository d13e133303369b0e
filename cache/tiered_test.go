package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, cfg map[Partition]PartitionConfig) *Tiered[string] {
	t.Helper()
	c := New[string](cfg)
	t.Cleanup(c.Close)
	return c
}

func TestSetThenGet(t *testing.T) {
	c := newTestCache(t, nil)

	for _, p := range Partitions {
		c.Set(p, "k", "v-"+p.String())
		got, ok := c.Get(p, "k")
		require.True(t, ok, p.String())
		assert.Equal(t, "v-"+p.String(), got)
	}
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t, nil)

	_, ok := c.Get(Query, "nope")
	assert.False(t, ok)
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	c := newTestCache(t, map[Partition]PartitionConfig{
		Query: {MaxEntries: 10, TTL: 50 * time.Millisecond},
	})

	c.Set(Query, "k", "v")
	_, ok := c.Get(Query, "k")
	require.True(t, ok)

	time.Sleep(120 * time.Millisecond)

	_, ok = c.Get(Query, "k")
	assert.False(t, ok)
}

func TestGetDoesNotExtendTTL(t *testing.T) {
	c := newTestCache(t, map[Partition]PartitionConfig{
		User: {MaxEntries: 10, TTL: 100 * time.Millisecond},
	})

	c.Set(User, "k", "v")
	for range 4 {
		time.Sleep(30 * time.Millisecond)
		c.Get(User, "k")
	}
	_, ok := c.Get(User, "k")
	assert.False(t, ok, "reads must not keep an entry alive past its TTL")
}

func TestCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := newTestCache(t, map[Partition]PartitionConfig{
		Static: {MaxEntries: 3, TTL: time.Hour},
	})

	c.Set(Static, "a", "1")
	c.Set(Static, "b", "2")
	c.Set(Static, "c", "3")

	// touch "a" so "b" becomes the least recently used
	_, ok := c.Get(Static, "a")
	require.True(t, ok)

	c.Set(Static, "d", "4")

	_, ok = c.Get(Static, "b")
	assert.False(t, ok, "b should have been evicted")
	for _, k := range []string{"a", "c", "d"} {
		_, ok := c.Get(Static, k)
		assert.True(t, ok, k)
	}
	assert.Equal(t, 3, c.Len(Static))
}

func TestCapacityEvictionWithoutReads(t *testing.T) {
	const capacity = 5
	c := newTestCache(t, map[Partition]PartitionConfig{
		Query: {MaxEntries: capacity, TTL: time.Hour},
	})

	for i := range capacity + 1 {
		c.Set(Query, fmt.Sprintf("k%d", i), "v")
	}

	_, ok := c.Get(Query, "k0")
	assert.False(t, ok)
	assert.Equal(t, capacity, c.Len(Query))
}

func TestInvalidateSingleKey(t *testing.T) {
	c := newTestCache(t, nil)
	c.Set(Query, "a", "1")
	c.Set(Query, "b", "2")

	c.Invalidate(Query, "a")

	_, ok := c.Get(Query, "a")
	assert.False(t, ok)
	_, ok = c.Get(Query, "b")
	assert.True(t, ok)
}

func TestInvalidateWholePartition(t *testing.T) {
	c := newTestCache(t, nil)
	c.Set(Query, "a", "1")
	c.Set(Query, "b", "2")
	c.Set(Static, "a", "s")
	c.Set(User, "a", "u")

	c.Invalidate(Query)

	assert.Equal(t, 0, c.Len(Query))
	_, ok := c.Get(Static, "a")
	assert.True(t, ok)
	_, ok = c.Get(User, "a")
	assert.True(t, ok)
}

func TestUnknownPartitionIsNoop(t *testing.T) {
	c := newTestCache(t, nil)
	bogus := Partition(42)

	assert.NotPanics(t, func() {
		c.Set(bogus, "k", "v")
		c.Invalidate(bogus)
		c.Invalidate(bogus, "k")
	})
	_, ok := c.Get(bogus, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(bogus))
}

func TestPartitionsAreIndependent(t *testing.T) {
	c := newTestCache(t, nil)
	c.Set(Static, "k", "static")
	c.Set(Query, "k", "query")

	got, _ := c.Get(Static, "k")
	assert.Equal(t, "static", got)
	got, _ = c.Get(Query, "k")
	assert.Equal(t, "query", got)
	_, ok := c.Get(User, "k")
	assert.False(t, ok)
}

func TestParsePartition(t *testing.T) {
	tests := []struct {
		in      string
		want    Partition
		wantErr bool
	}{
		{"static", Static, false},
		{"Query", Query, false},
		{" user ", User, false},
		{"session", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePartition(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Partition {
	t.Helper()
	p, err := ParsePartition(s)
	require.NoError(t, err)
	return p
}

func TestDefaultPartitions(t *testing.T) {
	d := DefaultPartitions()
	assert.Equal(t, PartitionConfig{MaxEntries: 100, TTL: 24 * time.Hour}, d[Static])
	assert.Equal(t, PartitionConfig{MaxEntries: 500, TTL: 5 * time.Minute}, d[Query])
	assert.Equal(t, PartitionConfig{MaxEntries: 1000, TTL: time.Minute}, d[User])
}

func TestSetIfGeneration(t *testing.T) {
	c := newTestCache(t, nil)

	gen := c.Generation(Query)
	assert.True(t, c.SetIfGeneration(Query, "a", "1", gen))
	got, ok := c.Get(Query, "a")
	require.True(t, ok)
	assert.Equal(t, "1", got)

	stale := c.Generation(Query)
	c.Invalidate(Query)
	assert.False(t, c.SetIfGeneration(Query, "a", "old", stale))
	_, ok = c.Get(Query, "a")
	assert.False(t, ok, "a load started before the invalidation must not be cached")

	// other partitions keep their own counters
	assert.True(t, c.SetIfGeneration(Static, "a", "s", c.Generation(Static)))
	assert.False(t, c.SetIfGeneration(Partition(9), "a", "x", 0))
}
