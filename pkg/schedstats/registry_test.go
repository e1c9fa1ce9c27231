package schedstats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryConcurrentRegister(t *testing.T) {
	r := NewRegistry()
	const n = 64

	var wg sync.WaitGroup
	shards := make([]*Shard, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sh, err := r.Register(id, &fakeStream{core: int64(100 + id), input: -1})
			if assert.NoError(t, err) {
				shards[id] = sh
			}
		}(n - 1 - i)
	}
	wg.Wait()

	v := r.Seal()
	require.Equal(t, n, v.Len())
	want := 0
	for id, sh := range v.All() {
		assert.Equal(t, want, id)
		assert.Same(t, shards[id], sh)
		assert.Equal(t, int64(100+id), sh.Core())
		assert.Equal(t, id, sh.Index())
		want++
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(3, &fakeStream{})
	require.NoError(t, err)

	_, err = r.Register(3, &fakeStream{})
	assert.ErrorIs(t, err, ErrDuplicateShard)
	assert.Equal(t, 1, r.Seal().Len())
}

func TestRegistrySealed(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(0, &fakeStream{})
	require.NoError(t, err)

	first := r.Seal()
	_, err = r.Register(1, &fakeStream{})
	assert.ErrorIs(t, err, ErrRegistrySealed)
	assert.Equal(t, first.Len(), r.Seal().Len())
}

func TestRegistryNilStream(t *testing.T) {
	_, err := NewRegistry().Register(0, nil)
	assert.Error(t, err)
}

func TestViewStopsEarly(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		_, err := r.Register(i, &fakeStream{})
		require.NoError(t, err)
	}
	seen := 0
	for range r.Seal().All() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}
