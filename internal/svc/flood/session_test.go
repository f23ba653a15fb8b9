package flood

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCache_GetPutInvalidate(t *testing.T) {
	cache := NewSessionCache()
	id := Identity{URL: "http://h:3000", Username: "a"}

	_, ok := cache.Get(id)
	assert.False(t, ok)

	cache.Put(id, Token{"jwt": "one"})

	token, ok := cache.Get(id)
	require.True(t, ok)
	assert.Equal(t, Token{"jwt": "one"}, token)

	cache.Invalidate(id)

	_, ok = cache.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestSessionCache_CopiesTokens(t *testing.T) {
	cache := NewSessionCache()
	id := Identity{URL: "http://h:3000", Username: "a"}

	stored := Token{"jwt": "one"}
	cache.Put(id, stored)
	stored["jwt"] = "mutated"

	got, _ := cache.Get(id)
	got["jwt"] = "mutated-again"

	again, _ := cache.Get(id)
	assert.Equal(t, "one", again["jwt"])
}

func TestSessionCache_EmptyTokenIsCached(t *testing.T) {
	cache := NewSessionCache()
	id := Identity{URL: "http://h:3000"}

	cache.Put(id, nil)

	token, ok := cache.Get(id)
	assert.True(t, ok)
	assert.Empty(t, token)
}

func TestSessionCache_Concurrent(t *testing.T) {
	cache := NewSessionCache()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			id := Identity{URL: "http://h:3000", Username: fmt.Sprintf("user-%d", i%5)}
			cache.Put(id, Token{"jwt": fmt.Sprintf("token-%d", i)})

			if token, ok := cache.Get(id); ok {
				assert.Len(t, token, 1)
			}

			if i%7 == 0 {
				cache.Invalidate(id)
			}
		}(i)
	}

	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 5)
}

func TestIdentity_String(t *testing.T) {
	assert.Equal(t, "http://h:3000:a", Identity{URL: "http://h:3000", Username: "a"}.String())
}
