/*
Package gallery holds the set of photos a viewer can be shown and
the rules for moving between them.
*/
package gallery

import (
	"math/rand/v2"
	"sync"
)

type Gallery struct {
	mu    sync.RWMutex
	keys  []string
	index map[string]int
	rng   func(n int) int
}

type GalleryOption func(g *Gallery)

// WithRandom swaps the random source. The function must return a value in [0, n).
func WithRandom(rng func(n int) int) GalleryOption {
	return func(g *Gallery) {
		g.rng = rng
	}
}

func New(options ...GalleryOption) *Gallery {
	result := &Gallery{
		keys:  []string{},
		index: map[string]int{},
		rng:   rand.IntN,
	}

	for _, option := range options {
		option(result)
	}

	return result
}

/*
Replace swaps the whole photo list. Duplicates and empty keys are
dropped, first occurrence wins.
*/
func (g *Gallery) Replace(keys []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.keys = make([]string, 0, len(keys))
	g.index = make(map[string]int, len(keys))

	for _, key := range keys {
		if key == "" {
			continue
		}

		if _, ok := g.index[key]; ok {
			continue
		}

		g.index[key] = len(g.keys)
		g.keys = append(g.keys, key)
	}
}

func (g *Gallery) Random() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.keys) == 0 {
		return "", false
	}

	return g.keys[g.pick(len(g.keys))], true
}

/*
RandomExcept picks a random photo other than current when there is
more than one to choose from.
*/
func (g *Gallery) RandomExcept(current string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := len(g.keys)

	if n == 0 {
		return "", false
	}

	i, ok := g.index[current]

	if !ok || n == 1 {
		return g.keys[g.pick(n)], true
	}

	// Draw from the n-1 other slots, skipping over the current one.
	j := g.pick(n - 1)

	if j >= i {
		j++
	}

	return g.keys[j], true
}

// Remove drops key from the list. Removing a key that is not present does nothing.
func (g *Gallery) Remove(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	i, ok := g.index[key]

	if !ok {
		return false
	}

	last := len(g.keys) - 1
	g.keys[i] = g.keys[last]
	g.index[g.keys[i]] = i
	g.keys = g.keys[:last]
	delete(g.index, key)

	return true
}

func (g *Gallery) Contains(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.index[key]
	return ok
}

func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.keys)
}

// Keys returns a copy of the current list.
func (g *Gallery) Keys() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]string, len(g.keys))
	copy(result, g.keys)
	return result
}

func (g *Gallery) pick(n int) int {
	i := g.rng(n)

	if i < 0 || i >= n {
		i = ((i % n) + n) % n
	}

	return i
}
