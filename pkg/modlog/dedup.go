package modlog

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultWindow is how long a logged message id suppresses repeats.
const DefaultWindow = 30 * time.Second

// Deduper remembers keys for a trailing window. Expired keys are evicted on
// every check; there is no background janitor.
type Deduper struct {
	cache *gocache.Cache
}

// NewDeduper creates a Deduper with the given window.
func NewDeduper(window time.Duration) *Deduper {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Deduper{cache: gocache.New(window, 0)}
}

// Seen records key and reports whether it was already recorded inside the window.
func (d *Deduper) Seen(key string) bool {
	d.cache.DeleteExpired()
	return d.cache.Add(key, struct{}{}, gocache.DefaultExpiration) != nil
}

// Len returns the number of keys currently remembered, expired or not.
func (d *Deduper) Len() int {
	return d.cache.ItemCount()
}
