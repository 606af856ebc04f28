// internal/cache/observer.go
package cache

// Observer receives cache lookups per source. metrics.Metrics satisfies it.
type Observer interface {
	CacheHit(source string)
	CacheMiss(source string)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)  {}
func (nopObserver) CacheMiss(string) {}
