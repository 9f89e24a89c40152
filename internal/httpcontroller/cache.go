package httpcontroller

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/stressnet-go/internal/classifier"
)

// resultCache remembers predictions for identical uploads. The model is
// frozen and the pipeline deterministic, so a hit returns exactly what a
// fresh run would. A nil *resultCache is a disabled cache.
type resultCache struct {
	store *cache.Cache
}

func newResultCache(ttl time.Duration) *resultCache {
	if ttl <= 0 {
		return nil
	}
	return &resultCache{store: cache.New(ttl, 2*ttl)}
}

// resultKey returns the cache key for an upload: SHA-256 of the bytes and the
// normalized format hint.
func resultKey(audio []byte, format string) string {
	sum := sha256.Sum256(audio)
	return format + ":" + hex.EncodeToString(sum[:])
}

func (rc *resultCache) get(key string) (*classifier.Prediction, bool) {
	if rc == nil {
		return nil, false
	}
	v, ok := rc.store.Get(key)
	if !ok {
		return nil, false
	}
	p, ok := v.(*classifier.Prediction)
	return p, ok
}

func (rc *resultCache) set(key string, p *classifier.Prediction) {
	if rc == nil {
		return
	}
	rc.store.Set(key, p, cache.DefaultExpiration)
}

func (rc *resultCache) len() int {
	if rc == nil {
		return 0
	}
	return rc.store.ItemCount()
}
