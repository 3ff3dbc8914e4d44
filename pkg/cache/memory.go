package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

func (m *memoryItem) expired() bool {
	return time.Now().After(m.expireAt)
}

// MemoryCache implements Service using in-memory storage.
// Values are stored JSON-encoded so Get behaves the same as the Redis backend.
type MemoryCache struct {
	data    map[string]*memoryItem
	mutex   sync.RWMutex
	maxSize int
}

// NewMemoryCache creates an in-memory cache bounded to maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryCache{
		data:    make(map[string]*memoryItem),
		maxSize: maxSize,
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = 7 * 24 * time.Hour
	}

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if len(mc.data) >= mc.maxSize {
		mc.evictExpired()
		if len(mc.data) >= mc.maxSize {
			mc.evictOldest()
		}
	}

	mc.data[key] = &memoryItem{
		data:     data,
		expireAt: time.Now().Add(expiration),
	}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mutex.Lock()
	item, exists := mc.data[key]
	if exists && item.expired() {
		delete(mc.data, key)
		exists = false
	}
	mc.mutex.Unlock()

	if !exists {
		return ErrCacheMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

func (mc *MemoryCache) evictExpired() {
	for key, item := range mc.data {
		if item.expired() {
			delete(mc.data, key)
		}
	}
}

func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, item := range mc.data {
		if oldestKey == "" || item.expireAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = item.expireAt
		}
	}
	if oldestKey != "" {
		delete(mc.data, oldestKey)
	}
}
